package app

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/domain"
)

var errTokenFailed = domain.Unauthorized("Not authorized, token failed")

// RegisterInput is the profile a verified identity registers with.
type RegisterInput struct {
	Name        string      `json:"name" validate:"required"`
	Email       string      `json:"email" validate:"required,email"`
	Role        domain.Role `json:"role" validate:"required,oneof=Teacher Student"`
	TeacherCode string      `json:"teacherCode"`
	AvatarURL   string      `json:"avatarUrl" validate:"omitempty,url"`
}

// UserService links identities to profiles.
type UserService struct {
	users       UserStore
	identities  IdentityProvider
	teacherCode string
	now         func() time.Time
}

func NewUserService(users UserStore, identities IdentityProvider, teacherCode string) *UserService {
	return &UserService{users: users, identities: identities, teacherCode: teacherCode, now: time.Now}
}

// VerifyToken checks a bearer credential with the identity provider.
func (s *UserService) VerifyToken(ctx context.Context, token string) (domain.Identity, error) {
	if strings.TrimSpace(token) == "" {
		return domain.Identity{}, domain.Unauthorized("Not authorized, no token")
	}
	identity, err := s.identities.Verify(ctx, token)
	if err != nil {
		if k := domain.KindOf(err); k == domain.KindUpstream || k == domain.KindUnauthorized {
			return domain.Identity{}, err
		}
		return domain.Identity{}, errTokenFailed
	}
	return identity, nil
}

// Authenticate resolves a bearer credential to the caller's profile.
func (s *UserService) Authenticate(ctx context.Context, token string) (domain.User, error) {
	identity, err := s.VerifyToken(ctx, token)
	if err != nil {
		return domain.User{}, err
	}
	user, err := s.users.GetByIdentity(ctx, identity.UID)
	if err != nil {
		if domain.KindOf(err) == domain.KindNotFound {
			return domain.User{}, domain.ErrProfileNotFound
		}
		return domain.User{}, err
	}
	return user, nil
}

// RegisterProfile creates the profile of a verified identity. Teachers must
// present the configured registration code.
func (s *UserService) RegisterProfile(ctx context.Context, identity domain.Identity, in RegisterInput) (domain.User, error) {
	if in.Role == domain.RoleTeacher && (s.teacherCode == "" || in.TeacherCode != s.teacherCode) {
		return domain.User{}, domain.Forbidden("Invalid teacher registration code")
	}
	if _, err := s.users.GetByIdentity(ctx, identity.UID); err == nil {
		return domain.User{}, domain.ErrProfileExists
	} else if domain.KindOf(err) != domain.KindNotFound {
		return domain.User{}, err
	}

	user := domain.User{
		ID:         uuid.NewString(),
		IdentityID: identity.UID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.ToLower(strings.TrimSpace(in.Email)),
		Role:       in.Role,
		AvatarURL:  in.AvatarURL,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// Profile returns a profile by id.
func (s *UserService) Profile(ctx context.Context, userID string) (domain.User, error) {
	return s.users.GetUser(ctx, userID)
}
