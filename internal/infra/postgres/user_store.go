package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

const userColumns = `id, identity_id, name, email, role, avatar_url, created_at`

func scanUser(row pgx.Row) (domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.IdentityID, &u.Name, &u.Email, &role, &u.AvatarURL, &u.CreatedAt); err != nil {
		return domain.User{}, err
	}
	u.Role = domain.Role(role)
	return u, nil
}

func (s *UserStore) CreateUser(ctx context.Context, user domain.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.IdentityID, user.Name, user.Email, string(user.Role), user.AvatarURL, user.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrProfileExists
	}
	return errors.Wrap(err, "insert user")
}

func (s *UserStore) GetUser(ctx context.Context, userID string) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, userID))
	if err != nil {
		return domain.User{}, notFoundOr(err, domain.ErrUserNotFound, "get user")
	}
	return u, nil
}

func (s *UserStore) GetByIdentity(ctx context.Context, identityID string) (domain.User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE identity_id = $1`, identityID))
	if err != nil {
		return domain.User{}, notFoundOr(err, domain.ErrUserNotFound, "get user by identity")
	}
	return u, nil
}

// GetUsers keeps the order of ids and skips ids without a profile.
func (s *UserStore) GetUsers(ctx context.Context, ids []string) ([]domain.User, error) {
	if len(ids) == 0 {
		return []domain.User{}, nil
	}
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "get users")
	}
	defer rows.Close()

	byID := make(map[string]domain.User, len(ids))
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan user")
		}
		byID[u.ID] = u
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "get users")
	}

	out := make([]domain.User, 0, len(byID))
	for _, id := range ids {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}
