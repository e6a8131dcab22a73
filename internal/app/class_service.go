package app

import (
	"context"
	"crypto/rand"
	"errors"
	"math/big"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/analytics"
	"lessonloop/internal/domain"
)

const (
	inviteCodeLength   = 8
	inviteCodeAttempts = 5
	inviteCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// ClassService manages classes, enrolment and the per-class grade views.
type ClassService struct {
	classes ClassStore
	users   UserStore
	catalog QuizCatalog
	results ResultStore
	now     func() time.Time
	newCode func() (string, error)
}

func NewClassService(stores Stores) *ClassService {
	return &ClassService{
		classes: stores.Classes,
		users:   stores.Users,
		catalog: stores.Catalog,
		results: stores.Results,
		now:     time.Now,
		newCode: newInviteCode,
	}
}

// Create opens a class owned by teacher with a fresh invite code.
func (s *ClassService) Create(ctx context.Context, teacher domain.User, name string) (domain.Class, error) {
	if err := requireRole(teacher, domain.RoleTeacher); err != nil {
		return domain.Class{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Class{}, domain.Invalid("Class name is required")
	}

	class := domain.Class{
		ID:          uuid.NewString(),
		Name:        name,
		TeacherID:   teacher.ID,
		TeacherName: teacher.Name,
		StudentIDs:  []string{},
		CreatedAt:   s.now().UTC(),
	}
	for attempt := 0; attempt < inviteCodeAttempts; attempt++ {
		code, err := s.newCode()
		if err != nil {
			return domain.Class{}, err
		}
		class.InviteCode = code
		err = s.classes.CreateClass(ctx, class)
		if errors.Is(err, domain.ErrInviteCodeTaken) {
			continue
		}
		if err != nil {
			return domain.Class{}, err
		}
		return class, nil
	}
	return domain.Class{}, domain.ErrInviteCodeTaken
}

// List returns the classes a teacher owns or a student attends.
func (s *ClassService) List(ctx context.Context, requester domain.User) ([]domain.Class, error) {
	if requester.Role == domain.RoleTeacher {
		return s.classes.ListForTeacher(ctx, requester.ID)
	}
	return s.classes.ListForStudent(ctx, requester.ID)
}

// ClassDetails is a class with its resolved roster.
type ClassDetails struct {
	domain.Class
	Students []StudentSummary `json:"students"`
}

// Get returns a class and its roster to one of its members.
func (s *ClassService) Get(ctx context.Context, requester domain.User, classID string) (ClassDetails, error) {
	class, err := memberClass(ctx, s.classes, requester, classID)
	if err != nil {
		return ClassDetails{}, err
	}
	students, err := roster(ctx, s.users, class)
	if err != nil {
		return ClassDetails{}, err
	}
	details := ClassDetails{Class: class, Students: make([]StudentSummary, 0, len(students))}
	for _, u := range students {
		details.Students = append(details.Students, summarize(u))
	}
	return details, nil
}

// Rename changes the name of a class the requester teaches.
func (s *ClassService) Rename(ctx context.Context, requester domain.User, classID, name string) (domain.Class, error) {
	if _, err := ownedClass(ctx, s.classes, requester, classID); err != nil {
		return domain.Class{}, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Class{}, domain.Invalid("Class name is required")
	}
	return s.classes.RenameClass(ctx, classID, name)
}

// Join enrols a student through an invite code. Joining twice is a no-op.
func (s *ClassService) Join(ctx context.Context, student domain.User, inviteCode string) (domain.Class, error) {
	if err := requireRole(student, domain.RoleStudent); err != nil {
		return domain.Class{}, err
	}
	code := strings.ToUpper(strings.TrimSpace(inviteCode))
	if code == "" {
		return domain.Class{}, domain.Invalid("Invite code is required")
	}
	class, err := s.classes.FindByInviteCode(ctx, code)
	if err != nil {
		return domain.Class{}, err
	}
	if class.HasStudent(student.ID) {
		return class, nil
	}
	return s.classes.AddStudent(ctx, class.ID, student.ID)
}

// Gradebook lists every enrolled student's overall average, in roster order.
func (s *ClassService) Gradebook(ctx context.Context, requester domain.User, classID string) ([]analytics.GradebookRow, error) {
	class, err := ownedClass(ctx, s.classes, requester, classID)
	if err != nil {
		return nil, err
	}
	students, err := roster(ctx, s.users, class)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListForQuizzes(ctx, quizIDs(quizzes))
	if err != nil {
		return nil, err
	}
	return analytics.BuildGradebook(students, results), nil
}

// MyGrades lists the requesting student's percentage on each quiz they took.
func (s *ClassService) MyGrades(ctx context.Context, requester domain.User, classID string) ([]analytics.Grade, error) {
	class, err := enrolledClass(ctx, s.classes, requester, classID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListForStudentInQuizzes(ctx, requester.ID, quizIDs(quizzes))
	if err != nil {
		return nil, err
	}
	return analytics.StudentGrades(quizzes, results), nil
}

// Export gathers everything the class report is rendered from.
func (s *ClassService) Export(ctx context.Context, requester domain.User, classID string) (analytics.Report, error) {
	class, err := ownedClass(ctx, s.classes, requester, classID)
	if err != nil {
		return analytics.Report{}, err
	}
	students, err := roster(ctx, s.users, class)
	if err != nil {
		return analytics.Report{}, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return analytics.Report{}, err
	}
	results, err := s.results.ListForQuizzes(ctx, quizIDs(quizzes))
	if err != nil {
		return analytics.Report{}, err
	}
	teacherName := class.TeacherName
	if teacherName == "" {
		teacherName = requester.Name
	}
	return analytics.Report{
		Class:       class,
		TeacherName: teacherName,
		Roster:      students,
		Quizzes:     quizzes,
		Results:     results,
		ExportedAt:  s.now(),
	}, nil
}

func newInviteCode() (string, error) {
	max := big.NewInt(int64(len(inviteCodeAlphabet)))
	buf := make([]byte, inviteCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", err
		}
		buf[i] = inviteCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
