package app

import (
	"context"

	"lessonloop/internal/domain"
)

// ClassStore persists classes and their ordered rosters.
type ClassStore interface {
	// CreateClass returns domain.ErrInviteCodeTaken when the invite code is in use.
	CreateClass(ctx context.Context, class domain.Class) error
	GetClass(ctx context.Context, classID string) (domain.Class, error)
	FindByInviteCode(ctx context.Context, code string) (domain.Class, error)
	ListForTeacher(ctx context.Context, teacherID string) ([]domain.Class, error)
	ListForStudent(ctx context.Context, studentID string) ([]domain.Class, error)
	// AddStudent appends studentID to the roster unless already present.
	AddStudent(ctx context.Context, classID, studentID string) (domain.Class, error)
	RenameClass(ctx context.Context, classID, name string) (domain.Class, error)
}

// QuizStore persists quizzes. ListForClass returns quizzes in creation order.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	ListForClass(ctx context.Context, classID string) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
}

// QuizCatalog serves a class's quiz list, usually from a cache in front of a QuizStore.
type QuizCatalog interface {
	QuizzesForClass(ctx context.Context, classID string) ([]domain.Quiz, error)
	Invalidate(ctx context.Context, classID string) error
}

// ResultStore persists quiz submissions.
type ResultStore interface {
	// CreateResult inserts the result only when no result exists for the same
	// quiz and student, otherwise it returns domain.ErrAlreadySubmitted.
	CreateResult(ctx context.Context, result domain.QuizResult) error
	Exists(ctx context.Context, quizID, studentID string) (bool, error)
	GetResult(ctx context.Context, resultID string) (domain.QuizResult, error)
	FindResult(ctx context.Context, quizID, studentID string) (domain.QuizResult, error)
	ListForQuizzes(ctx context.Context, quizIDs []string) ([]domain.QuizResult, error)
	ListForStudentInQuizzes(ctx context.Context, studentID string, quizIDs []string) ([]domain.QuizResult, error)
	ListForStudent(ctx context.Context, studentID string) ([]domain.QuizResult, error)
	DeleteForQuiz(ctx context.Context, quizID string) error
}

// UserStore persists profiles.
type UserStore interface {
	// CreateUser returns domain.ErrProfileExists when the identity already has a profile.
	CreateUser(ctx context.Context, user domain.User) error
	GetUser(ctx context.Context, userID string) (domain.User, error)
	GetByIdentity(ctx context.Context, identityID string) (domain.User, error)
	// GetUsers returns the profiles that exist, in the order of ids.
	GetUsers(ctx context.Context, ids []string) ([]domain.User, error)
}

// PollStore persists polls. Every mutation is atomic per poll.
type PollStore interface {
	// CreatePoll returns domain.ErrActivePollExists when the class already has an active poll.
	CreatePoll(ctx context.Context, poll domain.Poll) error
	GetPoll(ctx context.Context, pollID string) (domain.Poll, error)
	// ActivePoll returns nil when the class has no active poll.
	ActivePoll(ctx context.Context, classID string) (*domain.Poll, error)
	// RecordVote adds userID to the voted set and increments one option in a
	// single step. It fails with ErrPollInactive, ErrAlreadyVoted or
	// ErrInvalidPollOption without changing the poll.
	RecordVote(ctx context.Context, pollID, userID string, option int) (domain.Poll, error)
	EndPoll(ctx context.Context, pollID string) (domain.Poll, error)
}

// AttendanceStore keeps one register per class and date.
type AttendanceStore interface {
	UpsertAttendance(ctx context.Context, attendance domain.Attendance) (domain.Attendance, error)
	GetAttendance(ctx context.Context, classID, date string) (domain.Attendance, error)
}

// NotificationStore persists notifications. ListForRecipient returns newest first.
type NotificationStore interface {
	CreateNotifications(ctx context.Context, notifications []domain.Notification) error
	ListForRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error)
	GetNotification(ctx context.Context, notificationID string) (domain.Notification, error)
	MarkRead(ctx context.Context, notificationID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	DeleteNotification(ctx context.Context, notificationID string) error
	DeleteRead(ctx context.Context, recipientID string) error
}

// PollEvents fans poll state changes out to the subscribers of a class.
// The caller must invoke the returned cancel function to avoid leaks.
type PollEvents interface {
	Publish(ctx context.Context, classID string, event domain.PollEvent) error
	Subscribe(ctx context.Context, classID string) (<-chan domain.PollEvent, func(), error)
}

// IdentityProvider verifies bearer credentials.
type IdentityProvider interface {
	Verify(ctx context.Context, token string) (domain.Identity, error)
}

// QuestionGenerator drafts multiple-choice questions with an external model.
type QuestionGenerator interface {
	Generate(ctx context.Context, req domain.GenerateRequest) ([]domain.GeneratedQuestion, error)
}

// FailureReporter hears about follow-up work that failed after the main write
// was stored. The request itself still succeeds.
type FailureReporter interface {
	ReportFailure(ctx context.Context, op string, err error)
}

func report(ctx context.Context, r FailureReporter, op string, err error) {
	if err != nil && r != nil {
		r.ReportFailure(ctx, op, err)
	}
}

// Stores groups the persistence ports the services are built from.
type Stores struct {
	Classes       ClassStore
	Quizzes       QuizStore
	Catalog       QuizCatalog
	Results       ResultStore
	Users         UserStore
	Polls         PollStore
	Attendance    AttendanceStore
	Notifications NotificationStore
}
