package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"lessonloop/internal/domain"
	"lessonloop/internal/infra/memory"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	stores        Stores
	hub           *memory.PollHub
	notifications *NotificationService
	classes       *ClassService
	quizzes       *QuizService
	polls         *PollService
	attendance    *AttendanceService
	analytics     *AnalyticsService

	teacher domain.User
	alice   domain.User
	bob     domain.User
	carol   domain.User
	class   domain.Class
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	quizStore := memory.NewQuizStore()
	f := &fixture{
		stores: Stores{
			Classes:       memory.NewClassStore(),
			Quizzes:       quizStore,
			Catalog:       memory.NewQuizCatalog(quizStore, time.Minute),
			Results:       memory.NewResultStore(),
			Users:         memory.NewUserStore(),
			Polls:         memory.NewPollStore(),
			Attendance:    memory.NewAttendanceStore(),
			Notifications: memory.NewNotificationStore(),
		},
		hub:     memory.NewPollHub(),
		teacher: domain.User{ID: "t1", Name: "Ms Frizzle", Email: "frizzle@school.test", Role: domain.RoleTeacher},
		alice:   domain.User{ID: "s1", Name: "Alice", Email: "alice@school.test", Role: domain.RoleStudent},
		bob:     domain.User{ID: "s2", Name: "Bob", Email: "bob@school.test", Role: domain.RoleStudent},
		carol:   domain.User{ID: "s3", Name: "Carol", Email: "carol@school.test", Role: domain.RoleStudent},
	}
	clock := func() time.Time { return fixedNow }

	f.notifications = NewNotificationService(f.stores.Notifications)
	f.notifications.now = clock
	f.classes = NewClassService(f.stores)
	f.classes.now = clock
	f.quizzes = NewQuizService(f.stores, f.notifications, nil)
	f.quizzes.now = clock
	f.polls = NewPollService(f.stores, f.hub, f.notifications)
	f.polls.now = clock
	f.attendance = NewAttendanceService(f.stores)
	f.attendance.now = clock
	f.analytics = NewAnalyticsService(f.stores)

	ctx := context.Background()
	for _, u := range []domain.User{f.teacher, f.alice, f.bob, f.carol} {
		u.IdentityID = "idp-" + u.ID
		if err := f.stores.Users.CreateUser(ctx, u); err != nil {
			t.Fatalf("seed user: %v", err)
		}
	}

	class, err := f.classes.Create(ctx, f.teacher, "Year 5 Maths")
	if err != nil {
		t.Fatalf("create class: %v", err)
	}
	for _, s := range []domain.User{f.alice, f.bob, f.carol} {
		if class, err = f.classes.Join(ctx, s, class.InviteCode); err != nil {
			t.Fatalf("join: %v", err)
		}
	}
	f.class = class
	return f
}

// publishedQuiz creates and publishes a quiz with n questions whose correct
// answer is always option 0.
func (f *fixture) publishedQuiz(t *testing.T, title, topic string, n int) domain.Quiz {
	t.Helper()
	ctx := context.Background()
	questions := make([]domain.Question, n)
	for i := range questions {
		questions[i] = domain.Question{
			Text:          "Question",
			Options:       []domain.Option{{Text: "right"}, {Text: "wrong"}},
			CorrectAnswer: 0,
		}
	}
	quiz, err := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{Title: title, Topic: topic, Questions: questions})
	if err != nil {
		t.Fatalf("create quiz: %v", err)
	}
	quiz, err = f.quizzes.Publish(ctx, f.teacher, quiz.ID)
	if err != nil {
		t.Fatalf("publish quiz: %v", err)
	}
	return quiz
}

// answers returns n answers of which the first correct are right.
func answers(n, correct int) []domain.Answer {
	out := make([]domain.Answer, n)
	for i := range out {
		choice := 1
		if i < correct {
			choice = 0
		}
		out[i] = domain.Answer{QuestionIndex: i, SelectedOption: &choice}
	}
	return out
}

var errBackendDown = errors.New("backend down")

// recordingReporter keeps the op names of reported failures in order.
type recordingReporter struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingReporter) ReportFailure(_ context.Context, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if errors.Is(err, errBackendDown) {
		r.ops = append(r.ops, op)
	}
}

func (r *recordingReporter) reported() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

type failingCatalog struct{ QuizCatalog }

func (failingCatalog) Invalidate(context.Context, string) error { return errBackendDown }

type failingEvents struct{ PollEvents }

func (failingEvents) Publish(context.Context, string, domain.PollEvent) error { return errBackendDown }

type failingNotificationStore struct{ NotificationStore }

func (failingNotificationStore) CreateNotifications(context.Context, []domain.Notification) error {
	return errBackendDown
}
