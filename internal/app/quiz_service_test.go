package app

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"lessonloop/internal/domain"
)

func TestSubmitScoresAndRejectsSecondAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 5)

	receipt, err := f.quizzes.Submit(ctx, f.alice, quiz.ID, answers(5, 4))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if receipt.Score != 4 || receipt.TotalQuestions != 5 || receipt.QuizResultID == "" {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	_, err = f.quizzes.Submit(ctx, f.alice, quiz.ID, answers(5, 5))
	if !errors.Is(err, domain.ErrAlreadySubmitted) {
		t.Fatalf("expected already submitted, got %v", err)
	}
	result, err := f.quizzes.MyResult(ctx, f.alice, quiz.ID)
	if err != nil || result.Score != 4 {
		t.Fatalf("expected first result kept, got %+v, %v", result, err)
	}
}

func TestConcurrentSubmitsStoreOneResult(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 2)

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.quizzes.Submit(ctx, f.bob, quiz.ID, answers(2, 1))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case !errors.Is(err, domain.ErrAlreadySubmitted):
			t.Fatalf("unexpected error %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("expected exactly one accepted submission, got %d", ok)
	}
}

func TestSubmitFlagsLateButAccepts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{
		Title:     "Decimals",
		Topic:     "Arithmetic",
		Questions: []domain.Question{{Text: "0.5 + 0.5?", Options: []domain.Option{{Text: "1"}, {Text: "0"}}}},
		DueDate:   "2024-03-09",
		DueTime:   "17:00",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if quiz.DueAt == nil || !quiz.DueAt.Equal(time.Date(2024, 3, 9, 17, 0, 0, 0, time.UTC)) {
		t.Fatalf("unexpected due %v", quiz.DueAt)
	}
	if _, err := f.quizzes.Publish(ctx, f.teacher, quiz.ID); err != nil {
		t.Fatalf("publish: %v", err)
	}

	receipt, err := f.quizzes.Submit(ctx, f.alice, quiz.ID, answers(1, 1))
	if err != nil {
		t.Fatalf("late submit should be accepted: %v", err)
	}
	if !receipt.IsLate || receipt.Score != 1 {
		t.Fatalf("expected late flag and score 1, got %+v", receipt)
	}
}

func TestSubmitGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	draft, err := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{
		Title:     "Draft",
		Topic:     "Arithmetic",
		Questions: []domain.Question{{Text: "?", Options: []domain.Option{{Text: "a"}, {Text: "b"}}}},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.quizzes.Submit(ctx, f.alice, draft.ID, nil); !errors.Is(err, domain.ErrQuizNotPublished) {
		t.Fatalf("expected not published, got %v", err)
	}

	published := f.publishedQuiz(t, "Live", "Arithmetic", 1)
	stranger := domain.User{ID: "s9", Role: domain.RoleStudent}
	if _, err := f.quizzes.Submit(ctx, stranger, published.ID, nil); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden for non-member, got %v", err)
	}
	if _, err := f.quizzes.Submit(ctx, f.teacher, published.ID, nil); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden for teacher, got %v", err)
	}
	if _, err := f.quizzes.Submit(ctx, f.alice, "missing", nil); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected quiz not found, got %v", err)
	}
}

func TestScoreIgnoresDuplicatesAndOutOfRange(t *testing.T) {
	quiz := domain.Quiz{Questions: []domain.Question{
		{Options: []domain.Option{{Text: "a"}, {Text: "b"}}, CorrectAnswer: 1},
		{Options: []domain.Option{{Text: "a"}, {Text: "b"}}, CorrectAnswer: 0},
	}}
	one, zero := 1, 0
	got := Score(quiz, []domain.Answer{
		{QuestionIndex: 0, SelectedOption: &one},
		{QuestionIndex: 0, SelectedOption: &one},
		{QuestionIndex: 5, SelectedOption: &zero},
		{QuestionIndex: 1},
	})
	if got != 1 {
		t.Fatalf("expected score 1, got %d", got)
	}
}

func TestStatusNeverReturnsToDraft(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 1)

	draft := domain.QuizDraft
	if _, err := f.quizzes.Update(ctx, f.teacher, quiz.ID, QuizUpdate{Status: &draft}); domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	archived := domain.QuizArchived
	updated, err := f.quizzes.Update(ctx, f.teacher, quiz.ID, QuizUpdate{Status: &archived})
	if err != nil || updated.Status != domain.QuizArchived {
		t.Fatalf("expected archive to succeed, got %+v, %v", updated, err)
	}
	if _, err := f.quizzes.Update(ctx, f.alice, quiz.ID, QuizUpdate{Status: &archived}); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden for non-creator, got %v", err)
	}
}

func TestStudentsDoNotSeeDrafts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishedQuiz(t, "Live", "Arithmetic", 1)
	draft, _ := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{
		Title:     "Hidden",
		Topic:     "Arithmetic",
		Questions: []domain.Question{{Text: "?", Options: []domain.Option{{Text: "a"}, {Text: "b"}}}},
	})

	forTeacher, _ := f.quizzes.List(ctx, f.teacher, f.class.ID)
	forStudent, _ := f.quizzes.List(ctx, f.alice, f.class.ID)
	if len(forTeacher) != 2 || len(forStudent) != 1 || forStudent[0].Title != "Live" {
		t.Fatalf("unexpected lists: teacher %d, student %d", len(forTeacher), len(forStudent))
	}
	if _, err := f.quizzes.Get(ctx, f.alice, draft.ID); !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected draft hidden from student, got %v", err)
	}
}

func TestCreateQuizNotifiesRoster(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.publishedQuiz(t, "Fractions", "Arithmetic", 1)

	for _, s := range []domain.User{f.alice, f.bob, f.carol} {
		inbox, err := f.notifications.List(ctx, s)
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(inbox) != 1 || inbox[0].Type != domain.NotifyNewQuiz {
			t.Fatalf("expected one quiz notification for %s, got %+v", s.Name, inbox)
		}
		if !strings.Contains(inbox[0].Message, `"Fractions"`) || inbox[0].Link != "/class/"+f.class.ID {
			t.Fatalf("unexpected notification %+v", inbox[0])
		}
	}
}

func TestCreateQuizValidatesQuestions(t *testing.T) {
	f := newFixture(t)
	_, err := f.quizzes.Create(context.Background(), f.teacher, f.class.ID, QuizInput{
		Title:     "Broken",
		Questions: []domain.Question{{Text: "?", Options: []domain.Option{{Text: "a"}, {Text: "b"}}, CorrectAnswer: 2}},
	})
	if domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid, got %v", err)
	}
	_, err = f.quizzes.Create(context.Background(), f.teacher, f.class.ID, QuizInput{
		Title:     "Bad date",
		Questions: []domain.Question{{Text: "?", Options: []domain.Option{{Text: "a"}, {Text: "b"}}}},
		DueDate:   "10/03/2024",
	})
	if domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid due date, got %v", err)
	}
}

func TestDeleteRemovesResultsAndRefreshesCatalog(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 1)
	_, _ = f.quizzes.Submit(ctx, f.alice, quiz.ID, answers(1, 1))

	if err := f.quizzes.Delete(ctx, f.teacher, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := f.quizzes.List(ctx, f.teacher, f.class.ID)
	if len(list) != 0 {
		t.Fatalf("expected empty list after delete, got %d", len(list))
	}
	if ok, _ := f.stores.Results.Exists(ctx, quiz.ID, f.alice.ID); ok {
		t.Fatalf("expected results removed with the quiz")
	}
}

func TestResultsViewsAndAttempt(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 2)
	aliceReceipt, _ := f.quizzes.Submit(ctx, f.alice, quiz.ID, answers(2, 2))
	_, _ = f.quizzes.Submit(ctx, f.bob, quiz.ID, answers(2, 0))

	results, err := f.quizzes.Results(ctx, f.teacher, quiz.ID)
	if err != nil {
		t.Fatalf("results: %v", err)
	}
	if len(results) != 2 || results[0].Student.Name != "Alice" || results[1].Student.Email != "bob@school.test" {
		t.Fatalf("unexpected results %+v", results)
	}

	mine, err := f.quizzes.MyResults(ctx, f.alice, f.class.ID)
	if err != nil || len(mine) != 1 || mine[0].Quiz.Title != "Fractions" {
		t.Fatalf("unexpected my results %+v, %v", mine, err)
	}

	attempt, err := f.quizzes.Attempt(ctx, f.alice, aliceReceipt.QuizResultID)
	if err != nil || attempt.Quiz.ID != quiz.ID {
		t.Fatalf("attempt: %+v, %v", attempt, err)
	}
	if _, err := f.quizzes.Attempt(ctx, f.bob, aliceReceipt.QuizResultID); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden for another student, got %v", err)
	}
	if _, err := f.quizzes.Attempt(ctx, f.teacher, aliceReceipt.QuizResultID); err != nil {
		t.Fatalf("teacher attempt: %v", err)
	}
}

type stubGenerator struct {
	questions []domain.GeneratedQuestion
	err       error
}

func (g stubGenerator) Generate(context.Context, domain.GenerateRequest) ([]domain.GeneratedQuestion, error) {
	return g.questions, g.err
}

func TestGenerate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	req := domain.GenerateRequest{Topic: "Fractions", NumQuestions: 1, Difficulty: "Easy", GradeLevel: "5"}

	if _, err := f.quizzes.Generate(ctx, f.teacher, req); domain.KindOf(err) != domain.KindUpstream {
		t.Fatalf("expected upstream error without generator, got %v", err)
	}

	f.quizzes.generator = stubGenerator{questions: []domain.GeneratedQuestion{{Text: "1/2 + 1/2?"}}}
	got, err := f.quizzes.Generate(ctx, f.teacher, req)
	if err != nil || len(got) != 1 {
		t.Fatalf("generate: %v, %v", got, err)
	}
	if _, err := f.quizzes.Generate(ctx, f.alice, req); domain.KindOf(err) != domain.KindForbidden {
		t.Fatalf("expected forbidden for student, got %v", err)
	}
}

func TestUpdateDueTimeKeepsDueDate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	questions := []domain.Question{{Text: "?", Options: []domain.Option{{Text: "a"}, {Text: "b"}}}}

	quiz, err := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{Title: "Fractions", Questions: questions, DueDate: "2024-03-15"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	clock := "17:30"
	updated, err := f.quizzes.Update(ctx, f.teacher, quiz.ID, QuizUpdate{DueTime: &clock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	want := time.Date(2024, 3, 15, 17, 30, 0, 0, time.UTC)
	if updated.DueAt == nil || !updated.DueAt.Equal(want) {
		t.Fatalf("expected due %v, got %v", want, updated.DueAt)
	}

	undated, err := f.quizzes.Create(ctx, f.teacher, f.class.ID, QuizInput{Title: "Decimals", Questions: questions})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.quizzes.Update(ctx, f.teacher, undated.ID, QuizUpdate{DueTime: &clock}); domain.KindOf(err) != domain.KindInvalid {
		t.Fatalf("expected invalid for a due time without a date, got %v", err)
	}
	stored, _ := f.stores.Quizzes.GetQuiz(ctx, undated.ID)
	if stored.DueAt != nil {
		t.Fatalf("expected rejected update to leave the quiz undated, got %v", stored.DueAt)
	}
}

func TestQuizFollowUpFailuresAreReported(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	reporter := &recordingReporter{}
	f.quizzes.catalog = failingCatalog{f.stores.Catalog}
	f.quizzes.notifier = NewNotificationService(failingNotificationStore{f.stores.Notifications})
	f.quizzes.WithReporter(reporter)

	quiz := f.publishedQuiz(t, "Fractions", "Arithmetic", 1)
	stored, err := f.stores.Quizzes.GetQuiz(ctx, quiz.ID)
	if err != nil || stored.Status != domain.QuizPublished {
		t.Fatalf("expected quiz stored and published despite failures, got %+v, %v", stored, err)
	}
	if err := f.quizzes.Delete(ctx, f.teacher, quiz.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	want := []string{"invalidate quiz catalog", "notify new quiz", "invalidate quiz catalog", "invalidate quiz catalog"}
	got := reporter.reported()
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected reports %v, got %v", want, got)
	}
}
