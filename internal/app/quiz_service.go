package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"lessonloop/internal/domain"
)

const (
	dueDateLayout   = "2006-01-02"
	dueTimeLayout   = "15:04"
	defaultDueClock = "00:00"
)

// QuizInput carries the editable fields of a quiz.
type QuizInput struct {
	Title      string            `json:"title" validate:"required"`
	Topic      string            `json:"topic" validate:"required"`
	Difficulty string            `json:"difficulty"`
	Questions  []domain.Question `json:"questions" validate:"required,min=1"`
	DueDate    string            `json:"dueDate"`
	DueTime    string            `json:"dueTime"`
}

// QuizUpdate lists the fields to change. Nil fields are left untouched.
type QuizUpdate struct {
	Title      *string            `json:"title"`
	Topic      *string            `json:"topic"`
	Difficulty *string            `json:"difficulty"`
	Questions  []domain.Question  `json:"questions"`
	DueDate    *string            `json:"dueDate"`
	DueTime    *string            `json:"dueTime"`
	Status     *domain.QuizStatus `json:"status"`
}

// SubmitReceipt is returned to a student after a submission is stored.
type SubmitReceipt struct {
	Score          int    `json:"score"`
	TotalQuestions int    `json:"totalQuestions"`
	QuizResultID   string `json:"quizResultId"`
	IsLate         bool   `json:"isLate"`
}

// ResultWithStudent is a submission joined with the student's profile.
type ResultWithStudent struct {
	domain.QuizResult
	Student StudentSummary `json:"student"`
}

// QuizSummary is the part of a quiz shown next to a student's result.
type QuizSummary struct {
	ID             string     `json:"_id"`
	Title          string     `json:"title"`
	Topic          string     `json:"topic"`
	TotalQuestions int        `json:"totalQuestions"`
	DueAt          *time.Time `json:"dueDate"`
}

// ResultWithQuiz is a submission joined with its quiz.
type ResultWithQuiz struct {
	domain.QuizResult
	Quiz QuizSummary `json:"quiz"`
}

// Attempt is one submission together with the full quiz it answers.
type Attempt struct {
	Result domain.QuizResult `json:"result"`
	Quiz   domain.Quiz       `json:"quiz"`
}

// QuizService contains the quiz authoring and submission use cases.
type QuizService struct {
	classes   ClassStore
	quizzes   QuizStore
	catalog   QuizCatalog
	results   ResultStore
	users     UserStore
	notifier  *NotificationService
	generator QuestionGenerator
	reporter  FailureReporter
	now       func() time.Time
}

func NewQuizService(stores Stores, notifier *NotificationService, generator QuestionGenerator) *QuizService {
	return &QuizService{
		classes:   stores.Classes,
		quizzes:   stores.Quizzes,
		catalog:   stores.Catalog,
		results:   stores.Results,
		users:     stores.Users,
		notifier:  notifier,
		generator: generator,
		now:       time.Now,
	}
}

// WithReporter sets where failed cache invalidations and notifications go.
func (s *QuizService) WithReporter(r FailureReporter) *QuizService {
	s.reporter = r
	return s
}

// Create adds a Draft quiz to a class the requester teaches and notifies the roster.
func (s *QuizService) Create(ctx context.Context, teacher domain.User, classID string, in QuizInput) (domain.Quiz, error) {
	class, err := ownedClass(ctx, s.classes, teacher, classID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if strings.TrimSpace(in.Title) == "" {
		return domain.Quiz{}, domain.Invalid("Quiz title is required")
	}
	if err := checkQuestions(in.Questions); err != nil {
		return domain.Quiz{}, err
	}
	due, err := parseDue(in.DueDate, in.DueTime)
	if err != nil {
		return domain.Quiz{}, err
	}

	quiz := domain.Quiz{
		ID:         uuid.NewString(),
		ClassID:    class.ID,
		Title:      strings.TrimSpace(in.Title),
		Topic:      strings.TrimSpace(in.Topic),
		Difficulty: in.Difficulty,
		Questions:  in.Questions,
		Status:     domain.QuizDraft,
		DueAt:      due,
		CreatedBy:  teacher.ID,
		CreatedAt:  s.now().UTC(),
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	report(ctx, s.reporter, "invalidate quiz catalog", s.catalog.Invalidate(ctx, class.ID))

	msg := fmt.Sprintf("A new quiz %q has been posted in %s.", quiz.Title, class.Name)
	report(ctx, s.reporter, "notify new quiz", s.notifier.Broadcast(ctx, class.StudentIDs, domain.NotifyNewQuiz, msg, "/class/"+class.ID))
	return quiz, nil
}

// List returns a class's quizzes. Students never see drafts.
func (s *QuizService) List(ctx context.Context, requester domain.User, classID string) ([]domain.Quiz, error) {
	class, err := memberClass(ctx, s.classes, requester, classID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	if class.IsTeacher(requester.ID) {
		return quizzes, nil
	}
	visible := make([]domain.Quiz, 0, len(quizzes))
	for _, q := range quizzes {
		if q.Status != domain.QuizDraft {
			visible = append(visible, q)
		}
	}
	return visible, nil
}

// Get returns a quiz to a member of its class.
func (s *QuizService) Get(ctx context.Context, requester domain.User, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	class, err := memberClass(ctx, s.classes, requester, quiz.ClassID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if !class.IsTeacher(requester.ID) && quiz.Status == domain.QuizDraft {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	return quiz, nil
}

func (s *QuizService) authored(ctx context.Context, requester domain.User, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.CreatedBy != requester.ID {
		return domain.Quiz{}, domain.Forbidden("Not authorized to modify this quiz")
	}
	return quiz, nil
}

// Update edits a quiz the requester created.
func (s *QuizService) Update(ctx context.Context, requester domain.User, quizID string, in QuizUpdate) (domain.Quiz, error) {
	quiz, err := s.authored(ctx, requester, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return domain.Quiz{}, domain.Invalid("Quiz title is required")
		}
		quiz.Title = title
	}
	if in.Topic != nil {
		quiz.Topic = strings.TrimSpace(*in.Topic)
	}
	if in.Difficulty != nil {
		quiz.Difficulty = *in.Difficulty
	}
	if in.Questions != nil {
		if err := checkQuestions(in.Questions); err != nil {
			return domain.Quiz{}, err
		}
		quiz.Questions = in.Questions
	}
	switch {
	case in.DueDate != nil:
		var clock string
		if in.DueTime != nil {
			clock = *in.DueTime
		}
		due, err := parseDue(*in.DueDate, clock)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.DueAt = due
	case in.DueTime != nil:
		if quiz.DueAt == nil {
			return domain.Quiz{}, domain.Invalid("Set a due date before changing the due time")
		}
		due, err := parseDue(quiz.DueAt.UTC().Format(dueDateLayout), *in.DueTime)
		if err != nil {
			return domain.Quiz{}, err
		}
		quiz.DueAt = due
	}
	if in.Status != nil && *in.Status != quiz.Status {
		if !quiz.Status.CanTransition(*in.Status) {
			return domain.Quiz{}, domain.Invalid(fmt.Sprintf("Cannot change quiz status from %s to %s", quiz.Status, *in.Status))
		}
		quiz.Status = *in.Status
	}

	if err := s.quizzes.UpdateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	report(ctx, s.reporter, "invalidate quiz catalog", s.catalog.Invalidate(ctx, quiz.ClassID))
	return quiz, nil
}

// Publish opens a quiz for submissions.
func (s *QuizService) Publish(ctx context.Context, requester domain.User, quizID string) (domain.Quiz, error) {
	status := domain.QuizPublished
	return s.Update(ctx, requester, quizID, QuizUpdate{Status: &status})
}

// Delete removes a quiz the requester created along with its results.
func (s *QuizService) Delete(ctx context.Context, requester domain.User, quizID string) error {
	quiz, err := s.authored(ctx, requester, quizID)
	if err != nil {
		return err
	}
	if err := s.results.DeleteForQuiz(ctx, quiz.ID); err != nil {
		return err
	}
	if err := s.quizzes.DeleteQuiz(ctx, quiz.ID); err != nil {
		return err
	}
	report(ctx, s.reporter, "invalidate quiz catalog", s.catalog.Invalidate(ctx, quiz.ClassID))
	return nil
}

// Submit scores and stores a student's only attempt at a published quiz.
// Late attempts are accepted and flagged.
func (s *QuizService) Submit(ctx context.Context, student domain.User, quizID string, answers []domain.Answer) (SubmitReceipt, error) {
	if err := requireRole(student, domain.RoleStudent); err != nil {
		return SubmitReceipt{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return SubmitReceipt{}, err
	}
	if _, err := enrolledClass(ctx, s.classes, student, quiz.ClassID); err != nil {
		return SubmitReceipt{}, err
	}
	if quiz.Status != domain.QuizPublished {
		return SubmitReceipt{}, domain.ErrQuizNotPublished
	}
	exists, err := s.results.Exists(ctx, quiz.ID, student.ID)
	if err != nil {
		return SubmitReceipt{}, err
	}
	if exists {
		return SubmitReceipt{}, domain.ErrAlreadySubmitted
	}

	now := s.now().UTC()
	result := domain.QuizResult{
		ID:             uuid.NewString(),
		QuizID:         quiz.ID,
		StudentID:      student.ID,
		Answers:        answers,
		Score:          Score(quiz, answers),
		TotalQuestions: len(quiz.Questions),
		IsLate:         quiz.IsLate(now),
		CreatedAt:      now,
	}
	if result.Answers == nil {
		result.Answers = []domain.Answer{}
	}
	if err := s.results.CreateResult(ctx, result); err != nil {
		return SubmitReceipt{}, err
	}
	return SubmitReceipt{
		Score:          result.Score,
		TotalQuestions: result.TotalQuestions,
		QuizResultID:   result.ID,
		IsLate:         result.IsLate,
	}, nil
}

// Score counts the questions answered with their correct option. Each
// question counts at most once and out-of-range answers are ignored.
func Score(quiz domain.Quiz, answers []domain.Answer) int {
	seen := make(map[int]bool, len(answers))
	score := 0
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= len(quiz.Questions) || seen[a.QuestionIndex] {
			continue
		}
		seen[a.QuestionIndex] = true
		if a.SelectedOption != nil && *a.SelectedOption == quiz.Questions[a.QuestionIndex].CorrectAnswer {
			score++
		}
	}
	return score
}

// Results lists every submission for a quiz, for the teacher of its class.
func (s *QuizService) Results(ctx context.Context, requester domain.User, quizID string) ([]ResultWithStudent, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if _, err := ownedClass(ctx, s.classes, requester, quiz.ClassID); err != nil {
		return nil, err
	}
	results, err := s.results.ListForQuizzes(ctx, []string{quiz.ID})
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(results))
	for _, r := range results {
		ids = append(ids, r.StudentID)
	}
	users, err := s.users.GetUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	out := make([]ResultWithStudent, 0, len(results))
	for _, r := range results {
		student, ok := byID[r.StudentID]
		if !ok {
			student = domain.User{ID: r.StudentID}
		}
		out = append(out, ResultWithStudent{QuizResult: r, Student: summarize(student)})
	}
	return out, nil
}

// MyResult returns the requesting student's submission for a quiz.
func (s *QuizService) MyResult(ctx context.Context, student domain.User, quizID string) (domain.QuizResult, error) {
	if err := requireRole(student, domain.RoleStudent); err != nil {
		return domain.QuizResult{}, err
	}
	return s.results.FindResult(ctx, quizID, student.ID)
}

// Attempt returns a submission and its quiz. Students may only open their own.
func (s *QuizService) Attempt(ctx context.Context, requester domain.User, resultID string) (Attempt, error) {
	result, err := s.results.GetResult(ctx, resultID)
	if err != nil {
		return Attempt{}, err
	}
	quiz, err := s.quizzes.GetQuiz(ctx, result.QuizID)
	if err != nil {
		return Attempt{}, err
	}
	class, err := memberClass(ctx, s.classes, requester, quiz.ClassID)
	if err != nil {
		return Attempt{}, err
	}
	if !class.IsTeacher(requester.ID) && result.StudentID != requester.ID {
		return Attempt{}, domain.Forbidden("Not authorized to view this attempt")
	}
	return Attempt{Result: result, Quiz: quiz}, nil
}

// MyResults lists the requesting student's submissions in a class.
func (s *QuizService) MyResults(ctx context.Context, student domain.User, classID string) ([]ResultWithQuiz, error) {
	class, err := enrolledClass(ctx, s.classes, student, classID)
	if err != nil {
		return nil, err
	}
	quizzes, err := s.catalog.QuizzesForClass(ctx, class.ID)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListForStudentInQuizzes(ctx, student.ID, quizIDs(quizzes))
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}
	out := make([]ResultWithQuiz, 0, len(results))
	for _, r := range results {
		q, ok := byID[r.QuizID]
		if !ok {
			continue
		}
		out = append(out, ResultWithQuiz{QuizResult: r, Quiz: QuizSummary{
			ID:             q.ID,
			Title:          q.Title,
			Topic:          q.Topic,
			TotalQuestions: len(q.Questions),
			DueAt:          q.DueAt,
		}})
	}
	return out, nil
}

// Generate drafts questions with the configured generator.
func (s *QuizService) Generate(ctx context.Context, teacher domain.User, req domain.GenerateRequest) ([]domain.GeneratedQuestion, error) {
	if err := requireRole(teacher, domain.RoleTeacher); err != nil {
		return nil, err
	}
	if s.generator == nil {
		return nil, domain.Upstream("Question generator is not configured", nil)
	}
	return s.generator.Generate(ctx, req)
}

func checkQuestions(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.Invalid("A quiz needs at least one question")
	}
	for i, q := range questions {
		if strings.TrimSpace(q.Text) == "" {
			return domain.Invalid(fmt.Sprintf("Question %d has no text", i+1))
		}
		if len(q.Options) < 2 {
			return domain.Invalid(fmt.Sprintf("Question %d needs at least two options", i+1))
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return domain.Invalid(fmt.Sprintf("Question %d has no valid correct answer", i+1))
		}
	}
	return nil
}

// parseDue combines a YYYY-MM-DD date and an optional HH:MM time into a UTC
// timestamp. A missing time means midnight at the start of the date.
func parseDue(date, clock string) (*time.Time, error) {
	date = strings.TrimSpace(date)
	if date == "" {
		return nil, nil
	}
	clock = strings.TrimSpace(clock)
	if clock == "" {
		clock = defaultDueClock
	}
	due, err := time.Parse(dueDateLayout+" "+dueTimeLayout, date+" "+clock)
	if err != nil {
		return nil, domain.Invalid("Due date must be YYYY-MM-DD and due time HH:MM")
	}
	return &due, nil
}
