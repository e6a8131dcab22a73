package domain

import "time"

// Role is the single role a user holds.
type Role string

const (
	RoleTeacher Role = "Teacher"
	RoleStudent Role = "Student"
)

// User is a profile linked to an identity-provider account.
type User struct {
	ID         string    `json:"id"`
	IdentityID string    `json:"identityId"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Role       Role      `json:"role"`
	AvatarURL  string    `json:"avatarUrl,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Class groups a teacher, an ordered roster and the invite code students join with.
type Class struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	TeacherID   string    `json:"teacher"`
	TeacherName string    `json:"teacherName,omitempty"`
	StudentIDs  []string  `json:"students"`
	InviteCode  string    `json:"inviteCode"`
	CreatedAt   time.Time `json:"createdAt"`
}

// IsTeacher reports whether userID owns the class.
func (c Class) IsTeacher(userID string) bool {
	return c.TeacherID == userID
}

// HasStudent reports whether userID is on the roster.
func (c Class) HasStudent(userID string) bool {
	for _, id := range c.StudentIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// IsMember reports whether userID is the teacher or an enrolled student.
func (c Class) IsMember(userID string) bool {
	return c.IsTeacher(userID) || c.HasStudent(userID)
}

// QuizStatus is the publication state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "Draft"
	QuizPublished QuizStatus = "Published"
	QuizArchived  QuizStatus = "Archived"
)

// Valid reports whether s is one of the known statuses.
func (s QuizStatus) Valid() bool {
	switch s {
	case QuizDraft, QuizPublished, QuizArchived:
		return true
	}
	return false
}

// CanTransition reports whether a quiz may move from s to next.
// Nothing returns to Draft once it has left it.
func (s QuizStatus) CanTransition(next QuizStatus) bool {
	if !next.Valid() {
		return false
	}
	if next == QuizDraft {
		return s == QuizDraft
	}
	return true
}

// Option is a possible answer for a question.
type Option struct {
	Text string `json:"text" validate:"required"`
}

// Question models an MCQ question with exactly one correct option.
type Question struct {
	Text          string   `json:"questionText"`
	Options       []Option `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
}

// Quiz belongs to exactly one class.
type Quiz struct {
	ID         string     `json:"id"`
	ClassID    string     `json:"class"`
	Title      string     `json:"title"`
	Topic      string     `json:"topic"`
	Difficulty string     `json:"difficulty"`
	Questions  []Question `json:"questions"`
	Status     QuizStatus `json:"status"`
	DueAt      *time.Time `json:"dueDate"`
	CreatedBy  string     `json:"createdBy"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// IsLate reports whether a submission at t misses the due timestamp.
func (q Quiz) IsLate(t time.Time) bool {
	return q.DueAt != nil && t.After(*q.DueAt)
}

// Answer is one selected option. SelectedOption is nil when the question was skipped.
type Answer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedOption *int `json:"selectedOptionIndex"`
}

// QuizResult is a single, immutable submission.
type QuizResult struct {
	ID             string    `json:"id"`
	QuizID         string    `json:"quiz"`
	StudentID      string    `json:"student"`
	Answers        []Answer  `json:"answers"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	IsLate         bool      `json:"isLate"`
	CreatedAt      time.Time `json:"createdAt"`
}

// AttendanceStatus is the mark recorded for one student.
type AttendanceStatus string

const (
	Present AttendanceStatus = "Present"
	Absent  AttendanceStatus = "Absent"
)

// AttendanceRecord is the status of one roster member on a date.
type AttendanceRecord struct {
	StudentID string           `json:"student"`
	Status    AttendanceStatus `json:"status"`
}

// Attendance is the register of one class on one calendar date (YYYY-MM-DD).
type Attendance struct {
	ID        string             `json:"id"`
	ClassID   string             `json:"class"`
	Date      string             `json:"date"`
	Records   []AttendanceRecord `json:"records"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// PollOption carries the running tally of an option.
type PollOption struct {
	Text  string `json:"text"`
	Votes int    `json:"votes"`
}

// Poll is a live multiple-choice question scoped to a class.
type Poll struct {
	ID            string       `json:"id"`
	ClassID       string       `json:"class"`
	Question      string       `json:"question"`
	Options       []PollOption `json:"options"`
	CorrectAnswer int          `json:"correctAnswer"`
	CreatedBy     string       `json:"createdBy"`
	IsActive      bool         `json:"isActive"`
	VotedUsers    []string     `json:"votedUsers"`
	CreatedAt     time.Time    `json:"createdAt"`
}

// HasVoted reports whether userID is in the voted set.
func (p Poll) HasVoted(userID string) bool {
	for _, id := range p.VotedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

// Poll event types pushed to live subscribers.
const (
	PollCreated = "pollCreated"
	PollUpdated = "pollUpdated"
	PollEnded   = "pollEnded"
)

// PollEvent is a poll state change broadcast to the poll's class.
type PollEvent struct {
	Type string `json:"type"`
	Poll Poll   `json:"poll"`
}

// NotificationType tags what a notification announces.
type NotificationType string

const (
	NotifyNewQuiz NotificationType = "newQuiz"
	NotifyNewPoll NotificationType = "newPoll"
)

// Notification is delivered to a single recipient.
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient"`
	Type        NotificationType `json:"type"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"createdAt"`
}

// Identity is what the identity provider vouches for.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
}

// GenerateRequest asks the question generator for a batch of MCQs.
type GenerateRequest struct {
	Topic        string `json:"topic" validate:"required"`
	NumQuestions int    `json:"numQuestions" validate:"required,min=1,max=50"`
	Difficulty   string `json:"difficulty" validate:"required"`
	GradeLevel   string `json:"gradeLevel" validate:"required"`
}

// GeneratedQuestion is a question proposed by the generator, not yet part of a quiz.
type GeneratedQuestion struct {
	Text          string   `json:"questionText" validate:"required"`
	Options       []Option `json:"options" validate:"len=4,dive"`
	CorrectAnswer *int     `json:"correctAnswer" validate:"required,min=0,max=3"`
	Explanation   string   `json:"explanation" validate:"required"`
}
