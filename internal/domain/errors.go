package domain

import "errors"

// Kind classifies an Error for callers that translate it (HTTP status, CLI exit).
type Kind uint8

const (
	KindInternal Kind = iota
	KindNotFound
	KindForbidden
	KindConflict
	KindInvalid
	KindValidation
	KindUpstream
	KindUnauthorized
)

// Error is a failure carrying a kind and a human-readable message.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches another *Error of the same kind and message, so sentinels below
// keep working after they are wrapped.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the message of the first *Error in err's chain.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		if e.Kind == KindUpstream && e.Err != nil {
			return e.Error()
		}
		return e.Message
	}
	return ""
}

func NotFound(msg string) error     { return &Error{Kind: KindNotFound, Message: msg} }
func Forbidden(msg string) error    { return &Error{Kind: KindForbidden, Message: msg} }
func Conflict(msg string) error     { return &Error{Kind: KindConflict, Message: msg} }
func Invalid(msg string) error      { return &Error{Kind: KindInvalid, Message: msg} }
func Validation(msg string) error   { return &Error{Kind: KindValidation, Message: msg} }
func Unauthorized(msg string) error { return &Error{Kind: KindUnauthorized, Message: msg} }

// Upstream wraps a failure of an external collaborator.
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

var (
	// ErrClassNotFound is returned when a class id or invite code does not resolve.
	ErrClassNotFound = NotFound("Class not found")
	// ErrQuizNotFound indicates the quiz could not be loaded.
	ErrQuizNotFound = NotFound("Quiz not found")
	// ErrResultNotFound indicates no submission matches.
	ErrResultNotFound = NotFound("Quiz result not found")
	ErrPollNotFound   = NotFound("Poll not found")
	ErrUserNotFound   = NotFound("User not found")
	// ErrProfileNotFound is returned for a verified identity without a profile.
	ErrProfileNotFound      = NotFound("User profile not found. Please complete your profile registration.")
	ErrAttendanceNotFound   = NotFound("Attendance not found for this date")
	ErrNotificationNotFound = NotFound("Notification not found")

	ErrAlreadySubmitted  = Conflict("You have already submitted this quiz")
	ErrActivePollExists  = Conflict("An active poll already exists for this class. Please end it first.")
	ErrAlreadyVoted      = Conflict("You have already voted on this poll")
	ErrPollInactive      = Conflict("Poll is not active")
	ErrProfileExists     = Conflict("User profile already exists for this identity")
	ErrInviteCodeTaken   = Conflict("Invite code already in use")
	ErrQuizNotPublished  = Conflict("Quiz is not published or available for submission")
	ErrInvalidPollOption = Invalid("Invalid poll option")
)
