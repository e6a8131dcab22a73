// Package postgres implements the app persistence ports on PostgreSQL
// through a pgx connection pool. Uniqueness rules (one result per quiz and
// student, one active poll per class, one vote per poll and user) are backed
// by indexes so concurrent writers cannot both succeed.
package postgres

import (
	"encoding/json"
	"errors"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	pkgerrors "github.com/pkg/errors"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Stores bundles every store over one pool.
type Stores struct {
	Classes       *ClassStore
	Quizzes       *QuizStore
	Results       *ResultStore
	Users         *UserStore
	Polls         *PollStore
	Attendance    *AttendanceStore
	Notifications *NotificationStore
}

func NewStores(pool *pgxpool.Pool) Stores {
	return Stores{
		Classes:       NewClassStore(pool),
		Quizzes:       NewQuizStore(pool),
		Results:       NewResultStore(pool),
		Users:         NewUserStore(pool),
		Polls:         NewPollStore(pool),
		Attendance:    NewAttendanceStore(pool),
		Notifications: NewNotificationStore(pool),
	}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func isUniqueViolation(err error) bool { return pgCode(err) == codeUniqueViolation }

func isForeignKeyViolation(err error) bool { return pgCode(err) == codeForeignKeyViolation }

func isNoRows(err error) bool { return errors.Is(err, pgx.ErrNoRows) }

// notFoundOr maps a missing row to notFound and wraps anything else.
func notFoundOr(err error, notFound error, op string) error {
	if isNoRows(err) {
		return notFound
	}
	return pkgerrors.Wrap(err, op)
}

func toJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", pkgerrors.Wrap(err, "encode json column")
	}
	return string(raw), nil
}

func fromJSON(raw []byte, v interface{}) error {
	if len(raw) == 0 {
		return nil
	}
	return pkgerrors.Wrap(json.Unmarshal(raw, v), "decode json column")
}
