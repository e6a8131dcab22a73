package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

// ResultStore keeps submissions in `quiz_results`. The unique index on
// (quiz_id, student_id) turns a duplicate insert into ErrAlreadySubmitted.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

const resultColumns = `id, quiz_id, student_id, answers, score, total_questions, is_late, created_at`

func scanResult(row pgx.Row) (domain.QuizResult, error) {
	var (
		r   domain.QuizResult
		raw []byte
	)
	if err := row.Scan(&r.ID, &r.QuizID, &r.StudentID, &raw, &r.Score, &r.TotalQuestions, &r.IsLate, &r.CreatedAt); err != nil {
		return domain.QuizResult{}, err
	}
	if err := fromJSON(raw, &r.Answers); err != nil {
		return domain.QuizResult{}, err
	}
	return r, nil
}

func (s *ResultStore) CreateResult(ctx context.Context, result domain.QuizResult) error {
	answers, err := toJSON(result.Answers)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quiz_results (`+resultColumns+`) VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8)`,
		result.ID, result.QuizID, result.StudentID, answers, result.Score, result.TotalQuestions, result.IsLate, result.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return domain.ErrAlreadySubmitted
	case isForeignKeyViolation(err):
		return domain.ErrQuizNotFound
	}
	return errors.Wrap(err, "insert quiz result")
}

func (s *ResultStore) Exists(ctx context.Context, quizID, studentID string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM quiz_results WHERE quiz_id = $1 AND student_id = $2)`,
		quizID, studentID).Scan(&exists)
	return exists, errors.Wrap(err, "check quiz result")
}

func (s *ResultStore) GetResult(ctx context.Context, resultID string) (domain.QuizResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx, `SELECT `+resultColumns+` FROM quiz_results WHERE id = $1`, resultID))
	if err != nil {
		return domain.QuizResult{}, notFoundOr(err, domain.ErrResultNotFound, "get quiz result")
	}
	return r, nil
}

func (s *ResultStore) FindResult(ctx context.Context, quizID, studentID string) (domain.QuizResult, error) {
	r, err := scanResult(s.pool.QueryRow(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE quiz_id = $1 AND student_id = $2`, quizID, studentID))
	if err != nil {
		return domain.QuizResult{}, notFoundOr(err, domain.ErrResultNotFound, "find quiz result")
	}
	return r, nil
}

func (s *ResultStore) ListForQuizzes(ctx context.Context, quizIDs []string) ([]domain.QuizResult, error) {
	if len(quizIDs) == 0 {
		return []domain.QuizResult{}, nil
	}
	return s.list(ctx, `SELECT `+resultColumns+` FROM quiz_results WHERE quiz_id = ANY($1) ORDER BY seq`, quizIDs)
}

func (s *ResultStore) ListForStudentInQuizzes(ctx context.Context, studentID string, quizIDs []string) ([]domain.QuizResult, error) {
	if len(quizIDs) == 0 {
		return []domain.QuizResult{}, nil
	}
	return s.list(ctx,
		`SELECT `+resultColumns+` FROM quiz_results WHERE student_id = $1 AND quiz_id = ANY($2) ORDER BY seq`,
		studentID, quizIDs)
}

func (s *ResultStore) ListForStudent(ctx context.Context, studentID string) ([]domain.QuizResult, error) {
	return s.list(ctx, `SELECT `+resultColumns+` FROM quiz_results WHERE student_id = $1 ORDER BY seq`, studentID)
}

func (s *ResultStore) DeleteForQuiz(ctx context.Context, quizID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM quiz_results WHERE quiz_id = $1`, quizID)
	return errors.Wrap(err, "delete quiz results")
}

func (s *ResultStore) list(ctx context.Context, query string, args ...interface{}) ([]domain.QuizResult, error) {
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list quiz results")
	}
	defer rows.Close()

	out := make([]domain.QuizResult, 0)
	for rows.Next() {
		r, err := scanResult(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan quiz result")
		}
		out = append(out, r)
	}
	return out, errors.Wrap(rows.Err(), "list quiz results")
}
