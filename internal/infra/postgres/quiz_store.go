package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

// QuizStore keeps quizzes with their questions as JSONB.
type QuizStore struct {
	pool *pgxpool.Pool
}

func NewQuizStore(pool *pgxpool.Pool) *QuizStore {
	return &QuizStore{pool: pool}
}

const quizColumns = `id, class_id, title, topic, difficulty, questions, status, due_at, created_by, created_at`

func scanQuiz(row pgx.Row) (domain.Quiz, error) {
	var (
		q      domain.Quiz
		raw    []byte
		status string
	)
	if err := row.Scan(&q.ID, &q.ClassID, &q.Title, &q.Topic, &q.Difficulty, &raw, &status, &q.DueAt, &q.CreatedBy, &q.CreatedAt); err != nil {
		return domain.Quiz{}, err
	}
	q.Status = domain.QuizStatus(status)
	if err := fromJSON(raw, &q.Questions); err != nil {
		return domain.Quiz{}, err
	}
	return q, nil
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := toJSON(quiz.Questions)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO quizzes (`+quizColumns+`) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7, $8, $9, $10)`,
		quiz.ID, quiz.ClassID, quiz.Title, quiz.Topic, quiz.Difficulty, questions, string(quiz.Status), quiz.DueAt, quiz.CreatedBy, quiz.CreatedAt)
	if isForeignKeyViolation(err) {
		return domain.ErrClassNotFound
	}
	return errors.Wrap(err, "insert quiz")
}

func (s *QuizStore) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	q, err := scanQuiz(s.pool.QueryRow(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE id = $1`, quizID))
	if err != nil {
		return domain.Quiz{}, notFoundOr(err, domain.ErrQuizNotFound, "get quiz")
	}
	return q, nil
}

// ListForClass is also the loader behind the quiz catalog caches.
func (s *QuizStore) ListForClass(ctx context.Context, classID string) ([]domain.Quiz, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+quizColumns+` FROM quizzes WHERE class_id = $1 ORDER BY seq`, classID)
	if err != nil {
		return nil, errors.Wrap(err, "list quizzes")
	}
	defer rows.Close()

	out := make([]domain.Quiz, 0)
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan quiz")
		}
		out = append(out, q)
	}
	return out, errors.Wrap(rows.Err(), "list quizzes")
}

func (s *QuizStore) UpdateQuiz(ctx context.Context, quiz domain.Quiz) error {
	questions, err := toJSON(quiz.Questions)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE quizzes SET title = $2, topic = $3, difficulty = $4, questions = $5::jsonb, status = $6, due_at = $7 WHERE id = $1`,
		quiz.ID, quiz.Title, quiz.Topic, quiz.Difficulty, questions, string(quiz.Status), quiz.DueAt)
	if err != nil {
		return errors.Wrap(err, "update quiz")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return errors.Wrap(err, "delete quiz")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}
