package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

// PollStore keeps polls across `polls`, `poll_options` and `poll_votes`.
// A partial unique index allows one active poll per class and the
// (poll_id, user_id) key on poll_votes allows one vote per user.
type PollStore struct {
	pool *pgxpool.Pool
}

func NewPollStore(pool *pgxpool.Pool) *PollStore {
	return &PollStore{pool: pool}
}

// querier is satisfied by both the pool and a transaction.
type querier interface {
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
}

func (s *PollStore) CreatePoll(ctx context.Context, poll domain.Poll) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin create poll")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO polls (id, class_id, question, correct_answer, created_by, is_active, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		poll.ID, poll.ClassID, poll.Question, poll.CorrectAnswer, poll.CreatedBy, poll.IsActive, poll.CreatedAt)
	switch {
	case isUniqueViolation(err):
		return domain.ErrActivePollExists
	case isForeignKeyViolation(err):
		return domain.ErrClassNotFound
	case err != nil:
		return errors.Wrap(err, "insert poll")
	}
	for i, opt := range poll.Options {
		if _, err := tx.Exec(ctx,
			`INSERT INTO poll_options (poll_id, position, text, votes) VALUES ($1, $2, $3, $4)`,
			poll.ID, i, opt.Text, opt.Votes); err != nil {
			return errors.Wrap(err, "insert poll option")
		}
	}
	return errors.Wrap(tx.Commit(ctx), "commit create poll")
}

func (s *PollStore) GetPoll(ctx context.Context, pollID string) (domain.Poll, error) {
	return loadPoll(ctx, s.pool, `WHERE id = $1`, pollID)
}

func (s *PollStore) ActivePoll(ctx context.Context, classID string) (*domain.Poll, error) {
	p, err := loadPoll(ctx, s.pool, `WHERE class_id = $1 AND is_active`, classID)
	if errors.Is(err, domain.ErrPollNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// RecordVote inserts the vote row first; the primary key rejects a second
// vote before any counter moves.
func (s *PollStore) RecordVote(ctx context.Context, pollID, userID string, option int) (domain.Poll, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return domain.Poll{}, errors.Wrap(err, "begin vote")
	}
	defer tx.Rollback(ctx)

	var (
		active  bool
		options int
	)
	err = tx.QueryRow(ctx, `SELECT is_active FROM polls WHERE id = $1 FOR SHARE`, pollID).Scan(&active)
	if err != nil {
		return domain.Poll{}, notFoundOr(err, domain.ErrPollNotFound, "lock poll")
	}
	if !active {
		return domain.Poll{}, domain.ErrPollInactive
	}
	if err := tx.QueryRow(ctx, `SELECT count(*) FROM poll_options WHERE poll_id = $1`, pollID).Scan(&options); err != nil {
		return domain.Poll{}, errors.Wrap(err, "count poll options")
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO poll_votes (poll_id, user_id, position) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		pollID, userID, option)
	if err != nil {
		return domain.Poll{}, errors.Wrap(err, "insert vote")
	}
	if tag.RowsAffected() == 0 {
		return domain.Poll{}, domain.ErrAlreadyVoted
	}
	if option < 0 || option >= options {
		return domain.Poll{}, domain.ErrInvalidPollOption
	}
	if _, err := tx.Exec(ctx,
		`UPDATE poll_options SET votes = votes + 1 WHERE poll_id = $1 AND position = $2`,
		pollID, option); err != nil {
		return domain.Poll{}, errors.Wrap(err, "increment vote")
	}

	poll, err := loadPoll(ctx, tx, `WHERE id = $1`, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Poll{}, errors.Wrap(err, "commit vote")
	}
	return poll, nil
}

func (s *PollStore) EndPoll(ctx context.Context, pollID string) (domain.Poll, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE polls SET is_active = FALSE WHERE id = $1 AND is_active`, pollID)
	if err != nil {
		return domain.Poll{}, errors.Wrap(err, "end poll")
	}
	poll, err := s.GetPoll(ctx, pollID)
	if err != nil {
		return domain.Poll{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Poll{}, domain.ErrPollInactive
	}
	return poll, nil
}

func loadPoll(ctx context.Context, q querier, where string, arg string) (domain.Poll, error) {
	var p domain.Poll
	err := q.QueryRow(ctx,
		`SELECT id, class_id, question, correct_answer, created_by, is_active, created_at FROM polls `+where, arg).
		Scan(&p.ID, &p.ClassID, &p.Question, &p.CorrectAnswer, &p.CreatedBy, &p.IsActive, &p.CreatedAt)
	if err != nil {
		return domain.Poll{}, notFoundOr(err, domain.ErrPollNotFound, "get poll")
	}

	rows, err := q.Query(ctx, `SELECT text, votes FROM poll_options WHERE poll_id = $1 ORDER BY position`, p.ID)
	if err != nil {
		return domain.Poll{}, errors.Wrap(err, "get poll options")
	}
	p.Options = make([]domain.PollOption, 0)
	for rows.Next() {
		var opt domain.PollOption
		if err := rows.Scan(&opt.Text, &opt.Votes); err != nil {
			rows.Close()
			return domain.Poll{}, errors.Wrap(err, "scan poll option")
		}
		p.Options = append(p.Options, opt)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Poll{}, errors.Wrap(err, "get poll options")
	}

	err = q.QueryRow(ctx,
		`SELECT COALESCE(array_agg(user_id ORDER BY seq), '{}') FROM poll_votes WHERE poll_id = $1`, p.ID).
		Scan(&p.VotedUsers)
	if err != nil {
		return domain.Poll{}, errors.Wrap(err, "get poll voters")
	}
	return p, nil
}
