package postgres

import (
	"context"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

type AttendanceStore struct {
	pool *pgxpool.Pool
}

func NewAttendanceStore(pool *pgxpool.Pool) *AttendanceStore {
	return &AttendanceStore{pool: pool}
}

// UpsertAttendance replaces the records of an existing (class, date) register
// and keeps its id.
func (s *AttendanceStore) UpsertAttendance(ctx context.Context, att domain.Attendance) (domain.Attendance, error) {
	records, err := toJSON(att.Records)
	if err != nil {
		return domain.Attendance{}, err
	}
	var (
		out domain.Attendance
		raw []byte
	)
	err = s.pool.QueryRow(ctx,
		`INSERT INTO attendance (id, class_id, date, records, updated_at) VALUES ($1, $2, $3, $4::jsonb, $5)
		ON CONFLICT (class_id, date) DO UPDATE SET records = EXCLUDED.records, updated_at = EXCLUDED.updated_at
		RETURNING id, class_id, date, records, updated_at`,
		att.ID, att.ClassID, att.Date, records, att.UpdatedAt).
		Scan(&out.ID, &out.ClassID, &out.Date, &raw, &out.UpdatedAt)
	if isForeignKeyViolation(err) {
		return domain.Attendance{}, domain.ErrClassNotFound
	}
	if err != nil {
		return domain.Attendance{}, errors.Wrap(err, "upsert attendance")
	}
	if err := fromJSON(raw, &out.Records); err != nil {
		return domain.Attendance{}, err
	}
	return out, nil
}

func (s *AttendanceStore) GetAttendance(ctx context.Context, classID, date string) (domain.Attendance, error) {
	var (
		out domain.Attendance
		raw []byte
	)
	err := s.pool.QueryRow(ctx,
		`SELECT id, class_id, date, records, updated_at FROM attendance WHERE class_id = $1 AND date = $2`,
		classID, date).Scan(&out.ID, &out.ClassID, &out.Date, &raw, &out.UpdatedAt)
	if err != nil {
		return domain.Attendance{}, notFoundOr(err, domain.ErrAttendanceNotFound, "get attendance")
	}
	if err := fromJSON(raw, &out.Records); err != nil {
		return domain.Attendance{}, err
	}
	return out, nil
}
