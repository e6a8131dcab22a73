package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

// ClassStore keeps classes in `classes` and their rosters in
// `class_students`, ordered by enrolment sequence.
type ClassStore struct {
	pool *pgxpool.Pool
}

func NewClassStore(pool *pgxpool.Pool) *ClassStore {
	return &ClassStore{pool: pool}
}

func classQuery(where string) string {
	return `SELECT c.id, c.name, c.teacher_id, c.teacher_name, c.invite_code, c.created_at,
		COALESCE(array_agg(s.student_id ORDER BY s.seq) FILTER (WHERE s.student_id IS NOT NULL), '{}')
	FROM classes c
	LEFT JOIN class_students s ON s.class_id = c.id
	WHERE ` + where + `
	GROUP BY c.id
	ORDER BY c.seq`
}

func scanClass(row pgx.Row) (domain.Class, error) {
	var c domain.Class
	err := row.Scan(&c.ID, &c.Name, &c.TeacherID, &c.TeacherName, &c.InviteCode, &c.CreatedAt, &c.StudentIDs)
	return c, err
}

func (s *ClassStore) CreateClass(ctx context.Context, class domain.Class) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "begin create class")
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO classes (id, name, teacher_id, teacher_name, invite_code, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		class.ID, class.Name, class.TeacherID, class.TeacherName, class.InviteCode, class.CreatedAt)
	if isUniqueViolation(err) {
		return domain.ErrInviteCodeTaken
	}
	if err != nil {
		return errors.Wrap(err, "insert class")
	}
	for _, studentID := range class.StudentIDs {
		if _, err := tx.Exec(ctx,
			`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			class.ID, studentID); err != nil {
			return errors.Wrap(err, "insert roster")
		}
	}
	return errors.Wrap(tx.Commit(ctx), "commit create class")
}

func (s *ClassStore) GetClass(ctx context.Context, classID string) (domain.Class, error) {
	c, err := scanClass(s.pool.QueryRow(ctx, classQuery("c.id = $1"), classID))
	if err != nil {
		return domain.Class{}, notFoundOr(err, domain.ErrClassNotFound, "get class")
	}
	return c, nil
}

func (s *ClassStore) FindByInviteCode(ctx context.Context, code string) (domain.Class, error) {
	c, err := scanClass(s.pool.QueryRow(ctx, classQuery("c.invite_code = $1"), code))
	if err != nil {
		return domain.Class{}, notFoundOr(err, domain.ErrClassNotFound, "find class by invite code")
	}
	return c, nil
}

func (s *ClassStore) ListForTeacher(ctx context.Context, teacherID string) ([]domain.Class, error) {
	return s.list(ctx, classQuery("c.teacher_id = $1"), teacherID)
}

func (s *ClassStore) ListForStudent(ctx context.Context, studentID string) ([]domain.Class, error) {
	return s.list(ctx, classQuery("c.id IN (SELECT class_id FROM class_students WHERE student_id = $1)"), studentID)
}

func (s *ClassStore) list(ctx context.Context, query string, arg string) ([]domain.Class, error) {
	rows, err := s.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, errors.Wrap(err, "list classes")
	}
	defer rows.Close()

	out := make([]domain.Class, 0)
	for rows.Next() {
		c, err := scanClass(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan class")
		}
		out = append(out, c)
	}
	return out, errors.Wrap(rows.Err(), "list classes")
}

func (s *ClassStore) AddStudent(ctx context.Context, classID, studentID string) (domain.Class, error) {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO class_students (class_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		classID, studentID)
	if isForeignKeyViolation(err) {
		return domain.Class{}, domain.ErrClassNotFound
	}
	if err != nil {
		return domain.Class{}, errors.Wrap(err, "add student")
	}
	return s.GetClass(ctx, classID)
}

func (s *ClassStore) RenameClass(ctx context.Context, classID, name string) (domain.Class, error) {
	tag, err := s.pool.Exec(ctx, `UPDATE classes SET name = $2 WHERE id = $1`, classID, name)
	if err != nil {
		return domain.Class{}, errors.Wrap(err, "rename class")
	}
	if tag.RowsAffected() == 0 {
		return domain.Class{}, domain.ErrClassNotFound
	}
	return s.GetClass(ctx, classID)
}
