package postgres

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/pkg/errors"

	"lessonloop/internal/domain"
)

type NotificationStore struct {
	pool *pgxpool.Pool
}

func NewNotificationStore(pool *pgxpool.Pool) *NotificationStore {
	return &NotificationStore{pool: pool}
}

const notificationColumns = `id, recipient_id, type, message, link, read, created_at`

func scanNotification(row pgx.Row) (domain.Notification, error) {
	var (
		n   domain.Notification
		typ string
	)
	if err := row.Scan(&n.ID, &n.RecipientID, &typ, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
		return domain.Notification{}, err
	}
	n.Type = domain.NotificationType(typ)
	return n, nil
}

// CreateNotifications inserts the whole batch in one round trip.
func (s *NotificationStore) CreateNotifications(ctx context.Context, batch []domain.Notification) error {
	if len(batch) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, n := range batch {
		b.Queue(`INSERT INTO notifications (`+notificationColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			n.ID, n.RecipientID, string(n.Type), n.Message, n.Link, n.Read, n.CreatedAt)
	}
	br := s.pool.SendBatch(ctx, b)
	defer br.Close()
	for range batch {
		if _, err := br.Exec(); err != nil {
			return errors.Wrap(err, "insert notification")
		}
	}
	return nil
}

func (s *NotificationStore) ListForRecipient(ctx context.Context, recipientID string) ([]domain.Notification, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+notificationColumns+` FROM notifications WHERE recipient_id = $1 ORDER BY seq DESC`, recipientID)
	if err != nil {
		return nil, errors.Wrap(err, "list notifications")
	}
	defer rows.Close()

	out := make([]domain.Notification, 0)
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scan notification")
		}
		out = append(out, n)
	}
	return out, errors.Wrap(rows.Err(), "list notifications")
}

func (s *NotificationStore) GetNotification(ctx context.Context, id string) (domain.Notification, error) {
	n, err := scanNotification(s.pool.QueryRow(ctx, `SELECT `+notificationColumns+` FROM notifications WHERE id = $1`, id))
	if err != nil {
		return domain.Notification{}, notFoundOr(err, domain.ErrNotificationNotFound, "get notification")
	}
	return n, nil
}

func (s *NotificationStore) MarkRead(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "mark notification read")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationStore) MarkAllRead(ctx context.Context, recipientID string) error {
	_, err := s.pool.Exec(ctx, `UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, recipientID)
	return errors.Wrap(err, "mark notifications read")
}

func (s *NotificationStore) DeleteNotification(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "delete notification")
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationStore) DeleteRead(ctx context.Context, recipientID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM notifications WHERE recipient_id = $1 AND read`, recipientID)
	return errors.Wrap(err, "delete read notifications")
}
