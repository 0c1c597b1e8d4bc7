package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/notification"
)

const notificationColumns = `id, sender_id, receiver_id, type, message, related_id, is_read, created_at`

type notificationRepository struct {
	db *sqlx.DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *sqlx.DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo notificationRepository) CreateNotification(ctx context.Context, n notification.Notification) (notification.Notification, error) {
	n.ID = uuid.New().String()
	q := `INSERT INTO notifications (` + notificationColumns + `) VALUES
		(:id, :sender_id, :receiver_id, :type, :message, :related_id, :is_read, :created_at)`
	if _, err := repo.db.NamedExecContext(ctx, q, n); err != nil {
		return notification.Notification{}, errors.Wrap(err, "inserting notification")
	}
	return n, nil
}

func (repo notificationRepository) ListNotifications(ctx context.Context, receiverID string, page core.Page) ([]notification.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE receiver_id = $1
		ORDER BY created_at LIMIT $2 OFFSET $3`
	list := make([]notification.Notification, 0)
	if err := repo.db.SelectContext(ctx, &list, q, receiverID, page.Limit(), page.Index); err != nil {
		return nil, errors.Wrap(err, "selecting notifications")
	}
	return list, nil
}

func validUUIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func (repo notificationRepository) GetNotifications(ctx context.Context, ids []string) ([]notification.Notification, error) {
	q := `SELECT ` + notificationColumns + ` FROM notifications WHERE id = ANY($1) ORDER BY created_at`
	list := make([]notification.Notification, 0)
	if err := repo.db.SelectContext(ctx, &list, q, pq.Array(validUUIDs(ids))); err != nil {
		return nil, errors.Wrap(err, "selecting notifications by IDs")
	}
	return list, nil
}

func (repo notificationRepository) MarkRead(ctx context.Context, ids []string) error {
	if _, err := repo.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ANY($1)`, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "marking notifications as read")
	}
	return nil
}
