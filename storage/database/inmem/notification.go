package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/lophoc/core"
	"github.com/trezcool/lophoc/core/notification"
)

type notificationRepository struct {
	db *table[notification.Notification]
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db.notification}
}

func (repo *notificationRepository) CreateNotification(_ context.Context, n notification.Notification) (notification.Notification, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	n.ID = uuid.New().String()
	repo.db.rows[n.ID] = n
	return n, nil
}

func (repo *notificationRepository) ListNotifications(_ context.Context, receiverID string, page core.Page) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	list := repo.db.all(
		func(n notification.Notification) bool { return n.ReceiverID == receiverID },
		func(a, b notification.Notification) bool { return a.CreatedAt.Before(b.CreatedAt) },
	)
	lo, hi := page.Slice(len(list))
	return list[lo:hi], nil
}

func (repo *notificationRepository) GetNotifications(_ context.Context, ids []string) ([]notification.Notification, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return repo.db.all(
		func(n notification.Notification) bool { return wanted[n.ID] },
		func(a, b notification.Notification) bool { return a.CreatedAt.Before(b.CreatedAt) },
	), nil
}

func (repo *notificationRepository) MarkRead(_ context.Context, ids []string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, id := range ids {
		if n, ok := repo.db.rows[id]; ok {
			n.IsRead = true
			repo.db.rows[id] = n
		}
	}
	return nil
}
