package inmem

import (
	"context"
	"sort"
	"time"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/notification"
)

type notificationRepository struct {
	db *DB
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(db *DB) *notificationRepository {
	return &notificationRepository{db: db}
}

func (repo *notificationRepository) UpsertSubscription(_ context.Context, sub notification.Subscription, _ ...core.DBExecutor) (notification.Subscription, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, curr := range repo.db.subs {
		if curr.UserID == sub.UserID && curr.Endpoint == sub.Endpoint {
			curr.P256dh = sub.P256dh
			curr.Auth = sub.Auth
			repo.db.subs[id] = curr
			return curr, nil
		}
	}
	sub.ID = repo.db.nextID("webpush_subscriptions")
	sub.CreatedAt = time.Now().UTC()
	repo.db.subs[sub.ID] = sub
	return sub, nil
}

func (repo *notificationRepository) DeleteSubscription(_ context.Context, userID int, endpoint string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, sub := range repo.db.subs {
		if sub.UserID == userID && sub.Endpoint == endpoint {
			delete(repo.db.subs, id)
		}
	}
	return nil
}

func (repo *notificationRepository) QueryBranchSubscriptions(_ context.Context, branchID, excludeUserID int, _ ...core.DBExecutor) ([]notification.Subscription, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var subs []notification.Subscription
	for _, sub := range repo.db.subs {
		if sub.UserID == excludeUserID {
			continue
		}
		usr, ok := repo.db.users[sub.UserID]
		if !ok || usr.BranchID != branchID || !usr.Approved {
			continue
		}
		subs = append(subs, sub)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })
	return subs, nil
}
