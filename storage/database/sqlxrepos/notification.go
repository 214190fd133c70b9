package sqlxrepos

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/notification"
)

type notificationRepository struct {
	exec core.DBExecutor
}

var _ notification.Repository = (*notificationRepository)(nil) // interface compliance check

func NewNotificationRepository(exec core.DBExecutor) *notificationRepository {
	return &notificationRepository{exec: exec}
}

func (repo notificationRepository) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return repo.exec
}

type subscriptionRow struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Endpoint  string    `db:"endpoint"`
	P256dh    string    `db:"p256dh"`
	Auth      string    `db:"auth"`
	CreatedAt time.Time `db:"created_at"`
}

const subscriptionColumns = `id, user_id, endpoint, p256dh, auth, created_at`

func (repo notificationRepository) UpsertSubscription(ctx context.Context, sub notification.Subscription, exec ...core.DBExecutor) (notification.Subscription, error) {
	var row subscriptionRow
	err := repo.getExec(exec).GetContext(ctx, &row, `
		INSERT INTO webpush_subscriptions (user_id, endpoint, p256dh, auth)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, endpoint)
		DO UPDATE SET p256dh = EXCLUDED.p256dh, auth = EXCLUDED.auth
		RETURNING `+subscriptionColumns,
		sub.UserID, sub.Endpoint, sub.P256dh, sub.Auth,
	)
	if err != nil {
		return notification.Subscription{}, errors.Wrap(err, "upserting subscription")
	}
	return notification.Subscription(row), nil
}

func (repo notificationRepository) DeleteSubscription(ctx context.Context, userID int, endpoint string, exec ...core.DBExecutor) error {
	_, err := repo.getExec(exec).ExecContext(ctx,
		`DELETE FROM webpush_subscriptions WHERE user_id = $1 AND endpoint = $2`,
		userID, endpoint,
	)
	return errors.Wrap(err, "deleting subscription")
}

func (repo notificationRepository) QueryBranchSubscriptions(ctx context.Context, branchID, excludeUserID int, exec ...core.DBExecutor) ([]notification.Subscription, error) {
	var rows []subscriptionRow
	err := repo.getExec(exec).SelectContext(ctx, &rows, `
		SELECT s.id, s.user_id, s.endpoint, s.p256dh, s.auth, s.created_at
		FROM webpush_subscriptions s
		JOIN users u ON u.id = s.user_id
		WHERE u.branch_id = $1 AND u.approved AND s.user_id <> $2
		ORDER BY s.id`,
		branchID, excludeUserID,
	)
	if err != nil {
		return nil, errors.Wrap(err, "querying branch subscriptions")
	}

	subs := make([]notification.Subscription, len(rows))
	for i, r := range rows {
		subs[i] = notification.Subscription(r)
	}
	return subs, nil
}
