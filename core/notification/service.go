// Package notification manages browser web-push subscriptions and branch-wide
// fan-out of push notifications.
package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/athlos-club/athlos/core"
)

// Subscription is a user's browser push subscription. A user may hold several
// (one per browser); they are keyed (user, endpoint).
type Subscription struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Endpoint  string    `json:"endpoint"`
	P256dh    string    `json:"p256dh"`
	Auth      string    `json:"auth"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

// Payload is the notification body the service worker displays.
type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

type NewSubscription struct {
	Endpoint string `json:"endpoint" validate:"required,url"`
	P256dh   string `json:"p256dh" validate:"required"`
	Auth     string `json:"auth" validate:"required"`
}

func (ns *NewSubscription) Validate(validate *validator.Validate) error {
	ns.Endpoint = core.CleanString(ns.Endpoint)
	ns.P256dh = core.CleanString(ns.P256dh)
	ns.Auth = core.CleanString(ns.Auth)
	return validate.Struct(ns)
}

type Repository interface {
	// UpsertSubscription inserts or refreshes the subscription keyed (user, endpoint).
	UpsertSubscription(ctx context.Context, sub Subscription, exec ...core.DBExecutor) (Subscription, error)
	DeleteSubscription(ctx context.Context, userID int, endpoint string, exec ...core.DBExecutor) error
	// QueryBranchSubscriptions returns the subscriptions of all approved users
	// whose active branch is branchID, excluding excludeUserID.
	QueryBranchSubscriptions(ctx context.Context, branchID, excludeUserID int, exec ...core.DBExecutor) ([]Subscription, error)
}

type Service struct {
	repo    Repository
	pushSvc core.PushService
	conf    *core.Config
}

func NewService(repo Repository, pushSvc core.PushService, conf *core.Config) *Service {
	return &Service{repo: repo, pushSvc: pushSvc, conf: conf}
}

// VAPIDPublicKey is handed to the frontend service worker on subscription.
func (svc *Service) VAPIDPublicKey() string {
	return svc.conf.Push.VAPIDPublicKey
}

func (svc *Service) Subscribe(ctx context.Context, userID int, ns NewSubscription) (Subscription, error) {
	return svc.repo.UpsertSubscription(ctx, Subscription{
		UserID:   userID,
		Endpoint: ns.Endpoint,
		P256dh:   ns.P256dh,
		Auth:     ns.Auth,
	})
}

func (svc *Service) Unsubscribe(ctx context.Context, userID int, endpoint string) error {
	return svc.repo.DeleteSubscription(ctx, userID, endpoint)
}

// NotifyBranch fans a notification out to every subscribed member of the
// branch except the sender. Delivery is fire-and-forget; failures never
// propagate to the triggering mutation.
func (svc *Service) NotifyBranch(ctx context.Context, branchID, senderID int, payload Payload) error {
	subs, err := svc.repo.QueryBranchSubscriptions(ctx, branchID, senderID)
	if err != nil {
		return errors.Wrap(err, "querying branch subscriptions")
	}
	if len(subs) == 0 {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "marshaling push payload")
	}

	messages := make([]*core.PushMessage, len(subs))
	for i, sub := range subs {
		messages[i] = &core.PushMessage{
			Subscription: core.PushSubscription{
				Endpoint: sub.Endpoint,
				P256dh:   sub.P256dh,
				Auth:     sub.Auth,
			},
			Payload: string(body),
		}
	}
	svc.pushSvc.SendMessages(messages...)
	return nil
}
