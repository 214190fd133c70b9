package pushsvc

import (
	"fmt"
	"net/http"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/athlos-club/athlos/core"
)

// maxWorkers bounds concurrent deliveries on branch-wide fan-out.
const maxWorkers = 8

type webpushService struct {
	opts   webpush.Options
	logger core.Logger
}

var _ core.PushService = (*webpushService)(nil)

func NewWebpushService(logger core.Logger, conf *core.Config) *webpushService {
	return &webpushService{
		opts: webpush.Options{
			Subscriber:      conf.Push.Subscriber,
			VAPIDPublicKey:  conf.Push.VAPIDPublicKey,
			VAPIDPrivateKey: conf.Push.VAPIDPrivateKey,
			TTL:             3600,
		},
		logger: logger,
	}
}

// SendMessages delivers messages on a bounded worker pool and returns
// immediately; delivery failures are logged, never propagated.
func (svc webpushService) SendMessages(messages ...*core.PushMessage) {
	if len(messages) == 0 {
		return
	}
	jobs := make(chan *core.PushMessage, len(messages))
	for _, msg := range messages {
		jobs <- msg
	}
	close(jobs)

	workers := maxWorkers
	if len(messages) < workers {
		workers = len(messages)
	}
	for i := 0; i < workers; i++ {
		go func() {
			for msg := range jobs {
				svc.send(msg)
			}
		}()
	}
}

func (svc webpushService) send(msg *core.PushMessage) {
	sub := &webpush.Subscription{
		Endpoint: msg.Subscription.Endpoint,
		Keys: webpush.Keys{
			P256dh: msg.Subscription.P256dh,
			Auth:   msg.Subscription.Auth,
		},
	}
	opts := svc.opts
	res, err := webpush.SendNotification([]byte(msg.Payload), sub, &opts)
	if err != nil {
		svc.logger.Error(fmt.Sprintf("sending push notification: %v", err), err)
		return
	}
	defer func() { _ = res.Body.Close() }()

	switch {
	case res.StatusCode == http.StatusNotFound || res.StatusCode == http.StatusGone:
		// subscription expired or revoked by the browser
		// TODO: delete the subscription row instead of just logging
		svc.logger.Warn(fmt.Sprintf("push subscription gone: %s", msg.Subscription.Endpoint))
	case res.StatusCode >= http.StatusBadRequest:
		svc.logger.Error(fmt.Sprintf("sending push notification - status: %d", res.StatusCode))
	}
}
