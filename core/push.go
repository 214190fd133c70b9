package core

type (
	// PushSubscription is a browser web-push subscription as handed to us by
	// the frontend service worker.
	PushSubscription struct {
		Endpoint string
		P256dh   string
		Auth     string
	}

	PushMessage struct {
		Subscription PushSubscription
		Payload      string
	}

	// PushService delivers web-push notifications. Delivery is fire-and-forget:
	// it must never roll back or fail the mutation that triggered it.
	PushService interface {
		SendMessages(messages ...*PushMessage)
	}
)
