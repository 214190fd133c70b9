package pushsvc

import (
	"log"
	"sync"

	"github.com/athlos-club/athlos/core"
)

var (
	SentMessages = make([]core.PushMessage, 0)
	mu           sync.Mutex
)

type consoleService struct {
	disableOutput bool
}

var _ core.PushService = (*consoleService)(nil)

func NewConsoleService() core.PushService {
	return &consoleService{}
}

func (svc consoleService) SendMessages(messages ...*core.PushMessage) {
	for _, msg := range messages {
		if !svc.disableOutput {
			log.Printf("PUSH to %s: %s", msg.Subscription.Endpoint, msg.Payload)
		}
		mu.Lock()
		SentMessages = append(SentMessages, *msg)
		mu.Unlock()
	}
}

// NewConsoleServiceMock records messages without output; tests inspect
// SentMessages.
func NewConsoleServiceMock() core.PushService {
	return &consoleService{disableOutput: true}
}
