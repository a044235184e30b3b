package emailsvc

import (
	"fmt"
	"net/mail"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ryitech/institute/core"
)

type consoleService struct {
	defaultFromEmail mail.Address
	subjPrefix       string
	disableOutput    bool

	mu           sync.Mutex
	sentMessages []core.EmailMessage
	failSend     error
}

var _ core.EmailService = (*consoleService)(nil)

// NewConsoleService writes messages to stdout; used in development.
func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
	}
}

// NewConsoleServiceMock captures sent messages silently; used in tests.
func NewConsoleServiceMock(conf *core.Config) *consoleService {
	return &consoleService{
		defaultFromEmail: conf.DefaultFromEmail,
		subjPrefix:       "[" + conf.AppName + "] ",
		disableOutput:    true,
	}
}

func (svc *consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		if msg.HasRecipients() && msg.HasContent() {
			svc.record(*msg)
		}
	}
}

func (svc *consoleService) Send(to mail.Address, subject, body string) error {
	svc.mu.Lock()
	failSend := svc.failSend
	svc.mu.Unlock()
	if failSend != nil {
		return failSend
	}
	svc.record(core.EmailMessage{
		To:          []mail.Address{to},
		Subject:     subject,
		TextContent: body,
	})
	return nil
}

// SentMessages returns a copy of all captured messages.
func (svc *consoleService) SentMessages() []core.EmailMessage {
	svc.mu.Lock()
	defer svc.mu.Unlock()
	msgs := make([]core.EmailMessage, len(svc.sentMessages))
	copy(msgs, svc.sentMessages)
	return msgs
}

// FailSend makes subsequent Send calls return err (nil restores delivery).
func (svc *consoleService) FailSend(err error) {
	svc.mu.Lock()
	svc.failSend = err
	svc.mu.Unlock()
}

// Reset discards all captured messages.
func (svc *consoleService) Reset() {
	svc.mu.Lock()
	svc.sentMessages = svc.sentMessages[:0]
	svc.mu.Unlock()
}

func (svc *consoleService) record(msg core.EmailMessage) {
	svc.mu.Lock()
	svc.sentMessages = append(svc.sentMessages, msg)
	svc.mu.Unlock()

	if svc.disableOutput {
		return
	}
	body := new(strings.Builder)
	_, _ = fmt.Fprintf(body, "From: %s\r\n", svc.defaultFromEmail.String())
	_, _ = fmt.Fprintf(body, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	_, _ = fmt.Fprintf(body, "Subject: %s\r\n", svc.subjPrefix+msg.Subject)
	_, _ = fmt.Fprintf(body, "To: %s\r\n", svc.joinAddresses(msg.To))
	_, _ = fmt.Fprintf(body, "\r\n%s\r\n", msg.TextContent)
	if msg.HTMLContent != "" {
		_, _ = fmt.Fprintf(body, "\r\n%s\r\n", msg.HTMLContent)
	}
	_, _ = fmt.Fprintf(os.Stdout, "%s\n%s%s\n", strings.Repeat("-", 79), body.String(), strings.Repeat("-", 79))
}

func (svc *consoleService) joinAddresses(addrs []mail.Address) string {
	strs := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		strs = append(strs, addr.String())
	}
	return strings.Join(strs, ", ")
}
