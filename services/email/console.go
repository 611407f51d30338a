package emailsvc

import (
	"fmt"
	"log"
	"net/mail"
	"strings"
	"sync"

	"github.com/ssacademy/backoffice/core"
)

var (
	SentMessages = make([]core.EmailMessage, 0)
	mu           sync.Mutex
)

// ResetSentMessages empties SentMessages.
func ResetSentMessages() {
	mu.Lock()
	SentMessages = SentMessages[:0]
	mu.Unlock()
}

// consoleService prints messages to the std logger instead of sending them.
type consoleService struct {
	from          mail.Address
	subjPrefix    string
	disableOutput bool
}

var _ core.EmailService = (*consoleService)(nil)

func NewConsoleService(conf *core.Config) core.EmailService {
	return &consoleService{from: conf.Mail.DefaultFromEmail, subjPrefix: "[" + conf.AppName + "] "}
}

func (svc consoleService) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		go svc.sendMessage(msg)
	}
}

func (svc consoleService) sendMessage(msg *core.EmailMessage) {
	if !msg.Deliverable() {
		return
	}
	if !svc.disableOutput {
		log.Println(svc.format(*msg))
	}
	mu.Lock()
	SentMessages = append(SentMessages, *msg)
	mu.Unlock()
}

// format lays the message out the way a mail client would show it.
func (svc consoleService) format(msg core.EmailMessage) string {
	to := make([]string, 0, len(msg.To))
	for _, a := range msg.To {
		to = append(to, a.String())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "From: %s\n", svc.from.String())
	fmt.Fprintf(&sb, "To: %s\n", strings.Join(to, ", "))
	fmt.Fprintf(&sb, "Subject: %s\n\n", svc.subjPrefix+msg.Subject)
	sb.WriteString(msg.Text)
	for _, at := range msg.Attachments {
		fmt.Fprintf(&sb, "\n[attachment %s, %s, %d bytes]", at.Filename, at.ContentType, len(at.Content))
	}
	return sb.String()
}

type consoleServiceMock struct {
	consoleService
}

// NewConsoleServiceMock sends synchronously and without output; sent messages land in SentMessages.
func NewConsoleServiceMock(conf *core.Config) core.EmailService {
	return &consoleServiceMock{
		consoleService: consoleService{
			from:          conf.Mail.DefaultFromEmail,
			subjPrefix:    "[" + conf.AppName + "] ",
			disableOutput: true,
		},
	}
}

func (svc *consoleServiceMock) SendMessages(messages ...*core.EmailMessage) {
	for _, msg := range messages {
		svc.sendMessage(msg)
	}
}
