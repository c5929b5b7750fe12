package mail

import (
	"crypto/tls"
	"fmt"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/telekom/mailqueue/pkg/config"
	"github.com/telekom/mailqueue/pkg/queue"
)

const defaultContentType = "text/plain"

// Sender delivers a single message to the SMTP relay.
type Sender interface {
	Send(msg queue.Message) error
	GetHost() string
	GetPort() int
}

type sender struct {
	dialer        *gomail.Dialer
	senderAddress string
	senderName    string
	log           *zap.SugaredLogger
}

// NewSender builds a gomail backed Sender for the relay in cfg. Messages
// without their own from address go out as cfg.SenderAddress.
func NewSender(cfg config.Mail, log *zap.SugaredLogger) Sender {
	log.Debugw("Initializing mail sender", "host", cfg.Host, "port", cfg.Port, "user", cfg.User)
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password)
	if cfg.InsecureSkipVerify {
		log.Warnw("InsecureSkipVerify is enabled for mail TLS connection", "host", cfg.Host)
		d.TLSConfig = &tls.Config{InsecureSkipVerify: true} //nolint:gosec // opt-in for internal relays
	}

	senderAddr := cfg.SenderAddress
	if senderAddr == "" {
		senderAddr = config.DefaultSenderAddress
	}
	senderName := cfg.SenderName
	if senderName == "" {
		senderName = config.DefaultSenderName
	}

	return &sender{
		dialer:        d,
		senderAddress: senderAddr,
		senderName:    senderName,
		log:           log,
	}
}

func (s *sender) Send(msg queue.Message) error {
	m := gomail.NewMessage()
	if msg.FromAddress != "" {
		m.SetHeader("From", msg.FromAddress)
	} else {
		m.SetAddressHeader("From", s.senderAddress, s.senderName)
	}
	m.SetHeader("To", msg.ToAddress)
	m.SetHeader("Subject", msg.Subject)

	contentType := msg.ContentType
	if contentType == "" {
		contentType = defaultContentType
	}
	m.SetBody(contentType, msg.Body)

	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send to %s via %s:%d: %w", msg.ToAddress, s.GetHost(), s.GetPort(), err)
	}
	s.log.Debugw("Mail handed to relay", "to", msg.ToAddress, "subject", msg.Subject)
	return nil
}

func (s *sender) GetHost() string {
	return s.dialer.Host
}

func (s *sender) GetPort() int {
	return s.dialer.Port
}
