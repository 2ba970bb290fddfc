package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/mail"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/emersion/go-smtp"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/utils"
	"github.com/mikey/pwned-relay/internal/whitelist"
	"go.uber.org/zap"
)

const (
	smtpDispatchTimeout = 30 * time.Second
	smtpMaxMessageBytes = 1 << 20
)

// deliverFunc hands a complete message to the outbound relay
type deliverFunc func(from string, to []string, data []byte) error

// SMTPTransport receives commands by mail and answers by mail.
// The command is read from the subject line; the reply is sent to the
// envelope sender through the configured relay.
type SMTPTransport struct {
	dispatcher    ports.Dispatcher
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	domains       *whitelist.Checker
	listenAddr    string
	domain        string
	relayAddr     string
	relayPort     int
	fromAddress   string
	server        *smtp.Server
	deliver       deliverFunc

	// mu orders inflight.Add against Stop's inflight.Wait
	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// errShuttingDown is returned for mail that arrives while Stop is draining
var errShuttingDown = errors.New("transport is shutting down")

// NewSMTPTransport creates a new SMTP transport
func NewSMTPTransport(
	dispatcher ports.Dispatcher,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	domains *whitelist.Checker,
	listenAddr string,
	domain string,
	relayAddr string,
	relayPort int,
	fromAddress string,
) *SMTPTransport {
	t := &SMTPTransport{
		dispatcher:    dispatcher,
		logger:        logger,
		textProcessor: textProcessor,
		domains:       domains,
		listenAddr:    listenAddr,
		domain:        domain,
		relayAddr:     relayAddr,
		relayPort:     relayPort,
		fromAddress:   fromAddress,
	}
	t.deliver = t.sendToRelay
	return t
}

// Name returns the transport type
func (t *SMTPTransport) Name() string {
	return "smtp"
}

// Start starts the SMTP listener
func (t *SMTPTransport) Start() error {
	t.mu.Lock()
	t.closed = false
	t.mu.Unlock()

	t.server = smtp.NewServer(&smtpBackend{transport: t})

	t.server.Addr = t.listenAddr
	t.server.Domain = t.domain
	t.server.ReadTimeout = 30 * time.Second
	t.server.WriteTimeout = 30 * time.Second
	t.server.MaxMessageBytes = smtpMaxMessageBytes
	t.server.MaxRecipients = 10

	ln, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", t.listenAddr, err)
	}

	t.logger.Info("SMTP transport started",
		zap.String("address", ln.Addr().String()),
		zap.Strings("accepted_domains", t.domains.Domains()))

	go func() {
		if err := t.server.Serve(ln); err != nil && err != smtp.ErrServerClosed {
			t.logger.Error("SMTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop closes the listener and waits for pending replies.
// Mail still arriving afterwards is refused with a temporary error.
func (t *SMTPTransport) Stop() error {
	t.mu.Lock()
	t.closed = true
	t.mu.Unlock()

	var err error
	if t.server != nil {
		err = t.server.Close()
	}
	t.inflight.Wait()
	return err
}

// handleMail turns a received mail into an inbound message and dispatches it
// in the background so the SMTP session is not held during the lookup
func (t *SMTPTransport) handleMail(sender string, raw []byte) error {
	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to parse message: %w", err)
	}

	subject := msg.Header.Get("Subject")
	if decoded, err := decodeEncodedHeader(subject); err == nil {
		subject = decoded
	}
	// Encoded words may smuggle line breaks, the command is the first line
	subject = t.textProcessor.FirstLine(subject)

	body, err := extractTextFromMessage(msg)
	if err != nil {
		t.logger.Warn("Failed to extract text content", zap.Error(err))
	}

	kind := core.MessageKindText
	if sender == "" || isAutomated(msg.Header) {
		// Never answer bounces or auto-replies
		kind = core.MessageKindOther
	}

	inbound := &mailMessage{
		transport: t,
		kind:      kind,
		text:      t.textProcessor.SanitizeUTF8(subject + "\n" + body),
		sender:    sender,
		subject:   subject,
		messageID: msg.Header.Get("Message-Id"),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return errShuttingDown
	}
	t.inflight.Add(1)
	t.mu.Unlock()

	go func() {
		defer t.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				t.logger.Error("Recovered from panic while dispatching mail", zap.Any("panic", r))
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), smtpDispatchTimeout)
		defer cancel()

		outcome := t.dispatcher.Dispatch(ctx, inbound)
		t.logger.Info("Processed mail",
			zap.String("outcome", outcome.Status.String()),
			zap.String("dispatch_id", outcome.ID))
		t.logger.Debug("Processed mail sender",
			zap.String("sender", sender),
			zap.String("dispatch_id", outcome.ID))
	}()

	return nil
}

func isAutomated(header mail.Header) bool {
	autoSubmitted := strings.ToLower(strings.TrimSpace(header.Get("Auto-Submitted")))
	if autoSubmitted != "" && autoSubmitted != "no" {
		return true
	}
	precedence := strings.ToLower(header.Get("Precedence"))
	return precedence == "bulk" || precedence == "junk" || precedence == "list"
}

// buildReply renders the reply mail
func (t *SMTPTransport) buildReply(to, subject, inReplyTo, text string) []byte {
	if !strings.HasPrefix(strings.ToLower(subject), "re:") {
		subject = "Re: " + subject
	}

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "From: %s\r\n", t.fromAddress)
	fmt.Fprintf(&buf, "To: %s\r\n", to)
	fmt.Fprintf(&buf, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	fmt.Fprintf(&buf, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	if inReplyTo != "" {
		fmt.Fprintf(&buf, "In-Reply-To: %s\r\n", inReplyTo)
		fmt.Fprintf(&buf, "References: %s\r\n", inReplyTo)
	}
	fmt.Fprintf(&buf, "Auto-Submitted: auto-replied\r\n")
	fmt.Fprintf(&buf, "MIME-Version: 1.0\r\n")
	fmt.Fprintf(&buf, "Content-Type: text/plain; charset=utf-8\r\n")
	fmt.Fprintf(&buf, "Content-Transfer-Encoding: 8bit\r\n")
	fmt.Fprintf(&buf, "\r\n")
	buf.WriteString(strings.ReplaceAll(text, "\n", "\r\n"))
	buf.WriteString("\r\n")
	return buf.Bytes()
}

// sendToRelay sends a message through the configured relay using go-smtp
func (t *SMTPTransport) sendToRelay(from string, to []string, data []byte) error {
	relayAddr := net.JoinHostPort(t.relayAddr, strconv.Itoa(t.relayPort))

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}

	conn, err := net.DialTimeout("tcp", relayAddr, 10*time.Second)
	if err != nil {
		return fmt.Errorf("failed to connect to relay: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(30 * time.Second)); err != nil {
		conn.Close()
		return fmt.Errorf("failed to set connection deadline: %w", err)
	}

	c := smtp.NewClient(conn)
	defer c.Close()

	if err := c.Hello(hostname); err != nil {
		return fmt.Errorf("EHLO failed: %w", err)
	}

	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}

	for _, recipient := range to {
		if err := c.Rcpt(recipient, nil); err != nil {
			return fmt.Errorf("RCPT TO failed: %w", err)
		}
	}

	wc, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}

	if _, err := wc.Write(data); err != nil {
		wc.Close()
		return fmt.Errorf("failed to send message data: %w", err)
	}

	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	if err := c.Quit(); err != nil {
		// The message has already been accepted
		t.logger.Warn("QUIT command failed", zap.Error(err))
	}

	return nil
}

// mailMessage is an InboundMessage backed by a received mail
type mailMessage struct {
	transport *SMTPTransport
	kind      core.MessageKind
	text      string
	sender    string
	subject   string
	messageID string
}

func (m *mailMessage) Kind() core.MessageKind {
	return m.kind
}

func (m *mailMessage) Text() string {
	return m.text
}

// Reply mails the text back to the envelope sender. Link previews do not
// exist in mail, so DisablePreview is ignored.
func (m *mailMessage) Reply(_ context.Context, reply core.Reply) error {
	data := m.transport.buildReply(m.sender, m.subject, m.messageID, reply.Text)
	if err := m.transport.deliver(m.transport.fromAddress, []string{m.sender}, data); err != nil {
		return fmt.Errorf("failed to mail reply: %w", err)
	}
	return nil
}

// smtpBackend implements the go-smtp Backend interface
type smtpBackend struct {
	transport *SMTPTransport
}

// NewSession creates a new SMTP session
func (b *smtpBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &smtpSession{transport: b.transport}, nil
}

// smtpSession implements the go-smtp Session interface
type smtpSession struct {
	transport  *SMTPTransport
	sender     string
	recipients []string
}

// Reset resets the session state
func (s *smtpSession) Reset() {
	s.sender = ""
	s.recipients = nil
}

// Mail sets the sender address
func (s *smtpSession) Mail(from string, _ *smtp.MailOptions) error {
	s.sender = from
	return nil
}

// Rcpt accepts recipients of the configured domains only
func (s *smtpSession) Rcpt(to string, _ *smtp.RcptOptions) error {
	if !s.transport.domains.IsAllowed(to) {
		return &smtp.SMTPError{
			Code:         550,
			EnhancedCode: smtp.EnhancedCode{5, 7, 1},
			Message:      "Relaying denied",
		}
	}
	s.recipients = append(s.recipients, to)
	return nil
}

// Data reads the message and queues it for dispatch
func (s *smtpSession) Data(r io.Reader) error {
	raw, err := io.ReadAll(r)
	if err != nil {
		s.transport.logger.Error("Failed to read message data", zap.Error(err))
		return err
	}

	if err := s.transport.handleMail(s.sender, raw); err != nil {
		if errors.Is(err, errShuttingDown) {
			return &smtp.SMTPError{
				Code:         421,
				EnhancedCode: smtp.EnhancedCode{4, 3, 2},
				Message:      "Service shutting down, try again later",
			}
		}
		s.transport.logger.Error("Failed to handle message", zap.Error(err))
		return &smtp.SMTPError{
			Code:         554,
			EnhancedCode: smtp.EnhancedCode{5, 6, 0},
			Message:      "Malformed message",
		}
	}
	return nil
}

// Logout handles SMTP logout
func (s *smtpSession) Logout() error {
	return nil
}
