package transport

import (
	"errors"
	"net/mail"
	"strings"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/mikey/pwned-relay/internal/core"
	"github.com/mikey/pwned-relay/internal/ports"
	"github.com/mikey/pwned-relay/internal/utils"
	"github.com/mikey/pwned-relay/internal/whitelist"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type delivery struct {
	from string
	to   []string
	data []byte
}

type deliveryRecorder struct {
	mu         sync.Mutex
	deliveries []delivery
	err        error
}

func (r *deliveryRecorder) deliver(from string, to []string, data []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.deliveries = append(r.deliveries, delivery{from: from, to: to, data: data})
	return r.err
}

func (r *deliveryRecorder) all() []delivery {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]delivery(nil), r.deliveries...)
}

func newTestSMTPTransport(dispatcher ports.Dispatcher, domains []string) (*SMTPTransport, *deliveryRecorder) {
	transport := NewSMTPTransport(
		dispatcher,
		zap.NewNop(),
		utils.NewTextProcessor(zap.NewNop()),
		whitelist.NewChecker(domains, nil),
		"127.0.0.1:0",
		"localhost",
		"localhost",
		25,
		"pwned@relay.test",
	)
	recorder := &deliveryRecorder{}
	transport.deliver = recorder.deliver
	return transport, recorder
}

func sendSession(t *testing.T, transport *SMTPTransport, from string, raw string) error {
	session := &smtpSession{transport: transport}
	require.NoError(t, session.Mail(from, nil))
	require.NoError(t, session.Rcpt("pwned@relay.test", nil))
	return session.Data(strings.NewReader(raw))
}

func TestSMTPTransport_RepliesBySubject(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 5), nil)
	raw := "From: Alice <alice@example.com>\r\n" +
		"To: pwned@relay.test\r\n" +
		"Subject: /pwned alice@example.com\r\n" +
		"Message-ID: <abc@example.com>\r\n" +
		"\r\n" +
		"Thanks!\r\n" +
		"-- \r\nbob@example.net\r\n"

	req.NoError(sendSession(t, transport, "alice@example.com", raw))
	req.NoError(transport.Stop())

	deliveries := recorder.all()
	req.Len(deliveries, 1)
	req.Equal("pwned@relay.test", deliveries[0].from)
	req.Equal([]string{"alice@example.com"}, deliveries[0].to)

	reply, err := mail.ReadMessage(strings.NewReader(string(deliveries[0].data)))
	req.NoError(err)
	req.Equal("<abc@example.com>", reply.Header.Get("In-Reply-To"))
	req.Equal("auto-replied", reply.Header.Get("Auto-Submitted"))
	subject, err := decodeEncodedHeader(reply.Header.Get("Subject"))
	req.NoError(err)
	req.Equal("Re: /pwned alice@example.com", subject)
	req.Contains(string(deliveries[0].data), "The email alice@example.com has been breached 5 times!")
}

func TestSMTPTransport_ErrorReply(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 1), nil)
	raw := "Subject: /pwned please\r\n\r\nno address anywhere\r\n"

	req.NoError(sendSession(t, transport, "carol@example.com", raw))
	req.NoError(transport.Stop())

	deliveries := recorder.all()
	req.Len(deliveries, 1)
	req.Contains(string(deliveries[0].data), core.ErrNoEmailFound.Error())
}

func TestSMTPTransport_IgnoresNonCommands(t *testing.T) {
	tests := []struct {
		description string
		sender      string
		raw         string
	}{
		{
			description: "Subject without command",
			sender:      "dave@example.com",
			raw:         "Subject: hello\r\n\r\n/pwned dave@example.com\r\n",
		},
		{
			description: "Auto reply",
			sender:      "dave@example.com",
			raw:         "Subject: /pwned dave@example.com\r\nAuto-Submitted: auto-replied\r\n\r\nout of office\r\n",
		},
		{
			description: "Bulk mail",
			sender:      "list@example.com",
			raw:         "Subject: /pwned dave@example.com\r\nPrecedence: bulk\r\n\r\nnewsletter\r\n",
		},
		{
			description: "Bounce",
			sender:      "",
			raw:         "Subject: /pwned dave@example.com\r\n\r\nundeliverable\r\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.description, func(t *testing.T) {
			req := require.New(t)
			transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 1), nil)

			req.NoError(sendSession(t, transport, tt.sender, tt.raw))
			req.NoError(transport.Stop())
			req.Empty(recorder.all())
		})
	}
}

func TestSMTPTransport_RejectsForeignRecipients(t *testing.T) {
	req := require.New(t)
	transport, _ := newTestSMTPTransport(newTestDispatcher(t, 1), []string{"relay.test"})
	session := &smtpSession{transport: transport}

	req.NoError(session.Rcpt("pwned@relay.test", nil))

	err := session.Rcpt("someone@elsewhere.test", nil)
	var smtpErr *smtp.SMTPError
	req.True(errors.As(err, &smtpErr))
	req.Equal(550, smtpErr.Code)
	req.Equal([]string{"pwned@relay.test"}, session.recipients)

	session.Reset()
	req.Empty(session.recipients)
	req.Empty(session.sender)
}

func TestSMTPTransport_MalformedMessage(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 1), nil)
	session := &smtpSession{transport: transport, sender: "eve@example.com"}

	err := session.Data(strings.NewReader("this is not a header\r\n"))

	var smtpErr *smtp.SMTPError
	req.True(errors.As(err, &smtpErr))
	req.Equal(554, smtpErr.Code)
	req.NoError(transport.Stop())
	req.Empty(recorder.all())
}

func TestSMTPTransport_DeliveryFailureIsContained(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 1), nil)
	recorder.err = errors.New("relay down")

	req.NoError(sendSession(t, transport, "frank@example.com", "Subject: /pwned frank@example.com\r\n\r\n"))
	req.NoError(transport.Stop())
	req.Len(recorder.all(), 1)
}

func TestSMTPTransport_StartStop(t *testing.T) {
	req := require.New(t)
	transport, _ := newTestSMTPTransport(newTestDispatcher(t, 1), nil)

	req.NoError(transport.Start())
	req.NoError(transport.Stop())
	req.Equal("smtp", transport.Name())
}

func TestSMTPTransport_RefusesMailAfterStop(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 1), nil)
	req.NoError(transport.Stop())

	err := sendSession(t, transport, "late@example.com", "Subject: /pwned late@example.com\r\n\r\n")

	var smtpErr *smtp.SMTPError
	req.True(errors.As(err, &smtpErr))
	req.Equal(421, smtpErr.Code)
	req.Empty(recorder.all())
}

func TestSMTPTransport_StopDuringDelivery(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 2), nil)

	const senders = 20
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		accepted int
	)
	start := make(chan struct{})
	for i := 0; i < senders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			session := &smtpSession{transport: transport, sender: "burst@example.com"}
			if err := session.Data(strings.NewReader("Subject: /pwned burst@example.com\r\n\r\n")); err == nil {
				mu.Lock()
				accepted++
				mu.Unlock()
			}
		}()
	}

	close(start)
	req.NoError(transport.Stop())
	wg.Wait()

	// Everything accepted before Stop returned has been answered
	mu.Lock()
	defer mu.Unlock()
	req.Len(recorder.all(), accepted)
}

func TestSMTPTransport_SubjectFirstLineOnly(t *testing.T) {
	req := require.New(t)
	transport, recorder := newTestSMTPTransport(newTestDispatcher(t, 3), nil)
	raw := "Subject: =?UTF-8?Q?/pwned_alice@example.com=0D=0ABcc:_victim@example.net?=\r\n\r\n"

	req.NoError(sendSession(t, transport, "alice@example.com", raw))
	req.NoError(transport.Stop())

	deliveries := recorder.all()
	req.Len(deliveries, 1)
	reply, err := mail.ReadMessage(strings.NewReader(string(deliveries[0].data)))
	req.NoError(err)
	req.Empty(reply.Header.Get("Bcc"))
	subject, err := decodeEncodedHeader(reply.Header.Get("Subject"))
	req.NoError(err)
	req.Equal("Re: /pwned alice@example.com", subject)
	req.NotContains(string(deliveries[0].data), "victim@example.net")
}

func TestSMTPTransport_LogsAcceptedDomains(t *testing.T) {
	req := require.New(t)
	observed, logs := observer.New(zap.InfoLevel)
	transport := NewSMTPTransport(
		newTestDispatcher(t, 1),
		zap.New(observed),
		utils.NewTextProcessor(zap.NewNop()),
		whitelist.NewChecker([]string{"Relay.Test", "relay.test", "other.test"}, nil),
		"127.0.0.1:0",
		"localhost",
		"localhost",
		25,
		"pwned@relay.test",
	)

	req.NoError(transport.Start())
	req.NoError(transport.Stop())

	entries := logs.FilterMessage("SMTP transport started").All()
	req.Len(entries, 1)
	req.Equal([]interface{}{"relay.test", "other.test"}, entries[0].ContextMap()["accepted_domains"])
}
