// Package notification sends templated patient emails. Delivery is best
// effort: failures are logged and counted, never returned to API callers.
package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/hospease/hospease/internal/platform/metrics"
)

// Built-in template ids.
const (
	TemplateAppointmentBooked  = "appointment-booked"
	TemplatePrescriptionIssued = "prescription-issued"
)

// Attachment is a file attached to an outgoing email.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// Message is a single outbound email.
type Message struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// EmailSender is the interface for sending email messages.
type EmailSender interface {
	SendEmail(ctx context.Context, msg Message) error
}

// Template defines a reusable email template.
type Template struct {
	ID      string
	Subject string
	Body    string
}

// TemplateEngine manages templates and renders them with data.
type TemplateEngine struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewTemplateEngine creates a TemplateEngine with the built-in templates pre-registered.
func NewTemplateEngine() *TemplateEngine {
	e := &TemplateEngine{
		templates: make(map[string]*Template),
	}
	e.registerBuiltIn()
	return e
}

func (e *TemplateEngine) registerBuiltIn() {
	builtIn := []Template{
		{
			ID:      TemplateAppointmentBooked,
			Subject: "Appointment confirmed: token {{token_number}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your appointment with {{doctor_name}} on {{date}} is confirmed.\n" +
				"Your token number is {{token_number}}.\n\n" +
				"Please arrive a few minutes early and watch the queue display for your token.\n",
		},
		{
			ID:      TemplatePrescriptionIssued,
			Subject: "Your prescription from {{doctor_name}}",
			Body: "Dear {{patient_name}},\n\n" +
				"Your prescription issued on {{date}} is attached.\n",
		},
	}
	for i := range builtIn {
		t := builtIn[i]
		e.templates[t.ID] = &t
	}
}

// RegisterTemplate adds or replaces a template in the engine.
func (e *TemplateEngine) RegisterTemplate(t Template) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.templates[t.ID] = &t
}

// Render looks up a template by ID and performs {{key}} replacement using the
// supplied data map. Keys present in the template but absent from data are left
// as-is.
func (e *TemplateEngine) Render(templateID string, data map[string]string) (subject, body string, err error) {
	e.mu.RLock()
	t, ok := e.templates[templateID]
	e.mu.RUnlock()
	if !ok {
		return "", "", fmt.Errorf("template %q not found", templateID)
	}

	subject = t.Subject
	body = t.Body
	for k, v := range data {
		placeholder := "{{" + k + "}}"
		subject = strings.ReplaceAll(subject, placeholder, v)
		body = strings.ReplaceAll(body, placeholder, v)
	}
	return subject, body, nil
}

// Notifier renders templates and hands the result to an EmailSender. A
// Notifier without a sender drops every message.
type Notifier struct {
	sender    EmailSender
	templates *TemplateEngine
	logger    zerolog.Logger
	metrics   *metrics.Metrics
	timeout   time.Duration

	wg sync.WaitGroup
}

func NewNotifier(sender EmailSender, templates *TemplateEngine, logger zerolog.Logger, m *metrics.Metrics) *Notifier {
	if templates == nil {
		templates = NewTemplateEngine()
	}
	return &Notifier{
		sender:    sender,
		templates: templates,
		logger:    logger.With().Str("component", "notification").Logger(),
		metrics:   m,
		timeout:   30 * time.Second,
	}
}

// Enabled reports whether messages are actually delivered.
func (n *Notifier) Enabled() bool {
	return n != nil && n.sender != nil
}

// Send renders templateID and delivers it synchronously.
func (n *Notifier) Send(ctx context.Context, to, templateID string, data map[string]string, attachments ...Attachment) error {
	if !n.Enabled() {
		return nil
	}
	if to == "" {
		return errors.New("recipient is required")
	}
	subject, body, err := n.templates.Render(templateID, data)
	if err != nil {
		return fmt.Errorf("render template: %w", err)
	}
	err = n.sender.SendEmail(ctx, Message{To: to, Subject: subject, Body: body, Attachments: attachments})
	n.metrics.EmailSent(err)
	return err
}

// Dispatch sends in the background, detached from the request's cancellation.
// Failures are logged at warn level. Recipients that are empty are skipped.
func (n *Notifier) Dispatch(ctx context.Context, to, templateID string, data map[string]string, attachments ...Attachment) {
	if !n.Enabled() || to == "" {
		return
	}
	bg, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.timeout)
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer cancel()
		if err := n.Send(bg, to, templateID, data, attachments...); err != nil {
			n.logger.Warn().Err(err).Str("template", templateID).Msg("email not sent")
		}
	}()
}

// Wait blocks until every dispatched message has finished.
func (n *Notifier) Wait() {
	if n == nil {
		return
	}
	n.wg.Wait()
}

// EmailCall records a single call to SendEmail.
type EmailCall struct {
	To          string
	Subject     string
	Body        string
	Attachments []Attachment
}

// MockEmailSender is a test double for EmailSender.
type MockEmailSender struct {
	mu         sync.Mutex
	calls      []EmailCall
	ShouldFail bool
	FailError  string
}

// SendEmail records the call and optionally returns an error.
func (m *MockEmailSender) SendEmail(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, EmailCall{To: msg.To, Subject: msg.Subject, Body: msg.Body, Attachments: msg.Attachments})
	if m.ShouldFail {
		return errors.New(m.FailError)
	}
	return nil
}

// Calls returns a copy of recorded email calls.
func (m *MockEmailSender) Calls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]EmailCall, len(m.calls))
	copy(out, m.calls)
	return out
}
