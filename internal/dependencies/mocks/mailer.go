package mocks

import (
	"context"
	"sync"

	"github.com/mcoot/creaturegame/internal/dependencies/mailer"
)

// SentMail records one delivered message
type SentMail struct {
	To  string
	URL string
}

// MockMailer records password reset mails instead of sending them
type MockMailer struct {
	mu   sync.Mutex
	sent []SentMail

	// Err, if set, is returned from every send
	Err error
}

// Ensure MockMailer implements Mailer
var _ mailer.Mailer = (*MockMailer)(nil)

// NewMockMailer creates a new MockMailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// SendPasswordReset records the reset link
func (m *MockMailer) SendPasswordReset(_ context.Context, to, resetURL string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, SentMail{To: to, URL: resetURL})
	return nil
}

// Sent returns all recorded mails
func (m *MockMailer) Sent() []SentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]SentMail, len(m.sent))
	copy(out, m.sent)
	return out
}

// Last returns the most recent mail, if any
func (m *MockMailer) Last() (SentMail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return SentMail{}, false
	}
	return m.sent[len(m.sent)-1], true
}
