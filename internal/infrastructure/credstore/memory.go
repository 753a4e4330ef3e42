// Package credstore holds the CredentialStore backends that live on the
// local machine.
package credstore

import (
	"sync"

	"github.com/trekkers/tour-client/internal/core/domain"
	"github.com/trekkers/tour-client/internal/pkg/notify"
)

// Memory keeps the credential for the lifetime of the process only.
type Memory struct {
	mu       sync.Mutex
	token    domain.Credential
	listener notify.Notifier[domain.Credential]
}

// NewMemory returns a store seeded with token, which may be empty.
func NewMemory(token domain.Credential) *Memory {
	return &Memory{token: token}
}

func (m *Memory) Get() domain.Credential {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

func (m *Memory) Set(token domain.Credential) error {
	m.mu.Lock()
	m.token = token
	ticket := m.listener.Reserve()
	m.mu.Unlock()
	m.listener.Deliver(ticket, token)
	return nil
}

func (m *Memory) Clear() error {
	return m.Set("")
}

func (m *Memory) CompareAndClear(expected domain.Credential) (bool, error) {
	m.mu.Lock()
	if expected.IsZero() || m.token != expected {
		m.mu.Unlock()
		return false, nil
	}
	m.token = ""
	ticket := m.listener.Reserve()
	m.mu.Unlock()
	m.listener.Deliver(ticket, "")
	return true, nil
}

func (m *Memory) OnChange(fn func(domain.Credential)) func() {
	return m.listener.Subscribe(fn)
}
