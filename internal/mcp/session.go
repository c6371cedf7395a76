// Package mcp exposes deck editing as MCP tools over stdio. The server holds
// at most one open deck session at a time; opening a new package closes the
// previous one.
package mcp

import (
	"sync"

	"github.com/hpungsan/deckpack/internal/deck"
	"github.com/hpungsan/deckpack/internal/errors"
)

// SessionManager owns the single live deck session behind the tool surface.
type SessionManager struct {
	mu      sync.Mutex
	session *deck.Session
}

// NewSessionManager creates an empty manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// Open closes any existing session and opens the package at path.
func (m *SessionManager) Open(path string) ([]deck.Card, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		m.session.Close()
		m.session = nil
	}

	session := deck.NewSession(path)
	cards, err := session.Open()
	if err != nil {
		return nil, err
	}
	m.session = session
	return cards, nil
}

// Current returns the live session, or NO_SESSION when none is open.
func (m *SessionManager) Current() (*deck.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return nil, errors.NewNoSession()
	}
	return m.session, nil
}

// Path returns the source path of the open package, or "" when none is open.
func (m *SessionManager) Path() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session == nil {
		return ""
	}
	return m.session.Path()
}

// Close tears down the live session if any. Idempotent.
func (m *SessionManager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}
