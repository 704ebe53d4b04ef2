package session

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"order-dispatch/internal/projection"
	"order-dispatch/pkg/constants"
	apperrors "order-dispatch/pkg/errors"
	"order-dispatch/pkg/metrics"
)

type ManagerInterface interface {
	Open(ctx context.Context, role constants.Role, courierID string) (*Session, error)
	Get(id string) (*Session, error)
	Close(id string) error
	CloseAll()
	List() []*Session
}

type Manager struct {
	deps   Dependencies
	logger *zap.Logger

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(deps Dependencies) *Manager {
	return &Manager{
		deps:     deps,
		logger:   deps.Logger,
		sessions: make(map[string]*Session),
	}
}

// Open создаёт сессию роли и сразу запускает её.
func (m *Manager) Open(ctx context.Context, role constants.Role, courierID string) (*Session, error) {
	cfg, err := projection.ConfigFor(role, courierID)
	if err != nil {
		return nil, err
	}

	s := New(uuid.NewString(), cfg, m.deps)
	if err := s.Open(ctx); err != nil {
		s.Close()
		return nil, fmt.Errorf("запуск сессии: %w", err)
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	metrics.ActiveSessions.Inc()

	m.logger.Info("Открыта сессия дашборда",
		zap.String("session", s.ID), zap.String("role", role.String()), zap.String("courier", courierID))
	return s, nil
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	return s, nil
}

func (m *Manager) Close(id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return apperrors.ErrNotFound
	}
	s.Close()
	metrics.ActiveSessions.Dec()
	return nil
}

func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
		metrics.ActiveSessions.Dec()
	}
	m.logger.Info("Все сессии дашбордов закрыты", zap.Int("count", len(sessions)))
}

// List возвращает открытые сессии в порядке создания.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}
