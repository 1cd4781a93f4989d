package health

import (
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Service tracks the health of the components the proxy depends on.
// All state is in-memory and resets on application restart.
type Service struct {
	items  map[string]*HealthItem
	mu     sync.RWMutex
	logger zerolog.Logger
}

// NewService creates a new health service.
func NewService(logger zerolog.Logger) *Service {
	return &Service{
		items:  make(map[string]*HealthItem),
		logger: logger.With().Str("component", "health").Logger(),
	}
}

// RegisterItem adds a component to health tracking with OK status.
func (s *Service) RegisterItem(id, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items[id] = &HealthItem{ID: id, Name: name, Status: StatusOK}
	s.logger.Debug().Str("id", id).Str("name", name).Msg("Registered health item")
}

// SetError sets a component to Error status with a message.
func (s *Service) SetError(id, message string) {
	s.setStatus(id, StatusError, message)
}

// SetWarning sets a component to Warning status with a message.
func (s *Service) SetWarning(id, message string) {
	s.setStatus(id, StatusWarning, message)
}

// ClearStatus resets a component to OK status.
func (s *Service) ClearStatus(id string) {
	s.setStatus(id, StatusOK, "")
}

func (s *Service) setStatus(id string, status HealthStatus, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		s.logger.Warn().Str("id", id).Msg("Attempted to update status for unregistered item")
		return
	}

	if item.Status == status && item.Message == message {
		return
	}

	oldStatus := item.Status
	item.Status = status
	item.Message = message
	if status != StatusOK {
		now := time.Now()
		item.Timestamp = &now
	} else {
		item.Timestamp = nil
	}

	event := s.logger.Info()
	if status == StatusError {
		event = s.logger.Warn()
	}
	event.
		Str("id", id).
		Str("oldStatus", string(oldStatus)).
		Str("newStatus", string(status)).
		Str("message", message).
		Msg("Health status changed")
}

// GetItem returns a copy of a component's state, or nil.
func (s *Service) GetItem(id string) *HealthItem {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil
	}
	cp := *item
	return &cp
}

// IsHealthy returns true if the component is registered and OK.
func (s *Service) IsHealthy(id string) bool {
	item := s.GetItem(id)
	return item != nil && item.Status == StatusOK
}

// GetSummary returns every component sorted by id, with the worst status
// as the overall status.
func (s *Service) GetSummary() *HealthSummary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := &HealthSummary{Status: StatusOK, Components: make([]HealthItem, 0, len(s.items))}
	for _, item := range s.items {
		summary.Components = append(summary.Components, *item)
		switch {
		case item.Status == StatusError:
			summary.Status = StatusError
		case item.Status == StatusWarning && summary.Status == StatusOK:
			summary.Status = StatusWarning
		}
	}
	sort.Slice(summary.Components, func(i, j int) bool {
		return summary.Components[i].ID < summary.Components[j].ID
	})
	return summary
}
