package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusOK      HealthStatus = "ok"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
)

// Tracked components.
const (
	ComponentJellyfin     = "jellyfin"
	ComponentSearchEngine = "search-engine"
	ComponentIndexSync    = "index-sync"
)

// HealthItem represents a single health-tracked component.
type HealthItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

// MarshalJSON omits the message and timestamp for OK items.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)

	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// HealthSummary provides an overview of system health.
type HealthSummary struct {
	Status     HealthStatus `json:"status"`
	Components []HealthItem `json:"components"`
}
