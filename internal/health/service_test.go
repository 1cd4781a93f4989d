package health

import (
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService() *Service {
	s := NewService(zerolog.Nop())
	s.RegisterItem(ComponentJellyfin, "Jellyfin")
	s.RegisterItem(ComponentSearchEngine, "Search engine")
	return s
}

func TestSummary_WorstStatusWins(t *testing.T) {
	s := newTestService()
	assert.Equal(t, StatusOK, s.GetSummary().Status)

	s.SetWarning(ComponentSearchEngine, "slow")
	assert.Equal(t, StatusWarning, s.GetSummary().Status)

	s.SetError(ComponentJellyfin, "connection refused")
	summary := s.GetSummary()
	assert.Equal(t, StatusError, summary.Status)
	require.Len(t, summary.Components, 2)
	assert.Equal(t, ComponentJellyfin, summary.Components[0].ID)

	s.ClearStatus(ComponentJellyfin)
	s.ClearStatus(ComponentSearchEngine)
	assert.Equal(t, StatusOK, s.GetSummary().Status)
	assert.True(t, s.IsHealthy(ComponentJellyfin))
}

func TestSetStatus_UnregisteredIsIgnored(t *testing.T) {
	s := newTestService()
	s.SetError("unknown", "boom")

	assert.Nil(t, s.GetItem("unknown"))
	assert.False(t, s.IsHealthy("unknown"))
}

func TestHealthItem_MarshalOmitsDetailsWhenOK(t *testing.T) {
	s := newTestService()
	s.SetError(ComponentJellyfin, "connection refused")
	s.ClearStatus(ComponentJellyfin)

	raw, err := json.Marshal(s.GetItem(ComponentJellyfin))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"jellyfin","name":"Jellyfin","status":"ok"}`, string(raw))

	s.SetError(ComponentJellyfin, "connection refused")
	raw, err = json.Marshal(s.GetItem(ComponentJellyfin))
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"message":"connection refused"`)
	assert.Contains(t, string(raw), `"timestamp"`)
}
