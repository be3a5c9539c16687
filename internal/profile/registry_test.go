package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperdesk/internal/types"
)

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profiles.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestRegistry_LoadsWeights(t *testing.T) {
	path := writeProfile(t, `
agents:
  technical:
    enabled: true
    weight: 2.0
  sector:
    enabled: false
    weight: 1.0
  risk:
    enabled: true
    weight: 0
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	snap := r.Snapshot()
	assert.Equal(t, 2.0, snap.Weight(types.AgentTechnical))
	assert.Equal(t, 0.0, snap.Weight(types.AgentSector), "disabled agents carry zero weight")
	assert.Equal(t, 1.0, snap.Weight(types.AgentRisk), "non-positive weight falls back to 1")
	assert.Equal(t, 1.0, snap.Weight(types.AgentML), "unlisted agents default to 1")
}

func TestRegistry_WeightFuncTracksSnapshot(t *testing.T) {
	path := writeProfile(t, `
agents:
  ml:
    enabled: true
    weight: 3.0
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	fn := r.WeightFunc()
	assert.Equal(t, 3.0, fn(types.AgentML))
	assert.Equal(t, 1.0, fn(types.AgentPortfolio))
}

func TestRegistry_RejectsUnknownKeys(t *testing.T) {
	path := writeProfile(t, `
agents:
  technical:
    enabled: true
    weihgt: 2.0
`)
	_, err := NewRegistry(path)
	assert.Error(t, err)
}

func TestDefaults_AllKnownAgentsEnabled(t *testing.T) {
	snap := Defaults()
	for _, a := range types.KnownAgentTypes() {
		assert.Equal(t, 1.0, snap.Weight(a), a)
	}
}
