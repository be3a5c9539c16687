package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paperdesk/internal/types"
)

func TestParseVotes_Valid(t *testing.T) {
	raw := []byte(`[
		{"agent_type": "technical", "action": "Strong Buy", "confidence": 82.5, "risk_level": "Very Low", "position_size_percent": 12, "reasoning": "breakout"},
		{"agent_type": "risk", "action": "hold", "confidence": 55}
	]`)

	votes, err := ParseVotes(raw)
	require.NoError(t, err)
	require.Len(t, votes, 2)

	assert.Equal(t, types.AgentTechnical, votes[0].AgentType)
	assert.Equal(t, types.VoteStrongBuy, votes[0].Action)
	assert.Equal(t, 82.5, votes[0].Confidence)
	assert.Equal(t, types.RiskVeryLow, votes[0].RiskLevel)
	assert.Equal(t, 12.0, votes[0].PositionSizePercent)

	assert.Equal(t, types.VoteHold, votes[1].Action)
	assert.Equal(t, types.RiskMedium, votes[1].RiskLevel, "missing risk level defaults to MEDIUM")
}

func TestParseVotes_Rejections(t *testing.T) {
	cases := []struct {
		name string
		raw  string
	}{
		{"not json", `{"agent_type":`},
		{"not an array", `{"agent_type": "technical"}`},
		{"missing confidence", `[{"agent_type": "technical", "action": "BUY"}]`},
		{"confidence out of range", `[{"agent_type": "technical", "action": "BUY", "confidence": 140}]`},
		{"unknown field", `[{"agent_type": "technical", "action": "BUY", "confidence": 70, "price_target": 99}]`},
		{"unknown action", `[{"agent_type": "technical", "action": "YOLO", "confidence": 70}]`},
		{"unknown risk level", `[{"agent_type": "technical", "action": "BUY", "confidence": 70, "risk_level": "EXTREME"}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVotes([]byte(tc.raw))
			assert.Error(t, err)
		})
	}
}

func TestParseVotes_EmptyArray(t *testing.T) {
	votes, err := ParseVotes([]byte(`[]`))
	require.NoError(t, err)
	assert.Empty(t, votes)
}
