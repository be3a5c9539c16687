package decision

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"paperdesk/internal/types"
)

// voteSchemaJSON constrains externally submitted vote payloads before they
// reach the aggregator. Action and risk spellings are normalized after
// validation, so the schema only pins shape and ranges.
const voteSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "array",
  "items": {
    "type": "object",
    "required": ["agent_type", "action", "confidence"],
    "properties": {
      "agent_type": {"type": "string", "minLength": 1},
      "action": {"type": "string", "minLength": 1},
      "confidence": {"type": "number", "minimum": 0, "maximum": 100},
      "risk_level": {"type": "string"},
      "position_size_percent": {"type": "number", "minimum": 0, "maximum": 100},
      "reasoning": {"type": "string"}
    },
    "additionalProperties": false
  }
}`

var voteSchema = jsonschema.MustCompileString("votes.json", voteSchemaJSON)

type rawVote struct {
	AgentType           string  `json:"agent_type"`
	Action              string  `json:"action"`
	Confidence          float64 `json:"confidence"`
	RiskLevel           string  `json:"risk_level"`
	PositionSizePercent float64 `json:"position_size_percent"`
	Reasoning           string  `json:"reasoning"`
}

// ParseVotes validates a JSON vote array against the schema and normalizes
// it into typed votes. Unknown actions are rejected; a missing or unknown
// risk level defaults to MEDIUM.
func ParseVotes(raw []byte) ([]Vote, error) {
	var generic any
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("votes payload is not valid JSON: %w", err)
	}
	if err := voteSchema.Validate(generic); err != nil {
		return nil, fmt.Errorf("votes payload failed schema validation: %w", err)
	}

	var rawVotes []rawVote
	if err := json.Unmarshal(raw, &rawVotes); err != nil {
		return nil, err
	}
	out := make([]Vote, 0, len(rawVotes))
	for i, rv := range rawVotes {
		action, ok := types.ParseVoteAction(rv.Action)
		if !ok {
			return nil, fmt.Errorf("vote #%d: unknown action %q", i+1, rv.Action)
		}
		risk := types.RiskMedium
		if strings.TrimSpace(rv.RiskLevel) != "" {
			parsed, ok := types.ParseRiskLevel(rv.RiskLevel)
			if !ok {
				return nil, fmt.Errorf("vote #%d: unknown risk level %q", i+1, rv.RiskLevel)
			}
			risk = parsed
		}
		out = append(out, Vote{
			AgentType:           types.AgentType(strings.ToLower(strings.TrimSpace(rv.AgentType))),
			Action:              action,
			Confidence:          rv.Confidence,
			RiskLevel:           risk,
			PositionSizePercent: rv.PositionSizePercent,
			Reasoning:           rv.Reasoning,
		})
	}
	return out, nil
}
