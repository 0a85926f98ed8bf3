package task

import (
	"encoding/json"
	"strings"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/parser"
)

// planWire mirrors the JSON shape the model is instructed to produce.
type planWire struct {
	Plan  string `json:"plan"`
	Steps []struct {
		Number      int     `json:"step"`
		Description string  `json:"description"`
		Tool        string  `json:"tool"`
		Params      *Params `json:"params"`
	} `json:"steps"`
}

// ParsePlan turns raw model output into an executable plan. It returns nil
// when the text carries no recoverable JSON object with a steps array; such
// replies are conversation, not tasks. A present-but-empty steps array still
// yields a plan, which the engine will fail.
//
// The returned plan's Request field is empty. The caller fills it with the
// user's own words, never the model's paraphrase.
func ParsePlan(raw string) *Plan {
	msg, ok := parser.Extract(raw)
	if !ok {
		return nil
	}

	var wire planWire
	if err := json.Unmarshal(msg, &wire); err != nil {
		return nil
	}
	if wire.Steps == nil {
		return nil
	}

	plan := NewPlan("")
	plan.Title = strings.TrimSpace(wire.Plan)
	for i, ws := range wire.Steps {
		s := plan.AddStep(strings.TrimSpace(ws.Description), strings.TrimSpace(ws.Tool), ws.Params)
		if ws.Number > 0 {
			s.Number = ws.Number
		} else {
			s.Number = i + 1
		}
	}
	return plan
}
