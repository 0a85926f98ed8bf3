package agent

import (
	"context"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/parser"
)

// Verdict is the oracle's judgement of a finished plan. Success is nil when
// the oracle's reply carried no usable judgement, in which case Note holds
// whatever text came back.
type Verdict struct {
	Success *bool  `json:"success"`
	Note    string `json:"note"`
}

const rawNoteLimit = 200

// judge asks the oracle whether the executed steps fulfilled the request.
// Advisory only: it never changes what the steps already recorded. An
// unparseable reply degrades to the raw truncated text as the note, and an
// unreachable oracle to a one-line explanation.
func judge(ctx context.Context, oracle *Oracle, request string, results []string) Verdict {
	raw, err := oracle.Verify(ctx, request, results)
	if err != nil {
		return Verdict{Note: "verification unavailable: " + err.Error()}
	}

	var v Verdict
	if parser.ExtractInto(raw, &v) {
		return v
	}

	if len(raw) > rawNoteLimit {
		raw = raw[:rawNoteLimit]
	}
	return Verdict{Note: raw}
}
