package agent

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/observability"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/parser"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// DefaultRetryPause is the fixed wait between repair attempts. Failures here
// are almost always bad parameters, not load, so there is nothing to back
// off from.
const DefaultRetryPause = 500 * time.Millisecond

// Engine runs plans step by step, strictly in order, with bounded
// self-healing retries. Run never panics and never returns an error: every
// failure ends up recorded on the step it belongs to.
type Engine struct {
	Registry *tools.Registry
	Oracle   *Oracle

	// Journal and Logger are optional audit sinks; Progress is an optional
	// line-at-a-time callback for interactive surfaces.
	Journal    *store.Journal
	Logger     *observability.Logger
	Progress   func(line string)
	RetryPause time.Duration
}

func NewEngine(registry *tools.Registry, oracle *Oracle) *Engine {
	return &Engine{Registry: registry, Oracle: oracle}
}

// Run executes the plan in place and returns it terminal: every step ends
// completed or failed, the plan carries the aggregate status and the
// verification note.
func (e *Engine) Run(ctx context.Context, plan *task.Plan) *task.Plan {
	chatID := tools.ChatID(ctx)

	plan.Status = task.StatusInProgress
	observability.SetStatus(observability.RoleExecuting, plan.Request)
	defer observability.SetStatus(observability.RoleIdle, "")

	e.Logger.LogPlan(chatID, plan.ID, plan.Request, len(plan.Steps))
	e.progress("🚀 Executing: %s (%d steps)", plan.Request, len(plan.Steps))

	results := make([]string, 0, len(plan.Steps))
	for _, step := range plan.Steps {
		e.runStep(ctx, chatID, plan.ID, step)
		results = append(results, fmt.Sprintf("Step %d (%s): %s", step.Number, step.Tool, step.Outcome()))
		e.Logger.LogStep(chatID, plan.ID, step.Number, step.Tool, string(step.Status), step.Outcome())
	}

	plan.Finish()

	observability.SetStatus(observability.RoleVerifying, plan.Request)
	e.progress("🔍 Verifying…")
	verdict := judge(ctx, e.Oracle, plan.Request, results)
	plan.Note = verdict.Note
	e.Logger.LogVerify(chatID, plan.ID, verdict.Success, verdict.Note)

	if e.Journal != nil {
		if err := e.Journal.RecordPlan(chatID, plan); err != nil {
			log.Printf("failed to record plan %s: %v", plan.ID, err)
		}
	}
	return plan
}

// runStep drives one step through the attempt loop: invoke, and on failure
// either spend a retry on a parameter repair or record the terminal error.
func (e *Engine) runStep(ctx context.Context, chatID, planID string, step *task.Step) {
	e.progress("⚡ Step %d: %s", step.Number, step.Description)
	e.progress("   %s(%s)", step.Tool, preview(step.Params.String(), 80))

	for {
		step.Start()

		e.Logger.LogToolCall(chatID, planID, step.Tool, step.Params.String())
		res := e.Registry.Execute(ctx, step.Tool, step.Params)
		e.Logger.LogToolResult(chatID, planID, step.Tool, res.Success, res.Message)

		if res.Success {
			step.Complete(res.Message)
			e.progress("   ✅ %s", res.Message)
			if res.Data != nil {
				e.progress("   %s", preview(fmt.Sprint(res.Data), 150))
			}
			return
		}

		if !step.Retry() {
			step.Fail(res.Message)
			e.progress("   ❌ %s", res.Message)
			return
		}

		e.Logger.LogRetry(chatID, planID, step.Number, step.RetryCount, res.Message)
		e.progress("   🔁 Retry %d: %s", step.RetryCount, res.Message)
		e.repair(ctx, step, res.Message)
		e.pause()
	}
}

// repair asks the oracle for corrected parameters. A reply carrying a
// "params" object replaces the step's parameters wholesale; anything else,
// including an unreachable oracle, leaves them untouched for the next
// attempt.
func (e *Engine) repair(ctx context.Context, step *task.Step, failure string) {
	reply, err := e.Oracle.FixParams(ctx, step.Tool, failure, step.Params)
	if err != nil {
		return
	}

	var fix struct {
		Params *task.Params `json:"params"`
	}
	if parser.ExtractInto(reply, &fix) && fix.Params != nil {
		step.Params = fix.Params
		e.progress("   🔧 Fixed params: %s", preview(step.Params.String(), 80))
	}
}

func (e *Engine) pause() {
	pause := e.RetryPause
	if pause <= 0 {
		pause = DefaultRetryPause
	}
	time.Sleep(pause)
}

func (e *Engine) progress(format string, args ...any) {
	if e.Progress != nil {
		e.Progress(fmt.Sprintf(format, args...))
	}
}

func preview(s string, n int) string {
	if len(s) > n {
		return s[:n] + "…"
	}
	return s
}
