package agent

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/observability"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// Agent ties the oracle and the engine together behind the two-step surface
// the gateways use: Propose turns a request into either small talk or a
// plan, Execute runs the plan. Submit does both for surfaces without a
// confirmation gate.
type Agent struct {
	Oracle  *Oracle
	Engine  *Engine
	Journal *store.Journal
}

func New(oracle *Oracle, engine *Engine, journal *store.Journal) *Agent {
	return &Agent{Oracle: oracle, Engine: engine, Journal: journal}
}

// Reply is what a request produces: a conversational answer, or a plan.
// Exactly one of the two is set.
type Reply struct {
	Text string
	Plan *task.Plan
}

// Conversational reports whether the reply is plain text with no plan.
func (r Reply) Conversational() bool { return r.Plan == nil }

// Propose asks the oracle to plan the request. A reply that does not parse
// as a plan comes back as conversational text. The returned plan has not
// been executed; its Request carries the user's exact words, not the
// oracle's paraphrase.
func (a *Agent) Propose(ctx context.Context, chatID, request string) (Reply, error) {
	observability.SetStatus(observability.RolePlanning, request)
	defer observability.SetStatus(observability.RoleIdle, "")

	ctx = tools.WithChatID(ctx, chatID)
	raw, err := a.Oracle.PlanTask(ctx, request)
	if err != nil {
		return Reply{}, err
	}

	plan := task.ParsePlan(raw)
	if plan == nil {
		return Reply{Text: strings.TrimSpace(raw)}, nil
	}
	plan.Request = request
	return Reply{Plan: plan}, nil
}

// Execute runs a proposed plan to completion.
func (a *Agent) Execute(ctx context.Context, chatID string, plan *task.Plan) *task.Plan {
	ctx = tools.WithChatID(ctx, chatID)
	return a.Engine.Run(ctx, plan)
}

// Submit plans the request and, when it is actionable, immediately executes
// it. The exchange is recorded in the journal's transcript either way.
func (a *Agent) Submit(ctx context.Context, chatID, request string) (Reply, error) {
	a.remember(chatID, "human", request)

	reply, err := a.Propose(ctx, chatID, request)
	if err != nil {
		return Reply{}, err
	}
	if reply.Conversational() {
		a.remember(chatID, "ai", reply.Text)
		return reply, nil
	}

	reply.Plan = a.Execute(ctx, chatID, reply.Plan)
	a.remember(chatID, "ai", Report(reply.Plan))
	return reply, nil
}

func (a *Agent) remember(chatID, role, content string) {
	if a.Journal == nil {
		return
	}
	if err := a.Journal.AddMessage(chatID, role, content); err != nil {
		log.Printf("failed to journal %s message: %v", role, err)
	}
}

// Report renders an executed plan for the user: the step tally, one line per
// step with its terminal outcome, and the verification note when present.
func Report(p *task.Plan) string {
	ok := 0
	for _, s := range p.Steps {
		if s.Status == task.StatusCompleted {
			ok++
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d/%d steps succeeded\n", ok, len(p.Steps))
	for _, s := range p.Steps {
		marker := "✅"
		if s.Status != task.StatusCompleted {
			marker = "❌"
		}
		fmt.Fprintf(&b, "%s Step %d (%s): %s\n", marker, s.Number, s.Tool, s.Outcome())
	}
	if p.Note != "" {
		fmt.Fprintf(&b, "\n%s", p.Note)
	}
	return strings.TrimRight(b.String(), "\n")
}
