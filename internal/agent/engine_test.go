package agent

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// scriptedTool returns its canned results in order, repeating the last one,
// and records how it was called.
type scriptedTool struct {
	name    string
	params  []tools.ParamSpec
	results []tools.Result
	calls   int
}

func (s *scriptedTool) Name() string              { return s.name }
func (s *scriptedTool) Description() string       { return "scripted tool for tests" }
func (s *scriptedTool) Params() []tools.ParamSpec { return s.params }

func (s *scriptedTool) Invoke(_ context.Context, _ map[string]any) tools.Result {
	idx := s.calls
	s.calls++
	if idx >= len(s.results) {
		idx = len(s.results) - 1
	}
	return s.results[idx]
}

func newTestEngine(model *fakeModel, reg *tools.Registry) *Engine {
	e := NewEngine(reg, NewOracle(model, "sys"))
	e.RetryPause = time.Nanosecond
	return e
}

func TestEngineRunAllStepsSucceed(t *testing.T) {
	writer := &scriptedTool{
		name:    "writer",
		params:  []tools.ParamSpec{{Name: "path", Required: true}},
		results: []tools.Result{tools.OK("wrote it")},
	}
	reg := tools.NewRegistry()
	reg.Register(writer)

	model := &fakeModel{replies: []string{`{"success":true,"note":"looks done"}`}}
	e := newTestEngine(model, reg)

	var lines []string
	e.Progress = func(line string) { lines = append(lines, line) }

	plan := task.NewPlan("write two files")
	plan.AddStep("first file", "writer", task.ParamsFrom("path", "a.txt"))
	plan.AddStep("second file", "writer", task.ParamsFrom("path", "b.txt"))

	got := e.Run(context.Background(), plan)

	if got.Status != task.StatusCompleted {
		t.Fatalf("plan status = %s, want completed", got.Status)
	}
	for _, s := range got.Steps {
		if s.Status != task.StatusCompleted {
			t.Fatalf("step %d status = %s, want completed", s.Number, s.Status)
		}
		if s.RetryCount != 0 {
			t.Errorf("step %d retry count = %d, want 0", s.Number, s.RetryCount)
		}
		if s.Result != "wrote it" {
			t.Errorf("step %d result = %q", s.Number, s.Result)
		}
	}
	if writer.calls != 2 {
		t.Errorf("tool invoked %d times, want 2", writer.calls)
	}
	if got.Note != "looks done" {
		t.Errorf("plan note = %q", got.Note)
	}
	if len(lines) == 0 || !strings.Contains(lines[0], "Executing") {
		t.Errorf("progress lines missing: %v", lines)
	}
}

func TestEngineSelfHealingRetry(t *testing.T) {
	a := &scriptedTool{
		name:    "A",
		params:  []tools.ParamSpec{{Name: "x", Required: true}},
		results: []tools.Result{tools.OK("a done")},
	}
	b := &scriptedTool{
		name:    "B",
		params:  []tools.ParamSpec{{Name: "y", Required: true}},
		results: []tools.Result{tools.Fail("bad value"), tools.Fail("still bad"), tools.OK("b done")},
	}
	reg := tools.NewRegistry()
	reg.Register(a)
	reg.Register(b)

	model := &fakeModel{replies: []string{
		`{"params":{"y":2}}`,
		`{"params":{"y":3}}`,
		`{"success":true,"note":"done"}`,
	}}
	e := newTestEngine(model, reg)

	plan := task.NewPlan("do a then b")
	plan.AddStep("run a", "A", task.ParamsFrom("x", 1))
	plan.AddStep("run b", "B", task.ParamsFrom("y", 1, "stale", true))

	got := e.Run(context.Background(), plan)

	stepA, stepB := got.Steps[0], got.Steps[1]
	if stepA.Status != task.StatusCompleted || stepA.RetryCount != 0 {
		t.Errorf("step A: status=%s retries=%d, want completed with 0", stepA.Status, stepA.RetryCount)
	}
	if a.calls != 1 {
		t.Errorf("tool A invoked %d times, want 1", a.calls)
	}
	if stepB.Status != task.StatusCompleted {
		t.Fatalf("step B status = %s, want completed", stepB.Status)
	}
	if stepB.RetryCount != 2 {
		t.Errorf("step B retry count = %d, want 2", stepB.RetryCount)
	}
	if b.calls != 3 {
		t.Errorf("tool B invoked %d times, want 3", b.calls)
	}
	if got.Status != task.StatusCompleted {
		t.Errorf("plan status = %s, want completed", got.Status)
	}

	// The fix replaces params wholesale.
	if v, ok := stepB.Params.Get("y"); !ok || v != float64(3) {
		t.Errorf("step B param y = %v, want 3 from the second fix", v)
	}
	if _, ok := stepB.Params.Get("stale"); ok {
		t.Error("old params should have been replaced, not merged")
	}

	// The verify digest lists both steps in order.
	verifyCall := model.calls[2]
	prompt := messageText(verifyCall.messages[len(verifyCall.messages)-1])
	iA := strings.Index(prompt, "Step 1 (A): a done")
	iB := strings.Index(prompt, "Step 2 (B): b done")
	if iA < 0 || iB < 0 || iA > iB {
		t.Errorf("verify digest wrong: %s", prompt)
	}
}

func TestEngineExhaustsRetriesThenFails(t *testing.T) {
	broken := &scriptedTool{name: "broken", results: []tools.Result{tools.Fail("no disk")}}
	reg := tools.NewRegistry()
	reg.Register(broken)

	model := &fakeModel{replies: []string{
		"no fix available",
		"still no fix",
		`{"success":false,"note":"nothing worked"}`,
	}}
	e := newTestEngine(model, reg)

	plan := task.NewPlan("hopeless")
	plan.AddStep("try anyway", "broken", nil)

	got := e.Run(context.Background(), plan)

	step := got.Steps[0]
	if step.Status != task.StatusFailed {
		t.Fatalf("step status = %s, want failed", step.Status)
	}
	if step.RetryCount != 2 {
		t.Errorf("retry count = %d, want 2", step.RetryCount)
	}
	if broken.calls != 3 {
		t.Errorf("tool invoked %d times, want max retries + 1 = 3", broken.calls)
	}
	if step.Error != "no disk" {
		t.Errorf("step error = %q", step.Error)
	}
	if step.Result != "" {
		t.Errorf("failed step should carry no result, got %q", step.Result)
	}
	if got.Status != task.StatusFailed {
		t.Errorf("plan status = %s, want failed", got.Status)
	}
	if got.Note != "nothing worked" {
		t.Errorf("plan note = %q", got.Note)
	}
}

func TestEngineZeroStepPlanFails(t *testing.T) {
	model := &fakeModel{replies: []string{`{"success":false,"note":"nothing to do"}`}}
	e := newTestEngine(model, tools.NewRegistry())

	got := e.Run(context.Background(), task.NewPlan("empty request"))
	if got.Status != task.StatusFailed {
		t.Fatalf("zero-step plan status = %s, want failed", got.Status)
	}
	if got.Note != "nothing to do" {
		t.Errorf("plan note = %q", got.Note)
	}
}

func TestEngineUnknownTool(t *testing.T) {
	model := &fakeModel{replies: []string{"cannot fix that"}}
	e := newTestEngine(model, tools.NewRegistry())

	plan := task.NewPlan("use a ghost")
	plan.AddStep("call it", "ghost", nil)

	got := e.Run(context.Background(), plan)

	step := got.Steps[0]
	if step.Status != task.StatusFailed {
		t.Fatalf("step status = %s, want failed", step.Status)
	}
	if !strings.Contains(step.Error, "unknown tool: ghost") {
		t.Errorf("step error should name the unknown tool, got %q", step.Error)
	}
	if got.Status != task.StatusFailed {
		t.Errorf("plan status = %s, want failed", got.Status)
	}
}

func TestEngineOracleDownDegradesGracefully(t *testing.T) {
	flaky := &scriptedTool{
		name:    "flaky",
		params:  []tools.ParamSpec{{Name: "path", Required: true}},
		results: []tools.Result{tools.Fail("bad args")},
	}
	reg := tools.NewRegistry()
	reg.Register(flaky)

	model := &fakeModel{err: errors.New("connection refused")}
	e := newTestEngine(model, reg)

	plan := task.NewPlan("try with no oracle")
	plan.AddStep("attempt", "flaky", task.ParamsFrom("path", "keep.txt"))

	got := e.Run(context.Background(), plan)

	step := got.Steps[0]
	if step.Status != task.StatusFailed {
		t.Fatalf("step status = %s, want failed", step.Status)
	}
	if flaky.calls != 3 {
		t.Errorf("tool invoked %d times, want 3", flaky.calls)
	}
	if v, _ := step.Params.Get("path"); v != "keep.txt" {
		t.Errorf("params should be untouched when the fix fails, got %v", v)
	}
	if !strings.HasPrefix(got.Note, "verification unavailable") {
		t.Errorf("plan note = %q", got.Note)
	}
}

func TestEngineRecordsPlanInJournal(t *testing.T) {
	j, err := store.NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	reader := &scriptedTool{name: "reader", results: []tools.Result{tools.OK("read it")}}
	reg := tools.NewRegistry()
	reg.Register(reader)

	model := &fakeModel{replies: []string{`{"success":true,"note":"fine"}`}}
	e := newTestEngine(model, reg)
	e.Journal = j

	plan := task.NewPlan("read a file")
	plan.AddStep("read", "reader", nil)
	e.Run(tools.WithChatID(context.Background(), "chat7"), plan)

	records, err := j.RecentPlans("chat7", 5)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 plan record, got %d", len(records))
	}
	if records[0].Status != string(task.StatusCompleted) || records[0].StepsCompleted != 1 {
		t.Errorf("unexpected record: %+v", records[0])
	}
}
