package agent

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

func newTestAgent(model *fakeModel, reg *tools.Registry, journal *store.Journal) *Agent {
	oracle := NewOracle(model, "sys")
	engine := NewEngine(reg, oracle)
	engine.RetryPause = time.Nanosecond
	engine.Journal = journal
	return New(oracle, engine, journal)
}

func TestAgentProposeConversational(t *testing.T) {
	model := &fakeModel{replies: []string{"Hi! I can help with files, spreadsheets and the browser."}}
	a := newTestAgent(model, tools.NewRegistry(), nil)

	reply, err := a.Propose(context.Background(), "console", "hello")
	if err != nil {
		t.Fatal(err)
	}
	if !reply.Conversational() {
		t.Fatal("a prose reply should be conversational")
	}
	if !strings.HasPrefix(reply.Text, "Hi!") {
		t.Errorf("reply text = %q", reply.Text)
	}
}

func TestAgentProposePlanKeepsUserRequest(t *testing.T) {
	model := &fakeModel{replies: []string{
		`{"plan":"create the file","steps":[{"step":1,"description":"write it","tool":"writer","params":{"path":"a.txt"}}]}`,
	}}
	a := newTestAgent(model, tools.NewRegistry(), nil)

	reply, err := a.Propose(context.Background(), "console", "please write a.txt for me")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Conversational() {
		t.Fatal("expected a plan")
	}
	if reply.Plan.Request != "please write a.txt for me" {
		t.Errorf("plan request = %q, want the user's exact words", reply.Plan.Request)
	}
	if len(reply.Plan.Steps) != 1 || reply.Plan.Steps[0].Tool != "writer" {
		t.Errorf("unexpected steps: %+v", reply.Plan.Steps)
	}
	if reply.Plan.Steps[0].Status != task.StatusPending {
		t.Error("Propose must not execute the plan")
	}
}

func TestAgentSubmitExecutesPlan(t *testing.T) {
	writer := &scriptedTool{
		name:    "writer",
		params:  []tools.ParamSpec{{Name: "path", Required: true}},
		results: []tools.Result{tools.OK("wrote a.txt")},
	}
	reg := tools.NewRegistry()
	reg.Register(writer)

	model := &fakeModel{replies: []string{
		`{"plan":"write","steps":[{"step":1,"description":"write it","tool":"writer","params":{"path":"a.txt"}}]}`,
		`{"success":true,"note":"file exists"}`,
	}}
	a := newTestAgent(model, reg, nil)

	reply, err := a.Submit(context.Background(), "console", "write a.txt")
	if err != nil {
		t.Fatal(err)
	}
	if reply.Conversational() {
		t.Fatal("expected an executed plan")
	}
	if reply.Plan.Status != task.StatusCompleted {
		t.Errorf("plan status = %s, want completed", reply.Plan.Status)
	}
	if writer.calls != 1 {
		t.Errorf("tool invoked %d times, want 1", writer.calls)
	}
	if reply.Plan.Note != "file exists" {
		t.Errorf("plan note = %q", reply.Plan.Note)
	}
}

func TestAgentSubmitJournalsTranscript(t *testing.T) {
	j, err := store.NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	model := &fakeModel{replies: []string{"Just small talk, nothing to execute."}}
	a := newTestAgent(model, tools.NewRegistry(), j)

	if _, err := a.Submit(context.Background(), "chat9", "how are you?"); err != nil {
		t.Fatal(err)
	}

	messages, err := j.RecentMessages("chat9", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(messages) != 2 {
		t.Fatalf("expected human and ai messages, got %d", len(messages))
	}
	if messages[0].Role != "human" || messages[0].Content != "how are you?" {
		t.Errorf("unexpected first message: %+v", messages[0])
	}
	if messages[1].Role != "ai" {
		t.Errorf("unexpected second message: %+v", messages[1])
	}
}

func TestReport(t *testing.T) {
	plan := task.NewPlan("make a report")
	plan.AddStep("write", "filesystem", nil).Complete("wrote report.txt")
	plan.AddStep("chart", "chart", nil).Fail("no numeric values")
	plan.Finish()
	plan.Note = "half done"

	r := Report(plan)
	for _, want := range []string{
		"1/2 steps succeeded",
		"✅ Step 1 (filesystem): wrote report.txt",
		"❌ Step 2 (chart): no numeric values",
		"half done",
	} {
		if !strings.Contains(r, want) {
			t.Errorf("report missing %q:\n%s", want, r)
		}
	}
}

type recordingNotifier struct {
	chats []string
	texts []string
}

func (r *recordingNotifier) Send(chatID, text string) error {
	r.chats = append(r.chats, chatID)
	r.texts = append(r.texts, text)
	return nil
}

func TestSchedulerRunsDueJobs(t *testing.T) {
	j, err := store.NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()

	if err := j.AddJob("chat5", "check disk space", 3600); err != nil {
		t.Fatal(err)
	}

	model := &fakeModel{replies: []string{"All good, plenty of space."}}
	a := newTestAgent(model, tools.NewRegistry(), j)

	notify := &recordingNotifier{}
	s := NewScheduler(a, j, notify)
	s.pollAndRun(context.Background())

	if len(notify.texts) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(notify.texts))
	}
	if notify.chats[0] != "chat5" || !strings.Contains(notify.texts[0], "plenty of space") {
		t.Errorf("unexpected notification: %q to %q", notify.texts[0], notify.chats[0])
	}

	due, err := j.DueJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("job should be marked as run, still due: %d", len(due))
	}
}
