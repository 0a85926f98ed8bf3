package store

import (
	"path/filepath"
	"testing"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := NewJournal(filepath.Join(t.TempDir(), "journal.db"))
	if err != nil {
		t.Fatalf("NewJournal failed: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalMessages(t *testing.T) {
	j := openTestJournal(t)

	for _, m := range []struct{ role, content string }{
		{"human", "first"},
		{"ai", "second"},
		{"human", "third"},
	} {
		if err := j.AddMessage("chat1", m.role, m.content); err != nil {
			t.Fatalf("AddMessage failed: %v", err)
		}
	}
	if err := j.AddMessage("chat2", "human", "other chat"); err != nil {
		t.Fatal(err)
	}

	messages, err := j.RecentMessages("chat1", 10)
	if err != nil {
		t.Fatalf("RecentMessages failed: %v", err)
	}
	if len(messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(messages))
	}
	if messages[0].Content != "first" || messages[2].Content != "third" {
		t.Errorf("messages out of order: %+v", messages)
	}

	// Limit keeps the newest entries.
	limited, err := j.RecentMessages("chat1", 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 2 || limited[0].Content != "second" {
		t.Errorf("limited window wrong: %+v", limited)
	}

	if err := j.ClearMessages("chat1"); err != nil {
		t.Fatal(err)
	}
	cleared, err := j.RecentMessages("chat1", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(cleared) != 0 {
		t.Errorf("expected no messages after clear, got %d", len(cleared))
	}
}

func TestJournalPlans(t *testing.T) {
	j := openTestJournal(t)

	p := task.NewPlan("make a report")
	p.Title = "report plan"
	p.AddStep("write", "filesystem", nil).Complete("ok")
	p.AddStep("chart", "chart", nil).Fail("no data")
	p.Finish()
	p.Note = "one of two steps done"

	if err := j.RecordPlan("chat1", p); err != nil {
		t.Fatalf("RecordPlan failed: %v", err)
	}

	records, err := j.RecentPlans("chat1", 5)
	if err != nil {
		t.Fatalf("RecentPlans failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	r := records[0]
	if r.ID != p.ID || r.Request != "make a report" || r.Status != string(task.StatusCompleted) {
		t.Errorf("unexpected record: %+v", r)
	}
	if r.StepsTotal != 2 || r.StepsCompleted != 1 {
		t.Errorf("step counts wrong: %+v", r)
	}
}

func TestJournalJobs(t *testing.T) {
	j := openTestJournal(t)

	if err := j.AddJob("chat1", "check the weather", 3600); err != nil {
		t.Fatalf("AddJob failed: %v", err)
	}

	due, err := j.DueJobs()
	if err != nil {
		t.Fatalf("DueJobs failed: %v", err)
	}
	if len(due) != 1 {
		t.Fatalf("a fresh job should be due immediately, got %d", len(due))
	}
	if due[0].Description != "check the weather" || due[0].IntervalSeconds != 3600 {
		t.Errorf("unexpected job: %+v", due[0])
	}

	if err := j.MarkJobRun(due[0].ID); err != nil {
		t.Fatalf("MarkJobRun failed: %v", err)
	}
	due, err = j.DueJobs()
	if err != nil {
		t.Fatal(err)
	}
	if len(due) != 0 {
		t.Errorf("job should not be due right after running, got %d", len(due))
	}

	if err := j.ClearJobs("chat1"); err != nil {
		t.Fatalf("ClearJobs failed: %v", err)
	}
}
