package agent

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestJudgeExtractsVerdict(t *testing.T) {
	model := &fakeModel{replies: []string{`{"success":true,"note":"both files are in place"}`}}
	o := NewOracle(model, "sys")

	v := judge(context.Background(), o, "write files", []string{"Step 1 (filesystem): ok"})
	if v.Success == nil || !*v.Success {
		t.Errorf("Success = %v, want true", v.Success)
	}
	if v.Note != "both files are in place" {
		t.Errorf("Note = %q", v.Note)
	}
}

func TestJudgeExtractsEmbeddedVerdict(t *testing.T) {
	model := &fakeModel{replies: []string{"Sure! Here is my judgement: {\"success\": false, \"note\": \"chart file missing\"} Hope that helps."}}
	o := NewOracle(model, "sys")

	v := judge(context.Background(), o, "make chart", nil)
	if v.Success == nil || *v.Success {
		t.Errorf("Success = %v, want false", v.Success)
	}
	if v.Note != "chart file missing" {
		t.Errorf("Note = %q", v.Note)
	}
}

func TestJudgeDegradesToRawText(t *testing.T) {
	model := &fakeModel{replies: []string{"Everything looks fine to me."}}
	o := NewOracle(model, "sys")

	v := judge(context.Background(), o, "task", nil)
	if v.Success != nil {
		t.Errorf("Success = %v, want unspecified", *v.Success)
	}
	if v.Note != "Everything looks fine to me." {
		t.Errorf("Note = %q, want the raw reply", v.Note)
	}
}

func TestJudgeTruncatesLongRawText(t *testing.T) {
	model := &fakeModel{replies: []string{strings.Repeat("fine ", 100)}}
	o := NewOracle(model, "sys")

	v := judge(context.Background(), o, "task", nil)
	if len(v.Note) != rawNoteLimit {
		t.Errorf("Note length = %d, want %d", len(v.Note), rawNoteLimit)
	}
}

func TestJudgeOracleDown(t *testing.T) {
	model := &fakeModel{err: errors.New("connection refused")}
	o := NewOracle(model, "sys")

	v := judge(context.Background(), o, "task", nil)
	if v.Success != nil {
		t.Error("Success should stay unspecified when the oracle is down")
	}
	if !strings.HasPrefix(v.Note, "verification unavailable") {
		t.Errorf("Note = %q", v.Note)
	}
}
