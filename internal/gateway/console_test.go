package gateway

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/agent"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

type fakeModel struct {
	replies []string
	calls   int
}

func (f *fakeModel) GenerateContent(_ context.Context, _ []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	idx := f.calls
	f.calls++
	if idx >= len(f.replies) {
		idx = len(f.replies) - 1
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: f.replies[idx]}}}, nil
}

func (f *fakeModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := f.GenerateContent(ctx, nil, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

type countingTool struct {
	name  string
	calls int
}

func (c *countingTool) Name() string              { return c.name }
func (c *countingTool) Description() string       { return "counting tool for tests" }
func (c *countingTool) Params() []tools.ParamSpec { return []tools.ParamSpec{{Name: "path"}} }

func (c *countingTool) Invoke(_ context.Context, _ map[string]any) tools.Result {
	c.calls++
	return tools.OK("done")
}

func newConsoleFixture(model *fakeModel, tool *countingTool) (*ConsoleGateway, *bytes.Buffer) {
	reg := tools.NewRegistry()
	if tool != nil {
		reg.Register(tool)
	}

	oracle := agent.NewOracle(model, "sys")
	engine := agent.NewEngine(reg, oracle)
	engine.RetryPause = time.Nanosecond
	a := agent.New(oracle, engine, nil)

	c := NewConsoleGateway(a, reg, nil)
	var out bytes.Buffer
	c.Out = &out
	return c, &out
}

func TestConsoleCommands(t *testing.T) {
	tool := &countingTool{name: "writer"}
	c, out := newConsoleFixture(&fakeModel{replies: []string{"hi"}}, tool)
	c.In = strings.NewReader("/tools\n/help\n/exit\n")

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	text := out.String()
	for _, want := range []string{"writer", "COMMANDS", "/history", "Goodbye"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q", want)
		}
	}
	if tool.calls != 0 {
		t.Errorf("commands must not invoke tools, got %d calls", tool.calls)
	}
}

func TestConsoleConversationalReply(t *testing.T) {
	c, out := newConsoleFixture(&fakeModel{replies: []string{"Hello! Nothing to execute."}}, nil)
	c.In = strings.NewReader("hey there\n/exit\n")

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "💬 Hello! Nothing to execute.") {
		t.Errorf("conversational reply missing:\n%s", out.String())
	}
}

func TestConsoleConfirmGateDeclined(t *testing.T) {
	tool := &countingTool{name: "writer"}
	model := &fakeModel{replies: []string{
		`{"plan":"write","steps":[{"step":1,"description":"write it","tool":"writer","params":{"path":"a.txt"}}]}`,
	}}
	c, out := newConsoleFixture(model, tool)
	c.In = strings.NewReader("write a file\nn\n/exit\n")

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	if !strings.Contains(out.String(), "Cancelled.") {
		t.Errorf("expected cancellation notice:\n%s", out.String())
	}
	if tool.calls != 0 {
		t.Errorf("declined plan must not run, tool called %d times", tool.calls)
	}
}

func TestConsoleConfirmGateAccepted(t *testing.T) {
	tool := &countingTool{name: "writer"}
	model := &fakeModel{replies: []string{
		`{"plan":"write","steps":[{"step":1,"description":"write it","tool":"writer","params":{"path":"a.txt"}}]}`,
		`{"success":true,"note":"all good"}`,
	}}
	c, out := newConsoleFixture(model, tool)
	c.In = strings.NewReader("write a file\ny\n/exit\n")

	if err := c.Start(); err != nil {
		t.Fatal(err)
	}

	if tool.calls != 1 {
		t.Fatalf("accepted plan should run once, tool called %d times", tool.calls)
	}
	text := out.String()
	for _, want := range []string{"Step 1: write it (writer)", "1/1 steps succeeded", "all good"} {
		if !strings.Contains(text, want) {
			t.Errorf("output missing %q:\n%s", want, text)
		}
	}
}

func TestClip(t *testing.T) {
	if got := clip("short", 10); got != "short" {
		t.Errorf("clip short = %q", got)
	}
	long := strings.Repeat("a", 30)
	got := clip(long, 10)
	if len(got) != 10 || !strings.HasSuffix(got, "...") {
		t.Errorf("clip long = %q", got)
	}
}
