package gateway

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/agent"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/observability"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/store"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// ConsoleChatID marks transcript entries and jobs created from the REPL.
const ConsoleChatID = "console"

// ConsoleGateway is the interactive surface: a REPL with slash commands and
// a confirmation gate in front of every proposed plan. Conversational
// replies print directly; plans are previewed step by step and only run
// after the user agrees.
type ConsoleGateway struct {
	Agent    *agent.Agent
	Registry *tools.Registry
	Journal  *store.Journal

	// In and Out default to stdin and stdout.
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
	stopped atomic.Bool
}

func NewConsoleGateway(a *agent.Agent, registry *tools.Registry, journal *store.Journal) *ConsoleGateway {
	return &ConsoleGateway{Agent: a, Registry: registry, Journal: journal}
}

func (c *ConsoleGateway) Start() error {
	c.scanner = bufio.NewScanner(c.reader())
	c.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := c.writer()

	fmt.Fprintln(out, "Type a task, or /help for commands.")

	for !c.stopped.Load() {
		fmt.Fprint(out, "\n🤖 ATLAS> ")
		if !c.scanner.Scan() {
			break
		}
		line := strings.TrimSpace(c.scanner.Text())
		if line == "" {
			continue
		}

		switch strings.ToLower(line) {
		case "/exit", "/quit", "/q", "exit", "quit":
			fmt.Fprintln(out, "👋 Goodbye!")
			return nil
		case "/help":
			c.printHelp()
		case "/tools":
			c.printTools()
		case "/status":
			c.printStatus()
		case "/history":
			c.printHistory()
		case "/clear":
			c.Agent.Oracle.Reset()
			fmt.Fprintln(out, "Conversation cleared.")
		default:
			c.process(line)
		}
	}
	return c.scanner.Err()
}

// RunOnce processes a single task and returns. The confirmation gate still
// applies; the answer is read from the gateway's input.
func (c *ConsoleGateway) RunOnce(line string) {
	c.scanner = bufio.NewScanner(c.reader())
	c.scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	c.process(line)
}

// Send lets the scheduler push output into the terminal.
func (c *ConsoleGateway) Send(_ string, text string) error {
	fmt.Fprintf(c.writer(), "\n%s\n", text)
	return nil
}

func (c *ConsoleGateway) Stop() error {
	c.stopped.Store(true)
	return nil
}

func (c *ConsoleGateway) process(line string) {
	out := c.writer()
	ctx := context.Background()

	fmt.Fprintln(out, "📋 Planning…")
	reply, err := c.Agent.Propose(ctx, ConsoleChatID, line)
	if err != nil {
		fmt.Fprintf(out, "⚠️  %v\n", err)
		fmt.Fprintln(out, "Make sure Ollama is running:  ollama serve")
		return
	}

	if reply.Conversational() {
		fmt.Fprintf(out, "\n💬 %s\n", reply.Text)
		return
	}

	plan := reply.Plan
	fmt.Fprintf(out, "\n📋 %s\n", plan.Request)
	for _, s := range plan.Steps {
		fmt.Fprintf(out, "  Step %d: %s (%s)\n", s.Number, s.Description, s.Tool)
	}

	if !c.confirm() {
		fmt.Fprintln(out, "Cancelled.")
		return
	}

	done := c.Agent.Execute(ctx, ConsoleChatID, plan)
	fmt.Fprintln(out)
	fmt.Fprintln(out, agent.Report(done))
}

func (c *ConsoleGateway) confirm() bool {
	fmt.Fprint(c.writer(), "Execute? [Y/n]: ")
	if !c.scanner.Scan() {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(c.scanner.Text())) {
	case "n", "no", "nie":
		return false
	}
	return true
}

func (c *ConsoleGateway) printHelp() {
	fmt.Fprint(c.writer(), `
EXAMPLES
  • Create a file test.txt on the desktop with "hello world"
  • Build an Excel budget spreadsheet with a pie chart
  • Take a screenshot
  • Open google.com
  • List files on the desktop
  • Create a sales bar chart
  • Get system info

COMMANDS
  /help     - this help
  /tools    - list available tools
  /status   - agent status
  /history  - past tasks
  /clear    - clear conversation memory
  /exit     - quit
`)
}

func (c *ConsoleGateway) printTools() {
	out := c.writer()
	fmt.Fprintln(out, "\n🧰 Available tools")
	for _, t := range c.Registry.List() {
		fmt.Fprintf(out, "  %-14s %s\n", t.Name(), t.Description())
	}
}

func (c *ConsoleGateway) printStatus() {
	out := c.writer()
	role, activeTask, lastHB := observability.GetStatus()

	done := 0
	if c.Journal != nil {
		if records, err := c.Journal.RecentPlans(ConsoleChatID, 100); err == nil {
			done = len(records)
		}
	}

	fmt.Fprintf(out, "\nRole        : %s\n", role)
	if activeTask != "" {
		fmt.Fprintf(out, "Active task : %s\n", activeTask)
	}
	fmt.Fprintf(out, "Tools       : %d\n", len(c.Registry.Names()))
	fmt.Fprintf(out, "Memory      : %d buffered messages\n", c.Agent.Oracle.HistoryLen())
	fmt.Fprintf(out, "Tasks done  : %d\n", done)
	fmt.Fprintf(out, "Last beat   : %s\n", lastHB.Format("15:04:05"))
}

func (c *ConsoleGateway) printHistory() {
	out := c.writer()
	if c.Journal == nil {
		fmt.Fprintln(out, "No tasks yet.")
		return
	}
	records, err := c.Journal.RecentPlans(ConsoleChatID, 10)
	if err != nil || len(records) == 0 {
		fmt.Fprintln(out, "No tasks yet.")
		return
	}

	fmt.Fprintln(out, "\n📜 Task history")
	for _, r := range records {
		req := r.Request
		if len(req) > 50 {
			req = req[:50] + "…"
		}
		fmt.Fprintf(out, "  [%s] %s - %s (%d/%d steps)\n",
			shortID(r.ID), req, r.Status, r.StepsCompleted, r.StepsTotal)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (c *ConsoleGateway) reader() io.Reader {
	if c.In != nil {
		return c.In
	}
	return os.Stdin
}

func (c *ConsoleGateway) writer() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}
