package agent

import (
	"fmt"
	"strings"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// BuildSystemPrompt renders the fixed oracle instruction from what is
// actually registered: identity and working rules, the resolved environment
// paths, the tool catalogue with each tool's declared parameters, the reply
// formats, and the safety rules. Built from the registry so the instruction
// can never drift from the tools the agent really has.
func BuildSystemPrompt(ws *tools.Workspace, reg *tools.Registry) string {
	var b strings.Builder

	b.WriteString(`You are ATLAS, an AI agent that automates tasks on the local desktop.
You receive a user request, break it into concrete steps, pick one tool per
step, and later review the outcome.

CORE PRINCIPLES
1. Plan first, act second. Produce a short plan with the minimum steps needed.
2. Use only the tools listed below. Never invent tool names.
3. Use the environment paths below. Never guess paths.
4. Be concise. Plans and verification notes are brief and actionable.
5. Self-heal. When a step fails, propose corrected parameters.

ENVIRONMENT
`)

	for _, alias := range []string{"desktop", "documents", "downloads", "home"} {
		if path, err := ws.Resolve(alias); err == nil {
			fmt.Fprintf(&b, "  %-10s %s\n", alias, path)
		}
	}
	fmt.Fprintf(&b, "  %-10s %s\n", "workspace", ws.Root)

	b.WriteString("\nAVAILABLE TOOLS\n")
	for _, t := range reg.List() {
		fmt.Fprintf(&b, "  %s(%s)\n      %s\n", t.Name(), signature(t.Params()), t.Description())
	}

	b.WriteString(`
RESPONSE FORMAT
When the user asks you to perform a task, respond with ONLY a JSON object,
no commentary and no markdown fences:

{"plan":"<short description>","steps":[{"step":1,"description":"<what>","tool":"<tool_name>","params":{"<key>":"<value>"}}]}

When the user asks a question that needs no tools, reply in plain text,
three sentences at most.

When asked to verify results, respond with:
{"success":true/false,"note":"<brief assessment>"}

SAFETY
Never run destructive system commands (format, mass delete, shutdown).
When unsure, say so instead of guessing.
`)

	return b.String()
}

// signature renders a tool's parameters in call order, optional ones marked
// with a trailing question mark.
func signature(params []tools.ParamSpec) string {
	names := make([]string, len(params))
	for i, p := range params {
		names[i] = p.Name
		if !p.Required {
			names[i] += "?"
		}
	}
	return strings.Join(names, ", ")
}
