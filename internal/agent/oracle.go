package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/observability"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/tools"
)

// ErrUnreachable wraps any transport failure talking to the model backend.
// Callers treat it as an ordinary failure value: planning degrades to an
// apology, parameter repair leaves params unchanged, verification degrades
// its note. Nothing in the agent escalates it into a crash.
var ErrUnreachable = errors.New("oracle unreachable")

// Mode selects the generation bias for one exchange. Plan, fix and verify
// expect JSON back and run cold with stop sequences that cut off the
// explanations small models love to append; chat runs warmer and longer.
type Mode string

const (
	ModePlan   Mode = "plan"
	ModeChat   Mode = "chat"
	ModeFix    Mode = "fix"
	ModeVerify Mode = "verify"
)

func (m Mode) jsonBiased() bool { return m != ModeChat }

var jsonStopWords = []string{"\n\n\n", "Explanation:", "Note:", "```\n\n"}

func (m Mode) callOptions() []llms.CallOption {
	if m.jsonBiased() {
		return []llms.CallOption{
			llms.WithTemperature(0.1),
			llms.WithTopP(0.85),
			llms.WithRepetitionPenalty(1.2),
			llms.WithMaxTokens(768),
			llms.WithStopWords(jsonStopWords),
		}
	}
	return []llms.CallOption{
		llms.WithTemperature(0.5),
		llms.WithTopP(0.85),
		llms.WithRepetitionPenalty(1.2),
		llms.WithMaxTokens(1024),
	}
}

const defaultMaxHistory = 12

// Oracle is the single conversation the agent holds with its model: planning,
// parameter repair and verification all share one bounded history so the
// model keeps context across the stages of a task. The fixed system
// instruction is prepended on every call and never evicted.
type Oracle struct {
	Model        llms.Model
	SystemPrompt string
	MaxHistory   int
	Logger       *observability.Logger

	mu      sync.Mutex
	history []llms.MessageContent
}

func NewOracle(model llms.Model, systemPrompt string) *Oracle {
	return &Oracle{
		Model:        model,
		SystemPrompt: systemPrompt,
		MaxHistory:   defaultMaxHistory,
	}
}

// Chat sends one message and returns the model's reply. The exchange is
// appended to the bounded history, oldest messages evicted first once the
// cap is exceeded. On transport failure the user message stays buffered and
// the returned error wraps ErrUnreachable.
func (o *Oracle) Chat(ctx context.Context, message string, mode Mode) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.push(schema.ChatMessageTypeHuman, message)

	messages := make([]llms.MessageContent, 0, len(o.history)+1)
	if o.SystemPrompt != "" {
		messages = append(messages, textMessage(schema.ChatMessageTypeSystem, o.SystemPrompt))
	}
	messages = append(messages, o.history...)

	resp, err := o.Model.GenerateContent(ctx, messages, mode.callOptions()...)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: backend returned no choices", ErrUnreachable)
	}

	reply := resp.Choices[0].Content
	o.push(schema.ChatMessageTypeAI, reply)
	o.Logger.LogLLM(tools.ChatID(ctx), string(mode), message, reply)
	return reply, nil
}

// Reset drops the conversation history. The system instruction is untouched.
func (o *Oracle) Reset() {
	o.mu.Lock()
	o.history = nil
	o.mu.Unlock()
}

// HistoryLen reports how many messages are currently buffered.
func (o *Oracle) HistoryLen() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.history)
}

func (o *Oracle) push(role schema.ChatMessageType, content string) {
	o.history = append(o.history, textMessage(role, content))
	if max := o.maxHistory(); len(o.history) > max {
		o.history = o.history[len(o.history)-max:]
	}
}

func (o *Oracle) maxHistory() int {
	if o.MaxHistory > 0 {
		return o.MaxHistory
	}
	return defaultMaxHistory
}

func textMessage(role schema.ChatMessageType, text string) llms.MessageContent {
	return llms.MessageContent{Role: role, Parts: []llms.ContentPart{llms.TextPart(text)}}
}

// PlanTask asks for a JSON plan fulfilling the request.
func (o *Oracle) PlanTask(ctx context.Context, request string) (string, error) {
	prompt := fmt.Sprintf("Task: %q\nRespond ONLY with the JSON plan. No explanation.", request)
	return o.Chat(ctx, prompt, ModePlan)
}

// FixParams asks for corrected parameters after a tool failure.
func (o *Oracle) FixParams(ctx context.Context, tool, failure string, params *task.Params) (string, error) {
	prompt := fmt.Sprintf("Tool %s failed: %s\nParams: %s\nFix and respond ONLY JSON: {\"params\":{...}}",
		tool, failure, params.String())
	return o.Chat(ctx, prompt, ModeFix)
}

const verifyDigestLimit = 400

// Verify asks for a success judgement over the digest of step results.
func (o *Oracle) Verify(ctx context.Context, request string, results []string) (string, error) {
	digest := strings.Join(results, "; ")
	if len(digest) > verifyDigestLimit {
		digest = digest[:verifyDigestLimit]
	}
	prompt := fmt.Sprintf("Task: %q\nResults: %s\nRespond ONLY JSON: {\"success\":true/false,\"note\":\"brief\"}",
		request, digest)
	return o.Chat(ctx, prompt, ModeVerify)
}
