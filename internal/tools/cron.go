package tools

import (
	"context"
	"fmt"
)

type ctxKey int

const chatIDKey ctxKey = iota

// WithChatID tags ctx with the conversation the current work belongs to, so
// tools like the scheduler know who to report back to.
func WithChatID(ctx context.Context, chatID string) context.Context {
	return context.WithValue(ctx, chatIDKey, chatID)
}

// ChatID returns the conversation id carried by ctx. Work started outside a
// gateway belongs to the console.
func ChatID(ctx context.Context) string {
	if id, ok := ctx.Value(chatIDKey).(string); ok && id != "" {
		return id
	}
	return "console"
}

// JobStore persists scheduled requests between scheduler polls.
type JobStore interface {
	AddJob(chatID string, description string, intervalSeconds int) error
	ClearJobs(chatID string) error
}

type CronTool struct {
	Store JobStore
}

func NewCronTool(store JobStore) *CronTool {
	return &CronTool{Store: store}
}

func (c *CronTool) Name() string {
	return "schedule_task"
}

func (c *CronTool) Description() string {
	return "Manage recurring tasks: 'schedule' a new one or 'clear' all current ones."
}

func (c *CronTool) Params() []ParamSpec {
	return []ParamSpec{
		{Name: "action", Description: "'schedule' a new task or 'clear' all existing ones", Required: true},
		{Name: "task_description", Description: "What the agent should do (for 'schedule')"},
		{Name: "interval_seconds", Description: "The interval in seconds, minimum 60 (for 'schedule')"},
	}
}

func (c *CronTool) Invoke(ctx context.Context, args map[string]any) Result {
	chatID := ChatID(ctx)

	switch strArg(args, "action") {
	case "clear":
		if err := c.Store.ClearJobs(chatID); err != nil {
			return Fail("failed to clear tasks: %v", err)
		}
		return OK("Successfully cleared all your scheduled tasks.")

	case "schedule":
		desc := strArg(args, "task_description")
		if desc == "" {
			return Fail("schedule needs a 'task_description'")
		}
		interval, ok := intArg(args, "interval_seconds")
		if !ok || interval < 60 {
			return Fail("minimum interval is 60 seconds to prevent spamming")
		}
		if err := c.Store.AddJob(chatID, desc, interval); err != nil {
			return Fail("failed to schedule task: %v", err)
		}
		return OK("Successfully scheduled task: %q every %d seconds.", desc, interval)

	default:
		return Fail("invalid action %q: use 'schedule' or 'clear'", fmt.Sprint(args["action"]))
	}
}
