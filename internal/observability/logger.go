package observability

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"time"
)

// EventType defines the category of the log event.
type EventType string

const (
	EventTypePlan       EventType = "plan"
	EventTypeStep       EventType = "step"
	EventTypeRetry      EventType = "retry"
	EventTypeVerify     EventType = "verify"
	EventTypeToolCall   EventType = "tool_call"
	EventTypeToolResult EventType = "tool_result"
	EventTypeLLM        EventType = "llm"
	EventTypeHeartbeat  EventType = "heartbeat"
)

// Event represents a structured log entry.
type Event struct {
	Type      EventType `json:"type"`
	ChatID    string    `json:"chat_id,omitempty"`
	TaskID    string    `json:"task_id,omitempty"`
	Data      any       `json:"data"`
	Timestamp time.Time `json:"timestamp"`
}

// Logger appends structured JSON events to files under Dir. Events go to
// events.jsonl; LLM exchanges additionally to llm.jsonl, since they dominate
// volume and are the ones worth replaying. Both files rotate once past
// MaxSize. A nil Logger discards everything.
type Logger struct {
	Dir     string
	MaxSize int64
}

func NewLogger() *Logger {
	return &Logger{
		Dir:     "logs",
		MaxSize: 10 * 1024 * 1024, // 10MB
	}
}

// Log emits a structured JSON event.
func (l *Logger) Log(evt Event) {
	if l == nil {
		return
	}
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now()
	}
	data, err := json.Marshal(evt)
	if err != nil {
		log.Printf("failed to marshal event: %v", err)
		return
	}

	l.writeToFile("events.jsonl", data)
	if evt.Type == EventTypeLLM {
		l.writeToFile("llm.jsonl", data)
	}
}

func (l *Logger) writeToFile(name string, data []byte) {
	if err := os.MkdirAll(l.dir(), 0755); err != nil {
		log.Printf("failed to create log directory: %v", err)
		return
	}
	path := filepath.Join(l.dir(), name)

	// Check size before writing
	info, err := os.Stat(path)
	if err == nil && info.Size() > l.maxSize() {
		l.rotate(path)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		log.Printf("failed to open log file: %v", err)
		return
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		log.Printf("failed to write to log file: %v", err)
	}
}

func (l *Logger) rotate(path string) {
	// Simple rotation: keep one .old file
	oldPath := path + ".old"
	_ = os.Remove(oldPath)
	_ = os.Rename(path, oldPath)
}

func (l *Logger) dir() string {
	if l.Dir != "" {
		return l.Dir
	}
	return "logs"
}

func (l *Logger) maxSize() int64 {
	if l.MaxSize > 0 {
		return l.MaxSize
	}
	return 10 * 1024 * 1024
}

// Helper methods for common events

func (l *Logger) LogPlan(chatID, taskID, request string, steps int) {
	l.Log(Event{
		Type:   EventTypePlan,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]any{
			"request": request,
			"steps":   steps,
		},
	})
}

func (l *Logger) LogStep(chatID, taskID string, number int, tool, status, outcome string) {
	l.Log(Event{
		Type:   EventTypeStep,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]any{
			"step":    number,
			"tool":    tool,
			"status":  status,
			"outcome": outcome,
		},
	})
}

func (l *Logger) LogRetry(chatID, taskID string, number, retry int, failure string) {
	l.Log(Event{
		Type:   EventTypeRetry,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]any{
			"step":    number,
			"retry":   retry,
			"failure": failure,
		},
	})
}

func (l *Logger) LogVerify(chatID, taskID string, success *bool, note string) {
	l.Log(Event{
		Type:   EventTypeVerify,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]any{
			"success": success,
			"note":    note,
		},
	})
}

func (l *Logger) LogToolCall(chatID, taskID, tool, args string) {
	l.Log(Event{
		Type:   EventTypeToolCall,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]string{
			"tool": tool,
			"args": args,
		},
	})
}

func (l *Logger) LogToolResult(chatID, taskID, tool string, success bool, message string) {
	l.Log(Event{
		Type:   EventTypeToolResult,
		ChatID: chatID,
		TaskID: taskID,
		Data: map[string]any{
			"tool":    tool,
			"success": success,
			"message": message,
		},
	})
}

func (l *Logger) LogLLM(chatID, mode, prompt, response string) {
	l.Log(Event{
		Type:   EventTypeLLM,
		ChatID: chatID,
		Data: map[string]string{
			"mode":     mode,
			"prompt":   prompt,
			"response": response,
		},
	})
}

func (l *Logger) LogHeartbeat() {
	l.Log(Event{
		Type: EventTypeHeartbeat,
		Data: map[string]string{"status": "alive"},
	})
}
