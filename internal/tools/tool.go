package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Tool defines the interface for all agent capabilities.
type Tool interface {
	Name() string
	Description() string
	// Params declares the tool's inputs in call order. The registry binds
	// and validates arguments against this schema before invoking.
	Params() []ParamSpec
	Invoke(ctx context.Context, args map[string]any) Result
}

// ParamSpec describes one declared tool parameter.
type ParamSpec struct {
	Name        string
	Description string
	Required    bool
}

// Result is the uniform outcome of a tool invocation. Tools report failure
// through it instead of panicking; the registry guarantees callers always
// get a Result back.
type Result struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	Data         any      `json:"data,omitempty"`
	FilesCreated []string `json:"files_created,omitempty"`
}

func OK(format string, args ...any) Result {
	return Result{Success: true, Message: fmt.Sprintf(format, args...)}
}

func Fail(format string, args ...any) Result {
	return Result{Success: false, Message: fmt.Sprintf(format, args...)}
}

// WithFile records a file the invocation produced.
func (r Result) WithFile(path string) Result {
	r.FilesCreated = append(r.FilesCreated, path)
	return r
}

// WithData attaches structured output for downstream steps.
func (r Result) WithData(data any) Result {
	r.Data = data
	return r
}

// Argument coercion helpers. Arguments arrive as decoded JSON, so numbers are
// usually float64 and everything may be a string when the model felt like it.

func strArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(data)
	}
}

func intArg(args map[string]any, key string) (int, bool) {
	switch v := args[key].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	case int64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, false
		}
		return int(n), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func floatArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func boolArg(args map[string]any, key string) bool {
	switch v := args[key].(type) {
	case bool:
		return v
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(strings.ToLower(v)))
		return err == nil && b
	case float64:
		return v != 0
	default:
		return false
	}
}

func sliceArg(args map[string]any, key string) []any {
	if v, ok := args[key].([]any); ok {
		return v
	}
	return nil
}
