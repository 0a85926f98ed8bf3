package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/tomaszwi66/ollama-desktop-agent/internal/governance"
	"github.com/tomaszwi66/ollama-desktop-agent/internal/task"
)

// Registry manages the set of available tools and is the single path every
// invocation takes. Execute never panics and never returns a Go error:
// whatever goes wrong comes back as a failed Result the caller can show to
// the model for repair.
type Registry struct {
	Tools  map[string]Tool
	Policy governance.PolicyEngine

	order []string
}

func NewRegistry() *Registry {
	return &Registry{
		Tools: make(map[string]Tool),
	}
}

func (r *Registry) Register(t Tool) {
	if _, seen := r.Tools[t.Name()]; !seen {
		r.order = append(r.order, t.Name())
	}
	r.Tools[t.Name()] = t
}

func (r *Registry) Get(name string) Tool {
	return r.Tools[name]
}

// List returns the tools in registration order, so prompts and help output
// stay deterministic.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.Tools[name])
	}
	return out
}

// Names returns the registered tool names in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Close releases tools that hold external resources, like the shared
// browser session.
func (r *Registry) Close() {
	for _, t := range r.List() {
		if c, ok := t.(interface{ Close() error }); ok {
			_ = c.Close()
		}
	}
}

// Execute runs the named tool with lenient argument binding. The model names
// parameters wrong more often than it gets values wrong, so binding tries,
// in order: the supplied keys the schema declares, the full argument map
// when nothing matched by name, and finally the supplied values rebound to
// the declared parameters by position. An unknown tool, a policy deny, a
// binding that cannot cover the required parameters, or a panicking tool all
// come back as ordinary failed Results.
func (r *Registry) Execute(ctx context.Context, name string, params *task.Params) (res Result) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Fail("tool %s panicked: %v", name, rec)
		}
	}()

	tool := r.Get(name)
	if tool == nil {
		return Fail("unknown tool: %s (available: %s)", name, strings.Join(r.order, ", "))
	}

	if r.Policy != nil {
		verdict, err := r.Policy.Evaluate(ctx, governance.Request{
			Tool:      name,
			Arguments: params.String(),
		})
		if err != nil {
			return Fail("policy evaluation failed: %v", err)
		}
		if verdict.Effect == governance.EffectDeny {
			return Fail("blocked by policy: %s", verdict.Reason)
		}
	}

	args, err := bind(tool.Params(), params)
	if err != nil {
		return Fail("invalid parameters for %s: %v", name, err)
	}

	return tool.Invoke(ctx, args)
}

func bind(declared []ParamSpec, params *task.Params) (map[string]any, error) {
	supplied := params.Map()
	keys := params.Keys()
	values := params.Values()

	known := make(map[string]bool, len(declared))
	for _, d := range declared {
		known[d.Name] = true
	}

	args := make(map[string]any)
	for _, k := range keys {
		if known[k] {
			args[k] = supplied[k]
		}
	}

	// Nothing matched by name: hand everything over untouched.
	if len(args) == 0 && len(supplied) > 0 {
		args = supplied
	}

	missing := missingRequired(declared, args)
	if len(missing) == 0 {
		return args, nil
	}

	// Positional fallback: the values are usually right even when the names
	// are invented, so zip them onto the declared order.
	if n := len(values); n > 0 && n <= len(declared) {
		positional := make(map[string]any, n)
		for i, v := range values {
			positional[declared[i].Name] = v
		}
		if len(missingRequired(declared, positional)) == 0 {
			return positional, nil
		}
	}

	return nil, fmt.Errorf("missing required: %s (expects: %s)", strings.Join(missing, ", "), paramNames(declared))
}

func missingRequired(declared []ParamSpec, args map[string]any) []string {
	var missing []string
	for _, d := range declared {
		if !d.Required {
			continue
		}
		if v, ok := args[d.Name]; !ok || v == nil {
			missing = append(missing, d.Name)
		}
	}
	return missing
}

func paramNames(declared []ParamSpec) string {
	names := make([]string, len(declared))
	for i, d := range declared {
		names[i] = d.Name
	}
	return strings.Join(names, ", ")
}
