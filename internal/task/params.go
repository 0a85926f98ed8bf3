package task

import (
	"encoding/json"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Params holds a step's tool arguments with their original key order intact.
// Order matters: when a tool rejects the argument names the model invented,
// the registry rebinds the values to the tool's declared parameters by
// position, which only works if decoding preserved the order they arrived in.
type Params struct {
	om *orderedmap.OrderedMap[string, any]
}

func NewParams() *Params {
	return &Params{om: orderedmap.New[string, any]()}
}

// ParamsFrom builds Params from key/value pairs in the given order.
// Arguments are consumed pairwise; a trailing odd key is ignored.
func ParamsFrom(pairs ...any) *Params {
	p := NewParams()
	for i := 0; i+1 < len(pairs); i += 2 {
		if key, ok := pairs[i].(string); ok {
			p.Set(key, pairs[i+1])
		}
	}
	return p
}

func (p *Params) Set(key string, value any) {
	if p.om == nil {
		p.om = orderedmap.New[string, any]()
	}
	p.om.Set(key, value)
}

func (p *Params) Get(key string) (any, bool) {
	if p == nil || p.om == nil {
		return nil, false
	}
	return p.om.Get(key)
}

func (p *Params) Len() int {
	if p == nil || p.om == nil {
		return 0
	}
	return p.om.Len()
}

// Keys returns the parameter names in insertion order.
func (p *Params) Keys() []string {
	if p == nil || p.om == nil {
		return nil
	}
	keys := make([]string, 0, p.om.Len())
	for pair := p.om.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Values returns the parameter values in insertion order.
func (p *Params) Values() []any {
	if p == nil || p.om == nil {
		return nil
	}
	vals := make([]any, 0, p.om.Len())
	for pair := p.om.Oldest(); pair != nil; pair = pair.Next() {
		vals = append(vals, pair.Value)
	}
	return vals
}

// Map returns a plain map copy for consumers that do not care about order.
func (p *Params) Map() map[string]any {
	m := make(map[string]any, p.Len())
	if p == nil || p.om == nil {
		return m
	}
	for pair := p.om.Oldest(); pair != nil; pair = pair.Next() {
		m[pair.Key] = pair.Value
	}
	return m
}

func (p *Params) MarshalJSON() ([]byte, error) {
	if p == nil || p.om == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.om)
}

func (p *Params) UnmarshalJSON(data []byte) error {
	om := orderedmap.New[string, any]()
	if string(data) != "null" {
		if err := json.Unmarshal(data, om); err != nil {
			return err
		}
	}
	p.om = om
	return nil
}

// String renders the parameters as compact JSON for logs and policy checks.
func (p *Params) String() string {
	data, err := p.MarshalJSON()
	if err != nil {
		return "{}"
	}
	return string(data)
}
