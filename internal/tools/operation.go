package tools

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mitchellh/mapstructure"

	"github.com/bobmcallan/zep-bridge/internal/relay"
)

// ParamType is the declared type of a tool parameter.
type ParamType string

const (
	TypeString      ParamType = "string"
	TypeNumber      ParamType = "number"
	TypeStringArray ParamType = "array"
)

// Param describes one parameter of an Operation.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
	// Default is advertised in the tool schema; the value actually
	// forwarded is applied by the operation's argument type.
	Default any
}

// Operation is an immutable tool descriptor. Its prepare func turns raw
// MCP arguments into the defaulted argument value sent to the backend.
type Operation struct {
	Name        string
	Description string
	Params      []Param

	prepare func(raw map[string]any) (any, error)
}

// defaulter is implemented by the per-tool argument structs.
type defaulter interface {
	applyDefaults()
}

// newOperation builds an Operation whose arguments bind to T.
func newOperation[T any, PT interface {
	*T
	defaulter
}](name, description string, params ...Param) Operation {
	return Operation{
		Name:        name,
		Description: description,
		Params:      params,
		prepare: func(raw map[string]any) (any, error) {
			args := PT(new(T))
			if err := bindArguments(raw, args); err != nil {
				return nil, err
			}
			args.applyDefaults()
			return args, nil
		},
	}
}

// Prepare validates raw against the declared params and returns the
// defaulted arguments. Unknown fields are ignored. Failures are
// relay.KindValidation errors.
func (op Operation) Prepare(raw map[string]any) (any, error) {
	if raw == nil {
		raw = map[string]any{}
	}
	var problems []error
	for _, p := range op.Params {
		v, ok := raw[p.Name]
		if !ok || v == nil {
			if p.Required {
				problems = append(problems, fmt.Errorf("%s is required", p.Name))
			}
			continue
		}
		if err := checkType(p, v); err != nil {
			problems = append(problems, err)
		}
	}
	if len(problems) > 0 {
		return nil, relay.NewValidationError(op.Name, errors.Join(problems...))
	}

	args, err := op.prepare(raw)
	if err != nil {
		return nil, relay.NewValidationError(op.Name, err)
	}
	return args, nil
}

func checkType(p Param, v any) error {
	switch p.Type {
	case TypeString:
		if _, ok := v.(string); !ok {
			return fmt.Errorf("%s must be a string, got %T", p.Name, v)
		}
	case TypeNumber:
		n, ok := numberValue(v)
		if !ok {
			return fmt.Errorf("%s must be a number, got %T", p.Name, v)
		}
		if math.Trunc(n) != n {
			return fmt.Errorf("%s must be a whole number, got %v", p.Name, v)
		}
		if n < 0 || n > maxCount {
			return fmt.Errorf("%s must be between 0 and %d, got %v", p.Name, maxCount, v)
		}
	case TypeStringArray:
		switch items := v.(type) {
		case []string:
		case []any:
			for i, item := range items {
				if _, ok := item.(string); !ok {
					return fmt.Errorf("%s[%d] must be a string, got %T", p.Name, i, item)
				}
			}
		default:
			return fmt.Errorf("%s must be an array of strings, got %T", p.Name, v)
		}
	}
	return nil
}

// maxCount bounds numeric arguments so they bind into an int unchanged.
const maxCount = math.MaxInt32

func numberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, !math.IsNaN(n) && !math.IsInf(n, 0)
	case float32:
		return numberValue(float64(n))
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return numberValue(f)
	}
	return 0, false
}

// bindArguments decodes the raw argument map into a typed struct using the
// struct's json tags. Fields not declared on the struct are ignored.
func bindArguments(raw map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  target,
		TagName: "json",
	})
	if err != nil {
		return fmt.Errorf("internal error creating argument decoder: %w", err)
	}
	return decoder.Decode(raw)
}

// Tool converts the descriptor into an mcp.Tool with the matching input schema.
func (op Operation) Tool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(op.Description)}
	for _, p := range op.Params {
		opts = append(opts, buildParamOption(p))
	}
	return mcp.NewTool(op.Name, opts...)
}

// buildParamOption maps a Param to the appropriate mcp-go tool option.
func buildParamOption(p Param) mcp.ToolOption {
	var opts []mcp.PropertyOption
	if p.Description != "" {
		opts = append(opts, mcp.Description(p.Description))
	}
	if p.Required {
		opts = append(opts, mcp.Required())
	}

	switch p.Type {
	case TypeNumber:
		if d, ok := p.Default.(int); ok {
			opts = append(opts, mcp.DefaultNumber(float64(d)))
		}
		return mcp.WithNumber(p.Name, opts...)
	case TypeStringArray:
		opts = append([]mcp.PropertyOption{mcp.WithStringItems()}, opts...)
		return mcp.WithArray(p.Name, opts...)
	default:
		if d, ok := p.Default.(string); ok {
			opts = append(opts, mcp.DefaultString(d))
		}
		return mcp.WithString(p.Name, opts...)
	}
}

// Registry is the fixed set of operations exposed by the bridge.
type Registry struct {
	ops    []Operation
	byName map[string]int
}

// NewRegistry builds a registry; operation names must be unique.
func NewRegistry(ops ...Operation) (*Registry, error) {
	r := &Registry{byName: make(map[string]int, len(ops))}
	for _, op := range ops {
		if op.Name == "" {
			return nil, fmt.Errorf("operation has empty name")
		}
		if op.prepare == nil {
			return nil, fmt.Errorf("operation %q has no argument binding", op.Name)
		}
		if _, dup := r.byName[op.Name]; dup {
			return nil, fmt.Errorf("duplicate operation %q", op.Name)
		}
		r.byName[op.Name] = len(r.ops)
		r.ops = append(r.ops, op)
	}
	return r, nil
}

// Operations returns a copy of the registered operations in declaration order.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Lookup finds an operation by name.
func (r *Registry) Lookup(name string) (Operation, bool) {
	i, ok := r.byName[name]
	if !ok {
		return Operation{}, false
	}
	return r.ops[i], true
}
