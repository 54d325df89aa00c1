package relay

import (
	"bytes"
	"sync/atomic"

	jsoniter "github.com/json-iterator/go"
)

// json keeps backend numbers exact and sorts map keys so rendering is
// deterministic for a given result.
var json = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

const (
	// JSONRPCVersion is the protocol tag sent on every envelope.
	JSONRPCVersion = "2.0"
	// MethodToolsCall is the only method the bridge dispatches.
	MethodToolsCall = "tools/call"
)

// Envelope is the JSON-RPC request posted to the backend message endpoint.
type Envelope struct {
	JSONRPC string     `json:"jsonrpc"`
	ID      int64      `json:"id"`
	Method  string     `json:"method"`
	Params  CallParams `json:"params"`
}

// CallParams names the backend tool and carries its already-defaulted arguments.
type CallParams struct {
	Name      string `json:"name"`
	Arguments any    `json:"arguments"`
}

// NewEnvelope builds a tools/call request.
func NewEnvelope(id int64, tool string, arguments any) *Envelope {
	return &Envelope{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Method:  MethodToolsCall,
		Params: CallParams{
			Name:      tool,
			Arguments: arguments,
		},
	}
}

// Result is the backend's JSON-RPC response. Exactly one of Result or
// Error is expected to be populated.
type Result struct {
	JSONRPC string              `json:"jsonrpc,omitempty"`
	ID      any                 `json:"id,omitempty"`
	Result  jsoniter.RawMessage `json:"result,omitempty"`
	Error   jsoniter.RawMessage `json:"error,omitempty"`
}

// HasError reports whether the error member is present and not null.
func (r *Result) HasError() bool {
	return populated(r.Error)
}

// HasResult reports whether the result member is present and not null.
func (r *Result) HasResult() bool {
	return populated(r.Result)
}

func populated(raw jsoniter.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

// decodeResult turns a message endpoint body into the tool's result value
// or a classified error.
func decodeResult(body []byte) (any, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, malformed(string(body), nil)
	}

	var res Result
	if err := json.Unmarshal(trimmed, &res); err != nil {
		return nil, malformed(string(body), err)
	}

	if res.HasError() {
		var detail any
		if err := json.Unmarshal(res.Error, &detail); err != nil {
			return nil, malformed(string(body), err)
		}
		return nil, backendError(errorMessage(detail, res.Error), detail)
	}

	// Backends that do not wrap their payload in "result" get the whole body back.
	raw := trimmed
	if res.HasResult() {
		raw = res.Result
	}

	var value any
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, malformed(string(body), err)
	}
	return value, nil
}

// errorMessage prefers the error object's message and otherwise falls back
// to the compact serialization of the whole error value.
func errorMessage(detail any, raw jsoniter.RawMessage) string {
	if obj, ok := detail.(map[string]any); ok {
		if msg, ok := obj["message"].(string); ok && msg != "" {
			return msg
		}
	}
	var compact bytes.Buffer
	if err := compactJSON(&compact, raw); err != nil {
		return string(raw)
	}
	return compact.String()
}

func compactJSON(dst *bytes.Buffer, raw []byte) error {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	out, err := json.Marshal(v)
	if err != nil {
		return err
	}
	dst.Write(out)
	return nil
}

// Render pretty-prints a result value with two-space indentation.
func Render(v any) (string, error) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// idSource hands out request ids. Seeded from the clock so ids stay unique
// across restarts in practice; collisions are harmless because responses
// are never multiplexed.
type idSource struct {
	last atomic.Int64
}

func newIDSource(seed int64) *idSource {
	s := &idSource{}
	s.last.Store(seed)
	return s
}

func (s *idSource) Next() int64 {
	return s.last.Add(1)
}
