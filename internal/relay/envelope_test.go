package relay

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnvelope_RoundTrip(t *testing.T) {
	env := NewEnvelope(1739000000123, "add_memory", map[string]any{
		"name":         "note",
		"episode_body": "hello",
		"source":       "text",
	})

	data, err := json.Marshal(env)
	require.NoError(t, err)

	var back Envelope
	require.NoError(t, json.Unmarshal(data, &back))

	assert.Equal(t, JSONRPCVersion, back.JSONRPC)
	assert.Equal(t, int64(1739000000123), back.ID)
	assert.Equal(t, MethodToolsCall, back.Method)
	assert.Equal(t, "add_memory", back.Params.Name)
	assert.JSONEq(t, `{"name":"note","episode_body":"hello","source":"text"}`, mustJSON(t, back.Params.Arguments))
}

func TestEnvelope_WireShape(t *testing.T) {
	data, err := json.Marshal(NewEnvelope(42, "get_episodes", map[string]any{"group_id": "g1", "last_n": 10}))
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"jsonrpc":"2.0","id":42,"method":"tools/call","params":{"name":"get_episodes","arguments":{"group_id":"g1","last_n":10}}}`,
		string(data))
}

func TestResult_RoundTrip(t *testing.T) {
	for _, body := range []string{
		`{"jsonrpc":"2.0","id":5,"result":{"facts":[{"fact":"a"}]}}`,
		`{"jsonrpc":"2.0","id":6,"error":{"code":-32000,"message":"boom","data":{"hint":"retry"}}}`,
	} {
		var res Result
		require.NoError(t, json.Unmarshal([]byte(body), &res))
		out, err := json.Marshal(&res)
		require.NoError(t, err)
		assert.JSONEq(t, body, string(out))
	}
}

func TestResult_Populated(t *testing.T) {
	var res Result
	require.NoError(t, json.Unmarshal([]byte(`{"result":null,"error":null}`), &res))
	assert.False(t, res.HasResult())
	assert.False(t, res.HasError())

	require.NoError(t, json.Unmarshal([]byte(`{"result":[],"error":{"message":"x"}}`), &res))
	assert.True(t, res.HasResult())
	assert.True(t, res.HasError())
}

func TestDecodeResult_PreservesLargeIntegers(t *testing.T) {
	value, err := decodeResult([]byte(`{"result":{"id":9007199254740993}}`))
	require.NoError(t, err)

	rendered, err := Render(value)
	require.NoError(t, err)
	assert.Contains(t, rendered, "9007199254740993")
}

func TestDecodeResult_ScalarResult(t *testing.T) {
	value, err := decodeResult([]byte(`{"result":"queued"}`))
	require.NoError(t, err)
	assert.Equal(t, "queued", value)
}

func TestDecodeResult_ErrorAsString(t *testing.T) {
	_, err := decodeResult([]byte(`{"error":"plain failure"}`))
	assert.Equal(t, KindBackend, KindOf(err))
	assert.Equal(t, `"plain failure"`, err.Error())
}

func TestDecodeResult_EmptyMessageFallsBack(t *testing.T) {
	_, err := decodeResult([]byte(`{"error":{"message":"","code":1}}`))
	assert.Equal(t, KindBackend, KindOf(err))
	assert.JSONEq(t, `{"message":"","code":1}`, err.Error())
}

func TestRender_Indents(t *testing.T) {
	out, err := Render(map[string]any{"x": 1})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"x\": 1\n}", out)
}

func TestRender_Deterministic(t *testing.T) {
	value := map[string]any{"b": 2, "a": 1, "c": map[string]any{"z": true, "y": nil}}
	first, err := Render(value)
	require.NoError(t, err)
	for i := 0; i < 20; i++ {
		again, err := Render(value)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
	assert.Less(t, strings.Index(first, `"a"`), strings.Index(first, `"b"`))
}

func TestScanSessionID(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
		err  error
	}{
		{"endpoint event", "event: endpoint\ndata: /messages/?session_id=0a1b2c\n\n", "0a1b2c", nil},
		{"first token wins", "data: session_id=aaa\ndata: session_id=bbb\n", "aaa", nil},
		{"token without newline", "session_id=beef", "beef", nil},
		{"token after comments", ": hello\n: keepalive\ndata: /m?session_id=f00\n", "f00", nil},
		{"no token", "event: endpoint\ndata: /messages/\n\n", "", io.EOF},
		{"empty body", "", "", io.EOF},
		{"non hex", "session_id=zzz\n", "", io.EOF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := scanSessionID(strings.NewReader(tt.body), 1024)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestScanSessionID_OneByteReads(t *testing.T) {
	got, err := scanSessionID(iotest.OneByteReader(strings.NewReader("data: /messages/?session_id=c0ffee\n")), 1024)
	require.NoError(t, err)
	assert.Equal(t, "c0ffee", got)
}

func TestScanSessionID_Limit(t *testing.T) {
	_, err := scanSessionID(strings.NewReader(strings.Repeat("x", 100)+"\nsession_id=abc\n"), 50)
	assert.ErrorIs(t, err, errSessionLimit)
}

func TestScanSessionID_ReadError(t *testing.T) {
	boom := errors.New("connection reset")
	_, err := scanSessionID(iotest.ErrReader(boom), 1024)
	assert.ErrorIs(t, err, boom)
}

func TestIDSource_Monotonic(t *testing.T) {
	ids := newIDSource(1000)
	assert.Equal(t, int64(1001), ids.Next())
	assert.Equal(t, int64(1002), ids.Next())
}

func TestKind_String(t *testing.T) {
	assert.Equal(t, "ValidationError", KindValidation.String())
	assert.Equal(t, "BackendUnreachable", KindBackendUnreachable.String())
	assert.Equal(t, "SessionAcquisitionFailed", KindSessionAcquisition.String())
	assert.Equal(t, "BackendRpcError", KindBackendRPC.String())
	assert.Equal(t, "MalformedResponse", KindMalformedResponse.String())
	assert.Equal(t, "BackendError", KindBackend.String())
	assert.Equal(t, "Unknown", Kind(99).String())
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindUnknown, KindOf(nil))
	assert.Equal(t, KindUnknown, KindOf(errors.New("plain")))

	wrapped := errors.Join(errors.New("outer"), NewValidationError("add_memory", errors.New("name is required")))
	assert.Equal(t, KindValidation, KindOf(wrapped))
}

func TestNewValidationError(t *testing.T) {
	cause := errors.New("name is required")
	err := NewValidationError("add_memory", cause)
	assert.Equal(t, "invalid arguments for add_memory: name is required", err.Error())
	assert.ErrorIs(t, err, cause)
}
