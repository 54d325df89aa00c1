// Package relay forwards a single tool call to a backend that requires a
// per-call session: it acquires a session id from the backend's event
// stream, posts a JSON-RPC tools/call envelope bound to that session and
// normalizes the reply.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bobmcallan/zep-bridge/internal/common"
)

const (
	defaultSessionTimeout  = 30 * time.Second
	defaultRPCTimeout      = 120 * time.Second
	defaultMaxSessionBytes = 64 << 10

	// maxResponseSize caps the RPC response body to prevent OOM from unexpectedly large responses.
	maxResponseSize = 50 << 20
)

// Options is the immutable backend configuration of a Relay.
type Options struct {
	BaseURL         string
	SessionPath     string
	MessagePath     string
	SessionTimeout  time.Duration
	RPCTimeout      time.Duration
	MaxSessionBytes int64
	// HTTPClient defaults to a client without a global timeout; each step
	// is bounded by its own context deadline instead.
	HTTPClient *http.Client
}

// Relay executes tool calls against the backend. It holds no per-call
// state and is safe for concurrent use.
type Relay struct {
	opts       Options
	sessionURL string
	messageURL string
	httpClient *http.Client
	logger     *common.Logger
	ids        *idSource
}

// New creates a Relay for the given backend.
func New(opts Options, logger *common.Logger) (*Relay, error) {
	if opts.SessionPath == "" {
		opts.SessionPath = "/sse"
	}
	if opts.MessagePath == "" {
		opts.MessagePath = "/messages/"
	}
	if opts.SessionTimeout <= 0 {
		opts.SessionTimeout = defaultSessionTimeout
	}
	if opts.RPCTimeout <= 0 {
		opts.RPCTimeout = defaultRPCTimeout
	}
	if opts.MaxSessionBytes <= 0 {
		opts.MaxSessionBytes = defaultMaxSessionBytes
	}

	base := strings.TrimRight(opts.BaseURL, "/")
	if _, err := url.ParseRequestURI(base); err != nil || base == "" {
		return nil, fmt.Errorf("invalid backend url %q: %w", opts.BaseURL, err)
	}

	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{}
	}
	if logger == nil {
		logger = common.NewSilentLogger()
	}

	return &Relay{
		opts:       opts,
		sessionURL: base + opts.SessionPath,
		messageURL: base + opts.MessagePath,
		httpClient: client,
		logger:     logger,
		ids:        newIDSource(time.Now().UnixMilli()),
	}, nil
}

// BaseURL returns the configured backend base URL.
func (r *Relay) BaseURL() string {
	return r.opts.BaseURL
}

// Ping checks that the backend hands out sessions. It opens and closes one
// session stream and sends no RPC.
func (r *Relay) Ping(ctx context.Context) error {
	_, err := r.acquireSession(ctx)
	return err
}

// Call runs one tool invocation: acquire a session, dispatch the envelope,
// decode the reply. Every failure is an *Error and is returned exactly once;
// nothing is retried.
func (r *Relay) Call(ctx context.Context, tool string, arguments any) (any, error) {
	logger := r.loggerFor(ctx)
	start := time.Now()

	sessionID, err := r.acquireSession(ctx)
	if err != nil {
		return nil, err
	}

	env := NewEnvelope(r.ids.Next(), tool, arguments)
	result, err := r.dispatch(ctx, sessionID, env)
	if err != nil {
		logger.Warn().
			Str("tool", tool).
			Int64("request_id", env.ID).
			Str("kind", KindOf(err).String()).
			Int64("duration_ms", time.Since(start).Milliseconds()).
			Str("error", err.Error()).
			Msg("backend tool call failed")
		return nil, err
	}

	logger.Info().
		Str("tool", tool).
		Int64("request_id", env.ID).
		Int64("duration_ms", time.Since(start).Milliseconds()).
		Msg("backend tool call succeeded")
	return result, nil
}

// dispatch posts env to the message endpoint with the session id bound as a
// query parameter. It uses a fresh request, never the session stream.
func (r *Relay) dispatch(ctx context.Context, sessionID string, env *Envelope) (any, error) {
	logger := r.loggerFor(ctx)

	ctx, cancel := context.WithTimeout(ctx, r.opts.RPCTimeout)
	defer cancel()

	payload, err := json.Marshal(env)
	if err != nil {
		return nil, rpcFailed(fmt.Errorf("failed to marshal request: %w", err))
	}

	target, err := r.messageURLFor(sessionID)
	if err != nil {
		return nil, rpcFailed(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, rpcFailed(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	logger.Debug().Str("url", target).Str("payload", string(payload)).Msg("dispatching tool call")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Str("url", target).Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("tool call request failed")
		return nil, rpcFailed(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, rpcFailed(fmt.Errorf("failed to read response: %w", err))
	}

	logger.Debug().Int("status", resp.StatusCode).Int64("duration_ms", duration.Milliseconds()).Str("response", string(body)).Msg("tool call response")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, rpcStatus(resp.StatusCode, string(body))
	}

	return decodeResult(body)
}

func (r *Relay) messageURLFor(sessionID string) (string, error) {
	u, err := url.Parse(r.messageURL)
	if err != nil {
		return "", fmt.Errorf("invalid message url %q: %w", r.messageURL, err)
	}
	q := u.Query()
	q.Set("session_id", sessionID)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (r *Relay) loggerFor(ctx context.Context) *common.Logger {
	return common.LoggerFromContext(ctx, r.logger)
}
