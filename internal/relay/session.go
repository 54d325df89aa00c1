package relay

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"
)

// sessionPattern matches the token the backend embeds in its SSE endpoint
// event, e.g. "data: /messages/?session_id=3f9a...".
var sessionPattern = regexp.MustCompile(`session_id=([a-f0-9]+)`)

// maxErrorBodySize caps how much of a failed response is kept for the error message.
const maxErrorBodySize = 4 << 10

// acquireSession opens the backend's event stream, reads just far enough to
// find a session token and closes the stream again.
func (r *Relay) acquireSession(ctx context.Context) (string, error) {
	logger := r.loggerFor(ctx)

	ctx, cancel := context.WithTimeout(ctx, r.opts.SessionTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.sessionURL, nil)
	if err != nil {
		return "", unreachable(err)
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")

	logger.Debug().Str("url", r.sessionURL).Msg("fetching backend session")

	start := time.Now()
	resp, err := r.httpClient.Do(req)
	if err != nil {
		logger.Error().Str("url", r.sessionURL).Int64("duration_ms", time.Since(start).Milliseconds()).Str("error", err.Error()).Msg("session request failed")
		return "", unreachable(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		logger.Error().Int("status", resp.StatusCode).Str("body", string(body)).Msg("session endpoint rejected request")
		return "", unreachableStatus(resp.StatusCode, string(body))
	}

	sessionID, err := scanSessionID(resp.Body, r.opts.MaxSessionBytes)
	duration := time.Since(start)
	if err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, errSessionLimit) {
			logger.Error().Int64("duration_ms", duration.Milliseconds()).Msg("no session id in backend stream")
			return "", noSession(err)
		}
		logger.Error().Int64("duration_ms", duration.Milliseconds()).Str("error", err.Error()).Msg("session stream read failed")
		return "", unreachable(err)
	}

	logger.Debug().
		Str("session_id", sessionID).
		Int("status", resp.StatusCode).
		Int64("duration_ms", duration.Milliseconds()).
		Msg("backend session acquired")

	return sessionID, nil
}

var errSessionLimit = errors.New("session token not found within read limit")

// scanSessionID reads body line by line until the session pattern matches,
// the stream ends, or limit bytes have been consumed.
func scanSessionID(body io.Reader, limit int64) (string, error) {
	if limit <= 0 {
		limit = defaultMaxSessionBytes
	}
	reader := bufio.NewReader(io.LimitReader(body, limit))

	var seen []byte
	for {
		line, err := reader.ReadBytes('\n')
		seen = append(seen, line...)
		if m := sessionPattern.FindSubmatch(seen); m != nil {
			return string(m[1]), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) && int64(len(seen)) >= limit {
				return "", errSessionLimit
			}
			if errors.Is(err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("failed to read session stream: %w", err)
		}
	}
}
