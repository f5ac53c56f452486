// Package apiclient is the gateway to the remote hotel REST backend.  Every
// read and write the BFF performs goes through Client, which attaches the
// caller's bearer token, decodes JSON and folds failures into the fixed
// Kind taxonomy declared in errors.go.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

type tokenKey struct{}

// WithToken returns a context carrying the backend bearer token.  The JWT
// middleware stores the session's token this way so services only pass ctx.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the bearer token carried by ctx, if any.
func TokenFrom(ctx context.Context) string {
	s, _ := ctx.Value(tokenKey{}).(string)
	return s
}

// Client calls the hotel backend.  It is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client

	// OnUnauthorized runs whenever the backend answers 401, before the
	// SessionExpired error is returned.  main wires it to the session
	// manager's forced logout.
	OnUnauthorized func(ctx context.Context)
}

// New builds a client for baseURL (e.g. "http://backend:8080/api").  A zero
// timeout falls back to ten seconds.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

// errorBody covers the shapes backends commonly use for error payloads.
type errorBody struct {
	Message string `json:"message"`
	Error   string `json:"error"`
}

// do sends one request.  body is JSON-encoded when non-nil and the
// response is decoded into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	op := method + " " + path
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: encode body: %w", op, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return fmt.Errorf("%s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := TokenFrom(ctx); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return &Error{Kind: KindNetwork, Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || resp.StatusCode == http.StatusNoContent {
			_, _ = io.Copy(io.Discard, resp.Body)
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
			return &Error{Kind: KindServer, Status: resp.StatusCode, Op: op, Err: fmt.Errorf("decode response: %w", err)}
		}
		return nil
	}

	apiErr := &Error{Kind: kindForStatus(resp.StatusCode), Status: resp.StatusCode, Op: op}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	var eb errorBody
	if json.Unmarshal(raw, &eb) == nil {
		apiErr.Detail = eb.Message
		if apiErr.Detail == "" {
			apiErr.Detail = eb.Error
		}
	}
	if apiErr.Kind == KindSessionExpired && c.OnUnauthorized != nil {
		c.OnUnauthorized(ctx)
	}
	return apiErr
}

// envelope unwraps backends that answer {"data": ...}.  Both the wrapped and
// the bare form are accepted.
type envelope[T any] struct {
	Data *T `json:"data"`
}

func getInto[T any](ctx context.Context, c *Client, path string, query url.Values) (*T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, path, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeMaybeWrapped[T](raw, "GET "+path)
}

func sendInto[T any](ctx context.Context, c *Client, method, path string, body any) (*T, error) {
	var raw json.RawMessage
	if err := c.do(ctx, method, path, nil, body, &raw); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return new(T), nil
	}
	return decodeMaybeWrapped[T](raw, method+" "+path)
}

func decodeMaybeWrapped[T any](raw json.RawMessage, op string) (*T, error) {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("{")) && bytes.Contains(trimmed, []byte(`"data"`)) {
		var env envelope[T]
		if err := json.Unmarshal(trimmed, &env); err == nil && env.Data != nil {
			return env.Data, nil
		}
	}
	var v T
	if err := json.Unmarshal(trimmed, &v); err != nil {
		return nil, &Error{Kind: KindServer, Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return &v, nil
}

func idPath(prefix string, id int64) string {
	return fmt.Sprintf("%s/%d", prefix, id)
}
