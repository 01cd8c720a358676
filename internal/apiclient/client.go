// Package apiclient talks to the Pathlight backend. Every call resolves to an
// Envelope; transport failures, timeouts and unparseable bodies are folded
// into it so callers only ever branch on its fields.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
	"time"

	"pathlight-web/pkg/logger"
)

// maxBodyBytes caps how much of a backend response is read
const maxBodyBytes = 10 << 20

// TokenSource supplies the bearer credential for outgoing calls
type TokenSource interface {
	GetToken() (string, bool)
}

// File is a multipart upload attached to a Request
type File struct {
	FieldName   string
	FileName    string
	ContentType string
	Content     io.Reader
}

// Request describes one backend call
type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON-encoded, or sent as extra form fields when File is set
	Body interface{}
	File *File
}

// Client issues backend calls. It is safe for concurrent use; For returns a
// shallow copy bound to a caller's token source.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	logger     *logger.Logger
}

// New creates a client for the backend at baseURL
func New(baseURL string, timeout time.Duration, log *logger.Logger) *Client {
	if log == nil {
		log = logger.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: log,
	}
}

// For returns a client that attaches tokens from src
func (c *Client) For(src TokenSource) *Client {
	cp := *c
	cp.tokens = src
	return &cp
}

// BaseURL returns the backend root the client was built with
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do performs exactly one backend call and never fails outright
func (c *Client) Do(ctx context.Context, req Request) *Envelope {
	start := time.Now()
	log := c.logger.WithFields(map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
	})

	httpReq, err := c.build(ctx, req)
	if err != nil {
		log.WithError(err).Error("Failed to build backend request")
		return &Envelope{Status: StatusNetworkError, Error: msgNetwork + ": " + err.Error()}
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if isTimeout(ctx, err) {
			log.WithField("duration", time.Since(start)).Warn("Backend call timed out")
			return timeoutEnvelope()
		}
		log.WithError(err).Warn("Backend unreachable")
		return networkEnvelope(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		if isTimeout(ctx, err) {
			return timeoutEnvelope()
		}
		log.WithError(err).WithField("status_code", resp.StatusCode).Warn("Failed to read backend response")
		return &Envelope{Status: resp.StatusCode, Error: msgMalformed}
	}

	env := parseBody(resp.StatusCode, body)
	log.WithFields(map[string]interface{}{
		"status_code": resp.StatusCode,
		"duration":    time.Since(start),
	}).Debug("Backend call completed")
	return env
}

func (c *Client) build(ctx context.Context, req Request) (*http.Request, error) {
	target := c.baseURL + "/" + strings.TrimLeft(req.Path, "/")
	if len(req.Query) > 0 {
		target += "?" + req.Query.Encode()
	}

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.File != nil:
		buf, ct, err := encodeMultipart(req.File, req.Body)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case req.Body != nil:
		raw, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		body, contentType = bytes.NewReader(raw), "application/json"
	}

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}
	httpReq, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		if tok, ok := c.tokens.GetToken(); ok {
			httpReq.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	return httpReq, nil
}

func encodeMultipart(f *File, fields interface{}) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	mw := multipart.NewWriter(buf)

	if form, ok := fields.(map[string]string); ok {
		for k, v := range form {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", fmt.Errorf("failed to write form field: %w", err)
			}
		}
	}

	field := f.FieldName
	if field == "" {
		field = "file"
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, field, f.FileName))
	ct := f.ContentType
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := mw.CreatePart(h)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create file part: %w", err)
	}
	if _, err := io.Copy(part, f.Content); err != nil {
		return nil, "", fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to finish multipart body: %w", err)
	}
	return buf, mw.FormDataContentType(), nil
}

func parseBody(status int, body []byte) *Envelope {
	env := &Envelope{Status: status}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		if status >= 200 && status < 300 {
			return env
		}
		env.Error = http.StatusText(status)
		if env.Error == "" {
			env.Error = msgUnknown
		}
		return env
	}

	if !json.Valid(trimmed) {
		env.Error = msgMalformed
		return env
	}

	env.Data = json.RawMessage(trimmed)
	env.Message = backendMessage(trimmed)
	return env
}

// backendMessage pulls a human-readable message out of a JSON body. It
// understands {"message": ...}, {"detail": "..."} and the list form
// {"detail": [{"msg": "..."}]}.
func backendMessage(body []byte) string {
	var fields struct {
		Message json.RawMessage `json:"message"`
		Detail  json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(body, &fields); err != nil {
		return ""
	}
	for _, raw := range []json.RawMessage{fields.Message, fields.Detail} {
		if len(raw) == 0 {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(raw, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
			return list[0].Msg
		}
	}
	return ""
}

func isTimeout(ctx context.Context, err error) bool {
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return stderrors.As(err, &netErr) && netErr.Timeout()
}
