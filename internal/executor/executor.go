// Package executor dispatches parsed requests to the (out-of-scope) skill
// backends. The core treats each skill executor as an opaque async function
// returning a structured result or failing; this package is the one seam
// between that interface and real HTTP calls to backend services.
//
// The correlate-and-wait shape is adapted from the teacher's RabbitMQ RPC
// client (internal/rpc/publisher.go): every call is tagged with a
// correlation id for tracing and bounded by a per-call deadline, except the
// transport here is a direct HTTP round trip instead of a topic-exchange
// publish, since skill backends are plain HTTP services rather than
// message-bus consumers.
package executor

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/yuin/goldmark"

	"github.com/jhaveripatric/x402-agent-gateway/internal/logx"
)

// DefaultTimeout is the per-call deadline enforced on every executor
// invocation per §5 ("Executor invocations carry a per-call timeout (30s)").
const DefaultTimeout = 30 * time.Second

// Result is the structured outcome of an executor call. Executor failure
// is modeled as a value (Success == false), never as a Go error escaping
// past the caller — per the design notes, exceptions inside executors are
// re-architected into a result type.
type Result struct {
	Success     bool
	ContentType string
	Body        []byte
	Data        map[string]any
	ErrorReason string
}

// Config points the executor at the backend services for priced skills and
// the optional AI provider.
type Config struct {
	ScreenshotURL string
	PDFURL        string
	AIProviderURL string
	AIProviderKey string
}

// Client dispatches parsed requests to skill backends.
type Client struct {
	cfg    Config
	http   *http.Client
	logger logx.Logger
}

// New creates an executor client bound to the given backend configuration.
func New(cfg Config, logger logx.Logger) *Client {
	if logger == nil {
		logger = logx.NoopLogger{}
	}
	return &Client{
		cfg:    cfg,
		http:   &http.Client{Timeout: DefaultTimeout},
		logger: logger,
	}
}

// Invoke runs the named skill against args, enforcing a 30-second deadline.
// A context already carrying a shorter deadline is respected as-is.
func (c *Client) Invoke(ctx context.Context, skillID string, args map[string]string) *Result {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	correlationID := uuid.New().String()
	c.logger.Debug("executor: dispatching", map[string]any{"skill": skillID, "correlationId": correlationID})

	switch skillID {
	case "markdown-to-html":
		return c.renderMarkdownHTML(args)
	case "markdown-to-pdf":
		return c.callBackend(ctx, correlationID, c.cfg.PDFURL, "application/pdf", args)
	case "screenshot":
		return c.callBackend(ctx, correlationID, c.cfg.ScreenshotURL, "image/png", args)
	case "ai-analysis":
		return c.callAIProvider(ctx, correlationID, args)
	default:
		return &Result{Success: false, ErrorReason: fmt.Sprintf("unknown skill %q", skillID)}
	}
}

// renderMarkdownHTML is the one skill the gateway executes locally rather
// than delegating to a backend process: it is free, has no payment
// consequence, and markdown rendering is cheap enough to do in-process with
// goldmark.
func (c *Client) renderMarkdownHTML(args map[string]string) *Result {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(args["content"]), &buf); err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("render markdown: %v", err)}
	}
	return &Result{
		Success:     true,
		ContentType: "text/html",
		Body:        buf.Bytes(),
		Data:        map[string]any{"html": buf.String()},
	}
}

// callBackend performs a generic POST to a configured backend URL carrying
// args as a JSON body, returning the raw response body as the binary
// output. An unconfigured or unreachable backend is an executor failure,
// not a process crash (§7).
func (c *Client) callBackend(ctx context.Context, correlationID, url, contentType string, args map[string]string) *Result {
	if url == "" {
		return &Result{Success: false, ErrorReason: "backend service not configured"}
	}

	body, err := json.Marshal(args)
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Correlation-Id", correlationID)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return &Result{Success: false, ErrorReason: "executor timeout"}
		}
		return &Result{Success: false, ErrorReason: fmt.Sprintf("backend unreachable: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("backend returned status %d", resp.StatusCode)}
	}

	return &Result{Success: true, ContentType: contentType, Body: respBody}
}

// callAIProvider calls the configured AI provider. If no key is configured
// the call degrades gracefully to a placeholder result rather than failing
// the task (§7: "AI provider unreachable").
func (c *Client) callAIProvider(ctx context.Context, correlationID string, args map[string]string) *Result {
	if c.cfg.AIProviderKey == "" || c.cfg.AIProviderURL == "" {
		return &Result{
			Success: true,
			Data: map[string]any{
				"status": "api_key_required",
				"text":   "AI analysis is unavailable: no provider key configured.",
			},
		}
	}

	payload := map[string]string{"content": args["content"]}
	body, err := json.Marshal(payload)
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("marshal request: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.AIProviderURL, bytes.NewReader(body))
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.AIProviderKey)
	req.Header.Set("X-Correlation-Id", correlationID)

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("executor: ai provider unreachable, degrading", map[string]any{"error": err.Error()})
		return &Result{
			Success: true,
			Data: map[string]any{
				"status": "api_key_required",
				"text":   "AI analysis is temporarily unavailable.",
			},
		}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("read response: %v", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Result{Success: false, ErrorReason: fmt.Sprintf("ai provider returned status %d", resp.StatusCode)}
	}

	var data map[string]any
	if err := json.Unmarshal(respBody, &data); err != nil {
		data = map[string]any{"text": string(respBody)}
	}
	return &Result{Success: true, Data: data}
}
