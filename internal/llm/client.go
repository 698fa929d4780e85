// Package llm implements the extraction-service client: one vision
// chat-completions call per work item with bounded retry and response
// envelope normalization.
package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/pagelift/pagelift/internal/domain"
	"github.com/pagelift/pagelift/internal/observability"
)

// Config holds extraction-service client settings.
type Config struct {
	BaseURL        string
	APIKey         string
	Model          string
	ConnectTimeout time.Duration
	ReadTimeout    time.Duration
	Retries        int
	BackoffBase    time.Duration
}

// Client performs extraction calls against a chat-completions endpoint.
type Client struct {
	cfg        Config
	httpClient *http.Client
	logger     *observability.Logger
}

// Message is one chat message.
type Message struct {
	Role    string        `json:"role"`
	Content []ContentPart `json:"content"`
}

// ContentPart is one part of message content (text or image).
type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

// ImageURL carries an image reference, here always a data URI.
type ImageURL struct {
	URL string `json:"url"`
}

// Request is the chat-completions request body.
type Request struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Thinking *Thinking `json:"thinking,omitempty"`
}

// Thinking disables the provider's chain-of-thought output, which would
// otherwise slow responses and pollute the text payload.
type Thinking struct {
	Type string `json:"type"`
}

// NewClient creates an extraction client.
func NewClient(cfg Config, logger *observability.Logger) *Client {
	if cfg.Retries < 0 {
		cfg.Retries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 10 * time.Second
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 180 * time.Second
	}
	if logger == nil {
		logger = observability.Nop()
	}

	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout: cfg.ConnectTimeout,
		}).DialContext,
		// Proxy env vars are ignored on purpose: a configured but
		// unreachable proxy turns every extraction call into a timeout.
		Proxy: nil,
	}

	return &Client{
		cfg: cfg,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   cfg.ReadTimeout,
		},
		logger: logger,
	}
}

// Extract runs one extraction call for the image at path. It returns the
// normalized text payload and best-effort usage counters. Transport errors
// are retried with exponential backoff plus jitter; HTTP-level rejections
// are permanent and surface immediately.
func (c *Client) Extract(ctx context.Context, imagePath string, mode domain.ExtractMode) (string, domain.Usage, error) {
	body, err := c.buildRequestBody(imagePath, mode)
	if err != nil {
		return "", domain.Usage{}, err
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"

	var resp *http.Response
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return "", domain.Usage{}, domain.APIError("build request", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err = c.httpClient.Do(req)
		if err == nil {
			break
		}
		if ctx.Err() != nil {
			return "", domain.Usage{}, domain.TransientError("request cancelled", ctx.Err())
		}
		if attempt >= c.cfg.Retries {
			return "", domain.Usage{}, domain.TransientError(
				fmt.Sprintf("request failed after %d attempts", attempt+1), err)
		}

		delay := c.backoff(attempt)
		c.logger.Warn().
			Str("image", filepath.Base(imagePath)).
			Int("attempt", attempt+1).
			Dur("backoff", delay).
			Err(err).
			Msg("Extraction call failed, retrying")

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", domain.Usage{}, domain.TransientError("request cancelled", ctx.Err())
		}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", domain.Usage{}, domain.TransientError("read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", domain.Usage{}, domain.APIError(
			fmt.Sprintf("extraction service returned status %d: %s", resp.StatusCode, truncate(string(raw), 200)), nil)
	}

	text, usage := normalizeResponse(raw)
	return text, usage, nil
}

// backoff computes base*2^attempt plus up to 500ms of jitter.
func (c *Client) backoff(attempt int) time.Duration {
	return c.cfg.BackoffBase*(1<<attempt) + time.Duration(rand.Int63n(int64(500*time.Millisecond)))
}

// buildRequestBody assembles the vision request for one image.
func (c *Client) buildRequestBody(imagePath string, mode domain.ExtractMode) ([]byte, error) {
	dataURI, err := encodeDataURI(imagePath)
	if err != nil {
		return nil, err
	}

	prompt := textPrompt
	if mode == domain.ModeTable {
		prompt = tablePrompt
	}

	req := Request{
		Model: c.cfg.Model,
		Messages: []Message{{
			Role: "user",
			Content: []ContentPart{
				{Type: "image_url", ImageURL: &ImageURL{URL: dataURI}},
				{Type: "text", Text: prompt},
			},
		}},
		Thinking: &Thinking{Type: "disabled"},
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, domain.APIError("marshal request", err)
	}
	return body, nil
}

// encodeDataURI reads an image file and encodes it as a base64 data URI.
func encodeDataURI(imagePath string) (string, error) {
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", domain.IOError("read image", err)
	}

	mimeType := mime.TypeByExtension(filepath.Ext(imagePath))
	if mimeType == "" || !strings.HasPrefix(mimeType, "image/") {
		mimeType = "image/png"
	}
	return "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// normalizeResponse extracts the text payload and usage counters from the
// varying response envelopes the service produces. Absent fields yield
// zero/empty values, never errors: a successful HTTP response with an
// unusable body is the parser's problem, not the client's.
func normalizeResponse(raw []byte) (string, domain.Usage) {
	body := string(raw)

	var text string
	content := gjson.Get(body, "choices.0.message.content")
	switch {
	case content.Type == gjson.String:
		text = content.String()
	case content.IsArray():
		var parts []string
		content.ForEach(func(_, seg gjson.Result) bool {
			if t := seg.Get("text").String(); t != "" {
				parts = append(parts, t)
			}
			return true
		})
		text = strings.Join(parts, "")
	}
	if text == "" {
		text = gjson.Get(body, "output_text").String()
	}
	if text == "" {
		text = body
	}

	usage := domain.Usage{
		Prompt:     int(gjson.Get(body, "usage.prompt_tokens").Int()),
		Completion: int(gjson.Get(body, "usage.completion_tokens").Int()),
		Total:      int(gjson.Get(body, "usage.total_tokens").Int()),
	}
	return text, usage
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
