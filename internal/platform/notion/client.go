package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yungbote/lawflow-backend/internal/platform/apierr"
	"github.com/yungbote/lawflow-backend/internal/platform/httpx"
	"github.com/yungbote/lawflow-backend/internal/platform/logger"
)

const (
	DefaultBaseURL = "https://api.notion.com/v1"
	DefaultVersion = "2022-06-28"
)

// PageRef identifies a created page.
type PageRef struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PageProperties are the database columns a generation page fills in.
type PageProperties struct {
	Topic       string
	Stage       string
	Status      string
	Version     int
	Generated   time.Time
	SourceFiles []string
}

type Client interface {
	// CreatePage creates a page under databaseID. Blocks beyond the per-call
	// limit are appended in order in further calls.
	CreatePage(ctx context.Context, databaseID, title string, props PageProperties, blocks []Block) (PageRef, error)
	// ArchivePage is the only removal the API offers.
	ArchivePage(ctx context.Context, pageID string) error
	UpdatePageStatus(ctx context.Context, pageID, status string) error
}

type Config struct {
	Token      string
	BaseURL    string
	Version    string
	Timeout    time.Duration
	MaxRetries int
}

type client struct {
	log        *logger.Logger
	token      string
	baseURL    string
	version    string
	maxRetries int
	httpClient *http.Client
}

// NewClient never fails on a missing token; calls report it as a
// configuration error instead so the rest of the app can still start.
func NewClient(log *logger.Logger, cfg Config) Client {
	if log == nil {
		log = logger.Nop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	version := strings.TrimSpace(cfg.Version)
	if version == "" {
		version = DefaultVersion
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	maxRetries := cfg.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	c := &client{
		log:        log.With("client", "NotionClient"),
		token:      strings.TrimSpace(cfg.Token),
		baseURL:    baseURL,
		version:    version,
		maxRetries: maxRetries,
		httpClient: &http.Client{Timeout: timeout, Transport: otelhttp.NewTransport(http.DefaultTransport)},
	}
	if c.token == "" {
		c.log.Warn("NOTION_TOKEN not set; publishing will fail until it is configured")
	}
	return c
}

type createPageRequest struct {
	Parent     map[string]string `json:"parent"`
	Properties map[string]any    `json:"properties"`
	Children   []Block           `json:"children,omitempty"`
}

type appendChildrenRequest struct {
	Children []Block `json:"children"`
}

func (c *client) CreatePage(ctx context.Context, databaseID, title string, props PageProperties, blocks []Block) (PageRef, error) {
	if err := c.requireToken("notion.create_page"); err != nil {
		return PageRef{}, err
	}
	if strings.TrimSpace(databaseID) == "" {
		return PageRef{}, apierr.Validation("notion.create_page", "database id is required")
	}
	chunks := chunkBlocks(blocks, MaxBlocksPerRequest)
	req := createPageRequest{
		Parent:     map[string]string{"database_id": databaseID},
		Properties: EncodeProperties(title, props),
	}
	if len(chunks) > 0 {
		req.Children = chunks[0]
	}

	var page PageRef
	if err := c.do(ctx, http.MethodPost, "/pages", req, &page); err != nil {
		return PageRef{}, fmt.Errorf("create page: %w", err)
	}
	for i := 1; i < len(chunks); i++ {
		path := "/blocks/" + page.ID + "/children"
		if err := c.do(ctx, http.MethodPatch, path, appendChildrenRequest{Children: chunks[i]}, nil); err != nil {
			// Page exists at this point; hand back its ref so the caller can archive it.
			return page, fmt.Errorf("append blocks chunk %d/%d: %w", i+1, len(chunks), err)
		}
	}
	c.log.Debug("Page created", "page_id", page.ID, "blocks", len(blocks), "calls", len(chunks))
	return page, nil
}

func (c *client) ArchivePage(ctx context.Context, pageID string) error {
	if err := c.requireToken("notion.archive_page"); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, map[string]any{"archived": true}, nil); err != nil {
		return fmt.Errorf("archive page %s: %w", pageID, err)
	}
	return nil
}

func (c *client) UpdatePageStatus(ctx context.Context, pageID, status string) error {
	if err := c.requireToken("notion.update_page_status"); err != nil {
		return err
	}
	body := map[string]any{
		"properties": map[string]any{
			"Status": map[string]any{"select": map[string]string{"name": status}},
		},
	}
	if err := c.do(ctx, http.MethodPatch, "/pages/"+pageID, body, nil); err != nil {
		return fmt.Errorf("update page %s status: %w", pageID, err)
	}
	return nil
}

// EncodeProperties renders props as database property values: select for
// topic, stage and status, number for version, date for generated and
// multi-select for source files. Zero values are omitted.
func EncodeProperties(title string, props PageProperties) map[string]any {
	out := map[string]any{
		"Name": map[string]any{
			"title": []map[string]any{{"text": map[string]string{"content": title}}},
		},
	}
	selects := []struct{ key, val string }{
		{"Topic", props.Topic},
		{"Stage", props.Stage},
		{"Status", props.Status},
	}
	for _, s := range selects {
		if s.val != "" {
			out[s.key] = map[string]any{"select": map[string]string{"name": s.val}}
		}
	}
	if props.Version > 0 {
		out["Version"] = map[string]any{"number": props.Version}
	}
	if !props.Generated.IsZero() {
		out["Generated"] = map[string]any{"date": map[string]string{"start": props.Generated.UTC().Format(time.RFC3339)}}
	}
	if len(props.SourceFiles) > 0 {
		opts := make([]map[string]string, 0, len(props.SourceFiles))
		for _, f := range props.SourceFiles {
			// Multi-select option names cannot contain commas.
			opts = append(opts, map[string]string{"name": strings.ReplaceAll(f, ",", " ")})
		}
		out["Source Files"] = map[string]any{"multi_select": opts}
	}
	return out
}

func (c *client) requireToken(op string) error {
	if c.token == "" {
		return apierr.Configuration(op, "NOTION_TOKEN is not configured", nil)
	}
	return nil
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &httpx.StatusError{Service: "notion", StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	backoff := 500 * time.Millisecond
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("notion decode error: %w", uErr)
			}
			return nil
		}
		if !c.shouldRetry(method, path, err) || attempt == c.maxRetries {
			return err
		}
		sleepFor := httpx.JitterSleep(httpx.RetryAfterDuration(resp, backoff, 10*time.Second))
		c.log.Warn("Notion request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err,
		)
		if err := httpx.Sleep(ctx, sleepFor); err != nil {
			return err
		}
		backoff *= 2
	}
	return fmt.Errorf("unreachable retry loop")
}

// Creating a page and appending children are not idempotent: a request that
// failed server-side may still have been applied. Only rate limiting, which
// is rejected before any write, is retried for them.
func (c *client) shouldRetry(method, path string, err error) bool {
	if method == http.MethodPost || strings.HasSuffix(path, "/children") {
		return httpx.StatusCodeOf(err) == http.StatusTooManyRequests
	}
	return httpx.IsRetryableError(err)
}
