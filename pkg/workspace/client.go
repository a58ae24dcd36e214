package workspace

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	sgerrors "github.com/sg-platform/sgctl/pkg/errors"
)

const (
	// DefaultAddress is the Terraform Enterprise / HCP Terraform hostname.
	DefaultAddress = "app.terraform.io"

	contentTypeJSONAPI = "application/vnd.api+json"

	// TFE throttles at 30 requests per second per token; stay well under.
	requestsPerSecond = 10

	listPageSize = 100
)

// API is the subset of the TFE API the provisioner uses. *Client satisfies
// it; tests substitute fakes.
type API interface {
	GetWorkspace(ctx context.Context, name string) (*Workspace, error)
	CreateWorkspace(ctx context.Context, cfg Config) (*Workspace, error)
	UpdateWorkspace(ctx context.Context, workspaceID string, cfg Config) (*Workspace, error)
	CreateRun(ctx context.Context, workspaceID, message string, autoApply bool) (*Run, error)
	SetVariable(ctx context.Context, workspaceID string, v Variable) error
	ListVariables(ctx context.Context, workspaceID string) ([]Variable, error)
}

// Client is a minimal TFE API v2 client scoped to one organization.
type Client struct {
	httpc   *resty.Client
	org     string
	limiter *rate.Limiter
}

// ClientOption represents a client option.
type ClientOption func(*Client)

// WithAddress points the client at a non-default TFE hostname.
func WithAddress(address string) ClientOption {
	return func(c *Client) {
		if address != "" {
			c.httpc.SetBaseURL(fmt.Sprintf("https://%s/api/v2", address))
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.httpc.SetTimeout(d)
	}
}

// NewClient creates a TFE client authenticated with the given token.
func NewClient(token, org string, opts ...ClientOption) *Client {
	httpc := resty.New().
		SetBaseURL(fmt.Sprintf("https://%s/api/v2", DefaultAddress)).
		SetHeader("Authorization", "Bearer "+token).
		SetHeader("Content-Type", contentTypeJSONAPI).
		SetTimeout(30 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second)

	c := &Client{
		httpc:   httpc,
		org:     org,
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// request builds a rate-limited request tagged with a correlation id so
// TFE audit logs can be matched back to pipeline runs.
func (c *Client) request(ctx context.Context) (*resty.Request, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	return c.httpc.R().
		SetContext(ctx).
		SetHeader("X-Correlation-Id", uuid.NewString()), nil
}

// GetWorkspace fetches a workspace by name. A missing workspace returns
// (nil, nil), not an error.
func (c *Client) GetWorkspace(ctx context.Context, name string) (*Workspace, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var doc workspaceDocument
	resp, err := req.SetResult(&doc).
		Get(fmt.Sprintf("/organizations/%s/workspaces/%s", c.org, name))
	if err != nil {
		return nil, fmt.Errorf("failed to get workspace %s: %w", name, err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, nil
	}
	if resp.IsError() {
		return nil, apiError("GET", resp)
	}
	return &doc.Data, nil
}

// ListWorkspaces returns all workspaces in the organization, optionally
// filtered by a name search.
func (c *Client) ListWorkspaces(ctx context.Context, search string) ([]Workspace, error) {
	var workspaces []Workspace
	for page := 1; ; page++ {
		req, err := c.request(ctx)
		if err != nil {
			return nil, err
		}
		req.SetQueryParam("page[number]", fmt.Sprintf("%d", page)).
			SetQueryParam("page[size]", fmt.Sprintf("%d", listPageSize))
		if search != "" {
			req.SetQueryParam("search[name]", search)
		}

		var doc workspaceListDocument
		resp, err := req.SetResult(&doc).
			Get(fmt.Sprintf("/organizations/%s/workspaces", c.org))
		if err != nil {
			return nil, fmt.Errorf("failed to list workspaces: %w", err)
		}
		if resp.IsError() {
			return nil, apiError("GET", resp)
		}

		workspaces = append(workspaces, doc.Data...)
		if page >= doc.Meta.Pagination.TotalPages {
			break
		}
	}
	return workspaces, nil
}

// CreateWorkspace creates a new workspace from the desired configuration.
func (c *Client) CreateWorkspace(ctx context.Context, cfg Config) (*Workspace, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var doc workspaceDocument
	resp, err := req.SetBody(cfg.payload()).SetResult(&doc).
		Post(fmt.Sprintf("/organizations/%s/workspaces", c.org))
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", cfg.Name, err)
	}
	if resp.IsError() {
		return nil, apiError("POST", resp)
	}
	slog.Info("created workspace", "workspace", cfg.Name, "id", doc.Data.ID)
	return &doc.Data, nil
}

// UpdateWorkspace patches an existing workspace to the desired
// configuration.
func (c *Client) UpdateWorkspace(ctx context.Context, workspaceID string, cfg Config) (*Workspace, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var doc workspaceDocument
	resp, err := req.SetBody(cfg.payload()).SetResult(&doc).
		Patch("/workspaces/" + workspaceID)
	if err != nil {
		return nil, fmt.Errorf("failed to update workspace %s: %w", cfg.Name, err)
	}
	if resp.IsError() {
		return nil, apiError("PATCH", resp)
	}
	slog.Info("updated workspace", "workspace", cfg.Name, "id", workspaceID)
	return &doc.Data, nil
}

// CreateRun queues a run on the workspace.
func (c *Client) CreateRun(ctx context.Context, workspaceID, message string, autoApply bool) (*Run, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	body := map[string]any{
		"data": map[string]any{
			"type": "runs",
			"attributes": map[string]any{
				"message":    message,
				"auto-apply": autoApply,
			},
			"relationships": map[string]any{
				"workspace": map[string]any{
					"data": map[string]any{
						"type": "workspaces",
						"id":   workspaceID,
					},
				},
			},
		},
	}
	var doc runDocument
	resp, err := req.SetBody(body).SetResult(&doc).Post("/runs")
	if err != nil {
		return nil, fmt.Errorf("failed to create run on %s: %w", workspaceID, err)
	}
	if resp.IsError() {
		return nil, apiError("POST", resp)
	}
	return &doc.Data, nil
}

// SetVariable creates a workspace variable.
func (c *Client) SetVariable(ctx context.Context, workspaceID string, v Variable) error {
	req, err := c.request(ctx)
	if err != nil {
		return err
	}
	body := map[string]any{
		"data": map[string]any{
			"type":       "vars",
			"attributes": v,
		},
	}
	resp, err := req.SetBody(body).Post(fmt.Sprintf("/workspaces/%s/vars", workspaceID))
	if err != nil {
		return fmt.Errorf("failed to set variable %s on %s: %w", v.Key, workspaceID, err)
	}
	if resp.IsError() {
		return apiError("POST", resp)
	}
	return nil
}

// ListVariables returns the workspace's variables.
func (c *Client) ListVariables(ctx context.Context, workspaceID string) ([]Variable, error) {
	req, err := c.request(ctx)
	if err != nil {
		return nil, err
	}
	var doc variableListDocument
	resp, err := req.SetResult(&doc).Get(fmt.Sprintf("/workspaces/%s/vars", workspaceID))
	if err != nil {
		return nil, fmt.Errorf("failed to list variables on %s: %w", workspaceID, err)
	}
	if resp.IsError() {
		return nil, apiError("GET", resp)
	}
	vars := make([]Variable, 0, len(doc.Data))
	for _, item := range doc.Data {
		vars = append(vars, item.Attributes)
	}
	return vars, nil
}

func apiError(method string, resp *resty.Response) error {
	return sgerrors.NewWithContext(
		sgerrors.CodeFromStatus(resp.StatusCode()),
		fmt.Sprintf("TFE API %s %s returned %d: %s",
			method, resp.Request.URL, resp.StatusCode(), resp.String()),
		map[string]any{
			"method": method,
			"url":    resp.Request.URL,
			"status": resp.StatusCode(),
		})
}
