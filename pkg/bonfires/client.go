// Package bonfires is the typed call-site layer over the shared API client.
// Besides mapping resources to endpoints it decides which cached reads a
// mutation makes stale and invalidates them.
package bonfires

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/zabal/bonfires/pkg/api"
	"github.com/zabal/bonfires/pkg/graph"
	"github.com/zabal/bonfires/pkg/logger"
)

// PaymentHeader carries a signed payment authorization for paid endpoints.
const PaymentHeader = "X-PAYMENT"

// Client wraps an *api.Client. It implements graph.Source.
type Client struct {
	api *api.Client
}

var _ graph.Source = (*Client)(nil)

func NewClient(apiClient *api.Client) *Client {
	return &Client{api: apiClient}
}

// API returns the underlying client, for cache statistics and raw calls.
func (c *Client) API() *api.Client {
	return c.api
}

func bonfirePath(bonfireID string, rest ...string) string {
	p := "/bonfires/" + url.PathEscape(bonfireID)
	for _, r := range rest {
		p += "/" + r
	}
	return p
}

// bonfireKey is the cache fragment shared by every endpoint of a bonfire.
func bonfireKey(bonfireID string, rest ...string) string {
	return bonfirePath(bonfireID, rest...)[1:]
}

func (c *Client) ListBonfires(ctx context.Context) ([]Bonfire, error) {
	return getList[Bonfire](ctx, c.api, "/bonfires", "bonfires")
}

func (c *Client) GetBonfire(ctx context.Context, bonfireID string) (*Bonfire, error) {
	var b Bonfire
	if err := c.api.Get(ctx, bonfirePath(bonfireID), &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (c *Client) ListAgents(ctx context.Context, bonfireID string) ([]Agent, error) {
	return getList[Agent](ctx, c.api, bonfirePath(bonfireID, "agents"), "agents")
}

func (c *Client) ListEpisodes(ctx context.Context, bonfireID string, limit int) ([]Episode, error) {
	endpoint := bonfirePath(bonfireID, "episodes")
	if limit > 0 {
		endpoint += "?limit=" + strconv.Itoa(limit)
	}
	return getList[Episode](ctx, c.api, endpoint, "episodes")
}

// Graph fetches the initial graph of a bonfire, scoped to an agent when
// agentID is set.
func (c *Client) Graph(ctx context.Context, bonfireID, agentID string) (*graph.Data, error) {
	endpoint := bonfirePath(bonfireID, "graph")
	if agentID != "" {
		endpoint += "?" + url.Values{"agent_id": {agentID}}.Encode()
	}
	return c.getGraph(ctx, endpoint)
}

// Expand fetches the one-hop neighborhood of a node.
func (c *Client) Expand(ctx context.Context, bonfireID, nodeUUID string) (*graph.Data, error) {
	return c.ExpandDepth(ctx, bonfireID, nodeUUID, 1)
}

// ExpandDepth fetches the neighborhood of a node up to depth hops.
func (c *Client) ExpandDepth(ctx context.Context, bonfireID, nodeUUID string, depth int) (*graph.Data, error) {
	q := url.Values{"node_uuid": {graph.StripPrefix(nodeUUID)}}
	if depth > 0 {
		q.Set("depth", strconv.Itoa(depth))
	}
	return c.getGraph(ctx, bonfirePath(bonfireID, "graph", "expand")+"?"+q.Encode())
}

func (c *Client) getGraph(ctx context.Context, endpoint string) (*graph.Data, error) {
	var raw json.RawMessage
	if err := c.api.Get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}
	return graph.Decode(raw)
}

// Chat sends a message to an agent. Chat responses are never cached.
func (c *Client) Chat(ctx context.Context, agentID string, req ChatRequest) (*ChatResponse, error) {
	var resp ChatResponse
	endpoint := "/agents/" + url.PathEscape(agentID) + "/chat"
	if err := c.api.Post(ctx, endpoint, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListDataRooms(ctx context.Context, bonfireID string) ([]DataRoom, error) {
	return getList[DataRoom](ctx, c.api, bonfirePath(bonfireID, "datarooms"), "datarooms")
}

// CreateDataRoom creates a paid data room. payment, when set, is forwarded
// as the X-PAYMENT header.
func (c *Client) CreateDataRoom(ctx context.Context, bonfireID string, req CreateDataRoomRequest, payment string) (*DataRoom, error) {
	var opts []api.RequestOption
	if payment != "" {
		opts = append(opts, api.WithHeader(PaymentHeader, payment))
	}

	var room DataRoom
	if err := c.api.Post(ctx, bonfirePath(bonfireID, "datarooms"), req, &room, opts...); err != nil {
		return nil, err
	}
	c.api.InvalidateByPrefix(bonfireKey(bonfireID, "datarooms"))
	return &room, nil
}

func (c *Client) ListHyperBlogs(ctx context.Context, bonfireID string) ([]HyperBlog, error) {
	return getList[HyperBlog](ctx, c.api, bonfirePath(bonfireID, "hyperblogs"), "hyperblogs")
}

// StartHyperBlog starts hyperblog generation and returns the job id.
func (c *Client) StartHyperBlog(ctx context.Context, bonfireID string, req HyperBlogRequest) (string, error) {
	var ref JobRef
	if err := c.api.Post(ctx, bonfirePath(bonfireID, "hyperblogs"), req, &ref); err != nil {
		return "", err
	}
	if ref.JobID == "" {
		return "", errors.New("backend did not return a job id")
	}
	logger.Info("Hyperblog generation started", "bonfire_id", bonfireID, "job_id", ref.JobID)
	return ref.JobID, nil
}

// WaitHyperBlog polls the generation job and returns the finished hyperblog.
// The bonfire's cached hyperblog listings are dropped once the job completes.
func (c *Client) WaitHyperBlog(ctx context.Context, bonfireID, jobID string, opts api.PollOptions) (*HyperBlog, error) {
	result, err := c.api.PollJobStatus(ctx, jobID, opts)
	if err != nil {
		return nil, err
	}
	c.api.InvalidateByPrefix(bonfireKey(bonfireID, "hyperblogs"))

	var blog HyperBlog
	if err := json.Unmarshal(result, &blog); err != nil {
		return nil, fmt.Errorf("failed to decode hyperblog from job %s: %w", jobID, err)
	}
	return &blog, nil
}

// CreateHyperBlog starts generation and waits for it to finish.
func (c *Client) CreateHyperBlog(ctx context.Context, bonfireID string, req HyperBlogRequest, opts api.PollOptions) (*HyperBlog, error) {
	jobID, err := c.StartHyperBlog(ctx, bonfireID, req)
	if err != nil {
		return nil, err
	}
	return c.WaitHyperBlog(ctx, bonfireID, jobID, opts)
}

func (c *Client) JobStatus(ctx context.Context, jobID string) (*api.Job, error) {
	return c.api.JobStatus(ctx, jobID)
}

// InvalidateBonfire drops every cached response of a bonfire: the bonfire
// itself and everything below it. Bonfires whose id merely starts with
// bonfireID are left alone.
func (c *Client) InvalidateBonfire(bonfireID string) int {
	removed := c.api.InvalidateByPrefix(bonfireKey(bonfireID) + "/")
	if c.api.Invalidate(bonfirePath(bonfireID)) {
		removed++
	}
	return removed
}

// getList accepts either a bare JSON array or an object wrapping the array
// under key, since list endpoints are not consistent about it.
func getList[T any](ctx context.Context, c *api.Client, endpoint, key string) ([]T, error) {
	var raw json.RawMessage
	if err := c.Get(ctx, endpoint, &raw); err != nil {
		return nil, err
	}

	var items []T
	if err := json.Unmarshal(raw, &items); err == nil {
		return items, nil
	}

	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, fmt.Errorf("unexpected response from %s: %w", endpoint, err)
	}
	inner, ok := wrapped[key]
	if !ok {
		return nil, fmt.Errorf("unexpected response from %s: missing %q", endpoint, key)
	}
	if err := json.Unmarshal(inner, &items); err != nil {
		return nil, fmt.Errorf("unexpected response from %s: %w", endpoint, err)
	}
	return items, nil
}
