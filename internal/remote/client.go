package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/AnshRaj112/canteen-backend/internal/models"
)

var (
	// ErrNotFound is returned for an unknown household or invite code.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized is returned when the membership token is missing or rejected.
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the household store.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("household store returned status %d", e.Status)
	}
	return fmt.Sprintf("household store returned status %d: %s", e.Status, e.Message)
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden
	}
	return false
}

// Temporary reports whether retrying the same request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status >= 500 || e.Status == http.StatusTooManyRequests
}

// Client talks to the household store over HTTP and its change stream over WebSocket.
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	dialer     *websocket.Dialer
	logger     *zap.Logger

	mu    sync.RWMutex
	token string
	etags map[string]cachedBucket
}

type cachedBucket struct {
	etag string
	data json.RawMessage
}

func New(baseURL, clientID string, timeout time.Duration, logger *zap.Logger) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		clientID: clientID,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		dialer: &websocket.Dialer{
			HandshakeTimeout: timeout,
		},
		logger: logger,
		etags:  make(map[string]cachedBucket),
	}
}

// ClientID is sent with every write and comes back as the origin of its change events.
func (c *Client) ClientID() string {
	return c.clientID
}

// Authorize sets the membership token used for household-scoped calls. An empty
// token drops membership and the cached bucket validators.
func (c *Client) Authorize(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	if token == "" {
		c.etags = make(map[string]cachedBucket)
	}
}

func (c *Client) authToken() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) newRequest(ctx context.Context, method, path string, body []byte) (*http.Request, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.clientID != "" {
		req.Header.Set("X-Client-ID", c.clientID)
	}
	if token := c.authToken(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

// do sends req and decodes a 2xx JSON answer into out.
func (c *Client) do(req *http.Request, out any) (*http.Response, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotModified {
		return resp, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, decodeAPIError(resp)
	}
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp, fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return resp, nil
}

func decodeAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode}
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		apiErr.Message = envelope.Message
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}
	return apiErr
}

func (c *Client) postJSON(ctx context.Context, method, path string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return err
	}
	_, err = c.do(req, out)
	return err
}

func householdPath(id string) string {
	return "/api/households/" + url.PathEscape(id)
}

func bucketPath(id string, bucket models.Bucket) string {
	return householdPath(id) + "/buckets/" + url.PathEscape(string(bucket))
}

// withToken copies the household and attaches the membership token.
func withToken(h *models.Household, token string) *models.Household {
	if h == nil {
		return nil
	}
	cp := *h
	cp.Token = token
	return &cp
}

// CreateHousehold allocates a household. The returned reference carries its token.
func (c *Client) CreateHousehold(ctx context.Context, name string) (*models.Household, error) {
	var resp models.HouseholdResponse
	if err := c.postJSON(ctx, http.MethodPost, "/api/households", models.CreateHouseholdRequest{Name: name}, &resp); err != nil {
		return nil, fmt.Errorf("create household: %w", err)
	}
	if resp.Household == nil || resp.Token == "" {
		return nil, errors.New("create household: response without household")
	}
	return withToken(resp.Household, resp.Token), nil
}

// FindHouseholdByCode resolves an invite code. An unknown code is (nil, nil).
func (c *Client) FindHouseholdByCode(ctx context.Context, code string) (*models.Household, error) {
	var resp models.HouseholdResponse
	err := c.postJSON(ctx, http.MethodPost, "/api/households/join", models.JoinHouseholdRequest{Code: code}, &resp)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("join household: %w", err)
	}
	if resp.Household == nil || resp.Token == "" {
		return nil, errors.New("join household: response without household")
	}
	return withToken(resp.Household, resp.Token), nil
}

func (c *Client) GetHousehold(ctx context.Context, id string) (*models.Household, error) {
	req, err := c.newRequest(ctx, http.MethodGet, householdPath(id), nil)
	if err != nil {
		return nil, err
	}
	var resp models.HouseholdResponse
	if _, err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return withToken(resp.Household, c.authToken()), nil
}

// RenameHousehold renames the household; the server notifies every member.
func (c *Client) RenameHousehold(ctx context.Context, id, name string) (*models.Household, error) {
	var resp models.HouseholdResponse
	if err := c.postJSON(ctx, http.MethodPut, householdPath(id), models.RenameHouseholdRequest{Name: name}, &resp); err != nil {
		return nil, fmt.Errorf("rename household: %w", err)
	}
	return withToken(resp.Household, c.authToken()), nil
}

// GetBucket reads one bucket and the household revision it reflects. Unchanged
// buckets are revalidated with If-None-Match and served from memory.
func (c *Client) GetBucket(ctx context.Context, id string, bucket models.Bucket) (json.RawMessage, int64, error) {
	path := bucketPath(id, bucket)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, 0, err
	}
	c.mu.RLock()
	cached, hasCached := c.etags[path]
	c.mu.RUnlock()
	if hasCached {
		req.Header.Set("If-None-Match", cached.etag)
	}

	var out models.BucketResponse
	resp, err := c.do(req, &out)
	if err != nil {
		return nil, 0, fmt.Errorf("get %s: %w", bucket, err)
	}
	if resp.StatusCode == http.StatusNotModified {
		if !hasCached {
			return nil, 0, fmt.Errorf("get %s: not modified without a cached copy", bucket)
		}
		rev, _ := strconv.ParseInt(resp.Header.Get("X-Revision"), 10, 64)
		return cached.data, rev, nil
	}

	if etag := resp.Header.Get("ETag"); etag != "" {
		c.mu.Lock()
		c.etags[path] = cachedBucket{etag: etag, data: out.Data}
		c.mu.Unlock()
	}
	return out.Data, out.Revision, nil
}

// PutBucket replaces a bucket and returns the new household revision.
func (c *Client) PutBucket(ctx context.Context, id string, bucket models.Bucket, data json.RawMessage) (int64, error) {
	return c.writeBucket(ctx, http.MethodPut, bucketPath(id, bucket), bucket, data)
}

// MergeBucket upserts the entities of data by id and returns the new household revision.
func (c *Client) MergeBucket(ctx context.Context, id string, bucket models.Bucket, data json.RawMessage) (int64, error) {
	return c.writeBucket(ctx, http.MethodPost, bucketPath(id, bucket)+"/merge", bucket, data)
}

func (c *Client) writeBucket(ctx context.Context, method, path string, bucket models.Bucket, data json.RawMessage) (int64, error) {
	req, err := c.newRequest(ctx, method, path, data)
	if err != nil {
		return 0, err
	}
	var out models.WriteResponse
	if _, err := c.do(req, &out); err != nil {
		return 0, fmt.Errorf("write %s: %w", bucket, err)
	}
	return out.Revision, nil
}

// GenerateRecipe asks the server's AI provider for a draft. Failures are returned
// as is; the caller decides whether to ask again.
func (c *Client) GenerateRecipe(ctx context.Context, idea string) (*models.RecipeDraft, error) {
	var resp models.GenerateRecipeResponse
	if err := c.postJSON(ctx, http.MethodPost, "/api/recipes/generate", models.GenerateRecipeRequest{Idea: idea}, &resp); err != nil {
		return nil, fmt.Errorf("generate recipe: %w", err)
	}
	if resp.Draft == nil {
		return nil, errors.New("generate recipe: empty draft")
	}
	return resp.Draft, nil
}
