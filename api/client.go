package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	apperrors "github.com/jrsteele09/go-tender-client/internal/errors"
	"github.com/jrsteele09/go-tender-client/simulate"
)

// RequestIDHeader carries a per-request correlation id.
const RequestIDHeader = "X-Request-ID"

const maxResponseBody = 32 << 20 // 32 MB

// Client is the tender platform REST client. Authentication is the concern
// of the *http.Client it is given, normally one decorated by session.Manager.
type Client struct {
	baseURL        string
	httpClient     *http.Client
	logger         zerolog.Logger
	cache          *ResponseCache
	updateCountTTL time.Duration
	responseTTL    time.Duration
	newRequestID   func() string
}

type Option func(*Client)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

func WithCache(cache *ResponseCache) Option {
	return func(c *Client) {
		c.cache = cache
	}
}

// WithUpdateCountTTL sets how long today's update counts are cached. Zero disables it.
func WithUpdateCountTTL(d time.Duration) Option {
	return func(c *Client) {
		c.updateCountTTL = d
	}
}

// WithResponseTTL caches every other GET for d. Off by default.
func WithResponseTTL(d time.Duration) Option {
	return func(c *Client) {
		c.responseTTL = d
	}
}

func WithRequestIDFunc(f func() string) Option {
	return func(c *Client) {
		c.newRequestID = f
	}
}

func New(baseURL string, httpClient *http.Client, options ...Option) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	c := &Client{
		baseURL:        strings.TrimRight(baseURL, "/"),
		httpClient:     httpClient,
		logger:         zerolog.Nop(),
		updateCountTTL: 24 * time.Hour,
		newRequestID:   uuid.NewString,
	}
	for _, opt := range options {
		opt(c)
	}
	if c.cache == nil {
		c.cache = NewResponseCache(nil)
	}
	return c
}

// Cache exposes the response cache so callers can sweep or invalidate it.
func (c *Client) Cache() *ResponseCache {
	return c.cache
}

// TodayUpdateCount returns how many records each list gained today.
func (c *Client) TodayUpdateCount(ctx context.Context) (*UpdateCounts, error) {
	var counts UpdateCounts
	if err := c.getCached(ctx, "/api/today_update_count/", c.updateCountTTL, &counts); err != nil {
		return nil, fmt.Errorf("api.TodayUpdateCount: %w", err)
	}
	return &counts, nil
}

func (c *Client) ListProjects(ctx context.Context, p ListParams) (*Page[Project], error) {
	var page Page[Project]
	if err := c.get(ctx, withQuery("/api/projects/", p.values()), &page); err != nil {
		return nil, fmt.Errorf("api.ListProjects: %w", err)
	}
	return &page, nil
}

func (c *Client) GetProject(ctx context.Context, projectID string) (*ProjectDetail, error) {
	var project ProjectDetail
	if err := c.get(ctx, "/api/projects/"+url.PathEscape(projectID), &project); err != nil {
		return nil, fmt.Errorf("api.GetProject: %w", err)
	}
	return &project, nil
}

func (c *Client) ListBidSections(ctx context.Context, p ListParams) (*Page[BidSection], error) {
	var page Page[BidSection]
	if err := c.get(ctx, withQuery("/api/bid_sections/", p.values()), &page); err != nil {
		return nil, fmt.Errorf("api.ListBidSections: %w", err)
	}
	return &page, nil
}

// GetBids returns every bid opened for a bid section.
func (c *Client) GetBids(ctx context.Context, sectionID string) ([]Bid, error) {
	var bids []Bid
	if err := c.get(ctx, "/api/bids/"+url.PathEscape(sectionID)+"/", &bids); err != nil {
		return nil, fmt.Errorf("api.GetBids: %w", err)
	}
	return bids, nil
}

func (c *Client) ListBidResults(ctx context.Context, p ListParams) (*Page[BidResult], error) {
	var page Page[BidResult]
	if err := c.get(ctx, withQuery("/api/bid_results/", p.values()), &page); err != nil {
		return nil, fmt.Errorf("api.ListBidResults: %w", err)
	}
	return &page, nil
}

// GetBidResult returns the ranked results of the section that result id belongs to.
func (c *Client) GetBidResult(ctx context.Context, id string) ([]BidResult, error) {
	var page Page[BidResult]
	if err := c.get(ctx, "/api/bid_results/"+url.PathEscape(id)+"/", &page); err != nil {
		return nil, fmt.Errorf("api.GetBidResult: %w", err)
	}
	return page.Results, nil
}

// SearchCompanies matches name, unified credit code or legal representative.
func (c *Client) SearchCompanies(ctx context.Context, query string) ([]Company, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.Invalid("query", "is required")
	}
	params := url.Values{}
	params.Set("query", query)

	var companies []Company
	if err := c.get(ctx, withQuery("/api/company-search", params), &companies); err != nil {
		return nil, fmt.Errorf("api.SearchCompanies: %w", err)
	}
	return companies, nil
}

func (c *Client) CompanyBids(ctx context.Context, corpCode string, page int) (*Page[CompanyBid], error) {
	params := url.Values{}
	params.Set("corp_code", corpCode)
	if page > 0 {
		params.Set("page", fmt.Sprint(page))
	}

	var bids Page[CompanyBid]
	if err := c.get(ctx, withQuery("/api/company-bids/", params), &bids); err != nil {
		return nil, fmt.Errorf("api.CompanyBids: %w", err)
	}
	return &bids, nil
}

func (c *Client) CompanyAchievement(ctx context.Context, id string) (*Achievement, error) {
	var a Achievement
	if err := c.get(ctx, "/api/company-achievement/"+url.PathEscape(id)+"/", &a); err != nil {
		return nil, fmt.Errorf("api.CompanyAchievement: %w", err)
	}
	return &a, nil
}

// UserInfo is the raw user-info payload, for callers that do not hold a session.Manager.
func (c *Client) UserInfo(ctx context.Context) (json.RawMessage, error) {
	raw, err := c.do(ctx, http.MethodGet, "/api/user-info/", nil, "")
	if err != nil {
		return nil, fmt.Errorf("api.UserInfo: %w", err)
	}
	return raw, nil
}

// SubmitListSimulation uploads a line-item file with price groups for the
// server to simulate.
func (c *Client) SubmitListSimulation(ctx context.Context, filename string, file io.Reader, groups []simulate.PriceGroup) (*ListSimulationResult, error) {
	if len(groups) == 0 {
		return nil, apperrors.Invalid("groups", "at least one price group is required")
	}
	groupsJSON, err := json.Marshal(groups)
	if err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation marshal groups")
	}

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	if err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation form file")
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation copy file")
	}
	if err := w.WriteField("price_groups", string(groupsJSON)); err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation price_groups")
	}
	if err := w.WriteField("include_full_data", "true"); err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation include_full_data")
	}
	if err := w.Close(); err != nil {
		return nil, apperrors.Wrapf(err, "api.SubmitListSimulation close form")
	}

	raw, err := c.do(ctx, http.MethodPost, "/api/list-simulator/", bytes.NewReader(buf.Bytes()), w.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("api.SubmitListSimulation: %w", err)
	}
	var result ListSimulationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("api.SubmitListSimulation: decode response: %w", err)
	}
	return &result, nil
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.getCached(ctx, path, c.responseTTL, out)
}

func (c *Client) getCached(ctx context.Context, path string, ttl time.Duration, out any) error {
	if ttl > 0 {
		if body, ok := c.cache.Get(path); ok {
			return decode(body, out)
		}
	}
	body, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	if err := decode(body, out); err != nil {
		return err
	}
	c.cache.Put(path, body, ttl)
	return nil
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// do sends a request and returns the body of a 2xx response. Any other
// status becomes a NetworkError carrying the server's detail or error text.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	requestID := c.newRequestID()
	req.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		var authErr *apperrors.AuthError
		if apperrors.As(err, &authErr) {
			return nil, authErr
		}
		return nil, &apperrors.NetworkError{Err: err}
	}
	defer resp.Body.Close() //nolint:errcheck // best-effort close

	c.logger.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Str("request_id", requestID).
		Dur("duration", time.Since(start)).
		Msg("api request")

	if resp.StatusCode >= 400 {
		respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // 1 MB max error body
		if readErr != nil {
			return nil, &apperrors.NetworkError{StatusCode: resp.StatusCode, Message: fmt.Sprintf("failed to read body: %v", readErr)}
		}
		return nil, &apperrors.NetworkError{StatusCode: resp.StatusCode, Message: errorMessage(respBody)}
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, &apperrors.NetworkError{StatusCode: resp.StatusCode, Err: err}
	}
	return raw, nil
}

func errorMessage(body []byte) string {
	var apiErr struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(body, &apiErr) == nil {
		if apiErr.Detail != "" {
			return apiErr.Detail
		}
		if apiErr.Error != "" {
			return apiErr.Error
		}
	}
	return strings.TrimSpace(string(body))
}

func withQuery(path string, v url.Values) string {
	if len(v) == 0 {
		return path
	}
	return path + "?" + v.Encode()
}
