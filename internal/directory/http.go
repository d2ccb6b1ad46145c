package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

const selectFields = "id,userPrincipalName,displayName,givenName,surname,mail," +
	"jobTitle,department,officeLocation,businessPhones,employeeType,accountEnabled,userType,companyName"

// HTTPClient talks to a Graph-style directory API: paged listings via
// nextLink, change feed via deltaLink, tombstones via the removed marker.
type HTTPClient struct {
	base   string
	http   *http.Client
	tokens TokenSource
	logger *slog.Logger
}

// Option configures the HTTPClient.
type Option func(*HTTPClient)

// WithLogger sets a logger for retry and pagination diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(c *HTTPClient) {
		c.logger = logger
	}
}

// WithHTTPClient overrides the underlying HTTP client, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *HTTPClient) {
		c.http = hc
	}
}

// NewHTTP builds a directory client for the given API base URL.
func NewHTTP(base string, tokens TokenSource, opts ...Option) *HTTPClient {
	c := &HTTPClient{
		base:   base,
		tokens: tokens,
		http:   &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// userPayload is the wire shape of one directory user. The removed marker is
// only present on delta tombstones.
type userPayload struct {
	ID             string   `json:"id"`
	PrincipalName  string   `json:"userPrincipalName"`
	DisplayName    string   `json:"displayName"`
	GivenName      string   `json:"givenName"`
	Surname        string   `json:"surname"`
	Mail           string   `json:"mail"`
	JobTitle       string   `json:"jobTitle"`
	Department     string   `json:"department"`
	OfficeLocation string   `json:"officeLocation"`
	BusinessPhones []string `json:"businessPhones"`
	EmployeeType   string   `json:"employeeType"`
	AccountEnabled bool     `json:"accountEnabled"`
	UserType       string   `json:"userType"`
	CompanyName    string   `json:"companyName"`
	Removed        *struct {
		Reason string `json:"reason"`
	} `json:"@removed"`
}

type listEnvelope struct {
	Value     []userPayload `json:"value"`
	NextLink  string        `json:"@odata.nextLink"`
	DeltaLink string        `json:"@odata.deltaLink"`
}

type memberEnvelope struct {
	Value []struct {
		ID string `json:"id"`
	} `json:"value"`
	NextLink string `json:"@odata.nextLink"`
}

func (c *HTTPClient) ListUsers(ctx context.Context, filter Filter) ([]models.SourceRecord, error) {
	q := url.Values{}
	q.Set("$select", selectFields)
	if filter.EnabledOnly {
		q.Set("$filter", "accountEnabled eq true")
	}
	next := c.base + "/users?" + q.Encode()

	var out []models.SourceRecord
	for next != "" {
		var env listEnvelope
		if err := c.get(ctx, next, &env); err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		for _, u := range env.Value {
			out = append(out, toSourceRecord(u))
		}
		next = env.NextLink
	}
	return out, nil
}

func (c *HTTPClient) GetUser(ctx context.Context, identifier string) (models.SourceRecord, error) {
	endpoint := c.base + "/users/" + url.PathEscape(identifier) + "?$select=" + url.QueryEscape(selectFields)
	var u userPayload
	if err := c.get(ctx, endpoint, &u); err != nil {
		return models.SourceRecord{}, fmt.Errorf("get user %s: %w", identifier, err)
	}
	return toSourceRecord(u), nil
}

func (c *HTTPClient) ListGroupMembers(ctx context.Context, groupID string) ([]string, error) {
	next := c.base + "/groups/" + url.PathEscape(groupID) + "/members?$select=id"

	var out []string
	for next != "" {
		var env memberEnvelope
		if err := c.get(ctx, next, &env); err != nil {
			return nil, fmt.Errorf("list group members %s: %w", groupID, err)
		}
		for _, m := range env.Value {
			out = append(out, m.ID)
		}
		next = env.NextLink
	}
	return out, nil
}

func (c *HTTPClient) QueryDelta(ctx context.Context, token string) (models.DeltaPage, error) {
	endpoint := token
	if endpoint == "" {
		endpoint = c.base + "/users/delta?$select=" + url.QueryEscape(selectFields)
	}

	var env listEnvelope
	if err := c.get(ctx, endpoint, &env); err != nil {
		return models.DeltaPage{}, fmt.Errorf("query delta: %w", err)
	}

	page := models.DeltaPage{
		NextPage:   env.NextLink,
		DeltaToken: env.DeltaLink,
	}
	for _, u := range env.Value {
		page.Entries = append(page.Entries, models.DeltaEntry{
			Record:  toSourceRecord(u),
			Removed: u.Removed != nil,
		})
	}
	return page, nil
}

// get performs an authenticated GET with a single retry on throttling or
// transient server errors, honoring Retry-After when the directory sends it.
func (c *HTTPClient) get(ctx context.Context, endpoint string, out any) error {
	for attempt := 0; ; attempt++ {
		status, retryAfter, err := c.getOnce(ctx, endpoint, out)
		if err == nil {
			return nil
		}
		if attempt > 0 || !retryable(status) {
			return err
		}
		wait := retryAfter
		if wait <= 0 {
			wait = 2 * time.Second
		}
		if c.logger != nil {
			c.logger.WarnContext(ctx, "directory request throttled, retrying",
				"status", status,
				"wait", wait,
			)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
}

func (c *HTTPClient) getOnce(ctx context.Context, endpoint string, out any) (status int, retryAfter time.Duration, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("build request: %w", err)
	}
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("acquire token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		_, _ = io.Copy(io.Discard, resp.Body)
		return resp.StatusCode, 0, sentinel.ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		_, _ = io.Copy(io.Discard, resp.Body)
		if secs, perr := strconv.Atoi(resp.Header.Get("Retry-After")); perr == nil {
			retryAfter = time.Duration(secs) * time.Second
		}
		return resp.StatusCode, retryAfter, fmt.Errorf("%w: directory returned %d", sentinel.ErrUnavailable, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return resp.StatusCode, 0, fmt.Errorf("directory returned %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return resp.StatusCode, 0, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, 0, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func toSourceRecord(u userPayload) models.SourceRecord {
	return models.SourceRecord{
		ExternalID:     u.ID,
		PrincipalName:  u.PrincipalName,
		DisplayName:    u.DisplayName,
		GivenName:      u.GivenName,
		Surname:        u.Surname,
		Email:          u.Mail,
		JobTitle:       u.JobTitle,
		Department:     u.Department,
		Office:         u.OfficeLocation,
		Phones:         u.BusinessPhones,
		EmployeeType:   u.EmployeeType,
		AccountEnabled: u.AccountEnabled,
		UserType:       models.UserType(strings.ToLower(u.UserType)),
		Company:        u.CompanyName,
	}
}
