package directory

import (
	"context"
	"strings"
	"sync"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

// MemoryClient is the in-memory directory used by unit tests and local runs.
// Delta pages are scripted by the test via QueueDeltaPage.
type MemoryClient struct {
	mu         sync.Mutex
	users      []models.SourceRecord
	groups     map[string][]string
	deltaPages map[string]models.DeltaPage

	FailList  error
	FailGet   error
	FailDelta error
}

func NewMemoryClient() *MemoryClient {
	return &MemoryClient{
		groups:     make(map[string][]string),
		deltaPages: make(map[string]models.DeltaPage),
	}
}

// AddUser registers a directory identity.
func (c *MemoryClient) AddUser(rec models.SourceRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.users = append(c.users, rec)
}

// SetGroup registers a group's membership.
func (c *MemoryClient) SetGroup(groupID string, memberIDs []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.groups[groupID] = memberIDs
}

// QueueDeltaPage scripts the page returned for a given token ("" is the
// initial window).
func (c *MemoryClient) QueueDeltaPage(token string, page models.DeltaPage) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deltaPages[token] = page
}

func (c *MemoryClient) ListUsers(_ context.Context, filter Filter) ([]models.SourceRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailList != nil {
		return nil, c.FailList
	}
	out := make([]models.SourceRecord, 0, len(c.users))
	for _, u := range c.users {
		if filter.EnabledOnly && !u.AccountEnabled {
			continue
		}
		out = append(out, u)
	}
	return out, nil
}

func (c *MemoryClient) GetUser(_ context.Context, identifier string) (models.SourceRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailGet != nil {
		return models.SourceRecord{}, c.FailGet
	}
	for _, u := range c.users {
		if u.ExternalID == identifier || strings.EqualFold(u.PrincipalName, identifier) {
			return u, nil
		}
	}
	return models.SourceRecord{}, sentinel.ErrNotFound
}

func (c *MemoryClient) ListGroupMembers(_ context.Context, groupID string) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	members, ok := c.groups[groupID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return append([]string(nil), members...), nil
}

func (c *MemoryClient) QueryDelta(_ context.Context, token string) (models.DeltaPage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.FailDelta != nil {
		return models.DeltaPage{}, c.FailDelta
	}
	page, ok := c.deltaPages[token]
	if !ok {
		// Unscripted token: empty final page that re-issues the token.
		return models.DeltaPage{DeltaToken: token}, nil
	}
	return page, nil
}
