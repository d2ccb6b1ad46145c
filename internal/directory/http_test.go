package directory

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dirsync/internal/sync/models"
	"dirsync/pkg/platform/sentinel"
)

func newTestClient(t *testing.T, handler http.Handler) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewHTTP(srv.URL, StaticTokenSource("test-token"))
}

func TestListUsersFollowsPaging(t *testing.T) {
	var calls atomic.Int32
	var base string
	mux := http.NewServeMux()
	mux.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		if calls.Add(1) == 1 {
			assert.Equal(t, "accountEnabled eq true", r.URL.Query().Get("$filter"))
			w.Write([]byte(`{
				"value": [{"id": "u1", "userPrincipalName": "a@x.com", "mail": "a@x.com", "accountEnabled": true, "userType": "Member"}],
				"@odata.nextLink": "` + base + `/users?page=2"
			}`))
			return
		}
		w.Write([]byte(`{
			"value": [{"id": "u2", "userPrincipalName": "b@x.com", "mail": "b@x.com", "accountEnabled": true, "userType": "Guest", "businessPhones": ["+1 555 0100"]}]
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	base = srv.URL
	client := NewHTTP(srv.URL, StaticTokenSource("test-token"))

	users, err := client.ListUsers(context.Background(), Filter{EnabledOnly: true})
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "u1", users[0].ExternalID)
	assert.Equal(t, models.UserTypeMember, users[0].UserType)
	assert.Equal(t, models.UserTypeGuest, users[1].UserType)
	assert.Equal(t, []string{"+1 555 0100"}, users[1].Phones)
}

func TestGetUser(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/users/u1":
			w.Write([]byte(`{"id": "u1", "userPrincipalName": "a@x.com", "displayName": "Ada", "accountEnabled": true}`))
		default:
			http.NotFound(w, r)
		}
	}))

	user, err := client.GetUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.DisplayName)

	_, err = client.GetUser(context.Background(), "missing")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestListGroupMembers(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/groups/grp-1/members", r.URL.Path)
		w.Write([]byte(`{"value": [{"id": "u1"}, {"id": "u2"}]}`))
	}))

	members, err := client.ListGroupMembers(context.Background(), "grp-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"u1", "u2"}, members)
}

func TestQueryDeltaDecodesTombstones(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/delta", r.URL.Path)
		w.Write([]byte(`{
			"value": [
				{"id": "u1", "userPrincipalName": "a@x.com", "accountEnabled": true},
				{"id": "u2", "@removed": {"reason": "deleted"}}
			],
			"@odata.deltaLink": "https://dir.example/users/delta?$deltatoken=abc"
		}`))
	}))

	page, err := client.QueryDelta(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, page.Entries, 2)
	assert.False(t, page.Entries[0].Removed)
	assert.True(t, page.Entries[1].Removed)
	assert.Equal(t, "u2", page.Entries[1].Record.ExternalID)
	assert.Empty(t, page.NextPage)
	assert.Equal(t, "https://dir.example/users/delta?$deltatoken=abc", page.DeltaToken)
}

func TestQueryDeltaResumesFromToken(t *testing.T) {
	var gotToken string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.URL.Query().Get("$deltatoken")
		w.Write([]byte(`{"value": [], "@odata.deltaLink": "next"}`))
	}))
	t.Cleanup(srv.Close)
	client := NewHTTP(srv.URL, StaticTokenSource("test-token"))

	// A stored token is a full URL; the client follows it verbatim.
	page, err := client.QueryDelta(context.Background(), srv.URL+"/users/delta?$deltatoken=stored")
	require.NoError(t, err)
	assert.Equal(t, "stored", gotToken)
	assert.Equal(t, "next", page.DeltaToken)
}

func TestRetriesOnceOnThrottle(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.Write([]byte(`{"value": [{"id": "u1", "accountEnabled": true}]}`))
	}))

	users, err := client.ListUsers(context.Background(), Filter{})
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGivesUpAfterSecondFailure(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Retry-After", "1")
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.ListUsers(context.Background(), Filter{})
	assert.ErrorIs(t, err, sentinel.ErrUnavailable)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error": "bad select"}`))
	}))

	_, err := client.ListUsers(context.Background(), Filter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
	assert.Equal(t, int32(1), calls.Load())
}
