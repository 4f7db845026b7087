package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/dandi/internal/ai"
	"github.com/kiranshivaraju/dandi/internal/ai/mock"
	"github.com/kiranshivaraju/dandi/internal/api"
	"github.com/kiranshivaraju/dandi/internal/api/handler"
	mw "github.com/kiranshivaraju/dandi/internal/api/middleware"
	"github.com/kiranshivaraju/dandi/internal/cache"
	"github.com/kiranshivaraju/dandi/internal/gate"
	"github.com/kiranshivaraju/dandi/internal/github"
	"github.com/kiranshivaraju/dandi/internal/session"
	"github.com/kiranshivaraju/dandi/internal/store"
	"github.com/kiranshivaraju/dandi/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── test fixtures ───────────────────────────────────────────────────────────

const testSecret = "0123456789abcdef0123456789abcdef"

var (
	testUserID  = uuid.MustParse("aaaaaaaa-aaaa-4aaa-8aaa-aaaaaaaaaaaa")
	otherUserID = uuid.MustParse("bbbbbbbb-bbbb-4bbb-8bbb-bbbbbbbbbbbb")
	testKeyID   = uuid.MustParse("cccccccc-cccc-4ccc-8ccc-cccccccccccc")
)

// ─── in-memory store ─────────────────────────────────────────────────────────

// memStore mimics the Postgres store: it hands out copies, so a record read
// by the gate is not changed by a later write.
type memStore struct {
	mu      sync.Mutex
	users   map[uuid.UUID]*models.User
	keys    map[uuid.UUID]*models.APIKey
	touched []string
}

func newMemStore() *memStore {
	now := time.Now().UTC()
	name := "Test User"
	owner := testUserID
	return &memStore{
		users: map[uuid.UUID]*models.User{
			testUserID:  {ID: testUserID, Email: "test@example.com", Name: &name, Provider: "google", CreatedAt: now, LastLogin: now},
			otherUserID: {ID: otherUserID, Email: "other@example.com", Provider: "google", CreatedAt: now.Add(-time.Hour), LastLogin: now},
		},
		keys: map[uuid.UUID]*models.APIKey{
			testKeyID: {
				ID:                testKeyID,
				UserID:            &owner,
				Name:              "Test Key",
				Type:              models.KeyTypeDevelopment,
				Key:               "ak_test123",
				LimitMonthlyUsage: true,
				MonthlyLimit:      5,
				UsageCount:        0,
				CreatedAt:         now,
				UpdatedAt:         now,
			},
		},
	}
}

func (s *memStore) Ping(_ context.Context) error { return nil }

func (s *memStore) GetUser(_ context.Context, id uuid.UUID) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, store.ErrNotFound
}

func (s *memStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) UpsertUser(_ context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *user
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	c.CreatedAt = time.Now().UTC()
	c.LastLogin = c.CreatedAt
	s.users[c.ID] = &c
	out := c
	return &out, nil
}

func (s *memStore) ListUsers(_ context.Context) ([]*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.User{}
	for _, u := range s.users {
		c := *u
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) GetAPIKeysByKey(_ context.Context, key string) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.APIKey
	for _, k := range s.keys {
		if k.Key == key {
			c := *k
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *memStore) byKey(key string) *models.APIKey {
	for _, k := range s.keys {
		if k.Key == key {
			return k
		}
	}
	return nil
}

func (s *memStore) RecordAPIKeyUsage(_ context.Context, key string, usageCount int, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.byKey(key)
	if k == nil {
		return store.ErrNotFound
	}
	k.UsageCount = usageCount
	k.LastUsed = &at
	return nil
}

func (s *memStore) ConsumeAPIKeyUsage(_ context.Context, key string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.byKey(key)
	if k == nil {
		return 0, store.ErrNotFound
	}
	if k.LimitMonthlyUsage && k.UsageCount >= k.MonthlyLimit {
		return 0, store.ErrLimitReached
	}
	k.UsageCount++
	k.LastUsed = &at
	return k.UsageCount, nil
}

func (s *memStore) TouchAPIKey(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if k := s.byKey(key); k != nil {
		k.LastUsed = &at
	}
	s.touched = append(s.touched, key)
	return nil
}

func (s *memStore) CreateAPIKey(_ context.Context, key *models.APIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byKey(key.Key) != nil {
		return store.ErrDuplicateKey
	}
	c := *key
	s.keys[c.ID] = &c
	return nil
}

func (s *memStore) owned(id, userID uuid.UUID) *models.APIKey {
	k, ok := s.keys[id]
	if !ok || k.UserID == nil || *k.UserID != userID {
		return nil
	}
	return k
}

func (s *memStore) GetAPIKey(_ context.Context, id uuid.UUID, userID uuid.UUID) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.owned(id, userID)
	if k == nil {
		return nil, store.ErrNotFound
	}
	c := *k
	return &c, nil
}

func (s *memStore) ListAPIKeys(_ context.Context, userID uuid.UUID) ([]*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.APIKey{}
	for _, k := range s.keys {
		if k.UserID != nil && *k.UserID == userID {
			c := *k
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *memStore) UpdateAPIKey(_ context.Context, id uuid.UUID, userID uuid.UUID, patch models.APIKeyPatch) (*models.APIKey, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := s.owned(id, userID)
	if k == nil {
		return nil, store.ErrNotFound
	}
	k.Name = patch.Name
	if patch.Type != nil {
		k.Type = *patch.Type
	}
	if patch.LimitMonthlyUsage != nil {
		k.LimitMonthlyUsage = *patch.LimitMonthlyUsage
	}
	if patch.MonthlyLimit != nil {
		k.MonthlyLimit = *patch.MonthlyLimit
	}
	c := *k
	return &c, nil
}

func (s *memStore) DeleteAPIKey(_ context.Context, id uuid.UUID, userID uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.owned(id, userID) == nil {
		return store.ErrNotFound
	}
	delete(s.keys, id)
	return nil
}

func (s *memStore) usage(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[id].UsageCount
}

var _ store.Store = (*memStore)(nil)

// ─── mock cache ──────────────────────────────────────────────────────────────

type mockCache struct {
	mu       sync.Mutex
	counters map[string]int64
}

func newMockCache() *mockCache {
	return &mockCache{counters: make(map[string]int64)}
}

func (c *mockCache) Set(_ context.Context, _ string, _ []byte, _ time.Duration) error { return nil }
func (c *mockCache) Get(_ context.Context, _ string) ([]byte, bool, error)            { return nil, false, nil }
func (c *mockCache) Delete(_ context.Context, _ string) error                         { return nil }
func (c *mockCache) Ping(_ context.Context) error                                     { return nil }
func (c *mockCache) IncrWithExpiry(_ context.Context, key string, _ time.Duration) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters[key]++
	return c.counters[key], nil
}

var _ cache.Cache = (*mockCache)(nil)

// ─── fake GitHub ─────────────────────────────────────────────────────────────

type fakeGitHub struct{}

func (fakeGitHub) GetReadme(_ context.Context, owner, repo string) (*github.Readme, error) {
	if repo == "no-readme" {
		return nil, github.ErrReadmeNotFound
	}
	return &github.Readme{Name: "README.md", Content: "# " + owner + "/" + repo}, nil
}

func (fakeGitHub) GetRepoMetadata(_ context.Context, owner, repo string) (*github.RepoMetadata, error) {
	return &github.RepoMetadata{FullName: owner + "/" + repo, Stars: 7}, nil
}

// ─── test harness ────────────────────────────────────────────────────────────

type testServer struct {
	server *httptest.Server
	store  *memStore
	token  string
}

func newTestServer(t *testing.T, mode gate.Mode, requestsPerMin int) *testServer {
	t.Helper()

	ms := newMemStore()
	mc := newMockCache()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	keys := gate.NewKeyStore(ms)
	g := gate.New(keys, gate.MonthlyLimiter{}, gate.NewRecorder(ms, mode), logger)

	tokens, err := session.NewManager(testSecret, time.Hour)
	require.NoError(t, err)
	token, err := tokens.Issue(ms.users[testUserID])
	require.NoError(t, err)

	summaries := ai.NewSummaryService(mock.NewMockProvider(), fakeGitHub{}, 5*time.Second, logger)
	apiKeys := handler.NewAPIKeyHandler(ms)

	router := api.NewRouter(api.Dependencies{
		APIKeyAuth:  mw.NewAPIKeyAuth(g),
		SessionAuth: mw.NewSessionAuth(session.NewResolver(tokens, ms)),
		RateLimit:   mw.NewRateLimit(mc, requestsPerMin),
		Logger:      logger,

		ValidateKeyHandler:  handler.NewValidateKeyHandler(keys, ms),
		AuthenticateHandler: handler.NewAuthenticateHandler(),
		SummarizeHandler:    handler.NewSummarizeHandler(summaries),

		ListKeysHandler:  apiKeys.List,
		CreateKeyHandler: apiKeys.Create,
		GetKeyHandler:    apiKeys.Get,
		UpdateKeyHandler: apiKeys.Update,
		DeleteKeyHandler: apiKeys.Delete,
		ListUsersHandler: handler.NewListUsersHandler(ms),
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)

	return &testServer{server: srv, store: ms, token: token}
}

func (ts *testServer) keyRequest(path, apiKey string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(http.MethodPost, ts.server.URL+path, &buf)
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (ts *testServer) sessionRequest(method, path string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req, _ := http.NewRequest(method, ts.server.URL+path, &buf)
	req.Header.Set("Authorization", "Bearer "+ts.token)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func do(t *testing.T, req *http.Request) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp, body
}

// ─── /api/authenticate ───────────────────────────────────────────────────────

func TestContract_Authenticate_EndToEnd(t *testing.T) {
	for _, mode := range []gate.Mode{gate.ModeAdvisory, gate.ModeStrict} {
		t.Run(string(mode), func(t *testing.T) {
			ts := newTestServer(t, mode, 100)

			for i := 1; i <= 5; i++ {
				resp, body := do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
				require.Equal(t, http.StatusOK, resp.StatusCode, "call %d", i)

				assert.Equal(t, true, body["valid"])
				keyData := body["keyData"].(map[string]any)
				assert.Equal(t, "Test Key", keyData["name"])
				assert.Equal(t, float64(i-1), keyData["usageCount"], "keyData is the pre-increment record")
				_, leaksKey := keyData["key"]
				assert.False(t, leaksKey)

				usage := body["usageInfo"].(map[string]any)
				assert.Equal(t, float64(i), usage["currentUsage"])
				assert.Equal(t, float64(5-i), usage["remainingUsage"])
			}

			resp, body := do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
			assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
			assert.Equal(t, false, body["valid"])
			assert.Equal(t, "USAGE_LIMIT_EXCEEDED", body["error"])
			assert.Equal(t, "Monthly usage limit of 5 requests exceeded.", body["message"])
			assert.Equal(t, 5, ts.store.usage(testKeyID))
		})
	}
}

func TestContract_Authenticate_MissingAndInvalid(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.keyRequest("/api/authenticate", "", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_API_KEY", body["error"])

	resp, body = do(t, ts.keyRequest("/api/authenticate", "ak_doesnotexist", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_API_KEY", body["error"])
	assert.Equal(t, 0, ts.store.usage(testKeyID))
}

func TestContract_Authenticate_UsageHeaders(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, _ := do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("X-Usage-Current"))
	assert.Equal(t, "4", resp.Header.Get("X-Usage-Remaining"))
}

func TestContract_RateLimitDoesNotConsumeQuota(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 2)

	for i := 0; i < 2; i++ {
		resp, _ := do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, body := do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
	assert.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", body["error"].(map[string]any)["code"])
	assert.Equal(t, 2, ts.store.usage(testKeyID))
}

// ─── /api/validate-key ───────────────────────────────────────────────────────

func TestContract_ValidateKey(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.keyRequest("/api/validate-key", "", map[string]string{"apiKey": "ak_test123"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, "API key is valid", body["message"])
	info := body["keyInfo"].(map[string]any)
	assert.Equal(t, testKeyID.String(), info["id"])
	assert.Equal(t, "development", info["type"])

	assert.Equal(t, 0, ts.store.usage(testKeyID), "validation does not count usage")
	assert.Equal(t, []string{"ak_test123"}, ts.store.touched)
}

func TestContract_ValidateKey_HeaderFallbackAndErrors(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, _ := do(t, ts.keyRequest("/api/validate-key", "ak_test123", nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, ts.keyRequest("/api/validate-key", "", map[string]string{}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "MISSING_API_KEY", body["error"])

	resp, body = do(t, ts.keyRequest("/api/validate-key", "", map[string]string{"apiKey": "ak_nope"}))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, false, body["valid"])
	assert.Equal(t, "INVALID_API_KEY", body["error"])
}

// ─── /api/github-summarizer ──────────────────────────────────────────────────

func TestContract_Summarizer(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.keyRequest("/api/github-summarizer", "ak_test123",
		map[string]string{"repositoryUrl": "https://github.com/acme/widget"}))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "Mock summary of acme/widget", data["summary"])
	assert.Len(t, data["cool_facts"], 2)
	assert.Equal(t, float64(7), data["stars"])
	assert.Equal(t, "https://github.com/acme/widget", data["websiteUrl"])
	assert.Equal(t, "mock", data["provider"])
	usage := data["usageInfo"].(map[string]any)
	assert.Equal(t, float64(1), usage["currentUsage"])
}

func TestContract_Summarizer_Errors(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.keyRequest("/api/github-summarizer", "ak_test123",
		map[string]string{"repositoryUrl": "https://example.com/acme/widget"}))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_GITHUB_URL", body["error"].(map[string]any)["code"])

	resp, body = do(t, ts.keyRequest("/api/github-summarizer", "ak_test123",
		map[string]string{"repositoryUrl": "https://github.com/acme/no-readme"}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "README_NOT_FOUND", body["error"].(map[string]any)["code"])
}

// ─── /api/api-keys ───────────────────────────────────────────────────────────

func TestContract_APIKeys_CreateDefaults(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.sessionRequest(http.MethodPost, "/api/api-keys", map[string]any{"name": "  CI key  "}))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, "CI key", data["name"])
	assert.Equal(t, "development", data["type"])
	assert.Equal(t, false, data["limitMonthlyUsage"])
	assert.Equal(t, float64(1000), data["monthlyLimit"])
	assert.Equal(t, float64(0), data["usageCount"])
	key := data["key"].(string)
	assert.True(t, strings.HasPrefix(key, "ak_"))
	assert.Len(t, key, 35)

	// The new key works against the gate right away.
	resp, authBody := do(t, ts.keyRequest("/api/authenticate", key, nil))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "unlimited", authBody["usageInfo"].(map[string]any)["remainingUsage"])
}

func TestContract_APIKeys_CreateValidation(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	for _, body := range []map[string]any{
		{},
		{"name": "   "},
		{"name": "x", "type": "staging"},
		{"name": "x", "monthlyLimit": 0},
		{"name": "x", "monthlyLimit": -5},
	} {
		resp, out := do(t, ts.sessionRequest(http.MethodPost, "/api/api-keys", body))
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "%v", body)
		assert.Equal(t, "INVALID_REQUEST", out["error"].(map[string]any)["code"])
	}
}

func TestContract_APIKeys_ListGetUpdateDelete(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.sessionRequest(http.MethodGet, "/api/api-keys", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, body["data"], 1)

	path := "/api/api-keys/" + testKeyID.String()
	resp, body = do(t, ts.sessionRequest(http.MethodGet, path, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ak_test123", body["data"].(map[string]any)["key"])

	resp, body = do(t, ts.sessionRequest(http.MethodPut, path, map[string]any{
		"name": "Renamed", "type": "production", "monthlyLimit": 50,
	}))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	data := body["data"].(map[string]any)
	assert.Equal(t, "Renamed", data["name"])
	assert.Equal(t, "production", data["type"])
	assert.Equal(t, float64(50), data["monthlyLimit"])
	assert.Equal(t, true, data["limitMonthlyUsage"])

	resp, body = do(t, ts.sessionRequest(http.MethodDelete, path, nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "API key deleted successfully", body["data"].(map[string]any)["message"])

	// Deleted keys no longer pass the gate.
	resp, body = do(t, ts.keyRequest("/api/authenticate", "ak_test123", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "INVALID_API_KEY", body["error"])

	resp, _ = do(t, ts.sessionRequest(http.MethodGet, path, nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestContract_APIKeys_OwnerScoped(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)
	foreign := uuid.New()
	owner := otherUserID
	ts.store.keys[foreign] = &models.APIKey{ID: foreign, UserID: &owner, Name: "theirs", Type: "development", Key: "ak_theirs"}

	path := "/api/api-keys/" + foreign.String()
	for _, method := range []string{http.MethodGet, http.MethodDelete} {
		resp, body := do(t, ts.sessionRequest(method, path, nil))
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, method)
		assert.Equal(t, "KEY_NOT_FOUND", body["error"].(map[string]any)["code"])
	}

	resp, _ := do(t, ts.sessionRequest(http.MethodPut, path, map[string]any{"name": "mine now"}))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "theirs", ts.store.keys[foreign].Name)
}

func TestContract_APIKeys_InvalidID(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.sessionRequest(http.MethodGet, "/api/api-keys/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_KEY_ID", body["error"].(map[string]any)["code"])
}

// ─── /api/users ──────────────────────────────────────────────────────────────

func TestContract_Users(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	resp, body := do(t, ts.sessionRequest(http.MethodGet, "/api/users", nil))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data := body["data"].(map[string]any)
	assert.Equal(t, float64(2), data["count"])
	users := data["users"].([]any)
	require.Len(t, users, 2)
	first := users[0].(map[string]any)
	assert.Equal(t, "test@example.com", first["email"])
	_, leaksProviderID := first["providerId"]
	assert.False(t, leaksProviderID)
}

func TestContract_Session_Expired(t *testing.T) {
	ts := newTestServer(t, gate.ModeAdvisory, 100)

	stale, err := session.NewManager(testSecret, time.Hour)
	require.NoError(t, err)
	stale.WithClock(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	token, err := stale.Issue(&models.User{ID: testUserID, Email: "test@example.com"})
	require.NoError(t, err)
	ts.token = token

	resp, body := do(t, ts.sessionRequest(http.MethodGet, "/api/api-keys", nil))
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	assert.Equal(t, "SESSION_EXPIRED", body["error"].(map[string]any)["code"])
}
