package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// --- helpers ---

func githubServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts
}

func newTestClient(t *testing.T, baseURL string) *HTTPClient {
	t.Helper()
	return NewHTTPClient(baseURL, "", 5*time.Second)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// --- GetReadme ---

func TestGetReadme_DecodesBase64(t *testing.T) {
	readme := "# Widget\n\nA small library for widgets.\n"
	// GitHub wraps base64 content at 60 columns.
	encoded := base64.StdEncoding.EncodeToString([]byte(readme))
	wrapped := encoded[:20] + "\n" + encoded[20:]

	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/repos/acme/widget/readme" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "Dandi-App/1.0" {
			t.Errorf("unexpected user agent: %s", got)
		}
		if got := r.Header.Get("Accept"); got != "application/vnd.github.v3+json" {
			t.Errorf("unexpected accept: %s", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("unexpected authorization header: %s", got)
		}
		writeJSON(w, http.StatusOK, readmeResponse{
			Name:        "README.md",
			Size:        len(readme),
			Content:     wrapped,
			Encoding:    "base64",
			DownloadURL: "https://raw.githubusercontent.com/acme/widget/main/README.md",
			HTMLURL:     "https://github.com/acme/widget/blob/main/README.md",
		})
	})

	got, err := newTestClient(t, ts.URL).GetReadme(context.Background(), "acme", "widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Content != readme {
		t.Errorf("content = %q, want %q", got.Content, readme)
	}
	if got.Name != "README.md" {
		t.Errorf("name = %q", got.Name)
	}
	if got.Size != len(readme) {
		t.Errorf("size = %d", got.Size)
	}
}

func TestGetReadme_SendsToken(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer ghp_secret" {
			t.Errorf("authorization = %q", got)
		}
		writeJSON(w, http.StatusOK, readmeResponse{Content: base64.StdEncoding.EncodeToString([]byte("hi"))})
	})

	c := NewHTTPClient(ts.URL+"/", "ghp_secret", 5*time.Second)
	if _, err := c.GetReadme(context.Background(), "acme", "widget"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGetReadme_NotFound(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	_, err := newTestClient(t, ts.URL).GetReadme(context.Background(), "acme", "empty")
	if !errors.Is(err, ErrReadmeNotFound) {
		t.Fatalf("expected ErrReadmeNotFound, got %v", err)
	}
}

func TestGetReadme_ServerError(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := newTestClient(t, ts.URL).GetReadme(context.Background(), "acme", "widget")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetReadme_RateLimited(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "API rate limit exceeded"})
	})

	_, err := newTestClient(t, ts.URL).GetReadme(context.Background(), "acme", "widget")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetReadme_InvalidBase64(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, readmeResponse{Content: "!!!not-base64!!!", Encoding: "base64"})
	})

	_, err := newTestClient(t, ts.URL).GetReadme(context.Background(), "acme", "widget")
	if err == nil {
		t.Fatal("expected decode error")
	}
}

func TestGetReadme_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	_, err := newTestClient(t, url).GetReadme(context.Background(), "acme", "widget")
	if !errors.Is(err, ErrUnreachable) {
		t.Fatalf("expected ErrUnreachable, got %v", err)
	}
}

func TestGetReadme_Timeout(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := newTestClient(t, ts.URL).GetReadme(ctx, "acme", "widget")
	if !errors.Is(err, ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
}

// --- GetRepoMetadata ---

func TestGetRepoMetadata_WithRelease(t *testing.T) {
	published := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widget":
			writeJSON(w, http.StatusOK, map[string]any{
				"full_name":        "acme/widget",
				"description":      "Widgets",
				"stargazers_count": 4242,
				"forks_count":      17,
				"homepage":         "https://widget.dev",
				"license":          map[string]string{"spdx_id": "MIT", "name": "MIT License"},
			})
		case "/repos/acme/widget/releases/latest":
			writeJSON(w, http.StatusOK, map[string]any{
				"tag_name":     "v1.4.0",
				"name":         "1.4.0",
				"published_at": published,
			})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	})

	meta, err := newTestClient(t, ts.URL).GetRepoMetadata(context.Background(), "acme", "widget")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.Stars != 4242 || meta.Forks != 17 {
		t.Errorf("stars/forks = %d/%d", meta.Stars, meta.Forks)
	}
	if meta.Homepage != "https://widget.dev" {
		t.Errorf("homepage = %q", meta.Homepage)
	}
	if meta.License == nil || meta.License.SPDXID != "MIT" {
		t.Errorf("license = %+v", meta.License)
	}
	if meta.LatestVersion == nil || meta.LatestVersion.Tag != "v1.4.0" {
		t.Fatalf("latest version = %+v", meta.LatestVersion)
	}
	if !meta.LatestVersion.PublishedAt.Equal(published) {
		t.Errorf("published at = %v", meta.LatestVersion.PublishedAt)
	}
}

func TestGetRepoMetadata_NoReleaseNoLicense(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/repos/acme/bare" {
			writeJSON(w, http.StatusOK, map[string]any{"full_name": "acme/bare", "stargazers_count": 3, "license": nil})
			return
		}
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Not Found"})
	})

	meta, err := newTestClient(t, ts.URL).GetRepoMetadata(context.Background(), "acme", "bare")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meta.LatestVersion != nil {
		t.Errorf("expected no release, got %+v", meta.LatestVersion)
	}
	if meta.License != nil {
		t.Errorf("expected no license, got %+v", meta.License)
	}
	if meta.Stars != 3 {
		t.Errorf("stars = %d", meta.Stars)
	}
}

func TestGetRepoMetadata_RepoNotFound(t *testing.T) {
	ts := githubServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := newTestClient(t, ts.URL).GetRepoMetadata(context.Background(), "acme", "ghost")
	if !errors.Is(err, ErrRepoNotFound) {
		t.Fatalf("expected ErrRepoNotFound, got %v", err)
	}
}

// --- classifyError ---

func TestClassifyError(t *testing.T) {
	if err := classifyError(context.DeadlineExceeded); !errors.Is(err, ErrTimeout) {
		t.Errorf("deadline: got %v", err)
	}
	if err := classifyError(context.Canceled); !errors.Is(err, ErrTimeout) {
		t.Errorf("canceled: got %v", err)
	}
	if err := classifyError(errors.New("dial tcp: connection refused")); !errors.Is(err, ErrUnreachable) {
		t.Errorf("refused: got %v", err)
	}
}
