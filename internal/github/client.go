package github

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Sentinel errors for GitHub client failures.
var (
	ErrReadmeNotFound = errors.New("readme not found")
	ErrRepoNotFound   = errors.New("repository not found")
	ErrUnreachable    = errors.New("github unreachable")
	ErrTimeout        = errors.New("github request timeout")
)

const (
	userAgent    = "Dandi-App/1.0"
	acceptHeader = "application/vnd.github.v3+json"
)

// Client is the interface for reading repositories from GitHub.
type Client interface {
	GetReadme(ctx context.Context, owner, repo string) (*Readme, error)
	GetRepoMetadata(ctx context.Context, owner, repo string) (*RepoMetadata, error)
}

type Readme struct {
	Name        string `json:"name"`
	Content     string `json:"content"`
	Size        int    `json:"size"`
	DownloadURL string `json:"downloadUrl"`
	HTMLURL     string `json:"htmlUrl"`
}

type License struct {
	SPDXID string `json:"spdxId"`
	Name   string `json:"name"`
}

type Release struct {
	Tag         string    `json:"tag"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"publishedAt"`
}

// RepoMetadata is the subset of repository details shown next to a summary.
// LatestVersion is nil when the repository has no published release.
type RepoMetadata struct {
	FullName      string   `json:"fullName"`
	Description   string   `json:"description"`
	Stars         int      `json:"stars"`
	Forks         int      `json:"forks"`
	Homepage      string   `json:"homepage"`
	License       *License `json:"license,omitempty"`
	LatestVersion *Release `json:"latestVersion,omitempty"`
}

// HTTPClient implements Client using the GitHub REST API.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new GitHub client. An empty token sends
// unauthenticated requests.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

func (c *HTTPClient) GetReadme(ctx context.Context, owner, repo string) (*Readme, error) {
	resp, err := c.get(ctx, repoPath(owner, repo)+"/readme")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrReadmeNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: readme status %d", ErrUnreachable, resp.StatusCode)
	}

	var body readmeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding readme response: %w", err)
	}

	content, err := decodeContent(body.Content, body.Encoding)
	if err != nil {
		return nil, fmt.Errorf("decoding readme content: %w", err)
	}

	return &Readme{
		Name:        body.Name,
		Content:     content,
		Size:        body.Size,
		DownloadURL: body.DownloadURL,
		HTMLURL:     body.HTMLURL,
	}, nil
}

func (c *HTTPClient) GetRepoMetadata(ctx context.Context, owner, repo string) (*RepoMetadata, error) {
	resp, err := c.get(ctx, repoPath(owner, repo))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrRepoNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: repository status %d", ErrUnreachable, resp.StatusCode)
	}

	var body repoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding repository response: %w", err)
	}

	meta := &RepoMetadata{
		FullName:    body.FullName,
		Description: body.Description,
		Stars:       body.StargazersCount,
		Forks:       body.ForksCount,
		Homepage:    body.Homepage,
	}
	if body.License != nil && body.License.SPDXID != "" {
		meta.License = &License{SPDXID: body.License.SPDXID, Name: body.License.Name}
	}

	// Repositories without releases answer 404 here.
	meta.LatestVersion, _ = c.latestRelease(ctx, owner, repo)
	return meta, nil
}

func (c *HTTPClient) latestRelease(ctx context.Context, owner, repo string) (*Release, error) {
	resp, err := c.get(ctx, repoPath(owner, repo)+"/releases/latest")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("latest release status %d", resp.StatusCode)
	}

	var body releaseResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decoding release response: %w", err)
	}
	return &Release{Tag: body.TagName, Name: body.Name, PublishedAt: body.PublishedAt}, nil
}

func (c *HTTPClient) get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("User-Agent", userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

func repoPath(owner, repo string) string {
	return fmt.Sprintf("/repos/%s/%s", url.PathEscape(owner), url.PathEscape(repo))
}

func decodeContent(content, encoding string) (string, error) {
	if encoding != "" && encoding != "base64" {
		return content, nil
	}
	raw, err := base64.StdEncoding.DecodeString(strings.ReplaceAll(content, "\n", ""))
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

// classifyError maps transport-level errors to sentinel errors.
func classifyError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// --- GitHub response types ---

type readmeResponse struct {
	Name        string `json:"name"`
	Size        int    `json:"size"`
	Content     string `json:"content"`
	Encoding    string `json:"encoding"`
	DownloadURL string `json:"download_url"`
	HTMLURL     string `json:"html_url"`
}

type repoResponse struct {
	FullName        string `json:"full_name"`
	Description     string `json:"description"`
	StargazersCount int    `json:"stargazers_count"`
	ForksCount      int    `json:"forks_count"`
	Homepage        string `json:"homepage"`
	License         *struct {
		SPDXID string `json:"spdx_id"`
		Name   string `json:"name"`
	} `json:"license"`
}

type releaseResponse struct {
	TagName     string    `json:"tag_name"`
	Name        string    `json:"name"`
	PublishedAt time.Time `json:"published_at"`
}

// Compile-time check that HTTPClient implements Client.
var _ Client = (*HTTPClient)(nil)
