// Package release fetches release metadata for a repository coordinate from
// the GitHub releases API.
package release

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/kodelint/tooler/internal/logger"
)

// Release describes one published version of a tool.
type Release struct {
	TagName string  `json:"tag_name"`
	Assets  []Asset `json:"assets"`
}

// Asset is one downloadable file attached to a release.
type Asset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
}

// Client talks to the release metadata API. BaseURL is injectable so tests
// can point it at an httptest server.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	UserAgent  string
}

// NewClient returns a client for the public GitHub API with a 30 second
// timeout and the bearer token (if any) from the environment.
func NewClient(version string) *Client {
	return &Client{
		BaseURL:    "https://api.github.com",
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		UserAgent:  "tooler/" + version,
	}
}

// TokenFromEnv returns the API token, preferring TOOLER_GITHUB_TOKEN over the
// conventional GITHUB_TOKEN.
func TokenFromEnv() string {
	if tok := strings.TrimSpace(os.Getenv("TOOLER_GITHUB_TOKEN")); tok != "" {
		return tok
	}
	return strings.TrimSpace(os.Getenv("GITHUB_TOKEN"))
}

// Fetch returns the release descriptor for a repository and version selector.
// The selector is "latest", an exact tag, or a tag-like string.
func (c *Client) Fetch(repo, selector string) (*Release, error) {
	url := c.BaseURL + "/repos/" + repo + "/releases/latest"
	if selector != "" && selector != "latest" {
		url = c.BaseURL + "/repos/" + repo + "/releases/tags/" + selector
	}
	logger.Debug("[DEBUG] Fetching release metadata from %s\n", url)

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	if tok := TokenFromEnv(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release fetch for %s failed: %w", repo, err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			logger.Warn("[WARN] Failed to close response body: %v\n", cerr)
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(repo, selector, resp.StatusCode)
	}

	var rel Release
	if err := json.NewDecoder(resp.Body).Decode(&rel); err != nil {
		return nil, fmt.Errorf("could not decode release JSON for %s: %w", repo, err)
	}
	logger.Debug("[DEBUG] Release %s has %d assets\n", rel.TagName, len(rel.Assets))
	return &rel, nil
}

// statusError turns a non-200 response into an error with a remediation hint.
func statusError(repo, selector string, code int) error {
	base := fmt.Sprintf("release fetch for %s@%s returned HTTP %d", repo, displaySelector(selector), code)
	switch code {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return fmt.Errorf("%s: likely rate limited; set TOOLER_GITHUB_TOKEN or GITHUB_TOKEN for a higher limit", base)
	case http.StatusNotFound:
		if selector == "" || selector == "latest" {
			return fmt.Errorf("%s: repository not found or has no releases", base)
		}
		return fmt.Errorf("%s: tag not found; release tags often carry a 'v' prefix, try v%s or check the repo's releases page",
			base, strings.TrimPrefix(selector, "v"))
	default:
		return fmt.Errorf("%s", base)
	}
}

func displaySelector(selector string) string {
	if selector == "" {
		return "latest"
	}
	return selector
}
