package version

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	// ReleasesURL is the latest-release endpoint of the twins repository
	ReleasesURL  = "https://api.github.com/repos/sciencetwins/twins/releases/latest"
	checkTimeout = 5 * time.Second
)

type GitHubRelease struct {
	TagName string `json:"tag_name"`
	Name    string `json:"name"`
	HTMLURL string `json:"html_url"`
}

// Update describes the outcome of a release check
type Update struct {
	Available bool
	Latest    string
	URL       string
}

// Checker queries a GitHub-style releases endpoint
type Checker struct {
	URL    string
	Client *http.Client
}

// NewChecker returns a checker for the twins releases
func NewChecker() *Checker {
	return &Checker{URL: ReleasesURL, Client: &http.Client{Timeout: checkTimeout}}
}

// Check reports whether a release newer than currentVersion exists. Dev
// builds ("dev" or empty) never report an update.
func (c *Checker) Check(ctx context.Context, currentVersion string) (Update, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return Update{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "twins/"+currentVersion)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := c.Client.Do(req)
	if err != nil {
		return Update{}, fmt.Errorf("failed to fetch latest release: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Update{}, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}

	var release GitHubRelease
	if err := json.NewDecoder(resp.Body).Decode(&release); err != nil {
		return Update{}, fmt.Errorf("failed to decode response: %w", err)
	}

	latest := strings.TrimPrefix(release.TagName, "v")
	current := strings.TrimPrefix(currentVersion, "v")
	update := Update{Latest: latest, URL: release.HTMLURL}
	if current != "" && current != "dev" && latest != "" {
		update.Available = isNewerVersion(latest, current)
	}
	return update, nil
}

// isNewerVersion compares two semantic versions and returns true if latest > current
// Supports versions like "0.0.28", "1.2.3", "0.0.29-dev", etc.
func isNewerVersion(latest, current string) bool {
	latestParts := parseVersion(latest)
	currentParts := parseVersion(current)

	for len(latestParts) < len(currentParts) {
		latestParts = append(latestParts, 0)
	}
	for len(currentParts) < len(latestParts) {
		currentParts = append(currentParts, 0)
	}

	for i := range latestParts {
		if latestParts[i] != currentParts[i] {
			return latestParts[i] > currentParts[i]
		}
	}
	return false
}

// parseVersion parses a version string into integer parts, dropping
// pre-release and build metadata
func parseVersion(version string) []int {
	if idx := strings.IndexAny(version, "-+"); idx != -1 {
		version = version[:idx]
	}

	var result []int
	for _, part := range strings.Split(version, ".") {
		if num, err := strconv.Atoi(part); err == nil {
			result = append(result, num)
		}
	}
	return result
}
