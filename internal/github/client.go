package github

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/cli/go-gh/v2/pkg/api"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// Client wraps GitHub API operations
type Client struct {
	rest *api.RESTClient
}

// NewClient creates a new GitHub client
func NewClient() (*Client, error) {
	rest, err := api.DefaultRESTClient()
	if err != nil {
		return nil, fmt.Errorf("failed to create REST client: %w", err)
	}

	return &Client{rest: rest}, nil
}

// Close releases resources
func (c *Client) Close() error {
	return nil
}

// ParseRepo splits "owner/repo" into owner and repo
func ParseRepo(fullRepo string) (string, string, error) {
	parts := strings.Split(fullRepo, "/")
	if len(parts) != 2 {
		return "", "", fmt.Errorf("invalid repo format: %s (expected owner/repo)", fullRepo)
	}
	return parts[0], parts[1], nil
}

// Issue represents a GitHub issue from the API
type Issue struct {
	Number      int       `json:"number"`
	Title       string    `json:"title"`
	Body        string    `json:"body"`
	State       string    `json:"state"`
	HTMLURL     string    `json:"html_url"`
	User        User      `json:"user"`
	Labels      []Label   `json:"labels"`
	PullRequest *struct{} `json:"pull_request,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// User represents a GitHub user
type User struct {
	Login string `json:"login"`
}

// Label represents a GitHub label
type Label struct {
	Name string `json:"name"`
}

// ToModel converts API Issue to models.Issue
func (i *Issue) ToModel(org, repo string) *models.Issue {
	labels := make([]string, len(i.Labels))
	for j, l := range i.Labels {
		labels[j] = l.Name
	}

	return &models.Issue{
		Org:       org,
		Repo:      repo,
		Number:    i.Number,
		Title:     i.Title,
		Body:      i.Body,
		State:     i.State,
		Labels:    labels,
		Author:    i.User.Login,
		URL:       i.HTMLURL,
		IsPull:    i.isPullRequest(),
		CreatedAt: i.CreatedAt,
		UpdatedAt: i.UpdatedAt,
	}
}

// isPullRequest reports whether the issue is a pull request. The
// /issues endpoint mixes both; the pull_request key marks PRs.
func (i *Issue) isPullRequest() bool {
	return i.PullRequest != nil
}

// RepoExists checks if a repository exists
func (c *Client) RepoExists(ctx context.Context, org, repo string) (bool, error) {
	var result struct{}
	err := c.rest.Get(fmt.Sprintf("repos/%s/%s", org, repo), &result)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// isNotFound reports whether the API error is an HTTP 404. go-gh wraps
// failed responses in *api.HTTPError with the status code attached.
func isNotFound(err error) bool {
	var httpErr *api.HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == http.StatusNotFound
}
