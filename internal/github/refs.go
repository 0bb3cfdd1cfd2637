package github

import (
	"context"
	"encoding/base64"
	"fmt"
)

// excerptLimit bounds how much referenced content is forwarded into
// the decision prompt.
const excerptLimit = 1000

// RefExcerpt is a short summary of a referenced issue, PR or file
type RefExcerpt struct {
	URL     string
	Title   string
	Excerpt string
}

// FetchIssueExcerpt fetches the title and leading body of a referenced
// issue or pull request. Works for both since PRs share the issue API.
func (c *Client) FetchIssueExcerpt(ctx context.Context, org, repo string, number int) (*RefExcerpt, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/issues/%d", org, repo, number)

	var ai Issue
	if err := c.rest.Get(endpoint, &ai); err != nil {
		return nil, fmt.Errorf("failed to fetch reference: %w", err)
	}

	return &RefExcerpt{
		URL:     ai.HTMLURL,
		Title:   ai.Title,
		Excerpt: truncate(ai.Body, excerptLimit),
	}, nil
}

// FetchFileExcerpt fetches the leading content of a referenced file
func (c *Client) FetchFileExcerpt(ctx context.Context, org, repo, ref, path string) (*RefExcerpt, error) {
	endpoint := fmt.Sprintf("repos/%s/%s/contents/%s", org, repo, path)
	if ref != "" {
		endpoint += "?ref=" + ref
	}

	var file struct {
		Name     string `json:"name"`
		Content  string `json:"content"`
		Encoding string `json:"encoding"`
		HTMLURL  string `json:"html_url"`
	}
	if err := c.rest.Get(endpoint, &file); err != nil {
		return nil, fmt.Errorf("failed to fetch file reference: %w", err)
	}

	content := file.Content
	if file.Encoding == "base64" {
		decoded, err := base64.StdEncoding.DecodeString(stripNewlines(file.Content))
		if err != nil {
			return nil, fmt.Errorf("failed to decode file content: %w", err)
		}
		content = string(decoded)
	}

	return &RefExcerpt{
		URL:     file.HTMLURL,
		Title:   file.Name,
		Excerpt: truncate(content, excerptLimit),
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

func stripNewlines(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] != '\n' && s[i] != '\r' {
			out = append(out, s[i])
		}
	}
	return string(out)
}
