package triage

import (
	"regexp"
	"strings"
)

var (
	imgHTMLPattern     = regexp.MustCompile(`(?i)<img[^>]+src=["']([^"']+)["']`)
	imgMarkdownPattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	gitHubRefPattern   = regexp.MustCompile(`(?i)https?://(?:www\.)?github\.com/([^/\s]+)/([^/\s]+)/(issues|pull|discussions|blob)/([^\s\)>\]#]+)`)
	urlPattern         = regexp.MustCompile(`(?i)https?://[^\s\)>\]"]+`)
)

var imageExtensions = []string{".jpg", ".jpeg", ".png", ".gif", ".webp"}

// GitHubRef is an in-body reference to another issue, PR or file on GitHub
type GitHubRef struct {
	URL   string
	Owner string
	Repo  string
	Type  string // "issues", "pull", "discussions", "blob"
	Path  string
}

// ExtractImageURLs pulls embedded image URLs from markdown and HTML.
// Only URLs that look like images are kept; user-attachments URLs pass
// without an extension since GitHub uploads often lack one.
func ExtractImageURLs(text string, max int) []string {
	var urls []string
	for _, m := range imgHTMLPattern.FindAllStringSubmatch(text, -1) {
		urls = append(urls, m[1])
	}
	for _, m := range imgMarkdownPattern.FindAllStringSubmatch(text, -1) {
		urls = append(urls, m[1])
	}

	seen := make(map[string]bool, len(urls))
	var valid []string
	for _, url := range urls {
		if seen[url] {
			continue
		}
		seen[url] = true
		if !looksLikeImage(url) {
			continue
		}
		valid = append(valid, url)
		if len(valid) == max {
			break
		}
	}
	return valid
}

func looksLikeImage(url string) bool {
	lower := strings.ToLower(url)
	for _, ext := range imageExtensions {
		if strings.Contains(lower, ext) {
			return true
		}
	}
	return strings.Contains(lower, "user-attachments")
}

// ExtractGitHubRefs pulls references to GitHub issues, PRs, discussions
// and files, deduplicated by URL.
func ExtractGitHubRefs(text string, max int) []GitHubRef {
	seen := make(map[string]bool)
	var refs []GitHubRef
	for _, m := range gitHubRefPattern.FindAllStringSubmatch(text, -1) {
		path := m[4]
		if idx := strings.Index(path, "#"); idx != -1 {
			path = path[:idx]
		}
		url := "https://github.com/" + m[1] + "/" + m[2] + "/" + strings.ToLower(m[3]) + "/" + path
		if seen[url] {
			continue
		}
		seen[url] = true
		refs = append(refs, GitHubRef{
			URL:   url,
			Owner: m[1],
			Repo:  m[2],
			Type:  strings.ToLower(m[3]),
			Path:  path,
		})
		if len(refs) == max {
			break
		}
	}
	return refs
}

// ExtractExternalLinks pulls non-GitHub, non-image URLs. These are
// listed in the prompt without fetching.
func ExtractExternalLinks(text string, max int) []string {
	seen := make(map[string]bool)
	var urls []string
	for _, url := range urlPattern.FindAllString(text, -1) {
		lower := strings.ToLower(url)
		if strings.Contains(lower, "github.com") || looksLikeImage(url) {
			continue
		}
		if seen[url] {
			continue
		}
		seen[url] = true
		urls = append(urls, url)
		if len(urls) == max {
			break
		}
	}
	return urls
}
