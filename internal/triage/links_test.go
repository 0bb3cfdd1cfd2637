package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractImageURLs(t *testing.T) {
	body := `Here is a screenshot:
![error](https://example.com/shots/error.png)
<img src="https://example.com/shots/stack.jpeg">
And an upload without extension:
![trace](https://github.com/user-attachments/assets/abc123)
Not an image: [docs](https://example.com/manual.pdf)`

	urls := ExtractImageURLs(body, 3)
	require.Len(t, urls, 3)
	assert.Contains(t, urls, "https://example.com/shots/error.png")
	assert.Contains(t, urls, "https://example.com/shots/stack.jpeg")
	assert.Contains(t, urls, "https://github.com/user-attachments/assets/abc123")
}

func TestExtractImageURLs_CapAndDedupe(t *testing.T) {
	body := `![a](https://e.com/1.png) ![a again](https://e.com/1.png)
![b](https://e.com/2.png) ![c](https://e.com/3.png) ![d](https://e.com/4.png)`

	urls := ExtractImageURLs(body, 3)
	require.Len(t, urls, 3)
	assert.Equal(t, "https://e.com/1.png", urls[0])
}

func TestExtractImageURLs_FiltersNonImages(t *testing.T) {
	urls := ExtractImageURLs(`![weird](https://example.com/page.html)`, 3)
	assert.Empty(t, urls)
}

func TestExtractGitHubRefs(t *testing.T) {
	body := `Related to https://github.com/acme/widget/issues/12 and
https://github.com/acme/widget/pull/34#discussion_r1, see also
https://github.com/acme/widget/blob/main/docs/config.md#usage
Duplicate mention: https://github.com/acme/widget/issues/12`

	refs := ExtractGitHubRefs(body, 5)
	require.Len(t, refs, 3)

	assert.Equal(t, GitHubRef{
		URL:   "https://github.com/acme/widget/issues/12",
		Owner: "acme",
		Repo:  "widget",
		Type:  "issues",
		Path:  "12",
	}, refs[0])

	// Fragments are stripped from the path
	assert.Equal(t, "34", refs[1].Path)
	assert.Equal(t, "pull", refs[1].Type)
	assert.Equal(t, "main/docs/config.md", refs[2].Path)
	assert.Equal(t, "blob", refs[2].Type)
}

func TestExtractGitHubRefs_Cap(t *testing.T) {
	body := ""
	for i := 0; i < 10; i++ {
		body += "https://github.com/acme/widget/issues/" + string(rune('0'+i)) + "\n"
	}
	refs := ExtractGitHubRefs(body, 5)
	assert.Len(t, refs, 5)
}

func TestExtractExternalLinks(t *testing.T) {
	body := `See https://docs.python.org/3/library/json.html and
https://github.com/acme/widget/issues/9 plus an image
https://example.com/shot.png and again https://docs.python.org/3/library/json.html`

	links := ExtractExternalLinks(body, 5)
	require.Len(t, links, 1)
	assert.Equal(t, "https://docs.python.org/3/library/json.html", links[0])
}
