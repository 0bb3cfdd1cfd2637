package triage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/oss-triage/gh-triage/pkg/models"
)

// cacheKeyBodyLimit bounds how much of the body feeds the fingerprint;
// edits deep in a long issue body do not invalidate the cached decision.
const cacheKeyBodyLimit = 500

// responseCacheKey fingerprints a triage request: the title, the leading
// body, and the top-3 evidence identifiers. A shift in the leading
// evidence produces a different key even for an unchanged issue.
func responseCacheKey(issue *models.Issue, bundle *models.EvidenceBundle) string {
	body := issue.Body
	if len(body) > cacheKeyBodyLimit {
		body = body[:cacheKeyBodyLimit]
	}

	top, _ := json.Marshal(bundle.TopIdentifiers(3))

	h := sha256.Sum256([]byte(issue.Title + ":" + body + ":" + string(top)))
	return hex.EncodeToString(h[:])
}
