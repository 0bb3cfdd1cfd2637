package indexer

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oss-triage/gh-triage/internal/embedding"
	"github.com/oss-triage/gh-triage/internal/github"
	"github.com/oss-triage/gh-triage/internal/vectordb"
	"github.com/oss-triage/gh-triage/pkg/models"
)

// chunkLines is the window size for splitting files. Small enough that
// a match points at a specific region, large enough to carry context.
const chunkLines = 80

// languageByExt maps source extensions to the language payload field
var languageByExt = map[string]string{
	".go":   "go",
	".py":   "python",
	".js":   "javascript",
	".ts":   "typescript",
	".tsx":  "typescript",
	".java": "java",
	".rb":   "ruby",
	".rs":   "rust",
	".c":    "c",
	".cpp":  "cpp",
	".h":    "c",
	".sh":   "shell",
	".yaml": "yaml",
	".yml":  "yaml",
	".toml": "toml",
	".sql":  "sql",
}

var docExts = map[string]bool{
	".md":  true,
	".rst": true,
	".txt": true,
}

var skipDirs = map[string]bool{
	".git":         true,
	"node_modules": true,
	"vendor":       true,
	"dist":         true,
	"build":        true,
}

// IndexFiles walks a local checkout and indexes its files as chunks.
// Documentation files go to the docs collection, recognized source
// files to the code collection; everything else is skipped.
func (idx *Indexer) IndexFiles(ctx context.Context, fullRepo, dir string) (*models.IndexStats, error) {
	org, repo, err := github.ParseRepo(fullRepo)
	if err != nil {
		return nil, err
	}

	codeCollection := vectordb.CollectionName(org, repo, models.EvidenceCode)
	docCollection := vectordb.CollectionName(org, repo, models.EvidenceDoc)
	if !idx.dryRun {
		for _, name := range []string{codeCollection, docCollection} {
			if err := idx.vdb.EnsureCollection(ctx, name); err != nil {
				return nil, fmt.Errorf("failed to ensure collection %s: %w", name, err)
			}
		}
	}

	stats := &models.IndexStats{}
	var codeChunks, docChunks []*vectordb.Chunk

	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}

		ext := strings.ToLower(filepath.Ext(path))
		isDoc := docExts[ext] || isReadme(d.Name())
		language, isCode := languageByExt[ext]
		if !isDoc && !isCode {
			stats.Skipped++
			return nil
		}

		chunks, err := chunkFile(org, repo, fullRepo, rel, language, path)
		if err != nil {
			fmt.Printf("Warning: skipping %s: %v\n", rel, err)
			stats.Errors++
			return nil
		}

		if isDoc {
			docChunks = append(docChunks, chunks...)
		} else {
			codeChunks = append(codeChunks, chunks...)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", dir, err)
	}

	if err := idx.indexChunks(ctx, codeCollection, codeChunks, stats); err != nil {
		return nil, err
	}
	if err := idx.indexChunks(ctx, docCollection, docChunks, stats); err != nil {
		return nil, err
	}

	return stats, nil
}

func (idx *Indexer) indexChunks(ctx context.Context, collection string, chunks []*vectordb.Chunk, stats *models.IndexStats) error {
	const batchSize = 50

	for i := 0; i < len(chunks); i += batchSize {
		end := i + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch := chunks[i:end]

		texts := make([]string, len(batch))
		for j, ch := range batch {
			texts[j] = embedding.PrepareChunkText(ch.Filename, ch.Content)
		}

		vectors, err := idx.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return fmt.Errorf("failed to generate embeddings: %w", err)
		}

		if idx.dryRun {
			continue
		}
		if err := idx.vdb.UpsertChunkBatch(ctx, collection, batch, vectors); err != nil {
			return fmt.Errorf("failed to upsert chunks: %w", err)
		}
		fmt.Printf("Indexed %d/%d chunks into %s\n", end, len(chunks), collection)
	}
	return nil
}

// chunkFile splits one file into fixed-size line windows
func chunkFile(org, repo, fullRepo, rel, language, path string) ([]*vectordb.Chunk, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, nil
	}

	filename := filepath.ToSlash(rel)
	lines := strings.Split(string(data), "\n")

	var chunks []*vectordb.Chunk
	for start := 0; start < len(lines); start += chunkLines {
		end := start + chunkLines
		if end > len(lines) {
			end = len(lines)
		}
		content := strings.TrimSpace(strings.Join(lines[start:end], "\n"))
		if content == "" {
			continue
		}

		chunks = append(chunks, &vectordb.Chunk{
			Org:       org,
			Repo:      repo,
			Filename:  filename,
			StartLine: start + 1,
			EndLine:   end,
			Language:  language,
			URL:       fmt.Sprintf("https://github.com/%s/blob/HEAD/%s#L%d", fullRepo, filename, start+1),
			Content:   content,
		})
	}
	return chunks, nil
}

func isReadme(name string) bool {
	return strings.HasPrefix(strings.ToUpper(name), "README")
}
