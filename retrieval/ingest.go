package retrieval

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/sweetpotato0/ragalytics/pkg/logging"
)

// Chunk splits a documentation file into titled passages. Blocks are
// separated by "---" divider lines; a block becomes a passage only when its
// first non-blank line is a "# " heading, which becomes the title. Everything
// else in the block is the body. Blocks without a heading are skipped.
func Chunk(doc, provenance string) []Passage {
	var passages []Passage
	for _, block := range strings.Split(doc, "---\n") {
		block = strings.TrimSpace(block)
		if block == "" {
			continue
		}
		lines := strings.SplitN(block, "\n", 2)
		first := strings.TrimSpace(lines[0])
		if !strings.HasPrefix(first, "# ") {
			continue
		}
		title := strings.TrimSpace(strings.TrimPrefix(first, "# "))
		body := ""
		if len(lines) > 1 {
			body = strings.TrimSpace(lines[1])
		}
		passages = append(passages, Passage{
			ID:         slug(title) + "_" + uuid.NewString(),
			Title:      title,
			Body:       body,
			Provenance: provenance,
		})
	}
	return passages
}

func slug(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteRune('_')
		}
	}
	return strings.Trim(b.String(), "_")
}

// EnsureSeeded ingests the bundled game documentation when the index is
// empty. Called on startup; a populated index is left untouched.
func EnsureSeeded(ctx context.Context, idx *Index) error {
	logger := logging.WithComponent("retrieval")

	empty, err := idx.IsEmpty(ctx)
	if err != nil {
		return err
	}
	if !empty {
		logger.Debug("passage index already populated, skipping seed")
		return nil
	}

	passages := Chunk(sampleCorpus, "bundled:game-docs")
	if err := idx.Add(ctx, passages...); err != nil {
		return err
	}
	logger.Info("seeded passage index", "passages", len(passages))
	return nil
}
