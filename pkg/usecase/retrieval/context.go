package retrieval

import (
	"fmt"
	"strings"

	"github.com/kioku-app/kioku/pkg/model"
)

const contextDelimiter = "\n---\n"

// RenderContext renders memories as fixed blocks of title, content and
// comma-joined tags, separated by a delimiter line. It is the shared format
// for retrieval contexts and store-backed summary contexts.
func RenderContext(memories []*model.Memory) string {
	blocks := make([]string, len(memories))
	for i, m := range memories {
		blocks[i] = fmt.Sprintf("Title: %s\nContent: %s\nTags: %s\n",
			m.Title, m.Content, strings.Join(m.Tags, ", "))
	}
	return strings.Join(blocks, contextDelimiter)
}

// renderScoredContext renders the top-ranked memories in score order.
func renderScoredContext(scored []*model.ScoredMemory) string {
	top := scored
	if len(top) > contextSize {
		top = top[:contextSize]
	}
	memories := make([]*model.Memory, len(top))
	for i, s := range top {
		memories[i] = s.Memory
	}
	return RenderContext(memories)
}

// renderFallbackContext uses a simpler unscored "title: content" format.
// Callers must not assume it matches the primary format.
func renderFallbackContext(memories []*model.Memory) string {
	lines := make([]string, len(memories))
	for i, m := range memories {
		lines[i] = fmt.Sprintf("%s: %s", m.Title, m.Content)
	}
	return strings.Join(lines, "\n")
}
