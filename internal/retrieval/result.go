package retrieval

import (
	"sort"
	"strings"
)

// contextTextLimit caps how much of a chunk's text is inlined into the
// prompt context block.
const contextTextLimit = 1200

// Result holds the chunks gathered for one turn, split by source.
type Result struct {
	MasterChunks   []Chunk
	ActivityChunks []Chunk
}

// BuildContextBlock renders the retrieved chunks as the context section of
// the completion prompt. Empty sources are omitted entirely; an empty result
// renders as an empty string.
func (r Result) BuildContextBlock() string {
	var sections []string
	if len(r.MasterChunks) > 0 {
		sections = append(sections, formatSection("Master slides", r.MasterChunks))
	}
	if len(r.ActivityChunks) > 0 {
		sections = append(sections, formatSection("Local activities", r.ActivityChunks))
	}
	return strings.Join(sections, "\n\n")
}

func formatSection(title string, chunks []Chunk) string {
	lines := []string{title + ":"}
	for _, c := range chunks {
		lines = append(lines, "- "+c.Label()+"\n  "+truncate(c.Text, contextTextLimit))
	}
	return strings.Join(lines, "\n")
}

// References returns the deduplicated citation lines for every chunk in the
// result, masters before activities, each source in stable curriculum or
// catalog order.
func (r Result) References() []string {
	chunks := make([]Chunk, 0, len(r.MasterChunks)+len(r.ActivityChunks))
	chunks = append(chunks, r.MasterChunks...)
	chunks = append(chunks, r.ActivityChunks...)
	sort.SliceStable(chunks, func(i, j int) bool {
		return keyLess(chunks[i].sortKey(), chunks[j].sortKey())
	})

	var refs []string
	seen := make(map[string]bool)
	for _, c := range chunks {
		ref := c.Reference()
		if ref == "" || seen[ref] {
			continue
		}
		seen[ref] = true
		refs = append(refs, ref)
	}
	return refs
}

func truncate(text string, limit int) string {
	cleaned := strings.TrimSpace(text)
	if len(cleaned) <= limit {
		return cleaned
	}
	return strings.TrimRight(cleaned[:limit], " \t\n") + "..."
}
