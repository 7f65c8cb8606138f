package content

import (
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// Linker attaches canonical external references to selected content. It
// is a pure registry lookup and never reaches the network.
type Linker struct{}

// NewLinker creates a linker.
func NewLinker() *Linker {
	return &Linker{}
}

// Link returns the registry entries for the selection's morphology
// sources, then its lexeme, then its topic key. Entries are deduplicated
// by URL and path. A selection with no references yields an empty slice.
func (l *Linker) Link(d *dataset.Dataset, sel Selection) []dataset.Source {
	keys := make([]string, 0, len(sel.Topic.Morphology.Sources)+2)
	keys = append(keys, sel.Topic.Morphology.Sources...)
	keys = append(keys, sel.Topic.Morphology.Lexeme, sel.Topic.Key)

	type ident struct{ url, path string }
	seen := make(map[ident]bool)
	out := []dataset.Source{}
	for _, key := range keys {
		for _, src := range d.SourcesFor(key) {
			id := ident{src.URL, src.Path}
			if seen[id] {
				continue
			}
			seen[id] = true
			out = append(out, src)
		}
	}
	return out
}
