package content

import "github.com/zapponejosh/lesson-designer/internal/dataset"

// TopicSummary describes a curated topic for listing.
type TopicSummary struct {
	Key         string   `json:"key"`
	Reference   string   `json:"reference"`
	HebrewFocus string   `json:"hebrew_focus"`
	Translation string   `json:"translation"`
	Aliases     []string `json:"aliases"`
	Themes      []string `json:"themes"`
}

// Catalog lists every topic in dataset order.
func Catalog(d *dataset.Dataset) []TopicSummary {
	out := make([]TopicSummary, 0, len(d.Topics))
	for _, t := range d.Topics {
		out = append(out, TopicSummary{
			Key:         t.Key,
			Reference:   t.Reference,
			HebrewFocus: t.HebrewFocus,
			Translation: t.Translation,
			Aliases:     append([]string{}, t.Aliases...),
			Themes:      append([]string{}, t.Themes...),
		})
	}
	return out
}
