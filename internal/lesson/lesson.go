// Package lesson validates lesson requests and assembles deterministic
// lessons from calendar correlations, congregation context and curated
// content.
package lesson

import (
	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// MaxBullets is the most bullets a slide carries.
const MaxBullets = 5

// Section is one teaching movement of a lesson.
type Section struct {
	Title           string   `json:"title"`
	Content         string   `json:"content"`
	ExegeticalNotes []string `json:"exegetical"`
	Application     string   `json:"application"`
}

// Slide is one slide of the lesson deck.
type Slide struct {
	Title   string   `json:"title"`
	Bullets []string `json:"bullets"`
	Notes   string   `json:"notes"`
}

// Lesson is a fully assembled teaching artifact. It is plain data; any
// rendering happens outside this package.
type Lesson struct {
	Title        string             `json:"title"`
	Introduction string             `json:"introduction"`
	Conclusion   string             `json:"conclusion"`
	HebrewFocus  string             `json:"hebrew_focus"`
	Morphology   dataset.Morphology `json:"morphology"`
	Themes       []string           `json:"themes"`
	Sections     []Section          `json:"sections"`
	Slides       []Slide            `json:"slides"`
}

// Response is everything generated for one request.
type Response struct {
	Lesson         Lesson                 `json:"lesson"`
	Festivals      []calendar.Correlation `json:"festivals"`
	Congregation   congregation.Context   `json:"congregation"`
	GithubSources  []dataset.Source       `json:"github_sources"`
	RuntimeMinutes int                    `json:"runtime_minutes"`
}

// RuntimeMinutes estimates delivery time. Interpreted lessons keep 65% of
// the estimate, never below ten minutes.
func RuntimeMinutes(estimated int, interpreted bool) int {
	if !interpreted {
		return estimated
	}
	runtime := estimated/100*65 + estimated%100*65/100
	return max(10, runtime)
}
