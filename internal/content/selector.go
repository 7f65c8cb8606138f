// Package content selects curated morphology and fragments for a topic and
// links them to canonical external sources.
package content

import (
	"errors"
	"fmt"
	"slices"

	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// Section allocation: one section per MinutesPerSection minutes, clamped.
const (
	MinSections       = 2
	MaxSections       = 6
	MinutesPerSection = 9
)

// ErrNoContentFound is returned when a topic is not in the curated dataset.
var ErrNoContentFound = errors.New("no content found")

// NotFoundError names the topic that could not be resolved.
type NotFoundError struct {
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no curated content for %q", e.Key)
}

// Is lets errors.Is match NotFoundError against ErrNoContentFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNoContentFound
}

// IsNoContentFound checks if an error is a no content found error.
func IsNoContentFound(err error) bool {
	return errors.Is(err, ErrNoContentFound)
}

// Selection is the curated material chosen for one lesson.
type Selection struct {
	Topic      dataset.Topic
	LessonType dataset.LessonType
	Audience   string
	Sections   int
	// Fragments are filtered to the lesson type and audience and ordered
	// by the lesson type's framing preference.
	Fragments []dataset.Fragment
}

// Morphology returns the selected topic's morphology record.
func (s Selection) Morphology() dataset.Morphology {
	return s.Topic.Morphology
}

// kindPriority is the order in which fragment kinds surface per register.
var kindPriority = map[dataset.LessonType][]dataset.FragmentKind{
	dataset.LessonTypeSermon: {
		dataset.FragmentRhetorical,
		dataset.FragmentExegetical,
		dataset.FragmentLexical,
		dataset.FragmentApplication,
		dataset.FragmentFormation,
	},
	dataset.LessonTypeBibleStudy: {
		dataset.FragmentExegetical,
		dataset.FragmentLexical,
		dataset.FragmentRhetorical,
		dataset.FragmentApplication,
		dataset.FragmentFormation,
	},
	dataset.LessonTypeDiscipleship: {
		dataset.FragmentFormation,
		dataset.FragmentApplication,
		dataset.FragmentExegetical,
		dataset.FragmentLexical,
		dataset.FragmentRhetorical,
	},
}

// SectionCount allocates sections from the lesson length:
// clamp(ceil(minutes/9), 2, 6).
func SectionCount(minutes int) int {
	n := minutes / MinutesPerSection
	if minutes%MinutesPerSection != 0 {
		n++
	}
	return max(MinSections, min(n, MaxSections))
}

// Selector resolves curated content. It holds no state; the dataset
// snapshot is supplied per call.
type Selector struct{}

// NewSelector creates a selector.
func NewSelector() *Selector {
	return &Selector{}
}

// Select looks up key (a topic key or alias) and surfaces the fragments
// suited to the lesson type and audience. It never invents content: an
// unknown key fails with a NotFoundError.
func (s *Selector) Select(d *dataset.Dataset, key string, lessonType dataset.LessonType, audience string, minutes int) (Selection, error) {
	priority, ok := kindPriority[lessonType]
	if !ok {
		return Selection{}, fmt.Errorf("select %q: unknown lesson type %q", key, lessonType)
	}
	topic, ok := d.Topic(key)
	if !ok {
		return Selection{}, &NotFoundError{Key: key}
	}

	fragments := make([]dataset.Fragment, 0, len(topic.Fragments))
	for _, f := range topic.Fragments {
		if appliesTo(f, lessonType, audience) {
			fragments = append(fragments, f)
		}
	}
	slices.SortStableFunc(fragments, func(a, b dataset.Fragment) int {
		return slices.Index(priority, a.Kind) - slices.Index(priority, b.Kind)
	})

	return Selection{
		Topic:      topic,
		LessonType: lessonType,
		Audience:   audience,
		Sections:   SectionCount(minutes),
		Fragments:  fragments,
	}, nil
}

func appliesTo(f dataset.Fragment, lessonType dataset.LessonType, audience string) bool {
	if len(f.Registers) > 0 && !slices.Contains(f.Registers, lessonType) {
		return false
	}
	if len(f.Audiences) == 0 {
		return true
	}
	want := dataset.NormalizeKey(audience)
	return slices.ContainsFunc(f.Audiences, func(a string) bool {
		return dataset.NormalizeKey(a) == want
	})
}
