// Package dataset holds the curated content every lesson is built from:
// festivals, congregation calendars, topic morphology and the external
// source registry.
//
// A Dataset is immutable once prepared. Components receive it explicitly
// and never mutate it; a reload replaces the whole snapshot.
package dataset

import (
	"fmt"
	"strings"
	"text/template"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
)

// LessonType is the register a lesson is delivered in.
type LessonType string

const (
	LessonTypeSermon       LessonType = "sermon"
	LessonTypeBibleStudy   LessonType = "bible_study"
	LessonTypeDiscipleship LessonType = "discipleship"
)

// ValidLessonTypes returns all valid lesson types.
func ValidLessonTypes() []LessonType {
	return []LessonType{
		LessonTypeSermon,
		LessonTypeBibleStudy,
		LessonTypeDiscipleship,
	}
}

// IsValid checks if a lesson type is valid.
func (lt LessonType) IsValid() bool {
	for _, valid := range ValidLessonTypes() {
		if lt == valid {
			return true
		}
	}
	return false
}

// FragmentKind categorizes a curated content fragment.
type FragmentKind string

const (
	FragmentExegetical  FragmentKind = "exegetical"
	FragmentLexical     FragmentKind = "lexical"
	FragmentRhetorical  FragmentKind = "rhetorical"
	FragmentFormation   FragmentKind = "formation"
	FragmentApplication FragmentKind = "application"
)

// IsValid checks if a fragment kind is valid.
func (k FragmentKind) IsValid() bool {
	switch k {
	case FragmentExegetical, FragmentLexical, FragmentRhetorical, FragmentFormation, FragmentApplication:
		return true
	}
	return false
}

// IsApplication reports whether the fragment feeds a section's
// application text rather than its exegetical notes.
func (k FragmentKind) IsApplication() bool {
	return k == FragmentFormation || k == FragmentApplication
}

// Dataset is one complete, validated snapshot of curated content.
type Dataset struct {
	Version       string              `yaml:"version" json:"version"`
	Festivals     []calendar.Event    `yaml:"festivals" json:"festivals"`
	Congregations []Congregation      `yaml:"congregations" json:"congregations"`
	Topics        []Topic             `yaml:"topics" json:"topics"`
	Sources       map[string][]Source `yaml:"sources" json:"sources"`
	Templates     Templates           `yaml:"templates" json:"templates"`

	topics        map[string]int
	congregations map[string]int
}

// Congregation is a community's own calendar and identity.
type Congregation struct {
	ID       string              `yaml:"id" json:"id"`
	Name     string              `yaml:"name" json:"name"`
	Location string              `yaml:"location" json:"location"`
	Values   []string            `yaml:"values" json:"values"`
	Events   []CongregationEvent `yaml:"events" json:"events"`
}

// CongregationEvent is a one-off date, a yearly civil date or a yearly
// Hebrew-calendar date. Exactly one of Date, Annual and Hebrew is set.
// Its position in Congregation.Events is its ordering index.
type CongregationEvent struct {
	ID          string              `yaml:"id" json:"id"`
	Description string              `yaml:"description" json:"description"`
	Emphasis    string              `yaml:"emphasis" json:"emphasis"`
	Date        *calendar.CivilDate `yaml:"date,omitempty" json:"date,omitempty"`
	Annual      *MonthDay           `yaml:"annual,omitempty" json:"annual,omitempty"`
	Hebrew      *calendar.Anchor    `yaml:"hebrew,omitempty" json:"hebrew,omitempty"`
}

// MonthDay is a civil month and day that recurs every year, written MM-DD.
type MonthDay struct {
	Month time.Month
	Day   int
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// MarshalText implements encoding.TextMarshaler.
func (md MonthDay) MarshalText() ([]byte, error) {
	return []byte(md.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (md *MonthDay) UnmarshalText(b []byte) error {
	// Leap year so that 02-29 parses.
	t, err := time.Parse("2006-01-02", "2000-"+strings.TrimSpace(string(b)))
	if err != nil {
		return fmt.Errorf("invalid month-day %q: expected MM-DD", string(b))
	}
	md.Month, md.Day = t.Month(), t.Day()
	return nil
}

// Topic is a curated passage or theme with its morphology and fragments.
type Topic struct {
	Key         string     `yaml:"key" json:"key"`
	Aliases     []string   `yaml:"aliases,omitempty" json:"aliases,omitempty"`
	Reference   string     `yaml:"reference" json:"reference"`
	HebrewFocus string     `yaml:"hebrew_focus" json:"hebrew_focus"`
	Translation string     `yaml:"translation" json:"translation"`
	Themes      []string   `yaml:"themes" json:"themes"`
	Morphology  Morphology `yaml:"morphology" json:"morphology"`
	Fragments   []Fragment `yaml:"fragments" json:"fragments"`
}

// Morphology is the curated analysis of one Hebrew lexeme.
type Morphology struct {
	Lexeme          string   `yaml:"lexeme" json:"lexeme"`
	PartOfSpeech    string   `yaml:"part_of_speech" json:"part_of_speech"`
	Root            string   `yaml:"root" json:"root"`
	Notes           string   `yaml:"notes" json:"notes"`
	ExegeticalNotes []string `yaml:"exegetical_notes" json:"exegetical_notes"`
	Application     string   `yaml:"application" json:"application"`
	// Sources are keys into Dataset.Sources.
	Sources []string `yaml:"sources,omitempty" json:"sources,omitempty"`
}

// Fragment is one curated statement. Empty Registers or Audiences mean
// the fragment applies to every lesson type or audience.
type Fragment struct {
	Kind      FragmentKind `yaml:"kind" json:"kind"`
	Text      string       `yaml:"text" json:"text"`
	Registers []LessonType `yaml:"registers,omitempty" json:"registers,omitempty"`
	Audiences []string     `yaml:"audiences,omitempty" json:"audiences,omitempty"`
}

// Source is a canonical external reference.
type Source struct {
	Name       string `yaml:"name" json:"name"`
	Path       string `yaml:"path" json:"path"`
	URL        string `yaml:"html_url" json:"html_url"`
	Repository string `yaml:"repository" json:"repository"`
}

// Templates holds curated phrase templates (text/template syntax) and
// section titles per lesson type. Empty values fall back to built-in
// defaults in the lesson assembler.
type Templates struct {
	Introduction string                  `yaml:"introduction,omitempty" json:"introduction,omitempty"`
	Conclusion   string                  `yaml:"conclusion,omitempty" json:"conclusion,omitempty"`
	Sections     map[LessonType][]string `yaml:"sections,omitempty" json:"sections,omitempty"`
}

// TemplateFuncs are available to curated phrase templates.
var TemplateFuncs = template.FuncMap{
	"lower": strings.ToLower,
	"join":  strings.Join,
	// phrase drops a sentence's final period and lower-cases its first
	// letter so it can be embedded mid-sentence.
	"phrase": func(s string) string {
		s = strings.TrimRight(strings.TrimSpace(s), ".")
		r, size := utf8.DecodeRuneInString(s)
		if size == 0 {
			return s
		}
		return string(unicode.ToLower(r)) + s[size:]
	},
	"abs": func(n int) int {
		if n < 0 {
			return -n
		}
		return n
	},
}

// NormalizeKey folds a lookup key: surrounding space is dropped and case
// is ignored.
func NormalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Topic looks up a topic by key or alias.
func (d *Dataset) Topic(key string) (Topic, bool) {
	i, ok := d.topics[NormalizeKey(key)]
	if !ok {
		return Topic{}, false
	}
	return d.Topics[i], true
}

// Congregation looks up a congregation by identifier.
func (d *Dataset) Congregation(id string) (Congregation, bool) {
	i, ok := d.congregations[NormalizeKey(id)]
	if !ok {
		return Congregation{}, false
	}
	return d.Congregations[i], true
}

// SourcesFor returns the registry entries under key, or nil.
func (d *Dataset) SourcesFor(key string) []Source {
	if src, ok := d.Sources[key]; ok {
		return src
	}
	return d.Sources[NormalizeKey(key)]
}

// TopicKeys returns topic keys in dataset order.
func (d *Dataset) TopicKeys() []string {
	keys := make([]string, 0, len(d.Topics))
	for _, t := range d.Topics {
		keys = append(keys, t.Key)
	}
	return keys
}

// Prepare validates a dataset and returns an indexed snapshot ready to be
// shared. The snapshot shares d's slices and maps; callers must not modify
// them afterwards.
func Prepare(d Dataset) (*Dataset, error) {
	if err := Validate(&d); err != nil {
		return nil, err
	}

	snap := d
	snap.topics = make(map[string]int, len(d.Topics))
	for i, t := range d.Topics {
		snap.topics[NormalizeKey(t.Key)] = i
		for _, alias := range t.Aliases {
			snap.topics[NormalizeKey(alias)] = i
		}
	}
	snap.congregations = make(map[string]int, len(d.Congregations))
	for i, c := range d.Congregations {
		snap.congregations[NormalizeKey(c.ID)] = i
	}
	return &snap, nil
}

// MustPrepare is like Prepare but panics on invalid data. Intended for
// fixtures.
func MustPrepare(d Dataset) *Dataset {
	snap, err := Prepare(d)
	if err != nil {
		panic(err)
	}
	return snap
}
