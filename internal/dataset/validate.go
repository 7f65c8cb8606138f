package dataset

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"text/template"
)

// ErrIntegrity is returned when curated data fails structural validation.
// It is only ever produced at load time.
var ErrIntegrity = errors.New("dataset integrity")

// IntegrityError lists every structural problem found in a dataset.
type IntegrityError struct {
	Problems []error
}

func (e *IntegrityError) Error() string {
	msgs := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		msgs = append(msgs, p.Error())
	}
	return fmt.Sprintf("dataset integrity: %d problem(s): %s", len(e.Problems), strings.Join(msgs, "; "))
}

// Is lets errors.Is match IntegrityError against ErrIntegrity.
func (e *IntegrityError) Is(target error) bool {
	return target == ErrIntegrity
}

// Unwrap exposes the individual problems.
func (e *IntegrityError) Unwrap() []error {
	return e.Problems
}

// IsIntegrity checks if an error is a dataset integrity error.
func IsIntegrity(err error) bool {
	return errors.Is(err, ErrIntegrity)
}

// Validate checks that all curated records are complete and consistent.
func Validate(d *Dataset) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if strings.TrimSpace(d.Version) == "" {
		add("version is required")
	}

	// Festivals
	festivalIDs := make(map[string]bool)
	orders := make(map[int]string)
	for i, f := range d.Festivals {
		if f.ID == "" {
			add("festivals[%d]: id is required", i)
		} else if festivalIDs[f.ID] {
			add("festivals[%d]: duplicate id %q", i, f.ID)
		}
		festivalIDs[f.ID] = true

		if f.Name == "" {
			add("festival %q: name is required", f.ID)
		}
		if err := f.Anchor.Validate(); err != nil {
			add("festival %q: anchor: %v", f.ID, err)
		}
		if other, ok := orders[f.Order]; ok {
			add("festival %q: order %d already used by %q", f.ID, f.Order, other)
		}
		orders[f.Order] = f.ID
	}

	// Congregations
	congregationIDs := make(map[string]bool)
	for i, c := range d.Congregations {
		key := NormalizeKey(c.ID)
		if key == "" {
			add("congregations[%d]: id is required", i)
		} else if congregationIDs[key] {
			add("congregations[%d]: duplicate id %q", i, c.ID)
		}
		congregationIDs[key] = true

		if c.Name == "" {
			add("congregation %q: name is required", c.ID)
		}
		for j, ev := range c.Events {
			if err := validateCongregationEvent(ev); err != nil {
				add("congregation %q: events[%d]: %v", c.ID, j, err)
			}
		}
	}

	// Topics
	topicKeys := make(map[string]string)
	for i, t := range d.Topics {
		name := t.Key
		if NormalizeKey(t.Key) == "" {
			add("topics[%d]: key is required", i)
			name = fmt.Sprintf("topics[%d]", i)
		}
		for _, k := range append([]string{t.Key}, t.Aliases...) {
			nk := NormalizeKey(k)
			if nk == "" {
				continue
			}
			if owner, ok := topicKeys[nk]; ok {
				add("topic %q: key %q already used by %q", name, k, owner)
				continue
			}
			topicKeys[nk] = name
		}

		if t.Reference == "" {
			add("topic %q: reference is required", name)
		}
		if t.HebrewFocus == "" {
			add("topic %q: hebrew_focus is required", name)
		}
		if t.Morphology.Lexeme == "" {
			add("topic %q: morphology.lexeme is required", name)
		}
		if t.Morphology.PartOfSpeech == "" {
			add("topic %q: morphology.part_of_speech is required", name)
		}
		for _, key := range t.Morphology.Sources {
			if _, ok := d.Sources[key]; !ok {
				add("topic %q: morphology source %q not in registry", name, key)
			}
		}
		for j, f := range t.Fragments {
			if !f.Kind.IsValid() {
				add("topic %q: fragments[%d]: invalid kind %q", name, j, f.Kind)
			}
			if strings.TrimSpace(f.Text) == "" {
				add("topic %q: fragments[%d]: text is required", name, j)
			}
			for _, r := range f.Registers {
				if !r.IsValid() {
					add("topic %q: fragments[%d]: invalid register %q", name, j, r)
				}
			}
		}
	}

	// Source registry
	for key, entries := range d.Sources {
		for j, s := range entries {
			if s.Name == "" || s.URL == "" {
				add("sources %q[%d]: name and html_url are required", key, j)
			}
		}
	}

	// Templates
	for name, body := range map[string]string{
		"introduction": d.Templates.Introduction,
		"conclusion":   d.Templates.Conclusion,
	} {
		if body == "" {
			continue
		}
		if _, err := template.New(name).Funcs(TemplateFuncs).Option("missingkey=error").Parse(body); err != nil {
			add("templates.%s: %v", name, err)
		}
	}
	for lt, titles := range d.Templates.Sections {
		if !lt.IsValid() {
			add("templates.sections: invalid lesson type %q", lt)
		}
		if len(titles) == 0 {
			add("templates.sections.%s: at least one title is required", lt)
		}
	}

	if len(errs) > 0 {
		// Map iteration must not change the report.
		slices.SortFunc(errs, func(a, b error) int {
			return strings.Compare(a.Error(), b.Error())
		})
		return &IntegrityError{Problems: errs}
	}
	return nil
}

func validateCongregationEvent(ev CongregationEvent) error {
	set := 0
	if ev.Date != nil {
		set++
	}
	if ev.Annual != nil {
		set++
	}
	if ev.Hebrew != nil {
		set++
	}
	if set != 1 {
		return errors.New("exactly one of date, annual or hebrew is required")
	}
	if ev.Description == "" {
		return errors.New("description is required")
	}
	if ev.Hebrew != nil {
		if err := ev.Hebrew.Validate(); err != nil {
			return fmt.Errorf("hebrew: %w", err)
		}
	}
	if ev.Annual != nil && (ev.Annual.Month < 1 || ev.Annual.Month > 12 || ev.Annual.Day < 1 || ev.Annual.Day > 31) {
		return fmt.Errorf("annual: invalid month-day %s", ev.Annual)
	}
	return nil
}
