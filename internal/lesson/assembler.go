package lesson

import (
	"fmt"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

const defaultIntroduction = `Imagine standing where {{.Reference}} first unfolded, hearing the Hebrew cadence of {{.HebrewFocus}} inviting trust.
{{- with .Festival}} We gather {{if ge .DaysApart 0}}with {{.Festival}} approaching{{else}}just after {{.Festival}}{{end}} ({{.Date}}), a season that {{phrase .Emphasis}}.{{end}}
{{- with .Event}} Our own community {{if ge .DaysApart 0}}prepares for {{.Description}} in {{.DaysApart}} days{{else}}remembers {{.Description}} from {{abs .DaysApart}} days ago{{end}}{{with .Emphasis}}, aligning hearts toward {{phrase .}}{{end}}.{{end}}
{{- if .Audience}} For {{.Audience}}, God's word speaks with precision and promise.{{else}} God's word speaks with precision and promise.{{end}}
{{- with .Occasion}} In this {{lower .}} we are called to listen afresh.{{end}}`

const defaultConclusion = `The same cadence that opened our time, {{.HebrewFocus}}, now sends us. Let the insights we traced in {{.Reference}} move from study to practice{{with .Themes}} as we embrace {{join . ", "}}{{end}}.`

const defaultApplication = "Offer one spiritual practice and one communal action."

// Slide notes for the opening, body and closing slides.
const (
	openingNotes = "Welcome, frame the occasion, and read the passage aloud."
	sectionNotes = "Guide discussion; invite observations and response."
	closingNotes = "Summarize commitments and pray a commissioning blessing."
	closingTitle = "Sending Charge"
)

// defaultSectionTitles are used when the dataset does not curate titles
// for a lesson type.
var defaultSectionTitles = map[dataset.LessonType][]string{
	dataset.LessonTypeSermon: {
		"Textual Horizon", "Linguistic Insights", "The Turn",
		"Formation Pathways", "Living the Text", "Sending Out",
	},
	dataset.LessonTypeBibleStudy: {
		"Textual Horizon", "Linguistic Insights", "Literary Structure",
		"Theological Threads", "Formation Pathways", "Response",
	},
	dataset.LessonTypeDiscipleship: {
		"Textual Horizon", "Formation Pathways", "Linguistic Insights",
		"Practices", "Community", "Commission",
	},
}

// phraseData is what introduction and conclusion templates see.
type phraseData struct {
	Audience    string
	Occasion    string
	Date        string
	Reference   string
	HebrewFocus string
	Translation string
	Themes      []string
	// Festival and Event are the nearest correlations, or nil.
	Festival *calendar.Correlation
	Event    *congregation.Match
}

// Assembler builds lessons. The same inputs always produce the same
// lesson: there is no randomness and no clock.
type Assembler struct{}

// NewAssembler creates an assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble combines upstream results into a lesson. It fails only when a
// curated template cannot be executed, and then returns no lesson.
func (a *Assembler) Assemble(
	req Request,
	festivals []calendar.Correlation,
	cong congregation.Context,
	sel content.Selection,
	templates dataset.Templates,
) (*Lesson, error) {
	topic := sel.Topic
	data := phraseData{
		Audience:    req.Audience,
		Occasion:    req.Occasion,
		Date:        req.Date.String(),
		Reference:   topic.Reference,
		HebrewFocus: topic.HebrewFocus,
		Translation: topic.Translation,
		Themes:      topic.Themes,
	}
	if len(festivals) > 0 {
		data.Festival = &festivals[0]
	}
	if len(cong.Events) > 0 {
		data.Event = &cong.Events[0]
	}

	intro, err := render("introduction", orDefault(templates.Introduction, defaultIntroduction), data)
	if err != nil {
		return nil, err
	}
	conclusion, err := render("conclusion", orDefault(templates.Conclusion, defaultConclusion), data)
	if err != nil {
		return nil, err
	}

	title := fmt.Sprintf("%s: %s", topic.Reference, DisplayName(req.LessonType))
	sections := buildSections(sel, sectionTitles(templates, req.LessonType))

	morphology := topic.Morphology
	morphology.ExegeticalNotes = append([]string{}, morphology.ExegeticalNotes...)

	return &Lesson{
		Title:        title,
		Introduction: intro,
		Conclusion:   conclusion,
		HebrewFocus:  topic.HebrewFocus,
		Morphology:   morphology,
		Themes:       append([]string{}, topic.Themes...),
		Sections:     sections,
		Slides:       buildSlides(title, intro, sections, conclusion),
	}, nil
}

// DisplayName title-cases a lesson type: bible_study becomes "Bible Study".
func DisplayName(lt dataset.LessonType) string {
	return cases.Title(language.English).String(strings.ReplaceAll(string(lt), "_", " "))
}

func render(name, body string, data phraseData) (string, error) {
	tmpl, err := template.New(name).Funcs(dataset.TemplateFuncs).Option("missingkey=error").Parse(body)
	if err != nil {
		return "", fmt.Errorf("parse %s template: %w", name, err)
	}
	var sb strings.Builder
	if err := tmpl.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(sb.String()), nil
}

func sectionTitles(templates dataset.Templates, lt dataset.LessonType) []string {
	if titles := templates.Sections[lt]; len(titles) > 0 {
		return titles
	}
	return defaultSectionTitles[lt]
}

// buildSections deals the selected fragments round-robin across the
// allocated sections. The first section always opens with the textual
// horizon and the morphology's own exegetical notes.
func buildSections(sel content.Selection, titles []string) []Section {
	topic := sel.Topic
	n := max(sel.Sections, content.MinSections)
	sections := make([]Section, n)
	applications := make([][]string, n)

	for i := range sections {
		sections[i].Title = sectionTitle(titles, i)
		sections[i].ExegeticalNotes = []string{}
		sections[i].Content = sectionContent(topic, i)
	}
	sections[0].ExegeticalNotes = append(sections[0].ExegeticalNotes, topic.Morphology.ExegeticalNotes...)

	for j, f := range sel.Fragments {
		i := j % n
		if f.Kind.IsApplication() {
			applications[i] = append(applications[i], f.Text)
			continue
		}
		sections[i].ExegeticalNotes = append(sections[i].ExegeticalNotes, f.Text)
	}

	for i := range sections {
		switch {
		case len(applications[i]) > 0:
			sections[i].Application = strings.Join(applications[i], " ")
		case topic.Morphology.Application != "":
			sections[i].Application = topic.Morphology.Application
		default:
			sections[i].Application = defaultApplication
		}
	}
	return sections
}

func sectionTitle(titles []string, i int) string {
	if i < len(titles) {
		return titles[i]
	}
	return fmt.Sprintf("Movement %d", i+1)
}

func sectionContent(topic dataset.Topic, i int) string {
	m := topic.Morphology
	if i == 0 {
		s := fmt.Sprintf("%s anchors the lesson. Key Hebrew focus: %s", topic.Reference, topic.HebrewFocus)
		if topic.Translation != "" {
			s += fmt.Sprintf(" (%s)", topic.Translation)
		}
		s += fmt.Sprintf(". Morphology: %s", m.PartOfSpeech)
		if m.Root != "" {
			s += fmt.Sprintf(" rooted in %s", m.Root)
		}
		return s + "."
	}
	if len(topic.Themes) == 0 {
		return fmt.Sprintf("Dwell further in %s through %s.", topic.Reference, m.Lexeme)
	}
	theme := topic.Themes[(i-1)%len(topic.Themes)]
	return fmt.Sprintf("Trace the theme of %s through %s.", theme, topic.Reference)
}

func buildSlides(title, intro string, sections []Section, conclusion string) []Slide {
	slides := make([]Slide, 0, len(sections)+2)
	slides = append(slides, Slide{
		Title:   title,
		Bullets: []string{intro},
		Notes:   openingNotes,
	})
	for i, s := range sections {
		bullets := make([]string, 0, len(s.ExegeticalNotes)+2)
		bullets = append(bullets, s.Content)
		bullets = append(bullets, s.ExegeticalNotes...)
		bullets = append(bullets, s.Application)

		notes := strings.Join(s.ExegeticalNotes, " ")
		if notes == "" {
			notes = sectionNotes
		}
		slides = append(slides, Slide{
			Title:   fmt.Sprintf("%d. %s", i+1, s.Title),
			Bullets: truncate(bullets, MaxBullets),
			Notes:   notes,
		})
	}
	slides = append(slides, Slide{
		Title:   closingTitle,
		Bullets: []string{conclusion},
		Notes:   closingNotes,
	})
	return slides
}

// truncate keeps at most n whole items.
func truncate(items []string, n int) []string {
	if len(items) <= n {
		return items
	}
	return items[:n:n]
}

func orDefault(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}
