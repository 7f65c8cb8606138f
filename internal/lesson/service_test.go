package lesson

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/dataset/datasettest"
)

func testService(t *testing.T, d *dataset.Dataset) *Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
	return NewService(dataset.NewStaticStore(d), calendar.DefaultYearRange, logger)
}

func sermonRequest() Request {
	return Request{
		Audience:         "young adults",
		Occasion:         "Sunday Worship",
		Date:             calendar.Date(2024, time.April, 20),
		TopicOrPassage:   "genesis-12",
		LessonType:       dataset.LessonTypeSermon,
		EstimatedMinutes: 60,
		Interpreted:      true,
		CongregationID:   datasettest.Congregation,
		WindowDays:       calendar.DefaultWindowDays,
	}
}

func TestGenerateSermon(t *testing.T) {
	svc := testService(t, datasettest.Dataset())

	resp, err := svc.Generate(context.Background(), sermonRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	l := resp.Lesson

	if l.Title != "Genesis 12:1-3: Sermon" {
		t.Errorf("Title = %q", l.Title)
	}
	wantIntro := "Imagine standing where Genesis 12:1-3 first unfolded, hearing the Hebrew cadence of לֶךְ־לְךָ inviting trust." +
		" We gather with Passover (Pesach) approaching (2024-04-23), a season that celebrates redemption from Egypt and anticipates ultimate deliverance." +
		" Our own community prepares for Community Seder in 2 days, aligning hearts toward remembering redemption at table." +
		" For young adults, God's word speaks with precision and promise." +
		" In this sunday worship we are called to listen afresh."
	if l.Introduction != wantIntro {
		t.Errorf("Introduction mismatch (-want +got):\n%s", cmp.Diff(wantIntro, l.Introduction))
	}
	wantConclusion := "The same cadence that opened our time, לֶךְ־לְךָ, now sends us." +
		" Let the insights we traced in Genesis 12:1-3 move from study to practice as we embrace covenant, blessing, journey."
	if l.Conclusion != wantConclusion {
		t.Errorf("Conclusion mismatch (-want +got):\n%s", cmp.Diff(wantConclusion, l.Conclusion))
	}
	if l.HebrewFocus != "לֶךְ־לְךָ" || l.Morphology.Lexeme != "הָלַךְ" {
		t.Errorf("focus = %q, lexeme = %q", l.HebrewFocus, l.Morphology.Lexeme)
	}

	// 60 minutes: ceil(60/9) = 7, clamped to 6.
	if len(l.Sections) != 6 {
		t.Fatalf("len(Sections) = %d, want 6", len(l.Sections))
	}
	first := l.Sections[0]
	if first.Title != "Textual Horizon" {
		t.Errorf("Sections[0].Title = %q", first.Title)
	}
	wantNotes := []string{
		"The ethical dative focuses the command on Abram himself.",
		"The call sequence moves from land to kindred to father's house.",
		"Open with the cost of leaving home.",
	}
	if diff := cmp.Diff(wantNotes, first.ExegeticalNotes); diff != "" {
		t.Errorf("Sections[0].ExegeticalNotes mismatch (-want +got):\n%s", diff)
	}
	if !strings.Contains(first.Content, "verb, qal imperative rooted in ה־ל־ך") {
		t.Errorf("Sections[0].Content = %q", first.Content)
	}
	if got := l.Sections[4].Application; got != "Invite testimonies of unexpected journeys." {
		t.Errorf("Sections[4].Application = %q", got)
	}
	if got := l.Sections[5].Application; got != "Name one step of trust the community can take this week." {
		t.Errorf("Sections[5].Application = %q, want morphology application", got)
	}
	if got := l.Sections[1].Content; got != "Trace the theme of covenant through Genesis 12:1-3." {
		t.Errorf("Sections[1].Content = %q", got)
	}

	// Title slide, one per section, closing slide.
	if len(l.Slides) != 8 {
		t.Fatalf("len(Slides) = %d, want 8", len(l.Slides))
	}
	if l.Slides[0].Title != l.Title || l.Slides[0].Bullets[0] != l.Introduction {
		t.Errorf("title slide = %+v", l.Slides[0])
	}
	if l.Slides[1].Title != "1. Textual Horizon" {
		t.Errorf("Slides[1].Title = %q", l.Slides[1].Title)
	}
	if got := l.Slides[1].Notes; got != strings.Join(wantNotes, " ") {
		t.Errorf("Slides[1].Notes = %q", got)
	}
	if got := l.Slides[6].Notes; got != sectionNotes {
		t.Errorf("Slides[6].Notes = %q, want default notes for a section without notes", got)
	}
	last := l.Slides[len(l.Slides)-1]
	if last.Title != "Sending Charge" || last.Bullets[0] != l.Conclusion {
		t.Errorf("closing slide = %+v", last)
	}

	if resp.RuntimeMinutes != 39 {
		t.Errorf("RuntimeMinutes = %d, want 39", resp.RuntimeMinutes)
	}
	if len(resp.Festivals) != 2 || resp.Festivals[0].EventID != "passover" || resp.Festivals[0].DaysApart != 3 {
		t.Errorf("Festivals = %+v, want passover at +3 first", resp.Festivals)
	}
	if resp.Congregation.Name != "Grace Chapel" || len(resp.Congregation.Events) != 4 {
		t.Errorf("Congregation = %+v", resp.Congregation)
	}
	var names []string
	for _, s := range resp.GithubSources {
		names = append(names, s.Name)
	}
	if diff := cmp.Diff([]string{"Genesis (BHSA)", "Lexeme hlk"}, names); diff != "" {
		t.Errorf("GithubSources mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateIsDeterministic(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	req := sermonRequest()

	a, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	b, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("Generate() not deterministic (-first +second):\n%s", diff)
	}

	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if string(ja) != string(jb) {
		t.Error("JSON encodings differ between identical requests")
	}
}

func TestGenerateConcurrent(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	want, err := svc.Generate(context.Background(), sermonRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan string, 16)
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := svc.Generate(context.Background(), sermonRequest())
			if err != nil {
				errs <- err.Error()
				return
			}
			if diff := cmp.Diff(want, got); diff != "" {
				errs <- diff
			}
		}()
	}
	wg.Wait()
	close(errs)
	for e := range errs {
		t.Error(e)
	}
}

func TestGenerateUnknownTopic(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	req := sermonRequest()
	req.TopicOrPassage = "unregistered_topic_xyz"

	resp, err := svc.Generate(context.Background(), req)
	if !content.IsNoContentFound(err) {
		t.Fatalf("Generate() error = %v, want no content found", err)
	}
	if resp != nil {
		t.Errorf("Generate() returned %+v alongside an error", resp)
	}
}

func TestGenerateWithoutCongregation(t *testing.T) {
	svc := testService(t, datasettest.Dataset())

	for _, id := range []string{"", "unknown-church"} {
		req := sermonRequest()
		req.CongregationID = id

		resp, err := svc.Generate(context.Background(), req)
		if err != nil {
			t.Fatalf("Generate(congregation %q) error = %v", id, err)
		}
		if diff := cmp.Diff(congregation.Empty(), resp.Congregation); diff != "" {
			t.Errorf("Congregation mismatch (-want +got):\n%s", diff)
		}
		if strings.Contains(resp.Lesson.Introduction, "Our own community") {
			t.Errorf("Introduction mentions community events: %q", resp.Lesson.Introduction)
		}
	}
}

func TestGenerateEmptyCollectionsEncodeAsArrays(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	req := sermonRequest()
	req.TopicOrPassage = "ruth-1"
	req.Date = calendar.Date(2024, time.August, 1)
	req.CongregationID = ""

	resp, err := svc.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	for _, want := range []string{`"festivals":[]`, `"events":[]`, `"values":[]`, `"github_sources":[]`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("response JSON missing %s", want)
		}
	}
	if strings.Contains(string(data), "null") {
		t.Errorf("response JSON contains null: %s", data)
	}
}

func TestGenerateTieBreakByOrder(t *testing.T) {
	raw := datasettest.Raw()
	// Same day as Passover, listed first and sorting first by id, but
	// ordered after it.
	raw.Festivals = append([]calendar.Event{{
		ID:     "aaa-first-fruits",
		Name:   "Firstfruits",
		Anchor: calendar.Anchor{Month: calendar.Nisan, Day: 15},
		Order:  9,
	}}, raw.Festivals...)
	svc := testService(t, dataset.MustPrepare(raw))

	resp, err := svc.Generate(context.Background(), sermonRequest())
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	var ids []string
	for _, f := range resp.Festivals {
		ids = append(ids, f.EventID)
	}
	want := []string{"passover", "aaa-first-fruits", "unleavened-bread"}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("festival order mismatch (-want +got):\n%s", diff)
	}
}

func TestGenerateFailsAtomically(t *testing.T) {
	raw := datasettest.Raw()
	raw.Templates.Introduction = "{{.NoSuchField}}"
	svc := testService(t, dataset.MustPrepare(raw))

	resp, err := svc.Generate(context.Background(), sermonRequest())
	if err == nil {
		t.Fatal("Generate() error = nil, want template error")
	}
	if resp != nil {
		t.Errorf("Generate() returned a partial response: %+v", resp)
	}
}

func TestGenerateInvalidDate(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	req := sermonRequest()
	req.Date = calendar.Date(2101, time.January, 1)

	if _, err := svc.Generate(context.Background(), req); !calendar.IsInvalidDate(err) {
		t.Errorf("Generate() error = %v, want invalid date", err)
	}
}

func TestGenerateCancelled(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Generate(ctx, sermonRequest()); err == nil {
		t.Error("Generate() error = nil, want context error")
	}
}

func TestServiceCongregation(t *testing.T) {
	svc := testService(t, datasettest.Dataset())
	date := calendar.Date(2024, time.April, 20)

	got, err := svc.Congregation(date, datasettest.Congregation, calendar.Options{WindowDays: 21})
	if err != nil {
		t.Fatalf("Congregation() error = %v", err)
	}
	if len(got.Events) != 4 {
		t.Errorf("len(Events) = %d, want 4", len(got.Events))
	}
	if _, err := svc.Congregation(date, "unknown", calendar.Options{WindowDays: 21}); !congregation.IsNotFound(err) {
		t.Errorf("Congregation(unknown) error = %v, want not found", err)
	}
}
