// Command apitest runs a smoke test suite against a running lesson
// designer API.
//
// Usage:
//
//	go run ./cmd/apitest -url http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/zapponejosh/lesson-designer/internal/api"
	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
	"github.com/zapponejosh/lesson-designer/internal/lesson"
)

// =============================================================================
// Response Types
// =============================================================================

// APIResponse is the envelope with its payload left raw.
type APIResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *api.ErrorInfo  `json:"error,omitempty"`
}

type healthResponse struct {
	Status         string `json:"status"`
	DatasetVersion string `json:"dataset_version"`
}

type topicsResponse struct {
	Topics []content.TopicSummary `json:"topics"`
}

type festivalsResponse struct {
	Festivals []calendar.Correlation `json:"festivals"`
}

// =============================================================================
// Test Runner
// =============================================================================

// TestRunner issues requests and tallies results.
type TestRunner struct {
	baseURL      string
	client       *http.Client
	out          io.Writer
	verbose      bool
	successCount int
	errorCount   int
	errors       []string
	topics       []string
}

// NewTestRunner creates a runner against baseURL writing its report to out.
func NewTestRunner(baseURL string, out io.Writer, verbose bool) *TestRunner {
	return &TestRunner{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
		out:     out,
		verbose: verbose,
	}
}

// Run executes every test group and prints a summary. It reports whether
// all checks passed.
func (tr *TestRunner) Run() bool {
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Lesson Designer API Smoke Tests")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "Base URL: %s\n", tr.baseURL)

	tr.testHealth()
	tr.testTopics()
	tr.testFestivals()
	tr.testLessons()
	tr.testEdgeCases()

	tr.printSummary()
	return tr.errorCount == 0
}

// =============================================================================
// Test Groups
// =============================================================================

func (tr *TestRunner) testHealth() {
	tr.printSection("Health Check")

	var health healthResponse
	if err := tr.get("/health", &health); err != nil {
		tr.recordError("Health", err.Error())
		return
	}

	if health.Status == "healthy" {
		tr.recordSuccess(fmt.Sprintf("Health check passed (dataset %s)", health.DatasetVersion))
	} else {
		tr.recordError("Health", fmt.Sprintf("Unexpected status: %s", health.Status))
	}
}

func (tr *TestRunner) testTopics() {
	tr.printSection("Topics")

	var data topicsResponse
	if err := tr.get("/api/v1/topics", &data); err != nil {
		tr.recordError("Topics", err.Error())
		return
	}
	if len(data.Topics) == 0 {
		tr.recordError("Topics", "no curated topics")
		return
	}

	for _, t := range data.Topics {
		tr.topics = append(tr.topics, t.Key)
		if tr.verbose {
			fmt.Fprintf(tr.out, "    %s (%s) %s\n", t.Key, t.Reference, t.HebrewFocus)
		}
	}
	tr.recordSuccess(fmt.Sprintf("%d topics listed", len(data.Topics)))
}

func (tr *TestRunner) testFestivals() {
	tr.printSection("Festival Correlation")

	// Each date is the festival day itself, so it must come first at distance 0.
	testCases := []struct {
		date    string
		eventID string
	}{
		{"2024-06-12", "shavuot"},
		{"2024-10-03", "rosh-hashanah"},
		{"2024-12-26", "hanukkah"},
		{"2025-03-14", "purim"},
	}

	for _, tc := range testCases {
		var data festivalsResponse
		if err := tr.get("/api/v1/festivals?window=7&date="+tc.date, &data); err != nil {
			tr.recordError(tc.date, err.Error())
			continue
		}
		if len(data.Festivals) == 0 {
			tr.recordError(tc.date, "no festivals returned")
			continue
		}
		first := data.Festivals[0]
		if first.EventID != tc.eventID || first.DaysApart != 0 {
			tr.recordError(tc.date, fmt.Sprintf("got %s at %+d days, want %s on the day", first.EventID, first.DaysApart, tc.eventID))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s: %s (%s)", tc.date, first.Festival, first.Anchor))
	}
}

func (tr *TestRunner) testLessons() {
	tr.printSection("Lesson Generation")

	for _, topic := range tr.topics {
		for _, lt := range dataset.ValidLessonTypes() {
			name := fmt.Sprintf("%s/%s", topic, lt)

			var resp lesson.Response
			err := tr.post("/api/v1/lessons", map[string]any{
				"topic_or_passage":  topic,
				"lesson_type":       lt,
				"date":              "2024-04-20",
				"estimated_minutes": 35,
			}, &resp)
			if err != nil {
				tr.recordError(name, err.Error())
				continue
			}

			if problem := checkLesson(resp.Lesson); problem != "" {
				tr.recordError(name, problem)
				continue
			}
			tr.recordSuccess(fmt.Sprintf("%s: %q, %d sections", name, resp.Lesson.Title, len(resp.Lesson.Sections)))
		}
	}
}

func (tr *TestRunner) testEdgeCases() {
	tr.printSection("Edge Cases")

	testCases := []struct {
		name   string
		body   map[string]any
		status int
		code   string
	}{
		{"Impossible date", map[string]any{"topic": "x", "lesson_type": "sermon", "date": "2024-02-30"}, http.StatusBadRequest, api.CodeInvalidDate},
		{"Missing topic", map[string]any{"lesson_type": "sermon", "date": "2024-04-20"}, http.StatusBadRequest, api.CodeBadRequest},
		{"Unknown topic", map[string]any{"topic": "no-such-topic", "lesson_type": "sermon", "date": "2024-04-20"}, http.StatusNotFound, api.CodeNoContent},
	}

	for _, tc := range testCases {
		status, apiResp, err := tr.do(http.MethodPost, "/api/v1/lessons", tc.body)
		if err != nil {
			tr.recordError(tc.name, err.Error())
			continue
		}
		if status != tc.status || apiResp.Error == nil || apiResp.Error.Code != tc.code {
			tr.recordError(tc.name, fmt.Sprintf("got HTTP %d %+v, want %d %s", status, apiResp.Error, tc.status, tc.code))
			continue
		}
		tr.recordSuccess(fmt.Sprintf("%s -> %d %s", tc.name, status, tc.code))
	}
}

// checkLesson reports the first structural problem in l, or "".
func checkLesson(l lesson.Lesson) string {
	if len(l.Sections) < 2 {
		return fmt.Sprintf("%d sections, want at least 2", len(l.Sections))
	}
	if len(l.Slides) != len(l.Sections)+2 {
		return fmt.Sprintf("%d slides for %d sections", len(l.Slides), len(l.Sections))
	}
	for i, s := range l.Slides {
		if len(s.Bullets) > lesson.MaxBullets {
			return fmt.Sprintf("slide %d has %d bullets", i, len(s.Bullets))
		}
	}
	return ""
}

// =============================================================================
// Helpers
// =============================================================================

func (tr *TestRunner) get(path string, target any) error {
	return tr.expectOK(http.MethodGet, path, nil, target)
}

func (tr *TestRunner) post(path string, body, target any) error {
	return tr.expectOK(http.MethodPost, path, body, target)
}

func (tr *TestRunner) expectOK(method, path string, body, target any) error {
	status, apiResp, err := tr.do(method, path, body)
	if err != nil {
		return err
	}
	if status != http.StatusOK || !apiResp.Success {
		errMsg := "unknown error"
		if apiResp.Error != nil {
			errMsg = apiResp.Error.Detail
		}
		return fmt.Errorf("HTTP %d: %s", status, errMsg)
	}
	if err := json.Unmarshal(apiResp.Data, target); err != nil {
		return fmt.Errorf("decode data: %w", err)
	}
	return nil
}

func (tr *TestRunner) do(method, path string, body any) (int, *APIResponse, error) {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, nil, err
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, tr.baseURL+path, reader)
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := tr.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return resp.StatusCode, nil, fmt.Errorf("decode response: %w", err)
	}
	return resp.StatusCode, &apiResp, nil
}

func (tr *TestRunner) printSection(name string) {
	fmt.Fprintln(tr.out)
	fmt.Fprintf(tr.out, "--- %s ---\n", name)
	fmt.Fprintln(tr.out)
}

func (tr *TestRunner) recordSuccess(msg string) {
	tr.successCount++
	fmt.Fprintf(tr.out, "  ✓ %s\n", msg)
}

func (tr *TestRunner) recordError(context, msg string) {
	tr.errorCount++
	errStr := fmt.Sprintf("%s: %s", context, msg)
	tr.errors = append(tr.errors, errStr)
	fmt.Fprintf(tr.out, "  ✗ %s\n", errStr)
}

func (tr *TestRunner) printSummary() {
	fmt.Fprintln(tr.out)
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintln(tr.out, "Summary")
	fmt.Fprintln(tr.out, "==============================================")
	fmt.Fprintf(tr.out, "  Passed: %d\n", tr.successCount)
	fmt.Fprintf(tr.out, "  Failed: %d\n", tr.errorCount)
	fmt.Fprintln(tr.out)

	if tr.errorCount > 0 {
		fmt.Fprintln(tr.out, "Failures:")
		for _, err := range tr.errors {
			fmt.Fprintf(tr.out, "  • %s\n", err)
		}
		fmt.Fprintln(tr.out)
		fmt.Fprintf(tr.out, "Tests completed with %d failure(s)\n", tr.errorCount)
		return
	}
	fmt.Fprintln(tr.out, "All tests passed! ✓")
}

// =============================================================================
// Main
// =============================================================================

func main() {
	baseURL := flag.String("url", "http://localhost:8080", "Base URL of the API")
	verbose := flag.Bool("v", false, "Verbose output (list topics)")
	flag.Parse()

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(*baseURL + "/health")
	if err != nil {
		fmt.Printf("Error: Cannot connect to %s\n", *baseURL)
		fmt.Println("Make sure the API server is running.")
		os.Exit(1)
	}
	resp.Body.Close()

	if !NewTestRunner(*baseURL, os.Stdout, *verbose).Run() {
		os.Exit(1)
	}
}
