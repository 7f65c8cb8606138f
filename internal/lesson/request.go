package lesson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// DefaultMinutes is used when estimated_minutes is absent or malformed.
const DefaultMinutes = 35

// MaxMinutes is the longest accepted estimate; larger values fall back to
// DefaultMinutes.
const MaxMinutes = 600

// ErrInvalidRequest is returned when a request fails boundary validation.
var ErrInvalidRequest = errors.New("invalid request")

// RequestError names the offending field.
type RequestError struct {
	Field  string
	Reason string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// Is lets errors.Is match RequestError against ErrInvalidRequest.
func (e *RequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// IsInvalidRequest checks if an error is a request validation error.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}

// RawRequest is the flat field set received at the boundary. Unknown
// fields are ignored by the decoder.
type RawRequest struct {
	Audience       string `json:"audience"`
	Occasion       string `json:"occasion"`
	Date           string `json:"date"`
	TopicOrPassage string `json:"topic_or_passage"`
	Topic          string `json:"topic"`
	Passage        string `json:"passage"`
	LessonType     string `json:"lesson_type"`
	// EstimatedMinutes is kept raw so that a malformed value falls back
	// to DefaultMinutes instead of failing the decode.
	EstimatedMinutes json.RawMessage `json:"estimated_minutes,omitempty"`
	Interpreted      bool            `json:"interpreted"`
	CongregationID   string          `json:"congregation_id"`
	WindowDays       *int            `json:"window_days,omitempty"`
	FirstAdar        bool            `json:"first_adar"`
}

// Request is a validated lesson request.
type Request struct {
	Audience         string             `json:"audience"`
	Occasion         string             `json:"occasion"`
	Date             calendar.CivilDate `json:"date"`
	TopicOrPassage   string             `json:"topic_or_passage"`
	LessonType       dataset.LessonType `json:"lesson_type"`
	EstimatedMinutes int                `json:"estimated_minutes"`
	Interpreted      bool               `json:"interpreted"`
	CongregationID   string             `json:"congregation_id,omitempty"`
	WindowDays       int                `json:"window_days"`
	FirstAdar        bool               `json:"first_adar"`
}

// Options returns the calendar options carried by the request.
func (r Request) Options() calendar.Options {
	return calendar.Options{WindowDays: r.WindowDays, FirstAdar: r.FirstAdar}
}

// Limits are the boundary defaults applied by ParseRequest.
type Limits struct {
	// Today replaces an absent date. A zero value makes date required.
	Today         calendar.CivilDate
	DefaultWindow int
	MaxWindow     int
}

// DefaultLimits returns limits with the standard window and no default date.
func DefaultLimits() Limits {
	return Limits{
		DefaultWindow: calendar.DefaultWindowDays,
		MaxWindow:     180,
	}
}

// DecodeRequest reads a JSON request body.
func DecodeRequest(body []byte) (RawRequest, error) {
	var raw RawRequest
	if len(bytes.TrimSpace(body)) == 0 {
		return raw, &RequestError{Field: "body", Reason: "request body is required"}
	}
	if err := json.Unmarshal(body, &raw); err != nil {
		return raw, &RequestError{Field: "body", Reason: fmt.Sprintf("malformed JSON: %v", err)}
	}
	return raw, nil
}

// ParseRequest validates a raw request and applies defaults.
func ParseRequest(raw RawRequest, limits Limits) (Request, error) {
	req := Request{
		Audience:         strings.TrimSpace(raw.Audience),
		Occasion:         strings.TrimSpace(raw.Occasion),
		EstimatedMinutes: parseMinutes(raw.EstimatedMinutes),
		Interpreted:      raw.Interpreted,
		CongregationID:   strings.TrimSpace(raw.CongregationID),
		FirstAdar:        raw.FirstAdar,
	}

	req.TopicOrPassage = firstNonEmpty(raw.TopicOrPassage, raw.Passage, raw.Topic)
	if req.TopicOrPassage == "" {
		return Request{}, &RequestError{Field: "topic_or_passage", Reason: "topic or passage is required"}
	}

	req.LessonType = dataset.LessonType(strings.ToLower(strings.TrimSpace(raw.LessonType)))
	if !req.LessonType.IsValid() {
		return Request{}, &RequestError{
			Field:  "lesson_type",
			Reason: fmt.Sprintf("must be one of %v, got %q", dataset.ValidLessonTypes(), raw.LessonType),
		}
	}

	switch {
	case strings.TrimSpace(raw.Date) != "":
		date, err := calendar.ParseDate(raw.Date)
		if err != nil {
			return Request{}, err
		}
		req.Date = date
	case !limits.Today.IsZero():
		req.Date = limits.Today
	default:
		return Request{}, &RequestError{Field: "date", Reason: "date is required"}
	}

	req.WindowDays = limits.DefaultWindow
	if raw.WindowDays != nil {
		req.WindowDays = *raw.WindowDays
	}
	if req.WindowDays < 0 || req.WindowDays > limits.MaxWindow {
		return Request{}, &RequestError{
			Field:  "window_days",
			Reason: fmt.Sprintf("must be between 0 and %d", limits.MaxWindow),
		}
	}

	return req, nil
}

// parseMinutes accepts a whole number in [1, MaxMinutes], as a JSON number
// or a numeric string. Anything else yields DefaultMinutes.
func parseMinutes(raw json.RawMessage) int {
	if len(raw) == 0 {
		return DefaultMinutes
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return DefaultMinutes
	}
	n := 0
	switch x := v.(type) {
	case float64:
		if x > MaxMinutes || x != float64(int(x)) {
			return DefaultMinutes
		}
		n = int(x)
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return DefaultMinutes
		}
		n = parsed
	}
	if n <= 0 || n > MaxMinutes {
		return DefaultMinutes
	}
	return n
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
