package lesson

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/congregation"
	"github.com/zapponejosh/lesson-designer/internal/content"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// Snapshotter provides the current dataset. *dataset.Store implements it.
type Snapshotter interface {
	Snapshot() *dataset.Dataset
}

// Service generates lessons against the current dataset snapshot.
type Service struct {
	snapshots Snapshotter
	years     calendar.YearRange
	resolver  *congregation.Resolver
	selector  *content.Selector
	linker    *content.Linker
	assembler *Assembler
	logger    *slog.Logger
}

// NewService creates a lesson service.
func NewService(snapshots Snapshotter, years calendar.YearRange, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		snapshots: snapshots,
		years:     years,
		resolver:  congregation.NewResolver(years),
		selector:  content.NewSelector(),
		linker:    content.NewLinker(),
		assembler: NewAssembler(),
		logger:    logger,
	}
}

// Generate assembles a lesson. Correlation, congregation context and
// content selection run concurrently against one snapshot; any failure
// aborts before a lesson is built.
func (s *Service) Generate(ctx context.Context, req Request) (*Response, error) {
	if err := s.years.Check(req.Date); err != nil {
		return nil, err
	}
	if req.WindowDays < 0 {
		return nil, &RequestError{Field: "window_days", Reason: "must not be negative"}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("generate lesson: %w", err)
	}

	snap := s.snapshots.Snapshot()
	opts := req.Options()

	var (
		festivals []calendar.Correlation
		cong      congregation.Context
		sel       content.Selection
	)

	var g errgroup.Group
	g.Go(func() error {
		var err error
		festivals, err = calendar.NewCorrelator(snap.Festivals, s.years).Correlate(req.Date, opts)
		return err
	})
	g.Go(func() error {
		var err error
		cong, err = s.resolver.Resolve(snap, req.Date, req.CongregationID, opts)
		return err
	})
	g.Go(func() error {
		var err error
		sel, err = s.selector.Select(snap, req.TopicOrPassage, req.LessonType, req.Audience, req.EstimatedMinutes)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if req.CongregationID != "" && cong.Name == "" {
		s.logger.Debug("congregation not found, using empty context",
			slog.String("congregation_id", req.CongregationID),
		)
	}

	sources := s.linker.Link(snap, sel)
	lesson, err := s.assembler.Assemble(req, festivals, cong, sel, snap.Templates)
	if err != nil {
		return nil, fmt.Errorf("assemble lesson: %w", err)
	}

	s.logger.Debug("lesson generated",
		slog.String("dataset_version", snap.Version),
		slog.String("topic", sel.Topic.Key),
		slog.String("lesson_type", string(req.LessonType)),
		slog.String("date", req.Date.String()),
		slog.Int("festivals", len(festivals)),
		slog.Int("sections", len(lesson.Sections)),
	)

	return &Response{
		Lesson:         *lesson,
		Festivals:      festivals,
		Congregation:   cong,
		GithubSources:  sources,
		RuntimeMinutes: RuntimeMinutes(req.EstimatedMinutes, req.Interpreted),
	}, nil
}

// Festivals correlates a date against the current festival table.
func (s *Service) Festivals(date calendar.CivilDate, opts calendar.Options) ([]calendar.Correlation, error) {
	snap := s.snapshots.Snapshot()
	return calendar.NewCorrelator(snap.Festivals, s.years).Correlate(date, opts)
}

// Congregation resolves a congregation's context. Unlike Generate, an
// unknown id is reported as congregation.ErrNotFound.
func (s *Service) Congregation(date calendar.CivilDate, id string, opts calendar.Options) (congregation.Context, error) {
	snap := s.snapshots.Snapshot()
	if _, err := s.resolver.Lookup(snap, id); err != nil {
		return congregation.Context{}, err
	}
	return s.resolver.Resolve(snap, date, id, opts)
}

// Topics lists the curated topics.
func (s *Service) Topics() []content.TopicSummary {
	return content.Catalog(s.snapshots.Snapshot())
}

// DatasetVersion reports the version of the current snapshot.
func (s *Service) DatasetVersion() string {
	return s.snapshots.Snapshot().Version
}
