package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
	"github.com/zapponejosh/lesson-designer/internal/dataset"
)

// =============================================================================
// Dataset Import
// =============================================================================

// ImportDataset replaces the stored dataset with d in one transaction.
// Readers see either the old dataset or the new one, never a mix.
func (db *DB) ImportDataset(ctx context.Context, d *dataset.Dataset) error {
	err := db.WithTx(ctx, func(tx *Tx) error {
		for _, table := range []string{"dataset_meta", "festivals", "congregations", "topics", "sources", "section_titles"} {
			if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
				return fmt.Errorf("clear %s: %w", table, err)
			}
		}

		if err := insertMeta(ctx, tx, d); err != nil {
			return err
		}
		if err := insertFestivals(ctx, tx, d.Festivals); err != nil {
			return err
		}
		if err := insertCongregations(ctx, tx, d.Congregations); err != nil {
			return err
		}
		if err := insertTopics(ctx, tx, d.Topics); err != nil {
			return err
		}
		if err := insertSources(ctx, tx, d.Sources); err != nil {
			return err
		}
		return insertSectionTitles(ctx, tx, d.Templates.Sections)
	})
	if err != nil {
		return fmt.Errorf("import dataset: %w", err)
	}

	db.logger.Info("dataset imported",
		slog.String("version", d.Version),
		slog.Int("festivals", len(d.Festivals)),
		slog.Int("congregations", len(d.Congregations)),
		slog.Int("topics", len(d.Topics)),
	)
	return nil
}

func insertMeta(ctx context.Context, tx *Tx, d *dataset.Dataset) error {
	meta := map[string]string{
		metaVersion:      d.Version,
		metaIntroduction: d.Templates.Introduction,
		metaConclusion:   d.Templates.Conclusion,
	}
	for k, v := range meta {
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO dataset_meta (key, value) VALUES (?, ?)", k, v,
		); err != nil {
			return fmt.Errorf("insert meta %s: %w", k, err)
		}
	}
	return nil
}

func insertFestivals(ctx context.Context, tx *Tx, festivals []calendar.Event) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO festivals (id, name, month, day, first_adar, emphasis, ord)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare festival insert: %w", err)
	}
	defer stmt.Close()

	for _, f := range festivals {
		if _, err := stmt.ExecContext(ctx,
			f.ID, f.Name, int(f.Anchor.Month), f.Anchor.Day, f.Anchor.FirstAdar, f.Emphasis, f.Order,
		); err != nil {
			return fmt.Errorf("insert festival %s: %w", f.ID, err)
		}
	}
	return nil
}

func insertCongregations(ctx context.Context, tx *Tx, congregations []dataset.Congregation) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO congregations (id, position, name, location, core_values, events)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare congregation insert: %w", err)
	}
	defer stmt.Close()

	for i, c := range congregations {
		values, err := marshalColumn(c.Values)
		if err != nil {
			return fmt.Errorf("encode values for %s: %w", c.ID, err)
		}
		events, err := marshalColumn(c.Events)
		if err != nil {
			return fmt.Errorf("encode events for %s: %w", c.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, c.ID, i, c.Name, c.Location, values, events); err != nil {
			return fmt.Errorf("insert congregation %s: %w", c.ID, err)
		}
	}
	return nil
}

func insertTopics(ctx context.Context, tx *Tx, topics []dataset.Topic) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO topics (key, position, reference, hebrew_focus, translation, aliases, themes, morphology, fragments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare topic insert: %w", err)
	}
	defer stmt.Close()

	for i, t := range topics {
		aliases, err := marshalColumn(t.Aliases)
		if err != nil {
			return fmt.Errorf("encode aliases for %s: %w", t.Key, err)
		}
		themes, err := marshalColumn(t.Themes)
		if err != nil {
			return fmt.Errorf("encode themes for %s: %w", t.Key, err)
		}
		morphology, err := json.Marshal(t.Morphology)
		if err != nil {
			return fmt.Errorf("encode morphology for %s: %w", t.Key, err)
		}
		fragments, err := marshalColumn(t.Fragments)
		if err != nil {
			return fmt.Errorf("encode fragments for %s: %w", t.Key, err)
		}
		if _, err := stmt.ExecContext(ctx,
			t.Key, i, t.Reference, t.HebrewFocus, t.Translation, aliases, themes, string(morphology), fragments,
		); err != nil {
			return fmt.Errorf("insert topic %s: %w", t.Key, err)
		}
	}
	return nil
}

func insertSources(ctx context.Context, tx *Tx, sources map[string][]dataset.Source) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO sources (registry_key, position, name, path, html_url, repository)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare source insert: %w", err)
	}
	defer stmt.Close()

	for key, entries := range sources {
		for i, s := range entries {
			if _, err := stmt.ExecContext(ctx, key, i, s.Name, s.Path, s.URL, s.Repository); err != nil {
				return fmt.Errorf("insert source %s[%d]: %w", key, i, err)
			}
		}
	}
	return nil
}

func insertSectionTitles(ctx context.Context, tx *Tx, sections map[dataset.LessonType][]string) error {
	for lt, titles := range sections {
		for i, title := range titles {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO section_titles (lesson_type, position, title) VALUES (?, ?, ?)",
				string(lt), i, title,
			); err != nil {
				return fmt.Errorf("insert section title %s[%d]: %w", lt, i, err)
			}
		}
	}
	return nil
}

// =============================================================================
// Dataset Load
// =============================================================================

// LoadDataset reads the stored dataset. The result is not validated; pass
// it through dataset.Prepare before serving it. Returns ErrEmpty when
// nothing has been imported.
func (db *DB) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	var d dataset.Dataset
	err := db.WithTx(ctx, func(tx *Tx) error {
		var err error
		if err = loadMeta(ctx, tx, &d); err != nil {
			return err
		}
		if d.Festivals, err = loadFestivals(ctx, tx); err != nil {
			return err
		}
		if d.Congregations, err = loadCongregations(ctx, tx); err != nil {
			return err
		}
		if d.Topics, err = loadTopics(ctx, tx); err != nil {
			return err
		}
		if d.Sources, err = loadSources(ctx, tx); err != nil {
			return err
		}
		d.Templates.Sections, err = loadSectionTitles(ctx, tx)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	return &d, nil
}

func loadMeta(ctx context.Context, tx *Tx, d *dataset.Dataset) error {
	rows, err := tx.QueryContext(ctx, "SELECT key, value FROM dataset_meta")
	if err != nil {
		return fmt.Errorf("query meta: %w", err)
	}
	defer rows.Close()

	found := false
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return fmt.Errorf("scan meta: %w", err)
		}
		switch key {
		case metaVersion:
			d.Version = value
			found = true
		case metaIntroduction:
			d.Templates.Introduction = value
		case metaConclusion:
			d.Templates.Conclusion = value
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate meta: %w", err)
	}
	if !found {
		return ErrEmpty
	}
	return nil
}

func loadFestivals(ctx context.Context, tx *Tx) ([]calendar.Event, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, month, day, first_adar, emphasis, ord
		FROM festivals
		ORDER BY ord, id
	`)
	if err != nil {
		return nil, fmt.Errorf("query festivals: %w", err)
	}
	defer rows.Close()

	var festivals []calendar.Event
	for rows.Next() {
		var f calendar.Event
		var month int
		if err := rows.Scan(&f.ID, &f.Name, &month, &f.Anchor.Day, &f.Anchor.FirstAdar, &f.Emphasis, &f.Order); err != nil {
			return nil, fmt.Errorf("scan festival: %w", err)
		}
		f.Anchor.Month = calendar.HebrewMonth(month)
		festivals = append(festivals, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate festivals: %w", err)
	}
	return festivals, nil
}

func loadCongregations(ctx context.Context, tx *Tx) ([]dataset.Congregation, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT id, name, location, core_values, events
		FROM congregations
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query congregations: %w", err)
	}
	defer rows.Close()

	var congregations []dataset.Congregation
	for rows.Next() {
		var c dataset.Congregation
		var values, events string
		if err := rows.Scan(&c.ID, &c.Name, &c.Location, &values, &events); err != nil {
			return nil, fmt.Errorf("scan congregation: %w", err)
		}
		if c.Values, err = unmarshalColumn[string](values, "values"); err != nil {
			return nil, fmt.Errorf("congregation %s: %w", c.ID, err)
		}
		if c.Events, err = unmarshalColumn[dataset.CongregationEvent](events, "events"); err != nil {
			return nil, fmt.Errorf("congregation %s: %w", c.ID, err)
		}
		congregations = append(congregations, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate congregations: %w", err)
	}
	return congregations, nil
}

func loadTopics(ctx context.Context, tx *Tx) ([]dataset.Topic, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT key, reference, hebrew_focus, translation, aliases, themes, morphology, fragments
		FROM topics
		ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("query topics: %w", err)
	}
	defer rows.Close()

	var topics []dataset.Topic
	for rows.Next() {
		var t dataset.Topic
		var aliases, themes, morphology, fragments string
		if err := rows.Scan(&t.Key, &t.Reference, &t.HebrewFocus, &t.Translation,
			&aliases, &themes, &morphology, &fragments); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		if t.Aliases, err = unmarshalColumn[string](aliases, "aliases"); err != nil {
			return nil, fmt.Errorf("topic %s: %w", t.Key, err)
		}
		if t.Themes, err = unmarshalColumn[string](themes, "themes"); err != nil {
			return nil, fmt.Errorf("topic %s: %w", t.Key, err)
		}
		if err := json.Unmarshal([]byte(morphology), &t.Morphology); err != nil {
			return nil, fmt.Errorf("topic %s: decode morphology: %w", t.Key, err)
		}
		if t.Fragments, err = unmarshalColumn[dataset.Fragment](fragments, "fragments"); err != nil {
			return nil, fmt.Errorf("topic %s: %w", t.Key, err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}
	return topics, nil
}

func loadSources(ctx context.Context, tx *Tx) (map[string][]dataset.Source, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT registry_key, name, path, html_url, repository
		FROM sources
		ORDER BY registry_key, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query sources: %w", err)
	}
	defer rows.Close()

	sources := make(map[string][]dataset.Source)
	for rows.Next() {
		var key string
		var s dataset.Source
		if err := rows.Scan(&key, &s.Name, &s.Path, &s.URL, &s.Repository); err != nil {
			return nil, fmt.Errorf("scan source: %w", err)
		}
		sources[key] = append(sources[key], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sources: %w", err)
	}
	return sources, nil
}

func loadSectionTitles(ctx context.Context, tx *Tx) (map[dataset.LessonType][]string, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT lesson_type, title
		FROM section_titles
		ORDER BY lesson_type, position
	`)
	if err != nil {
		return nil, fmt.Errorf("query section titles: %w", err)
	}
	defer rows.Close()

	var sections map[dataset.LessonType][]string
	for rows.Next() {
		var lt, title string
		if err := rows.Scan(&lt, &title); err != nil {
			return nil, fmt.Errorf("scan section title: %w", err)
		}
		if sections == nil {
			sections = make(map[dataset.LessonType][]string)
		}
		sections[dataset.LessonType(lt)] = append(sections[dataset.LessonType(lt)], title)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate section titles: %w", err)
	}
	return sections, nil
}

// =============================================================================
// Statistics and Import Log
// =============================================================================

// GetStats summarizes the stored dataset. Version is empty when nothing
// has been imported.
func (db *DB) GetStats(ctx context.Context) (*Stats, error) {
	var stats Stats
	err := db.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT value FROM dataset_meta WHERE key = ?), ''),
			(SELECT COUNT(*) FROM festivals),
			(SELECT COUNT(*) FROM congregations),
			(SELECT COUNT(*) FROM topics),
			(SELECT COUNT(*) FROM sources)
	`, metaVersion).Scan(&stats.Version, &stats.Festivals, &stats.Congregations, &stats.Topics, &stats.Sources)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}

	var last sql.NullString
	err = db.QueryRowContext(ctx,
		"SELECT MAX(imported_at) FROM import_log WHERE success = 1",
	).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("query last import: %w", err)
	}
	stats.LastImportedAt = parseTimestamp(last)

	return &stats, nil
}

// LogImport records an import attempt.
func (db *DB) LogImport(ctx context.Context, entry *ImportLogEntry) error {
	result, err := db.ExecContext(ctx, `
		INSERT INTO import_log (version, source, success, error_message, festivals, congregations, topics)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, entry.Version, entry.Source, entry.Success, entry.ErrorMessage,
		entry.Festivals, entry.Congregations, entry.Topics)
	if err != nil {
		return fmt.Errorf("insert import log: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("get last insert id: %w", err)
	}
	entry.ID = id
	return nil
}

// GetRecentImports returns the most recent import attempts, newest first.
func (db *DB) GetRecentImports(ctx context.Context, limit int) ([]ImportLogEntry, error) {
	if limit <= 0 {
		limit = 10
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, version, source, success, error_message, festivals, congregations, topics, imported_at
		FROM import_log
		ORDER BY imported_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query import log: %w", err)
	}
	defer rows.Close()

	entries := []ImportLogEntry{}
	for rows.Next() {
		var e ImportLogEntry
		var errMsg, importedAt sql.NullString
		if err := rows.Scan(&e.ID, &e.Version, &e.Source, &e.Success, &errMsg,
			&e.Festivals, &e.Congregations, &e.Topics, &importedAt); err != nil {
			return nil, fmt.Errorf("scan import log: %w", err)
		}
		e.ErrorMessage = NullString(errMsg)
		if t := parseTimestamp(importedAt); t != nil {
			e.ImportedAt = *t
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate import log: %w", err)
	}
	return entries, nil
}

// Import validates d, stores it and logs the attempt. Invalid datasets
// are rejected before anything is written.
func (db *DB) Import(ctx context.Context, d *dataset.Dataset, source string) error {
	entry := &ImportLogEntry{
		Version:       d.Version,
		Source:        source,
		Festivals:     len(d.Festivals),
		Congregations: len(d.Congregations),
		Topics:        len(d.Topics),
	}

	err := dataset.Validate(d)
	if err == nil {
		err = db.ImportDataset(ctx, d)
	}
	entry.Success = err == nil
	if err != nil {
		msg := err.Error()
		entry.ErrorMessage = &msg
	}

	if logErr := db.LogImport(ctx, entry); logErr != nil {
		return errors.Join(err, logErr)
	}
	return err
}
