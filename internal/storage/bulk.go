package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"flynesis-planner/internal/domain"
	"flynesis-planner/internal/mapper"
)

// ImportReport counts what an import wrote. Failed inserts are not rolled
// back, so a non-zero Failed means the account holds a partial copy.
type ImportReport struct {
	Events   int
	Tasks    int
	Sessions int
	Failed   int
	Settings bool
}

// Snapshot gathers every collection of the account. Empty collections are
// exported as empty arrays.
func (c *Client) Snapshot(ctx context.Context, flyID string) domain.Snapshot {
	return domain.Snapshot{
		Events:     c.Events(ctx, flyID),
		Tasks:      c.Tasks(ctx, flyID),
		Settings:   c.Settings(ctx, flyID),
		Focus:      domain.FocusData{Sessions: c.FocusSessions(ctx, flyID)},
		ExportedAt: domain.FormatTimestamp(c.now()),
	}
}

// Export renders the account snapshot as indented JSON.
func (c *Client) Export(ctx context.Context, flyID string) []byte {
	data, err := json.MarshalIndent(c.Snapshot(ctx, flyID), "", "  ")
	if err != nil {
		log.Printf("[warn] encode export flyid=%s: %v", flyID, err)
		return []byte("{}")
	}
	return data
}

// Backup renders the same document as Export, but fails when any collection
// cannot be read. An unreadable account must not be archived as empty.
func (c *Client) Backup(ctx context.Context, flyID string) ([]byte, error) {
	snap := domain.Snapshot{
		Settings:   domain.DefaultSettings(),
		ExportedAt: domain.FormatTimestamp(c.now()),
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		rows, err := c.events.ListByAccount(gctx, flyID)
		if err != nil {
			return fmt.Errorf("read events: %w", err)
		}
		snap.Events = eventsFromRows(rows)
		return nil
	})
	g.Go(func() error {
		rows, err := c.tasks.ListByAccount(gctx, flyID)
		if err != nil {
			return fmt.Errorf("read tasks: %w", err)
		}
		snap.Tasks = make([]domain.Task, 0, len(rows))
		for _, r := range rows {
			snap.Tasks = append(snap.Tasks, mapper.TaskFromStorage(r))
		}
		return nil
	})
	g.Go(func() error {
		rows, err := c.focus.ListByAccount(gctx, flyID)
		if err != nil {
			return fmt.Errorf("read focus sessions: %w", err)
		}
		snap.Focus.Sessions = make([]domain.FocusSession, 0, len(rows))
		for _, r := range rows {
			snap.Focus.Sessions = append(snap.Focus.Sessions, mapper.FocusSessionFromStorage(r))
		}
		return nil
	})
	g.Go(func() error {
		row, err := c.settings.Find(gctx, flyID)
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			return nil
		case err != nil:
			return fmt.Errorf("read settings: %w", err)
		}
		snap.Settings = mapper.SettingsFromStorage(*row)
		return nil
	})
	if err := g.Wait(); err != nil {
		log.Printf("[warn] backup flyid=%s: %v", flyID, err)
		return nil, err
	}
	return json.MarshalIndent(snap, "", "  ")
}

// importDoc holds the decoded known keys of an import document. Nil fields
// were absent.
type importDoc struct {
	events   []domain.CalendarEvent
	tasks    []domain.Task
	settings json.RawMessage
	sessions []domain.FocusSession
}

// parseImport decodes the document without touching the store. Unknown keys
// are ignored; a known key with the wrong shape fails the whole document.
func parseImport(data []byte) (importDoc, error) {
	var doc importDoc
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return doc, fmt.Errorf("decode document: %w", err)
	}
	if v, ok := raw["events"]; ok {
		if err := json.Unmarshal(v, &doc.events); err != nil {
			return doc, fmt.Errorf("decode events: %w", err)
		}
	}
	if v, ok := raw["tasks"]; ok {
		if err := json.Unmarshal(v, &doc.tasks); err != nil {
			return doc, fmt.Errorf("decode tasks: %w", err)
		}
	}
	if v, ok := raw["settings"]; ok && string(v) != "null" {
		if _, err := decodeSettings(v, domain.DefaultSettings()); err != nil {
			return doc, err
		}
		doc.settings = v
	}
	if v, ok := raw["focus"]; ok && string(v) != "null" {
		var focus domain.FocusData
		if err := json.Unmarshal(v, &focus); err != nil {
			return doc, fmt.Errorf("decode focus: %w", err)
		}
		doc.sessions = focus.Sessions
	}
	return doc, nil
}

// decodeSettings lays the document's settings over base. Keys the document
// leaves out keep base's values.
func decodeSettings(raw json.RawMessage, base domain.Settings) (domain.Settings, error) {
	if err := json.Unmarshal(raw, &base); err != nil {
		return domain.Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := validateSettings(base); err != nil {
		return domain.Settings{}, err
	}
	return base, nil
}

func validateSettings(s domain.Settings) error {
	if _, err := domain.ParseWeekStart(string(s.WeekStart)); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if _, err := domain.ParseTimeFormat(string(s.TimeFormat)); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	if _, err := domain.ParseView(string(s.DefaultView)); err != nil {
		return fmt.Errorf("decode settings: %w", err)
	}
	return nil
}

// Validate reports whether data is an import document Import would accept.
func Validate(data []byte) error {
	_, err := parseImport(data)
	return err
}

// Import replaces the account's events, tasks and focus sessions with the
// document's, then overwrites the settings keys the document carries.
// Every record goes through the create path regardless of its id; task
// creation times are kept when they parse. The second return value is false
// when the document does not parse (nothing is touched) or a bulk delete
// fails; individual insert failures are only counted.
func (c *Client) Import(ctx context.Context, flyID string, data []byte) (ImportReport, bool) {
	var report ImportReport
	doc, err := parseImport(data)
	if err != nil {
		log.Printf("[warn] import flyid=%s: %v", flyID, err)
		return report, false
	}

	if !c.Reset(ctx, flyID) {
		return report, false
	}

	for _, e := range doc.events {
		rec := mapper.EventToStorage(e, flyID)
		if err := c.events.Create(ctx, &rec); err != nil {
			log.Printf("[warn] import event %q flyid=%s: %v", e.Title, flyID, err)
			report.Failed++
			continue
		}
		report.Events++
	}
	for _, t := range doc.tasks {
		rec := mapper.TaskToStorage(t, flyID)
		if created, err := domain.ParseTimestamp(t.CreatedAtISO); err == nil {
			rec.CreatedAt = created
		}
		if err := c.tasks.Create(ctx, &rec); err != nil {
			log.Printf("[warn] import task %q flyid=%s: %v", t.Title, flyID, err)
			report.Failed++
			continue
		}
		report.Tasks++
	}
	for _, s := range doc.sessions {
		rec := mapper.FocusSessionToStorage(s, flyID)
		if rec.CompletedAt.IsZero() {
			rec.CompletedAt = c.now()
		}
		if err := c.focus.Create(ctx, &rec); err != nil {
			log.Printf("[warn] import focus session flyid=%s: %v", flyID, err)
			report.Failed++
			continue
		}
		report.Sessions++
	}
	if doc.settings != nil {
		settings, err := decodeSettings(doc.settings, c.Settings(ctx, flyID))
		switch {
		case err != nil:
			log.Printf("[warn] import settings flyid=%s: %v", flyID, err)
			report.Failed++
		case c.SaveSettings(ctx, flyID, settings):
			report.Settings = true
		default:
			report.Failed++
		}
	}

	log.Printf("[info] import flyid=%s events=%d tasks=%d sessions=%d failed=%d",
		flyID, report.Events, report.Tasks, report.Sessions, report.Failed)
	return report, true
}

// Reset deletes events, tasks and focus sessions. Settings stay.
func (c *Client) Reset(ctx context.Context, flyID string) bool {
	if err := c.events.DeleteAll(ctx, flyID); err != nil {
		log.Printf("[warn] reset events flyid=%s: %v", flyID, err)
		return false
	}
	if err := c.tasks.DeleteAll(ctx, flyID); err != nil {
		log.Printf("[warn] reset tasks flyid=%s: %v", flyID, err)
		return false
	}
	if err := c.focus.DeleteAll(ctx, flyID); err != nil {
		log.Printf("[warn] reset focus sessions flyid=%s: %v", flyID, err)
		return false
	}
	return true
}
