package service

import (
	"context"
	"fmt"
	"time"

	"github.com/plantlog/plantlog-server/internal/models"
)

// AppendEvent records a care event against a visible plant. The ledger is
// append-only: every call inserts a new row, including repeats of the
// same day. Backdated timestamps are first-class; the plant's cached
// last-event field only ever moves forward (see repository.AppendEvent).
func (s *DefaultService) AppendEvent(ctx context.Context, userID, plantID string, req models.AppendEventRequest) (*models.CareEvent, error) {
	plant, err := s.repo.GetVisiblePlant(ctx, plantID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting plant: %w", err)
	}

	if plant == nil {
		return nil, ErrNotFound
	}

	event := &models.CareEvent{
		PlantID: plant.ID,
		Kind:    req.Kind,
		At:      s.effectiveTimestamp(req.Date),
		UserID:  userID,
	}

	if err := s.repo.AppendEvent(ctx, event); err != nil {
		return nil, fmt.Errorf("error appending event: %w", err)
	}

	return event, nil
}

// GetHistory returns all events for a visible plant, newest first, with
// insertion order breaking timestamp ties.
func (s *DefaultService) GetHistory(ctx context.Context, userID, plantID string) ([]models.CareEvent, error) {
	plant, err := s.repo.GetVisiblePlant(ctx, plantID, userID)
	if err != nil {
		return nil, fmt.Errorf("error getting plant: %w", err)
	}

	if plant == nil {
		return nil, ErrNotFound
	}

	events, err := s.repo.ListEvents(ctx, plant.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing events: %w", err)
	}

	return events, nil
}

// effectiveTimestamp resolves the caller-supplied date into the event
// timestamp. Care events are day-granular, so a bare calendar date maps
// to midnight UTC of that day. Malformed input falls back to the current
// time by policy rather than failing the append; the fallback is logged
// so it is visible in operation.
func (s *DefaultService) effectiveTimestamp(raw string) time.Time {
	if raw == "" {
		return time.Now().UTC()
	}

	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC()
	}

	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC()
	}

	s.logger.Warn("unparseable event date %q, falling back to current time", raw)
	return time.Now().UTC()
}
