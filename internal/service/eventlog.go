package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"incubator_console/internal/models"
	"incubator_console/internal/repository"
)

// LogFilter narrows an audit query by time range and/or event type.
type LogFilter struct {
	From time.Time
	To   time.Time
	Type string
}

var errInvalidTimeRange = errors.New("invalid time range: From must be <= To")

// EventLogService exposes the command audit trail.
type EventLogService struct {
	eventRepo repository.EventRepo
}

func NewEventLogService(eventRepo repository.EventRepo) *EventLogService {
	return &EventLogService{eventRepo: eventRepo}
}

func normalizeToUTC(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return t.UTC()
}

func (s *EventLogService) List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error) {
	from := normalizeToUTC(f.From)
	to := normalizeToUTC(f.To)
	if !from.IsZero() && !to.IsZero() && from.After(to) {
		return nil, errInvalidTimeRange
	}
	typ := strings.TrimSpace(strings.ToUpper(f.Type))
	return s.eventRepo.List(ctx, from, to, typ)
}
