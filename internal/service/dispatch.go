package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"incubator_console/internal/cache"
	"incubator_console/internal/logger"
	"incubator_console/internal/metrics"
	"incubator_console/internal/models"
	"incubator_console/internal/repository"

	"github.com/google/uuid"
)

// Recognized device commands.
const (
	CmdPrimaryHeater   = "PRIMARY_HEATER"
	CmdSecondaryHeater = "SECONDARY_HEATER"
	CmdFan             = "FAN"
	CmdSVValve         = "SV_VALVE"
	CmdDoorLight       = "DOOR_LIGHT"
	CmdSetConfig       = "SET_CONFIG"
)

// Audit event types.
const (
	EventDispatch       = "DISPATCH"
	EventConfirm        = "CONFIRM"
	EventRollback       = "ROLLBACK"
	EventSettings       = "SETTINGS"
	EventSettingsFailed = "SETTINGS_FAILED"
)

var (
	ErrUnknownCommand = errors.New("unknown device command")
	ErrInvalidConfig  = errors.New("invalid device configuration")
)

// actuatorField binds a command name to the telemetry flag it drives.
type actuatorField struct {
	get func(models.Telemetry) bool
	set func(*models.Telemetry, bool)
}

var actuatorFields = map[string]actuatorField{
	CmdPrimaryHeater: {
		get: func(t models.Telemetry) bool { return t.PrimaryHeater },
		set: func(t *models.Telemetry, v bool) { t.PrimaryHeater = v },
	},
	CmdSecondaryHeater: {
		get: func(t models.Telemetry) bool { return t.SecondaryHeater },
		set: func(t *models.Telemetry, v bool) { t.SecondaryHeater = v },
	},
	CmdFan: {
		get: func(t models.Telemetry) bool { return t.Fan },
		set: func(t *models.Telemetry, v bool) { t.Fan = v },
	},
	CmdSVValve: {
		get: func(t models.Telemetry) bool { return t.SVValve },
		set: func(t *models.Telemetry, v bool) { t.SVValve = v },
	},
	CmdDoorLight: {
		get: func(t models.Telemetry) bool { return t.DoorLight },
		set: func(t *models.Telemetry, v bool) { t.DoorLight = v },
	},
}

// PendingCommand is one in-flight optimistic mutation: which field it set,
// the value it replaced, and the whole pre-mutation snapshot for inspection.
type PendingCommand struct {
	ID           string           `json:"id"`
	DeviceID     string           `json:"device_id"`
	Command      string           `json:"cmd"`
	Target       bool             `json:"target"`
	PrevValue    bool             `json:"prev_value"`
	PrevSnapshot models.Telemetry `json:"prev_snapshot"`
	IssuedAt     time.Time        `json:"issued_at"`
}

// CommandBackend is the slice of the backend client the dispatcher uses.
type CommandBackend interface {
	SendCommand(ctx context.Context, id, cmd string, params map[string]any) error
	UpdateDevice(ctx context.Context, id string, cfg models.DeviceConfig) (models.Device, error)
}

// CommandService implements the optimistic command protocol: project the
// target value into the cache immediately, transmit, then either confirm
// (invalidate so the next poll reconciles) or roll back the projected field.
type CommandService struct {
	backend CommandBackend
	store   *cache.Store
	events  repository.EventRepo
	met     *metrics.ConsoleMetrics
	log     *logger.Logger

	mu      sync.Mutex
	pending map[string]PendingCommand
}

func NewCommandService(backend CommandBackend, store *cache.Store, events repository.EventRepo,
	met *metrics.ConsoleMetrics, log *logger.Logger) *CommandService {
	return &CommandService{
		backend: backend,
		store:   store,
		events:  events,
		met:     met,
		log:     log,
		pending: make(map[string]PendingCommand),
	}
}

// Send dispatches an actuator command. The cached telemetry flag flips to the
// target value before the request leaves, so observers see the change with no
// latency; on transport failure exactly that field is restored to the value
// it had immediately before this command's own write, leaving any other
// pending command's work intact.
func (s *CommandService) Send(ctx context.Context, deviceID, cmd string, state bool) error {
	field, ok := actuatorFields[cmd]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCommand, cmd)
	}

	key := cache.DeviceKey(deviceID)
	pc := PendingCommand{
		ID:       uuid.NewString(),
		DeviceID: deviceID,
		Command:  cmd,
		Target:   state,
		IssuedAt: time.Now().UTC(),
	}

	// Optimistic projection. A miss (device never cached) still sends the
	// command; there is just nothing to project or roll back.
	projected := s.store.Update(key, func(v any) any {
		d, ok := v.(models.Device)
		if !ok {
			return v
		}
		pc.PrevValue = field.get(d.LatestTelemetry)
		pc.PrevSnapshot = d.LatestTelemetry
		field.set(&d.LatestTelemetry, state)
		return d
	})
	if projected {
		s.track(pc)
	}
	s.audit(ctx, EventDispatch, deviceID, fmt.Sprintf("%s -> %v", cmd, state),
		map[string]any{"command_id": pc.ID, "state": state})

	err := s.backend.SendCommand(ctx, deviceID, cmd, map[string]any{"state": state})
	if projected {
		s.untrack(pc.ID)
	}

	if err != nil {
		if projected {
			s.store.Update(key, func(v any) any {
				d, ok := v.(models.Device)
				if !ok {
					return v
				}
				field.set(&d.LatestTelemetry, pc.PrevValue)
				return d
			})
		}
		if s.met != nil {
			s.met.CommandsTotal.WithLabelValues(cmd, "failed").Inc()
			s.met.RollbacksTotal.WithLabelValues(cmd).Inc()
		}
		s.audit(ctx, EventRollback, deviceID, fmt.Sprintf("%s rolled back", cmd),
			map[string]any{"command_id": pc.ID, "err": err.Error()})
		return fmt.Errorf("send %s to %s: %w", cmd, deviceID, err)
	}

	// Provisionally confirmed; drop the cached detail so the next poll
	// fetches authoritative state and reconciles any drift.
	s.store.Invalidate(key)
	if s.met != nil {
		s.met.CommandsTotal.WithLabelValues(cmd, "ok").Inc()
	}
	s.audit(ctx, EventConfirm, deviceID, fmt.Sprintf("%s confirmed", cmd),
		map[string]any{"command_id": pc.ID})
	return nil
}

// UpdateSettings is the two-phase configuration flow: persist thresholds on
// the backend, then direct the device to adopt them. Neither phase touches
// the telemetry cache, so a partial failure needs no rollback; the whole
// operation is simply reported failed so the operator can retry.
func (s *CommandService) UpdateSettings(ctx context.Context, deviceID string, cfg models.DeviceConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if _, err := s.backend.UpdateDevice(ctx, deviceID, cfg); err != nil {
		s.audit(ctx, EventSettingsFailed, deviceID, "configuration persist failed",
			map[string]any{"err": err.Error()})
		return fmt.Errorf("persist configuration for %s: %w", deviceID, err)
	}
	if err := s.backend.SendCommand(ctx, deviceID, CmdSetConfig, configParams(cfg)); err != nil {
		s.audit(ctx, EventSettingsFailed, deviceID, "SET_CONFIG command failed",
			map[string]any{"err": err.Error()})
		return fmt.Errorf("send SET_CONFIG to %s: %w", deviceID, err)
	}

	s.store.Invalidate(cache.DeviceKey(deviceID))
	if s.met != nil {
		s.met.CommandsTotal.WithLabelValues(CmdSetConfig, "ok").Inc()
	}
	s.audit(ctx, EventSettings, deviceID, "configuration updated", cfg)
	return nil
}

// Pending returns the in-flight commands for a device, oldest first.
func (s *CommandService) Pending(deviceID string) []PendingCommand {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PendingCommand, 0, len(s.pending))
	for _, pc := range s.pending {
		if pc.DeviceID == deviceID {
			out = append(out, pc)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].IssuedAt.Before(out[j].IssuedAt) })
	return out
}

func (s *CommandService) track(pc PendingCommand) {
	s.mu.Lock()
	s.pending[pc.ID] = pc
	s.mu.Unlock()
}

func (s *CommandService) untrack(id string) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

// audit is best-effort: a failed append never blocks the command path.
func (s *CommandService) audit(ctx context.Context, typ, deviceID, desc string, meta any) {
	if s.events == nil {
		return
	}
	err := s.events.Append(ctx, models.CommandEvent{
		Type:        typ,
		DeviceID:    deviceID,
		Description: desc,
		Metadata:    meta,
	})
	if err != nil && s.log != nil {
		s.log.Warnw("audit_append_failed", "type", typ, "device", deviceID, "err", err)
	}
}

// validateConfig rejects malformed input before anything is sent.
func validateConfig(cfg models.DeviceConfig) error {
	if cfg.TempLow != nil && cfg.TempHigh != nil && *cfg.TempLow >= *cfg.TempHigh {
		return fmt.Errorf("%w: temp_low must be below temp_high", ErrInvalidConfig)
	}
	if cfg.TimerSec != nil && *cfg.TimerSec <= 0 {
		return fmt.Errorf("%w: timer_sec must be positive", ErrInvalidConfig)
	}
	if cfg.MotorMode < 0 {
		return fmt.Errorf("%w: motor_mode must not be negative", ErrInvalidConfig)
	}
	return nil
}

// configParams mirrors the PUT body into SET_CONFIG params, nulls included,
// so the device receives the full configuration object.
func configParams(cfg models.DeviceConfig) map[string]any {
	params := map[string]any{
		"motor_mode": cfg.MotorMode,
	}
	putFloat := func(k string, v *float64) {
		if v != nil {
			params[k] = *v
		} else {
			params[k] = nil
		}
	}
	putFloat("temp_low", cfg.TempLow)
	putFloat("temp_high", cfg.TempHigh)
	putFloat("humidity_temp", cfg.HumidityTemp)
	putFloat("sensor1_offset", cfg.Sensor1Offset)
	putFloat("sensor2_offset", cfg.Sensor2Offset)
	if cfg.TimerSec != nil {
		params["timer_sec"] = *cfg.TimerSec
	} else {
		params["timer_sec"] = nil
	}
	return params
}
