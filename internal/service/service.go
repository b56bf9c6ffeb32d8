package service

import (
	"context"
	"time"

	"incubator_console/internal/backend"
	"incubator_console/internal/cache"
	"incubator_console/internal/logger"
	"incubator_console/internal/metrics"
	"incubator_console/internal/models"
	"incubator_console/internal/repository"
	"incubator_console/internal/session"
)

// DeviceView is a device plus its derived liveness. Online is computed on
// every read from last_seen; it is never stored.
type DeviceView struct {
	models.Device
	Online bool `json:"online"`
}

// Devices exposes the cached read side: list, detail, stats, analysis.
type Devices interface {
	List(ctx context.Context) ([]DeviceView, error)
	Get(ctx context.Context, id string) (DeviceView, error)
	Stats(ctx context.Context, id string) (models.DeviceStats, error)
	Analyze(ctx context.Context, id string) (models.Analysis, error)
}

// Commands exposes the optimistic command dispatch protocol.
type Commands interface {
	Send(ctx context.Context, deviceID, cmd string, state bool) error
	UpdateSettings(ctx context.Context, deviceID string, cfg models.DeviceConfig) error
	Pending(deviceID string) []PendingCommand
}

// History builds chart-ready telemetry series.
type History interface {
	Series(ctx context.Context, deviceID string) (Series, bool, error)
}

// Auth drives the backend login flow and the local session lifecycle.
type Auth interface {
	Login(ctx context.Context, email, password string) (models.User, error)
	Logout(ctx context.Context) error
	Current() (models.User, bool)
}

// EventLog exposes the command audit trail with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.CommandEvent, error)
}

// Watch hands out shared, ref-counted poll subscriptions per device.
type Watch interface {
	WatchDevice(id string) func()
	WatchTelemetry(id string) func()
	DeviceUpdates(id string) (<-chan struct{}, func())
}

// Service aggregates all sub-services behind their interfaces.
type Service struct {
	Devices
	Commands
	History
	Auth
	EventLog
	Watch
}

// Deps is everything NewService needs wired in from main.
type Deps struct {
	Backend  *backend.Client
	Store    *cache.Store
	Sessions *session.Manager
	Repos    *repository.Repository
	Metrics  *metrics.ConsoleMetrics
	Log      *logger.Logger

	DeviceInterval    time.Duration
	TelemetryInterval time.Duration
}

// NewService wires the concrete sub-services. ctx bounds the lifetime of the
// background poll loops.
func NewService(ctx context.Context, d Deps) *Service {
	poller := NewPoller(ctx, d.Store, d.Backend, d.Metrics, d.Log, PollIntervals{
		Device:    d.DeviceInterval,
		Telemetry: d.TelemetryInterval,
	})
	return &Service{
		Devices:  NewDeviceService(d.Backend, d.Store),
		Commands: NewCommandService(d.Backend, d.Store, d.Repos.Events, d.Metrics, d.Log),
		History:  NewHistoryService(d.Backend, d.Store),
		Auth:     NewAuthService(d.Backend, d.Sessions),
		EventLog: NewEventLogService(d.Repos.Events),
		Watch:    poller,
	}
}
