package handlers

import (
	"context"
	"time"

	"incubator_console/internal/models"
	"incubator_console/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	loginUser models.User
	loginErr  error
	logoutErr error
	current   models.User
	active    bool

	lastEmail    string
	lastPassword string
	logoutCalls  int
}

func (m *mockAuth) Login(ctx context.Context, email, password string) (models.User, error) {
	m.lastEmail = email
	m.lastPassword = password
	return m.loginUser, m.loginErr
}
func (m *mockAuth) Logout(ctx context.Context) error {
	m.logoutCalls++
	return m.logoutErr
}
func (m *mockAuth) Current() (models.User, bool) {
	return m.current, m.active
}

type mockDevices struct {
	views    []service.DeviceView
	view     service.DeviceView
	stats    models.DeviceStats
	analysis models.Analysis

	listErr    error
	getErr     error
	statsErr   error
	analyzeErr error
	lastGetID  string
}

func (m *mockDevices) List(ctx context.Context) ([]service.DeviceView, error) {
	return m.views, m.listErr
}
func (m *mockDevices) Get(ctx context.Context, id string) (service.DeviceView, error) {
	m.lastGetID = id
	return m.view, m.getErr
}
func (m *mockDevices) Stats(ctx context.Context, id string) (models.DeviceStats, error) {
	return m.stats, m.statsErr
}
func (m *mockDevices) Analyze(ctx context.Context, id string) (models.Analysis, error) {
	return m.analysis, m.analyzeErr
}

type mockCommands struct {
	sendErr     error
	settingsErr error
	pending     []service.PendingCommand

	lastDeviceID string
	lastCmd      string
	lastState    bool
	lastConfig   models.DeviceConfig
	sendCalls    int
	settingsCall int
}

func (m *mockCommands) Send(ctx context.Context, deviceID, cmd string, state bool) error {
	m.sendCalls++
	m.lastDeviceID = deviceID
	m.lastCmd = cmd
	m.lastState = state
	return m.sendErr
}
func (m *mockCommands) UpdateSettings(ctx context.Context, deviceID string, cfg models.DeviceConfig) error {
	m.settingsCall++
	m.lastDeviceID = deviceID
	m.lastConfig = cfg
	return m.settingsErr
}
func (m *mockCommands) Pending(deviceID string) []service.PendingCommand {
	return m.pending
}

type mockHistory struct {
	series service.Series
	ready  bool
	err    error
}

func (m *mockHistory) Series(ctx context.Context, deviceID string) (service.Series, bool, error) {
	return m.series, m.ready, m.err
}

type mockEventLog struct {
	resp     []models.CommandEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockEventLog) List(ctx context.Context, f service.LogFilter) ([]models.CommandEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

type mockWatch struct{}

func (m *mockWatch) WatchDevice(id string) func()    { return func() {} }
func (m *mockWatch) WatchTelemetry(id string) func() { return func() {} }
func (m *mockWatch) DeviceUpdates(id string) (<-chan struct{}, func()) {
	ch := make(chan struct{})
	return ch, func() {}
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

// activeSession is a logged-in mockAuth for routes behind the session gate.
func activeSession() *mockAuth {
	return &mockAuth{
		active:  true,
		current: models.User{ID: "1", Email: "op@farm.example", Role: "farmer"},
	}
}
