package models

import "time"

// Device is an incubator as the backend reports it: identity, the latest
// telemetry snapshot and the configured thresholds.
type Device struct {
	ID       string    `json:"id"`
	DeviceID string    `json:"device_id"`
	Model    string    `json:"model"`
	LastSeen time.Time `json:"last_seen"`

	LatestTelemetry Telemetry `json:"latest_telemetry"`

	DeviceConfig
}

// DeviceConfig holds the operator-adjustable thresholds and calibration.
// Pointer fields are omitted from PUT bodies when the operator left them blank.
type DeviceConfig struct {
	TempLow       *float64 `json:"temp_low,omitempty"`
	TempHigh      *float64 `json:"temp_high,omitempty"`
	HumidityTemp  *float64 `json:"humidity_temp,omitempty"`
	Sensor1Offset *float64 `json:"sensor1_offset,omitempty"`
	Sensor2Offset *float64 `json:"sensor2_offset,omitempty"`
	MotorMode     int      `json:"motor_mode"`
	TimerSec      *int     `json:"timer_sec,omitempty"`
}

// Telemetry is the most recent reading reported by a device. Snapshots are
// value objects: every poll replaces the previous one wholesale.
type Telemetry struct {
	TempC  float64 `json:"temp_c"`
	HumPct float64 `json:"hum_pct"`

	PrimaryHeater   bool `json:"primary_heater"`
	SecondaryHeater bool `json:"secondary_heater"`
	ExhaustFan      bool `json:"exhaust_fan"`
	Fan             bool `json:"fan"`
	SVValve         bool `json:"sv_valve"`
	TurningMotor    bool `json:"turning_motor"`
	DoorLight       bool `json:"door_light"`
	LimitSwitch     bool `json:"limit_switch"`

	UptimeSec int       `json:"uptime_s"`
	IP        string    `json:"ip,omitempty"`
	Timestamp time.Time `json:"ts"`
}

// Sample is one historical telemetry point from GET /devices/{id}/telemetry.
type Sample struct {
	Timestamp time.Time `json:"ts"`
	TempC     float64   `json:"temp_c"`
	HumPct    float64   `json:"hum_pct"`
}

// DeviceStats is the server-computed aggregate for the current day.
type DeviceStats struct {
	MaxTempC  float64 `json:"max_temp_c"`
	AvgTempC  float64 `json:"avg_temp_c"`
	MaxHumPct float64 `json:"max_hum_pct"`
	AvgHumPct float64 `json:"avg_hum_pct"`
}

// Analysis is the opaque result of POST /devices/{id}/analyze.
type Analysis struct {
	Status            string `json:"status"` // NORMAL | CAUTION | ...
	TemperatureStatus string `json:"temperature_status"`
	HumidityStatus    string `json:"humidity_status"`
	SummaryForFarmer  string `json:"summary_for_farmer"`
	RecommendedAction string `json:"recommended_action"`
}
