// Package model defines the shared value types that flow between the
// sensor-acquisition engine, the protocol engine, and the transport layer.
package model

import "time"

// Pin identifies a hardware line by its abstract, non-negative index.
type Pin int

// HealthStatus is the tagged outcome of a threshold evaluation.
type HealthStatus string

const (
	StatusHealthy  HealthStatus = "HEALTHY"
	StatusWarning  HealthStatus = "WARNING"
	StatusCritical HealthStatus = "CRITICAL"
	// StatusFault is reserved for future hardware-read-failure signaling.
	// The evaluator never produces it today.
	StatusFault HealthStatus = "FAULT"
)

// Role is the capability level bound to an authenticated session.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleOperator Role = "OPERATOR"
	RoleViewer   Role = "VIEWER"
	// RoleUnauthorized is a sentinel retained for forward compatibility.
	// The current Authorizer mapping never produces it.
	RoleUnauthorized Role = "UNAUTHORIZED"
)

// MaxUnitIDLength is the maximum byte length of a MonitoredUnit identifier.
const MaxUnitIDLength = 31

// MaxCommonNameLength is the maximum byte length of an identity's CN.
const MaxCommonNameLength = 63

// SensorSnapshot is an immutable, point-in-time reading.
type SensorSnapshot struct {
	VibrationLevel float64
	SoundLevel     float64
	TemperatureC   float64
	CurrentA       float64
	Timestamp      time.Time
}

// EquipmentHealth is the evaluated result served to an operator.
type EquipmentHealth struct {
	UnitID   string
	Status   HealthStatus
	Snapshot SensorSnapshot
	Message  string
}

// AuthenticatedIdentity is created once per session at handshake time and
// never changes for the session's lifetime.
type AuthenticatedIdentity struct {
	CommonName string
	Role       Role
}

// ThresholdTable hoists the per-metric (warn, crit) pairs out of the
// evaluator so they are configuration, not magic numbers. Zero value is
// invalid; use DefaultThresholds.
type ThresholdTable struct {
	VibWarn, VibCrit float64
	SndWarn, SndCrit float64
	CurWarn, CurCrit float64
	TmpWarn, TmpCrit float64
}

// DefaultThresholds matches the evaluation table in spec.md §4.2.
func DefaultThresholds() ThresholdTable {
	return ThresholdTable{
		VibWarn: 100, VibCrit: 200,
		SndWarn: 50, SndCrit: 80,
		CurWarn: 12.0, CurCrit: 15.0,
		TmpWarn: 65.0, TmpCrit: 80.0,
	}
}

// CriticalFaultMessage is the fixed message attached to every Critical
// EquipmentHealth value.
const CriticalFaultMessage = "CRITICAL FAULT DETECTED"
