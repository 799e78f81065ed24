// Package logic turns per-channel sensor state changes into events.
// This package has NO external dependencies (no serial, GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package logic

import (
	"time"

	"github.com/sweeney/prox-sensor/internal/sensor"
)

// EventType represents a state transition event.
type EventType string

const (
	EventProximityEnter EventType = "PROXIMITY_ENTER"
	EventProximityExit  EventType = "PROXIMITY_EXIT"
	EventBlocked        EventType = "BLOCKED"
	EventUnblocked      EventType = "UNBLOCKED"
)

// Event represents a state transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Reading   sensor.Reading
}

// ChannelConfig configures one sensor channel.
type ChannelConfig struct {
	Index         uint8
	ThresholdLow  uint16
	ThresholdHigh uint16
	// ProximityTable must be paired with sensor.DistanceTable.
	ProximityTable []uint16
}

// Input represents one raw sample pair for a channel.
type Input struct {
	Channel   uint8
	Proximity uint16
	Light     uint16
	Time      time.Time
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	ProximityEnter int
	ProximityExit  int
	Blocked        int
	Unblocked      int
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
	Readings  []sensor.Reading
}
