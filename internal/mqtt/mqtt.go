// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/prox-sensor/internal/logic"
)

// Topic is the MQTT topic for proximity events.
const Topic = "lighting/proximity/sensor/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "lighting/proximity/sensor/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a proximity event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Proximity ProximityPayload `json:"proximity"`
}

// ProximityPayload contains the event details and the reading that caused it.
type ProximityPayload struct {
	Timestamp   string  `json:"timestamp"`
	Event       string  `json:"event"`
	Channel     uint8   `json:"channel"`
	InProximity bool    `json:"in_proximity"`
	Blocked     bool    `json:"blocked"`
	DistanceCM  float64 `json:"distance_cm"`
	PSMean      uint16  `json:"ps_mean"`
	PSStd       float64 `json:"ps_std"`
	ALSMean     uint16  `json:"als_mean"`
	ALSStd      float64 `json:"als_std"`
}

// FormatPayload creates the JSON payload for a proximity event.
func FormatPayload(event logic.Event) ([]byte, error) {
	r := event.Reading
	payload := Payload{
		Proximity: ProximityPayload{
			Timestamp:   event.Timestamp.UTC().Format(time.RFC3339),
			Event:       string(event.Type),
			Channel:     r.Channel,
			InProximity: r.InProximity,
			Blocked:     r.Blocked,
			DistanceCM:  r.Distance,
			PSMean:      r.ProximityMean,
			PSStd:       r.ProximityStd,
			ALSMean:     r.LightMean,
			ALSStd:      r.LightStd,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
