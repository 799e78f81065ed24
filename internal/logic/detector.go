package logic

import (
	"time"

	"github.com/sweeney/prox-sensor/internal/sensor"
)

// Detector feeds samples to one sensor engine per channel and reports
// flag transitions.
type Detector struct {
	channels      []*sensor.State
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a detector for the given channels.
// The startTime is used for calculating uptime in heartbeat events.
func NewDetector(channels []ChannelConfig, startTime time.Time) *Detector {
	d := &Detector{
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
	for _, c := range channels {
		d.channels = append(d.channels, sensor.New(c.Index, c.ThresholdLow, c.ThresholdHigh, c.ProximityTable))
	}
	return d
}

// Process applies one sample and returns any events it caused.
// Samples for unknown channels are dropped.
func (d *Detector) Process(input Input) []Event {
	s := d.channel(input.Channel)
	if s == nil {
		return nil
	}

	wasNear, wasBlocked := s.InProximity(), s.IsBlocked()
	s.Update(input.Proximity, input.Light)
	return d.transitions(s.Reading(), wasNear, wasBlocked, input.Time)
}

// transitions returns the events for flag changes since wasNear/wasBlocked
// and counts them. Proximity comes first, then blocked, if both changed.
func (d *Detector) transitions(r sensor.Reading, wasNear, wasBlocked bool, at time.Time) []Event {
	var events []Event
	if r.InProximity != wasNear {
		t := EventProximityExit
		if r.InProximity {
			t = EventProximityEnter
		}
		events = append(events, Event{Timestamp: at, Type: t, Reading: r})
	}
	if r.Blocked != wasBlocked {
		t := EventUnblocked
		if r.Blocked {
			t = EventBlocked
		}
		events = append(events, Event{Timestamp: at, Type: t, Reading: r})
	}

	for _, e := range events {
		switch e.Type {
		case EventProximityEnter:
			d.eventCounts.ProximityEnter++
		case EventProximityExit:
			d.eventCounts.ProximityExit++
		case EventBlocked:
			d.eventCounts.Blocked++
		case EventUnblocked:
			d.eventCounts.Unblocked++
		}
	}

	return events
}

func (d *Detector) channel(index uint8) *sensor.State {
	for _, s := range d.channels {
		if s.Index() == index {
			return s
		}
	}
	return nil
}

// Reset returns a channel's engine to its startup condition at time now.
// A channel that was in proximity or blocked reports PROXIMITY_EXIT and
// UNBLOCKED, so every enter is paired with an exit.
// Returns false if the channel is unknown.
func (d *Detector) Reset(index uint8, now time.Time) ([]Event, bool) {
	s := d.channel(index)
	if s == nil {
		return nil, false
	}
	wasNear, wasBlocked := s.InProximity(), s.IsBlocked()
	s.Reset()
	return d.transitions(s.Reading(), wasNear, wasBlocked, now), true
}

// Ready reports whether the channel's averaging windows are full.
func (d *Detector) Ready(index uint8) bool {
	s := d.channel(index)
	return s != nil && s.Warm()
}

// AllReady reports whether every channel is ready.
func (d *Detector) AllReady() bool {
	for _, s := range d.channels {
		if !s.Warm() {
			return false
		}
	}
	return len(d.channels) > 0
}

// Reading returns the current reading of a channel.
func (d *Detector) Reading(index uint8) (sensor.Reading, bool) {
	s := d.channel(index)
	if s == nil {
		return sensor.Reading{}, false
	}
	return s.Reading(), true
}

// Readings returns the current reading of every channel in configuration order.
func (d *Detector) Readings() []sensor.Reading {
	out := make([]sensor.Reading, 0, len(d.channels))
	for _, s := range d.channels {
		out = append(out, s.Reading())
	}
	return out
}

// EventCountsSnapshot returns the event counts since startup.
func (d *Detector) EventCountsSnapshot() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
		Readings:  d.Readings(),
	}
}

// LightOn reports whether the light should be lit for a reading:
// something is near and the sensor is not covered.
func LightOn(r sensor.Reading) bool {
	return r.InProximity && !r.Blocked
}
