package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Ready         bool          `json:"ready"`
	LightOn       bool          `json:"light_on"`
	Channels      []ChannelJSON `json:"channels"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one channel's reading.
type ChannelJSON struct {
	Channel     uint8   `json:"channel"`
	Samples     uint64  `json:"samples"`
	InProximity bool    `json:"in_proximity"`
	Blocked     bool    `json:"blocked"`
	DistanceCM  float64 `json:"distance_cm"`
	PSMean      uint16  `json:"ps_mean"`
	PSStd       float64 `json:"ps_std"`
	ALSMean     uint16  `json:"als_mean"`
	ALSStd      float64 `json:"als_std"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	ProximityEnter int `json:"proximity_enter"`
	ProximityExit  int `json:"proximity_exit"`
	Blocked        int `json:"blocked"`
	Unblocked      int `json:"unblocked"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs        int64  `json:"poll_ms"`
	HeartbeatMs   int64  `json:"heartbeat_ms"`
	SerialPort    string `json:"serial_port"`
	Baud          int    `json:"baud"`
	ThresholdLow  uint16 `json:"threshold_low"`
	ThresholdHigh uint16 `json:"threshold_high"`
	LightPin      int    `json:"light_pin,omitempty"`
	Broker        string `json:"broker"`
	HTTPAddr      string `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	channels := make([]ChannelJSON, 0, len(snap.Channels))
	for _, r := range snap.Channels {
		channels = append(channels, ChannelJSON{
			Channel:     r.Channel,
			Samples:     r.Samples,
			InProximity: r.InProximity,
			Blocked:     r.Blocked,
			DistanceCM:  r.Distance,
			PSMean:      r.ProximityMean,
			PSStd:       r.ProximityStd,
			ALSMean:     r.LightMean,
			ALSStd:      r.LightStd,
		})
	}

	inner := StatusInner{
		Ready:         snap.Ready,
		LightOn:       snap.LightOn,
		Channels:      channels,
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			ProximityEnter: snap.Counts.ProximityEnter,
			ProximityExit:  snap.Counts.ProximityExit,
			Blocked:        snap.Counts.Blocked,
			Unblocked:      snap.Counts.Unblocked,
		},
		Config: ConfigJSON{
			PollMs:        snap.Config.PollMs,
			HeartbeatMs:   snap.Config.HeartbeatMs,
			SerialPort:    snap.Config.SerialPort,
			Baud:          snap.Config.Baud,
			ThresholdLow:  snap.Config.ThresholdLow,
			ThresholdHigh: snap.Config.ThresholdHigh,
			LightPin:      snap.Config.LightPin,
			Broker:        snap.Config.Broker,
			HTTPAddr:      snap.Config.HTTPAddr,
		},
	}

	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
	return inner
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	data, _ := json.MarshalIndent(StatusJSON{Status: buildInner(snap)}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
