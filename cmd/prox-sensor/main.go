// Command prox-sensor reads proximity and ambient light samples from a serial
// sensor bridge, switches a light on approach and publishes transitions to MQTT.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/sweeney/prox-sensor/internal/gpio"
	"github.com/sweeney/prox-sensor/internal/logic"
	"github.com/sweeney/prox-sensor/internal/mqtt"
	"github.com/sweeney/prox-sensor/internal/sensor"
	"github.com/sweeney/prox-sensor/internal/source"
	"github.com/sweeney/prox-sensor/internal/status"
	"github.com/sweeney/prox-sensor/internal/web"
)

// config is the parsed command line.
type config struct {
	port          string
	baud          int
	poll          time.Duration
	broker        string
	heartbeat     time.Duration
	thresholdLow  uint16
	thresholdHigh uint16
	proxTable     []uint16
	channels      []uint8
	lightPin      int
	httpAddr      string
	printSample   bool
}

func main() {
	_ = godotenv.Load()

	port := flag.String("port", getEnv(envPort, "/dev/ttyUSB0"), "Serial port of the sensor bridge")
	baud := flag.Int("baud", getEnvInt(envBaud, 115200), "Serial baud rate")
	poll := flag.Duration("poll", getEnvDuration(envPoll, 100*time.Millisecond), "Sample interval")
	broker := flag.String("broker", getEnv(envBroker, "tcp://192.168.1.200:1883"), "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", getEnvDuration(envHeartbeat, 15*time.Minute), "Heartbeat interval (0 to disable)")
	low := flag.Uint("threshold-low", uint(getEnvUint16(envThresholdLow, 680)), "Proximity exit threshold (raw counts)")
	high := flag.Uint("threshold-high", uint(getEnvUint16(envThresholdHigh, 700)), "Proximity enter threshold (raw counts)")
	table := flag.String("prox-table", getEnv(envProxTable, ""), "Comma-separated proximity calibration table (empty for built-in)")
	channels := flag.String("channels", getEnv(envChannels, "0"), "Comma-separated sensor channel indices")
	lightPin := flag.Int("light-pin", getEnvInt(envLightPin, gpio.DefaultPinLight), "BCM pin driving the light (0 to disable)")
	httpAddr := flag.String("http", getEnv(envHTTP, ":80"), "HTTP status address (empty to disable)")
	printSample := flag.Bool("print-sample", false, "Print one sample and exit")

	flag.Parse()

	cfg, err := buildConfig(*port, *baud, *poll, *broker, *heartbeat, *low, *high, *table, *channels, *lightPin, *httpAddr, *printSample)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if err := run(cfg); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

// buildConfig validates flag values. The sensor engine trusts its
// construction parameters, so everything it assumes is checked here.
func buildConfig(port string, baud int, poll time.Duration, broker string, heartbeat time.Duration, low, high uint, table, channels string, lightPin int, httpAddr string, printSample bool) (config, error) {
	cfg := config{
		port:        port,
		baud:        baud,
		poll:        poll,
		broker:      broker,
		heartbeat:   heartbeat,
		lightPin:    lightPin,
		httpAddr:    httpAddr,
		printSample: printSample,
	}

	if poll <= 0 {
		return config{}, fmt.Errorf("poll interval must be positive, got %v", poll)
	}
	if low > 0xFFFF || high > 0xFFFF {
		return config{}, fmt.Errorf("thresholds must fit 16 bits, got %d/%d", low, high)
	}
	if low > high {
		return config{}, fmt.Errorf("threshold-low %d exceeds threshold-high %d", low, high)
	}
	cfg.thresholdLow, cfg.thresholdHigh = uint16(low), uint16(high)

	cfg.proxTable = sensor.DefaultProximityTable[:]
	if table != "" {
		t, err := sensor.ParseTable(table)
		if err != nil {
			return config{}, fmt.Errorf("prox-table: %w", err)
		}
		cfg.proxTable = t
	}
	if err := sensor.ValidateTable(cfg.proxTable, sensor.DistanceTable[:]); err != nil {
		return config{}, fmt.Errorf("prox-table: %w", err)
	}

	ch, err := parseChannels(channels)
	if err != nil {
		return config{}, err
	}
	cfg.channels = ch
	return cfg, nil
}

func parseChannels(s string) ([]uint8, error) {
	var out []uint8
	seen := make(map[uint8]bool)
	for _, f := range strings.Split(s, ",") {
		v, err := strconv.ParseUint(strings.TrimSpace(f), 10, 8)
		if err != nil {
			return nil, fmt.Errorf("channels: parse %q: %w", f, err)
		}
		if seen[uint8(v)] {
			return nil, fmt.Errorf("channels: duplicate channel %d", v)
		}
		seen[uint8(v)] = true
		out = append(out, uint8(v))
	}
	return out, nil
}

func (c config) channelConfigs() []logic.ChannelConfig {
	out := make([]logic.ChannelConfig, 0, len(c.channels))
	for _, idx := range c.channels {
		out = append(out, logic.ChannelConfig{
			Index:          idx,
			ThresholdLow:   c.thresholdLow,
			ThresholdHigh:  c.thresholdHigh,
			ProximityTable: c.proxTable,
		})
	}
	return out
}

func run(cfg config) error {
	// Read timeout stays under the poll interval so a silent bridge cannot
	// stall shutdown handling.
	reader, err := source.NewRealReader(cfg.port, cfg.baud, cfg.poll/2)
	if err != nil {
		return fmt.Errorf("init serial: %w", err)
	}
	defer reader.Close()

	// Print sample mode
	if cfg.printSample {
		s, err := readOne(reader, 5*time.Second)
		if err != nil {
			return fmt.Errorf("read sample: %w", err)
		}
		fmt.Printf("channel: %d, ps: %d, als: %d\n", s.Channel, s.Proximity, s.Light)
		return nil
	}

	var light gpio.Light
	if cfg.lightPin != 0 {
		l, err := gpio.NewRealLight(cfg.lightPin)
		if err != nil {
			return fmt.Errorf("init light: %w", err)
		}
		defer l.Close()
		light = l
	}

	publisher, err := mqtt.NewRealPublisher(cfg.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:        cfg.poll.Milliseconds(),
		HeartbeatMs:   cfg.heartbeat.Milliseconds(),
		SerialPort:    cfg.port,
		Baud:          cfg.baud,
		ThresholdLow:  cfg.thresholdLow,
		ThresholdHigh: cfg.thresholdHigh,
		LightPin:      cfg.lightPin,
		Broker:        cfg.broker,
		HTTPAddr:      cfg.httpAddr,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// Publish startup event with full status snapshot
	snap := tracker.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: status.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	resets := make(chan uint8, 4)

	// Start HTTP status server
	if cfg.httpAddr != "" {
		srv := web.New(cfg.httpAddr, tracker, resets)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", cfg.httpAddr)
	}

	log.Printf("started: port=%s baud=%d poll=%v channels=%v thresholds=%d/%d broker=%s heartbeat=%v",
		cfg.port, cfg.baud, cfg.poll, cfg.channels, cfg.thresholdLow, cfg.thresholdHigh, cfg.broker, cfg.heartbeat)

	ticker := time.NewTicker(cfg.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return runLoop(reader, light, publisher, publisher, tracker, cfg.channelConfigs(), cfg.heartbeat, time.Now, ticker.C, resets, sigCh)
}

// readOne returns the first well-formed sample that arrives within limit.
func readOne(reader source.Reader, limit time.Duration) (source.Sample, error) {
	deadline := time.Now().Add(limit)
	for {
		s, err := reader.Read()
		if err == nil {
			return s, nil
		}
		// The first line after opening the port is usually a fragment.
		if time.Now().After(deadline) {
			return source.Sample{}, err
		}
	}
}

// maxSamplesPerTick bounds how many buffered samples one tick processes, so
// signals and resets are still served under a flood of input.
const maxSamplesPerTick = 64

// runLoop reads buffered samples on every tick until a signal arrives.
// light may be nil.
func runLoop(reader source.Reader, light gpio.Light, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, channels []logic.ChannelConfig, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, resets <-chan uint8, sig <-chan os.Signal) error {
	startTime := now()
	detector := logic.NewDetector(channels, startTime)
	lightOn := false

	// setLight drives the output only on change and keeps the previous
	// state when the write fails so the next sample retries.
	setLight := func(on bool) {
		if light == nil || on == lightOn {
			return
		}
		if err := light.Set(on); err != nil {
			log.Printf("light error: %v", err)
			return
		}
		lightOn = on
	}

	updateTracker := func() {
		if tracker == nil {
			return
		}
		tracker.Update(detector.Readings(), detector.AllReady(), lightOn, detector.EventCountsSnapshot())
		if mqttStatus != nil {
			tracker.SetMQTTConnected(mqttStatus.IsConnected())
		}
	}

	publish := func(events []logic.Event) {
		for _, event := range events {
			r := event.Reading
			log.Printf("event: %s channel=%d distance=%.1fcm ps=%d als=%d",
				event.Type, r.Channel, r.Distance, r.ProximityMean, r.LightMean)
			if err := publisher.Publish(event); err != nil {
				log.Printf("publish error: %v", err)
				// Don't crash on publish failure
			}
		}
	}

	for {
		select {
		case s := <-sig:
			log.Printf("received %v, shutting down", s)
			signalName := "UNKNOWN"
			if s == syscall.SIGINT {
				signalName = "SIGINT"
			} else if s == syscall.SIGTERM {
				signalName = "SIGTERM"
			}
			setLight(false)
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				updateTracker()
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case ch := <-resets:
			events, ok := detector.Reset(ch, now())
			if !ok {
				log.Printf("reset: unknown channel %d", ch)
				continue
			}
			log.Printf("channel %d reset", ch)
			publish(events)
			setLight(anyLit(detector.Readings()))
			updateTracker()

		case <-tick:
			t := now()
			// Drain every complete line already buffered, up to maxSamplesPerTick.
			for n := 0; n < maxSamplesPerTick; n++ {
				sample, err := reader.Read()
				if errors.Is(err, source.ErrTimeout) {
					break
				}
				if err != nil {
					log.Printf("sample read error: %v", err)
				} else {
					publish(detector.Process(logic.Input{
						Channel:   sample.Channel,
						Proximity: sample.Proximity,
						Light:     sample.Light,
						Time:      t,
					}))
				}
				if !reader.Pending() {
					break
				}
			}

			setLight(anyLit(detector.Readings()))

			// Check for heartbeat
			if hbData := detector.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v enter=%d exit=%d blocked=%d unblocked=%d",
					hbData.Uptime, hbData.Counts.ProximityEnter, hbData.Counts.ProximityExit,
					hbData.Counts.Blocked, hbData.Counts.Unblocked)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					updateTracker()
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			updateTracker()
		}
	}
}

// anyLit reports whether any channel wants the light on.
func anyLit(readings []sensor.Reading) bool {
	for _, r := range readings {
		if logic.LightOn(r) {
			return true
		}
	}
	return false
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}
