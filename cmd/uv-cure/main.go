// Command uv-cure runs the UV curing appliance: it watches the start button,
// drives the relay for the configured exposure, and signals completion.
// Cycle transitions are published to MQTT and exposed on an HTTP status page.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sweeney/uv-cure/internal/gpio"
	"github.com/sweeney/uv-cure/internal/logic"
	"github.com/sweeney/uv-cure/internal/mqtt"
	"github.com/sweeney/uv-cure/internal/status"
	"github.com/sweeney/uv-cure/internal/web"
)

// options carries the non-cycle configuration from flags.
type options struct {
	poll       time.Duration
	broker     string
	heartbeat  time.Duration
	pins       gpio.Pins
	printState bool
	httpAddr   string
	wsBroker   string
}

func main() {
	poll := flag.Duration("poll", 10*time.Millisecond, "Button polling interval")
	cure := flag.Duration("cure", 5*time.Minute, "UV exposure duration per cycle")
	debounce := flag.Duration("debounce", 50*time.Millisecond, "Minimum press length accepted as a real press")
	settle := flag.Duration("settle", 500*time.Millisecond, "Wait after drive release for the relay contacts to open")
	beeps := flag.Int("beeps", 3, "Completion beep count (0 = silent)")
	beepOn := flag.Duration("beep-on", 200*time.Millisecond, "Beep duration")
	beepOff := flag.Duration("beep-off", 300*time.Millisecond, "Pause between beeps")
	cooldown := flag.Duration("cooldown", time.Second, "Delay before re-arming the button after a cycle")
	activeLow := flag.Bool("relay-active-low", true, "Relay board closes on low drive level")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	pinButton := flag.Int("pin-button", gpio.DefaultPinButton, "BCM pin number for the start button")
	pinRelay := flag.Int("pin-relay", gpio.DefaultPinRelay, "BCM pin number for the relay drive")
	pinBuzzer := flag.Int("pin-buzzer", gpio.DefaultPinBuzzer, "BCM pin number for the buzzer")
	pinLED := flag.Int("pin-led", gpio.DefaultPinLED, "BCM pin number for the status LED (negative to disable)")
	printState := flag.Bool("print-state", false, "Print current button state and exit")
	httpAddr := flag.String("http", ":80", "HTTP status address (empty to disable)")
	wsBroker := flag.String("ws-broker", "=broker", `MQTT websocket URL for live UI ("=broker" derives from --broker, "off" disables)`)

	flag.Parse()

	params := logic.Parameters{
		CureDuration:   *cure,
		DebounceWindow: *debounce,
		SettleDelay:    *settle,
		PulseCount:     *beeps,
		PulseOn:        *beepOn,
		PulseOff:       *beepOff,
		Cooldown:       *cooldown,
		DriveActiveLow: *activeLow,
	}
	opts := options{
		poll:      *poll,
		broker:    *broker,
		heartbeat: *heartbeat,
		pins: gpio.Pins{
			Button: *pinButton,
			Relay:  *pinRelay,
			Buzzer: *pinBuzzer,
			LED:    *pinLED,
		},
		printState: *printState,
		httpAddr:   *httpAddr,
		wsBroker:   resolveWSBroker(*wsBroker, *broker),
	}

	if err := run(params, opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(params logic.Parameters, opts options) error {
	// Fail fast: a bad parameter set must never reach the control loop.
	if err := params.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	// Initialize GPIO. The relay line comes up floating (de-energized).
	hw, err := gpio.NewRealIO(opts.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer hw.Close()

	// Print state mode
	if opts.printState {
		pressed, err := hw.Pressed()
		if err != nil {
			return fmt.Errorf("read button: %w", err)
		}
		if pressed {
			fmt.Println("Button: PRESSED")
		} else {
			fmt.Println("Button: RELEASED")
		}
		return nil
	}

	// Initialize MQTT
	publisher := mqtt.NewRealPublisher(opts.broker)
	defer publisher.Close()

	// Initialize status tracker (before STARTUP so snapshot is available)
	tracker := status.NewTracker(time.Now(), status.Config{
		PollMs:      opts.poll.Milliseconds(),
		DebounceMs:  params.DebounceWindow.Milliseconds(),
		CureMs:      params.CureDuration.Milliseconds(),
		SettleMs:    params.SettleDelay.Milliseconds(),
		Beeps:       params.PulseCount,
		BeepOnMs:    params.PulseOn.Milliseconds(),
		BeepOffMs:   params.PulseOff.Milliseconds(),
		CooldownMs:  params.Cooldown.Milliseconds(),
		HeartbeatMs: opts.heartbeat.Milliseconds(),
		Broker:      opts.broker,
		HTTPPort:    opts.httpAddr,
		WSBroker:    opts.wsBroker,
	})
	if net := readNetworkInfo(); net != nil {
		tracker.SetNetwork(net)
	}

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

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: cure=%v debounce=%v settle=%v beeps=%d cooldown=%v poll=%v broker=%s",
		params.CureDuration, params.DebounceWindow, params.SettleDelay,
		params.PulseCount, params.Cooldown, opts.poll, opts.broker)

	ticker := time.NewTicker(opts.poll)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	machine := logic.NewMachine(params, time.Now())

	return runLoop(hw, publisher, publisher, tracker, machine, opts.heartbeat, time.Now, ticker.C, sigCh)
}

func runLoop(hw gpio.IO, publisher mqtt.Publisher, mqttStatus mqtt.ConnectionStatus, tracker *status.Tracker, machine *logic.Machine, heartbeat time.Duration, now func() time.Time, tick <-chan time.Time, sig <-chan os.Signal) error {
	// Cold start and warm restart look the same: force the drive line to its
	// de-energized default before accepting any input.
	if err := applyCommands(hw, machine.Reset(now())); err != nil {
		return fmt.Errorf("reset hardware: %w", err)
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
			event := mqtt.SystemEvent{
				Timestamp: now(),
				Event:     "SHUTDOWN",
				Reason:    signalName,
				Retained:  true,
			}
			if tracker != nil {
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
				snap := tracker.Snapshot()
				event.RawPayload = status.FormatStatusEvent(snap, "SHUTDOWN", signalName)
			}
			if err := publisher.PublishSystem(event); err != nil {
				log.Printf("failed to publish shutdown event: %v", err)
			} else {
				log.Printf("published shutdown event")
			}
			return nil

		case <-tick:
			t := now()
			pressed, err := hw.Pressed()
			if err != nil {
				// The cycle must keep timing even when the button read
				// fails: a missing sample reads as released.
				log.Printf("gpio read error: %v", err)
				pressed = false
			}

			cmds, events := machine.Process(logic.Input{Pressed: pressed, Time: t})
			if err := applyCommands(hw, cmds); err != nil {
				// Failing to command the drive line is not recoverable in
				// process. Exiting releases the line request and the kernel
				// leaves the line non-driving — the hardware default is the
				// recovery mechanism.
				return fmt.Errorf("apply commands: %w", err)
			}

			for _, event := range events {
				log.Printf("event: %s (cycle=%s drive=%s)", event.Type, event.State, event.Drive)
				if err := publisher.Publish(event); err != nil {
					log.Printf("publish error: %v", err)
					// Don't crash on publish failure
				}
			}

			// Check for heartbeat
			if hbData := machine.CheckHeartbeat(t, heartbeat); hbData != nil {
				log.Printf("heartbeat: uptime=%v presses=%d noise=%d started=%d complete=%d",
					hbData.Uptime, hbData.Counts.Presses, hbData.Counts.NoiseRejected,
					hbData.Counts.CyclesStarted, hbData.Counts.CyclesComplete)

				hbEvent := mqtt.SystemEvent{
					Timestamp: hbData.Timestamp,
					Event:     "HEARTBEAT",
				}
				if tracker != nil {
					if mqttStatus != nil {
						tracker.SetMQTTConnected(mqttStatus.IsConnected())
					}
					// Refresh network info for heartbeat
					if net := readNetworkInfo(); net != nil {
						tracker.SetNetwork(net)
					}
					tracker.Update(machine.State(), machine.Drive(), machine.Counts())
					snap := tracker.Snapshot()
					hbEvent.RawPayload = status.FormatStatusEvent(snap, "HEARTBEAT", "")
				}
				if err := publisher.PublishSystem(hbEvent); err != nil {
					log.Printf("heartbeat publish error: %v", err)
				}
			}

			// Update status tracker for HTTP consumers
			if tracker != nil {
				tracker.Update(machine.State(), machine.Drive(), machine.Counts())
				if mqttStatus != nil {
					tracker.SetMQTTConnected(mqttStatus.IsConnected())
				}
			}
		}
	}
}

// applyCommands applies machine commands to the hardware in order. Command
// order matters: on the curing exit the floating command comes first.
func applyCommands(hw gpio.IO, cmds []logic.Command) error {
	for _, cmd := range cmds {
		var err error
		switch cmd.Type {
		case logic.CommandSetDrive:
			err = hw.SetDrive(cmd.Mode)
		case logic.CommandBuzzer:
			err = hw.SetBuzzer(cmd.On)
		case logic.CommandStatusLED:
			err = hw.SetLED(cmd.On)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", cmd.Type, err)
		}
	}
	return nil
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

// resolveWSBroker converts the --ws-broker flag value into a concrete URL.
// "=broker" derives ws://host:9001 from the TCP broker address; empty disables.
func resolveWSBroker(ws, broker string) string {
	if ws == "off" {
		return ""
	}
	if ws != "=broker" {
		return ws
	}
	u, err := url.Parse(broker)
	if err != nil {
		log.Printf("ws-broker: cannot parse --broker %q: %v", broker, err)
		return ""
	}
	u.Scheme = "ws"
	u.Host = u.Hostname() + ":9001"
	return u.String()
}
