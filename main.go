// Command speedguard simulates a vehicle under position-dependent speed
// limits and reports its compliance state over MQTT.
//
// The simulation tick, the telemetry publish timer, and the link maintenance
// timer run as three independent activities; the only shared state is the
// latest snapshot, swapped atomically once per tick.
package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/smartspeed/speedguard/api"
	"github.com/smartspeed/speedguard/internal/config"
	"github.com/smartspeed/speedguard/internal/control"
	"github.com/smartspeed/speedguard/internal/monitoring"
	"github.com/smartspeed/speedguard/internal/physics"
	"github.com/smartspeed/speedguard/internal/sim"
	"github.com/smartspeed/speedguard/internal/telemetry"
	"github.com/smartspeed/speedguard/internal/timeutil"
	"github.com/smartspeed/speedguard/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file (defaults apply when empty)")
	listen     = flag.String("listen", ":8080", "Status API listen address")
	script     = flag.String("script", "", "Drive script override, e.g. \"accel:8s,coast:4s,brake:2s\"")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	vehicle, err := physics.NewVehicle(cfg.PhysicsConfig())
	if err != nil {
		log.Fatalf("physics: %v", err)
	}
	table, err := cfg.ZoneTable()
	if err != nil {
		log.Fatalf("zones: %v", err)
	}
	engine, err := control.NewEngine(cfg.ControlConfig())
	if err != nil {
		log.Fatalf("control: %v", err)
	}

	driveScript := cfg.Sim.DriveScript
	if *script != "" {
		driveScript = *script
	}
	segments, err := sim.ParseScript(driveScript)
	if err != nil {
		log.Fatalf("drive script: %v", err)
	}

	tickInterval, err := cfg.TickInterval()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	publishInterval, err := cfg.PublishInterval()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	backoff, err := cfg.ReconnectBackoff()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	clock := timeutil.RealClock{}
	loop, err := sim.New(vehicle, table, engine, sim.NewScriptDriver(segments), clock, sim.Config{
		TickInterval: tickInterval,
	})
	if err != nil {
		log.Fatalf("sim: %v", err)
	}

	// The audio/HUD collaborators are out of scope; the log is the local
	// rendering of state transitions.
	engine.OnStateChange(func(ev control.Event) {
		monitoring.Logf("state %s -> %s (speed %.1f km/h, limit %.0f km/h)",
			ev.Old, ev.New, ev.Speed, ev.Limit)
	})

	topics := telemetry.DefaultTopics()
	transport := telemetry.NewMQTTTransport(telemetry.MQTTConfig{
		BrokerURL:   cfg.Broker.URL,
		ClientID:    cfg.Broker.ClientID,
		StatusTopic: topics.Status,
	})
	link := telemetry.NewLink(transport)
	publisher := telemetry.NewPublisher(link, func() (telemetry.Sample, bool) {
		snap, ok := loop.Snapshot()
		if !ok {
			return telemetry.Sample{}, false
		}
		return telemetry.Sample{
			X:     snap.X,
			Y:     snap.Y,
			Speed: snap.Speed,
			Limit: snap.Limit,
			State: snap.State,
		}, true
	}, clock, telemetry.Config{
		Topics:  topics,
		Origin:  cfg.Telemetry.Origin,
		Period:  publishInterval,
		Backoff: backoff,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	monitoring.Logf("speedguard %s: broker %s, %d zones, tick %v, publish %v",
		version.String(), cfg.Broker.URL, len(cfg.Zones), tickInterval, publishInterval)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(ctx) })
	g.Go(func() error { return publisher.Run(ctx) })
	g.Go(func() error {
		return runStatusServer(ctx, *listen, api.NewServer(loop, publisher).ServeMux())
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("shutdown: %v", err)
	}
	monitoring.Logf("speedguard: shutdown complete")
}
