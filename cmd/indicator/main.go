// Command indicator is a reference consumer for the speedguard telemetry
// contract: it subscribes to the state and speed topics and renders the
// three-colour indicator on the terminal, optionally mirroring it to a
// serial-attached LED controller.
//
// It stands in for the microcontroller firmware: NORMAL is a steady ok,
// WARNING blinks at 2 Hz, REGULATING is a steady alert. Reconnection is
// non-blocking; missing or out-of-order frames are tolerated by design.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"
	"go.bug.st/serial"
)

var (
	broker     = flag.String("broker", "tcp://127.0.0.1:1883", "MQTT broker URL")
	stateTopic = flag.String("state-topic", "vehicle/smart_speed/state", "State topic")
	speedTopic = flag.String("speed-topic", "vehicle/smart_speed/speed", "Speed topic")
	serialPort = flag.String("serial", "", "Serial port for an LED controller (optional)")
	baud       = flag.Int("baud", 9600, "Serial baud rate")
)

const blinkPeriod = 250 * time.Millisecond // 2 Hz on/off

type stateMsg struct {
	State string `json:"state"`
}

type speedMsg struct {
	Speed     float64 `json:"speed"`
	Limit     float64 `json:"limit"`
	Overspeed float64 `json:"overspeed"`
}

// ledFor maps a state and blink phase to the LED command byte.
func ledFor(state string, blinkOn bool) byte {
	switch state {
	case "NORMAL":
		return 'G'
	case "WARNING":
		if blinkOn {
			return 'Y'
		}
		return '0'
	case "REGULATING":
		return 'R'
	default:
		return '0'
	}
}

func main() {
	flag.Parse()

	var port serial.Port
	if *serialPort != "" {
		var err error
		port, err = serial.Open(*serialPort, &serial.Mode{BaudRate: *baud})
		if err != nil {
			log.Fatalf("open serial port %s: %v", *serialPort, err)
		}
		defer port.Close()
	}

	var lastState atomic.Value // string
	lastState.Store("")

	opts := mqtt.NewClientOptions().
		AddBroker(*broker).
		SetClientID("speedguard-indicator-" + uuid.NewString()[:8]).
		SetCleanSession(true).
		// Non-blocking reconnect: the render loop keeps running while the
		// client redials in the background.
		SetAutoReconnect(true).
		SetConnectRetry(true).
		SetConnectRetryInterval(5 * time.Second).
		SetOnConnectHandler(func(c mqtt.Client) {
			log.Printf("connected to %s", *broker)
			c.Subscribe(*stateTopic, 1, func(_ mqtt.Client, m mqtt.Message) {
				var msg stateMsg
				if err := json.Unmarshal(m.Payload(), &msg); err != nil {
					log.Printf("bad state payload: %v", err)
					return
				}
				if prev := lastState.Swap(msg.State); prev != msg.State {
					log.Printf("state %s", msg.State)
				}
			})
			c.Subscribe(*speedTopic, 1, func(_ mqtt.Client, m mqtt.Message) {
				var msg speedMsg
				if err := json.Unmarshal(m.Payload(), &msg); err != nil {
					log.Printf("bad speed payload: %v", err)
					return
				}
				if msg.Overspeed > 0 {
					log.Printf("speed %.1f km/h (limit %.0f, over by %.1f)", msg.Speed, msg.Limit, msg.Overspeed)
				}
			})
		}).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			log.Printf("connection lost, retrying: %v", err)
		})

	client := mqtt.NewClient(opts)
	client.Connect() // retries in the background until the broker appears

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ticker := time.NewTicker(blinkPeriod)
	defer ticker.Stop()

	blinkOn := false
	var lastLED byte
	for {
		select {
		case <-ctx.Done():
			client.Disconnect(250)
			return
		case <-ticker.C:
			blinkOn = !blinkOn
			state, _ := lastState.Load().(string)
			led := ledFor(state, blinkOn)
			if led == lastLED {
				continue
			}
			lastLED = led
			if port != nil {
				if _, err := port.Write([]byte{led}); err != nil {
					log.Printf("serial write: %v", err)
				}
			}
		}
	}
}
