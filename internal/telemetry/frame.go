// Package telemetry reports the vehicle's position, speed, and control state
// to a remote consumer over a publish/subscribe link.
//
// Frames are best-effort, most-recent-value telemetry: each payload is
// self-contained and timestamped, consumers must tolerate missing or
// out-of-order frames, and nothing here may ever stall the simulation.
package telemetry

import (
	"encoding/json"
	"math"
	"time"

	"github.com/smartspeed/speedguard/internal/control"
	"github.com/smartspeed/speedguard/internal/zones"
)

// Topics names the publish destinations for each payload kind.
type Topics struct {
	Location string
	Speed    string
	State    string
	Status   string
}

// DefaultTopics returns the topic layout the indicator firmware subscribes to.
func DefaultTopics() Topics {
	return Topics{
		Location: "vehicle/smart_speed/location",
		Speed:    "vehicle/smart_speed/speed",
		State:    "vehicle/smart_speed/state",
		Status:   "vehicle/smart_speed/status",
	}
}

// GeoOrigin anchors the simulation's flat x/y metres to geographic
// coordinates. The zero value places the origin at (0, 0).
type GeoOrigin struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// metres per degree of latitude (WGS84 mean).
const metersPerDegree = 111320.0

// ToLatLon converts a local (x, y) metre offset into lat/lon degrees.
// X runs east, Y runs north.
func (o GeoOrigin) ToLatLon(x, y float64) (lat, lon float64) {
	lat = o.Lat + y/metersPerDegree
	scale := metersPerDegree * math.Cos(lat*math.Pi/180)
	if scale < 1 {
		scale = 1 // degenerate near the poles; avoid exploding longitudes
	}
	lon = o.Lon + x/scale
	return lat, lon
}

// Sample is the instantaneous input a frame is built from, read atomically
// from the simulation's latest snapshot.
type Sample struct {
	X     float64 // metres
	Y     float64 // metres
	Speed float64 // km/h
	Limit float64 // km/h
	State control.State
}

// Frame is one immutable telemetry snapshot prepared for transmission. It is
// constructed fresh each publish cycle and discarded after serialization.
type Frame struct {
	Sample
	Timestamp time.Time
}

// NewFrame stamps a sample into a frame.
func NewFrame(s Sample, at time.Time) Frame {
	return Frame{Sample: s, Timestamp: at}
}

// Overspeed returns max(0, speed-limit).
func (f Frame) Overspeed() float64 {
	return math.Max(0, f.Speed-f.Limit)
}

func epochSeconds(t time.Time) float64 {
	return float64(t.UnixNano()) / 1e9
}

type locationPayload struct {
	Lat       float64 `json:"lat"`
	Lon       float64 `json:"lon"`
	Timestamp float64 `json:"timestamp"`
}

type speedPayload struct {
	Speed     float64 `json:"speed"`
	Limit     float64 `json:"limit"`
	Overspeed float64 `json:"overspeed"`
	Timestamp float64 `json:"timestamp"`
}

type statePayload struct {
	State     string      `json:"state"`
	Color     zones.Color `json:"color"`
	Timestamp float64     `json:"timestamp"`
}

type statusPayload struct {
	Status    string  `json:"status"`
	Timestamp float64 `json:"timestamp"`
}

// MarshalLocation encodes the location payload for the given origin.
func (f Frame) MarshalLocation(origin GeoOrigin) ([]byte, error) {
	lat, lon := origin.ToLatLon(f.X, f.Y)
	return json.Marshal(locationPayload{
		Lat:       round6(lat),
		Lon:       round6(lon),
		Timestamp: epochSeconds(f.Timestamp),
	})
}

// MarshalSpeed encodes the speed/limit payload.
func (f Frame) MarshalSpeed() ([]byte, error) {
	return json.Marshal(speedPayload{
		Speed:     round2(f.Speed),
		Limit:     round2(f.Limit),
		Overspeed: round2(f.Overspeed()),
		Timestamp: epochSeconds(f.Timestamp),
	})
}

// MarshalState encodes the state payload, including the indicator colour hint.
func (f Frame) MarshalState() ([]byte, error) {
	return json.Marshal(statePayload{
		State:     f.State.String(),
		Color:     f.State.Color(),
		Timestamp: epochSeconds(f.Timestamp),
	})
}

// MarshalStatus encodes an online/offline announcement for the status topic.
func MarshalStatus(status string, at time.Time) ([]byte, error) {
	return json.Marshal(statusPayload{Status: status, Timestamp: epochSeconds(at)})
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
