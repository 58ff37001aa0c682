package sim

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/smartspeed/speedguard/internal/physics"
)

func TestParseScript(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		want    []Segment
		wantErr bool
	}{
		{
			name:   "simple drive",
			script: "accel:5s,coast:2s,brake:1s",
			want: []Segment{
				{Input: physics.ControlInput{Accelerate: true}, Duration: 5 * time.Second},
				{Input: physics.ControlInput{}, Duration: 2 * time.Second},
				{Input: physics.ControlInput{Brake: true}, Duration: time.Second},
			},
		},
		{
			name:   "combined steer",
			script: "accel-left:500ms, right:1s",
			want: []Segment{
				{Input: physics.ControlInput{Accelerate: true, SteerLeft: true}, Duration: 500 * time.Millisecond},
				{Input: physics.ControlInput{SteerRight: true}, Duration: time.Second},
			},
		},
		{"empty", "", nil, true},
		{"missing duration", "accel", nil, true},
		{"bad duration", "accel:fast", nil, true},
		{"zero duration", "accel:0s", nil, true},
		{"unknown action", "warp:1s", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseScript(tt.script)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseScript(%q) error = %v, wantErr %v", tt.script, err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("segments mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScriptDriverPlayback(t *testing.T) {
	segs, err := ParseScript("accel:2s,coast:1s,brake:1s")
	if err != nil {
		t.Fatalf("ParseScript: %v", err)
	}
	d := NewScriptDriver(segs)

	tests := []struct {
		at   time.Duration
		want physics.ControlInput
	}{
		{0, physics.ControlInput{Accelerate: true}},
		{1999 * time.Millisecond, physics.ControlInput{Accelerate: true}},
		{2 * time.Second, physics.ControlInput{}},
		{2500 * time.Millisecond, physics.ControlInput{}},
		{3 * time.Second, physics.ControlInput{Brake: true}},
		// Past the script's end the last input holds.
		{time.Minute, physics.ControlInput{Brake: true}},
	}
	for _, tt := range tests {
		if got := d.Input(tt.at, Snapshot{}); got != tt.want {
			t.Errorf("Input(%v) = %+v, want %+v", tt.at, got, tt.want)
		}
	}
}

func TestEmptyScriptDriverCoasts(t *testing.T) {
	d := NewScriptDriver(nil)
	if got := d.Input(time.Second, Snapshot{}); got != (physics.ControlInput{}) {
		t.Errorf("Input() = %+v, want coast", got)
	}
}
