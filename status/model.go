package status

import (
	"time"

	"github.com/adamwoolhether/ecoalbridge/ecoal"
)

// SystemStatus is the body of GET /api/status.
type SystemStatus struct {
	DeviceName   string     `json:"device_name"`
	DeviceID     string     `json:"device_id"`
	ECoalHost    string     `json:"ecoal_host"`
	PollInterval int        `json:"poll_interval"`
	Uptime       int        `json:"uptime"`
	LastPoll     *time.Time `json:"last_poll,omitempty"`
	LastError    string     `json:"last_error,omitempty"`
}

// APIResponse wraps poll data; Error is set when the latest poll failed.
type APIResponse struct {
	Success   bool      `json:"success"`
	Data      any       `json:"data,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Data is the decoded view of a poll.
type Data struct {
	Sensors  []Reading        `json:"sensors"`
	Controls []ControlReading `json:"controls"`
}

// RawData mirrors the controller's own getregister.cgi document.
type RawData struct {
	Cmd struct {
		Status string `json:"status"`
		Device struct {
			ID  string          `json:"id"`
			Reg ecoal.Registers `json:"reg"`
		} `json:"device"`
	} `json:"cmd"`
}

// Reading is one sensor with its presented value. Enum values are
// translated, everything else is passed through as sent.
type Reading struct {
	UniqueID string           `json:"unique_id"`
	Name     string           `json:"name"`
	TID      string           `json:"tid"`
	Value    string           `json:"value"`
	Unit     string           `json:"unit,omitempty"`
	Kind     ecoal.SensorKind `json:"kind"`
}

// ControlReading is a setpoint with its active value and the measured
// value it regulates. Missing registers are null.
type ControlReading struct {
	UniqueID string   `json:"unique_id"`
	Name     string   `json:"name"`
	Setpoint *float64 `json:"setpoint"`
	Current  *float64 `json:"current"`
	Unit     string   `json:"unit"`
	Min      float64  `json:"min"`
	Max      float64  `json:"max"`
}

// SetpointRequest is the body of POST /api/controls/{id}.
type SetpointRequest struct {
	Value *float64 `json:"value" validate:"required"`
}

// AutoModeRequest is the body of POST /api/auto-mode.
type AutoModeRequest struct {
	State string `json:"state" validate:"required,oneof=ON OFF"`
}

// SetResult acknowledges an accepted write.
type SetResult struct {
	Success bool   `json:"success"`
	ID      string `json:"id"`
	Value   string `json:"value"`
}

func readings(sensors []ecoal.Sensor, regs ecoal.Registers) []Reading {
	out := make([]Reading, 0, len(sensors))
	for _, s := range sensors {
		v, ok := regs.Value(s.TID)
		if !ok {
			continue
		}
		if label, ok := s.Values[v]; ok {
			v = label
		}

		out = append(out, Reading{
			UniqueID: s.UniqueID,
			Name:     s.Name,
			TID:      s.TID,
			Value:    v,
			Unit:     s.Unit,
			Kind:     s.Kind,
		})
	}

	return out
}

func controlReadings(regs ecoal.Registers) []ControlReading {
	out := make([]ControlReading, 0, len(ecoal.Controls))
	for _, c := range ecoal.Controls {
		out = append(out, ControlReading{
			UniqueID: c.UniqueID,
			Name:     c.Name,
			Setpoint: floatValue(regs, c.CurrentSetValueID),
			Current:  floatValue(regs, c.ReadoutID),
			Unit:     c.Unit,
			Min:      c.Min,
			Max:      c.Max,
		})
	}

	return out
}

func floatValue(regs ecoal.Registers, tid string) *float64 {
	f, ok := regs.Float(tid)
	if !ok {
		return nil
	}

	return &f
}

func rawData(regs ecoal.Registers) RawData {
	var d RawData
	d.Cmd.Status = "ok"
	d.Cmd.Device.ID = "0"
	d.Cmd.Device.Reg = regs
	if d.Cmd.Device.Reg == nil {
		d.Cmd.Device.Reg = ecoal.Registers{}
	}

	return d
}
