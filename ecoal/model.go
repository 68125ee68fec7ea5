package ecoal

import (
	"errors"
	"strconv"
)

var (
	// ErrUnsupportedHardware is returned by [Service.CheckHardware] for
	// controllers other than [SupportedHardwareVersion].
	ErrUnsupportedHardware = errors.New("unsupported hardware version")
	// ErrUnknownControl is returned for a setpoint id not in [Controls].
	ErrUnknownControl = errors.New("unknown control")
	// ErrOutOfRange is returned for a setpoint outside the control's limits.
	ErrOutOfRange = errors.New("value out of range")
)

// SupportedHardwareVersion is the only controller revision the register
// catalogue has been verified against.
const SupportedHardwareVersion = "3.5"

// Register is one <reg> element of a getregister.cgi reply. Values are
// kept as the device sent them.
type Register struct {
	VID    string `mapstructure:"vid" json:"vid"`
	TID    string `mapstructure:"tid" json:"tid"`
	V      string `mapstructure:"v" json:"v,omitempty"`
	Min    string `mapstructure:"min" json:"min,omitempty"`
	Max    string `mapstructure:"max" json:"max,omitempty"`
	Status string `mapstructure:"status" json:"status,omitempty"`
}

// Registers is the merged result of one poll, in request order.
type Registers []Register

// Find returns the first register with the given tid.
func (rs Registers) Find(tid string) (Register, bool) {
	for _, r := range rs {
		if r.TID == tid {
			return r, true
		}
	}

	return Register{}, false
}

// Value returns the raw value of tid. ok is false when the register is
// missing or carried no value.
func (rs Registers) Value(tid string) (string, bool) {
	r, ok := rs.Find(tid)
	if !ok || r.V == "" {
		return "", false
	}

	return r.V, true
}

// Float returns the value of tid parsed as a number.
func (rs Registers) Float(tid string) (float64, bool) {
	v, ok := rs.Value(tid)
	if !ok {
		return 0, false
	}

	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, false
	}

	return f, true
}

// Hardware is the <hardware> element of an info.cgi reply.
type Hardware struct {
	Type            string `mapstructure:"type" json:"type"`
	HardwareVersion string `mapstructure:"hardwareversion" json:"hardware_version"`
	SoftwareVersion string `mapstructure:"softwareversion" json:"software_version"`
}

type registerReply struct {
	Cmd struct {
		Status string `mapstructure:"status"`
		Device struct {
			ID  string     `mapstructure:"id"`
			Reg []Register `mapstructure:"reg"`
		} `mapstructure:"device"`
	} `mapstructure:"cmd"`
}

type infoReply struct {
	Cmd struct {
		Status   string   `mapstructure:"status"`
		Hardware Hardware `mapstructure:"hardware"`
	} `mapstructure:"cmd"`
}
