package ecoal

import (
	"fmt"
	"strconv"
)

// PolledRegisters are requested on every poll, in this order.
var PolledRegisters = []string{
	"tzew_value",
	"fuel_level",
	"next_fuel_time",
	"ob1_pog_en",
	"tryb_auto_state",
	"tcwu_value",
	"tkot_value",
	"tpow_value",
	"tpod_value",
	"twew_value",
	"t1_value",
	"t2_value",
	"tsp_value",
	"act_dm_speed",
	"kot_tzad",
	"out_pomp1",
	"out_cwutzad",
	"out_pomp2",
	"tzew_act",
	"kot_tact",
	"ob1_pok_tact",
	"ob1_pok_tzad",
	"ob1_zaw4d_tzad",
	"ob1_zaw4d_pos",
	"ob2_pok_tact",
	"ob2_pok_tzad",
	"cwu_tact",
	"ob3_pok_tact",
	"ob3_pok_tzad",
	"ob3_zaw4d_tzad",
	"ob3_zaw4d_pos",
}

// Register ids for the automatic mode switch.
const (
	AutoModeRegister      = "tryb_auto"
	AutoModeStateRegister = "tryb_auto_state"
)

// SensorKind tells consumers how to present a sensor value.
type SensorKind string

const (
	KindTemperature SensorKind = "temp"
	KindPercentage  SensorKind = "percentage"
	KindState       SensorKind = "state"
	KindEnum        SensorKind = "enum"
)

// Sensor describes a read-only register exposed as an entity.
type Sensor struct {
	TID      string            `json:"tid"`
	UniqueID string            `json:"unique_id"`
	Name     string            `json:"name"`
	Unit     string            `json:"unit,omitempty"`
	Kind     SensorKind        `json:"kind"`
	Values   map[string]string `json:"values,omitempty"`
}

var onOff = map[string]string{"0": "off", "1": "on"}

// Sensors lists the registers published as sensors.
var Sensors = []Sensor{
	{TID: "tzew_value", UniqueID: "outdoor_temperature", Name: "Outdoor temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "fuel_level", UniqueID: "fuel_level", Name: "Fuel level", Unit: "%", Kind: KindPercentage},
	{TID: "next_fuel_time", UniqueID: "next_fuel_time", Name: "Next fuel time", Unit: "h", Kind: KindState},
	{TID: "ob1_pog_en", UniqueID: "weather_control", Name: "Weather control", Kind: KindEnum, Values: onOff},
	{TID: "tryb_auto_state", UniqueID: "auto_mode_state", Name: "Automatic mode", Kind: KindEnum, Values: onOff},
	{TID: "tcwu_value", UniqueID: "hot_water_temperature", Name: "Hot water temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "tkot_value", UniqueID: "boiler_temperature", Name: "Boiler temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "tpow_value", UniqueID: "return_temperature", Name: "Return temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "tpod_value", UniqueID: "feeder_temperature", Name: "Feeder temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "twew_value", UniqueID: "indoor_temperature", Name: "Indoor temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "t1_value", UniqueID: "temperature_1", Name: "Temperature T1", Unit: "°C", Kind: KindTemperature},
	{TID: "t2_value", UniqueID: "temperature_2", Name: "Temperature T2", Unit: "°C", Kind: KindTemperature},
	{TID: "tsp_value", UniqueID: "exhaust_temperature", Name: "Exhaust temperature", Unit: "°C", Kind: KindTemperature},
	{TID: "act_dm_speed", UniqueID: "blower_speed", Name: "Blower speed", Unit: "%", Kind: KindPercentage},
	{TID: "out_pomp1", UniqueID: "ch_pump", Name: "Central heating pump", Kind: KindEnum, Values: onOff},
	{TID: "out_pomp2", UniqueID: "pump_2", Name: "Pump 2", Kind: KindEnum, Values: onOff},
	{TID: "ob1_zaw4d_pos", UniqueID: "mixing_valve_position", Name: "Mixing valve position", Unit: "%", Kind: KindPercentage},
	{TID: "ob3_zaw4d_pos", UniqueID: "mixing_valve_3_position", Name: "Mixing valve 3 position", Unit: "%", Kind: KindPercentage},
}

// TemperatureControl is a writable setpoint. SetID is written by
// setregister.cgi; CurrentSetValueID reads the active setpoint back.
type TemperatureControl struct {
	UniqueID          string  `json:"unique_id"`
	Name              string  `json:"name"`
	SetID             string  `json:"set_id"`
	ReadoutID         string  `json:"readout_id"`
	CurrentSetValueID string  `json:"current_set_value_id"`
	Unit              string  `json:"unit"`
	Min               float64 `json:"min"`
	Max               float64 `json:"max"`
}

// Controls lists the setpoints the bridge may change.
var Controls = []TemperatureControl{
	{
		UniqueID:          "boiler_temperature_setpoint",
		Name:              "Boiler temperature setpoint",
		SetID:             "kot_tzad",
		ReadoutID:         "tkot_value",
		CurrentSetValueID: "kot_tzad",
		Unit:              "°C",
		Min:               40,
		Max:               85,
	},
	{
		UniqueID:          "hot_water_temperature_setpoint",
		Name:              "Hot water temperature setpoint",
		SetID:             "cwu_tzad",
		ReadoutID:         "tcwu_value",
		CurrentSetValueID: "out_cwutzad",
		Unit:              "°C",
		Min:               20,
		Max:               60,
	},
	{
		UniqueID:          "room_temperature_setpoint",
		Name:              "Room temperature setpoint",
		SetID:             "ob1_pok_tzad",
		ReadoutID:         "ob1_pok_tact",
		CurrentSetValueID: "ob1_pok_tzad",
		Unit:              "°C",
		Min:               10,
		Max:               30,
	},
	{
		UniqueID:          "mixer_temperature_setpoint",
		Name:              "Mixer temperature setpoint",
		SetID:             "ob1_zaw4d_tzad",
		ReadoutID:         "ob1_zaw4d_tzad",
		CurrentSetValueID: "ob1_zaw4d_tzad",
		Unit:              "°C",
		Min:               20,
		Max:               70,
	},
}

// LookupSensor returns the sensor reading register tid.
func LookupSensor(tid string) (Sensor, bool) {
	for _, s := range Sensors {
		if s.TID == tid {
			return s, true
		}
	}

	return Sensor{}, false
}

// LookupControl returns the control with the given unique id.
func LookupControl(uniqueID string) (TemperatureControl, bool) {
	for _, c := range Controls {
		if c.UniqueID == uniqueID {
			return c, true
		}
	}

	return TemperatureControl{}, false
}

// Check reports whether v lies within the control's limits, inclusive.
func (c TemperatureControl) Check(v float64) error {
	if v < c.Min || v > c.Max {
		return fmt.Errorf("%s: %s not in [%s, %s]: %w",
			c.UniqueID, formatValue(v), formatValue(c.Min), formatValue(c.Max), ErrOutOfRange)
	}

	return nil
}

// ValidateSetpoint resolves uniqueID and range checks value.
func ValidateSetpoint(uniqueID string, value float64) (TemperatureControl, error) {
	c, ok := LookupControl(uniqueID)
	if !ok {
		return TemperatureControl{}, fmt.Errorf("%q: %w", uniqueID, ErrUnknownControl)
	}

	if err := c.Check(value); err != nil {
		return TemperatureControl{}, err
	}

	return c, nil
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
