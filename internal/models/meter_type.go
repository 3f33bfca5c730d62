package models

import "fmt"

// MeterType identifies which household meter a record belongs to.
type MeterType string

const (
	MeterElectricity MeterType = "ELECTRICITY"
	MeterGas         MeterType = "GAS"
	MeterWater       MeterType = "WATER"
)

// ParseMeterType validates a raw meter type string.
func ParseMeterType(raw string) (MeterType, error) {
	switch MeterType(raw) {
	case MeterElectricity, MeterGas, MeterWater:
		return MeterType(raw), nil
	}
	return "", fmt.Errorf("unknown meter type: %q", raw)
}

func (t MeterType) String() string {
	return string(t)
}
