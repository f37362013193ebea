// internal/records/power.go
package records

import (
	"fmt"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// AntennaPower sets per-antenna output power when Enable is set.
type AntennaPower struct {
	Enable bool
	Power  [8]uint8
}

// Validate checks every antenna against maxPower.
func (a AntennaPower) Validate(maxPower uint8) error {
	for i, p := range a.Power {
		if p > maxPower {
			return protocol.Invalid(fmt.Sprintf("antenna_power[%d]", i+1), p, fmt.Sprintf("must be 0..%d", maxPower))
		}
	}
	return nil
}

func (a AntennaPower) MarshalBinary() ([]byte, error) {
	out := make([]byte, 0, AntennaPowerSize)
	out = append(out, boolByte(a.Enable))
	out = append(out, a.Power[:]...)
	return out, nil
}

func (a *AntennaPower) UnmarshalBinary(b []byte) error {
	if err := needLen("antenna power", b, AntennaPowerSize); err != nil {
		return err
	}
	a.Enable = b[0] != 0
	copy(a.Power[:], b[1:9])
	return nil
}

// Temperature is the reader's current and configured maximum, in °C.
type Temperature struct {
	Current uint8
	Max     uint8
}

func (t Temperature) MarshalBinary() ([]byte, error) {
	return []byte{t.Current, t.Max}, nil
}

func (t *Temperature) UnmarshalBinary(b []byte) error {
	if err := needLen("temperature", b, TemperatureSize); err != nil {
		return err
	}
	t.Current, t.Max = b[0], b[1]
	return nil
}
