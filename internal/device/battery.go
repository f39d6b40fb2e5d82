package device

import (
	"fmt"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
)

const (
	// MAX17048Addr is the fuel gauge's fixed I²C address.
	MAX17048Addr = 0x36

	regVCell = 0x02
	// One VCELL LSB is 78.125 µV.
	vcellNanovoltsPerLSB = 78125
)

// MAX17048 reads cell voltage from a Maxim MAX17048 fuel gauge.
type MAX17048 struct {
	dev *i2c.Dev
	bus i2c.BusCloser
}

func NewMAX17048(bus i2c.Bus, addr uint16) *MAX17048 {
	return &MAX17048{dev: &i2c.Dev{Bus: bus, Addr: addr}}
}

// OpenMAX17048 opens the named I²C bus ("" for the first) and binds the
// gauge on it. The host must already be initialized.
func OpenMAX17048(busName string, addr uint16) (*MAX17048, error) {
	bus, err := i2creg.Open(busName)
	if err != nil {
		return nil, fmt.Errorf("device: open i2c %q: %w", busName, err)
	}
	m := NewMAX17048(bus, addr)
	m.bus = bus
	return m, nil
}

func (m *MAX17048) Millivolts() (int, error) {
	r := make([]byte, 2)
	if err := m.dev.Tx([]byte{regVCell}, r); err != nil {
		return 0, fmt.Errorf("device: read vcell: %w", err)
	}
	raw := int64(r[0])<<8 | int64(r[1])
	return int(raw * vcellNanovoltsPerLSB / 1_000_000), nil
}

func (m *MAX17048) Close() error {
	if m.bus != nil {
		return m.bus.Close()
	}
	return nil
}
