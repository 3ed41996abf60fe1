package hardware

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMockInitIdempotent(t *testing.T) {
	m := NewMock()
	require.NoError(t, m.Init())
	require.NoError(t, m.Init())
	assert.Equal(t, 2, m.InitCalls())
}

func TestMockDigitalDefaultsLow(t *testing.T) {
	m := NewMock()
	assert.Equal(t, Low, m.ReadDigital(17))

	m.SetDigital(17, High)
	assert.Equal(t, High, m.ReadDigital(17))
}

func TestMockAnalogFixtures(t *testing.T) {
	m := NewMock()
	m.SetCurrent(10.5)
	m.SetTemperature(4, 35.2)

	amps, err := m.ReadCurrentBus()
	require.NoError(t, err)
	assert.Equal(t, 10.5, amps)

	celsius, err := m.ReadTemperatureWire(4)
	require.NoError(t, err)
	assert.Equal(t, 35.2, celsius)
}
