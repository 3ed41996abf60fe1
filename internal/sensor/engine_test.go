package sensor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ims-sentinel/sentineld/internal/hardware"
	"github.com/ims-sentinel/sentineld/internal/model"
)

func newTestEngine(t *testing.T) (*Engine, *hardware.Mock) {
	t.Helper()
	hw := hardware.NewMock()
	e := New(hw, model.DefaultThresholds(), 4)
	require.NoError(t, e.Init())
	t.Cleanup(e.Shutdown)
	return e, hw
}

func TestRegisterUnitOrderAndDuplicate(t *testing.T) {
	e, _ := newTestEngine(t)

	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-2", 18, 28, 5))
	assert.Equal(t, RegisterDuplicate, e.RegisterUnit("Sentinel-RT", 1, 2, 3))

	assert.Equal(t, []string{"Sentinel-RT", "Sentinel-2"}, e.ListUnits())
}

func TestRegisterUnitFullDoesNotMutate(t *testing.T) {
	hw := hardware.NewMock()
	e := New(hw, model.DefaultThresholds(), 1)
	require.NoError(t, e.Init())
	defer e.Shutdown()

	require.Equal(t, RegisterOK, e.RegisterUnit("A", 1, 2, 3))
	assert.Equal(t, RegisterFull, e.RegisterUnit("B", 4, 5, 6))
	assert.Equal(t, []string{"A"}, e.ListUnits())
}

func TestGetHealthUnknownUnit(t *testing.T) {
	e, _ := newTestEngine(t)
	_, ok := e.GetHealth("nope")
	assert.False(t, ok)
}

func TestGetHealthHealthyFixture(t *testing.T) {
	e, hw := newTestEngine(t)
	hw.SetTemperature(4, 35.2)
	hw.SetCurrent(10.5)
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))

	time.Sleep(1200 * time.Millisecond)

	health, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.Equal(t, model.StatusHealthy, health.Status)
	assert.Empty(t, health.Message)
	assert.InDelta(t, 35.2, health.Snapshot.TemperatureC, 0.001)
	assert.InDelta(t, 10.5, health.Snapshot.CurrentA, 0.001)
}

func TestGetHealthCriticalViaCurrent(t *testing.T) {
	e, hw := newTestEngine(t)
	hw.SetCurrent(16.0)
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))

	time.Sleep(1200 * time.Millisecond)

	health, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.Equal(t, model.StatusCritical, health.Status)
	assert.Equal(t, model.CriticalFaultMessage, health.Message)
}

// TestGetHealthResetsCounters is invariant #1 from spec.md §8: after a
// snapshot returns, that unit's fast-cadence counters are zero, which we
// observe indirectly by checking that an immediate second call (no further
// acquisition time) reports a healthy zero-rate reading regardless of the
// first call's result. The engine is not started, so ticks are driven by
// hand and no tick can land between the two calls.
func TestGetHealthResetsCounters(t *testing.T) {
	hw := hardware.NewMock()
	e := New(hw, model.DefaultThresholds(), 4)
	hw.SetDigital(17, hardware.High)
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))

	for i := 0; i < 10; i++ {
		e.tick()
	}
	first, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.Equal(t, 1000.0, first.Snapshot.VibrationLevel)

	second, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.Equal(t, 0.0, second.Snapshot.VibrationLevel)
	assert.Equal(t, model.StatusHealthy, second.Status)
}

func TestGetHealthEmptyIntegrationWindow(t *testing.T) {
	e, _ := newTestEngine(t)
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))

	health, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.Equal(t, 0.0, health.Snapshot.VibrationLevel)
	assert.Equal(t, 0.0, health.Snapshot.SoundLevel)
	assert.Equal(t, model.StatusHealthy, health.Status)
}

func TestThresholdBoundaries(t *testing.T) {
	th := model.DefaultThresholds()

	cases := []struct {
		name string
		vib  float64
		want model.HealthStatus
	}{
		{"at warn boundary is healthy", 100.0, model.StatusHealthy},
		{"just above warn is warning", 100.01, model.StatusWarning},
		{"at crit boundary is warning", 200.0, model.StatusWarning},
		{"just above crit is critical", 200.01, model.StatusCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := &Engine{thresholds: th}
			// totalSamples=100000 gives a normalization factor of 0.01, so
			// an integer pulse count can still express fractional vib
			// rates like 100.01 exactly.
			health := e.evaluate(&unitState{
				id:            "u",
				totalSamples:  100000,
				vibPulseCount: int(tc.vib * 100),
			})
			assert.Equal(t, tc.want, health.Status)
		})
	}
}

func TestSoundLevelBounds(t *testing.T) {
	e, hw := newTestEngine(t)
	hw.SetDigital(27, hardware.High)
	require.Equal(t, RegisterOK, e.RegisterUnit("Sentinel-RT", 17, 27, 4))

	time.Sleep(1200 * time.Millisecond)

	health, ok := e.GetHealth("Sentinel-RT")
	require.True(t, ok)
	assert.GreaterOrEqual(t, health.Snapshot.SoundLevel, 0.0)
	assert.LessOrEqual(t, health.Snapshot.SoundLevel, 100.0)
}

func TestShutdownIdempotent(t *testing.T) {
	hw := hardware.NewMock()
	e := New(hw, model.DefaultThresholds(), 4)
	require.NoError(t, e.Init())
	e.Shutdown()
	e.Shutdown() // must not panic on double-close
}
