package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRegistersAllCollectors(t *testing.T) {
	r := New()

	r.SessionsTotal.Inc()
	r.SessionsActive.Inc()
	r.CommandsTotal.WithLabelValues("whoami").Inc()
	r.CriticalEventsTotal.WithLabelValues("Sentinel-RT").Inc()
	r.SensorTicksTotal.Inc()
	r.RateLimitedTotal.Inc()

	families, err := r.Gatherer().Gather()
	assert.NoError(t, err)
	assert.NotEmpty(t, families)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"sentinel_sessions_total",
		"sentinel_sessions_active",
		"sentinel_commands_total",
		"sentinel_critical_events_total",
		"sentinel_sensor_ticks_total",
		"sentinel_rate_limited_total",
	} {
		assert.True(t, names[want], "missing metric %s", want)
	}
}
