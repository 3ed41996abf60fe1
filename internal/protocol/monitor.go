package protocol

import (
	"fmt"
	"net"
	"time"

	"github.com/ims-sentinel/sentineld/internal/model"
)

const (
	colorCritical = "\033[1;31m"
	colorWarning  = "\033[1;33m"
	colorHealthy  = "\033[1;32m"
	colorReset    = "\033[0m"
)

// cmdMonitor implements the streaming sub-mode: one status line per
// second until interrupted by a single in-band byte or a tick limit is
// reached. The 1-second read deadline doubles as both the interrupt
// poll and the per-tick cadence (spec.md §4.5/§9).
func (s *session) cmdMonitor(arg string) error {
	maxTicks := parseMonitorDuration(arg)

	if maxTicks < 0 {
		s.writeString("\n>>> MONITOR START (Infinite) <<<\n")
	} else {
		fmt.Fprintf(s.w, "\n>>> MONITOR START (Limit: %s) <<<\n", arg)
	}
	s.writeString("Press ENTER to stop monitoring.\n")
	if err := s.flush(); err != nil {
		return err
	}

	interrupt := make([]byte, 1)
	ticks := 0
	for {
		s.conn.SetReadDeadline(time.Now().Add(1 * time.Second))
		n, err := s.conn.Read(interrupt)
		s.conn.SetReadDeadline(time.Time{})

		if n > 0 {
			s.writeString("\n>>> MONITOR STOPPED <<<\n")
			s.sendEOM()
			return s.flush()
		}

		if err != nil {
			if !isTimeout(err) {
				return err
			}
		}

		s.emitMonitorTick()
		ticks++

		if maxTicks >= 0 && ticks >= maxTicks {
			s.writeString("\n>>> MONITOR TIME LIMIT REACHED <<<\n")
			s.sendEOM()
			return s.flush()
		}
	}
}

func (s *session) emitMonitorTick() {
	health, ok := s.Engine.GetHealth(primaryUnit)
	if !ok {
		return
	}

	var color string
	switch health.Status {
	case model.StatusCritical:
		color = colorCritical
		s.Audit.RecordCritical(primaryUnit, health.Message)
		if s.Metrics != nil {
			s.Metrics.CriticalEventsTotal.WithLabelValues(primaryUnit).Inc()
		}
	case model.StatusWarning:
		color = colorWarning
	default:
		color = colorHealthy
	}

	snap := health.Snapshot
	fmt.Fprintf(s.w, "%s[%s] Vib: %.0f | Snd: %.0f%% | Temp: %.1fC | Cur: %.2fA%s\n",
		color, health.Status, snap.VibrationLevel, snap.SoundLevel, snap.TemperatureC, snap.CurrentA, colorReset)
	s.w.Flush()
}

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}
