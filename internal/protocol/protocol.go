// Package protocol implements the line-oriented command session that
// runs over one mutually-authenticated connection (spec.md §4.5). A
// Session reads prefix-matched commands from the stream, dispatches
// them against the sensor registry and audit log, and terminates every
// reply with a single EOM byte so the client's prompt is recoverable
// even on error paths. Grounded on apps/server.c's per-connection loop
// and protocol.h's command table, generalized to Go's net.Conn and to
// the multi-unit SensorEngine.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/ims-sentinel/sentineld/internal/audit"
	"github.com/ims-sentinel/sentineld/internal/logx"
	"github.com/ims-sentinel/sentineld/internal/metrics"
	"github.com/ims-sentinel/sentineld/internal/model"
	"github.com/ims-sentinel/sentineld/internal/sensor"
)

// EOM is the single byte the server appends to every completed reply.
// It is never emitted inside payload text (spec.md §9).
const EOM = byte(0x03)

// readChunkSize bounds a single request read, per spec.md §4.5.
const readChunkSize = 1024

// primaryUnit is the fixed unit name queried by get_sensors/get_health,
// matching apps/server.c's single registered "Sentinel-RT" unit; the
// multi-unit registry (list_units/register_unit) coexists with this
// fixed query target exactly as the source does.
const primaryUnit = "Sentinel-RT"

const helpText = `Available commands:
  help          - show this text
  whoami        - show your identity and role
  list_units    - list registered equipment
  get_sensors   - show raw sensor readings for Sentinel-RT
  get_health    - show health status for Sentinel-RT
  get_log       - print the audit log
  clear_log     - clear the audit log
  monitor <dur> - stream health once per second (e.g. 30s, 5m, 1h)
  quit / exit   - close the session
`

type commandEntry struct {
	prefix  string
	handler func(s *session, arg string) error
}

var commandTable = []commandEntry{
	{"help", (*session).cmdHelp},
	{"whoami", (*session).cmdWhoami},
	{"list_units", (*session).cmdListUnits},
	{"get_sensors", (*session).cmdGetSensors},
	{"get_health", (*session).cmdGetHealth},
	{"get_log", (*session).cmdGetLog},
	{"clear_log", (*session).cmdClearLog},
	{"monitor", (*session).cmdMonitor},
	{"quit", (*session).cmdQuit},
	{"exit", (*session).cmdQuit},
}

// Stream is the minimal connection surface a Session needs: readable,
// writable, and able to have its read deadline pushed for the
// streaming-mode interrupt poll.
type Stream interface {
	io.Reader
	io.Writer
	SetReadDeadline(t time.Time) error
}

// Session runs one ProtocolEngine command loop to completion.
type Session struct {
	Identity model.AuthenticatedIdentity
	Engine   *sensor.Engine
	Audit    *audit.Log
	Log      *logx.Logger
	Limiter  *rate.Limiter
	Metrics  *metrics.Registry
}

type session struct {
	*Session
	conn    Stream
	w       *bufio.Writer
	id      string
	running bool
}

// Run drives the command loop until quit, EOF, or a read error.
func (s *Session) Run(conn Stream) {
	sessID := uuid.NewString()
	sess := &session{
		Session: s,
		conn:    conn,
		w:       bufio.NewWriter(conn),
		id:      sessID,
		running: true,
	}
	log := s.Log.With("session", sessID, "cn", s.Identity.CommonName, "role", string(s.Identity.Role))
	sess.Log = log

	log.Infof("session started")
	defer log.Infof("session ended")

	if s.Metrics != nil {
		s.Metrics.SessionsTotal.Inc()
		s.Metrics.SessionsActive.Inc()
		defer s.Metrics.SessionsActive.Dec()
	}

	buf := make([]byte, readChunkSize)
	for sess.running {
		n, err := conn.Read(buf)
		if err != nil {
			if err != io.EOF {
				log.Warnf("session read error: %v", err)
			}
			return
		}
		if n == 0 {
			continue
		}

		if sess.Limiter != nil && !sess.Limiter.Allow() {
			if sess.Metrics != nil {
				sess.Metrics.RateLimitedTotal.Inc()
			}
			sess.writeString("Rate limit exceeded, slow down.\n")
			sess.sendEOM()
			if err := sess.flush(); err != nil {
				log.Warnf("session write error: %v", err)
				return
			}
			continue
		}

		if err := sess.dispatch(string(buf[:n])); err != nil {
			log.Warnf("session write error: %v", err)
			return
		}
	}
}

// dispatch matches req against commandTable by prefix, trims trailing
// whitespace before matching (spec.md §9), and runs the first hit.
func (s *session) dispatch(req string) error {
	trimmed := strings.TrimRight(req, " \t\r\n")

	for _, entry := range commandTable {
		if strings.HasPrefix(trimmed, entry.prefix) {
			if s.Metrics != nil {
				s.Metrics.CommandsTotal.WithLabelValues(entry.prefix).Inc()
			}
			arg := strings.TrimSpace(trimmed[len(entry.prefix):])
			if err := entry.handler(s, arg); err != nil {
				return err
			}
			return s.flush()
		}
	}

	s.writeString("Unknown command. Type 'help'.\n")
	s.sendEOM()
	return s.flush()
}

func (s *session) writeString(str string) { s.w.WriteString(str) }
func (s *session) sendEOM()                { s.w.WriteByte(EOM) }
func (s *session) flush() error            { return s.w.Flush() }

func (s *session) cmdHelp(_ string) error {
	s.writeString(helpText)
	s.sendEOM()
	return nil
}

func (s *session) cmdWhoami(_ string) error {
	fmt.Fprintf(s.w, "User: %s | Role: %s\n", s.Identity.CommonName, s.Identity.Role)
	s.sendEOM()
	return nil
}

func (s *session) cmdListUnits(_ string) error {
	s.writeString("=== Registered Units ===\n")
	for _, id := range s.Engine.ListUnits() {
		fmt.Fprintf(s.w, " - %s\n", id)
	}
	s.sendEOM()
	return nil
}

func (s *session) cmdGetSensors(_ string) error {
	health, ok := s.Engine.GetHealth(primaryUnit)
	if ok {
		snap := health.Snapshot
		fmt.Fprintf(s.w, "Vib: %.0f | Snd: %.1f%% | Temp: %.1fC | Cur: %.2fA\n",
			snap.VibrationLevel, snap.SoundLevel, snap.TemperatureC, snap.CurrentA)
	}
	s.sendEOM()
	return nil
}

func (s *session) cmdGetHealth(_ string) error {
	health, ok := s.Engine.GetHealth(primaryUnit)
	if ok {
		fmt.Fprintf(s.w, "Status: %s | Message: %s\n", health.Status, health.Message)
	}
	s.sendEOM()
	return nil
}

func (s *session) cmdGetLog(_ string) error {
	content, ok := s.Audit.ReadAll()
	if !ok {
		s.writeString("[INFO] Log is empty.\n")
	} else {
		s.writeString(content)
	}
	s.sendEOM()
	return nil
}

func (s *session) cmdClearLog(_ string) error {
	s.Audit.Clear()
	s.writeString("[SUCCESS] Log cleared.\n")
	s.sendEOM()
	return nil
}

func (s *session) cmdQuit(_ string) error {
	s.writeString("\n>>> DISCONNECTING <<<\n")
	s.sendEOM()
	s.running = false
	return nil
}

// parseMonitorDuration parses the monitor argument into a tick count,
// or -1 for infinite (spec.md §8's boundary table).
func parseMonitorDuration(arg string) int {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return -1
	}

	unit := time.Second
	numPart := arg
	switch arg[len(arg)-1] {
	case 's':
		numPart = arg[:len(arg)-1]
	case 'm':
		unit = time.Minute
		numPart = arg[:len(arg)-1]
	case 'h':
		unit = time.Hour
		numPart = arg[:len(arg)-1]
	}

	n, err := strconv.Atoi(numPart)
	if err != nil || n <= 0 {
		return -1
	}
	return n * int(unit/time.Second)
}
