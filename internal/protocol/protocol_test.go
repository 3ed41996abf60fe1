package protocol

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/ims-sentinel/sentineld/internal/audit"
	"github.com/ims-sentinel/sentineld/internal/hardware"
	"github.com/ims-sentinel/sentineld/internal/logx"
	"github.com/ims-sentinel/sentineld/internal/model"
	"github.com/ims-sentinel/sentineld/internal/sensor"
)

func newTestSession(t *testing.T, opts ...func(*Session)) (*Session, net.Conn) {
	t.Helper()
	mock := hardware.NewMock()
	mock.SetTemperature(4, 35.2)
	mock.SetCurrent(10.5)

	eng := sensor.New(mock, model.DefaultThresholds(), 8)
	require.NoError(t, eng.Init())
	t.Cleanup(eng.Shutdown)

	require.Equal(t, sensor.RegisterOK, eng.RegisterUnit(primaryUnit, 17, 27, 4))

	al := audit.New(t.TempDir() + "/blackbox.log")

	clientConn, serverConn := net.Pipe()
	t.Cleanup(func() { clientConn.Close() })

	s := &Session{
		Identity: model.AuthenticatedIdentity{CommonName: "alice", Role: model.RoleOperator},
		Engine:   eng,
		Audit:    al,
		Log:      logx.Nop(),
		Limiter:  rate.NewLimiter(rate.Limit(1000), 1000),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.Run(serverConn)
	return s, clientConn
}

func readUntilEOM(t *testing.T, conn net.Conn) string {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	r := bufio.NewReader(conn)
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		require.NoError(t, err)
		if b == EOM {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func TestWhoamiReflectsIdentity(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("whoami"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "User: alice | Role: OPERATOR\n", out)
}

func TestUnknownCommand(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("foobar"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "Unknown command. Type 'help'.\n", out)
}

func TestListUnits(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("list_units"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "=== Registered Units ===\n - Sentinel-RT\n", out)
}

func TestGetHealthHealthyScenario(t *testing.T) {
	_, conn := newTestSession(t)
	time.Sleep(1200 * time.Millisecond)

	conn.Write([]byte("get_health"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "Status: HEALTHY | Message: \n", out)
}

func TestGetLogEmptyThenClear(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("clear_log"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "[SUCCESS] Log cleared.\n", out)

	conn.Write([]byte("get_log"))
	out = readUntilEOM(t, conn)
	assert.Equal(t, "[INFO] Log is empty.\n", out)
}

func TestPrefixMatchAcceptsJunkSuffix(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("list_unitsNONSENSE"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "=== Registered Units ===\n - Sentinel-RT\n", out)
}

func TestQuitEndsSession(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("quit"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "\n>>> DISCONNECTING <<<\n", out)
}

func TestMonitorInterrupt(t *testing.T) {
	_, conn := newTestSession(t)
	conn.Write([]byte("monitor 10s"))

	// net.Pipe is unbuffered: the server's preamble and tick writes block
	// until read, so the reply is drained while monitor mode is running.
	outCh := make(chan string, 1)
	go func() {
		r := bufio.NewReader(conn)
		var sb strings.Builder
		for {
			b, err := r.ReadByte()
			if err != nil || b == EOM {
				break
			}
			sb.WriteByte(b)
		}
		outCh <- sb.String()
	}()

	time.Sleep(2200 * time.Millisecond)
	conn.Write([]byte("\n"))

	var out string
	select {
	case out = <-outCh:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for EOM after monitor interrupt")
	}
	assert.Contains(t, out, ">>> MONITOR START (Limit: 10s) <<<")
	assert.Contains(t, out, ">>> MONITOR STOPPED <<<")
}

func TestRateLimitReplyDoesNotDisconnect(t *testing.T) {
	_, conn := newTestSession(t, func(s *Session) {
		s.Limiter = rate.NewLimiter(0, 0)
	})

	conn.Write([]byte("whoami"))
	out := readUntilEOM(t, conn)
	assert.Equal(t, "Rate limit exceeded, slow down.\n", out)
}

func TestParseMonitorDurationBoundaries(t *testing.T) {
	cases := []struct {
		arg  string
		want int
	}{
		{"", -1},
		{"30", 30},
		{"5m", 300},
		{"1h", 3600},
		{"abc", -1},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, parseMonitorDuration(tc.arg), tc.arg)
	}
}
