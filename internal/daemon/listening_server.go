// Package daemon implements ListeningServer (spec.md §2/§4.7): the glue
// that binds the socket, accepts connections via TransportGate, runs
// each peer certificate through the Authorizer, and hands authorized
// sessions to ProtocolEngine. Unauthorized or certificate-less peers
// are rejected and the connection is closed, matching apps/server.c's
// accept loop (`authorize_client` then reject-if-ROLE_UNAUTHORIZED).
package daemon

import (
	"crypto/x509"
	"net"

	"github.com/ims-sentinel/sentineld/internal/audit"
	"github.com/ims-sentinel/sentineld/internal/identity"
	"github.com/ims-sentinel/sentineld/internal/logx"
	"github.com/ims-sentinel/sentineld/internal/metrics"
	"github.com/ims-sentinel/sentineld/internal/model"
	"github.com/ims-sentinel/sentineld/internal/protocol"
	"github.com/ims-sentinel/sentineld/internal/sensor"
	"github.com/ims-sentinel/sentineld/internal/transport"

	"golang.org/x/time/rate"
)

// ListeningServer wires TransportGate, the Authorizer, and
// ProtocolEngine for every accepted connection.
type ListeningServer struct {
	Gate           *transport.Gate
	Engine         *sensor.Engine
	Audit          *audit.Log
	Log            *logx.Logger
	Metrics        *metrics.Registry
	RateLimitRPS   float64
	RateLimitBurst int
}

// Serve blocks, accepting and handling sessions until the gate is closed.
func (ls *ListeningServer) Serve() error {
	return ls.Gate.Serve(ls.handleConnection)
}

func (ls *ListeningServer) handleConnection(conn net.Conn, peerCert *x509.Certificate) {
	defer conn.Close()

	id, err := identity.Authorize(peerCert)
	if err != nil {
		ls.Log.Warnf("daemon: authorization failed from %s: %v", conn.RemoteAddr(), err)
		return
	}
	if id.Role == model.RoleUnauthorized {
		ls.Log.Warnf("daemon: unauthorized role for %s from %s, rejecting", id.CommonName, conn.RemoteAddr())
		return
	}

	ls.Log.Infof("daemon: access granted: %s (%s)", id.CommonName, id.Role)

	session := &protocol.Session{
		Identity: id,
		Engine:   ls.Engine,
		Audit:    ls.Audit,
		Log:      ls.Log,
		Metrics:  ls.Metrics,
		Limiter:  rate.NewLimiter(rate.Limit(ls.RateLimitRPS), ls.RateLimitBurst),
	}
	session.Run(conn)
}
