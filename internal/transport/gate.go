// Package transport owns the mutually-authenticated TCP listener
// sessions arrive on (SPEC_FULL.md §4.5/§9). TransportGate terminates
// TLS, requires and verifies a client certificate against the
// configured CA, and hands each accepted connection off to a
// caller-supplied session handler on its own goroutine — one session
// per connection, unbounded, matching the concurrency model spec.md §9
// leaves open and SPEC_FULL.md resolves explicitly.
package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"net"
	"os"
	"sync"

	"github.com/ims-sentinel/sentineld/internal/logx"
)

// SessionHandler processes one accepted, TLS-verified connection. It
// owns conn for its lifetime and must close it before returning.
type SessionHandler func(conn net.Conn, peerCert *x509.Certificate)

// Gate is a TLS-terminating TCP listener with live certificate rotation.
type Gate struct {
	log      *logx.Logger
	listener net.Listener

	mu      sync.RWMutex
	cert    *tls.Certificate
	caPool  *x509.CertPool

	wg sync.WaitGroup
}

// Config names the material a Gate binds to.
type Config struct {
	ListenAddr     string
	Port           int
	ServerCertPath string
	ServerKeyPath  string
	CACertPath     string
}

// NewGate loads the initial certificate material and binds the listener.
// The CA trust anchor is read once at startup and is not rotated; only
// the server's own leaf certificate/key pair is watched for rotation, by
// a CertWatcher built with NewCertWatcher.
func NewGate(cfg Config, log *logx.Logger) (*Gate, error) {
	g := &Gate{log: log}

	if err := g.loadCertificate(cfg.ServerCertPath, cfg.ServerKeyPath); err != nil {
		return nil, err
	}
	if err := g.loadCA(cfg.CACertPath); err != nil {
		return nil, err
	}

	tlsCfg := &tls.Config{
		GetCertificate: g.getCertificate,
		ClientAuth:     tls.RequireAndVerifyClientCert,
		ClientCAs:      g.currentCAPool(),
		MinVersion:     tls.VersionTLS12,
	}

	addr := fmt.Sprintf("%s:%d", cfg.ListenAddr, cfg.Port)
	ln, err := tls.Listen("tcp", addr, tlsCfg)
	if err != nil {
		return nil, fmt.Errorf("transport: listen %s: %w", addr, err)
	}
	g.listener = ln
	return g, nil
}

func (g *Gate) loadCertificate(certPath, keyPath string) error {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return fmt.Errorf("transport: load server keypair: %w", err)
	}
	g.mu.Lock()
	g.cert = &cert
	g.mu.Unlock()
	return nil
}

func (g *Gate) loadCA(caPath string) error {
	pem, err := os.ReadFile(caPath)
	if err != nil {
		return fmt.Errorf("transport: read CA cert: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(pem) {
		return fmt.Errorf("transport: no valid certificates found in %s", caPath)
	}
	g.mu.Lock()
	g.caPool = pool
	g.mu.Unlock()
	return nil
}

func (g *Gate) getCertificate(_ *tls.ClientHelloInfo) (*tls.Certificate, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.cert, nil
}

func (g *Gate) currentCAPool() *x509.CertPool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.caPool
}

// ReloadCertificate atomically swaps the serving leaf certificate. Safe
// to call concurrently with in-flight handshakes; in-flight connections
// keep the certificate they negotiated with.
func (g *Gate) ReloadCertificate(certPath, keyPath string) error {
	if err := g.loadCertificate(certPath, keyPath); err != nil {
		return err
	}
	g.log.Infof("transport: server certificate rotated from %s", certPath)
	return nil
}

// Serve accepts connections until the listener is closed, dispatching
// each to handler on its own goroutine. It blocks until Close is called.
func (g *Gate) Serve(handler SessionHandler) error {
	for {
		conn, err := g.listener.Accept()
		if err != nil {
			return err
		}
		g.wg.Add(1)
		go func() {
			defer g.wg.Done()
			g.dispatch(conn, handler)
		}()
	}
}

func (g *Gate) dispatch(conn net.Conn, handler SessionHandler) {
	tlsConn, ok := conn.(*tls.Conn)
	if !ok {
		conn.Close()
		return
	}
	if err := tlsConn.Handshake(); err != nil {
		g.log.Warnf("transport: handshake failed from %s: %v", conn.RemoteAddr(), err)
		conn.Close()
		return
	}

	state := tlsConn.ConnectionState()
	var peerCert *x509.Certificate
	if len(state.PeerCertificates) > 0 {
		peerCert = state.PeerCertificates[0]
	}

	handler(conn, peerCert)
}

// Close stops accepting new connections and waits for in-flight
// sessions to finish handling.
func (g *Gate) Close() error {
	err := g.listener.Close()
	g.wg.Wait()
	return err
}

// Addr returns the bound listen address.
func (g *Gate) Addr() net.Addr {
	return g.listener.Addr()
}
