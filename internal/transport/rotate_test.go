package transport

import (
	"crypto/x509"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ims-sentinel/sentineld/internal/logx"
)

func TestCertWatcherReloadsOnWrite(t *testing.T) {
	pki := newTestPKI(t)
	serverCert, serverKey := pki.issue(t, "watched", "SERVER", x509.ExtKeyUsageServerAuth)

	port := freePort(t)
	gate, err := NewGate(Config{
		ListenAddr:     "127.0.0.1",
		Port:           port,
		ServerCertPath: serverCert,
		ServerKeyPath:  serverKey,
		CACertPath:     pki.caCertPath,
	}, logx.Nop())
	require.NoError(t, err)
	defer gate.Close()

	watcher, err := NewCertWatcher(gate, serverCert, serverKey, logx.Nop())
	require.NoError(t, err)
	defer watcher.Close()

	newCert, newKey := pki.issue(t, "watched-rotated", "SERVER", x509.ExtKeyUsageServerAuth)
	newCertBytes, err := os.ReadFile(newCert)
	require.NoError(t, err)
	newKeyBytes, err := os.ReadFile(newKey)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(serverCert, newCertBytes, 0o600))
	require.NoError(t, os.WriteFile(serverKey, newKeyBytes, 0o600))

	require.Eventually(t, func() bool {
		cert, err := gate.getCertificate(nil)
		if err != nil {
			return false
		}
		parsed, err := x509.ParseCertificate(cert.Certificate[0])
		return err == nil && parsed.Subject.CommonName == "watched-rotated"
	}, 2*time.Second, 20*time.Millisecond)
}
