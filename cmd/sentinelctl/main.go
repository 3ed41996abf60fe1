// Command sentinelctl is a reference operator client for sentineld: a
// bubbletea TUI speaking the same mTLS line protocol apps/client.c
// speaks, generalized from that raw-terminal-mode C client into a
// bubbletea model. It is not part of the daemon's core; deleting this
// command does not affect any other package.
package main

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
)

var (
	serverAddr string
	clientCert string
	clientKey  string
	caCert     string
)

var rootCmd = &cobra.Command{
	Use:   "sentinelctl",
	Short: "Operator console for sentineld",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConnect()
	},
}

func init() {
	rootCmd.Flags().StringVarP(&serverAddr, "server", "s", "127.0.0.1:8080", "server address (host:port)")
	rootCmd.Flags().StringVar(&clientCert, "cert", "certs/client.crt", "client certificate")
	rootCmd.Flags().StringVar(&clientKey, "key", "certs/client.key", "client private key")
	rootCmd.Flags().StringVar(&caCert, "ca", "certs/ca.crt", "CA certificate trusted to verify the server")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runConnect() error {
	conn, err := dial(serverAddr, clientCert, clientKey, caCert)
	if err != nil {
		return fmt.Errorf("sentinelctl: %w", err)
	}

	p := tea.NewProgram(newModel(conn, serverAddr), tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// dial opens a mutually-authenticated TLS connection, mirroring
// configure_context/SSL_CTX_set_verify in apps/client.c: the client
// presents its own certificate and verifies the server's against ca.
func dial(addr, certPath, keyPath, caPath string) (*tls.Conn, error) {
	cert, err := tls.LoadX509KeyPair(certPath, keyPath)
	if err != nil {
		return nil, fmt.Errorf("load client keypair: %w", err)
	}

	caPEM, err := os.ReadFile(caPath)
	if err != nil {
		return nil, fmt.Errorf("read CA certificate: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("no certificates found in %s", caPath)
	}

	cfg := &tls.Config{
		Certificates: []tls.Certificate{cert},
		RootCAs:      pool,
		MinVersion:   tls.VersionTLS12,
	}

	return tls.Dial("tcp", addr, cfg)
}
