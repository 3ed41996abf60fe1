// Command sentineld is the industrial equipment monitoring daemon.
// It wires HardwareAccess, SensorEngine, TransportGate, the Authorizer,
// and ProtocolEngine together behind a small cobra CLI. Grounded on
// cmd/arx/main.go's rootCmd/subcommand wiring and signal-driven
// graceful shutdown, generalized from ArxOS's building-management
// command set to Sentinel's serve/gen-config/version/token surface.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	buildTime = "unknown"
	commit    = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "sentineld",
	Short: "Sentinel industrial equipment monitoring daemon",
	Long: `sentineld streams health telemetry (vibration, sound, temperature,
current) from monitored hardware units to remote operators over a
mutually-authenticated encrypted channel.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, genConfigCmd, versionCmd, tokenCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("sentineld %s\n", version)
		fmt.Printf("Built: %s\n", buildTime)
		fmt.Printf("Commit: %s\n", commit)
	},
}
