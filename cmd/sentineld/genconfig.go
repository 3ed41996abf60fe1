package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v2"

	"github.com/ims-sentinel/sentineld/internal/config"
)

var genConfigOut string

var genConfigCmd = &cobra.Command{
	Use:   "gen-config",
	Short: "Write a default configuration file",
	Long: `gen-config writes config.Default() to disk as a starting point,
with placeholder unit and TLS paths the operator is expected to edit
before running serve.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runGenConfig()
	},
}

func init() {
	genConfigCmd.Flags().StringVarP(&genConfigOut, "out", "o", "sentineld.yaml", "output path")
}

func runGenConfig() error {
	cfg := config.Default()
	cfg.Units = []config.UnitConfig{
		{ID: "Sentinel-RT", VibPin: 17, SoundPin: 27, TempPin: 4},
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("gen-config: marshal: %w", err)
	}

	if _, err := os.Stat(genConfigOut); err == nil {
		return fmt.Errorf("gen-config: %s already exists, refusing to overwrite", genConfigOut)
	}

	if err := os.WriteFile(genConfigOut, data, 0o644); err != nil {
		return fmt.Errorf("gen-config: write %s: %w", genConfigOut, err)
	}

	fmt.Printf("wrote %s\n", genConfigOut)
	fmt.Println("edit tls.* paths and admin_api secrets before running 'sentineld serve'")
	return nil
}
