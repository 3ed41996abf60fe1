package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ims-sentinel/sentineld/internal/adminapi"
	"github.com/ims-sentinel/sentineld/internal/audit"
	"github.com/ims-sentinel/sentineld/internal/config"
	"github.com/ims-sentinel/sentineld/internal/daemon"
	"github.com/ims-sentinel/sentineld/internal/hardware"
	"github.com/ims-sentinel/sentineld/internal/logx"
	"github.com/ims-sentinel/sentineld/internal/metrics"
	"github.com/ims-sentinel/sentineld/internal/sensor"
	"github.com/ims-sentinel/sentineld/internal/transport"
)

var (
	configPath  string
	useMockGPIO bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the monitoring daemon",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe()
	},
}

func init() {
	serveCmd.Flags().StringVarP(&configPath, "config", "c", "sentineld.yaml", "path to configuration file")
	serveCmd.Flags().BoolVar(&useMockGPIO, "mock-hardware", false, "use simulated hardware instead of GPIO/I2C/1-Wire")
}

// runServe wires config, hardware, the sensor engine, the transport gate,
// the admin API, and the listening server together, then blocks until a
// termination signal arrives. Any initialization failure is fatal
// (spec.md §7): the daemon exits rather than running in a half-built
// state.
func runServe() error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}

	log := logx.New("sentineld", cfg.Verbose)
	defer log.Sync()

	var hw hardware.Access
	if useMockGPIO {
		hw = hardware.NewMock()
		log.Infof("using simulated hardware access")
	} else {
		hw = hardware.NewGPIO(hardware.DefaultGPIOConfig())
	}

	reg := metrics.New()

	eng := sensor.New(hw, cfg.Thresholds.ToTable(), cfg.RegistryCapacity)
	eng.SetTickCounter(reg.SensorTicksTotal)
	if err := eng.Init(); err != nil {
		return fmt.Errorf("fatal: sensor engine init: %w", err)
	}
	defer eng.Shutdown()

	for _, u := range cfg.Units {
		switch eng.RegisterUnit(u.ID, u.VibPin, u.SoundPin, u.TempPin) {
		case sensor.RegisterOK:
			log.Infof("registered unit %s", u.ID)
		case sensor.RegisterDuplicate:
			return fmt.Errorf("fatal: duplicate unit id %q in config", u.ID)
		case sensor.RegisterFull:
			return fmt.Errorf("fatal: registry capacity %d exceeded by config", cfg.RegistryCapacity)
		}
	}

	auditLog := audit.New(cfg.AuditLogPath)

	gate, err := transport.NewGate(transport.Config{
		ListenAddr:     cfg.ListenAddr,
		Port:           cfg.Port,
		ServerCertPath: cfg.TLS.ServerCertPath,
		ServerKeyPath:  cfg.TLS.ServerKeyPath,
		CACertPath:     cfg.TLS.CACertPath,
	}, log.With("component", "transport"))
	if err != nil {
		return fmt.Errorf("fatal: %w", err)
	}
	defer gate.Close()

	watcher, err := transport.NewCertWatcher(gate, cfg.TLS.ServerCertPath, cfg.TLS.ServerKeyPath, log.With("component", "rotate"))
	if err != nil {
		return fmt.Errorf("fatal: certificate watcher: %w", err)
	}
	defer watcher.Close()

	ls := &daemon.ListeningServer{
		Gate:           gate,
		Engine:         eng,
		Audit:          auditLog,
		Log:            log.With("component", "daemon"),
		Metrics:        reg,
		RateLimitRPS:   cfg.RateLimit.CommandsPerSecond,
		RateLimitBurst: cfg.RateLimit.Burst,
	}

	errCh := make(chan error, 2)
	go func() {
		log.Infof("listening on %s:%d (mTLS)", cfg.ListenAddr, cfg.Port)
		if err := ls.Serve(); err != nil {
			errCh <- fmt.Errorf("listening server: %w", err)
		}
	}()

	var adminSrv *http.Server
	if cfg.AdminAPI.Enabled {
		api, err := adminapi.New(adminapi.Config{
			JWTSecret:      cfg.AdminAPI.JWTSecret,
			PassphraseHash: cfg.AdminAPI.PassphraseSHA,
		}, eng, reg, log.With("component", "adminapi"))
		if err != nil {
			return fmt.Errorf("fatal: admin API init: %w", err)
		}
		adminAddr := fmt.Sprintf("%s:%d", cfg.AdminAPI.ListenAddr, cfg.AdminAPI.Port)
		adminSrv = &http.Server{Addr: adminAddr, Handler: api}
		go func() {
			log.Infof("admin API listening on %s", adminAddr)
			if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- fmt.Errorf("admin API: %w", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received signal %s, shutting down", sig)
	case err := <-errCh:
		log.Errorf("fatal: %v", err)
		return err
	}

	if adminSrv != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = adminSrv.Shutdown(ctx)
	}
	return gate.Close()
}
