package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/synod-io/synod/internal/audit"
	"github.com/synod-io/synod/internal/collector"
	"github.com/synod-io/synod/internal/config"
	"github.com/synod-io/synod/internal/gateway"
	"github.com/synod-io/synod/internal/logging"
	"github.com/synod-io/synod/internal/metrics"
	"github.com/synod-io/synod/internal/orchestrator"
	"github.com/synod-io/synod/internal/report"
	"github.com/synod-io/synod/internal/tools"
)

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose [query]",
	Short: "Run one fault diagnosis against the cluster",
	Long: `Collect logs and metrics from the Hadoop cluster, classify the fault,
fan the evidence out to domain expert agents and print the merged
diagnosis report.

Examples:
  # Diagnose with a user report
  synod diagnose "HDFS writes are failing since this morning"

  # Diagnose from cluster signals alone
  synod diagnose

  # Replay a scripted scenario instead of calling a real model
  synod diagnose --config mock.yaml "datanode seems down"
`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDiagnose,
}

var (
	diagnoseConfigPath  string
	diagnoseJSON        bool
	diagnoseMetricsAddr string
	diagnoseTimeout     time.Duration
)

func init() {
	rootCmd.AddCommand(diagnoseCmd)

	diagnoseCmd.Flags().StringVar(&diagnoseConfigPath, "config", "",
		"Path to the YAML configuration file. If empty, built-in defaults are used.")
	diagnoseCmd.Flags().BoolVar(&diagnoseJSON, "json", false,
		"Print the structured report as JSON instead of formatted text")
	diagnoseCmd.Flags().StringVar(&diagnoseMetricsAddr, "metrics-addr", "",
		"Address to expose Prometheus metrics on while the diagnosis runs (e.g. :9090). Empty disables the endpoint.")
	diagnoseCmd.Flags().DurationVar(&diagnoseTimeout, "timeout", 15*time.Minute,
		"Overall diagnosis deadline")
}

func runDiagnose(cmd *cobra.Command, args []string) error {
	if err := setupLog(logLevelFlags); err != nil {
		return err
	}
	logger := logging.GetLogger("main")

	cfg := config.Default()
	if diagnoseConfigPath != "" {
		loaded, err := config.LoadFile(diagnoseConfigPath)
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	} else if err := cfg.Validate(); err != nil {
		return err
	}

	userQuery := ""
	if len(args) > 0 {
		userQuery = strings.TrimSpace(args[0])
	}

	sessionID := uuid.NewString()

	var auditLog *audit.Logger
	if cfg.AuditLogPath != "" {
		var err error
		auditLog, err = audit.NewLogger(cfg.AuditLogPath, sessionID)
		if err != nil {
			return fmt.Errorf("opening audit log: %w", err)
		}
		defer auditLog.Close()
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry, "hadoop")
	if diagnoseMetricsAddr != "" {
		go serveMetrics(diagnoseMetricsAddr, registry, logger)
	}

	gw, err := buildGateway(cfg.Gateway)
	if err != nil {
		return err
	}
	gw = gateway.NewInstrumented(gw, m)

	logs := collector.NewDockerLogSource(cfg.Collector.LogNodes, cfg.Collector.LogTailLines)
	jmx := collector.NewJMXSource(cfg.Collector.JMXEndpoints, cfg.Collector.HTTPTimeout)
	var archiver *collector.Archiver
	if cfg.Collector.ArchiveDir != "" {
		archiver = collector.NewArchiver(cfg.Collector.ArchiveDir)
	}

	toolRegistry := tools.NewRegistry(tools.Dependencies{
		Logs:            logs,
		Metrics:         jmx,
		Runner:          collector.NewDockerRunner(),
		Instrumentation: m,
	})

	orch := orchestrator.New(orchestrator.Options{
		Collector: collector.New(logs, jmx, archiver),
		Gateway:   gw,
		Registry:  toolRegistry,
		Agent:     cfg.Agent,
		Metrics:   m,
		Audit:     auditLog,
		SessionID: sessionID,
	})

	ctx, cancel := context.WithTimeout(cmd.Context(), diagnoseTimeout)
	defer cancel()
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoWithFields("starting diagnosis",
		logging.Field("session_id", sessionID),
		logging.Field("gateway", gw.Name()))

	result := orch.Diagnose(ctx, userQuery)
	if archiver != nil {
		archiver.Flush()
	}

	if diagnoseJSON {
		out, err := result.ToJSON()
		if err != nil {
			return fmt.Errorf("rendering report: %w", err)
		}
		fmt.Println(out)
	} else {
		fmt.Println(report.Format(result))
	}

	if result.Error != "" {
		return fmt.Errorf("diagnosis failed: %s", result.Error)
	}
	return nil
}

// buildGateway selects the gateway implementation from configuration.
func buildGateway(cfg config.GatewayConfig) (gateway.Gateway, error) {
	switch cfg.Provider {
	case "anthropic":
		return gateway.NewAnthropic(cfg)
	case "mock":
		return gateway.NewMock(cfg.ScenarioPath)
	default:
		return nil, fmt.Errorf("unknown gateway provider %q", cfg.Provider)
	}
}

func serveMetrics(addr string, registry *prometheus.Registry, logger *logging.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Warn("metrics endpoint failed: %v", err)
	}
}
