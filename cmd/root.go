package cmd

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/urllc-sim/urllc-sim/sim"
	"github.com/urllc-sim/urllc-sim/sim/eventlog"
)

var (
	configPath  string  // Path to the YAML simulation config
	policyName  string  // Scheduling policy override
	seeds       []int64 // Random seed override
	duration    float64 // Simulation duration override (seconds)
	logLevel    string  // Log verbosity level
	summaryPath string  // TSV summary output path
	eventLogDir string  // Directory for per-seed CSV event logs ("" disables)
	metricsAddr string  // Prometheus listen address ("" disables)
)

// rootCmd is the base command for the CLI
var rootCmd = &cobra.Command{
	Use:   "urllc-sim",
	Short: "Discrete-event simulator for URLLC resource scheduling",
}

// runCmd executes the simulation, once per configured seed.
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the URLLC scheduling simulation",
	Run: func(cmd *cobra.Command, args []string) {
		// Optional .env overrides for paths and addresses; a missing file is fine.
		if err := godotenv.Load(); err == nil {
			applyEnvOverrides()
		}

		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)

		cfg, err := loadConfig()
		if err != nil {
			logrus.Fatalf("Configuration error: %v", err)
		}

		var collector *sim.Collector
		if metricsAddr != "" {
			collector, err = sim.NewCollector(nil)
			if err != nil {
				logrus.Fatalf("Metrics setup failed: %v", err)
			}
			go func() {
				http.Handle("/metrics", promhttp.Handler())
				if err := http.ListenAndServe(metricsAddr, nil); err != nil {
					logrus.Errorf("metrics endpoint: %v", err)
				}
			}()
			logrus.Infof("Prometheus metrics on %s/metrics", metricsAddr)
		}

		logrus.Infof("Starting simulation: policy=%s, blocks=%d, duration=%gs, seeds=%v",
			cfg.SchedulingPolicy, cfg.NumResourceBlocks, cfg.SimDuration, cfg.RandomSeeds)

		results := make([]*sim.RunResult, 0, len(cfg.RandomSeeds))
		for _, seed := range cfg.RandomSeeds {
			logrus.Infof("Running simulation with seed %d", seed)

			sink, err := openSink(seed)
			if err != nil {
				logrus.Fatalf("Event log setup failed: %v", err)
			}
			result, runErr := sim.Run(cfg, seed, sink, collector)
			if cerr := sink.Close(); cerr != nil {
				logrus.Fatalf("Closing event log: %v", cerr)
			}
			if runErr != nil {
				logrus.Fatalf("Simulation failed for seed %d: %v", seed, runErr)
			}
			result.Print()
			results = append(results, result)
		}

		if err := writeSummary(summaryPath, results); err != nil {
			logrus.Fatalf("Writing summary: %v", err)
		}
		logrus.Infof("All runs complete. Summary written to %s", summaryPath)
	},
}

// loadConfig resolves the effective configuration: file if given, defaults
// otherwise, CLI overrides on top.
func loadConfig() (*sim.SimConfig, error) {
	var cfg *sim.SimConfig
	if configPath != "" {
		loaded, err := sim.LoadConfig(configPath)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = sim.DefaultConfig()
	}
	if policyName != "" {
		cfg.SchedulingPolicy = policyName
	}
	if len(seeds) > 0 {
		cfg.RandomSeeds = seeds
	}
	if duration > 0 {
		cfg.SimDuration = duration
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnvOverrides() {
	if v := os.Getenv("URLLC_SIM_CONFIG"); v != "" && configPath == "" {
		configPath = v
	}
	if v := os.Getenv("URLLC_SIM_LOG_LEVEL"); v != "" {
		logLevel = v
	}
	if v := os.Getenv("URLLC_SIM_METRICS_ADDR"); v != "" && metricsAddr == "" {
		metricsAddr = v
	}
}

// openSink returns the per-seed CSV event log, or a NopSink when event
// logging is disabled.
func openSink(seed int64) (eventlog.Sink, error) {
	if eventLogDir == "" {
		return eventlog.NopSink{}, nil
	}
	if err := os.MkdirAll(eventLogDir, 0o755); err != nil {
		return nil, err
	}
	path := filepath.Join(eventLogDir, fmt.Sprintf("urllc_sim_log_seed_%d.csv", seed))
	return eventlog.NewCSVSink(path)
}

// writeSummary writes one TSV row per seed.
func writeSummary(path string, results []*sim.RunResult) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintln(f, "Seed\tAvg Latency (s)\t99th Percentile Latency (s)\tTotal Throughput (bps)\tAvg Reliability\tAvg AoI (s)\tFairness Index"); err != nil {
		return err
	}
	for _, r := range results {
		if _, err := fmt.Fprintf(f, "%d\t%.6f\t%.6f\t%.2f\t%.6f\t%.6f\t%.6f\n",
			r.Seed, r.AvgLatency, r.P99Latency, r.TotalThroughput, r.Reliability, r.AvgAoI, r.FairnessIndex); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs the CLI root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// init sets up CLI flags and subcommands
func init() {
	runCmd.Flags().StringVar(&configPath, "config", "", "Path to YAML simulation config (defaults apply when empty)")
	runCmd.Flags().StringVar(&policyName, "policy", "", "Scheduling policy override (preemptive, non-preemptive, round-robin, edf, proportional-fair, hybrid-edf-preemptive, 5g-fixed)")
	runCmd.Flags().Int64SliceVar(&seeds, "seeds", nil, "Comma-separated random seeds (overrides config)")
	runCmd.Flags().Float64Var(&duration, "duration", 0, "Simulation duration in seconds (overrides config)")
	runCmd.Flags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")
	runCmd.Flags().StringVar(&summaryPath, "summary", "urllc_sim_summary.tsv", "Path for the TSV run summary")
	runCmd.Flags().StringVar(&eventLogDir, "event-log-dir", "", "Directory for per-seed CSV event logs (empty disables)")
	runCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Prometheus listen address, e.g. :9090 (empty disables)")

	rootCmd.AddCommand(runCmd)
}
