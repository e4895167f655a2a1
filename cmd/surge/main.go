package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
	"github.com/studiowebux/surge/internal/cli"
	"github.com/studiowebux/surge/internal/loadgen"
	"github.com/studiowebux/surge/internal/version"
)

var (
	buildVersion = "0.1.0"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "surge [url]",
	Short: "surge - HTTP load testing tool",
	Long: `surge sends a fixed number of GET requests to a URL from a pool of
concurrent workers and reports latency statistics, status code counts,
and error categories.

Failed requests are retried up to the retry limit; a request counts as
successful only when it eventually gets a 200 response.

Examples:
  surge https://example.com                     # 100k requests, 100 workers
  surge https://example.com -n 1000 -c 50       # Smaller run
  surge run --config load.yaml                  # Settings from a file
  surge run https://example.com -o out.csv      # Save raw results as CSV
  surge runs                                    # List past runs
  surge show 3                                  # Inspect a past run`,
	Version: buildVersion,
	Args:    cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadTest(cmd, args)
	},
}

var runCmd = &cobra.Command{
	Use:   "run [url]",
	Short: "Execute a load test",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runLoadTest(cmd, args)
	},
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List past runs",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cli.ListRuns(flagLimit)
	},
}

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show the summary of a past run",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		return cli.ShowRun(id, flagBins)
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a past run from history",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run id %q", args[0])
		}
		return cli.DeleteRun(id)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version and optionally check for updates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("surge %s\n", buildVersion)
		if !flagCheckUpdate {
			return nil
		}
		available, latest, url, err := version.CheckForUpdate(buildVersion)
		if err != nil {
			return fmt.Errorf("update check failed: %w", err)
		}
		if available {
			fmt.Printf("A newer version is available: %s\n%s\n", latest, url)
		} else {
			fmt.Println("You are on the latest version.")
		}
		return nil
	},
}

// Flags for root/run command
var (
	flagRequests    int
	flagConcurrency int
	flagRetries     int
	flagTimeout     time.Duration
	flagConfigFile  string
	flagCSV         string
	flagQuiet       bool
	flagNoHistory   bool
	flagBins        int
)

// Flags for runs/version
var (
	flagLimit       int
	flagCheckUpdate bool
)

func init() {
	for _, cmd := range []*cobra.Command{rootCmd, runCmd} {
		cmd.Flags().IntVarP(&flagRequests, "requests", "n", loadgen.DefaultTotalRequests, "Total number of requests to send")
		cmd.Flags().IntVarP(&flagConcurrency, "concurrency", "c", loadgen.DefaultConcurrency, "Number of concurrent workers")
		cmd.Flags().IntVarP(&flagRetries, "retries", "r", loadgen.DefaultMaxRetries, "Attempts per request before giving up")
		cmd.Flags().DurationVarP(&flagTimeout, "timeout", "t", loadgen.DefaultTimeout, "Per-attempt timeout")
		cmd.Flags().StringVar(&flagConfigFile, "config", "", "Load settings from a YAML/JSON/JSONC file")
		cmd.Flags().StringVarP(&flagCSV, "csv", "o", "", "Write raw results to a CSV file")
		cmd.Flags().BoolVarP(&flagQuiet, "quiet", "q", false, "Disable the live view, print plain progress to stderr")
		cmd.Flags().BoolVar(&flagNoHistory, "no-history", false, "Do not record this run in the history database")
		cmd.Flags().IntVar(&flagBins, "bins", 0, "Histogram bucket count (default 50)")
	}

	runsCmd.Flags().IntVarP(&flagLimit, "limit", "l", 20, "Maximum number of runs to list (0 for all)")
	showCmd.Flags().IntVar(&flagBins, "bins", 0, "Histogram bucket count (default 50)")
	versionCmd.Flags().BoolVar(&flagCheckUpdate, "check", false, "Check GitHub for a newer release")

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(versionCmd)
}

// runLoadTest assembles the configuration from the config file and flags,
// then executes the test. Explicit flags always win over file values.
func runLoadTest(cmd *cobra.Command, args []string) error {
	cfg := loadgen.Config{
		TotalRequests: loadgen.DefaultTotalRequests,
		Concurrency:   loadgen.DefaultConcurrency,
		MaxRetries:    loadgen.DefaultMaxRetries,
		Timeout:       loadgen.DefaultTimeout,
	}

	if flagConfigFile != "" {
		fileCfg, err := cli.LoadConfigFile(flagConfigFile)
		if err != nil {
			return err
		}
		if fileCfg.Target != "" {
			cfg.Target = fileCfg.Target
		}
		if fileCfg.TotalRequests != 0 {
			cfg.TotalRequests = fileCfg.TotalRequests
		}
		if fileCfg.Concurrency != 0 {
			cfg.Concurrency = fileCfg.Concurrency
		}
		if fileCfg.MaxRetries != 0 {
			cfg.MaxRetries = fileCfg.MaxRetries
		}
		if fileCfg.Timeout != 0 {
			cfg.Timeout = fileCfg.Timeout
		}
	}

	if len(args) > 0 {
		cfg.Target = args[0]
	}
	if cmd.Flags().Changed("requests") {
		cfg.TotalRequests = flagRequests
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency = flagConcurrency
	}
	if cmd.Flags().Changed("retries") {
		cfg.MaxRetries = flagRetries
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Timeout = flagTimeout
	}

	if cfg.Target == "" {
		return fmt.Errorf("no target URL (pass it as an argument or set it in the config file)")
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	return cli.Run(cli.RunOptions{
		Config:    cfg,
		Quiet:     flagQuiet,
		CSVPath:   flagCSV,
		NoHistory: flagNoHistory,
		Bins:      flagBins,
	})
}
