// Package cli wires the load engine to the terminal: it runs tests, renders
// reports, and manages run history.
package cli

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"

	"github.com/studiowebux/surge/internal/config"
	"github.com/studiowebux/surge/internal/export"
	"github.com/studiowebux/surge/internal/history"
	"github.com/studiowebux/surge/internal/loadgen"
	"github.com/studiowebux/surge/internal/report"
	"github.com/studiowebux/surge/internal/tui"
)

// RunOptions contains options for executing a load test from the command
// line.
type RunOptions struct {
	Config    loadgen.Config
	Quiet     bool   // plain stderr progress instead of the live view
	CSVPath   string // write raw outcomes here when non-empty
	NoHistory bool   // skip the SQLite run history
	Bins      int    // histogram bucket count, 0 for the default
}

// Run executes a load test and reports the results.
func Run(opts RunOptions) error {
	runner, err := loadgen.NewRunner(opts.Config, nil)
	if err != nil {
		return err
	}

	mgr, runRec := openHistory(opts)
	if mgr != nil {
		defer mgr.Close()
	}

	if opts.Quiet {
		runner.OnProgress(func(settled, total int) {
			fmt.Fprintf(os.Stderr, "\r%d/%d requests", settled, total)
		})

		// The live view handles its own keys; in quiet mode map SIGINT to
		// a graceful cancel so partial results still get reported.
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt)
		defer signal.Stop(sigCh)
		go func() {
			<-sigCh
			runner.Cancel()
		}()
	}

	runner.Start()

	var result *loadgen.Result
	g := new(errgroup.Group)
	if !opts.Quiet {
		prog := tea.NewProgram(tui.New(runner))
		g.Go(func() error {
			if _, err := prog.Run(); err != nil {
				runner.Cancel()
				return fmt.Errorf("progress display failed: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		result = runner.Wait()
		return nil
	})
	if err := g.Wait(); err != nil {
		return err
	}
	if opts.Quiet {
		fmt.Fprintln(os.Stderr)
	}

	fmt.Println()
	fmt.Print(report.Render(opts.Config.Target, result.Summary))
	fmt.Println()
	fmt.Print(report.Histogram(report.Durations(result.Outcomes), opts.Bins))

	if opts.CSVPath != "" {
		if err := export.WriteFile(opts.CSVPath, result.Outcomes); err != nil {
			return err
		}
		fmt.Printf("\nRaw results saved to %s\n", opts.CSVPath)
	}

	saveHistory(mgr, runRec, result)

	if result.Cancelled {
		fmt.Println("\nRun was cancelled before completion.")
	}
	return nil
}

// openHistory opens the run history store and creates the run record. A
// history failure never blocks the test; it degrades to a warning.
func openHistory(opts RunOptions) (*history.Manager, *history.Run) {
	if opts.NoHistory {
		return nil, nil
	}

	if err := config.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history disabled: %v\n", err)
		return nil, nil
	}

	mgr, err := history.NewManager(config.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: run history disabled: %v\n", err)
		return nil, nil
	}

	runRec := &history.Run{
		Target:        opts.Config.Target,
		TotalRequests: opts.Config.TotalRequests,
		Concurrency:   opts.Config.Concurrency,
		MaxRetries:    opts.Config.MaxRetries,
		Timeout:       opts.Config.Timeout,
		StartedAt:     time.Now(),
		Status:        "running",
	}
	if err := mgr.CreateRun(runRec); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to record run: %v\n", err)
		mgr.Close()
		return nil, nil
	}

	return mgr, runRec
}

func saveHistory(mgr *history.Manager, runRec *history.Run, result *loadgen.Result) {
	if mgr == nil || runRec == nil {
		return
	}

	runRec.Status = "completed"
	if result.Cancelled {
		runRec.Status = "cancelled"
	}

	if err := mgr.CompleteRun(runRec, result.Summary); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save run: %v\n", err)
		return
	}
	if err := mgr.SaveSamplesBatch(runRec.ID, result.Outcomes); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save samples: %v\n", err)
		return
	}
	fmt.Printf("\nRun #%d saved to history\n", runRec.ID)
}
