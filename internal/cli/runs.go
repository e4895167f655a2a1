package cli

import (
	"fmt"
	"time"

	"github.com/studiowebux/surge/internal/config"
	"github.com/studiowebux/surge/internal/history"
	"github.com/studiowebux/surge/internal/loadgen"
	"github.com/studiowebux/surge/internal/report"
)

func openManager() (*history.Manager, error) {
	if err := config.Initialize(); err != nil {
		return nil, err
	}
	return history.NewManager(config.DatabasePath)
}

// ListRuns prints the most recent runs, newest first.
func ListRuns(limit int) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	runs, err := mgr.ListRuns(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No runs recorded yet.")
		return nil
	}

	fmt.Printf("%-5s %-10s %-17s %-9s %-9s %-9s %-10s %s\n",
		"ID", "STATUS", "STARTED", "REQUESTS", "SUCCESS", "FAILED", "P95", "TARGET")
	for _, r := range runs {
		fmt.Printf("%-5d %-10s %-17s %-9d %-9d %-9d %-10s %s\n",
			r.ID, r.Status, r.StartedAt.Format("2006-01-02 15:04"),
			r.TotalSent, r.SuccessCount, r.FailureCount,
			report.FormatDuration(r.P95Latency), r.Target)
	}
	return nil
}

// ShowRun prints the stored summary and latency distribution for one run.
func ShowRun(id int64, bins int) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	run, err := mgr.GetRun(id)
	if err != nil {
		return fmt.Errorf("run #%d not found: %w", id, err)
	}

	samples, err := mgr.GetSamples(id)
	if err != nil {
		return err
	}

	fmt.Printf("Run #%d  %s\n", run.ID, run.Status)
	fmt.Printf("Started: %s\n", run.StartedAt.Format(time.RFC3339))
	if run.CompletedAt != nil {
		fmt.Printf("Completed: %s\n", run.CompletedAt.Format(time.RFC3339))
	}
	fmt.Printf("Settings: %d requests, %d workers, %d retries, %s timeout\n\n",
		run.TotalRequests, run.Concurrency, run.MaxRetries, run.Timeout)

	fmt.Print(report.Render(run.Target, summaryFromRun(run, samples)))

	if len(samples) > 0 {
		durations := make([]time.Duration, len(samples))
		for i, s := range samples {
			durations[i] = s.Duration
		}
		fmt.Println()
		fmt.Print(report.Histogram(durations, bins))
	}
	return nil
}

// DeleteRun removes a run and its samples from history.
func DeleteRun(id int64) error {
	mgr, err := openManager()
	if err != nil {
		return err
	}
	defer mgr.Close()

	if _, err := mgr.GetRun(id); err != nil {
		return fmt.Errorf("run #%d not found: %w", id, err)
	}
	if err := mgr.DeleteRun(id); err != nil {
		return err
	}
	fmt.Printf("Run #%d deleted\n", id)
	return nil
}

// summaryFromRun rebuilds a report summary from the stored aggregates, with
// the status code and error histograms recomputed from raw samples.
func summaryFromRun(run *history.Run, samples []*history.Sample) *loadgen.Summary {
	s := &loadgen.Summary{
		TotalSent:     run.TotalSent,
		SuccessCount:  run.SuccessCount,
		FailureCount:  run.FailureCount,
		WallClock:     run.WallClock,
		Throughput:    run.Throughput,
		MeanLatency:   run.MeanLatency,
		MinLatency:    run.MinLatency,
		MaxLatency:    run.MaxLatency,
		StdDevLatency: run.StdDevLatency,
		P50Latency:    run.P50Latency,
		P95Latency:    run.P95Latency,
		P99Latency:    run.P99Latency,
		StatusCodes:   make(map[int]int),
		ErrorKinds:    make(map[loadgen.ErrorKind]int),
	}
	for _, sample := range samples {
		if sample.ErrorKind != "" {
			s.ErrorKinds[loadgen.ErrorKind(sample.ErrorKind)]++
		} else {
			s.StatusCodes[sample.StatusCode]++
		}
	}
	return s
}
