package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Bala432/order-matching-engine/bench"
	"github.com/Bala432/order-matching-engine/logging"
	"github.com/Bala432/order-matching-engine/profiling"
)

func main() {
	mode := flag.String("mode", "correctness", "run mode: correctness or perf")
	events := flag.Bool("events", false, "write and compare event logs (correctness mode only)")
	out := flag.String("out", "bench", "artifact root directory")
	listen := flag.String("listen", "", "serve /metrics and /debug/pprof on this address, e.g. :9100")
	cpuProfile := flag.String("cpuprofile", "", "write cpu profile to file")
	memProfile := flag.String("memprofile", "", "write heap profile to file")
	flag.Parse()

	logging.InitLogger()

	runMode, err := bench.ParseRunMode(*mode)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg := &bench.BenchConfig{
		Mode:         runMode,
		EnableEvents: *events,
		Paths:        bench.BenchPaths{Root: *out},
	}

	profiler := profiling.NewProfiler(&profiling.ProfilerConfig{
		CPUProfilePath: *cpuProfile,
		MemProfilePath: *memProfile,
	})
	if err := profiler.Start(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *listen != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		profiler.RegisterPProf(mux)
		go func() {
			if err := http.ListenAndServe(*listen, mux); err != nil {
				logging.GetLogger().WithError(err).Error("debug server error")
			}
		}()
	}

	runner := bench.NewRunner(cfg)
	results, err := runner.Run()
	profiler.Stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	failed := 0
	for _, res := range results {
		status := "REPLAY OK"
		if !res.Passed() {
			status = "REPLAY MISMATCH"
			failed++
		}
		fmt.Printf("%-16s %s (seed %d, book size %d, replayed %d ops)\n",
			res.Scenario, status, res.Seed, res.FinalBookSize, res.ReplayStats.Applied)
		if !res.Passed() {
			fmt.Print(res.Diff)
		}
	}

	if runMode == bench.ModePerformance {
		profiler.PrintMemStats()
	}
	fmt.Printf("results: %s\n", cfg.Paths.ResultsFile())

	if failed > 0 {
		os.Exit(1)
	}
}
