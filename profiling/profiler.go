// Package profiling captures CPU and heap profiles around workload
// runs and exposes the pprof handlers for live inspection.
package profiling

import (
	"fmt"
	"net/http"
	"net/http/pprof"
	"os"
	"runtime"
	rpprof "runtime/pprof"

	"github.com/sirupsen/logrus"

	"github.com/Bala432/order-matching-engine/logging"
)

// ProfilerConfig names the profile output files. An empty path leaves
// that profile disabled.
type ProfilerConfig struct {
	CPUProfilePath string
	MemProfilePath string
}

// DefaultProfilerConfig returns a config with all captures disabled.
func DefaultProfilerConfig() *ProfilerConfig {
	return &ProfilerConfig{}
}

// Profiler manages profile capture and the optional pprof HTTP server.
type Profiler struct {
	config  *ProfilerConfig
	server  *http.Server
	cpuFile *os.File
}

// NewProfiler creates a profiler; a nil config disables all captures.
func NewProfiler(config *ProfilerConfig) *Profiler {
	if config == nil {
		config = DefaultProfilerConfig()
	}
	return &Profiler{config: config}
}

// Start begins CPU profiling when a CPU profile path is configured.
func (p *Profiler) Start() error {
	if p.config.CPUProfilePath == "" {
		return nil
	}

	f, err := os.Create(p.config.CPUProfilePath)
	if err != nil {
		return fmt.Errorf("failed to create cpu profile %s: %w", p.config.CPUProfilePath, err)
	}
	if err := rpprof.StartCPUProfile(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to start cpu profile: %w", err)
	}
	p.cpuFile = f

	logging.GetLogger().WithFields(logrus.Fields{
		"event":       logging.EventProfilingStarted,
		"cpu_profile": p.config.CPUProfilePath,
	}).Info("cpu profiling started")
	return nil
}

// Stop ends CPU profiling and writes the heap profile when configured.
// Safe to call when Start did nothing.
func (p *Profiler) Stop() {
	if p.cpuFile != nil {
		rpprof.StopCPUProfile()
		if err := p.cpuFile.Close(); err != nil {
			logging.LogArtifactWriteFailed(p.config.CPUProfilePath, err)
		}
		p.cpuFile = nil

		logging.GetLogger().WithFields(logrus.Fields{
			"event":       logging.EventProfilingStopped,
			"cpu_profile": p.config.CPUProfilePath,
		}).Info("cpu profiling stopped")
	}

	if p.config.MemProfilePath != "" {
		if err := p.WriteHeapProfile(p.config.MemProfilePath); err != nil {
			logging.LogArtifactWriteFailed(p.config.MemProfilePath, err)
		}
	}
}

// WriteHeapProfile forces a collection and writes the heap profile to
// path.
func (p *Profiler) WriteHeapProfile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create heap profile %s: %w", path, err)
	}
	defer f.Close()

	runtime.GC()
	if err := rpprof.WriteHeapProfile(f); err != nil {
		return fmt.Errorf("failed to write heap profile %s: %w", path, err)
	}

	logging.GetLogger().WithField("mem_profile", path).Info("heap profile written")
	return nil
}

// RegisterPProf mounts the pprof handlers on mux.
//
// Profiles are then served at:
//
//	/debug/pprof/
//	/debug/pprof/heap
//	/debug/pprof/goroutine
//	/debug/pprof/block
//	/debug/pprof/mutex
func (p *Profiler) RegisterPProf(mux *http.ServeMux) {
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)

	mux.Handle("/debug/pprof/heap", pprof.Handler("heap"))
	mux.Handle("/debug/pprof/goroutine", pprof.Handler("goroutine"))
	mux.Handle("/debug/pprof/threadcreate", pprof.Handler("threadcreate"))
	mux.Handle("/debug/pprof/block", pprof.Handler("block"))
	mux.Handle("/debug/pprof/mutex", pprof.Handler("mutex"))
}

// StartPProfServer serves the pprof handlers on their own port.
func (p *Profiler) StartPProfServer(port int) error {
	mux := http.NewServeMux()
	p.RegisterPProf(mux)

	p.server = &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	logging.GetLogger().WithField("port", port).Info("pprof server started")

	go func() {
		if err := p.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.GetLogger().WithError(err).Error("pprof server error")
		}
	}()

	return nil
}

// StopPProfServer stops the pprof server if one was started.
func (p *Profiler) StopPProfServer() error {
	if p.server != nil {
		return p.server.Close()
	}
	return nil
}

// PrintMemStats logs current memory statistics.
func (p *Profiler) PrintMemStats() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	logging.GetLogger().WithFields(logrus.Fields{
		"alloc_mb":       m.Alloc / 1024 / 1024,
		"total_alloc_mb": m.TotalAlloc / 1024 / 1024,
		"sys_mb":         m.Sys / 1024 / 1024,
		"num_gc":         m.NumGC,
		"goroutines":     runtime.NumGoroutine(),
	}).Info("memory statistics")
}
