package cmd

import (
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"

	"github.com/relex/gotils/logger"
)

type rootCommandState struct {
	CPUProfile string `name:"cpuprofile" help:"Write CPU profile to file."`
	MemProfile string `name:"memprofile" help:"Write memory profile to file."`
	Trace      string `help:"Write trace to file."`

	stopProfilers []func()
}

var rootCmd rootCommandState

func (cmd *rootCommandState) preRun() {
	if cmd.CPUProfile != "" {
		f := cmd.createProfileOutput("CPU profile", cmd.CPUProfile)
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Fatalf("failed to start CPU profiling: %s", err.Error())
		}
		cmd.stopProfilers = append(cmd.stopProfilers, func() {
			pprof.StopCPUProfile()
			f.Close()
		})
	}

	if cmd.MemProfile != "" {
		f := cmd.createProfileOutput("memory profile", cmd.MemProfile)
		// heap profile is collected at exit, nothing to start here
		cmd.stopProfilers = append(cmd.stopProfilers, func() {
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				logger.Errorf("failed to write memory profile: %s", err.Error())
			}
			f.Close()
		})
	}

	if cmd.Trace != "" {
		f := cmd.createProfileOutput("trace", cmd.Trace)
		if err := trace.Start(f); err != nil {
			logger.Fatalf("failed to start tracing: %s", err.Error())
		}
		cmd.stopProfilers = append(cmd.stopProfilers, func() {
			trace.Stop()
			f.Close()
		})
	}
}

func (cmd *rootCommandState) postRun() {
	for _, stop := range cmd.stopProfilers {
		stop()
	}
}

func (cmd *rootCommandState) createProfileOutput(kind string, path string) *os.File {
	f, err := os.Create(path)
	if err != nil {
		logger.Fatalf("failed to create %s %s: %s", kind, path, err.Error())
	}
	logger.Infof("writing %s to %s", kind, path)
	return f
}
