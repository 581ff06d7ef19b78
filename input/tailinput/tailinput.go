// Package tailinput follows log files and feeds each line into the delivery sink
package tailinput

import (
	"io"
	"sync"

	"github.com/gobwas/glob"
	"github.com/hpcloud/tail"
	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/lineforwarder/defs"
	"golang.org/x/exp/slices"
)

// LineSink receives the lines read from followed files
//
// Satisfied by forwarder.Sink; Enqueue must be non-blocking and safe for
// concurrent use, as one goroutine follows each file.
type LineSink interface {
	Enqueue(line string)
}

// Input follows a fixed set of files, one goroutine per file
type Input struct {
	logger      logger.Logger
	paths       []string
	seekToEnd   bool
	sink        LineSink
	readLines   promext.RWCounter
	stopRequest channels.Awaitable
	stopped     *channels.SignalAwaitable
}

// NewInput creates an Input; files matching an exclusion pattern are dropped from
// the list with a log line, not an error.
func NewInput(parentLogger logger.Logger, cfg Config, sink LineSink, metricCreator promreg.MetricCreator,
	stopRequest channels.Awaitable) (*Input, error) {

	ilogger := parentLogger.WithField(defs.LabelComponent, "TailInput")
	excludes, cerr := cfg.Validate()
	if cerr != nil {
		return nil, cerr
	}

	inputMetricCreator := metricCreator.AddOrGetPrefix("input_", []string{"input"}, []string{"tail"})

	paths := make([]string, 0, len(cfg.Paths))
	for _, path := range cfg.Paths {
		if slices.Contains(paths, path) {
			continue
		}
		if matchAny(excludes, path) {
			ilogger.Infof("skip excluded file %s", path)
			continue
		}
		paths = append(paths, path)
	}

	return &Input{
		logger:      ilogger,
		paths:       paths,
		seekToEnd:   !cfg.FromBeginning,
		sink:        sink,
		readLines:   inputMetricCreator.AddOrGetCounter("read_lines_total", "Numbers of lines read from followed files", nil, nil),
		stopRequest: stopRequest,
		stopped:     channels.NewSignalAwaitable(),
	}, nil
}

// Launch starts following all files in background
func (input *Input) Launch() {
	go input.run()
}

// Stopped returns an Awaitable which is signaled when all followers have stopped
func (input *Input) Stopped() channels.Awaitable {
	return input.stopped
}

func (input *Input) run() {
	defer input.stopped.Signal()
	input.logger.Infof("started with %d files", len(input.paths))
	followers := &sync.WaitGroup{}
	for _, path := range input.paths {
		followers.Add(1)
		go input.followFile(path, followers)
	}
	followers.Wait()
	input.logger.Info("stopped")
}

func (input *Input) followFile(path string, followers *sync.WaitGroup) {
	defer followers.Done()
	flogger := input.logger.WithField(defs.LabelName, path)

	tailConfig := tail.Config{
		Follow: true,
		ReOpen: true,
		Logger: tail.DiscardingLogger,
	}
	if input.seekToEnd {
		tailConfig.Location = &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd}
	}

	follower, terr := tail.TailFile(path, tailConfig)
	if terr != nil {
		flogger.Errorf("failed to follow: %s", terr.Error())
		return
	}

	for {
		select {
		case line, ok := <-follower.Lines:
			if !ok {
				flogger.Warnf("follower closed")
				return
			}
			if line.Err != nil {
				flogger.Warnf("read error: %s", line.Err.Error())
				continue
			}
			input.sink.Enqueue(line.Text)
			input.readLines.Inc()
		case <-input.stopRequest.Channel():
			if err := follower.Stop(); err != nil {
				flogger.Warnf("error stopping follower: %s", err.Error())
			}
			return
		}
	}
}

func matchAny(patterns []glob.Glob, path string) bool {
	for _, pattern := range patterns {
		if pattern.Match(path) {
			return true
		}
	}
	return false
}
