package run

import (
	"fmt"

	"github.com/relex/gotils/channels"
	"github.com/relex/gotils/logger"
	"github.com/relex/gotils/promexporter/promreg"
	"github.com/relex/lineforwarder/defs"
	"github.com/relex/lineforwarder/forwarder"
	"github.com/relex/lineforwarder/input/tailinput"
)

// Loader loads configuration from file and prepares the components to be launched
//
// Loader takes care of everything derived from the config file but does not trigger
// anything automatically; sink and inputs are launched separately, see Run()
type Loader struct {
	filepath string // config file path

	Config
	MetricCreator promreg.MetricCreator
}

// NewLoaderFromConfigFile parses and verifies the given config file
func NewLoaderFromConfigFile(filepath string, metricPrefix string) (*Loader, error) {
	config, configErr := ParseConfigFile(filepath)
	if configErr != nil {
		return nil, configErr
	}

	return &Loader{
		filepath:      filepath,
		Config:        config,
		MetricCreator: promreg.NewMetricFactory(metricPrefix, nil, nil),
	}, nil
}

// LaunchSink starts the forwarding sink in background and returns it
func (loader *Loader) LaunchSink(parentLogger logger.Logger) (*forwarder.Sink, error) {
	return forwarder.NewSink(parentLogger, loader.Forwarder, loader.MetricCreator, nil)
}

// LaunchInputs starts all inputs in background and returns a shutdown function
//
// The returned function only shuts down the inputs, not the sink
func (loader *Loader) LaunchInputs(sink *forwarder.Sink) (func(), error) {
	stopRequest := channels.NewSignalAwaitable()
	inputStoppedSignals := make([]channels.Awaitable, 0, len(loader.Inputs))

	for index, inputConfig := range loader.Inputs {
		input, ierr := tailinput.NewInput(logger.Root(), inputConfig, sink, loader.MetricCreator, stopRequest)
		if ierr != nil {
			return nil, fmt.Errorf("inputs[%d]: %w", index, ierr)
		}
		input.Launch()
		inputStoppedSignals = append(inputStoppedSignals, input.Stopped())
	}

	return func() {
		stopRequest.Signal()
		if !channels.AllAwaitables(inputStoppedSignals...).Wait(defs.InputStopTimeout) {
			logger.Errorf("timeout waiting for inputs to stop")
		}
	}, nil
}
