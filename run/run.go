// Package run runs the actual log forwarding agent
package run

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/relex/gotils/logger"
	"github.com/relex/lineforwarder/defs"
	"github.com/relex/lineforwarder/util"
)

// Run runs the agent until stopped by signals
func Run(configFile string) {
	loader, loaderErr := NewLoaderFromConfigFile(configFile, "lineforwarder_")
	if loaderErr != nil {
		logger.Fatal(loaderErr)
	}

	if dump, derr := util.MarshalYaml(loader.Config); derr != nil {
		logger.Warnf("failed to dump effective config: %s", derr.Error())
	} else {
		logger.Infof("effective config:\n%s", dump)
	}

	sink, sinkErr := loader.LaunchSink(logger.Root())
	if sinkErr != nil {
		logger.Fatal(sinkErr)
	}
	shutdownInputs, inputErr := loader.LaunchInputs(sink)
	if inputErr != nil {
		logger.Fatal(inputErr)
	}

	runLogger := logger.WithField(defs.LabelComponent, "Launcher")

	// wait for shutdown signal
	{
		sigChan := make(chan os.Signal, 10)
		signal.Notify(sigChan, syscall.SIGINT)
		signal.Notify(sigChan, syscall.SIGTERM)
		s := <-sigChan
		runLogger.Infof("received %s, shutting down", s)
	}

	shutdownInputs()
	sink.Shutdown()
	runLogger.Info("clean exit")
}
