package main

import (
	"math/rand"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/relex/gotils/logger"
	"github.com/relex/lineforwarder/cmd"
)

var version string

func main() {
	rand.Seed(time.Now().UnixNano()) // seed rand properly for all rand.* calls, incl. backoff jitter

	logger.Infof("version: %s", version)
	logger.Infof("GOMAXPROCS: %d", runtime.GOMAXPROCS(0))

	registerInfoMetric()

	cmd.Execute()
}

func registerInfoMetric() {
	opts := prometheus.GaugeOpts{}
	opts.Name = "lineforwarder_info"
	opts.Help = "line-forwarder application information"
	gauge := prometheus.NewGaugeVec(opts, []string{"version"})
	gauge.WithLabelValues(version).Set(1)
	prometheus.MustRegister(gauge)
}
