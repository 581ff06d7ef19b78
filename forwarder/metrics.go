package forwarder

import (
	"github.com/relex/gotils/promexporter/promext"
	"github.com/relex/gotils/promexporter/promreg"
)

// sinkMetrics defines metrics shared by the queue, connection manager and worker
type sinkMetrics struct {
	queuedRecords          promext.RWGauge // current occupancy of the delivery queue
	droppedRecordsTotal    promext.RWCounter
	networkErrorsTotal     promext.RWCounter
	openedConnectionsTotal promext.RWCounter
	deliveredRecordsTotal  promext.RWCounter
	deliveredBytesTotal    promext.RWCounter
}

func newSinkMetrics(metricCreator promreg.MetricCreator) *sinkMetrics {
	sinkMetricCreator := metricCreator.AddOrGetPrefix("forwarder_", []string{"protocol"}, []string{"tcpline"})

	metrics := &sinkMetrics{
		queuedRecords:          sinkMetricCreator.AddOrGetGauge("queued_records", "Numbers of records currently in the delivery queue", nil, nil),
		droppedRecordsTotal:    sinkMetricCreator.AddOrGetCounter("dropped_records_total", "Numbers of records dropped by the overflow policy", nil, nil),
		networkErrorsTotal:     sinkMetricCreator.AddOrGetCounter("network_errors_total", "Numbers of connection and write errors", nil, nil),
		openedConnectionsTotal: sinkMetricCreator.AddOrGetCounter("opened_connections_total", "Numbers of established upstream connections", nil, nil),
		deliveredRecordsTotal:  sinkMetricCreator.AddOrGetCounter("delivered_records_total", "Numbers of records written to upstream", nil, nil),
		deliveredBytesTotal:    sinkMetricCreator.AddOrGetCounter("delivered_bytes_total", "Total length in bytes of records written to upstream", nil, nil),
	}
	// reset the gauge in case metricCreator is reused across sink restarts
	metrics.queuedRecords.Set(0)

	return metrics
}

func (metrics *sinkMetrics) OnEnqueued() {
	metrics.queuedRecords.Inc()
}

func (metrics *sinkMetrics) OnRemoved() {
	metrics.queuedRecords.Dec()
}

func (metrics *sinkMetrics) IncrementDropped() {
	metrics.droppedRecordsTotal.Inc()
}

func (metrics *sinkMetrics) IncrementNetworkErrors() {
	metrics.networkErrorsTotal.Inc()
}

func (metrics *sinkMetrics) OnConnected() {
	metrics.openedConnectionsTotal.Inc()
}

func (metrics *sinkMetrics) OnDelivered(rec Record) {
	metrics.deliveredRecordsTotal.Inc()
	metrics.deliveredBytesTotal.Add(uint64(len(rec.Line)) + 1)
}
