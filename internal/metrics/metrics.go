package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const Namespace = "broker"

const (
	NameReads       = "reads_total"
	NameWriteBacks  = "write_backs_total"
	NameStoreErrors = "store_errors_total"
	NameQueueDepth  = "write_back_queue_depth"
	NameRecompute   = "recompute_seconds"

	LabelKind      = "kind"
	LabelSource    = "source"
	LabelOutcome   = "outcome"
	LabelStore     = "store"
	LabelOperation = "operation"
)

const (
	StorePrimary   = "primary"
	StoreSecondary = "secondary"

	OutcomeOK      = "ok"
	OutcomeFailed  = "failed"
	OutcomeDropped = "dropped"
)

var Reads = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameReads,
		Help:      "Reads served, by kind and source",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelSource},
)

var WriteBacks = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameWriteBacks,
		Help:      "Write-back jobs, by kind and outcome",
		Namespace: Namespace,
	},
	[]string{LabelKind, LabelOutcome},
)

var StoreErrors = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name:      NameStoreErrors,
		Help:      "Store operation failures",
		Namespace: Namespace,
	},
	[]string{LabelStore, LabelOperation},
)

var QueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Name:      NameQueueDepth,
		Help:      "Write-back jobs waiting",
		Namespace: Namespace,
	},
)

var Recompute = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:      NameRecompute,
		Help:      "Time spent reading the primary store and deriving records",
		Namespace: Namespace,
		Buckets:   prometheus.DefBuckets,
	},
	[]string{LabelKind},
)
