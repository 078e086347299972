package models

import "go.uber.org/atomic"

// Metrics 定義指標統計
type Metrics struct {
	LocalHits        atomic.Int64
	CacheHits        atomic.Int64
	StaleServed      atomic.Int64
	BrokerServed     atomic.Int64
	Unavailable      atomic.Int64
	SecondaryErrors  atomic.Int64
	PrimaryErrors    atomic.Int64
	WriteBackOK      atomic.Int64
	WriteBackFailed  atomic.Int64
	WriteBackDropped atomic.Int64
}

// MetricsSnapshot is a point-in-time copy of Metrics.
type MetricsSnapshot struct {
	LocalHits        int64 `json:"localHits"`
	CacheHits        int64 `json:"cacheHits"`
	StaleServed      int64 `json:"staleServed"`
	BrokerServed     int64 `json:"brokerServed"`
	Unavailable      int64 `json:"unavailable"`
	SecondaryErrors  int64 `json:"secondaryErrors"`
	PrimaryErrors    int64 `json:"primaryErrors"`
	WriteBackOK      int64 `json:"writeBackOk"`
	WriteBackFailed  int64 `json:"writeBackFailed"`
	WriteBackDropped int64 `json:"writeBackDropped"`
}

// NewMetrics 創建新的 Metrics 實例
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Snapshot reads every counter.
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		LocalHits:        m.LocalHits.Load(),
		CacheHits:        m.CacheHits.Load(),
		StaleServed:      m.StaleServed.Load(),
		BrokerServed:     m.BrokerServed.Load(),
		Unavailable:      m.Unavailable.Load(),
		SecondaryErrors:  m.SecondaryErrors.Load(),
		PrimaryErrors:    m.PrimaryErrors.Load(),
		WriteBackOK:      m.WriteBackOK.Load(),
		WriteBackFailed:  m.WriteBackFailed.Load(),
		WriteBackDropped: m.WriteBackDropped.Load(),
	}
}
