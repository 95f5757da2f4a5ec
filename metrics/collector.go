// Package metrics provides per-stream metrics collection.
//
// The Collector accumulates counters during a single stream's lifetime.
// It is a leaf package with no internal dependencies. All increment
// methods are nil-receiver safe so the pipeline can run without a
// collector attached.
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of stream metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after
// creation.
type Snapshot struct {
	// Input
	ChunksRead    int64
	BytesConsumed int64

	// Items
	ItemsEmitted   int64
	ItemsSkipped   int64
	ItemsCollected int64
	ItemsMalformed int64

	// Fatal terminations
	ParseFailures int64
	LimitBreaches int64

	// Dimensions (informational, set at construction)
	StreamID string
	Mode     string
}

// Collector accumulates metrics during a single stream's lifetime.
// Thread-safe via sync.Mutex.
type Collector struct {
	mu sync.Mutex

	chunksRead    int64
	bytesConsumed int64

	itemsEmitted   int64
	itemsSkipped   int64
	itemsCollected int64
	itemsMalformed int64

	parseFailures int64
	limitBreaches int64

	streamID string
	mode     string
}

// NewCollector creates a Collector with dimension labels.
// Mode is the input framing ("array" or "lines").
func NewCollector(streamID, mode string) *Collector {
	return &Collector{
		streamID: streamID,
		mode:     mode,
	}
}

// IncChunksRead records one chunk read from the source, with its
// encoded byte size.
func (c *Collector) IncChunksRead(bytes int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.chunksRead++
	c.bytesConsumed += bytes
	c.mu.Unlock()
}

// IncItemsEmitted records a validated item yielded to the consumer.
func (c *Collector) IncItemsEmitted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsEmitted++
	c.mu.Unlock()
}

// IncItemsSkipped records a failing item dropped under skip mode.
func (c *Collector) IncItemsSkipped() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsSkipped++
	c.mu.Unlock()
}

// IncItemsCollected records a failing item recorded under collect mode.
func (c *Collector) IncItemsCollected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsCollected++
	c.mu.Unlock()
}

// IncItemsMalformed records an item whose text was not valid JSON.
func (c *Collector) IncItemsMalformed() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.itemsMalformed++
	c.mu.Unlock()
}

// IncParseFailures records a fatal top-level grammar error.
func (c *Collector) IncParseFailures() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.parseFailures++
	c.mu.Unlock()
}

// IncLimitBreaches records a fatal byte or time limit breach.
func (c *Collector) IncLimitBreaches() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.limitBreaches++
	c.mu.Unlock()
}

// Snapshot returns an atomic copy of all counters.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return Snapshot{
		ChunksRead:     c.chunksRead,
		BytesConsumed:  c.bytesConsumed,
		ItemsEmitted:   c.itemsEmitted,
		ItemsSkipped:   c.itemsSkipped,
		ItemsCollected: c.itemsCollected,
		ItemsMalformed: c.itemsMalformed,
		ParseFailures:  c.parseFailures,
		LimitBreaches:  c.limitBreaches,
		StreamID:       c.streamID,
		Mode:           c.mode,
	}
}
