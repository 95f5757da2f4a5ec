package metrics

import (
	"sync"
	"testing"
)

func TestCollector_Counters(t *testing.T) {
	c := NewCollector("stream-001", "array")

	c.IncChunksRead(10)
	c.IncChunksRead(32)
	c.IncItemsEmitted()
	c.IncItemsEmitted()
	c.IncItemsSkipped()
	c.IncItemsCollected()
	c.IncItemsMalformed()
	c.IncParseFailures()
	c.IncLimitBreaches()

	snap := c.Snapshot()

	if snap.ChunksRead != 2 {
		t.Errorf("ChunksRead = %d, want 2", snap.ChunksRead)
	}
	if snap.BytesConsumed != 42 {
		t.Errorf("BytesConsumed = %d, want 42", snap.BytesConsumed)
	}
	if snap.ItemsEmitted != 2 {
		t.Errorf("ItemsEmitted = %d, want 2", snap.ItemsEmitted)
	}
	if snap.ItemsSkipped != 1 {
		t.Errorf("ItemsSkipped = %d, want 1", snap.ItemsSkipped)
	}
	if snap.ItemsCollected != 1 {
		t.Errorf("ItemsCollected = %d, want 1", snap.ItemsCollected)
	}
	if snap.ItemsMalformed != 1 {
		t.Errorf("ItemsMalformed = %d, want 1", snap.ItemsMalformed)
	}
	if snap.ParseFailures != 1 {
		t.Errorf("ParseFailures = %d, want 1", snap.ParseFailures)
	}
	if snap.LimitBreaches != 1 {
		t.Errorf("LimitBreaches = %d, want 1", snap.LimitBreaches)
	}
	if snap.StreamID != "stream-001" || snap.Mode != "array" {
		t.Errorf("dimensions = %q/%q, want stream-001/array", snap.StreamID, snap.Mode)
	}
}

func TestCollector_NilReceiver(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.IncChunksRead(1)
	c.IncItemsEmitted()
	c.IncItemsSkipped()
	c.IncItemsCollected()
	c.IncItemsMalformed()
	c.IncParseFailures()
	c.IncLimitBreaches()

	snap := c.Snapshot()
	if snap.ChunksRead != 0 || snap.ItemsEmitted != 0 {
		t.Error("nil collector snapshot should be zero")
	}
}

func TestCollector_ConcurrentIncrements(t *testing.T) {
	c := NewCollector("stream-002", "lines")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				c.IncItemsEmitted()
				c.IncChunksRead(3)
			}
		}()
	}
	wg.Wait()

	snap := c.Snapshot()
	if snap.ItemsEmitted != 800 {
		t.Errorf("ItemsEmitted = %d, want 800", snap.ItemsEmitted)
	}
	if snap.BytesConsumed != 2400 {
		t.Errorf("BytesConsumed = %d, want 2400", snap.BytesConsumed)
	}
}
