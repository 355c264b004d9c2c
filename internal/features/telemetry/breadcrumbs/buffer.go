package telemetry_breadcrumbs

import (
	"sync"
	"time"

	telemetry_core "tentspace/internal/features/telemetry/core"
)

// Buffer is a bounded FIFO of the most recent breadcrumbs. When an Add
// would exceed the capacity the oldest entry is dropped. Entries are only
// ever read by copy and there is no way to clear the buffer short of
// creating a new one.
//
// Thread-safe: all methods may be called concurrently.
type Buffer struct {
	mu       sync.Mutex
	entries  []telemetry_core.Breadcrumb
	capacity int
	now      func() time.Time
}

// NewBuffer creates a Buffer holding at most capacity entries. A
// non-positive capacity selects the default of 50.
func NewBuffer(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = telemetry_core.DefaultBreadcrumbCapacity
	}

	return &Buffer{
		entries:  make([]telemetry_core.Breadcrumb, 0, capacity),
		capacity: capacity,
		now:      time.Now,
	}
}

// Add appends entry, stamping it with the current time when it has none.
func (b *Buffer) Add(entry telemetry_core.Breadcrumb) {
	entry = entry.Clone()
	if entry.Timestamp.IsZero() {
		entry.Timestamp = b.now().UTC()
	}
	if entry.Level == "" {
		entry.Level = telemetry_core.BreadcrumbLevelInfo
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if len(b.entries) == b.capacity {
		b.entries[0] = telemetry_core.Breadcrumb{} // release data for GC
		b.entries = append(b.entries[:0], b.entries[1:]...)
	}

	b.entries = append(b.entries, entry)
}

// GetAll returns a snapshot of every retained entry, oldest first.
func (b *Buffer) GetAll() []telemetry_core.Breadcrumb {
	b.mu.Lock()
	defer b.mu.Unlock()

	return telemetry_core.TailBreadcrumbs(b.entries, len(b.entries))
}

// Recent returns a snapshot of the last n entries, oldest first.
func (b *Buffer) Recent(n int) []telemetry_core.Breadcrumb {
	b.mu.Lock()
	defer b.mu.Unlock()

	return telemetry_core.TailBreadcrumbs(b.entries, n)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.entries)
}

func (b *Buffer) Capacity() int {
	return b.capacity
}
