package device

import (
	"fmt"
	"sync"
)

// Arena is the on-chip working memory of one unit. Kernels carve their
// tile buffers out of it with Alloc; Reset reclaims everything at the
// start of the next launch, mirroring a manually reset device heap.
type Arena struct {
	mu   sync.Mutex
	buf  []byte
	next int
}

// NewArena creates an arena of the given capacity in bytes.
func NewArena(size int) *Arena {
	if size <= 0 {
		panic(fmt.Sprintf("arena size must be positive, got %d", size))
	}
	return &Arena{buf: make([]byte, size)}
}

// Reset drops all allocations. Only the designated tasklet calls this,
// before any other tasklet passes the init barrier.
func (a *Arena) Reset() {
	a.mu.Lock()
	a.next = 0
	a.mu.Unlock()
}

// Alloc returns n bytes of zeroed working memory, 8-byte aligned.
// Allocations live until the next Reset.
func (a *Arena) Alloc(n int) ([]byte, error) {
	if n <= 0 {
		return nil, fmt.Errorf("invalid arena allocation size %d", n)
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	start := (a.next + 7) &^ 7
	if start+n > len(a.buf) {
		return nil, fmt.Errorf("arena exhausted: need %d bytes, %d of %d in use",
			n, a.next, len(a.buf))
	}
	a.next = start + n
	block := a.buf[start : start+n : start+n]
	for i := range block {
		block[i] = 0
	}
	return block, nil
}

// Used reports the number of bytes currently allocated, padding included.
func (a *Arena) Used() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.next
}

// Capacity reports the total arena size in bytes.
func (a *Arena) Capacity() int {
	return len(a.buf)
}
