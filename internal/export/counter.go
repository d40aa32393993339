package export

import (
	"fmt"
	"sync"
)

// Counter numbers exported panels across a whole session. It holds the
// number the next saved file will get; it is never reset between pages or
// batch runs.
type Counter struct {
	mu   sync.Mutex
	next int
}

// NewCounter creates a counter whose first file is numbered start (min 1).
func NewCounter(start int) *Counter {
	if start < 1 {
		start = 1
	}
	return &Counter{next: start}
}

// Peek returns the number the next saved file will use.
func (c *Counter) Peek() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Advance moves past the number returned by Peek. Called once per saved file.
func (c *Counter) Advance() {
	c.mu.Lock()
	c.next++
	c.mu.Unlock()
}

// FileName formats the output name of panel n.
func FileName(n int, f Format) string {
	return fmt.Sprintf("panel_%03d%s", n, f.Ext())
}
