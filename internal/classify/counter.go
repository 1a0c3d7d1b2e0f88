package classify

// Counter hands out ordinals in increasing order. It is owned by the caller
// and scoped to one scan invocation; share one Counter across files for
// run-wide unique ordinals, or use a fresh one per file.
type Counter struct {
	next int
}

// NewCounter returns a Counter whose first ordinal is start.
func NewCounter(start int) *Counter {
	return &Counter{next: start}
}

// Next returns the current ordinal and advances the counter.
func (c *Counter) Next() int {
	n := c.next
	c.next++
	return n
}

// Peek returns the ordinal Next would return.
func (c *Counter) Peek() int {
	return c.next
}
