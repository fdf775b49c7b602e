package testutil

import (
	"sync/atomic"
)

// Calls counts producer invocations.
type Calls struct {
	n atomic.Int64
}

// Load returns the number of calls so far.
func (c *Calls) Load() int64 {
	return c.n.Load()
}

// CountingProducer returns a Counter producer that reports how many times it
// ran; each call yields the running total.
func CountingProducer() (func() Counter, *Calls) {
	calls := &Calls{}
	return func() Counter {
		return Counter(calls.n.Add(1))
	}, calls
}

// CleanupProducer returns an Answer producer with a cleanup that records
// its run in order, under name.
func CleanupProducer(name string, order *[]string, err error) func() (Answer, func() error) {
	return func() (Answer, func() error) {
		return 7, func() error {
			*order = append(*order, name)
			return err
		}
	}
}
