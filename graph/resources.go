package graph

import (
	"fmt"
	"sync/atomic"
)

// Kind classifies a tracked render resource
type Kind int

const (
	KindGraph Kind = iota
	KindSource
	KindOscillator
	KindFilter
	KindGain

	kindCount
)

var kindNames = [kindCount]string{"graph", "source", "oscillator", "filter", "gain"}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// Kinds lists every tracked kind in declaration order
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

// Tracker accounts for resources held by graphs and their nodes
// Implementations must be safe for concurrent use
type Tracker interface {
	Acquire(k Kind)
	Release(k Kind)
}

// Counter is an atomic Tracker keeping live counts per kind
type Counter struct {
	counts [kindCount]atomic.Int64
}

// Default is the tracker used when Options.Tracker is nil
var Default = &Counter{}

func (c *Counter) Acquire(k Kind) {
	if k >= 0 && k < kindCount {
		c.counts[k].Add(1)
	}
}

func (c *Counter) Release(k Kind) {
	if k >= 0 && k < kindCount {
		c.counts[k].Add(-1)
	}
}

// Count returns live resources of kind k
func (c *Counter) Count(k Kind) int64 {
	if k < 0 || k >= kindCount {
		return 0
	}
	return c.counts[k].Load()
}

// Total returns live resources across all kinds
func (c *Counter) Total() int64 {
	var n int64
	for i := range c.counts {
		n += c.counts[i].Load()
	}
	return n
}

// Snapshot returns counts keyed by kind name
func (c *Counter) Snapshot() map[string]int64 {
	out := make(map[string]int64, kindCount)
	for i := range c.counts {
		out[Kind(i).String()] = c.counts[i].Load()
	}
	return out
}
