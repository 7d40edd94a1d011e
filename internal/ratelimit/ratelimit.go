// Package ratelimit provides token bucket pacing for outbound IRC commands.
//
// IRC servers disconnect clients that send too many lines in a short window
// ("excess flood"). The client drains its outbound queue through a Bucket so
// bursts are allowed up to a cap and sustained traffic is held to the refill
// rate.
package ratelimit

import (
	"sync"
	"time"
)

// Bucket implements the token bucket algorithm. A token is one outbound line.
type Bucket struct {
	mu         sync.Mutex
	capacity   int64
	tokens     int64
	refillRate int64 // tokens per second
	lastRefill time.Time
}

// NewBucket creates a bucket that starts full. capacity is the burst size,
// refillRate the number of tokens added per second. Non-positive values are
// clamped to 1.
func NewBucket(capacity, refillRate int64) *Bucket {
	if capacity < 1 {
		capacity = 1
	}
	if refillRate < 1 {
		refillRate = 1
	}
	return &Bucket{
		capacity:   capacity,
		tokens:     capacity,
		refillRate: refillRate,
		lastRefill: time.Now(),
	}
}

// Allow takes one token if available. Returns false when the caller must wait.
func (b *Bucket) Allow() bool {
	return b.AllowN(1)
}

// AllowN takes n tokens if all are available.
func (b *Bucket) AllowN(n int64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()

	if b.tokens >= n {
		b.tokens -= n
		return true
	}
	return false
}

// Wait blocks until a token is available or done is closed. It returns true
// when a token was taken, false when the wait was cancelled. The retry
// interval is derived from the refill rate so a waiter wakes close to the
// moment the next token lands.
func (b *Bucket) Wait(done <-chan struct{}) bool {
	if b.Allow() {
		return true
	}

	interval := time.Second / time.Duration(b.refillRate)
	if interval < 10*time.Millisecond {
		interval = 10 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return false
		case <-ticker.C:
			if b.Allow() {
				return true
			}
		}
	}
}

// Available returns the current token count.
func (b *Bucket) Available() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	return b.tokens
}

// refill credits tokens for the time elapsed since the last credit. The
// caller must hold mu. lastRefill only advances when at least one whole token
// was added, so fractional progress is not discarded.
func (b *Bucket) refill() {
	now := time.Now()
	elapsed := now.Sub(b.lastRefill).Seconds()

	add := int64(elapsed * float64(b.refillRate))
	if add > 0 {
		b.tokens += add
		if b.tokens > b.capacity {
			b.tokens = b.capacity
		}
		b.lastRefill = now
	}
}
