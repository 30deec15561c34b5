package chat

import (
	"strings"
	"time"
)

// RevealTuning controls how fast buffered text is revealed. The defaults
// are a UX choice carried in config, not a derived invariant: a 15ms tick
// reveals 2 runes, speeding up 3x once 200 runes are backlogged and 5x
// past 500 so bursts catch up to real time instead of trailing forever.
type RevealTuning struct {
	Interval        time.Duration
	BaseQuantum     int
	BurstThreshold  int
	BurstMultiplier int
	FloodThreshold  int
	FloodMultiplier int
}

// DefaultRevealTuning returns the recommended pacing constants
func DefaultRevealTuning() RevealTuning {
	return RevealTuning{
		Interval:        15 * time.Millisecond,
		BaseQuantum:     2,
		BurstThreshold:  200,
		BurstMultiplier: 3,
		FloodThreshold:  500,
		FloodMultiplier: 5,
	}
}

// QuantumFor returns how many runes one tick should drain for a given
// backlog. The tiering is deterministic and identical for the text and
// reasoning buffers.
func (t RevealTuning) QuantumFor(backlog int) int {
	quantum := t.BaseQuantum
	if quantum < 1 {
		quantum = 1
	}
	switch {
	case backlog > t.FloodThreshold:
		return quantum * t.FloodMultiplier
	case backlog > t.BurstThreshold:
		return quantum * t.BurstMultiplier
	default:
		return quantum
	}
}

// RevealBuffer accumulates streamed text and hands it out in paced
// increments. Append never blocks and the buffer has no upper bound;
// overflow is not an error condition. Not safe for concurrent use: the
// session controller serializes all access on its event loop.
type RevealBuffer struct {
	pending  []rune
	revealed strings.Builder
}

func NewRevealBuffer() *RevealBuffer {
	return &RevealBuffer{}
}

// Append queues text for later reveal
func (b *RevealBuffer) Append(text string) {
	if text == "" {
		return
	}
	b.pending = append(b.pending, []rune(text)...)
}

// Drain pops up to n runes from the queue and returns what was available,
// which may be fewer or none.
func (b *RevealBuffer) Drain(n int) string {
	if n <= 0 || len(b.pending) == 0 {
		return ""
	}
	if n > len(b.pending) {
		n = len(b.pending)
	}
	out := string(b.pending[:n])
	b.pending = b.pending[n:]
	b.revealed.WriteString(out)
	return out
}

// DrainAll empties the queue in one pull, used when an approval request
// forces an immediate flush.
func (b *RevealBuffer) DrainAll() string {
	return b.Drain(len(b.pending))
}

// Backlog reports how many runes are queued but not yet revealed
func (b *RevealBuffer) Backlog() int {
	return len(b.pending)
}

// Empty reports whether everything appended has been revealed
func (b *RevealBuffer) Empty() bool {
	return len(b.pending) == 0
}

// Revealed returns all text revealed so far
func (b *RevealBuffer) Revealed() string {
	return b.revealed.String()
}

// Reset clears both the queue and the revealed accumulation
func (b *RevealBuffer) Reset() {
	b.pending = nil
	b.revealed.Reset()
}
