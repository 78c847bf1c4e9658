// Package flood tracks bursts of image messages per chat so that photo
// dumps (vacation albums, meme chains) do not burn analysis calls, while a
// single captioned flyer still gets through.
package flood

import (
	"sync"
	"time"
)

const (
	DefaultWindow         = 30 * time.Second
	DefaultMinCount       = 3
	DefaultNoCaptionRatio = 0.7
)

type arrival struct {
	at         time.Time
	hasCaption bool
}

// Detector keeps a per-chat sliding window of recent image arrivals.
// Pruning is amortized onto every read and write; there is no timer.
type Detector struct {
	window         time.Duration
	minCount       int
	noCaptionRatio float64

	mu     sync.Mutex
	byChat map[string][]arrival
	now    func() time.Time
}

func NewDetector(window time.Duration, minCount int, noCaptionRatio float64) *Detector {
	if window <= 0 {
		window = DefaultWindow
	}
	if minCount <= 0 {
		minCount = DefaultMinCount
	}
	if noCaptionRatio <= 0 || noCaptionRatio > 1 {
		noCaptionRatio = DefaultNoCaptionRatio
	}
	return &Detector{
		window:         window,
		minCount:       minCount,
		noCaptionRatio: noCaptionRatio,
		byChat:         make(map[string][]arrival),
		now:            time.Now,
	}
}

// Track records an image arrival for the chat, pruning expired records
// first so the window never grows beyond one burst.
func (d *Detector) Track(chatID string, hasCaption bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	recent := d.pruneLocked(chatID, now)
	d.byChat[chatID] = append(recent, arrival{at: now, hasCaption: hasCaption})
}

// IsFlood reports whether the chat's current window looks like a photo
// dump: at least minCount images, of which at least noCaptionRatio carry no
// caption. Below the count floor the answer is always false; two photos are
// not evidence of anything.
func (d *Detector) IsFlood(chatID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	recent := d.pruneLocked(chatID, d.now())
	d.byChat[chatID] = recent

	if len(recent) < d.minCount {
		return false
	}
	withoutCaption := 0
	for _, a := range recent {
		if !a.hasCaption {
			withoutCaption++
		}
	}
	return float64(withoutCaption) >= d.noCaptionRatio*float64(len(recent))
}

func (d *Detector) pruneLocked(chatID string, now time.Time) []arrival {
	cutoff := now.Add(-d.window)
	all := d.byChat[chatID]
	kept := all[:0]
	for _, a := range all {
		if !a.at.Before(cutoff) {
			kept = append(kept, a)
		}
	}
	if len(kept) == 0 {
		delete(d.byChat, chatID)
		return nil
	}
	return kept
}
