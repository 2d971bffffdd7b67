package domain

import (
	"fmt"
	"time"
)

// DefaultAuctionLength is how long a listing stays open after creation.
const DefaultAuctionLength = 7 * 24 * time.Hour

// Product is the auction listing as served by the auction API.
type Product struct {
	ID        int64
	Condition string
	Minimum   Money
	Watchers  int
	CreatedAt time.Time
}

// EndsAt returns the closing time of a listing that runs for length.
func (p Product) EndsAt(length time.Duration) time.Time {
	return p.CreatedAt.Add(length)
}

// BidSummary is the aggregate (count, highest amount) for a listing.
type BidSummary struct {
	Count   int
	Current Money
}

// CountLabel renders the count as "1 bid" or "N bids".
func (b BidSummary) CountLabel() string {
	if b.Count == 1 {
		return "1 bid"
	}
	return fmt.Sprintf("%d bids", b.Count)
}

// TimeLeft is the derived time remaining on a listing. Seconds is the total
// number of seconds left; Days and Hours are its calendar components.
type TimeLeft struct {
	Days    int   `json:"days"`
	Hours   int   `json:"hours"`
	Seconds int64 `json:"seconds"`
}

// RemainingUntil computes the time left from now to end, clamped at zero.
func RemainingUntil(end, now time.Time) TimeLeft {
	total := int64(end.Sub(now) / time.Second)
	if total <= 0 {
		return TimeLeft{}
	}
	return TimeLeft{
		Days:    int(total / 86400),
		Hours:   int(total % 86400 / 3600),
		Seconds: total,
	}
}

// Ended reports whether no time remains.
func (t TimeLeft) Ended() bool {
	return t.Seconds <= 0
}

func (t TimeLeft) String() string {
	return fmt.Sprintf("%dd %dh", t.Days, t.Hours)
}

// EndDateLayout formats closing times as "Monday, 3:04PM".
const EndDateLayout = "Monday, 3:04PM"
