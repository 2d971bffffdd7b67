package view

import (
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
)

// Event is an input to Step.
type Event interface {
	event()
}

// ProductFetched carries a product fetch result and the time it completed.
type ProductFetched struct {
	Product domain.Product
	At      time.Time
}

// BidsFetched carries a bid summary fetch result.
type BidsFetched struct {
	Summary domain.BidSummary
}

// BidSubmitted reports the outcome of posting a bid.
type BidSubmitted struct {
	Amount domain.Money
	Err    error
}

// WatcherAdded reports the outcome of registering a watcher.
type WatcherAdded struct {
	Err error
}

// UserTypedBid replaces the pending bid input.
type UserTypedBid struct {
	Text string
}

// UserSubmittedBid asks for the pending bid input to be validated and sent.
type UserSubmittedBid struct{}

func (ProductFetched) event()   {}
func (BidsFetched) event()      {}
func (BidSubmitted) event()     {}
func (WatcherAdded) event()     {}
func (UserTypedBid) event()     {}
func (UserSubmittedBid) event() {}

// EffectKind names the follow-up work a transition asks for.
type EffectKind int

const (
	EffectNone EffectKind = iota
	EffectSubmitBid
	EffectRefresh
)

func (k EffectKind) String() string {
	switch k {
	case EffectSubmitBid:
		return "submit_bid"
	case EffectRefresh:
		return "refresh"
	default:
		return "none"
	}
}

// Effect is the follow-up requested by a transition. Verdict is set for
// UserSubmittedBid whether or not the bid was accepted.
type Effect struct {
	Kind    EffectKind
	Amount  domain.Money
	Verdict *bidding.Verdict
}
