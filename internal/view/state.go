// Package view holds the AuctionView: the state of a single auction listing
// as shown to a bidder, the transitions that change it and the refresh cycle
// that keeps it in step with the auction API.
package view

import (
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
)

// State is everything the view renders. It is a value; transitions return
// a new copy.
type State struct {
	ID            int64           `json:"id"`
	Condition     string          `json:"condition"`
	Minimum       domain.Money    `json:"minimum"`
	Watchers      int             `json:"watchers"`
	TimeLeft      domain.TimeLeft `json:"timeLeft"`
	EndsAt        time.Time       `json:"endsAt"`
	EndDate       string          `json:"endDate"`
	CurrentBid    domain.Money    `json:"currentBid"`
	BidCount      int             `json:"bidCount"`
	BidCountLabel string          `json:"bidCountLabel"`
	BidInput      string          `json:"bidInput"`
	Message       string          `json:"message"`
	Alert         string          `json:"alert"`
	ProductLoaded bool            `json:"productLoaded"`
	BidsLoaded    bool            `json:"bidsLoaded"`
}

// Initial returns the placeholder state shown before the first fetch.
func Initial(productID int64) State {
	return State{ID: productID}
}

// BidContext is the slice of state a bid is validated against.
func (s State) BidContext() bidding.Context {
	return bidding.Context{
		Current:     s.CurrentBid,
		Minimum:     s.Minimum,
		SecondsLeft: s.TimeLeft.Seconds,
	}
}
