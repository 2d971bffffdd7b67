package view

import (
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
)

// Machine holds the parameters of the transition function.
type Machine struct {
	validator     *bidding.Validator
	auctionLength time.Duration
	loc           *time.Location
}

// NewMachine creates a Machine. A zero auctionLength falls back to
// domain.DefaultAuctionLength and a nil loc to time.Local.
func NewMachine(validator *bidding.Validator, auctionLength time.Duration, loc *time.Location) *Machine {
	if validator == nil {
		validator = bidding.NewValidator(bidding.PrecisionDecimal)
	}
	if auctionLength <= 0 {
		auctionLength = domain.DefaultAuctionLength
	}
	if loc == nil {
		loc = time.Local
	}
	return &Machine{
		validator:     validator,
		auctionLength: auctionLength,
		loc:           loc,
	}
}

// Validator returns the bid validator used for UserSubmittedBid.
func (m *Machine) Validator() *bidding.Validator {
	return m.validator
}

// Step applies e to s. It never performs I/O; work that must follow is
// described by the returned Effect.
func (m *Machine) Step(s State, e Event) (State, Effect) {
	switch e := e.(type) {
	case ProductFetched:
		p := e.Product
		end := p.EndsAt(m.auctionLength)
		s.Condition = p.Condition
		s.Minimum = p.Minimum
		s.Watchers = p.Watchers
		s.EndsAt = end
		s.EndDate = end.In(m.loc).Format(domain.EndDateLayout)
		s.TimeLeft = domain.RemainingUntil(end, e.At)
		s.ProductLoaded = true
		return s, Effect{}

	case BidsFetched:
		s.BidCount = e.Summary.Count
		s.BidCountLabel = e.Summary.CountLabel()
		s.CurrentBid = e.Summary.Current
		s.Message = m.validator.Advisory(e.Summary.Current)
		s.BidsLoaded = true
		return s, Effect{}

	case UserTypedBid:
		s.BidInput = e.Text
		return s, Effect{}

	case UserSubmittedBid:
		verdict := m.validator.Validate(s.BidInput, s.BidContext())
		s.BidInput = ""
		if !verdict.Accepted {
			s.Alert = verdict.Alert
			return s, Effect{Verdict: &verdict}
		}
		return s, Effect{Kind: EffectSubmitBid, Amount: verdict.Amount, Verdict: &verdict}

	case BidSubmitted:
		if e.Err != nil {
			return s, Effect{}
		}
		s.Alert = ""
		return s, Effect{Kind: EffectRefresh}

	case WatcherAdded:
		if e.Err != nil {
			return s, Effect{}
		}
		return s, Effect{Kind: EffectRefresh}

	default:
		return s, Effect{}
	}
}
