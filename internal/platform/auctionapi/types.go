package auctionapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/alanyoungcy/auctionview/internal/domain"
)

// flexTime unmarshals from an RFC 3339 string or a Unix epoch in
// milliseconds, since listing services emit either depending on their store.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		f.Time = time.Time{}
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
			f.Time = time.UnixMilli(ms).UTC()
			return nil
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("parse time %q: %w", s, err)
		}
		f.Time = t
		return nil
	}
	ms, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return fmt.Errorf("parse epoch %s: %w", data, err)
	}
	f.Time = time.UnixMilli(ms).UTC()
	return nil
}

// APIProduct is the product resource served by GET /api/auction/product.
type APIProduct struct {
	ID        int64           `json:"id"`
	Condition string          `json:"condition"`
	Minimum   decimal.Decimal `json:"minimum"`
	Watchers  int             `json:"watchers"`
	CreatedAt flexTime        `json:"createdAt"`
}

// ToDomainProduct converts an APIProduct to a domain.Product.
func (p *APIProduct) ToDomainProduct() (domain.Product, error) {
	minimum, err := domain.MoneyFromDecimal(p.Minimum)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%w: minimum: %v", domain.ErrBadResponse, err)
	}
	return domain.Product{
		ID:        p.ID,
		Condition: p.Condition,
		Minimum:   minimum,
		Watchers:  p.Watchers,
		CreatedAt: p.CreatedAt.Time,
	}, nil
}

// APIBidSummary is the ordered pair [bidCount, currentBidAmount] served by
// GET /api/auction/bids.
type APIBidSummary []decimal.Decimal

// ToDomainBidSummary validates the pair and converts it.
func (b APIBidSummary) ToDomainBidSummary() (domain.BidSummary, error) {
	if len(b) != 2 {
		return domain.BidSummary{}, fmt.Errorf("%w: bid summary has %d elements, want 2", domain.ErrBadResponse, len(b))
	}
	count := b[0]
	if !count.IsInteger() || count.IsNegative() {
		return domain.BidSummary{}, fmt.Errorf("%w: bid count %s is not a non-negative integer", domain.ErrBadResponse, count)
	}
	if !count.BigInt().IsInt64() || count.IntPart() > math.MaxInt32 {
		return domain.BidSummary{}, fmt.Errorf("%w: bid count %s out of range", domain.ErrBadResponse, count)
	}
	if b[1].IsNegative() {
		return domain.BidSummary{}, fmt.Errorf("%w: negative current bid %s", domain.ErrBadResponse, b[1])
	}
	current, err := domain.MoneyFromDecimal(b[1])
	if err != nil {
		return domain.BidSummary{}, fmt.Errorf("%w: current bid: %v", domain.ErrBadResponse, err)
	}
	return domain.BidSummary{
		Count:   int(count.IntPart()),
		Current: current,
	}, nil
}

// bidRequest is the body of POST /api/auction/bid.
type bidRequest struct {
	ID        int64       `json:"id"`
	BidAmount json.Number `json:"bidAmount"`
}

// watcherRequest is the body of POST /api/auction/watcher.
type watcherRequest struct {
	ID int64 `json:"id"`
}
