// Package bidding decides whether a proposed bid is acceptable for the
// current auction state before it is submitted.
package bidding

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/alanyoungcy/auctionview/internal/domain"
)

// Precision selects how amounts are compared.
type Precision string

const (
	// PrecisionDecimal compares full cents.
	PrecisionDecimal Precision = "decimal"
	// PrecisionTruncated compares whole units only, dropping the cents of
	// both sides before comparing.
	PrecisionTruncated Precision = "truncated"
)

// ParsePrecision maps a config value onto a Precision.
func ParsePrecision(s string) (Precision, error) {
	switch Precision(strings.ToLower(strings.TrimSpace(s))) {
	case PrecisionDecimal, "":
		return PrecisionDecimal, nil
	case PrecisionTruncated:
		return PrecisionTruncated, nil
	default:
		return "", fmt.Errorf("bidding: unknown precision %q (valid: decimal, truncated)", s)
	}
}

// Reason identifies the rule that rejected a bid.
type Reason string

const (
	ReasonAuctionEnded  Reason = "auction_ended"
	ReasonInvalidAmount Reason = "invalid_amount"
	ReasonBelowMinimum  Reason = "below_minimum"
	ReasonBelowCurrent  Reason = "below_current"
)

// Alert returns the user-facing message for r.
func (r Reason) Alert() string {
	switch r {
	case ReasonAuctionEnded:
		return "This auction has ended"
	case ReasonInvalidAmount:
		return "Please enter a valid bid amount"
	case ReasonBelowMinimum:
		return "Invalid bid, your bid is below the minimum"
	case ReasonBelowCurrent:
		return "Invalid bid, your bid is lower than the current bid"
	default:
		return ""
	}
}

// Context is the auction state a bid is checked against. SecondsLeft of zero
// means the auction is over or its timing is not known yet.
type Context struct {
	Current     domain.Money
	Minimum     domain.Money
	SecondsLeft int64
}

// ParseContext builds a Context from untyped text. Unparsable values count as
// zero, so an unparsable SecondsLeft rejects every bid.
func ParseContext(current, minimum, secondsLeft string) Context {
	var c Context
	if m, err := domain.ParseMoney(strings.TrimSpace(current)); err == nil {
		c.Current = m
	}
	if m, err := domain.ParseMoney(strings.TrimSpace(minimum)); err == nil {
		c.Minimum = m
	}
	if n, err := strconv.ParseInt(strings.TrimSpace(secondsLeft), 10, 64); err == nil && n > 0 {
		c.SecondsLeft = n
	}
	return c
}

// Verdict is the outcome of validating a bid.
type Verdict struct {
	Accepted bool         `json:"accepted"`
	Reason   Reason       `json:"reason,omitempty"`
	Alert    string       `json:"alert,omitempty"`
	Amount   domain.Money `json:"amount"`
}

// Err converts a rejection into a domain error; nil when accepted.
func (v Verdict) Err() error {
	switch {
	case v.Accepted:
		return nil
	case v.Reason == ReasonAuctionEnded:
		return domain.ErrAuctionEnded
	default:
		return fmt.Errorf("%w: %s", domain.ErrInvalidBid, v.Alert)
	}
}

var bidPattern = regexp.MustCompile(`^[1-9]\d*(\.\d{1,2})?$`)

// Validator applies the bid rules in order; the first failing rule wins.
type Validator struct {
	precision Precision
}

// NewValidator creates a Validator comparing amounts with precision p.
func NewValidator(p Precision) *Validator {
	if p == "" {
		p = PrecisionDecimal
	}
	return &Validator{precision: p}
}

// Precision returns the comparison mode in use.
func (v *Validator) Precision() Precision {
	return v.precision
}

// Validate checks input against c.
func (v *Validator) Validate(input string, c Context) Verdict {
	if c.SecondsLeft <= 0 {
		return reject(ReasonAuctionEnded)
	}

	if !bidPattern.MatchString(input) {
		return reject(ReasonInvalidAmount)
	}
	amount, err := domain.ParseMoney(input)
	if err != nil {
		return reject(ReasonInvalidAmount)
	}
	if v.compare(amount, c.Current) == 0 {
		return reject(ReasonInvalidAmount)
	}

	if v.compare(amount, c.Minimum) < 0 {
		return reject(ReasonBelowMinimum)
	}
	if v.compare(amount, c.Current) < 0 {
		return reject(ReasonBelowCurrent)
	}

	return Verdict{Accepted: true, Amount: amount}
}

// NextMinimum is the smallest amount the advisory message suggests.
func (v *Validator) NextMinimum(current domain.Money) domain.Money {
	if v.precision == PrecisionTruncated {
		return domain.Money(current.Whole()*100 + 1)
	}
	return current + 1
}

// Advisory renders the "Enter $X or more" hint for current.
func (v *Validator) Advisory(current domain.Money) string {
	return fmt.Sprintf("Enter $%s or more", v.NextMinimum(current))
}

func (v *Validator) compare(a, b domain.Money) int {
	x, y := a.Cents(), b.Cents()
	if v.precision == PrecisionTruncated {
		x, y = a.Whole(), b.Whole()
	}
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func reject(r Reason) Verdict {
	return Verdict{Reason: r, Alert: r.Alert()}
}
