package domain

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidBid   = errors.New("invalid bid")
	ErrAuctionEnded = errors.New("auction ended")
	ErrBadResponse  = errors.New("malformed response")
)
