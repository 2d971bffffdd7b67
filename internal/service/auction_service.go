package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
	"github.com/alanyoungcy/auctionview/internal/notify"
	"github.com/alanyoungcy/auctionview/internal/view"
)

// AuctionService is the entry point the CLI and HTTP front use to drive an
// AuctionView. It announces outcomes through the notifier and publishes every
// committed state on the signal bus.
type AuctionService struct {
	view     *view.AuctionView
	bus      domain.SignalBus
	notifier *notify.Notifier
	logger   *slog.Logger

	changes chan view.State
}

// NewAuctionService creates an AuctionService. bus and notifier may be nil.
func NewAuctionService(
	v *view.AuctionView,
	bus domain.SignalBus,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *AuctionService {
	s := &AuctionService{
		view:     v,
		bus:      bus,
		notifier: notifier,
		logger:   logger,
		changes:  make(chan view.State, 1),
	}
	if bus != nil {
		v.OnChange(s.enqueue)
	}
	return s
}

// enqueue keeps only the newest unpublished state; subscribers always
// converge on the latest snapshot.
func (s *AuctionService) enqueue(st view.State) {
	for {
		select {
		case s.changes <- st:
			return
		default:
		}
		select {
		case <-s.changes:
		default:
		}
	}
}

// Run publishes state changes until ctx is cancelled. Without a bus it only
// waits for cancellation.
func (s *AuctionService) Run(ctx context.Context) error {
	if s.bus == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case st := <-s.changes:
			s.publish(ctx, st)
		}
	}
}

func (s *AuctionService) publish(ctx context.Context, st view.State) {
	payload, err := json.Marshal(st)
	if err != nil {
		s.logger.ErrorContext(ctx, "auction_service: marshal state failed",
			slog.Int64("product_id", st.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.bus.Publish(ctx, domain.StateChannel(st.ID), payload); err != nil {
		s.logger.WarnContext(ctx, "auction_service: publish state failed",
			slog.Int64("product_id", st.ID),
			slog.String("error", err.Error()),
		)
	}
}

// State returns the current view state.
func (s *AuctionService) State() view.State {
	return s.view.State()
}

// Mount performs the initial load.
func (s *AuctionService) Mount(ctx context.Context) error {
	if err := s.view.Mount(ctx); err != nil {
		return fmt.Errorf("auction_service: mount: %w", err)
	}
	st := s.view.State()
	s.logger.InfoContext(ctx, "auction_service: mounted",
		slog.Int64("product_id", st.ID),
		slog.String("current_bid", st.CurrentBid.String()),
		slog.Int("bid_count", st.BidCount),
	)
	return nil
}

// Refresh re-runs the product and bids fetch chain.
func (s *AuctionService) Refresh(ctx context.Context) error {
	if err := s.view.Refresh(ctx); err != nil {
		return fmt.Errorf("auction_service: refresh: %w", err)
	}
	return nil
}

// PlaceBid validates input and, when accepted, submits it. A rejection is not
// an error: it is reported in the verdict and in the state's alert.
func (s *AuctionService) PlaceBid(ctx context.Context, input string) (bidding.Verdict, view.State, error) {
	verdict, err := s.view.PlaceBid(ctx, input)
	st := s.view.State()

	if !verdict.Accepted {
		s.logger.InfoContext(ctx, "auction_service: bid rejected",
			slog.Int64("product_id", st.ID),
			slog.String("input", input),
			slog.String("reason", string(verdict.Reason)),
		)
		s.notify(ctx, s.notifier.BidRejected(ctx, st.ID, input, verdict.Alert))
		return verdict, st, nil
	}

	// A refresh failure after the post means the bid itself went through.
	var stageErr *view.StageError
	if err == nil || errors.As(err, &stageErr) {
		s.logger.InfoContext(ctx, "auction_service: bid placed",
			slog.Int64("product_id", st.ID),
			slog.String("amount", verdict.Amount.String()),
		)
		s.notify(ctx, s.notifier.BidPlaced(ctx, st.ID, verdict.Amount))
	}
	if err != nil {
		return verdict, st, fmt.Errorf("auction_service: place bid: %w", err)
	}
	return verdict, st, nil
}

// AddWatcher registers the bidder as a watcher.
func (s *AuctionService) AddWatcher(ctx context.Context) (view.State, error) {
	err := s.view.AddWatcher(ctx)
	st := s.view.State()
	var stageErr *view.StageError
	if err == nil || errors.As(err, &stageErr) {
		s.notify(ctx, s.notifier.WatcherAdded(ctx, st.ID, st.Watchers))
	}
	if err != nil {
		return st, fmt.Errorf("auction_service: add watcher: %w", err)
	}
	return st, nil
}

// Validate is a stateless dry run of the bid rules against a caller-supplied
// context. Unparsable context values count as zero.
func (s *AuctionService) Validate(input, current, minimum, secondsLeft string) bidding.Verdict {
	return s.view.Validator().Validate(input, bidding.ParseContext(current, minimum, secondsLeft))
}

func (s *AuctionService) notify(ctx context.Context, err error) {
	if err != nil {
		s.logger.WarnContext(ctx, "auction_service: notification failed",
			slog.String("error", err.Error()),
		)
	}
}
