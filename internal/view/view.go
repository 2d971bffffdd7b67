package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
)

// API is the external auction service the view reads from and writes to.
type API interface {
	GetProduct(ctx context.Context, id int64) (domain.Product, error)
	GetBids(ctx context.Context, productID int64) (domain.BidSummary, error)
	PostBid(ctx context.Context, id int64, amount domain.Money) error
	PostWatcher(ctx context.Context, id int64) error
}

// Options configures an AuctionView.
type Options struct {
	ProductID     int64
	Precision     bidding.Precision
	AuctionLength time.Duration
	Location      *time.Location
	Sink          Sink
	Clock         func() time.Time
}

// AuctionView owns the state of one auction listing. The mutex only guards
// commits; it is never held across calls to the API, and overlapping actions
// are not coalesced.
type AuctionView struct {
	api     API
	machine *Machine
	refresh *Pipeline
	sink    Sink
	now     func() time.Time

	mu        sync.Mutex
	state     State
	listeners []func(State)

	// notifyMu serialises listener calls so they observe commits in order.
	notifyMu sync.Mutex
}

// New creates an AuctionView in its placeholder state. Call Mount to load it.
func New(api API, opts Options) *AuctionView {
	v := &AuctionView{
		api:     api,
		machine: NewMachine(bidding.NewValidator(opts.Precision), opts.AuctionLength, opts.Location),
		sink:    opts.Sink,
		now:     opts.Clock,
		state:   Initial(opts.ProductID),
	}
	if v.sink == nil {
		v.sink = SinkFunc(func(context.Context, string, error) {})
	}
	if v.now == nil {
		v.now = time.Now
	}
	v.refresh = NewPipeline(
		Stage{Name: "fetch product", Run: v.fetchProduct},
		Stage{Name: "fetch bids", Run: v.fetchBids},
	)
	return v
}

// State returns a copy of the current state.
func (v *AuctionView) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Validator returns the validator used for submissions.
func (v *AuctionView) Validator() *bidding.Validator {
	return v.machine.Validator()
}

// OnChange registers fn to be called with every committed state.
func (v *AuctionView) OnChange(fn func(State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.listeners = append(v.listeners, fn)
}

// Mount loads the view for the first time.
func (v *AuctionView) Mount(ctx context.Context) error {
	return v.Refresh(ctx)
}

// Refresh fetches the product and then its bid summary. A failed fetch is
// reported to the sink and leaves the previously committed state in place.
func (v *AuctionView) Refresh(ctx context.Context) error {
	err := v.refresh.Run(ctx, v.State, func(e Event) State {
		s, _ := v.dispatch(e)
		return s
	})
	if err != nil {
		v.sink.Report(ctx, "refresh", err)
		return fmt.Errorf("view: refresh: %w", err)
	}
	return nil
}

// TypeBid replaces the pending bid input.
func (v *AuctionView) TypeBid(text string) State {
	s, _ := v.dispatch(UserTypedBid{Text: text})
	return s
}

// SubmitBid validates the pending input. A rejected bid only sets the alert;
// an accepted one is posted and followed by a refresh. The returned error is
// a transport failure, already reported to the sink.
func (v *AuctionView) SubmitBid(ctx context.Context) (bidding.Verdict, error) {
	_, eff := v.dispatch(UserSubmittedBid{})
	return v.afterSubmit(ctx, eff)
}

// PlaceBid types text and submits it as a single commit.
func (v *AuctionView) PlaceBid(ctx context.Context, text string) (bidding.Verdict, error) {
	_, eff := v.dispatch(UserTypedBid{Text: text}, UserSubmittedBid{})
	return v.afterSubmit(ctx, eff)
}

// AddWatcher registers a watcher and refreshes on success.
func (v *AuctionView) AddWatcher(ctx context.Context) error {
	id := v.State().ID
	err := v.api.PostWatcher(ctx, id)
	_, eff := v.dispatch(WatcherAdded{Err: err})
	if err != nil {
		v.sink.Report(ctx, "add watcher", err)
		return fmt.Errorf("view: add watcher %d: %w", id, err)
	}
	return v.run(ctx, eff)
}

func (v *AuctionView) afterSubmit(ctx context.Context, eff Effect) (bidding.Verdict, error) {
	verdict := *eff.Verdict
	if eff.Kind != EffectSubmitBid {
		return verdict, nil
	}

	id := v.State().ID
	err := v.api.PostBid(ctx, id, eff.Amount)
	_, next := v.dispatch(BidSubmitted{Amount: eff.Amount, Err: err})
	if err != nil {
		v.sink.Report(ctx, "submit bid", err)
		return verdict, fmt.Errorf("view: submit bid %d: %w", id, err)
	}
	return verdict, v.run(ctx, next)
}

func (v *AuctionView) run(ctx context.Context, eff Effect) error {
	if eff.Kind == EffectRefresh {
		return v.Refresh(ctx)
	}
	return nil
}

// dispatch commits events in order and notifies listeners once. Listeners
// receive the latest committed state, which may already include a later
// commit from another caller, so the last state they see is always current.
func (v *AuctionView) dispatch(events ...Event) (State, Effect) {
	v.mu.Lock()
	var eff Effect
	for _, e := range events {
		v.state, eff = v.machine.Step(v.state, e)
	}
	s := v.state
	v.mu.Unlock()

	v.notify()
	return s, eff
}

func (v *AuctionView) notify() {
	v.notifyMu.Lock()
	defer v.notifyMu.Unlock()

	v.mu.Lock()
	latest := v.state
	listeners := v.listeners
	v.mu.Unlock()

	for _, fn := range listeners {
		fn(latest)
	}
}

func (v *AuctionView) fetchProduct(ctx context.Context, s State) (Event, error) {
	p, err := v.api.GetProduct(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	if p.ID != 0 && p.ID != s.ID {
		return nil, fmt.Errorf("%w: asked for product %d, got %d", domain.ErrBadResponse, s.ID, p.ID)
	}
	return ProductFetched{Product: p, At: v.now()}, nil
}

func (v *AuctionView) fetchBids(ctx context.Context, s State) (Event, error) {
	summary, err := v.api.GetBids(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	return BidsFetched{Summary: summary}, nil
}
