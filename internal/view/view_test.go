package view

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/domain"
)

var testNow = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

// fakeAuction is an in-memory auction API that accepts every bid.
type fakeAuction struct {
	mu       sync.Mutex
	product  domain.Product
	summary  domain.BidSummary
	calls    []string
	bids     []domain.Money
	failNext map[string]error
}

func newFakeAuction(minimum, current domain.Money, count int, secondsLeft int64) *fakeAuction {
	created := testNow.Add(-domain.DefaultAuctionLength + time.Duration(secondsLeft)*time.Second)
	return &fakeAuction{
		product: domain.Product{
			ID:        1,
			Condition: "Used",
			Minimum:   minimum,
			Watchers:  3,
			CreatedAt: created,
		},
		summary:  domain.BidSummary{Count: count, Current: current},
		failNext: map[string]error{},
	}
}

func (f *fakeAuction) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	if err, ok := f.failNext[call]; ok {
		delete(f.failNext, call)
		return err
	}
	return nil
}

func (f *fakeAuction) GetProduct(_ context.Context, id int64) (domain.Product, error) {
	if err := f.record("product"); err != nil {
		return domain.Product{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.product, nil
}

func (f *fakeAuction) GetBids(_ context.Context, productID int64) (domain.BidSummary, error) {
	if err := f.record("bids"); err != nil {
		return domain.BidSummary{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, nil
}

func (f *fakeAuction) PostBid(_ context.Context, id int64, amount domain.Money) error {
	if err := f.record("bid"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bids = append(f.bids, amount)
	f.summary.Count++
	f.summary.Current = amount
	return nil
}

func (f *fakeAuction) PostWatcher(_ context.Context, id int64) error {
	if err := f.record("watcher"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.product.Watchers++
	return nil
}

func (f *fakeAuction) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type recordingSink struct {
	mu   sync.Mutex
	ops  []string
	errs []error
}

func (r *recordingSink) Report(_ context.Context, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
	r.errs = append(r.errs, err)
}

func newTestView(api API, sink Sink) *AuctionView {
	return New(api, Options{
		ProductID: 1,
		Precision: bidding.PrecisionDecimal,
		Location:  time.UTC,
		Sink:      sink,
		Clock:     func() time.Time { return testNow },
	})
}

func equalCalls(got, want []string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestMount_LoadsProductThenBids(t *testing.T) {
	api := newFakeAuction(1000, 1500, 4, 2*86400+3*3600)
	v := newTestView(api, nil)

	if err := v.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if got := api.callLog(); !equalCalls(got, []string{"product", "bids"}) {
		t.Fatalf("calls = %v; want [product bids]", got)
	}

	s := v.State()
	if !s.ProductLoaded || !s.BidsLoaded {
		t.Fatalf("state not loaded: %+v", s)
	}
	if s.Condition != "Used" || s.Minimum != 1000 || s.Watchers != 3 {
		t.Errorf("product fields = %+v", s)
	}
	if s.TimeLeft.Days != 2 || s.TimeLeft.Hours != 3 || s.TimeLeft.Seconds != 2*86400+3*3600 {
		t.Errorf("TimeLeft = %+v", s.TimeLeft)
	}
	if s.EndDate != "Wednesday, 1:00PM" {
		t.Errorf("EndDate = %q", s.EndDate)
	}
	if s.CurrentBid != 1500 || s.BidCount != 4 || s.BidCountLabel != "4 bids" {
		t.Errorf("bid fields = %+v", s)
	}
	if s.Message != "Enter $15.01 or more" {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestRefresh_ProductFailureLeavesStateAndSkipsBids(t *testing.T) {
	api := newFakeAuction(1000, 1500, 4, 120)
	sink := &recordingSink{}
	v := newTestView(api, sink)

	boom := errors.New("connection refused")
	api.failNext["product"] = boom

	err := v.Mount(context.Background())
	if !errors.Is(err, boom) {
		t.Fatalf("Mount error = %v; want %v", err, boom)
	}
	if got := api.callLog(); !equalCalls(got, []string{"product"}) {
		t.Fatalf("calls = %v; want [product]", got)
	}
	if s := v.State(); s != Initial(1) {
		t.Errorf("state changed after failed fetch: %+v", s)
	}
	if len(sink.ops) != 1 || sink.ops[0] != "refresh" {
		t.Errorf("sink ops = %v", sink.ops)
	}
	var stageErr *StageError
	if !errors.As(sink.errs[0], &stageErr) || stageErr.Stage != "fetch product" {
		t.Errorf("sink error = %v; want fetch product stage error", sink.errs[0])
	}
	if s := v.State(); s.Alert != "" {
		t.Errorf("transport failure surfaced as alert %q", s.Alert)
	}
}

func TestRefresh_BidsFailureKeepsProduct(t *testing.T) {
	api := newFakeAuction(1000, 1500, 4, 120)
	v := newTestView(api, nil)
	api.failNext["bids"] = errors.New("timeout")

	if err := v.Mount(context.Background()); err == nil {
		t.Fatal("Mount expected error")
	}
	s := v.State()
	if !s.ProductLoaded || s.BidsLoaded {
		t.Fatalf("state = %+v; want product loaded only", s)
	}
	if s.CurrentBid != 0 || s.BidCountLabel != "" {
		t.Errorf("bid fields changed: %+v", s)
	}
}

func TestPlaceBid_AcceptedSubmitsAndRefreshes(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	v := newTestView(api, nil)
	ctx := context.Background()

	if err := v.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	verdict, err := v.PlaceBid(ctx, "20.00")
	if err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	if !verdict.Accepted || verdict.Amount != 2000 {
		t.Fatalf("verdict = %+v; want accepted 20.00", verdict)
	}

	want := []string{"product", "bids", "bid", "product", "bids"}
	if got := api.callLog(); !equalCalls(got, want) {
		t.Fatalf("calls = %v; want %v", got, want)
	}

	s := v.State()
	if s.CurrentBid != 2000 || s.BidCount != 3 {
		t.Errorf("after bid: current=%s count=%d; want 20.00 and 3", s.CurrentBid, s.BidCount)
	}
	if s.Alert != "" || s.BidInput != "" {
		t.Errorf("alert=%q input=%q; want both cleared", s.Alert, s.BidInput)
	}
	if s.Message != "Enter $20.01 or more" {
		t.Errorf("Message = %q", s.Message)
	}
}

func TestPlaceBid_RejectionsNeverReachAPI(t *testing.T) {
	tests := []struct {
		name        string
		minimum     domain.Money
		current     domain.Money
		secondsLeft int64
		input       string
		wantAlert   string
	}{
		{"equals current", 1000, 1000, 120, "10.00", "Please enter a valid bid amount"},
		{"auction ended", 1000, 1500, 0, "20.00", "This auction has ended"},
		{"below minimum", 2500, 1500, 120, "20.00", "Invalid bid, your bid is below the minimum"},
		{"below current", 1000, 1500, 120, "12.00", "Invalid bid, your bid is lower than the current bid"},
		{"bad format", 1000, 1500, 120, "twenty", "Please enter a valid bid amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := newFakeAuction(tt.minimum, tt.current, 1, tt.secondsLeft)
			v := newTestView(api, nil)
			ctx := context.Background()
			if err := v.Mount(ctx); err != nil {
				t.Fatalf("Mount: %v", err)
			}
			before := v.State()

			verdict, err := v.PlaceBid(ctx, tt.input)
			if err != nil {
				t.Fatalf("PlaceBid: %v", err)
			}
			if verdict.Accepted {
				t.Fatalf("verdict = %+v; want rejection", verdict)
			}

			s := v.State()
			if s.Alert != tt.wantAlert {
				t.Errorf("Alert = %q; want %q", s.Alert, tt.wantAlert)
			}
			if len(api.bids) != 0 {
				t.Errorf("bids posted: %v", api.bids)
			}
			s.Alert, s.BidInput = before.Alert, before.BidInput
			if s != before {
				t.Errorf("committed state changed by rejection:\n got %+v\nwant %+v", s, before)
			}
		})
	}
}

func TestSubmitBid_UsesTypedInput(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	v := newTestView(api, nil)
	ctx := context.Background()
	if err := v.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if s := v.TypeBid("16.50"); s.BidInput != "16.50" {
		t.Fatalf("BidInput = %q", s.BidInput)
	}
	verdict, err := v.SubmitBid(ctx)
	if err != nil || !verdict.Accepted {
		t.Fatalf("SubmitBid = %+v, %v", verdict, err)
	}
	if len(api.bids) != 1 || api.bids[0] != 1650 {
		t.Errorf("posted bids = %v; want [16.50]", api.bids)
	}
}

func TestSubmitBid_TransportFailureKeepsAlertAndState(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	sink := &recordingSink{}
	v := newTestView(api, sink)
	ctx := context.Background()
	if err := v.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	// Leave a validation alert behind, then fail the next submission.
	if _, err := v.PlaceBid(ctx, "1"); err != nil {
		t.Fatalf("PlaceBid: %v", err)
	}
	api.failNext["bid"] = errors.New("502 bad gateway")
	before := v.State()

	verdict, err := v.PlaceBid(ctx, "30")
	if err == nil {
		t.Fatal("PlaceBid expected transport error")
	}
	if !verdict.Accepted {
		t.Errorf("verdict = %+v; want accepted", verdict)
	}
	s := v.State()
	if s.Alert != before.Alert || s.CurrentBid != before.CurrentBid || s.BidCount != before.BidCount {
		t.Errorf("state changed after failed submit: %+v", s)
	}
	if len(sink.ops) != 1 || sink.ops[0] != "submit bid" {
		t.Errorf("sink ops = %v", sink.ops)
	}
	if calls := api.callLog(); calls[len(calls)-1] != "bid" {
		t.Errorf("refresh ran after failed submit: %v", calls)
	}
}

func TestAddWatcher_RefreshesProduct(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	v := newTestView(api, nil)
	ctx := context.Background()
	if err := v.Mount(ctx); err != nil {
		t.Fatalf("Mount: %v", err)
	}

	if err := v.AddWatcher(ctx); err != nil {
		t.Fatalf("AddWatcher: %v", err)
	}
	if s := v.State(); s.Watchers != 4 {
		t.Errorf("Watchers = %d; want 4", s.Watchers)
	}

	sink := &recordingSink{}
	v = newTestView(api, sink)
	api.failNext["watcher"] = errors.New("down")
	if err := v.AddWatcher(ctx); err == nil {
		t.Fatal("AddWatcher expected error")
	}
	if s := v.State(); s != Initial(1) {
		t.Errorf("state changed after failed watcher: %+v", s)
	}
	if len(sink.ops) != 1 || sink.ops[0] != "add watcher" {
		t.Errorf("sink ops = %v", sink.ops)
	}
}

func TestOnChange_ReceivesCommits(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	v := newTestView(api, nil)

	var seen []State
	v.OnChange(func(s State) { seen = append(seen, s) })

	if err := v.Mount(context.Background()); err != nil {
		t.Fatalf("Mount: %v", err)
	}
	if len(seen) != 2 {
		t.Fatalf("listener saw %d states; want 2", len(seen))
	}
	if !seen[0].ProductLoaded || seen[0].BidsLoaded {
		t.Errorf("first commit = %+v; want product only", seen[0])
	}
	if !seen[1].BidsLoaded {
		t.Errorf("second commit = %+v; want bids loaded", seen[1])
	}
}

func TestOnChange_LastDeliveryIsLatestCommit(t *testing.T) {
	v := newTestView(newFakeAuction(1000, 1500, 2, 120), nil)

	entered := make(chan struct{})
	release := make(chan struct{})
	var (
		mu   sync.Mutex
		last string
		once sync.Once
	)
	v.OnChange(func(s State) {
		once.Do(func() {
			close(entered)
			<-release
		})
		mu.Lock()
		last = s.BidInput
		mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		v.TypeBid("a")
	}()
	<-entered

	second := make(chan struct{})
	go func() {
		defer close(second)
		v.TypeBid("b")
	}()
	deadline := time.Now().Add(2 * time.Second)
	for v.State().BidInput != "b" {
		if time.Now().After(deadline) {
			t.Fatal("second commit never landed")
		}
		time.Sleep(time.Millisecond)
	}

	close(release)
	<-done
	<-second

	mu.Lock()
	defer mu.Unlock()
	if last != "b" {
		t.Errorf("last delivered = %q; want %q", last, "b")
	}
}

func TestRefresh_MismatchedProductIDIsRejected(t *testing.T) {
	api := newFakeAuction(1000, 1500, 2, 120)
	api.product.ID = 99
	sink := &recordingSink{}
	v := newTestView(api, sink)

	err := v.Mount(context.Background())
	if !errors.Is(err, domain.ErrBadResponse) {
		t.Fatalf("Mount error = %v; want ErrBadResponse", err)
	}
	if s := v.State(); s.ID != 1 || s.ProductLoaded {
		t.Errorf("state = %+v; want placeholder for product 1", s)
	}
	if calls := api.callLog(); !equalCalls(calls, []string{"product"}) {
		t.Errorf("calls = %v; want product only", calls)
	}

	api.product.ID = 0
	if err := v.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh with omitted id: %v", err)
	}
	if s := v.State(); s.ID != 1 || !s.ProductLoaded {
		t.Errorf("state = %+v; want product 1 loaded", s)
	}
}
