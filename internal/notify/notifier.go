// Package notify sends auction activity to operator chat channels. A
// notification goes to every registered sender (Telegram, Discord) and is
// filtered by event type.
package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/auctionview/internal/domain"
)

// Event types accepted in the notify.events configuration list.
const (
	EventBidPlaced    = "bid_placed"
	EventBidRejected  = "bid_rejected"
	EventWatcherAdded = "watcher_added"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	// Send delivers a notification with the given title and message body.
	Send(ctx context.Context, title, message string) error
	// Name returns a human-readable identifier for the sender (e.g. "telegram").
	Name() string
}

// Notifier dispatches notifications to one or more Senders, forwarding only
// events in its allowed set. An empty set allows every event.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier that delivers to the given senders.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Enabled reports whether event would be forwarded to at least one sender.
func (n *Notifier) Enabled(event string) bool {
	if n == nil || len(n.senders) == 0 {
		return false
	}
	return len(n.events) == 0 || n.events[event]
}

// Notify sends a notification to all senders if event is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if !n.Enabled(event) {
		if n != nil {
			n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		}
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// BidPlaced announces a bid accepted by the auction service.
func (n *Notifier) BidPlaced(ctx context.Context, productID int64, amount domain.Money) error {
	return n.Notify(ctx, EventBidPlaced,
		"Bid placed",
		fmt.Sprintf("Auction %d: bid of $%s accepted", productID, amount))
}

// BidRejected announces a bid refused by local validation.
func (n *Notifier) BidRejected(ctx context.Context, productID int64, input, alert string) error {
	return n.Notify(ctx, EventBidRejected,
		"Bid rejected",
		fmt.Sprintf("Auction %d: %q rejected: %s", productID, input, alert))
}

// WatcherAdded announces a new watcher on a listing.
func (n *Notifier) WatcherAdded(ctx context.Context, productID int64, watchers int) error {
	return n.Notify(ctx, EventWatcherAdded,
		"Watcher added",
		fmt.Sprintf("Auction %d now has %d watchers", productID, watchers))
}

// dispatch sends to every sender. A failing sender does not stop delivery to
// the rest; failures are joined into the returned error.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	var errs []error
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Errorf("%s: %w", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %w", len(errs), errors.Join(errs...))
	}
	return nil
}
