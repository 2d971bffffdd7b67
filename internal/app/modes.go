package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/auctionview/internal/domain"
	"github.com/alanyoungcy/auctionview/internal/server"
	"github.com/alanyoungcy/auctionview/internal/server/handler"
	"github.com/alanyoungcy/auctionview/internal/server/ws"
	"github.com/alanyoungcy/auctionview/internal/view"
)

// Transport failures in the CLI modes are logged by the view's sink and the
// stale state is still printed; they do not fail the command.

// ShowMode loads the auction and prints it.
func (a *App) ShowMode(ctx context.Context, deps *Dependencies) error {
	a.mount(ctx, deps)
	return render(a.opts.Out, deps.Service.State())
}

// BidMode loads the auction, places amount and prints the result.
func (a *App) BidMode(ctx context.Context, deps *Dependencies, amount string) error {
	a.mount(ctx, deps)

	verdict, st, err := deps.Service.PlaceBid(ctx, amount)
	if err != nil {
		a.logger.WarnContext(ctx, "app: bid not confirmed", slog.String("error", err.Error()))
	}
	if verdict.Accepted && err == nil {
		fmt.Fprintf(a.opts.Out, "Bid of $%s placed.\n\n", verdict.Amount)
	}
	return render(a.opts.Out, st)
}

// WatchMode loads the auction, registers a watcher and prints the result.
func (a *App) WatchMode(ctx context.Context, deps *Dependencies) error {
	a.mount(ctx, deps)

	st, err := deps.Service.AddWatcher(ctx)
	if err != nil {
		a.logger.WarnContext(ctx, "app: watcher not added", slog.String("error", err.Error()))
	}
	return render(a.opts.Out, st)
}

func (a *App) mount(ctx context.Context, deps *Dependencies) {
	if err := deps.Service.Mount(ctx); err != nil {
		a.logger.WarnContext(ctx, "app: auction not fully loaded", slog.String("error", err.Error()))
	}
}

// ServeMode runs the HTTP and WebSocket front until ctx is cancelled.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", a.cfg.Server.Port))
	if err != nil {
		return fmt.Errorf("serve mode: listen: %w", err)
	}
	return a.serve(ctx, deps, ln)
}

func (a *App) serve(ctx context.Context, deps *Dependencies, ln net.Listener) error {
	a.logger.InfoContext(ctx, "starting serve mode", slog.String("addr", ln.Addr().String()))

	g, ctx := errgroup.WithContext(ctx)

	// State publisher.
	g.Go(func() error {
		return deps.Service.Run(ctx)
	})

	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, ws.Config{
			Channel:        domain.StateChannel(a.cfg.Auction.ProductID),
			Snapshot:       func() any { return deps.Service.State() },
			AllowedOrigins: a.cfg.Server.CORSOrigins,
		}, a.logger.With(slog.String("component", "ws")))
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	var ping func(context.Context) error
	if deps.Redis != nil {
		ping = deps.Redis.Ping
	}
	srv := server.NewServer(server.Config{
		Port:          a.cfg.Server.Port,
		CORSOrigins:   a.cfg.Server.CORSOrigins,
		APIKey:        a.cfg.Server.APIKey,
		BidRateLimit:  a.cfg.Server.BidRateLimit,
		BidRateWindow: a.cfg.Server.BidRateWindow.Duration,

		UpstreamTimeout: a.cfg.Auction.RequestTimeout.Duration,
	}, server.Handlers{
		Health:  handler.NewHealthHandler(ping, a.logger),
		Auction: handler.NewAuctionHandler(deps.Service, a.logger),
	}, deps.RateLimiter, hub, a.logger.With(slog.String("component", "server")))

	g.Go(func() error {
		return srv.Serve(ln)
	})

	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})

	// Initial load; a failure leaves the placeholder state until the next
	// refresh request.
	g.Go(func() error {
		if err := deps.Service.Mount(ctx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.WarnContext(ctx, "serve mode: initial load failed", slog.String("error", err.Error()))
		}
		return nil
	})

	return g.Wait()
}

// render writes a plain-text rendering of st.
func render(w io.Writer, st view.State) error {
	var err error
	printf := func(format string, args ...any) {
		if err == nil {
			_, err = fmt.Fprintf(w, format, args...)
		}
	}

	printf("Auction %d", st.ID)
	if st.Condition != "" {
		printf(" (%s)", st.Condition)
	}
	printf("\n")

	if !st.ProductLoaded {
		printf("Loading...\n")
		return err
	}
	if st.BidsLoaded {
		printf("Current bid:  $%s  [%s]\n", st.CurrentBid, st.BidCountLabel)
		printf("              %s\n", st.Message)
	}
	printf("Minimum bid:  $%s\n", st.Minimum)
	if st.TimeLeft.Ended() {
		printf("Time left:    ended\n")
	} else {
		printf("Time left:    %s  (%s)\n", st.TimeLeft, st.EndDate)
	}
	printf("Watchers:     %d\n", st.Watchers)
	if st.Alert != "" {
		printf("\n%s\n", st.Alert)
	}
	return err
}
