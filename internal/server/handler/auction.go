package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/auctionview/internal/bidding"
	"github.com/alanyoungcy/auctionview/internal/view"
)

// AuctionService is the behaviour the auction endpoints need.
type AuctionService interface {
	State() view.State
	Refresh(ctx context.Context) error
	PlaceBid(ctx context.Context, input string) (bidding.Verdict, view.State, error)
	AddWatcher(ctx context.Context) (view.State, error)
	Validate(input, current, minimum, secondsLeft string) bidding.Verdict
}

// AuctionHandler serves the auction view endpoints.
type AuctionHandler struct {
	svc    AuctionService
	logger *slog.Logger
}

// NewAuctionHandler creates an AuctionHandler.
func NewAuctionHandler(svc AuctionService, logger *slog.Logger) *AuctionHandler {
	return &AuctionHandler{svc: svc, logger: logHandler(logger, "auction")}
}

type bidRequest struct {
	Bid text `json:"bid"`
}

type bidResponse struct {
	Verdict bidding.Verdict `json:"verdict"`
	State   view.State      `json:"state"`
	Error   string          `json:"error,omitempty"`
}

type validateRequest struct {
	Bid         text `json:"bid"`
	Current     text `json:"current"`
	Minimum     text `json:"minimum"`
	SecondsLeft text `json:"secondsLeft"`
}

type stateResponse struct {
	State view.State `json:"state"`
	Error string     `json:"error,omitempty"`
}

// GetState returns the current view state.
// GET /api/auction
func (h *AuctionHandler) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, stateResponse{State: h.svc.State()})
}

// Refresh re-runs the fetch chain. On failure the stale state is returned
// alongside the error.
// POST /api/auction/refresh
func (h *AuctionHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Refresh(r.Context()); err != nil {
		writeJSON(w, statusFor(err), stateResponse{State: h.svc.State(), Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: h.svc.State()})
}

// PlaceBid types and submits a bid. A rejected bid responds 422 with the
// alert; a transport failure responds with the mapped upstream status.
// POST /api/auction/bid
func (h *AuctionHandler) PlaceBid(w http.ResponseWriter, r *http.Request) {
	var req bidRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	verdict, st, err := h.svc.PlaceBid(r.Context(), string(req.Bid))
	switch {
	case !verdict.Accepted:
		writeJSON(w, http.StatusUnprocessableEntity, bidResponse{Verdict: verdict, State: st, Error: verdict.Alert})
	case err != nil:
		h.logger.WarnContext(r.Context(), "handler: place bid failed",
			slog.Int64("product_id", st.ID),
			slog.String("error", err.Error()),
		)
		writeJSON(w, statusFor(err), bidResponse{Verdict: verdict, State: st, Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, bidResponse{Verdict: verdict, State: st})
	}
}

// AddWatcher registers a watcher.
// POST /api/auction/watcher
func (h *AuctionHandler) AddWatcher(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.AddWatcher(r.Context())
	if err != nil {
		writeJSON(w, statusFor(err), stateResponse{State: st, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{State: st})
}

// Validate runs the bid rules against a caller-supplied context without
// touching the view. The verdict is returned with 200 either way.
// POST /api/auction/validate
func (h *AuctionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	var req validateRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Validate(string(req.Bid), string(req.Current), string(req.Minimum), string(req.SecondsLeft)))
}
