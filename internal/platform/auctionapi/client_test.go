package auctionapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/auctionview/internal/domain"
)

func TestGetProduct(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/auction/product" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("id"); got != "42" {
			t.Errorf("id = %q; want 42", got)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"id":42,"condition":"Used","minimum":12.5,"watchers":8,"createdAt":"2024-03-01T09:30:00Z"}`)
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, time.Second).GetProduct(context.Background(), 42)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	want := domain.Product{
		ID:        42,
		Condition: "Used",
		Minimum:   1250,
		Watchers:  8,
		CreatedAt: time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
	}
	if p.ID != want.ID || p.Condition != want.Condition || p.Minimum != want.Minimum ||
		p.Watchers != want.Watchers || !p.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("GetProduct = %+v; want %+v", p, want)
	}
}

func TestGetProduct_EpochMillis(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":1,"condition":"New","minimum":"10","watchers":0,"createdAt":1709285400000}`)
	}))
	defer srv.Close()

	p, err := NewClient(srv.URL, 0).GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if !p.CreatedAt.Equal(time.UnixMilli(1709285400000)) {
		t.Errorf("CreatedAt = %v", p.CreatedAt)
	}
	if p.Minimum != 1000 {
		t.Errorf("Minimum = %s; want 10.00", p.Minimum)
	}
}

func TestGetProduct_MinimumOutOfRange(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"id":1,"condition":"New","minimum":92233720368547758.08,"watchers":0,"createdAt":0}`)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, time.Second).GetProduct(context.Background(), 1); !errors.Is(err, domain.ErrBadResponse) {
		t.Errorf("GetProduct error = %v; want ErrBadResponse", err)
	}
}

func TestGetBids(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		want    domain.BidSummary
		wantErr error
	}{
		{"pair", `[3, 15.5]`, domain.BidSummary{Count: 3, Current: 1550}, nil},
		{"rounds to cents", `[1, 15.005]`, domain.BidSummary{Count: 1, Current: 1501}, nil},
		{"short", `[3]`, domain.BidSummary{}, domain.ErrBadResponse},
		{"fractional count", `[1.5, 10]`, domain.BidSummary{}, domain.ErrBadResponse},
		{"negative count", `[-1, 10]`, domain.BidSummary{}, domain.ErrBadResponse},
		{"object", `{"count":1}`, domain.BidSummary{}, domain.ErrBadResponse},
		{"current out of range", `[1, 184467440737095566.16]`, domain.BidSummary{}, domain.ErrBadResponse},
		{"count out of range", `[18446744073709551616, 10]`, domain.BidSummary{}, domain.ErrBadResponse},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/api/auction/bids" || r.URL.Query().Get("productId") != "7" {
					t.Errorf("unexpected request %s", r.URL)
				}
				io.WriteString(w, tt.body)
			}))
			defer srv.Close()

			got, err := NewClient(srv.URL, time.Second).GetBids(context.Background(), 7)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("GetBids error = %v; want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("GetBids: %v", err)
			}
			if got != tt.want {
				t.Errorf("GetBids = %+v; want %+v", got, tt.want)
			}
		})
	}
}

func TestPostBid(t *testing.T) {
	var gotBody map[string]json.RawMessage
	var requestID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/auction/bid" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		requestID = r.Header.Get("X-Request-ID")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).PostBid(context.Background(), 3, 2000); err != nil {
		t.Fatalf("PostBid: %v", err)
	}
	if string(gotBody["id"]) != "3" || string(gotBody["bidAmount"]) != "20.00" {
		t.Errorf("body = id:%s bidAmount:%s", gotBody["id"], gotBody["bidAmount"])
	}
	if _, err := uuid.Parse(requestID); err != nil {
		t.Errorf("X-Request-ID %q is not a uuid: %v", requestID, err)
	}
}

func TestPostWatcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		if r.URL.Path != "/api/auction/watcher" || strings.TrimSpace(string(body)) != `{"id":3}` {
			t.Errorf("unexpected request %s %s", r.URL.Path, body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	if err := NewClient(srv.URL, time.Second).PostWatcher(context.Background(), 3); err != nil {
		t.Fatalf("PostWatcher: %v", err)
	}
}

func TestStatusMapping(t *testing.T) {
	tests := []struct {
		status int
		want   error
	}{
		{http.StatusNotFound, domain.ErrNotFound},
		{http.StatusUnauthorized, domain.ErrUnauthorized},
		{http.StatusForbidden, domain.ErrUnauthorized},
		{http.StatusTooManyRequests, domain.ErrRateLimited},
	}

	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "nope", tt.status)
		}))
		err := NewClient(srv.URL, time.Second).PostWatcher(context.Background(), 1)
		srv.Close()
		if !errors.Is(err, tt.want) {
			t.Errorf("status %d: error = %v; want %v", tt.status, err, tt.want)
		}
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()
	err := NewClient(srv.URL, time.Second).PostWatcher(context.Background(), 1)
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("500 error = %v", err)
	}
}

func TestContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[0, 0]`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewClient(srv.URL, 0).GetBids(ctx, 1); !errors.Is(err, context.Canceled) {
		t.Errorf("GetBids error = %v; want context.Canceled", err)
	}
}
