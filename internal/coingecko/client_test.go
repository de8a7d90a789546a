package coingecko

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetchCoin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/bitcoin" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("x-cg-demo-api-key"); got != "test-key" {
			t.Fatalf("expected api key header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "bitcoin",
			"symbol": "btc",
			"name": "Bitcoin",
			"image": {"thumb": "https://img.example/btc.png"},
			"detail_platforms": {"": {"contract_address": ""}}
		}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL, APIKey: "test-key"})
	details, err := client.FetchCoin(context.Background(), "bitcoin")
	if err != nil {
		t.Fatalf("FetchCoin returned error: %v", err)
	}
	if details.ID != "bitcoin" || details.Symbol != "btc" || details.Name != "Bitcoin" {
		t.Fatalf("unexpected details: %+v", details)
	}
	if details.Image != "https://img.example/btc.png" {
		t.Fatalf("expected thumb image, got %q", details.Image)
	}
	if details.ContractAddress != "" {
		t.Fatalf("expected no contract address for a native coin, got %q", details.ContractAddress)
	}
}

func TestFetchCoinContractAddress(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chainlink",
			"symbol": "link",
			"name": "Chainlink",
			"image": {"thumb": "https://img.example/link.png"},
			"detail_platforms": {"ethereum": {"contract_address": "0x514910771af9ca656af840dff83e8264ecf986ca"}}
		}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	details, err := client.FetchCoin(context.Background(), "chainlink")
	if err != nil {
		t.Fatalf("FetchCoin returned error: %v", err)
	}
	if details.ContractAddress != "0x514910771af9ca656af840dff83e8264ecf986ca" {
		t.Fatalf("expected contract address, got %q", details.ContractAddress)
	}
}

func TestFetchCoinNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "coin not found"}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	if _, err := client.FetchCoin(context.Background(), "no-such-coin"); !errors.Is(err, ErrCoinNotFound) {
		t.Fatalf("expected ErrCoinNotFound, got: %v", err)
	}
}

func TestFetchCoinUpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"status": {"error_message": "internal error"}}`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	if _, err := client.FetchCoin(context.Background(), "bitcoin"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream, got: %v", err)
	}
}

func TestFetchCoinConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	if _, err := client.FetchCoin(context.Background(), "bitcoin"); !errors.Is(err, ErrUpstream) {
		t.Fatalf("expected ErrUpstream for a dead server, got: %v", err)
	}
}

func TestListCoins(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/coins/list" {
			t.Fatalf("unexpected path %q", r.URL.Path)
		}
		if got := r.URL.Query().Get("include_platform"); got != "true" {
			t.Fatalf("expected include_platform=true, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id": "bitcoin", "symbol": "btc", "name": "Bitcoin", "platforms": {}},
			{"id": "chainlink", "symbol": "link", "name": "Chainlink", "platforms": {"ethereum": "0x5149"}}
		]`))
	}))
	defer srv.Close()

	client := NewClient(Options{BaseURL: srv.URL})
	coins, err := client.ListCoins(context.Background())
	if err != nil {
		t.Fatalf("ListCoins returned error: %v", err)
	}
	if len(coins) != 2 {
		t.Fatalf("expected 2 coins, got %d", len(coins))
	}
	if coins[1].Platforms["ethereum"] != "0x5149" {
		t.Fatalf("platform map not decoded: %+v", coins[1])
	}
}
