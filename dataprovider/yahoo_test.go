package dataprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const quoteFixture = `{
	"quoteResponse": {
		"result": [
			{"symbol": "AAPL", "currency": "USD", "longName": "Apple Inc."},
			{"symbol": "VTI", "currency": "USD", "shortName": "Vanguard Total Stock Market"}
		]
	}
}`

func TestYahooLookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v7/finance/quote" {
			t.Errorf("Unexpected request path: %s", r.URL.Path)
		}
		w.Write([]byte(quoteFixture))
	}))
	defer server.Close()

	service := NewYahooService(server.URL)

	profiles, err := service.Lookup(context.Background(), []Item{
		{DataSource: "YAHOO", Symbol: "AAPL"},
		{DataSource: "YAHOO", Symbol: "VTI"},
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if len(profiles) != 2 {
		t.Fatalf("Expected 2 profiles, got %d", len(profiles))
	}

	apple, ok := profiles["AAPL"]
	if !ok {
		t.Fatal("Expected profile for AAPL")
	}
	if apple.Name != "Apple Inc." {
		t.Errorf("Expected name Apple Inc., got %s", apple.Name)
	}
	if apple.DataSource != "YAHOO" {
		t.Errorf("Expected data source YAHOO, got %s", apple.DataSource)
	}

	// shortName is the fallback when longName is absent
	if profiles["VTI"].Name != "Vanguard Total Stock Market" {
		t.Errorf("Expected shortName fallback, got %s", profiles["VTI"].Name)
	}
}

func TestYahooLookupUnknownSymbol(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quoteResponse": {"result": []}}`))
	}))
	defer server.Close()

	service := NewYahooService(server.URL)

	profiles, err := service.Lookup(context.Background(), []Item{
		{DataSource: "YAHOO", Symbol: "NOSUCH"},
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}

	if _, ok := profiles["NOSUCH"]; ok {
		t.Error("Expected no profile for unknown symbol")
	}
}

func TestYahooLookupUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	service := NewYahooService(server.URL)

	_, err := service.Lookup(context.Background(), []Item{
		{DataSource: "YAHOO", Symbol: "AAPL"},
	})
	if err == nil {
		t.Error("Expected error for upstream failure, got nil")
	}
}
