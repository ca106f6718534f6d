package lookup

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(handler http.HandlerFunc) (*Client, *httptest.Server) {
	srv := httptest.NewServer(handler)
	return NewClient(srv.URL, 2*time.Second), srv
}

func TestFetchParsesPairResponse(t *testing.T) {
	var gotPath string
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{
			"schemaVersion": "1.0.0",
			"pairs": [{
				"chainId": "ethereum",
				"pairAddress": "0xabc",
				"baseToken": {"name": "Test Token", "symbol": "TST"},
				"priceUsd": "123.45",
				"priceChange": {"h24": -3.2},
				"marketCap": 1500000
			}]
		}`))
	})
	defer srv.Close()

	quote, err := client.Fetch(context.Background(), "0xabc")
	require.NoError(t, err)

	assert.Equal(t, "/latest/dex/pairs/0xabc", gotPath)
	assert.Equal(t, "0xabc", quote.PairAddress)
	assert.Equal(t, "ethereum", quote.Chain)
	assert.Equal(t, "Test Token", quote.TokenName)
	assert.Equal(t, "TST", quote.TokenSymbol)
	assert.Equal(t, 123.45, quote.PriceUSD)
	assert.Equal(t, -3.2, quote.Change24h)
	assert.Equal(t, 1500000.0, quote.MarketCap)
}

func TestFetchErrorOnBadStatus(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})
	defer srv.Close()

	quote, err := client.Fetch(context.Background(), "0xabc")
	assert.Error(t, err)
	assert.Nil(t, quote, "a failed lookup must not look like a zero price")
}

func TestFetchErrorOnEmptyPairs(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"schemaVersion": "1.0.0", "pairs": []}`))
	})
	defer srv.Close()

	quote, err := client.Fetch(context.Background(), "0xabc")
	assert.Error(t, err)
	assert.Nil(t, quote)
}

func TestFetchErrorOnMalformedBody(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>maintenance</html>`))
	})
	defer srv.Close()

	quote, err := client.Fetch(context.Background(), "0xabc")
	assert.Error(t, err)
	assert.Nil(t, quote)
}

func TestFetchErrorOnUnparseablePrice(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"pairs": [{"chainId": "ethereum", "pairAddress": "0xabc", "priceUsd": ""}]}`))
	})
	defer srv.Close()

	quote, err := client.Fetch(context.Background(), "0xabc")
	assert.Error(t, err)
	assert.Nil(t, quote)
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	client, srv := newTestClient(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Second)
	})
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := client.Fetch(ctx, "0xabc")
	assert.Error(t, err)
}
