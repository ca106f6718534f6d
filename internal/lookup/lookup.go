package lookup

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// PairPrice is the live quote for a single trading pair.
type PairPrice struct {
	PairAddress string
	Chain       string
	TokenName   string
	TokenSymbol string
	PriceUSD    float64
	Change24h   float64
	MarketCap   float64
}

// Client fetches pair quotes from a DexScreener-compatible API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Fetch returns the current quote for the given pair address. Any transport,
// decoding or empty-result problem is an error; a failed fetch must never be
// read as "price is zero".
func (c *Client) Fetch(ctx context.Context, pairAddress string) (*PairPrice, error) {
	url := c.baseURL + "/latest/dex/pairs/" + pairAddress

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "could not build pair lookup request")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "pair lookup failed for %s", pairAddress)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.Errorf("pair lookup for %s returned status %d", pairAddress, resp.StatusCode)
	}

	var payload struct {
		Pairs []struct {
			ChainID     string `json:"chainId"`
			PairAddress string `json:"pairAddress"`
			BaseToken   struct {
				Name   string `json:"name"`
				Symbol string `json:"symbol"`
			} `json:"baseToken"`
			PriceUSD    string `json:"priceUsd"`
			PriceChange struct {
				H24 float64 `json:"h24"`
			} `json:"priceChange"`
			MarketCap float64 `json:"marketCap"`
		} `json:"pairs"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, errors.Wrapf(err, "could not parse pair lookup response for %s", pairAddress)
	}

	if len(payload.Pairs) == 0 {
		return nil, errors.Errorf("no pair data for %s", pairAddress)
	}

	best := payload.Pairs[0]
	priceUSD, err := strconv.ParseFloat(best.PriceUSD, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "unparseable price %q for %s", best.PriceUSD, pairAddress)
	}

	log.Debugf("fetched pair %s: %s (%s) priceUsd=%f", pairAddress, best.BaseToken.Name, best.BaseToken.Symbol, priceUSD)

	return &PairPrice{
		PairAddress: best.PairAddress,
		Chain:       best.ChainID,
		TokenName:   best.BaseToken.Name,
		TokenSymbol: best.BaseToken.Symbol,
		PriceUSD:    priceUSD,
		Change24h:   best.PriceChange.H24,
		MarketCap:   best.MarketCap,
	}, nil
}
