package marketdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"options-backtester/internal/errors"
	"options-backtester/internal/models"
	"options-backtester/pkg/utils"
)

// FyersConfig holds configuration for the Fyers API client.
type FyersConfig struct {
	ClientID  string
	TokenFile string
	BaseURL   string
	Timeframe string // candle resolution, e.g. "D"
}

// FyersClient implements Provider against the Fyers API v3 data endpoints.
// The access token is read from a token file; the interactive OAuth flow
// that produces it is outside this client's scope.
type FyersClient struct {
	clientID    string
	accessToken string
	baseURL     string
	timeframe   string
	client      *http.Client
}

// NewFyersClient creates a new Fyers API client. Returns
// errors.ErrNotAuthenticated when no access token can be loaded.
func NewFyersClient(cfg FyersConfig) (*FyersClient, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api-t1.fyers.in"
	}
	if cfg.Timeframe == "" {
		cfg.Timeframe = "D"
	}

	token, err := loadAccessToken(cfg.TokenFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrNotAuthenticated, "reading access token")
	}

	return &FyersClient{
		clientID:    cfg.ClientID,
		accessToken: token,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		timeframe:   cfg.Timeframe,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

func loadAccessToken(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("token file %s is empty", path)
	}
	return token, nil
}

// historyResponse mirrors the Fyers history endpoint payload. Candles come
// back as [timestamp, open, high, low, close, volume] arrays.
type historyResponse struct {
	Status  string      `json:"s"`
	Candles [][]float64 `json:"candles"`
}

// chainResponse mirrors the Fyers option chain endpoint payload.
type chainResponse struct {
	Status string `json:"s"`
	Data   struct {
		OptionsChain []struct {
			Symbol      string  `json:"symbol"`
			OptionType  string  `json:"option_type"` // "CE" / "PE"
			StrikePrice float64 `json:"strike_price"`
			LTP         float64 `json:"ltp"`
			Delta       float64 `json:"delta"`
		} `json:"optionsChain"`
	} `json:"data"`
}

// FetchHistory fetches historical candles for a symbol. An empty slice
// means the range holds no data.
func (f *FyersClient) FetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.Candle, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("resolution", f.timeframe)
	q.Set("date_format", "1")
	q.Set("range_from", from.Format("2006-01-02"))
	q.Set("range_to", to.Format("2006-01-02"))
	q.Set("cont_flag", "1")

	var resp historyResponse
	if err := f.get(ctx, "/data/history", q, &resp); err != nil {
		return nil, errors.NewDataError("history", symbol, "fetching history", err)
	}
	if resp.Status != "ok" {
		return []models.Candle{}, nil
	}

	candles := make([]models.Candle, 0, len(resp.Candles))
	for _, row := range resp.Candles {
		if len(row) < 6 {
			continue
		}
		candles = append(candles, models.Candle{
			Timestamp: time.Unix(int64(row[0]), 0),
			Open:      row[1],
			High:      row[2],
			Low:       row[3],
			Close:     row[4],
			Volume:    int64(row[5]),
		})
	}
	return candles, nil
}

// FetchOptionChain fetches the current option chain snapshot for an
// underlying. Fyers serves the nearest expiry by default.
func (f *FyersClient) FetchOptionChain(ctx context.Context, underlying string) (*models.OptionChain, error) {
	q := url.Values{}
	q.Set("symbol", underlying)
	q.Set("strikecount", "20")

	var resp chainResponse
	if err := f.get(ctx, "/data/options-chain-v3", q, &resp); err != nil {
		return nil, errors.NewDataError("option_chain", underlying, "fetching chain", errors.ErrChainUnavailable)
	}
	if resp.Status != "ok" || len(resp.Data.OptionsChain) == 0 {
		return nil, errors.NewDataError("option_chain", underlying, "no chain in response", errors.ErrChainUnavailable)
	}

	chain := &models.OptionChain{Underlying: underlying}
	for _, row := range resp.Data.OptionsChain {
		var typ models.OptionType
		switch row.OptionType {
		case "CE":
			typ = models.OptionTypeCall
		case "PE":
			typ = models.OptionTypePut
		default:
			continue
		}
		chain.Contracts = append(chain.Contracts, models.OptionContract{
			Symbol: row.Symbol,
			Type:   typ,
			Strike: row.StrikePrice,
			LTP:    row.LTP,
			Delta:  row.Delta,
		})
	}
	return chain, nil
}

// FetchDailyClose fetches the closing price of a contract for a single day.
func (f *FyersClient) FetchDailyClose(ctx context.Context, optionSymbol string, day time.Time) (float64, error) {
	candles, err := f.FetchHistory(ctx, optionSymbol, day, day)
	if err != nil {
		return 0, err
	}
	if len(candles) == 0 {
		return 0, errors.NewDataError("daily_close", optionSymbol, day.Format("2006-01-02"), errors.ErrPriceUnavailable)
	}
	return candles[0].Close, nil
}

// get issues an authorized GET with retry on transport errors and server
// errors. Auth failures are terminal and never retried.
func (f *FyersClient) get(ctx context.Context, path string, q url.Values, out interface{}) error {
	var terminal error
	err := utils.Retry(ctx, utils.DefaultRetryConfig(), func() error {
		err := f.getOnce(ctx, path, q, out)
		if errors.Is(err, errors.ErrNotAuthenticated) {
			terminal = err
			return nil
		}
		return err
	})
	if terminal != nil {
		return terminal
	}
	return err
}

func (f *FyersClient) getOnce(ctx context.Context, path string, q url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("%s:%s", f.clientID, f.accessToken))

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return errors.ErrNotAuthenticated
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
