package verc20

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// IndexerClient talks to the vERC-20 indexer HTTP API. It is a plain JSON
// client; all write endpoints are bookkeeping calls that follow an on-chain
// action and never move funds themselves.
type IndexerClient struct {
	host   string
	client *http.Client
}

// NewIndexerClient creates a client for the indexer at host (no trailing
// slash required).
func NewIndexerClient(host string) *IndexerClient {
	return &IndexerClient{
		host: strings.TrimRight(host, "/"),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// doRequest performs an HTTP request with an optional JSON body.
func (c *IndexerClient) doRequest(ctx context.Context, method, endpoint string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewBuffer(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.host+endpoint, reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &IndexerError{Endpoint: endpoint, Message: err.Error()}
	}
	return resp, nil
}

// decodeJSONResponse reads the body, maps non-2xx statuses to IndexerError,
// and decodes JSON into result (which may be nil for write endpoints).
func (c *IndexerClient) decodeJSONResponse(endpoint string, resp *http.Response, result interface{}) error {
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return &IndexerError{Endpoint: endpoint, Status: resp.StatusCode, Message: "read response body: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := strings.TrimSpace(string(bodyBytes))
		if msg == "" {
			msg = resp.Status
		}
		return &IndexerError{Endpoint: endpoint, Status: resp.StatusCode, Message: msg}
	}

	if result == nil {
		return nil
	}
	if err := json.Unmarshal(bodyBytes, result); err != nil {
		msg := string(bodyBytes)
		if len(msg) > 200 {
			msg = msg[:200] + "..."
		}
		return &IndexerError{Endpoint: endpoint, Status: resp.StatusCode,
			Message: fmt.Sprintf("decode response: %v (body: %s)", err, msg)}
	}
	return nil
}

func (c *IndexerClient) get(ctx context.Context, endpoint string, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	return c.decodeJSONResponse(endpoint, resp, result)
}

func (c *IndexerClient) post(ctx context.Context, endpoint string, body, result interface{}) error {
	resp, err := c.doRequest(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return err
	}
	return c.decodeJSONResponse(endpoint, resp, result)
}

// PageQuery carries the pagination arguments shared by every list endpoint.
type PageQuery struct {
	Offset int
	Limit  int
}

func (q PageQuery) values() url.Values {
	v := url.Values{}
	v.Set("offset", fmt.Sprintf("%d", q.Offset))
	if q.Limit > 0 {
		v.Set("limit", fmt.Sprintf("%d", q.Limit))
	}
	return v
}

// TokenQuery filters the /tokens listing.
type TokenQuery struct {
	PageQuery
	Tick   string
	Type   TokenType
	Status string
	Sort   string
	Order  string
}

// GetTokens fetches the token list with filters and pagination.
func (c *IndexerClient) GetTokens(ctx context.Context, q TokenQuery) (*TokenListResponse, error) {
	v := q.values()
	if q.Tick != "" {
		v.Set("tick", q.Tick)
	}
	if q.Type != "" {
		v.Set("type", string(q.Type))
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}

	var result TokenListResponse
	if err := c.get(ctx, "/tokens?"+v.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetToken fetches one token. A 404 maps to ErrTickNotFound, which deploy
// flows read as "tick is available".
func (c *IndexerClient) GetToken(ctx context.Context, tick string) (*Token, error) {
	var result Token
	err := c.get(ctx, "/tokens/"+url.PathEscape(tick), &result)
	if err != nil {
		var ie *IndexerError
		if errors.As(err, &ie) && ie.Status == http.StatusNotFound {
			return nil, errors.Wrapf(ErrTickNotFound, "tick %s", tick)
		}
		return nil, err
	}
	return &result, nil
}

// GetTokenHolders fetches the holder list of a token.
func (c *IndexerClient) GetTokenHolders(ctx context.Context, tick string, page PageQuery) (*HolderListResponse, error) {
	var result HolderListResponse
	endpoint := "/tokens/" + url.PathEscape(tick) + "/holders?" + page.values().Encode()
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetTokenHistories fetches the activity history of a token.
func (c *IndexerClient) GetTokenHistories(ctx context.Context, tick string, page PageQuery) (*HistoryListResponse, error) {
	var result HistoryListResponse
	endpoint := "/tokens/" + url.PathEscape(tick) + "/histories?" + page.values().Encode()
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHolderBalances fetches an address's balances, optionally filtered to a
// single tick.
func (c *IndexerClient) GetHolderBalances(ctx context.Context, address, tick string, page PageQuery) (*HolderBalances, error) {
	v := page.values()
	if tick != "" {
		v.Set("tick", tick)
	}
	var result HolderBalances
	endpoint := "/holders/" + url.PathEscape(address) + "?" + v.Encode()
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetHolderHistories fetches an address's transaction history.
func (c *IndexerClient) GetHolderHistories(ctx context.Context, address string, page PageQuery) (*HistoryListResponse, error) {
	var result HistoryListResponse
	endpoint := "/holders/" + url.PathEscape(address) + "/histories?" + page.values().Encode()
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMarketTokens fetches market-enriched token statistics.
func (c *IndexerClient) GetMarketTokens(ctx context.Context, q TokenQuery) (*MarketTokenListResponse, error) {
	v := q.values()
	if q.Tick != "" {
		v.Set("tick", q.Tick)
	}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Order != "" {
		v.Set("order", q.Order)
	}
	var result MarketTokenListResponse
	if err := c.get(ctx, "/market/tokens?"+v.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMarketToken fetches the market statistics of one token.
func (c *IndexerClient) GetMarketToken(ctx context.Context, tick string) (*MarketToken, error) {
	var result MarketToken
	if err := c.get(ctx, "/market/tokens/"+url.PathEscape(tick), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetPriceSeries fetches the price time series of a token for charting.
func (c *IndexerClient) GetPriceSeries(ctx context.Context, tick, interval string) ([]PricePoint, error) {
	var result []PricePoint
	endpoint := "/market/tokens/" + url.PathEscape(tick) + "/price?interval=" + url.QueryEscape(interval)
	if err := c.get(ctx, endpoint, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// OrderQuery filters the /market/orders listing. Type is "ask", "bid" or
// empty for both.
type OrderQuery struct {
	PageQuery
	Tick  string
	Type  string
	Owner string
}

// GetOrders fetches open orders.
func (c *IndexerClient) GetOrders(ctx context.Context, q OrderQuery) (*OrderListResponse, error) {
	v := q.values()
	if q.Tick != "" {
		v.Set("tick", q.Tick)
	}
	if q.Type != "" {
		v.Set("type", q.Type)
	}
	if q.Owner != "" {
		v.Set("owner", q.Owner)
	}
	var result OrderListResponse
	if err := c.get(ctx, "/market/orders?"+v.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// PublishOrder stores a signed order. The listing transaction must already
// be confirmed; a failure here after that confirmation is the caller's
// inconsistency case, not this method's.
func (c *IndexerClient) PublishOrder(ctx context.Context, req *CreateOrderRequest) error {
	return c.post(ctx, "/market/orders", req, nil)
}

// FreezeOrder attests a bid maker's committed funds ahead of execution.
func (c *IndexerClient) FreezeOrder(ctx context.Context, orderID int64, req *FreezeRequest) error {
	return c.post(ctx, fmt.Sprintf("/market/orders/%d/freeze", orderID), req, nil)
}

// RecordExecution records a settlement transaction hash against an order.
func (c *IndexerClient) RecordExecution(ctx context.Context, orderID int64, txHash string) error {
	return c.post(ctx, fmt.Sprintf("/market/orders/%d/execute", orderID), &SettleRequest{Tx: txHash}, nil)
}

// RecordCancellation records a cancellation transaction hash against an order.
func (c *IndexerClient) RecordCancellation(ctx context.Context, orderID int64, txHash string) error {
	return c.post(ctx, fmt.Sprintf("/market/orders/%d/cancel", orderID), &SettleRequest{Tx: txHash}, nil)
}

// GetActivities fetches the trade, listing and cancel activity feed.
func (c *IndexerClient) GetActivities(ctx context.Context, tick string, page PageQuery) (*ActivityListResponse, error) {
	v := page.values()
	if tick != "" {
		v.Set("tick", tick)
	}
	var result ActivityListResponse
	if err := c.get(ctx, "/market/activities?"+v.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetStatus fetches the indexer's sync status.
func (c *IndexerClient) GetStatus(ctx context.Context) (*IndexerStatus, error) {
	var result IndexerStatus
	if err := c.get(ctx, "/status", &result); err != nil {
		return nil, err
	}
	return &result, nil
}
