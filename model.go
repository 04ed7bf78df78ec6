package verc20

import "time"

// TokenType distinguishes capped deployments from fair mints.
type TokenType string

const (
	TokenTypeNormal TokenType = "normal"
	TokenTypeFair   TokenType = "fair"
)

// Token is a token record as the indexer reports it. Numeric fields are
// decimal strings in the token's smallest unit; counters are maintained by
// the indexer and immutable from the client's point of view.
type Token struct {
	Name         string    `json:"name"`
	Decimals     int       `json:"decimals"`
	TotalSupply  string    `json:"total_supply"`
	Minted       string    `json:"minted"`
	Limit        string    `json:"limit,omitempty"`
	StartBlock   uint64    `json:"start_block,omitempty"`
	Duration     uint64    `json:"duration,omitempty"`
	Type         TokenType `json:"type,omitempty"`
	Holders      int       `json:"holders"`
	Transactions int       `json:"transactions"`
	CreatedAt    int64     `json:"created_at"`
	IsVerified   bool      `json:"isVerified,omitempty"`
	IsOfficial   bool      `json:"isOfficial,omitempty"`
}

// TokenListResponse is the paginated /tokens envelope.
type TokenListResponse struct {
	Data  []Token `json:"data"`
	Total int     `json:"total"`
}

// Balance is one holding of an address.
type Balance struct {
	Tick    string `json:"tick"`
	Balance string `json:"balance"`
}

// HolderBalances is the /holders/:address envelope.
type HolderBalances struct {
	Tokens []Balance `json:"tokens"`
}

// Holder is one entry of a token's holder list.
type Holder struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

// HolderListResponse is the paginated /tokens/:tick/holders envelope.
type HolderListResponse struct {
	Data  []Holder `json:"data"`
	Total int      `json:"total"`
}

// History is one token or address history entry.
type History struct {
	Tick     string `json:"tick"`
	Type     string `json:"type"`
	Quantity string `json:"quantity"`
	From     string `json:"from,omitempty"`
	To       string `json:"to,omitempty"`
	Tx       string `json:"tx"`
	Time     int64  `json:"time"`
}

// HistoryListResponse is a paginated history envelope.
type HistoryListResponse struct {
	Data  []History `json:"data"`
	Total int       `json:"total"`
}

// MarketToken is a token enriched with market statistics.
type MarketToken struct {
	Name        string `json:"name"`
	FloorPrice  string `json:"floorPrice"`
	TotalVolume string `json:"totalVolume"`
	DailyVolume string `json:"dailyVolume"`
	Holders     int    `json:"holders"`
	Orders      int    `json:"orders,omitempty"`
}

// MarketTokenListResponse is the paginated /market/tokens envelope.
type MarketTokenListResponse struct {
	Data  []MarketToken `json:"data"`
	Total int           `json:"total"`
}

// PricePoint is one sample of the /market/tokens/:tick/price series.
type PricePoint struct {
	Time  int64  `json:"time"`
	Price string `json:"price"`
}

// Order is an order record as stored by the indexer. Quantity is in whole
// tokens; UnitPrice is a wei decimal string. Input carries the serialized
// canonical message the maker signed.
type Order struct {
	ID             int64  `json:"id"`
	Tick           string `json:"tick"`
	Owner          string `json:"owner"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	Tx             string `json:"tx"`
	CreatedAt      int64  `json:"created_at"`
	ExpirationTime int64  `json:"expiration_time"`
	Signature      string `json:"signature"`
	Input          string `json:"input"`
	Sell           bool   `json:"sell"`
}

// Expired reports whether the order is past its expiration time at now
// (unix seconds). Derived, never stored: an expired order is structurally
// valid and only loses its take affordance client-side.
func (o *Order) Expired(now int64) bool {
	return now >= o.ExpirationTime
}

// Remaining is the time left until expiry at now, zero once expired.
func (o *Order) Remaining(now int64) time.Duration {
	if o.Expired(now) {
		return 0
	}
	return time.Duration(o.ExpirationTime-now) * time.Second
}

// OrderListResponse is the paginated /market/orders envelope.
type OrderListResponse struct {
	Data  []Order `json:"data"`
	Total int     `json:"total"`
}

// CreateOrderRequest is the POST /market/orders body: the signed canonical
// message plus the derived display fields the indexer stores alongside it.
type CreateOrderRequest struct {
	Tick           string `json:"tick"`
	Owner          string `json:"owner"`
	Quantity       string `json:"quantity"`
	UnitPrice      string `json:"unit_price"`
	Tx             string `json:"tx"`
	CreationTime   int64  `json:"creation_time"`
	ExpirationTime int64  `json:"expiration_time"`
	Signature      string `json:"signature"`
	Input          string `json:"input"`
	Sell           bool   `json:"sell"`
}

// FreezeRequest is the POST /market/orders/:id/freeze body. Address is the
// bid maker whose funds are being attested; the signature comes from the
// party taking the bid.
type FreezeRequest struct {
	Signature string `json:"signature"`
	Address   string `json:"address"`
}

// SettleRequest is the POST body recording a settlement or cancellation
// transaction hash against an order.
type SettleRequest struct {
	Tx string `json:"tx"`
}

// Activity is one entry of the market activity feed.
type Activity struct {
	Type      string `json:"type"`
	Tick      string `json:"tick"`
	Quantity  string `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Tx        string `json:"tx"`
	CreatedAt int64  `json:"created_at"`
}

// ActivityListResponse is the paginated /market/activities envelope.
type ActivityListResponse struct {
	Data  []Activity `json:"data"`
	Total int        `json:"total"`
}

// IndexerStatus is the /status response.
type IndexerStatus struct {
	LatestImportedBlockNumber uint64 `json:"latest_imported_block_number"`
}
