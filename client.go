package verc20

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/verc20dev/verc20-go/chain"
)

// Config collects everything a Client needs. PrivateKey doubles as the
// transaction key and the typed-data signing key unless a separate Signer
// is injected.
type Config struct {
	RPCURL         string
	IndexerURL     string
	MarketContract string
	PrivateKey     string

	// ETHPriceEndpoint quotes the ETH-USD spot price for display figures.
	// Defaults to DefaultETHPriceEndpoint.
	ETHPriceEndpoint string

	// Signer overrides the private-key signer for typed-data requests, so
	// a remote or hardware wallet can be plugged in.
	Signer chain.Signer

	Logger *logrus.Logger
}

// Client drives the full protocol: deploy, mint, transfer, and the order
// market flows. Every flow runs through an explicit state machine so a
// failure reports exactly which step it died at and whether any on-chain
// truth is already durable.
type Client struct {
	signer   chain.Signer
	caller   *chain.ContractCaller
	indexer  *IndexerClient
	gate     *flowGate
	domain   apitypes.TypedDataDomain
	log      *logrus.Logger
	priceURL string
	http     *http.Client
}

// NewClient dials the chain and wires the indexer client.
func NewClient(cfg Config) (*Client, error) {
	caller, err := chain.NewContractCaller(cfg.RPCURL, cfg.PrivateKey, cfg.MarketContract)
	if err != nil {
		return nil, errors.Wrap(err, "create contract caller")
	}

	signer := cfg.Signer
	if signer == nil {
		signer, err = chain.NewPrivateKeySigner(cfg.PrivateKey)
		if err != nil {
			return nil, errors.Wrap(err, "create signer")
		}
	}

	log := cfg.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}
	priceURL := cfg.ETHPriceEndpoint
	if priceURL == "" {
		priceURL = DefaultETHPriceEndpoint
	}

	return &Client{
		signer:   signer,
		caller:   caller,
		indexer:  NewIndexerClient(cfg.IndexerURL),
		gate:     newFlowGate(),
		domain:   chain.MarketDomain(caller.ChainID().Int64(), caller.MarketAddress()),
		log:      log,
		priceURL: priceURL,
		http:     &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// Indexer exposes the raw indexer client for queries the flows do not wrap.
func (c *Client) Indexer() *IndexerClient { return c.indexer }

// Chain exposes the underlying contract caller.
func (c *Client) Chain() *chain.ContractCaller { return c.caller }

// Address is the connected wallet address.
func (c *Client) Address() common.Address { return c.signer.Address() }

// Close releases the chain connection.
func (c *Client) Close() { c.caller.Close() }

// CheckTick reports whether a tick is still available for deployment.
func (c *Client) CheckTick(ctx context.Context, tick string) (bool, error) {
	if err := ValidateTick(tick); err != nil {
		return false, err
	}
	_, err := c.indexer.GetToken(ctx, tick)
	if err != nil {
		if errors.Is(err, ErrTickNotFound) {
			return true, nil
		}
		return false, err
	}
	return false, nil
}

// TokenBalance fetches the wallet's balance of one tick in smallest units.
// Absent holdings read as zero.
func (c *Client) TokenBalance(ctx context.Context, address common.Address, tick string) (*big.Int, error) {
	balances, err := c.indexer.GetHolderBalances(ctx, address.Hex(), tick, PageQuery{Limit: 1})
	if err != nil {
		return nil, err
	}
	for _, b := range balances.Tokens {
		if b.Tick == tick {
			v, ok := new(big.Int).SetString(b.Balance, 10)
			if !ok {
				return nil, errors.Newf("indexer returned malformed balance %q", b.Balance)
			}
			return v, nil
		}
	}
	return new(big.Int), nil
}

// Deploy validates and submits a deploy inscription. The transaction goes
// to the deployer's own address with value 0.
func (c *Client) Deploy(ctx context.Context, in DeployInput) (string, error) {
	flow, err := c.gate.begin("deploy:" + in.Tick)
	if err != nil {
		return "", err
	}
	defer c.gate.end("deploy:" + in.Tick)

	if err := ValidateDeploy(in); err != nil {
		return "", flow.Fail(FailureValidation, err)
	}
	available, err := c.CheckTick(ctx, in.Tick)
	if err != nil {
		return "", flow.Fail(FailureIndexer, err)
	}
	if !available {
		return "", flow.Fail(FailureValidation, invalid("tick", "already deployed"))
	}

	data, err := EncodeDeploy(deployPayload(in))
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}

	return c.finishInscription(ctx, flow, c.signer.Address(), data, "deploy")
}

// deployPayload maps a deploy request onto the inscription payload. Fair
// mints derive their supply from the mint window, so a supplied total is
// cleared before encoding rather than baked into the immutable payload.
func deployPayload(in DeployInput) DeployPayload {
	supply := in.TotalSupply
	tokenType := Absent[string]()
	if in.Type == TokenTypeFair {
		supply = Absent[string]()
		tokenType = Some(string(TokenTypeFair))
	}
	return DeployPayload{
		Tick:       in.Tick,
		MaxSupply:  supply,
		Decimals:   in.Decimals,
		Limit:      in.Limit,
		StartBlock: in.StartBlock,
		Duration:   in.Duration,
		Type:       tokenType,
	}
}

// Mint validates a mint against the token's rules and submits the mint
// inscription to the minter's own address.
func (c *Client) Mint(ctx context.Context, tick, amount string) (string, error) {
	flow, err := c.gate.begin("mint:" + tick)
	if err != nil {
		return "", err
	}
	defer c.gate.end("mint:" + tick)

	token, err := c.indexer.GetToken(ctx, tick)
	if err != nil {
		if errors.Is(err, ErrTickNotFound) {
			return "", flow.Fail(FailureValidation, invalid("tick", "not deployed"))
		}
		return "", flow.Fail(FailureIndexer, err)
	}
	if err := ValidateMint(token, amount); err != nil {
		return "", flow.Fail(FailureValidation, err)
	}
	if token.StartBlock > 0 {
		head, err := c.caller.LatestBlockNumber(ctx)
		if err != nil {
			return "", flow.Fail(FailureChain, err)
		}
		if head < token.StartBlock {
			return "", flow.Fail(FailureValidation,
				invalid("start block", fmt.Sprintf("minting opens at block %d", token.StartBlock)))
		}
	}

	data, err := EncodeMint(tick, amount)
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}
	return c.finishInscription(ctx, flow, c.signer.Address(), data, "mint")
}

// Transfer validates and submits a transfer inscription addressed to the
// recipient.
func (c *Client) Transfer(ctx context.Context, tick, amount, to string) (string, error) {
	flow, err := c.gate.begin("transfer:" + tick)
	if err != nil {
		return "", err
	}
	defer c.gate.end("transfer:" + tick)

	balance, err := c.TokenBalance(ctx, c.signer.Address(), tick)
	if err != nil {
		return "", flow.Fail(FailureIndexer, err)
	}
	if err := ValidateTransfer(to, amount, BalanceView{TokenBalance: balance}); err != nil {
		return "", flow.Fail(FailureValidation, err)
	}

	data, err := EncodeTransfer(tick, amount)
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}
	return c.finishInscription(ctx, flow, common.HexToAddress(to), data, "transfer")
}

// finishInscription runs a standalone inscription flow to completion.
func (c *Client) finishInscription(ctx context.Context, flow *Flow, to common.Address, data, op string) (string, error) {
	txHash, err := c.sendInscriptionFlow(ctx, flow, to, nil, data, op)
	if err != nil {
		return "", err
	}
	if err := flow.Succeed(); err != nil {
		return "", err
	}
	return txHash, nil
}

// CreateOrderInput describes a new ask or bid. Amount is in whole token
// units, UnitPrice in wei per whole token. Duration is one of the supported
// expiry keys.
type CreateOrderInput struct {
	Tick      string
	Sell      bool
	Amount    *big.Int
	UnitPrice *big.Int
	Duration  string
}

// CreateOrder runs the two-step creation protocol: a listing inscription
// transaction to the market contract anchors the order's nonce, then the
// maker signs the canonical message and the signed order is published to the
// indexer. A publish failure after the mined listing tx is reported as an
// InconsistencyError, never retried silently.
func (c *Client) CreateOrder(ctx context.Context, in CreateOrderInput) (*chain.SignedOrder, error) {
	subject := "order-create:" + in.Tick
	flow, err := c.gate.begin(subject)
	if err != nil {
		return nil, err
	}
	defer c.gate.end(subject)

	window, err := OrderDuration(in.Duration)
	if err != nil {
		return nil, flow.Fail(FailureValidation, err)
	}
	view, err := c.makerBalances(ctx, in.Tick, in.Sell)
	if err != nil {
		return nil, flow.Fail(FailureIndexer, err)
	}
	if err := ValidateOrder(in.Sell, in.Amount, in.UnitPrice, view); err != nil {
		return nil, flow.Fail(FailureValidation, err)
	}

	data, err := EncodeList(in.Tick, in.Amount.String())
	if err != nil {
		return nil, flow.Fail(FailureValidation, err)
	}

	// Listing tx anchors the nonce; no funds move at creation for either
	// side. Bid funds commit at take time through freeze and execute.
	listTx, err := c.sendInscriptionFlow(ctx, flow, c.caller.MarketAddress(), nil, data, "list")
	if err != nil {
		return nil, err
	}

	listingTime := time.Now().Unix()
	order := &chain.Order{
		Maker:          c.signer.Address().Hex(),
		Sell:           in.Sell,
		ListID:         listTx,
		Tick:           in.Tick,
		Amount:         in.Amount.String(),
		Price:          in.UnitPrice.String(),
		ListingTime:    listingTime,
		ExpirationTime: listingTime + int64(window/time.Second),
	}

	if err := flow.AwaitSignature(); err != nil {
		return nil, err
	}
	sig, err := c.signer.SignTypedData(chain.OrderTypedData(c.domain, order))
	if err != nil {
		return nil, flow.Fail(signFailureKind(err), err)
	}

	input, err := order.MarshalInput()
	if err != nil {
		return nil, flow.Fail(FailureValidation, err)
	}
	if err := flow.AwaitIndexer(); err != nil {
		return nil, err
	}
	publishErr := c.indexer.PublishOrder(ctx, &CreateOrderRequest{
		Tick:           order.Tick,
		Owner:          order.Maker,
		Quantity:       order.Amount,
		UnitPrice:      order.Price,
		Tx:             listTx,
		CreationTime:   order.ListingTime,
		ExpirationTime: order.ExpirationTime,
		Signature:      hexutil.Encode(sig),
		Input:          input,
		Sell:           order.Sell,
	})
	if publishErr != nil {
		c.log.WithFields(logrus.Fields{"tick": in.Tick, "tx": listTx}).
			Error("listing confirmed on chain but order publish failed")
		return nil, flow.FailIndexer("order publish", publishErr)
	}

	if err := flow.Succeed(); err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"tick": in.Tick, "tx": listTx, "sell": in.Sell}).
		Info("order published")
	return &chain.SignedOrder{Order: order, Signature: sig}, nil
}

func (c *Client) makerBalances(ctx context.Context, tick string, sell bool) (BalanceView, error) {
	if sell {
		balance, err := c.TokenBalance(ctx, c.signer.Address(), tick)
		if err != nil {
			return BalanceView{}, err
		}
		return BalanceView{TokenBalance: balance}, nil
	}
	native, err := c.caller.NativeBalance(ctx)
	if err != nil {
		return BalanceView{}, err
	}
	return BalanceView{NativeBalance: native}, nil
}

// TakeOrder settles an open order as the counterparty. Asks settle with a
// single executeOrder call carrying order value plus the combined fee. Bids
// first obtain a freeze attestation over the maker's committed funds (signed
// by the taker, referencing the maker's address), then execute with only the
// combined fee as value.
func (c *Client) TakeOrder(ctx context.Context, order *Order) (string, error) {
	subject := fmt.Sprintf("order-take:%d", order.ID)
	flow, err := c.gate.begin(subject)
	if err != nil {
		return "", err
	}
	defer c.gate.end(subject)

	msg, sig, err := c.checkTakeable(order)
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}

	amount, _ := new(big.Int).SetString(msg.Amount, 10)
	price, _ := new(big.Int).SetString(msg.Price, 10)

	var txValue *big.Int
	if order.Sell {
		txValue = AskTakerPayment(amount, price)
	} else {
		if err := c.freezeBid(ctx, flow, order, amount, price); err != nil {
			return "", err
		}
		txValue = BidTakerPayment(amount, price)
	}

	if err := flow.AwaitSignature(); err != nil {
		return "", err
	}
	if err := flow.AwaitConfirmation(); err != nil {
		return "", err
	}
	tx, err := c.caller.ExecuteOrder(ctx, msg, sig, c.signer.Address(), txValue)
	if err != nil {
		return "", flow.Fail(FailureChain, err)
	}
	txHash, err := c.waitMined(ctx, flow, tx.Hash())
	if err != nil {
		return "", err
	}

	if err := flow.AwaitIndexer(); err != nil {
		return "", err
	}
	if err := c.indexer.RecordExecution(ctx, order.ID, txHash); err != nil {
		c.log.WithFields(logrus.Fields{"order": order.ID, "tx": txHash}).
			Error("settlement confirmed on chain but indexer record failed")
		return "", flow.FailIndexer("execution record", err)
	}
	if err := flow.Succeed(); err != nil {
		return "", err
	}
	c.log.WithFields(logrus.Fields{"order": order.ID, "tx": txHash}).Info("order settled")
	return txHash, nil
}

// freezeBid signs and submits the freeze attestation for a bid's committed
// funds. A failure here aborts the take before any chain call.
func (c *Client) freezeBid(ctx context.Context, flow *Flow, order *Order, amount, price *big.Int) error {
	if err := flow.AwaitSignature(); err != nil {
		return err
	}
	attestation := &chain.FreezeAttestation{
		Owner:  order.Owner,
		Amount: BidMakerCommitment(amount, price).String(),
		Tick:   order.Tick,
	}
	sig, err := c.signer.SignTypedData(chain.FreezeTypedData(c.domain, attestation))
	if err != nil {
		return flow.Fail(signFailureKind(err), err)
	}

	if err := flow.AwaitIndexer(); err != nil {
		return err
	}
	err = c.indexer.FreezeOrder(ctx, order.ID, &FreezeRequest{
		Signature: hexutil.Encode(sig),
		Address:   order.Owner,
	})
	if err != nil {
		// No durable chain state yet: a plain, retryable indexer failure.
		return flow.Fail(FailureIndexer, err)
	}
	return nil
}

// CancelOrder submits the on-chain cancellation and records it with the
// indexer. Only the maker may cancel.
func (c *Client) CancelOrder(ctx context.Context, order *Order) (string, error) {
	subject := fmt.Sprintf("order-cancel:%d", order.ID)
	flow, err := c.gate.begin(subject)
	if err != nil {
		return "", err
	}
	defer c.gate.end(subject)

	if common.HexToAddress(order.Owner) != c.signer.Address() {
		return "", flow.Fail(FailureValidation, invalid("owner", "only the maker can cancel"))
	}
	msg, sig, err := parseSignedOrder(order)
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}

	if err := flow.AwaitSignature(); err != nil {
		return "", err
	}
	if err := flow.AwaitConfirmation(); err != nil {
		return "", err
	}
	tx, err := c.caller.CancelOrder(ctx, msg, sig)
	if err != nil {
		return "", flow.Fail(FailureChain, err)
	}
	txHash, err := c.waitMined(ctx, flow, tx.Hash())
	if err != nil {
		return "", err
	}

	if err := flow.AwaitIndexer(); err != nil {
		return "", err
	}
	if err := c.indexer.RecordCancellation(ctx, order.ID, txHash); err != nil {
		c.log.WithFields(logrus.Fields{"order": order.ID, "tx": txHash}).
			Error("cancellation confirmed on chain but indexer record failed")
		return "", flow.FailIndexer("cancellation record", err)
	}
	if err := flow.Succeed(); err != nil {
		return "", err
	}
	return txHash, nil
}

// checkTakeable validates an order for taking: not our own, not expired,
// well-formed canonical message and signature.
func (c *Client) checkTakeable(order *Order) (*chain.Order, chain.SignatureComponents, error) {
	var none chain.SignatureComponents
	if common.HexToAddress(order.Owner) == c.signer.Address() {
		return nil, none, invalid("order", "cannot take your own order")
	}
	if order.Expired(time.Now().Unix()) {
		return nil, none, invalid("order", "expired")
	}
	return parseSignedOrder(order)
}

func parseSignedOrder(order *Order) (*chain.Order, chain.SignatureComponents, error) {
	var none chain.SignatureComponents
	msg, err := chain.ParseOrderInput(order.Input)
	if err != nil {
		return nil, none, err
	}
	if _, ok := new(big.Int).SetString(msg.Amount, 10); !ok {
		return nil, none, invalid("amount", "malformed in stored order")
	}
	if _, ok := new(big.Int).SetString(msg.Price, 10); !ok {
		return nil, none, invalid("price", "malformed in stored order")
	}
	raw, err := hexutil.Decode(order.Signature)
	if err != nil {
		return nil, none, errors.Wrap(err, "decode order signature")
	}
	sig, err := chain.SplitSignature(raw)
	if err != nil {
		return nil, none, err
	}
	return msg, sig, nil
}

// sendInscriptionFlow drives an inscription transaction through the
// signature and confirmation states of a flow, leaving the mined tx
// recorded as durable. The caller decides the terminal state.
func (c *Client) sendInscriptionFlow(ctx context.Context, flow *Flow, to common.Address, value *big.Int, data string, op string) (string, error) {
	payload, err := hexutil.Decode(data)
	if err != nil {
		return "", flow.Fail(FailureValidation, err)
	}

	if err := flow.AwaitSignature(); err != nil {
		return "", err
	}
	if err := flow.AwaitConfirmation(); err != nil {
		return "", err
	}
	tx, err := c.caller.SendInscription(ctx, to, value, payload)
	if err != nil {
		return "", flow.Fail(FailureChain, err)
	}
	c.log.WithFields(logrus.Fields{"op": op, "tx": tx.Hash().Hex()}).Info("inscription sent")

	return c.waitMined(ctx, flow, tx.Hash())
}

// waitMined blocks until the tx is mined, records it as durable on success
// and classifies a revert as a chain failure.
func (c *Client) waitMined(ctx context.Context, flow *Flow, hash common.Hash) (string, error) {
	receipt, err := c.caller.WaitMined(ctx, hash)
	if err != nil {
		return "", flow.Fail(FailureChain, err)
	}
	if receipt.Status == 0 {
		return "", flow.Fail(FailureChain, &ChainError{TxHash: hash.Hex(), Reason: "transaction reverted"})
	}
	flow.ConfirmTx(hash.Hex())
	return hash.Hex(), nil
}

func signFailureKind(err error) FailureKind {
	if IsUserRejected(err) {
		return FailureRejected
	}
	return FailureChain
}

type spotPriceResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// ETHPrice fetches the ETH-USD spot price. Display only; nothing derived
// from it ever feeds an on-chain amount.
func (c *Client) ETHPrice(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.priceURL, nil)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "create price request")
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "fetch spot price")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, errors.Newf("spot price endpoint returned HTTP %d", resp.StatusCode)
	}

	var out spotPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return decimal.Zero, errors.Wrap(err, "decode spot price")
	}
	price, err := decimal.NewFromString(out.Data.Amount)
	if err != nil {
		return decimal.Zero, errors.Wrap(err, "parse spot price")
	}
	return price, nil
}
