package verc20

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/verc20dev/verc20-go/chain"
)

// testClient wires a client against a stub indexer without dialing a chain.
// Flows stop at validation or indexer steps before any chain call.
func testClient(t *testing.T, indexerURL string) *Client {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return &Client{
		signer:  chain.NewPrivateKeySignerFromKey(key),
		indexer: NewIndexerClient(indexerURL),
		gate:    newFlowGate(),
		domain: chain.MarketDomain(1337,
			common.HexToAddress("0x3333333333333333333333333333333333333333")),
		log:  log,
		http: &http.Client{Timeout: time.Second},
	}
}

// rejectingSigner declines every typed-data prompt, the way an interactive
// wallet reports a user cancellation.
type rejectingSigner struct {
	addr common.Address
}

func (s rejectingSigner) Address() common.Address { return s.addr }

func (s rejectingSigner) SignTypedData(apitypes.TypedData) ([]byte, error) {
	return nil, errors.Wrap(ErrUserRejected, "user denied message signature")
}

func TestCheckTick(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/taken") {
			json.NewEncoder(w).Encode(Token{Name: "taken"})
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	ctx := context.Background()

	available, err := client.CheckTick(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = client.CheckTick(ctx, "taken")
	require.NoError(t, err)
	assert.False(t, available)

	_, err = client.CheckTick(ctx, "  ")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestTokenBalance(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(HolderBalances{
			Tokens: []Balance{{Tick: "punk", Balance: "12345"}},
		})
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	ctx := context.Background()

	balance, err := client.TokenBalance(ctx, client.Address(), "punk")
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(12345), balance)

	balance, err = client.TokenBalance(ctx, client.Address(), "other")
	require.NoError(t, err)
	assert.Zero(t, balance.Sign(), "absent holding reads as zero")
}

func signedTestOrder(t *testing.T, makerHex string, expiration int64) *Order {
	t.Helper()
	msg := &chain.Order{
		Maker:          makerHex,
		Sell:           true,
		ListID:         "0x2222222222222222222222222222222222222222222222222222222222222222",
		Tick:           "punk",
		Amount:         "100",
		Price:          "1000000000000000000",
		ListingTime:    time.Now().Unix() - 60,
		ExpirationTime: expiration,
	}
	input, err := msg.MarshalInput()
	require.NoError(t, err)

	return &Order{
		ID:             7,
		Tick:           "punk",
		Owner:          makerHex,
		Quantity:       "100",
		UnitPrice:      "1000000000000000000",
		ExpirationTime: expiration,
		Signature:      "0x" + strings.Repeat("00", 64) + "1b",
		Input:          input,
		Sell:           true,
	}
}

func TestCheckTakeable(t *testing.T) {
	client := testClient(t, "http://indexer.invalid")
	future := time.Now().Add(time.Hour).Unix()
	maker := "0x1111111111111111111111111111111111111111"

	msg, sig, err := client.checkTakeable(signedTestOrder(t, maker, future))
	require.NoError(t, err)
	assert.Equal(t, "100", msg.Amount)
	assert.Equal(t, uint8(27), sig.V)

	// Taking your own order is refused.
	own := signedTestOrder(t, client.Address().Hex(), future)
	_, _, err = client.checkTakeable(own)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order", verr.Field)

	// Expired orders lose the take affordance.
	expired := signedTestOrder(t, maker, time.Now().Add(-time.Hour).Unix())
	_, _, err = client.checkTakeable(expired)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "order", verr.Field)

	// A corrupt stored message is rejected before any signing.
	bad := signedTestOrder(t, maker, future)
	bad.Input = "{not json"
	_, _, err = client.checkTakeable(bad)
	assert.Error(t, err)
}

func TestDeployRefusesWhileInFlight(t *testing.T) {
	client := testClient(t, "http://indexer.invalid")

	_, err := client.gate.begin("deploy:punk")
	require.NoError(t, err)

	_, err = client.Deploy(context.Background(), DeployInput{
		Tick:        "punk",
		TotalSupply: Some("100"),
	})
	assert.True(t, errors.Is(err, ErrFlowInFlight))
}

func TestFairMintDeployClearsSupply(t *testing.T) {
	// A fair deploy may arrive with a supply filled in; validation ignores
	// it, and the encoded payload must drop it too.
	in := DeployInput{
		Tick:        "fair",
		Type:        TokenTypeFair,
		TotalSupply: Some("21000000"),
		Limit:       Some("1000"),
		Duration:    Some("7200"),
	}
	require.NoError(t, ValidateDeploy(in))

	data, err := EncodeDeploy(deployPayload(in))
	require.NoError(t, err)
	decoded, err := DecodeInscription(data)
	require.NoError(t, err)

	assert.False(t, decoded.MaxSupply.Present(),
		"fair-mint inscription must not carry a max supply")
	assert.Equal(t, string(TokenTypeFair), decoded.Type.Or(""))
}

func TestNormalDeployKeepsSupply(t *testing.T) {
	in := DeployInput{Tick: "punk", TotalSupply: Some("21000000")}
	require.NoError(t, ValidateDeploy(in))

	data, err := EncodeDeploy(deployPayload(in))
	require.NoError(t, err)
	decoded, err := DecodeInscription(data)
	require.NoError(t, err)

	assert.Equal(t, "21000000", decoded.MaxSupply.Or(""))
	assert.False(t, decoded.Type.Present())
}

func TestDeployValidationStopsBeforeNetwork(t *testing.T) {
	// No indexer behind this URL: a validation failure must surface before
	// any request is attempted.
	client := testClient(t, "http://indexer.invalid")

	_, err := client.Deploy(context.Background(), DeployInput{Tick: "punk"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "total supply", verr.Field)
}

func TestCreateOrderRejectsUnknownDuration(t *testing.T) {
	client := testClient(t, "http://indexer.invalid")

	_, err := client.CreateOrder(context.Background(), CreateOrderInput{
		Tick:      "punk",
		Sell:      true,
		Amount:    big.NewInt(100),
		UnitPrice: big.NewInt(1),
		Duration:  "3D",
	})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "duration", verr.Field)
}

func TestCancelOrderRequiresOwnership(t *testing.T) {
	client := testClient(t, "http://indexer.invalid")
	order := signedTestOrder(t, "0x1111111111111111111111111111111111111111",
		time.Now().Add(time.Hour).Unix())

	_, err := client.CancelOrder(context.Background(), order)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "owner", verr.Field)
}

func TestTakeBidUserRejection(t *testing.T) {
	// Declining the freeze signature aborts the take before any chain or
	// indexer call; the error stays recoverable.
	client := testClient(t, "http://indexer.invalid")
	client.signer = rejectingSigner{
		addr: common.HexToAddress("0x9999999999999999999999999999999999999999"),
	}

	order := signedTestOrder(t, "0x1111111111111111111111111111111111111111",
		time.Now().Add(time.Hour).Unix())
	order.Sell = false

	_, err := client.TakeOrder(context.Background(), order)
	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
	assert.False(t, IsInconsistency(err))
}

func TestFreezeBidRejectionClassification(t *testing.T) {
	client := testClient(t, "http://indexer.invalid")
	client.signer = rejectingSigner{
		addr: common.HexToAddress("0x9999999999999999999999999999999999999999"),
	}
	order := signedTestOrder(t, "0x1111111111111111111111111111111111111111",
		time.Now().Add(time.Hour).Unix())
	order.Sell = false

	flow := NewFlow("order-take:7")
	err := client.freezeBid(context.Background(), flow, order,
		big.NewInt(100), wei("1000000000000000000"))

	require.Error(t, err)
	assert.True(t, IsUserRejected(err))
	assert.Equal(t, StateFailed, flow.State())
	assert.Equal(t, FailureRejected, flow.Failure())
	assert.False(t, flow.Inconsistent(), "nothing durable happened, safe to re-prompt")
}

func TestETHPrice(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"amount":"1850.25","currency":"USD"}}`))
	}))
	defer server.Close()

	client := testClient(t, "http://indexer.invalid")
	client.priceURL = server.URL

	price, err := client.ETHPrice(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1850.25", price.String())
}
