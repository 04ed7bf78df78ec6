package chain

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// Order is the canonical order message the maker signs and the market
// contract verifies. Field names and ordering match the VERC20Order typed
// data struct; Amount and Price are decimal strings so the JSON form stored
// as the order's input is byte-stable across clients.
type Order struct {
	Maker          string `json:"maker"`
	Sell           bool   `json:"sell"`
	ListID         string `json:"listId"`
	Tick           string `json:"tick"`
	Amount         string `json:"amount"`
	Price          string `json:"price"`
	ListingTime    int64  `json:"listingTime"`
	ExpirationTime int64  `json:"expirationTime"`
}

// MarshalInput serializes the canonical message for storage alongside the
// signature. The contract-side verifier re-derives the typed-data hash from
// exactly these fields.
func (o *Order) MarshalInput() (string, error) {
	data, err := json.Marshal(o)
	if err != nil {
		return "", errors.Wrap(err, "marshal order input")
	}
	return string(data), nil
}

// ParseOrderInput is the inverse of MarshalInput.
func ParseOrderInput(input string) (*Order, error) {
	var order Order
	if err := json.Unmarshal([]byte(input), &order); err != nil {
		return nil, errors.Wrap(err, "parse order input")
	}
	return &order, nil
}

// FreezeAttestation is the typed message a bid taker signs to attest the
// bid maker's reserved funds before execution.
type FreezeAttestation struct {
	Owner  string `json:"owner"`
	Amount string `json:"amount"`
	Tick   string `json:"tick"`
}

// SignedOrder pairs the canonical message with its 65-byte signature.
type SignedOrder struct {
	Order     *Order
	Signature []byte
}

// SignatureComponents is an ECDSA signature split the way the market
// contract consumes it.
type SignatureComponents struct {
	V uint8
	R [32]byte
	S [32]byte
}

// SplitSignature splits a 65-byte (r || s || v) signature. A recovery id of
// 0 or 1 is normalized to the 27/28 form contracts expect.
func SplitSignature(sig []byte) (SignatureComponents, error) {
	if len(sig) != 65 {
		return SignatureComponents{}, errors.Newf("signature must be 65 bytes, got %d", len(sig))
	}
	var components SignatureComponents
	copy(components.R[:], sig[:32])
	copy(components.S[:], sig[32:64])
	components.V = sig[64]
	if components.V < 27 {
		components.V += 27
	}
	return components, nil
}

// marketOrderArg is the order tuple layout of executeOrder/cancelOrder:
// the canonical message with the signature components appended.
type marketOrderArg struct {
	Maker          common.Address
	Sell           bool
	ListId         [32]byte
	Tick           string
	Amount         *big.Int
	Price          *big.Int
	ListingTime    uint64
	ExpirationTime uint64
	V              uint8
	R              [32]byte
	S              [32]byte
}

func newMarketOrderArg(order *Order, sig SignatureComponents) (marketOrderArg, error) {
	amount, ok := new(big.Int).SetString(order.Amount, 10)
	if !ok {
		return marketOrderArg{}, errors.Newf("invalid order amount %q", order.Amount)
	}
	price, ok := new(big.Int).SetString(order.Price, 10)
	if !ok {
		return marketOrderArg{}, errors.Newf("invalid order price %q", order.Price)
	}
	var listID [32]byte
	copy(listID[:], common.HexToHash(order.ListID).Bytes())

	return marketOrderArg{
		Maker:          common.HexToAddress(order.Maker),
		Sell:           order.Sell,
		ListId:         listID,
		Tick:           order.Tick,
		Amount:         amount,
		Price:          price,
		ListingTime:    uint64(order.ListingTime),
		ExpirationTime: uint64(order.ExpirationTime),
		V:              sig.V,
		R:              sig.R,
		S:              sig.S,
	}, nil
}

const marketABIJSON = `[
	{
		"name": "executeOrder",
		"type": "function",
		"stateMutability": "payable",
		"inputs": [
			{
				"name": "order",
				"type": "tuple",
				"components": [
					{"name": "maker", "type": "address"},
					{"name": "sell", "type": "bool"},
					{"name": "listId", "type": "bytes32"},
					{"name": "tick", "type": "string"},
					{"name": "amount", "type": "uint256"},
					{"name": "price", "type": "uint256"},
					{"name": "listingTime", "type": "uint64"},
					{"name": "expirationTime", "type": "uint64"},
					{"name": "v", "type": "uint8"},
					{"name": "r", "type": "bytes32"},
					{"name": "s", "type": "bytes32"}
				]
			},
			{"name": "recipient", "type": "address"}
		],
		"outputs": []
	},
	{
		"name": "cancelOrder",
		"type": "function",
		"stateMutability": "nonpayable",
		"inputs": [
			{
				"name": "order",
				"type": "tuple",
				"components": [
					{"name": "maker", "type": "address"},
					{"name": "sell", "type": "bool"},
					{"name": "listId", "type": "bytes32"},
					{"name": "tick", "type": "string"},
					{"name": "amount", "type": "uint256"},
					{"name": "price", "type": "uint256"},
					{"name": "listingTime", "type": "uint64"},
					{"name": "expirationTime", "type": "uint64"},
					{"name": "v", "type": "uint8"},
					{"name": "r", "type": "bytes32"},
					{"name": "s", "type": "bytes32"}
				]
			}
		],
		"outputs": []
	}
]`

// GetMarketABI returns the parsed market contract ABI.
func GetMarketABI() abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(marketABIJSON))
	if err != nil {
		panic("failed to parse market ABI: " + err.Error())
	}
	return parsed
}
