package chain

import (
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Typed-data domain shared by order and freeze signing. The verifying
// contract is the market contract; the chain id pins signatures to one
// network.
const (
	DomainName    = "VERC20Market"
	DomainVersion = "1.0"

	orderPrimaryType  = "VERC20Order"
	freezePrimaryType = "VERC20Freeze"
)

var eip712DomainType = []apitypes.Type{
	{Name: "name", Type: "string"},
	{Name: "version", Type: "string"},
	{Name: "chainId", Type: "uint256"},
	{Name: "verifyingContract", Type: "address"},
}

var orderTypes = apitypes.Types{
	"EIP712Domain": eip712DomainType,
	orderPrimaryType: {
		{Name: "maker", Type: "address"},
		{Name: "sell", Type: "bool"},
		{Name: "listId", Type: "bytes32"},
		{Name: "tick", Type: "string"},
		{Name: "amount", Type: "uint256"},
		{Name: "price", Type: "uint256"},
		{Name: "listingTime", Type: "uint64"},
		{Name: "expirationTime", Type: "uint64"},
	},
}

var freezeTypes = apitypes.Types{
	"EIP712Domain": eip712DomainType,
	freezePrimaryType: {
		{Name: "owner", Type: "address"},
		{Name: "amount", Type: "uint256"},
		{Name: "tick", Type: "string"},
	},
}

// MarketDomain builds the typed-data domain for a network and market
// contract deployment.
func MarketDomain(chainID int64, verifyingContract common.Address) apitypes.TypedDataDomain {
	return apitypes.TypedDataDomain{
		Name:              DomainName,
		Version:           DomainVersion,
		ChainId:           math.NewHexOrDecimal256(chainID),
		VerifyingContract: verifyingContract.Hex(),
	}
}

// OrderTypedData builds the full typed-data structure for an order.
func OrderTypedData(domain apitypes.TypedDataDomain, order *Order) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       orderTypes,
		PrimaryType: orderPrimaryType,
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"maker":          order.Maker,
			"sell":           order.Sell,
			"listId":         order.ListID,
			"tick":           order.Tick,
			"amount":         order.Amount,
			"price":          order.Price,
			"listingTime":    strconv.FormatInt(order.ListingTime, 10),
			"expirationTime": strconv.FormatInt(order.ExpirationTime, 10),
		},
	}
}

// FreezeTypedData builds the full typed-data structure for a freeze
// attestation.
func FreezeTypedData(domain apitypes.TypedDataDomain, freeze *FreezeAttestation) apitypes.TypedData {
	return apitypes.TypedData{
		Types:       freezeTypes,
		PrimaryType: freezePrimaryType,
		Domain:      domain,
		Message: apitypes.TypedDataMessage{
			"owner":  freeze.Owner,
			"amount": freeze.Amount,
			"tick":   freeze.Tick,
		},
	}
}

// HashTypedData computes the EIP-712 digest
// keccak256("\x19\x01" || domainSeparator || structHash).
func HashTypedData(data apitypes.TypedData) (common.Hash, error) {
	digest, _, err := apitypes.TypedDataAndHash(data)
	if err != nil {
		return common.Hash{}, errors.Wrap(err, "hash typed data")
	}
	return common.BytesToHash(digest), nil
}
