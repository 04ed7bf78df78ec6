package verc20

import "time"

// ChainID represents a blockchain chain ID
type ChainID int64

const (
	ChainIDMainnet ChainID = 1
	ChainIDGoerli  ChainID = 5
	ChainIDLocal   ChainID = 1337
)

// SupportedChainIDs lists all chain IDs the market contract is deployed on
var SupportedChainIDs = []ChainID{ChainIDMainnet, ChainIDGoerli, ChainIDLocal}

// ProtocolTag is the namespace tag carried by every inscription payload.
const ProtocolTag = "verc-20"

// Fee rates expressed in parts per mille so fee math stays integral.
// 15/1000 = 1.5% protocol fee, 5/1000 = 0.5% liquidity reward.
const (
	ProtocolFeePerMille     = 15
	LiquidityRewardPerMille = 5
	FeeDenominator          = 1000
)

// DefaultDecimals is assumed when a deploy inscription omits "dec".
const DefaultDecimals = 18

// MaxMintDuration bounds a fair-mint window, in blocks (~12s each).
const MaxMintDuration = 1_000_000

// OrderDurations are the only expiry windows an order may be created with.
var OrderDurations = map[string]time.Duration{
	"7D":  7 * 24 * time.Hour,
	"14D": 14 * 24 * time.Hour,
	"1M":  30 * 24 * time.Hour,
}

// DefaultETHPriceEndpoint quotes the ETH-USD spot price used for display only.
const DefaultETHPriceEndpoint = "https://api.coinbase.com/v2/prices/ETH-USD/buy"
