package verc20

import "math/big"

// Pricing is pure integer arithmetic over amounts in the token's smallest
// unit and prices in wei per whole token. Nothing here touches floating
// point; display conversion lives in format.go and never feeds back into
// the values that get signed or sent on-chain.

var (
	protocolFeeRate     = big.NewInt(ProtocolFeePerMille)
	liquidityRewardRate = big.NewInt(LiquidityRewardPerMille)
	feeDenominator      = big.NewInt(FeeDenominator)
)

// OrderValue is amount * unitPrice, exact.
func OrderValue(amount, unitPrice *big.Int) *big.Int {
	return new(big.Int).Mul(amount, unitPrice)
}

// ProtocolFee is floor(orderValue * 1.5%).
func ProtocolFee(orderValue *big.Int) *big.Int {
	fee := new(big.Int).Mul(orderValue, protocolFeeRate)
	return fee.Div(fee, feeDenominator)
}

// LiquidityReward is floor(orderValue * 0.5%).
func LiquidityReward(orderValue *big.Int) *big.Int {
	reward := new(big.Int).Mul(orderValue, liquidityRewardRate)
	return reward.Div(reward, feeDenominator)
}

// CombinedFee is the taker-borne total of protocol fee plus liquidity
// reward, each floored independently.
func CombinedFee(orderValue *big.Int) *big.Int {
	return new(big.Int).Add(ProtocolFee(orderValue), LiquidityReward(orderValue))
}

// AskTakerPayment is what the taker of an ask attaches to executeOrder:
// the order value plus the combined fee on top.
func AskTakerPayment(amount, unitPrice *big.Int) *big.Int {
	value := OrderValue(amount, unitPrice)
	return value.Add(value, CombinedFee(OrderValue(amount, unitPrice)))
}

// BidTakerPayment is what the taker of a bid (the token seller) attaches to
// executeOrder. The order value itself comes out of the maker's frozen
// funds, so the taker only fronts the combined fee.
func BidTakerPayment(amount, unitPrice *big.Int) *big.Int {
	return CombinedFee(OrderValue(amount, unitPrice))
}

// BidMakerCommitment is the total native currency a bid maker gives up
// across the freeze and execute steps: order value plus combined fee.
func BidMakerCommitment(amount, unitPrice *big.Int) *big.Int {
	value := OrderValue(amount, unitPrice)
	return value.Add(value, CombinedFee(OrderValue(amount, unitPrice)))
}

// AskMakerRevenue is what an ask maker receives once taken: the order value
// plus the maker-side liquidity reward.
func AskMakerRevenue(amount, unitPrice *big.Int) *big.Int {
	value := OrderValue(amount, unitPrice)
	return value.Add(value, LiquidityReward(OrderValue(amount, unitPrice)))
}
