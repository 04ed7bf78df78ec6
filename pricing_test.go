package verc20

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func wei(s string) *big.Int {
	v, ok := new(big.Int).SetString(s, 10)
	if !ok {
		panic("bad test value " + s)
	}
	return v
}

func TestOrderValueExactBeyondFloat53(t *testing.T) {
	// 100 tokens at 1 ETH each: exactly representable only with big ints.
	amount := big.NewInt(100)
	price := wei("1000000000000000000")
	assert.Equal(t, wei("100000000000000000000"), OrderValue(amount, price))

	// A value whose low digits vanish under float64 arithmetic.
	amount = wei("9007199254740993")
	price = wei("1000000000000000003")
	assert.Equal(t, "9007199254740993027021597764222979", OrderValue(amount, price).String())
}

func TestFeeSplit(t *testing.T) {
	value := wei("100000000000000000000")
	assert.Equal(t, wei("1500000000000000000"), ProtocolFee(value))
	assert.Equal(t, wei("500000000000000000"), LiquidityReward(value))
	assert.Equal(t, wei("2000000000000000000"), CombinedFee(value))
}

func TestFeesFloorIndependently(t *testing.T) {
	value := big.NewInt(999)
	assert.Equal(t, big.NewInt(14), ProtocolFee(value), "floor(14.985)")
	assert.Equal(t, big.NewInt(4), LiquidityReward(value), "floor(4.995)")
	assert.Equal(t, big.NewInt(18), CombinedFee(value), "sum of independent floors, not floor(19.98)")
}

func TestTakerPayments(t *testing.T) {
	amount := big.NewInt(100)
	price := wei("1000000000000000000")

	// Ask taker pays full order value plus the 2% combined fee.
	assert.Equal(t, wei("102000000000000000000"), AskTakerPayment(amount, price))

	// Bid taker fronts only the fee; the order value comes from frozen funds.
	assert.Equal(t, wei("2000000000000000000"), BidTakerPayment(amount, price))
}

func TestMakerSides(t *testing.T) {
	amount := big.NewInt(100)
	price := wei("1000000000000000000")

	assert.Equal(t, wei("102000000000000000000"), BidMakerCommitment(amount, price))
	assert.Equal(t, wei("100500000000000000000"), AskMakerRevenue(amount, price))
}

func TestPricingDoesNotMutateInputs(t *testing.T) {
	amount := big.NewInt(100)
	price := wei("1000000000000000000")

	_ = AskTakerPayment(amount, price)
	_ = BidMakerCommitment(amount, price)
	_ = AskMakerRevenue(amount, price)

	require.Equal(t, big.NewInt(100), amount)
	require.Equal(t, wei("1000000000000000000"), price)
}
