package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleOrder() *Order {
	return &Order{
		Maker:          "0x1111111111111111111111111111111111111111",
		Sell:           true,
		ListID:         "0x2222222222222222222222222222222222222222222222222222222222222222",
		Tick:           "punk",
		Amount:         "100",
		Price:          "1000000000000000000",
		ListingTime:    1700000000,
		ExpirationTime: 1700604800,
	}
}

func TestOrderTypedDataHashDeterministic(t *testing.T) {
	domain := MarketDomain(1, common.HexToAddress("0x3333333333333333333333333333333333333333"))

	h1, err := HashTypedData(OrderTypedData(domain, sampleOrder()))
	require.NoError(t, err)
	h2, err := HashTypedData(OrderTypedData(domain, sampleOrder()))
	require.NoError(t, err)
	assert.Equal(t, h1, h2)

	changed := sampleOrder()
	changed.Price = "1000000000000000001"
	h3, err := HashTypedData(OrderTypedData(domain, changed))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h3)
}

func TestOrderHashBoundToDomain(t *testing.T) {
	contract := common.HexToAddress("0x3333333333333333333333333333333333333333")
	mainnet := MarketDomain(1, contract)
	goerli := MarketDomain(5, contract)

	h1, err := HashTypedData(OrderTypedData(mainnet, sampleOrder()))
	require.NoError(t, err)
	h2, err := HashTypedData(OrderTypedData(goerli, sampleOrder()))
	require.NoError(t, err)
	assert.NotEqual(t, h1, h2, "same order on a different chain must hash differently")
}

func TestSignAndRecoverOrder(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewPrivateKeySignerFromKey(key)

	domain := MarketDomain(1, common.HexToAddress("0x3333333333333333333333333333333333333333"))
	data := OrderTypedData(domain, sampleOrder())

	sig, err := signer.SignTypedData(data)
	require.NoError(t, err)
	require.Len(t, sig, 65)
	assert.Contains(t, []byte{27, 28}, sig[64])

	recovered, err := RecoverTypedDataSigner(data, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestSignAndRecoverFreeze(t *testing.T) {
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	signer := NewPrivateKeySignerFromKey(key)

	domain := MarketDomain(1, common.HexToAddress("0x3333333333333333333333333333333333333333"))
	data := FreezeTypedData(domain, &FreezeAttestation{
		Owner:  "0x4444444444444444444444444444444444444444",
		Amount: "102000000000000000000",
		Tick:   "punk",
	})

	sig, err := signer.SignTypedData(data)
	require.NoError(t, err)
	recovered, err := RecoverTypedDataSigner(data, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)
}

func TestSplitSignature(t *testing.T) {
	sig := make([]byte, 65)
	sig[0] = 0xaa
	sig[63] = 0xbb
	sig[64] = 1

	components, err := SplitSignature(sig)
	require.NoError(t, err)
	assert.Equal(t, uint8(28), components.V, "recovery id 1 normalizes to 28")
	assert.Equal(t, byte(0xaa), components.R[0])
	assert.Equal(t, byte(0xbb), components.S[31])

	sig[64] = 27
	components, err = SplitSignature(sig)
	require.NoError(t, err)
	assert.Equal(t, uint8(27), components.V)

	_, err = SplitSignature(sig[:64])
	assert.Error(t, err)
}

func TestOrderInputRoundTrip(t *testing.T) {
	order := sampleOrder()
	input, err := order.MarshalInput()
	require.NoError(t, err)

	parsed, err := ParseOrderInput(input)
	require.NoError(t, err)
	assert.Equal(t, order, parsed)
}
