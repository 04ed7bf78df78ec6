package verc20

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDeployMinimal(t *testing.T) {
	data, err := EncodeDeploy(DeployPayload{
		Tick:      "punk",
		MaxSupply: Some("21000000"),
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(data, "0xd9d9f7"))

	decoded, err := DecodeInscription(data)
	require.NoError(t, err)
	assert.Equal(t, ProtocolTag, decoded.Proto)
	assert.Equal(t, OpDeploy, decoded.Op)
	assert.Equal(t, "punk", decoded.Tick)
	assert.Equal(t, "21000000", decoded.MaxSupply.Or(""))
	assert.False(t, decoded.Decimals.Present(), "absent decimals must not be emitted")
	assert.False(t, decoded.Limit.Present())
	assert.False(t, decoded.StartBlock.Present())
	assert.False(t, decoded.Duration.Present())
	assert.False(t, decoded.Type.Present())
}

func TestEncodeDeployDefaultDecimalsOmitted(t *testing.T) {
	defaulted, err := EncodeDeploy(DeployPayload{Tick: "punk", MaxSupply: Some("100")})
	require.NoError(t, err)
	explicit, err := EncodeDeploy(DeployPayload{
		Tick:      "punk",
		MaxSupply: Some("100"),
		Decimals:  Some("18"),
	})
	require.NoError(t, err)
	assert.Equal(t, defaulted, explicit, "explicit 18 decimals must encode like the default")

	custom, err := EncodeDeploy(DeployPayload{
		Tick:      "punk",
		MaxSupply: Some("100"),
		Decimals:  Some("8"),
	})
	require.NoError(t, err)
	decoded, err := DecodeInscription(custom)
	require.NoError(t, err)
	assert.Equal(t, "8", decoded.Decimals.Or(""))
}

func TestEncodeDeployFairMint(t *testing.T) {
	data, err := EncodeDeploy(DeployPayload{
		Tick:       "fair",
		Limit:      Some("1000"),
		StartBlock: Some("18000000"),
		Duration:   Some("7200"),
		Type:       Some("fair"),
	})
	require.NoError(t, err)

	decoded, err := DecodeInscription(data)
	require.NoError(t, err)
	assert.Equal(t, "1000", decoded.Limit.Or(""))
	assert.Equal(t, "18000000", decoded.StartBlock.Or(""))
	assert.Equal(t, "7200", decoded.Duration.Or(""))
	assert.Equal(t, "fair", decoded.Type.Or(""))
	assert.False(t, decoded.MaxSupply.Present())
}

func TestEncodeDeployDeterministic(t *testing.T) {
	payload := DeployPayload{
		Tick:       "punk",
		MaxSupply:  Some("21000000"),
		Limit:      Some("1000"),
		StartBlock: Some("18000000"),
	}
	first, err := EncodeDeploy(payload)
	require.NoError(t, err)
	second, err := EncodeDeploy(payload)
	require.NoError(t, err)
	assert.Equal(t, first, second, "canonical encoding must be byte-stable")
}

func TestEncodeAmountOps(t *testing.T) {
	tests := []struct {
		name   string
		encode func(tick, amt string) (string, error)
		op     Operation
	}{
		{"mint", EncodeMint, OpMint},
		{"transfer", EncodeTransfer, OpTransfer},
		{"list", EncodeList, OpList},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := tt.encode("punk", "1000")
			require.NoError(t, err)

			decoded, err := DecodeInscription(data)
			require.NoError(t, err)
			assert.Equal(t, tt.op, decoded.Op)
			assert.Equal(t, "punk", decoded.Tick)
			assert.Equal(t, "1000", decoded.Amount.Or(""))
		})
	}
}

func TestDecodeInscriptionRejects(t *testing.T) {
	_, err := DecodeInscription("0xzz")
	assert.Error(t, err, "non-hex input")

	_, err = DecodeInscription("0xdeadbeef")
	assert.Error(t, err, "missing tag prefix")

	// Valid envelope around an operation the protocol does not define.
	data, err := encodePayload(map[string]string{"p": ProtocolTag, "op": "burn", "tick": "punk"})
	require.NoError(t, err)
	_, err = DecodeInscription(data)
	assert.ErrorContains(t, err, "unknown operation")
}
