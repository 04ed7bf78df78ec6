package chain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPackExecuteOrder(t *testing.T) {
	order := sampleOrder()
	sig := SignatureComponents{V: 27}
	arg, err := newMarketOrderArg(order, sig)
	require.NoError(t, err)

	marketABI := GetMarketABI()
	data, err := marketABI.Pack("executeOrder", arg,
		common.HexToAddress("0x5555555555555555555555555555555555555555"))
	require.NoError(t, err)
	assert.Equal(t, marketABI.Methods["executeOrder"].ID, data[:4])

	data, err = marketABI.Pack("cancelOrder", arg)
	require.NoError(t, err)
	assert.Equal(t, marketABI.Methods["cancelOrder"].ID, data[:4])
}

func TestNewMarketOrderArgRejectsMalformedNumbers(t *testing.T) {
	order := sampleOrder()
	order.Amount = "1.5"
	_, err := newMarketOrderArg(order, SignatureComponents{V: 27})
	assert.Error(t, err)

	order = sampleOrder()
	order.Price = "0x10"
	_, err = newMarketOrderArg(order, SignatureComponents{V: 27})
	assert.Error(t, err)
}
