package chain

import (
	"context"
	"crypto/ecdsa"
	"math/big"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ContractCaller handles blockchain interactions: raw inscription
// transactions and market contract calls.
type ContractCaller struct {
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	marketAddr common.Address
	chainID    *big.Int
	marketABI  abi.ABI
}

// NewContractCaller dials the RPC endpoint and prepares the market binding.
func NewContractCaller(rpcURL, privateKeyHex, marketAddr string) (*ContractCaller, error) {
	client, err := ethclient.Dial(rpcURL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to RPC")
	}

	privateKey, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}

	chainID, err := client.ChainID(context.Background())
	if err != nil {
		return nil, errors.Wrap(err, "failed to get chain id")
	}

	return &ContractCaller{
		client:     client,
		privateKey: privateKey,
		marketAddr: common.HexToAddress(marketAddr),
		chainID:    chainID,
		marketABI:  GetMarketABI(),
	}, nil
}

// GetSignerAddress returns the address of the transaction signer.
func (cc *ContractCaller) GetSignerAddress() common.Address {
	return crypto.PubkeyToAddress(cc.privateKey.PublicKey)
}

// MarketAddress returns the market contract address.
func (cc *ContractCaller) MarketAddress() common.Address {
	return cc.marketAddr
}

// ChainID returns the connected network's chain id.
func (cc *ContractCaller) ChainID() *big.Int {
	return new(big.Int).Set(cc.chainID)
}

// NativeBalance returns the signer's native currency balance.
func (cc *ContractCaller) NativeBalance(ctx context.Context) (*big.Int, error) {
	balance, err := cc.client.BalanceAt(ctx, cc.GetSignerAddress(), nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get balance")
	}
	return balance, nil
}

// LatestBlockNumber returns the chain head height.
func (cc *ContractCaller) LatestBlockNumber(ctx context.Context) (uint64, error) {
	number, err := cc.client.BlockNumber(ctx)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get block number")
	}
	return number, nil
}

// SendInscription sends a transaction carrying inscription payload bytes to
// the given destination. Value is zero for every creation-time flow.
func (cc *ContractCaller) SendInscription(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	return cc.sendTransaction(ctx, to, value, data)
}

// ExecuteOrder calls executeOrder on the market contract with the canonical
// order, its signature components, and the attached payment value.
func (cc *ContractCaller) ExecuteOrder(ctx context.Context, order *Order, sig SignatureComponents, recipient common.Address, value *big.Int) (*types.Transaction, error) {
	arg, err := newMarketOrderArg(order, sig)
	if err != nil {
		return nil, err
	}
	callData, err := cc.marketABI.Pack("executeOrder", arg, recipient)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack executeOrder")
	}
	return cc.sendTransaction(ctx, cc.marketAddr, value, callData)
}

// CancelOrder calls cancelOrder on the market contract.
func (cc *ContractCaller) CancelOrder(ctx context.Context, order *Order, sig SignatureComponents) (*types.Transaction, error) {
	arg, err := newMarketOrderArg(order, sig)
	if err != nil {
		return nil, err
	}
	callData, err := cc.marketABI.Pack("cancelOrder", arg)
	if err != nil {
		return nil, errors.Wrap(err, "failed to pack cancelOrder")
	}
	return cc.sendTransaction(ctx, cc.marketAddr, big.NewInt(0), callData)
}

func (cc *ContractCaller) sendTransaction(ctx context.Context, to common.Address, value *big.Int, data []byte) (*types.Transaction, error) {
	from := cc.GetSignerAddress()

	nonce, err := cc.client.PendingNonceAt(ctx, from)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get nonce")
	}

	gasPrice, err := cc.client.SuggestGasPrice(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "failed to get gas price")
	}

	gasLimit, err := cc.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  data,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to estimate gas")
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(cc.chainID), cc.privateKey)
	if err != nil {
		return nil, errors.Wrap(err, "failed to sign transaction")
	}

	if err := cc.client.SendTransaction(ctx, signedTx); err != nil {
		return nil, errors.Wrap(err, "failed to send transaction")
	}
	return signedTx, nil
}

// WaitMined polls for the transaction receipt. Confirmation waits are
// bounded only by ctx; callers pass their own deadline if they want one.
func (cc *ContractCaller) WaitMined(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	for {
		receipt, err := cc.client.TransactionReceipt(ctx, txHash)
		if err == nil {
			return receipt, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return nil, errors.Wrapf(err, "failed to get receipt for %s", txHash.Hex())
		}

		select {
		case <-ctx.Done():
			return nil, errors.Wrapf(ctx.Err(), "waiting for transaction %s", txHash.Hex())
		case <-time.After(2 * time.Second):
		}
	}
}

// Close closes the underlying RPC connection.
func (cc *ContractCaller) Close() {
	if cc.client != nil {
		cc.client.Close()
	}
}
