package chain

import (
	"crypto/ecdsa"

	"github.com/cockroachdb/errors"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/signer/core/apitypes"
)

// Signer is the wallet capability injected into every flow: an address and
// the ability to sign typed data on its behalf. Implementations backed by
// interactive wallets may return a rejection error when the user declines.
type Signer interface {
	Address() common.Address
	SignTypedData(data apitypes.TypedData) ([]byte, error)
}

// PrivateKeySigner signs with a local ECDSA key.
type PrivateKeySigner struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewPrivateKeySigner creates a signer from a hex-encoded private key.
func NewPrivateKeySigner(privateKeyHex string) (*PrivateKeySigner, error) {
	key, err := crypto.HexToECDSA(privateKeyHex)
	if err != nil {
		return nil, errors.Wrap(err, "invalid private key")
	}
	return NewPrivateKeySignerFromKey(key), nil
}

// NewPrivateKeySignerFromKey wraps an existing key.
func NewPrivateKeySignerFromKey(key *ecdsa.PrivateKey) *PrivateKeySigner {
	return &PrivateKeySigner{
		key:     key,
		address: crypto.PubkeyToAddress(key.PublicKey),
	}
}

func (s *PrivateKeySigner) Address() common.Address {
	return s.address
}

// SignTypedData signs the EIP-712 digest of data. The returned signature is
// 65 bytes (r || s || v) with v in {27, 28}.
func (s *PrivateKeySigner) SignTypedData(data apitypes.TypedData) ([]byte, error) {
	digest, err := HashTypedData(data)
	if err != nil {
		return nil, err
	}
	sig, err := crypto.Sign(digest.Bytes(), s.key)
	if err != nil {
		return nil, errors.Wrap(err, "sign typed data")
	}
	sig[64] += 27
	return sig, nil
}

// Key exposes the underlying key for transaction signing.
func (s *PrivateKeySigner) Key() *ecdsa.PrivateKey {
	return s.key
}

// RecoverTypedDataSigner recovers the address that produced sig over data.
func RecoverTypedDataSigner(data apitypes.TypedData, sig []byte) (common.Address, error) {
	if len(sig) != 65 {
		return common.Address{}, errors.Newf("signature must be 65 bytes, got %d", len(sig))
	}
	digest, err := HashTypedData(data)
	if err != nil {
		return common.Address{}, err
	}
	normalized := make([]byte, 65)
	copy(normalized, sig)
	if normalized[64] >= 27 {
		normalized[64] -= 27
	}
	pub, err := crypto.SigToPub(digest.Bytes(), normalized)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recover signer")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
