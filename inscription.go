package verc20

import (
	"bytes"
	"encoding/hex"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor"
)

// inscriptionTag is the CBOR self-describe tag prepended to every payload so
// indexers can recognize inscription data without guessing at the content.
var inscriptionTag = []byte{0xd9, 0xd9, 0xf7}

// Operation is the kind of a vERC-20 inscription.
type Operation string

const (
	OpDeploy   Operation = "deploy"
	OpMint     Operation = "mint"
	OpTransfer Operation = "transfer"
	OpList     Operation = "list"
)

// Optional is a first-class optional field: either Some(value) or Absent.
// The codec emits a key if and only if the field is present, so omission
// never has to be inferred from zero values.
type Optional[T any] struct {
	value   T
	present bool
}

// Some wraps a present value.
func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, present: true}
}

// Absent is the missing value.
func Absent[T any]() Optional[T] {
	return Optional[T]{}
}

// Present reports whether a value is set.
func (o Optional[T]) Present() bool { return o.present }

// Get returns the value and whether it is present.
func (o Optional[T]) Get() (T, bool) { return o.value, o.present }

// Or returns the value if present, otherwise def.
func (o Optional[T]) Or(def T) T {
	if o.present {
		return o.value
	}
	return def
}

// DeployPayload describes a deploy inscription. All numeric fields are
// decimal strings; the codec passes them through untouched and leaves
// range checks to validation.
type DeployPayload struct {
	Tick       string
	MaxSupply  Optional[string]
	Decimals   Optional[string]
	Limit      Optional[string]
	StartBlock Optional[string]
	Duration   Optional[string]
	Type       Optional[string]
}

// Inscription is a decoded payload of any operation kind. Fields that the
// operation does not carry are Absent.
type Inscription struct {
	Proto      string
	Op         Operation
	Tick       string
	Amount     Optional[string]
	MaxSupply  Optional[string]
	Decimals   Optional[string]
	Limit      Optional[string]
	StartBlock Optional[string]
	Duration   Optional[string]
	Type       Optional[string]
}

var canonicalEnc = cbor.EncOptions{Canonical: true}

func encodePayload(payload map[string]string) (string, error) {
	encoded, err := cbor.Marshal(payload, canonicalEnc)
	if err != nil {
		return "", errors.Wrap(err, "cbor encode inscription")
	}
	data := make([]byte, 0, len(inscriptionTag)+len(encoded))
	data = append(data, inscriptionTag...)
	data = append(data, encoded...)
	return "0x" + hex.EncodeToString(data), nil
}

func putOptional(payload map[string]string, key string, v Optional[string]) {
	if value, ok := v.Get(); ok {
		payload[key] = value
	}
}

// EncodeDeploy encodes a deploy inscription. Optional fields appear only
// when present; decimals equal to the default ("18") are dropped so a
// defaulted deploy and an explicit 18-decimals deploy encode identically.
func EncodeDeploy(p DeployPayload) (string, error) {
	payload := map[string]string{
		"p":    ProtocolTag,
		"op":   string(OpDeploy),
		"tick": p.Tick,
	}
	putOptional(payload, "max", p.MaxSupply)
	if dec, ok := p.Decimals.Get(); ok && dec != "18" {
		payload["dec"] = dec
	}
	putOptional(payload, "lim", p.Limit)
	putOptional(payload, "startBlock", p.StartBlock)
	putOptional(payload, "duration", p.Duration)
	putOptional(payload, "t", p.Type)
	return encodePayload(payload)
}

// EncodeMint encodes a mint inscription for amt units (smallest denomination).
func EncodeMint(tick, amt string) (string, error) {
	return encodeAmountOp(OpMint, tick, amt)
}

// EncodeTransfer encodes a transfer inscription.
func EncodeTransfer(tick, amt string) (string, error) {
	return encodeAmountOp(OpTransfer, tick, amt)
}

// EncodeList encodes the listing inscription that anchors an order nonce.
func EncodeList(tick, amt string) (string, error) {
	return encodeAmountOp(OpList, tick, amt)
}

func encodeAmountOp(op Operation, tick, amt string) (string, error) {
	return encodePayload(map[string]string{
		"p":    ProtocolTag,
		"op":   string(op),
		"tick": tick,
		"amt":  amt,
	})
}

func liftOptional(payload map[string]string, key string) Optional[string] {
	if v, ok := payload[key]; ok {
		return Some(v)
	}
	return Absent[string]()
}

// DecodeInscription is the inverse of the encoders: it strips the 0x prefix
// and self-describe tag and lifts present keys into Some values.
func DecodeInscription(data string) (*Inscription, error) {
	raw := strings.TrimPrefix(data, "0x")
	decoded, err := hex.DecodeString(raw)
	if err != nil {
		return nil, errors.Wrap(err, "inscription is not hex")
	}
	if !bytes.HasPrefix(decoded, inscriptionTag) {
		return nil, errors.New("missing inscription tag prefix")
	}

	payload := make(map[string]string)
	if err := cbor.Unmarshal(decoded[len(inscriptionTag):], &payload); err != nil {
		return nil, errors.Wrap(err, "cbor decode inscription")
	}

	op := Operation(payload["op"])
	switch op {
	case OpDeploy, OpMint, OpTransfer, OpList:
	default:
		return nil, errors.Newf("unknown operation %q", payload["op"])
	}

	return &Inscription{
		Proto:      payload["p"],
		Op:         op,
		Tick:       payload["tick"],
		Amount:     liftOptional(payload, "amt"),
		MaxSupply:  liftOptional(payload, "max"),
		Decimals:   liftOptional(payload, "dec"),
		Limit:      liftOptional(payload, "lim"),
		StartBlock: liftOptional(payload, "startBlock"),
		Duration:   liftOptional(payload, "duration"),
		Type:       liftOptional(payload, "t"),
	}, nil
}
