package verc20

import (
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// BalanceView is a snapshot of a wallet's holdings used by the validation
// rules. Both values are in smallest units; either may be nil when the rule
// under test does not need it.
type BalanceView struct {
	TokenBalance  *big.Int
	NativeBalance *big.Int
}

// DeployInput is a deploy request before encoding. Numeric fields are
// decimal strings; absent optionals are Absent, not empty strings.
type DeployInput struct {
	Tick        string
	Type        TokenType
	TotalSupply Optional[string]
	Decimals    Optional[string]
	Limit       Optional[string]
	StartBlock  Optional[string]
	Duration    Optional[string]
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

// parseAmount parses a decimal string into a big.Int, rejecting anything
// that is not a plain base-10 integer.
func parseAmount(field, s string) (*big.Int, error) {
	v, ok := new(big.Int).SetString(strings.TrimSpace(s), 10)
	if !ok {
		return nil, invalid(field, "not a valid integer")
	}
	return v, nil
}

func parsePositive(field, s string) (*big.Int, error) {
	v, err := parseAmount(field, s)
	if err != nil {
		return nil, err
	}
	if v.Sign() <= 0 {
		return nil, invalid(field, "must be greater than zero")
	}
	return v, nil
}

// ValidateTick checks the structural rules common to every operation. Deploy
// uniqueness is the one async rule and lives on Client.CheckTick.
func ValidateTick(tick string) error {
	if strings.TrimSpace(tick) == "" {
		return invalid("tick", "must not be empty")
	}
	return nil
}

// ValidateDeploy applies every client-side deploy rule: decimals range, the
// supply/limit/duration requirements of each token type, and the protocol
// bound on mint windows.
func ValidateDeploy(in DeployInput) error {
	if err := ValidateTick(in.Tick); err != nil {
		return err
	}

	if dec, ok := in.Decimals.Get(); ok {
		d, err := parseAmount("decimals", dec)
		if err != nil {
			return err
		}
		if d.Sign() < 0 || d.Cmp(big.NewInt(DefaultDecimals)) > 0 {
			return invalid("decimals", "must be between 0 and 18")
		}
	}

	var supply *big.Int
	switch in.Type {
	case TokenTypeFair:
		// Fair mints derive supply from the mint window; a supplied value
		// is ignored rather than rejected.
	default:
		raw, ok := in.TotalSupply.Get()
		if !ok {
			return invalid("total supply", "required for normal tokens")
		}
		var err error
		supply, err = parsePositive("total supply", raw)
		if err != nil {
			return err
		}
	}

	limRaw, hasLim := in.Limit.Get()
	if in.Type == TokenTypeFair && !hasLim {
		return invalid("limit", "required for fair-mint tokens")
	}
	if hasLim {
		lim, err := parsePositive("limit", limRaw)
		if err != nil {
			return err
		}
		if supply != nil && lim.Cmp(supply) > 0 {
			return invalid("limit", "must not exceed total supply")
		}
	}

	durRaw, hasDur := in.Duration.Get()
	if in.Type == TokenTypeFair && !hasDur {
		return invalid("duration", "required for fair-mint tokens")
	}
	if hasDur {
		dur, err := parsePositive("duration", durRaw)
		if err != nil {
			return err
		}
		if dur.Cmp(big.NewInt(MaxMintDuration)) > 0 {
			return invalid("duration", "exceeds the maximum mint window")
		}
	}

	if sb, ok := in.StartBlock.Get(); ok {
		if _, err := parsePositive("start block", sb); err != nil {
			return err
		}
	}
	return nil
}

// ValidateMint checks a mint amount against the token's per-mint limit.
func ValidateMint(token *Token, amount string) error {
	amt, err := parsePositive("amount", amount)
	if err != nil {
		return err
	}
	if token.Limit != "" {
		lim, err := parseAmount("limit", token.Limit)
		if err != nil {
			return err
		}
		if amt.Cmp(lim) > 0 {
			return invalid("amount", "exceeds the per-mint limit")
		}
	}
	return nil
}

// ValidateTransfer checks the recipient address and that the sender holds
// enough of the token.
func ValidateTransfer(to string, amount string, view BalanceView) error {
	if !common.IsHexAddress(to) {
		return invalid("recipient", "not a well-formed address")
	}
	amt, err := parsePositive("amount", amount)
	if err != nil {
		return err
	}
	if view.TokenBalance != nil && amt.Cmp(view.TokenBalance) > 0 {
		return invalid("amount", "exceeds token balance")
	}
	return nil
}

// ValidateOrder checks amount and unit price against the maker's balances.
// Asks are bounded by the token balance; bids by the native balance, both
// for the unit price alone and for the full order value.
func ValidateOrder(sell bool, amount, unitPrice *big.Int, view BalanceView) error {
	if amount == nil || amount.Sign() <= 0 {
		return invalid("amount", "must be greater than zero")
	}
	if unitPrice == nil || unitPrice.Sign() <= 0 {
		return invalid("unit price", "must be greater than zero")
	}
	if sell {
		if view.TokenBalance != nil && amount.Cmp(view.TokenBalance) > 0 {
			return invalid("amount", "exceeds token balance")
		}
		return nil
	}
	if view.NativeBalance != nil {
		if unitPrice.Cmp(view.NativeBalance) > 0 {
			return invalid("unit price", "exceeds native balance")
		}
		if OrderValue(amount, unitPrice).Cmp(view.NativeBalance) > 0 {
			return invalid("amount", "order value exceeds native balance")
		}
	}
	return nil
}

// OrderDuration resolves a duration key ("7D", "14D", "1M") to its window.
func OrderDuration(key string) (time.Duration, error) {
	d, ok := OrderDurations[key]
	if !ok {
		return 0, invalid("duration", "must be one of 7D, 14D or 1M")
	}
	return d, nil
}
