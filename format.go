package verc20

import (
	"math/big"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Display-only conversions. USD figures are advisory: they come from an
// externally supplied spot price and never flow back into on-chain values.

const etherDecimals = 18

// WeiToEther converts a wei amount to a decimal ether value.
func WeiToEther(wei *big.Int) decimal.Decimal {
	return decimal.NewFromBigInt(wei, 0).Shift(-etherDecimals)
}

// EtherToWei converts a decimal ether string to an exact wei amount.
// Fractional digits beyond 18 are rejected rather than silently truncated.
func EtherToWei(ether string) (*big.Int, error) {
	d, err := decimal.NewFromString(ether)
	if err != nil {
		return nil, err
	}
	shifted := d.Shift(etherDecimals)
	if !shifted.IsInteger() {
		return nil, &ValidationError{Field: "price", Message: "more than 18 fractional digits"}
	}
	return shifted.BigInt(), nil
}

// USDValue multiplies an ether value by the spot price.
func USDValue(ether decimal.Decimal, spotPrice decimal.Decimal) decimal.Decimal {
	return ether.Mul(spotPrice)
}

// FormatUnitPrice renders an ether unit price with up to 10 fractional digits.
func FormatUnitPrice(wei *big.Int) string {
	return trimZeros(WeiToEther(wei).RoundDown(10))
}

// FormatFloorUSD renders a floor price in USD with 4 fractional digits.
func FormatFloorUSD(usd decimal.Decimal) string {
	return groupThousands(usd.StringFixed(4))
}

// FormatTotalUSD renders an aggregate USD total with 2 fractional digits.
func FormatTotalUSD(usd decimal.Decimal) string {
	return groupThousands(usd.StringFixed(2))
}

// FormatQuantity renders a token quantity with thousands grouping and no
// forced fractional digits.
func FormatQuantity(quantity *big.Int) string {
	return groupThousands(quantity.String())
}

// MintWindowDuration approximates a block-count mint window as wall time,
// assuming the post-merge 12 second block cadence.
func MintWindowDuration(blocks uint64) time.Duration {
	return time.Duration(blocks) * 12 * time.Second
}

func trimZeros(d decimal.Decimal) string {
	s := d.String()
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	return s
}

func groupThousands(s string) string {
	intPart, rest := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart, rest = s[:i], s[i:]
	}
	neg := strings.HasPrefix(intPart, "-")
	if neg {
		intPart = intPart[1:]
	}

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}

	out := b.String() + rest
	if neg {
		out = "-" + out
	}
	return out
}
