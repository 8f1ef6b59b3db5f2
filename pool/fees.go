package pool

import (
	"math/big"

	"github.com/veilpay/veilpay-go/types"
)

// SplitRelayerFee splits amount into (net, fee) at feeBps basis points,
// truncating toward zero. The product is computed double-width so no
// amount/rate combination can overflow; a fee that does not fit u64 or
// that reaches the full amount is rejected.
func SplitRelayerFee(amount uint64, feeBps uint16) (net, fee uint64, err error) {
	if feeBps == 0 {
		return amount, 0, nil
	}
	f := new(big.Int).Mul(new(big.Int).SetUint64(amount), big.NewInt(int64(feeBps)))
	f.Div(f, big.NewInt(types.FeeDenominator))
	if !f.IsUint64() {
		return 0, 0, ErrMathOverflow
	}
	fee = f.Uint64()
	if fee >= amount {
		return 0, 0, ErrRelayerFeeExceedsAmount
	}
	return amount - fee, fee, nil
}
