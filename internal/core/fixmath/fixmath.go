// Package fixmath provides the exact integer arithmetic shared by every
// trading engine. Amounts are int64 values in 7-decimal fixed point; all
// intermediate products are carried at full width so no pricing computation
// overflows or rounds through floating point.
package fixmath

import (
	"errors"
	"math"
	"math/big"
)

var (
	// ErrInvalidAmount is returned when an input amount is zero or negative.
	ErrInvalidAmount = errors.New("fixmath: amount must be positive")

	// ErrInsufficientLiquidity is returned when a reserve is zero or negative.
	ErrInsufficientLiquidity = errors.New("fixmath: insufficient liquidity")

	// ErrNegativeInput is returned for operations undefined on negative input.
	ErrNegativeInput = errors.New("fixmath: negative input")

	// ErrOverflow is returned when a result does not fit in an int64.
	ErrOverflow = errors.New("fixmath: result overflows int64")
)

// PriceScale is the fixed-point scale used for derived prices (7 decimals).
const PriceScale int64 = 10_000_000

// Sqrt returns the integer square root of x using Newton's method starting
// from (x+1)/2, converging when z >= y. Returns 0 for x == 0. Callers must
// guarantee x is non-negative; negative input yields 0.
func Sqrt(x int64) int64 {
	if x <= 0 {
		return 0
	}

	z := (x + 1) / 2
	y := x
	for z < y {
		y = z
		z = (x/z + z) / 2
	}
	return y
}

// SqrtProduct returns the integer square root of a*b, carrying the product
// at 128-bit width. Used to size initial LP tokens. Errors on negative input.
func SqrtProduct(a, b int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegativeInput
	}
	if a == 0 || b == 0 {
		return 0, nil
	}

	product := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	root := bigSqrt(product)
	if !root.IsInt64() {
		return 0, ErrOverflow
	}
	return root.Int64(), nil
}

// bigSqrt is the same Newton iteration as Sqrt, run on arbitrary width.
func bigSqrt(x *big.Int) *big.Int {
	if x.Sign() <= 0 {
		return big.NewInt(0)
	}

	one := big.NewInt(1)
	z := new(big.Int).Add(x, one)
	z.Rsh(z, 1)
	y := new(big.Int).Set(x)
	t := new(big.Int)
	for z.Cmp(y) < 0 {
		y.Set(z)
		t.Quo(x, z)
		t.Add(t, z)
		z.Rsh(t, 1)
	}
	return y
}

// MulDiv returns floor(a*b/den) with the product carried at full width.
// Errors on negative inputs, den <= 0, or a quotient that does not fit.
func MulDiv(a, b, den int64) (int64, error) {
	if a < 0 || b < 0 {
		return 0, ErrNegativeInput
	}
	if den <= 0 {
		return 0, ErrInvalidAmount
	}

	q := new(big.Int).Mul(big.NewInt(a), big.NewInt(b))
	q.Quo(q, big.NewInt(den))
	if !q.IsInt64() {
		return 0, ErrOverflow
	}
	return q.Int64(), nil
}

// ConstantProductOut computes the output amount of a constant-product trade.
//
//	amountInWithFee = amountIn * feeNum
//	out = amountInWithFee * reserveOut / (reserveIn*feeDen + amountInWithFee)
//
// Division truncates toward zero. With feeNum == feeDen the trade is run on
// the raw curve with no embedded fee. The result is always strictly less
// than reserveOut for positive inputs.
func ConstantProductOut(amountIn, reserveIn, reserveOut, feeNum, feeDen int64) (int64, error) {
	if amountIn <= 0 {
		return 0, ErrInvalidAmount
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return 0, ErrInsufficientLiquidity
	}
	if feeNum <= 0 || feeDen <= 0 || feeNum > feeDen {
		return 0, ErrInvalidAmount
	}

	inWithFee := new(big.Int).Mul(big.NewInt(amountIn), big.NewInt(feeNum))
	numerator := new(big.Int).Mul(inWithFee, big.NewInt(reserveOut))
	denominator := new(big.Int).Mul(big.NewInt(reserveIn), big.NewInt(feeDen))
	denominator.Add(denominator, inWithFee)

	out := numerator.Quo(numerator, denominator)
	if !out.IsInt64() {
		return 0, ErrOverflow
	}
	return out.Int64(), nil
}

// CurveOut solves the virtual-reserve curve for a one-sided trade: given the
// incoming amount added to reserveIn, it returns how much of reserveOut
// leaves (k = reserveIn*reserveOut; newOut = floor(k/(reserveIn+amountIn));
// out = reserveOut-newOut). Flooring newOut means the post-trade product is
// at most k and within newReserveIn of it. It also returns the post-trade
// reserves so callers persist exactly the values the math was run on.
func CurveOut(amountIn, reserveIn, reserveOut int64) (out, newReserveIn, newReserveOut int64, err error) {
	if amountIn <= 0 {
		return 0, 0, 0, ErrInvalidAmount
	}
	if reserveIn <= 0 || reserveOut <= 0 {
		return 0, 0, 0, ErrInsufficientLiquidity
	}
	if amountIn > math.MaxInt64-reserveIn {
		return 0, 0, 0, ErrOverflow
	}

	k := new(big.Int).Mul(big.NewInt(reserveIn), big.NewInt(reserveOut))
	newIn := big.NewInt(reserveIn + amountIn)
	newOut := new(big.Int).Quo(k, newIn)
	if !newOut.IsInt64() {
		return 0, 0, 0, ErrOverflow
	}

	newReserveIn = reserveIn + amountIn
	newReserveOut = newOut.Int64()
	out = reserveOut - newReserveOut
	return out, newReserveIn, newReserveOut, nil
}

// Price returns reserveQuote*PriceScale/reserveBase, the 7-decimal quote
// price of one base unit. Errors when reserveBase is zero or negative.
func Price(reserveQuote, reserveBase int64) (int64, error) {
	if reserveBase <= 0 {
		return 0, ErrInsufficientLiquidity
	}
	return MulDiv(reserveQuote, PriceScale, reserveBase)
}
