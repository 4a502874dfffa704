package domain

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/fd1az/defi-router/internal/apperror"
)

func TestConstantProductAmountOut(t *testing.T) {
	tests := []struct {
		name       string
		amountIn   int64
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		// floor(1000*997*10000 / (10000*1000 + 1000*997)) = 906
		{"small_pool", 1000, 10_000, 10_000, 906},
		// floor(1000*997*1000000 / (1000000*1000 + 1000*997)) = 996
		{"deep_pool", 1000, 1_000_000, 1_000_000, 996},
		// asymmetric reserves shift the price
		{"asymmetric_pool", 1000, 10_000, 20_000, 1813},
		{"single_unit", 1, 10_000, 10_000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConstantProductAmountOut(big.NewInt(tt.amountIn), big.NewInt(tt.reserveIn), big.NewInt(tt.reserveOut))
			if err != nil {
				t.Fatalf("ConstantProductAmountOut() error = %v", err)
			}
			if got.Int64() != tt.want {
				t.Errorf("ConstantProductAmountOut() = %d, want %d", got.Int64(), tt.want)
			}
		})
	}
}

func TestConstantProductAmountIn(t *testing.T) {
	tests := []struct {
		name       string
		amountOut  int64
		reserveIn  int64
		reserveOut int64
		want       int64
	}{
		// floor(10000*906*1000 / ((10000-906)*997)) + 1 = 1000
		{"inverse_of_small_pool", 906, 10_000, 10_000, 1000},
		// floor(1000000*996*1000 / ((1000000-996)*997)) + 1 = 1000
		{"inverse_of_deep_pool", 996, 1_000_000, 1_000_000, 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConstantProductAmountIn(big.NewInt(tt.amountOut), big.NewInt(tt.reserveIn), big.NewInt(tt.reserveOut))
			if err != nil {
				t.Fatalf("ConstantProductAmountIn() error = %v", err)
			}
			if got.Int64() != tt.want {
				t.Errorf("ConstantProductAmountIn() = %d, want %d", got.Int64(), tt.want)
			}
		})
	}
}

func TestConstantProductAmountIn_OutputExceedsReserves(t *testing.T) {
	tests := []struct {
		name      string
		amountOut int64
	}{
		{"equal_to_reserve", 10_000},
		{"above_reserve", 10_001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ConstantProductAmountIn(big.NewInt(tt.amountOut), big.NewInt(10_000), big.NewInt(10_000))
			if !apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
				t.Errorf("error = %v, want code %v", err, apperror.CodeInsufficientLiquidity)
			}
		})
	}
}

func TestConstantProduct_RejectsNonPositiveInputs(t *testing.T) {
	if _, err := ConstantProductAmountOut(big.NewInt(0), big.NewInt(100), big.NewInt(100)); err == nil {
		t.Error("zero input amount should fail")
	}
	if _, err := ConstantProductAmountOut(big.NewInt(10), big.NewInt(0), big.NewInt(100)); err == nil {
		t.Error("empty reserves should fail")
	}
	if _, err := ConstantProductAmountIn(big.NewInt(-5), big.NewInt(100), big.NewInt(100)); err == nil {
		t.Error("negative output amount should fail")
	}
}

// Rounding never favors the trader: paying the exact-output inverse's
// input always covers the quoted output. When the inverse demands less
// than the original input (a floor plateau), the output must not drop.
func TestConstantProduct_RoundTripNeverFavorsTrader(t *testing.T) {
	reserves := []int64{1_000, 50_000, 1_000_000, 987_654_321}
	amounts := []int64{1, 17, 999, 12_345, 500_000}

	for _, rIn := range reserves {
		for _, rOut := range reserves {
			for _, in := range amounts {
				out, err := ConstantProductAmountOut(big.NewInt(in), big.NewInt(rIn), big.NewInt(rOut))
				if err != nil {
					t.Fatalf("ConstantProductAmountOut(%d, %d, %d) error = %v", in, rIn, rOut, err)
				}
				if out.Sign() == 0 {
					continue
				}

				inBack, err := ConstantProductAmountIn(out, big.NewInt(rIn), big.NewInt(rOut))
				if err != nil {
					t.Fatalf("ConstantProductAmountIn(%s, %d, %d) error = %v", out, rIn, rOut, err)
				}
				outBack, err := ConstantProductAmountOut(inBack, big.NewInt(rIn), big.NewInt(rOut))
				if err != nil {
					t.Fatalf("ConstantProductAmountOut(%s, %d, %d) error = %v", inBack, rIn, rOut, err)
				}
				if outBack.Cmp(out) < 0 {
					t.Errorf("round trip in=%d rIn=%d rOut=%d: inverse %s yields %s < quoted %s",
						in, rIn, rOut, inBack, outBack, out)
				}
			}
		}
	}
}

func TestSqrtPriceToPrice(t *testing.T) {
	one := new(big.Int).Lsh(big.NewInt(1), 96)

	tests := []struct {
		name         string
		sqrtPriceX96 *big.Int
		want         string
	}{
		{"unit_price", one, "1"},
		{"double_sqrt_quadruples_price", new(big.Int).Lsh(big.NewInt(1), 97), "4"},
		{"half_sqrt_quarters_price", new(big.Int).Lsh(big.NewInt(1), 95), "0.25"},
		{"zero", big.NewInt(0), "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SqrtPriceToPrice(tt.sqrtPriceX96)
			if want := decimal.RequireFromString(tt.want); !got.Equal(want) {
				t.Errorf("SqrtPriceToPrice() = %s, want %s", got, want)
			}
		})
	}
}

func TestApproximateReservesFromLiquidity(t *testing.T) {
	// sqrtPriceX96 = 2 * 2^96 means price = 4 (token1 per token0).
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 97)
	liquidity := big.NewInt(1000)

	reserveA, reserveB, err := ApproximateReservesFromLiquidity(liquidity, sqrtPrice, true)
	if err != nil {
		t.Fatalf("ApproximateReservesFromLiquidity() error = %v", err)
	}
	if want := decimal.RequireFromString("250"); !reserveA.Equal(want) {
		t.Errorf("reserveA (token0) = %s, want %s", reserveA, want)
	}
	if want := decimal.RequireFromString("4000"); !reserveB.Equal(want) {
		t.Errorf("reserveB (token1) = %s, want %s", reserveB, want)
	}

	// Flipping token ordering swaps the assignment.
	reserveA, reserveB, err = ApproximateReservesFromLiquidity(liquidity, sqrtPrice, false)
	if err != nil {
		t.Fatalf("ApproximateReservesFromLiquidity() error = %v", err)
	}
	if want := decimal.RequireFromString("4000"); !reserveA.Equal(want) {
		t.Errorf("reserveA (token1) = %s, want %s", reserveA, want)
	}
	if want := decimal.RequireFromString("250"); !reserveB.Equal(want) {
		t.Errorf("reserveB (token0) = %s, want %s", reserveB, want)
	}
}

func TestApproximateReservesFromLiquidity_Errors(t *testing.T) {
	sqrtPrice := new(big.Int).Lsh(big.NewInt(1), 96)

	if _, _, err := ApproximateReservesFromLiquidity(big.NewInt(0), sqrtPrice, true); !apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("zero liquidity: error = %v, want code %v", err, apperror.CodeInsufficientLiquidity)
	}
	if _, _, err := ApproximateReservesFromLiquidity(big.NewInt(1000), big.NewInt(0), true); !apperror.HasCode(err, apperror.CodeInsufficientLiquidity) {
		t.Errorf("zero price: error = %v, want code %v", err, apperror.CodeInsufficientLiquidity)
	}
}

func BenchmarkConstantProductAmountOut(b *testing.B) {
	in := big.NewInt(1_000_000)
	rIn := big.NewInt(5_000_000_000)
	rOut := big.NewInt(12_000_000_000)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := ConstantProductAmountOut(in, rIn, rOut); err != nil {
			b.Fatal(err)
		}
	}
}
