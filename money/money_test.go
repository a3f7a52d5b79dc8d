package money_test

import (
	"testing"

	"github.com/dicelab/fairsim/money"
)

func TestFromStringRoundTrip(t *testing.T) {
	m, err := money.FromString("0.00015")
	if err != nil {
		t.Fatalf("FromString: %v", err)
	}
	if m.String() != "0.00015" {
		t.Fatalf("String() = %q, want 0.00015", m.String())
	}
}

func TestFromStringInvalid(t *testing.T) {
	if _, err := money.FromString("not-a-number"); err == nil {
		t.Fatal("expected error for invalid decimal literal")
	}
}

func TestAddSubNeg(t *testing.T) {
	a := money.MustFromString("10.5")
	b := money.MustFromString("3.25")
	if got := a.Add(b).String(); got != "13.75" {
		t.Fatalf("Add = %s, want 13.75", got)
	}
	if got := a.Sub(b).String(); got != "7.25" {
		t.Fatalf("Sub = %s, want 7.25", got)
	}
	if got := a.Neg().String(); got != "-10.5" {
		t.Fatalf("Neg = %s, want -10.5", got)
	}
}

func TestMulMultiplierHalfToEven(t *testing.T) {
	bet := money.MustFromString("0.001")
	payout, _ := bet.MulMultiplier(2.0)
	want := money.MustFromString("0.002")
	if !payout.Equal(want) {
		t.Fatalf("payout = %s, want %s", payout.String(), want.String())
	}
	// A tie one digit past Precision rounds to the even neighbour.
	tie, _ := money.MustFromString("0.0000000000025").MulMultiplier(1.0)
	if wantTie := money.MustFromString("0.000000000002"); !tie.Equal(wantTie) {
		t.Fatalf("tie = %s, want %s", tie.String(), wantTie.String())
	}
}

func TestClampWithinBounds(t *testing.T) {
	lo := money.MustFromString("0.00015")
	hi := money.MustFromString("100")
	below := money.MustFromString("0.00001")
	above := money.MustFromString("500")
	within := money.MustFromString("5")

	if got := money.Clamp(below, lo, hi); !got.Equal(lo) {
		t.Fatalf("Clamp(below) = %s, want %s", got.String(), lo.String())
	}
	if got := money.Clamp(above, lo, hi); !got.Equal(hi) {
		t.Fatalf("Clamp(above) = %s, want %s", got.String(), hi.String())
	}
	if got := money.Clamp(within, lo, hi); !got.Equal(within) {
		t.Fatalf("Clamp(within) = %s, want %s", got.String(), within.String())
	}
}

func TestLedgerClosureOverManyBets(t *testing.T) {
	balance := money.FromInt(100)
	total := money.Zero
	bet := money.MustFromString("0.001")
	for i := 0; i < 100000; i++ {
		balance = balance.Sub(bet)
		total = total.Add(bet)
		if i%3 == 0 {
			payout, _ := bet.MulMultiplier(2.0)
			balance = balance.Add(payout)
			total = total.Sub(payout)
		}
	}
	// Balance plus everything wagered/paid must reconstruct exactly;
	// no rounding drift after 1e5 operations.
	reconstructed := balance.Add(total)
	if !reconstructed.Equal(money.FromInt(100)) {
		t.Fatalf("ledger drift: reconstructed = %s, want 100", reconstructed.String())
	}
}

func TestMoneyNeverPassesThroughFloatForComparisons(t *testing.T) {
	a := money.MustFromString("0.1")
	b := money.MustFromString("0.2")
	sum := a.Add(b)
	want := money.MustFromString("0.3")
	if !sum.Equal(want) {
		t.Fatalf("0.1 + 0.2 = %s, want exactly 0.3 (float64 would fail this)", sum.String())
	}
}

func TestMaxMin(t *testing.T) {
	a := money.MustFromString("3")
	b := money.MustFromString("7")
	if !money.Max(a, b).Equal(b) {
		t.Fatal("Max should return the larger value")
	}
	if !money.Min(a, b).Equal(a) {
		t.Fatal("Min should return the smaller value")
	}
}
