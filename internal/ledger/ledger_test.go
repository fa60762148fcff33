package ledger

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func date(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func month(s string) *MonthKey {
	m, err := ParseMonth(s)
	if err != nil {
		panic(err)
	}
	return &m
}

// standardTerms is rent 8000 + maintenance 2000 = 10000 due per month.
var standardTerms = BillingTerms{MonthlyRent: d(8000), MonthlyMaintenance: d(2000)}

var march2024 = NewMonthKey(2024, time.March)

func TestEvaluateMonth(t *testing.T) {
	tests := []struct {
		name      string
		terms     BillingTerms
		payments  []PaymentRecord
		month     MonthKey
		want      Outcome
		wantPaid  int64
		wantShort int64
	}{
		{
			name:     "scenario A: tagged full payment",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(10000), PaidOn: date("2024-03-05"), BillingMonth: month("2024-03-01"), Type: TypeRent}},
			month:    march2024,
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:      "scenario B: tagged half payment",
			terms:     standardTerms,
			payments:  []PaymentRecord{{ID: "p1", Amount: d(5000), PaidOn: date("2024-03-05"), BillingMonth: month("2024-03-01")}},
			month:     march2024,
			want:      Partial,
			wantPaid:  5000,
			wantShort: 5000,
		},
		{
			name:     "scenario C: untagged payment matched by paid-on date",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(10000), PaidOn: date("2024-03-15")}},
			month:    march2024,
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:      "scenario D: deposit never counts",
			terms:     standardTerms,
			payments:  []PaymentRecord{{ID: "p1", Amount: d(50000), PaidOn: date("2024-02-01"), BillingMonth: month("2024-02-01"), Type: TypeDeposit}},
			month:     march2024,
			want:      Pending,
			wantPaid:  0,
			wantShort: 10000,
		},
		{
			name:      "scenario E: payment tagged for a later month",
			terms:     standardTerms,
			payments:  []PaymentRecord{{ID: "p1", Amount: d(10000), PaidOn: date("2024-03-28"), BillingMonth: month("2024-04-01")}},
			month:     march2024,
			want:      Pending,
			wantShort: 10000,
		},
		{
			name:     "scenario E: same payment queried for its month",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(10000), PaidOn: date("2024-03-28"), BillingMonth: month("2024-04-01")}},
			month:    NewMonthKey(2024, time.April),
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:     "billing month takes priority over paid-on date",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(10000), PaidOn: date("2024-04-02"), BillingMonth: month("2024-03")}},
			month:    march2024,
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:     "exact amount is paid, not partial",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(4000), PaidOn: date("2024-03-01")}, {ID: "p2", Amount: d(6000), PaidOn: date("2024-03-20")}},
			month:    march2024,
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:     "overpayment is still paid",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(12500), PaidOn: date("2024-03-01")}},
			month:    march2024,
			want:     Paid,
			wantPaid: 12500,
		},
		{
			name:     "nothing due is paid",
			terms:    BillingTerms{MonthlyRent: d(0), MonthlyMaintenance: d(0)},
			payments: []PaymentRecord{{ID: "p1", Amount: d(500), PaidOn: date("2024-03-01")}},
			month:    march2024,
			want:     Paid,
			wantPaid: 0,
		},
		{
			name:      "non-positive amounts are excluded",
			terms:     standardTerms,
			payments:  []PaymentRecord{{ID: "p1", Amount: d(-3000), PaidOn: date("2024-03-01")}, {ID: "p2", Amount: d(0), PaidOn: date("2024-03-02")}, {ID: "p3", Amount: d(2000), PaidOn: date("2024-03-03")}},
			month:     march2024,
			want:      Partial,
			wantPaid:  2000,
			wantShort: 8000,
		},
		{
			name:     "maintenance and other types count",
			terms:    standardTerms,
			payments: []PaymentRecord{{ID: "p1", Amount: d(8000), PaidOn: date("2024-03-01"), Type: TypeRent}, {ID: "p2", Amount: d(2000), PaidOn: date("2024-03-01"), Type: TypeMaintenance}},
			month:    march2024,
			want:     Paid,
			wantPaid: 10000,
		},
		{
			name:      "no payments is pending",
			terms:     standardTerms,
			month:     march2024,
			want:      Pending,
			wantShort: 10000,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EvaluateMonth(tt.terms, tt.payments, tt.month)
			if got.Outcome != tt.want {
				t.Errorf("Outcome = %s, want %s", got.Outcome, tt.want)
			}
			if !got.TotalPaid.Equal(d(tt.wantPaid)) {
				t.Errorf("TotalPaid = %s, want %d", got.TotalPaid, tt.wantPaid)
			}
			if !got.Shortfall.Equal(d(tt.wantShort)) {
				t.Errorf("Shortfall = %s, want %d", got.Shortfall, tt.wantShort)
			}
			if got.Month != tt.month {
				t.Errorf("Month = %s, want %s", got.Month, tt.month)
			}
		})
	}
}

func TestEvaluateMonthDeterministic(t *testing.T) {
	payments := []PaymentRecord{
		{ID: "p1", Amount: d(3000), PaidOn: date("2024-03-02")},
		{ID: "p2", Amount: d(1500), PaidOn: date("2024-02-27"), BillingMonth: month("2024-03")},
		{ID: "p3", Amount: d(9000), PaidOn: date("2024-03-10"), Type: TypeDeposit},
	}
	first := EvaluateMonth(standardTerms, payments, march2024)
	for i := 0; i < 5; i++ {
		again := EvaluateMonth(standardTerms, payments, march2024)
		if diff := cmp.Diff(first, again, decimalEqual); diff != "" {
			t.Fatalf("evaluation %d differs (-first +again):\n%s", i, diff)
		}
	}
}

func TestEvaluateMonthOrderIndependent(t *testing.T) {
	payments := []PaymentRecord{
		{ID: "p1", Amount: d(1000), PaidOn: date("2024-03-01")},
		{ID: "p2", Amount: d(2000), PaidOn: date("2024-01-15"), BillingMonth: month("2024-03")},
		{ID: "p3", Amount: d(700), PaidOn: date("2024-03-31"), Type: TypeOther},
		{ID: "p4", Amount: d(5000), PaidOn: date("2024-03-01"), Type: TypeDeposit},
		{ID: "p5", Amount: d(1300), PaidOn: date("2024-03-09"), BillingMonth: month("2024-02")},
	}
	want := EvaluateMonth(standardTerms, payments, march2024)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := append([]PaymentRecord(nil), payments...)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		got := EvaluateMonth(standardTerms, shuffled, march2024)
		if diff := cmp.Diff(want, got, decimalEqual); diff != "" {
			t.Fatalf("shuffle %d changed the result (-want +got):\n%s", i, diff)
		}
	}
	if !want.TotalPaid.Equal(d(3700)) {
		t.Errorf("TotalPaid = %s, want 3700", want.TotalPaid)
	}
}

func TestEvaluateMonthDepositsOnly(t *testing.T) {
	for _, amount := range []int64{1, 10000, 999999} {
		payments := []PaymentRecord{
			{ID: "dep", Amount: d(amount), PaidOn: date("2024-03-01"), BillingMonth: month("2024-03"), Type: TypeDeposit},
			{ID: "dep2", Amount: d(amount), PaidOn: date("2024-03-05"), Type: TypeDeposit},
		}
		got := EvaluateMonth(standardTerms, payments, march2024)
		if !got.TotalPaid.IsZero() {
			t.Errorf("amount %d: TotalPaid = %s, want 0", amount, got.TotalPaid)
		}
		if got.Outcome != Pending {
			t.Errorf("amount %d: Outcome = %s, want pending", amount, got.Outcome)
		}
	}
}

func TestEvaluateMonthNothingDue(t *testing.T) {
	terms := []BillingTerms{
		{},
		{MonthlyRent: d(0), MonthlyMaintenance: d(0)},
		{MonthlyRent: d(-100), MonthlyMaintenance: d(50)},
	}
	for _, tt := range terms {
		got := EvaluateMonth(tt, nil, march2024)
		if got.Outcome != Paid {
			t.Errorf("terms %+v: Outcome = %s, want paid", tt, got.Outcome)
		}
		if !got.TotalPaid.IsZero() {
			t.Errorf("terms %+v: TotalPaid = %s, want 0", tt, got.TotalPaid)
		}
	}
}

func TestHistory(t *testing.T) {
	payments := []PaymentRecord{
		{ID: "jan", Amount: d(10000), PaidOn: date("2024-01-03")},
		{ID: "feb", Amount: d(4000), PaidOn: date("2024-02-03"), BillingMonth: month("2024-02")},
	}
	got := History(standardTerms, payments, march2024, 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}

	want := []struct {
		month   string
		outcome Outcome
	}{
		{"2024-01", Paid},
		{"2024-02", Partial},
		{"2024-03", Pending},
	}
	for i, w := range want {
		if got[i].Month.String() != w.month {
			t.Errorf("[%d] month = %s, want %s", i, got[i].Month, w.month)
		}
		if got[i].Outcome != w.outcome {
			t.Errorf("[%d] outcome = %s, want %s", i, got[i].Outcome, w.outcome)
		}
	}

	if History(standardTerms, payments, march2024, 0) != nil {
		t.Error("expected nil history for n=0")
	}
}

func TestInvalidRecords(t *testing.T) {
	payments := []PaymentRecord{
		{ID: "ok", Amount: d(1)},
		{ID: "zero", Amount: d(0)},
		{ID: "negative", Amount: d(-5)},
	}
	got := InvalidRecords(payments)
	if diff := cmp.Diff([]string{"zero", "negative"}, got); diff != "" {
		t.Errorf("InvalidRecords mismatch (-want +got):\n%s", diff)
	}
}
