package ledger

import (
	"encoding/json"
	"testing"
	"time"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    MonthKey
		wantErr bool
	}{
		{in: "2024-03", want: MonthKey{2024, time.March}},
		{in: "2024-03-01", want: MonthKey{2024, time.March}},
		{in: "2024-12-31", want: MonthKey{2024, time.December}},
		{in: "2024-13", wantErr: true},
		{in: "March 2024", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMonth(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseMonth(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestMonthKeyArithmetic(t *testing.T) {
	dec := NewMonthKey(2023, time.December)
	if got := dec.Next(); got != (MonthKey{2024, time.January}) {
		t.Errorf("Next() = %s, want 2024-01", got)
	}
	if got := dec.Next().Prev(); got != dec {
		t.Errorf("Next().Prev() = %s, want %s", got, dec)
	}
	if got := dec.AddMonths(-12); got != (MonthKey{2022, time.December}) {
		t.Errorf("AddMonths(-12) = %s, want 2022-12", got)
	}
	if !dec.Before(dec.Next()) || dec.Next().Before(dec) {
		t.Error("Before ordering is wrong")
	}

	feb := NewMonthKey(2024, time.February)
	if got := feb.End().Day(); got != 29 {
		t.Errorf("End() of leap February = %d, want 29", got)
	}
	if !feb.Contains(feb.Start()) || !feb.Contains(feb.End()) || feb.Contains(feb.End().AddDate(0, 0, 1)) {
		t.Error("Contains disagrees with Start/End")
	}
}

func TestMonthKeyJSON(t *testing.T) {
	in := struct {
		Month MonthKey `json:"month"`
	}{Month: NewMonthKey(2024, time.April)}

	raw, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if string(raw) != `{"month":"2024-04"}` {
		t.Errorf("Marshal = %s", raw)
	}

	var out struct {
		Month MonthKey `json:"month"`
	}
	if err := json.Unmarshal([]byte(`{"month":"2024-04-01"}`), &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out.Month != in.Month {
		t.Errorf("Unmarshal = %s, want %s", out.Month, in.Month)
	}
}
