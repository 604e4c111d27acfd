package strategy

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"tradewise/internal/model"
)

func series(closes ...float64) []model.OHLCV {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	out := make([]model.OHLCV, len(closes))
	for i, c := range closes {
		out[i] = model.OHLCV{Time: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c, Volume: 1000}
	}
	return out
}

func TestParseID(t *testing.T) {
	tests := []struct {
		name string
		id   ID
	}{
		{"v20", V20},
		{" V20 ", V20},
		{"ma_cross", MACross},
		{"MA", MACross},
	}
	for _, tt := range tests {
		id, err := ParseID(tt.name)
		if err != nil {
			t.Fatalf("%q: %v", tt.name, err)
		}
		if id != tt.id {
			t.Errorf("%q: got %q, want %q", tt.name, id, tt.id)
		}
	}
	if _, err := ParseID("getattr"); !errors.Is(err, ErrUnknownStrategy) {
		t.Errorf("expected ErrUnknownStrategy, got %v", err)
	}
}

func TestNew_Kinds(t *testing.T) {
	b, err := New(V20, Params{NumDays: 30})
	if err != nil {
		t.Fatal(err)
	}
	if b.Kind() != KindBreakout {
		t.Errorf("v20 kind = %s", b.Kind())
	}
	m, err := New(MACross, Params{ShortWindow: 20, LongWindow: 50})
	if err != nil {
		t.Fatal(err)
	}
	if m.Kind() != KindMovingAverage {
		t.Errorf("ma kind = %s", m.Kind())
	}
	if _, err := New(MACross, Params{ShortWindow: 50, LongWindow: 20}); err == nil {
		t.Error("expected error for inverted windows")
	}
	if _, err := New(V20, Params{}); err == nil {
		t.Error("expected error for zero num_days")
	}
}

func TestNew_InterestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "interest_ma.txt")
	if err := os.WriteFile(path, []byte("INFY\n# comment\n\nTCS\n"), 0644); err != nil {
		t.Fatal(err)
	}
	s, err := New(MACross, Params{ShortWindow: 2, LongWindow: 3, InterestFile: path})
	if err != nil {
		t.Fatal(err)
	}
	ma := s.(*MACrossover)
	if len(ma.Interest) != 2 || !ma.Interest["INFY"] || !ma.Interest["TCS"] {
		t.Errorf("unexpected interest set: %v", ma.Interest)
	}
}

func TestRun_SetsUniverseAndDiscardsOnError(t *testing.T) {
	b, _ := NewBreakout(3, 0)
	out, err := Run([]Strategy{b}, "ABC", "v40", series(10, 8, 6, 9, 12, 7, 15))
	if err != nil {
		t.Fatal(err)
	}
	if len(out) == 0 {
		t.Fatal("expected signals")
	}
	for _, s := range out {
		if s.Universe != "v40" {
			t.Errorf("universe = %q", s.Universe)
		}
	}

	bad := series(10, 8, 6)
	bad[1].Close = 0
	out, err = Run([]Strategy{b}, "ABC", "v40", bad)
	if err == nil || out != nil {
		t.Errorf("expected error and no output, got %v, %v", out, err)
	}
}
