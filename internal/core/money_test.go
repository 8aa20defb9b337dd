package core

import (
	"errors"
	"testing"
)

func TestParseDecimalToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"dot separator", "12.34", 1234, false},
		{"comma separator", "12,34", 1234, false},
		{"integer", "100", 10000, false},
		{"single decimal", "12.3", 1230, false},
		{"third decimal rounds down", "12.344", 1234, false},
		{"third decimal rounds up", "12.345", 1235, false},
		{"leading dot", ".50", 50, false},
		{"whitespace trimmed", "  7,00  ", 700, false},
		{"zero rejected", "0", 0, true},
		{"zero decimal rejected", "0.00", 0, true},
		{"negative rejected", "-5", 0, true},
		{"plus sign rejected", "+5", 0, true},
		{"empty rejected", "", 0, true},
		{"garbage rejected", "abc", 0, true},
		{"two separators rejected", "1.2.3", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDecimalToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Errorf("ParseDecimalToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimalToCents(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseDecimalToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseRateBps(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{"fraction pct", "0,8", 80, false},
		{"dot pct", "1.25", 125, false},
		{"zero is valid", "0", 0, false},
		{"integer pct", "2", 200, false},
		{"negative rejected", "-1", 0, true},
		{"garbage rejected", "x", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRateBps(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidRate) {
					t.Errorf("ParseRateBps(%q) error = %v, want ErrInvalidRate", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRateBps(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseRateBps(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoney_ApplyRate(t *testing.T) {
	tests := []struct {
		name  string
		cents int64
		bps   int64
		want  int64
	}{
		{"1000 reais at 0.8pct", 100000, 80, 800},
		{"zero rate", 100000, 0, 0},
		{"rounds half up", 1250, 100, 13}, // 12.5 -> 13
		{"rounds down below half", 1240, 100, 12},
		{"zero amount", 0, 80, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Money{Cents: tt.cents}.ApplyRate(Rate{Bps: tt.bps})
			if got.Cents != tt.want {
				t.Errorf("ApplyRate(%d bps) on %d cents = %d, want %d", tt.bps, tt.cents, got.Cents, tt.want)
			}
		})
	}
}

func TestMoney_AddSub(t *testing.T) {
	a := Money{Cents: 1000}
	b := Money{Cents: 300}

	if got := a.Add(b); got.Cents != 1300 {
		t.Errorf("Add() = %d, want 1300", got.Cents)
	}
	if got := a.Sub(b); got.Cents != 700 {
		t.Errorf("Sub() = %d, want 700", got.Cents)
	}
}

func TestMoney_Reais(t *testing.T) {
	if got := (Money{Cents: 1234}).Reais(); got != 12.34 {
		t.Errorf("Reais() = %v, want 12.34", got)
	}
}

func TestRate_Percent(t *testing.T) {
	if got := (Rate{Bps: 80}).Percent(); got != 0.8 {
		t.Errorf("Percent() = %v, want 0.8", got)
	}
}
