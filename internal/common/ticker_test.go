package common

import (
	"errors"
	"testing"
)

func TestParseTicker(t *testing.T) {
	originalDefault := DefaultExchange
	DefaultExchange = "US"
	defer func() { DefaultExchange = originalDefault }()

	tests := []struct {
		input        string
		wantExchange string
		wantCode     string
		wantString   string
		wantEODHD    string
	}{
		{"AAPL", "US", "AAPL", "AAPL", "AAPL.US"},
		{"msft", "US", "MSFT", "MSFT", "MSFT.US"},
		{"  tsla  ", "US", "TSLA", "TSLA", "TSLA.US"},
		{"BRK.B", "US", "BRK.B", "BRK.B", "BRK-B.US"},
		{"brk-b", "US", "BRK-B", "BRK-B", "BRK-B.US"},
		{"NASDAQ:AAPL", "NASDAQ", "AAPL", "NASDAQ:AAPL", "AAPL.US"},
		{"asx:bhp", "ASX", "BHP", "ASX:BHP", "BHP.AU"},
		{"INDX:VIX", "INDX", "VIX", "INDX:VIX", "VIX.INDX"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result, err := ParseTicker(tt.input)
			if err != nil {
				t.Fatalf("ParseTicker(%q) error = %v", tt.input, err)
			}
			if result.Exchange != tt.wantExchange {
				t.Errorf("Exchange = %q, want %q", result.Exchange, tt.wantExchange)
			}
			if result.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", result.Code, tt.wantCode)
			}
			if result.String() != tt.wantString {
				t.Errorf("String() = %q, want %q", result.String(), tt.wantString)
			}
			if result.EODHDSymbol() != tt.wantEODHD {
				t.Errorf("EODHDSymbol() = %q, want %q", result.EODHDSymbol(), tt.wantEODHD)
			}
		})
	}
}

func TestParseTicker_Invalid(t *testing.T) {
	inputs := []string{"", "   ", "AA PL", "A$PL", ":AAPL", "NYSE:", ".AAPL", "THISISWAYTOOLONG"}

	for _, input := range inputs {
		t.Run(input, func(t *testing.T) {
			_, err := ParseTicker(input)
			if err == nil {
				t.Fatalf("ParseTicker(%q) expected error", input)
			}
			if !errors.Is(err, ErrInvalidTicker) {
				t.Errorf("error %v should wrap ErrInvalidTicker", err)
			}
		})
	}
}

func TestTicker_CacheKey(t *testing.T) {
	tk := MustParseTicker("aapl")
	if got := tk.CacheKey("ownership"); got != "ownership:AAPL" {
		t.Errorf("CacheKey = %q, want %q", got, "ownership:AAPL")
	}
	if got := tk.URLSymbol(); got != "aapl" {
		t.Errorf("URLSymbol = %q, want %q", got, "aapl")
	}
}

func TestSetDefaultExchange(t *testing.T) {
	originalDefault := DefaultExchange
	defer func() { DefaultExchange = originalDefault }()

	SetDefaultExchange("asx")
	if DefaultExchange != "ASX" {
		t.Errorf("DefaultExchange = %q, want ASX", DefaultExchange)
	}

	SetDefaultExchange("")
	if DefaultExchange != "ASX" {
		t.Errorf("empty exchange should not override, got %q", DefaultExchange)
	}

	tk := MustParseTicker("bhp")
	if tk.EODHDSymbol() != "BHP.AU" {
		t.Errorf("EODHDSymbol = %q, want BHP.AU", tk.EODHDSymbol())
	}
}
