package telegram

import (
	"errors"
	"testing"
)

func TestParseAddAlertArgs(t *testing.T) {
	input, err := ParseAddAlertArgs("AAPL NASDAQ ABOVE 200.5 3 60")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.Symbol != "AAPL" || input.Venue != "NASDAQ" || input.Condition != "ABOVE" || input.Target != "200.5" {
		t.Fatalf("unexpected input: %+v", input)
	}
	if input.TriggerLimit != 3 || input.CooldownSeconds != 60 {
		t.Fatalf("unexpected limits: %+v", input)
	}

	input, err = ParseAddAlertArgs("005930 KRX <= 70000")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if input.TriggerLimit != 0 || input.CooldownSeconds != 0 {
		t.Fatalf("optional fields should default to zero: %+v", input)
	}
}

func TestParseAddAlertArgsRejectsBadInput(t *testing.T) {
	cases := []string{
		"",
		"AAPL NASDAQ ABOVE",
		"AAPL NASDAQ ABOVE 200 x",
		"AAPL NASDAQ ABOVE 200 1 y",
		"AAPL NASDAQ ABOVE 200 1 2 3",
	}
	for _, args := range cases {
		if _, err := ParseAddAlertArgs(args); !errors.Is(err, ErrInvalidArguments) {
			t.Fatalf("args %q: expected ErrInvalidArguments, got %v", args, err)
		}
	}
}

func TestParseAlertID(t *testing.T) {
	id, err := ParseAlertID(" 42 ")
	if err != nil || id != 42 {
		t.Fatalf("expected 42, got %d (%v)", id, err)
	}
	for _, args := range []string{"", "0", "-1", "abc"} {
		if _, err := ParseAlertID(args); !errors.Is(err, ErrInvalidArguments) {
			t.Fatalf("args %q: expected ErrInvalidArguments, got %v", args, err)
		}
	}
}
