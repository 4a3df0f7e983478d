package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseVenue(t *testing.T) {
	cases := map[string]Venue{"krx": VenueKRX, " NASDAQ ": VenueNASDAQ}
	for input, expected := range cases {
		got, err := ParseVenue(input)
		if err != nil || got != expected {
			t.Fatalf("ParseVenue(%q) = %s, %v", input, got, err)
		}
	}
	if _, err := ParseVenue("NYSE"); !errors.Is(err, ErrUnknownVenue) {
		t.Fatalf("expected ErrUnknownVenue, got %v", err)
	}
}

func TestParseCondition(t *testing.T) {
	cases := map[string]Condition{
		"above": ConditionAbove, ">=": ConditionAbove, ">": ConditionAbove,
		"BELOW": ConditionBelow, "<=": ConditionBelow, "<": ConditionBelow,
	}
	for input, expected := range cases {
		got, err := ParseCondition(input)
		if err != nil || got != expected {
			t.Fatalf("ParseCondition(%q) = %s, %v", input, got, err)
		}
	}
	if _, err := ParseCondition("=="); !errors.Is(err, ErrUnknownCondition) {
		t.Fatalf("expected ErrUnknownCondition, got %v", err)
	}
}

func TestConditionCrossed(t *testing.T) {
	d := decimal.RequireFromString
	cases := []struct {
		condition Condition
		price     string
		target    string
		want      bool
	}{
		{ConditionAbove, "101", "100", true},
		{ConditionAbove, "100", "100", true},
		{ConditionAbove, "99", "100", false},
		{ConditionBelow, "55", "50", false},
		{ConditionBelow, "50", "50", true},
		{ConditionBelow, "49", "50", true},
		{Condition("SIDEWAYS"), "1", "1", false},
	}
	for _, tc := range cases {
		if got := tc.condition.Crossed(d(tc.price), d(tc.target)); got != tc.want {
			t.Fatalf("%s price=%s target=%s: got %v", tc.condition, tc.price, tc.target, got)
		}
	}
}

func TestChannels(t *testing.T) {
	channels := Channels{ChannelInApp}
	if !channels.Has(ChannelInApp) || channels.Has(ChannelPlatform) {
		t.Fatalf("unexpected Has result for %v", channels)
	}
	if _, ok := ParseChannel("email"); ok {
		t.Fatalf("email is not a channel")
	}
}
