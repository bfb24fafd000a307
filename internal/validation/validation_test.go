package validation

import (
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/mmeshcher/cygree/internal/apperr"
	"github.com/mmeshcher/cygree/internal/model"
)

func TestMass(t *testing.T) {
	tests := []struct {
		name  string
		mass  float64
		want  int64
		valid bool
	}{
		{name: "whole kilograms", mass: 5, want: 500, valid: true},
		{name: "two decimals", mass: 5.1, want: 510, valid: true},
		{name: "smallest", mass: 0.01, want: 1, valid: true},
		{name: "upper bound", mass: 9999.99, want: 999999, valid: true},
		{name: "zero", mass: 0, valid: false},
		{name: "negative", mass: -1, valid: false},
		{name: "three decimals", mass: 1.005, valid: false},
		{name: "too heavy", mass: 10000, valid: false},
		{name: "nan", mass: math.NaN(), valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Mass(tt.mass)
			if !tt.valid {
				if err == nil {
					t.Fatalf("Mass(%v) expected error", tt.mass)
				}
				if apperr.KindOf(err) != apperr.ErrValidation {
					t.Fatalf("Mass(%v) error kind = %v, want validation", tt.mass, apperr.KindOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("Mass(%v) error: %v", tt.mass, err)
			}
			if got != tt.want {
				t.Fatalf("Mass(%v) = %d, want %d", tt.mass, got, tt.want)
			}
		})
	}
}

func TestPoints(t *testing.T) {
	tests := []struct {
		name    string
		points  float64
		want    int64
		wantErr bool
	}{
		{name: "zero", points: 0, want: 0},
		{name: "fractional", points: 12.5, want: 1250},
		{name: "upper bound", points: MaxPoints, want: MaxPoints * 100},
		{name: "negative", points: -0.01, wantErr: true},
		{name: "three decimals", points: 1.005, wantErr: true},
		{name: "above cap", points: MaxPoints + 1, wantErr: true},
		{name: "int64 overflow", points: 1e17, wantErr: true},
		{name: "huge", points: 1e300, wantErr: true},
		{name: "nan", points: math.NaN(), wantErr: true},
		{name: "inf", points: math.Inf(1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Points(tt.points)
			if tt.wantErr {
				if !errors.Is(err, apperr.ErrValidation) {
					t.Fatalf("Points(%v) = %d, %v; want validation error", tt.points, got, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Points(%v) error: %v", tt.points, err)
			}
			if got != tt.want {
				t.Fatalf("Points(%v) = %d, want %d", tt.points, got, tt.want)
			}
		})
	}
}

func TestToHundredths_OutOfRange(t *testing.T) {
	for _, v := range []float64{1e17, -1e17, 1e300} {
		if h, ok := ToHundredths(v); ok {
			t.Fatalf("ToHundredths(%v) = %d, true; want rejection", v, h)
		}
	}
}

func TestMessage(t *testing.T) {
	if _, err := Message("   "); err == nil {
		t.Fatalf("expected error for blank message")
	}
	if _, err := Message(strings.Repeat("x", MaxMessageLen+1)); err == nil {
		t.Fatalf("expected error for long message")
	}
	got, err := Message("  hello ")
	if err != nil || got != "hello" {
		t.Fatalf("Message = %q, %v", got, err)
	}
}

func TestImportance(t *testing.T) {
	if got, err := Importance(""); err != nil || got != model.ImportanceLow {
		t.Fatalf("Importance(\"\") = %q, %v", got, err)
	}
	if got, err := Importance("High"); err != nil || got != model.ImportanceHigh {
		t.Fatalf("Importance(High) = %q, %v", got, err)
	}
	if _, err := Importance("urgent"); err == nil {
		t.Fatalf("expected error for unknown importance")
	}
}

func TestRegistrationRole(t *testing.T) {
	if got, _ := RegistrationRole(""); got != model.RoleClient {
		t.Fatalf("default role = %q, want Client", got)
	}
	if got, err := RegistrationRole("Agent"); err != nil || got != model.RoleAgent {
		t.Fatalf("RegistrationRole(Agent) = %q, %v", got, err)
	}
	if _, err := RegistrationRole("Admin"); err == nil {
		t.Fatalf("admin must not be self-registered")
	}
}

func TestRewardTypeAndCredentials(t *testing.T) {
	if _, err := RewardType("Cash"); err != nil {
		t.Fatalf("RewardType(Cash): %v", err)
	}
	if _, err := RewardType("Crypto"); err == nil {
		t.Fatalf("expected error for unknown reward type")
	}
	if err := Credentials("", "x"); err == nil {
		t.Fatalf("expected error for empty login")
	}
	if err := Credentials("user", strings.Repeat("p", 73)); err == nil {
		t.Fatalf("expected error for long password")
	}
	if err := Credentials("user", "pass"); err != nil {
		t.Fatalf("Credentials: %v", err)
	}
}
