package dto

import (
	"testing"

	"github.com/go-playground/validator/v10"
)

func TestRegisterValidators(t *testing.T) {
	v := validator.New()
	if err := RegisterValidators(v); err != nil {
		t.Fatalf("RegisterValidators: %v", err)
	}

	type week struct {
		WeekStart string `validate:"monday"`
	}
	type clock struct {
		At string `validate:"hhmm"`
	}

	tests := []struct {
		name string
		in   interface{}
		ok   bool
	}{
		{"monday", week{"2026-03-02"}, true},
		{"tuesday", week{"2026-03-03"}, false},
		{"not a date", week{"03/02/2026"}, false},
		{"clock", clock{"09:30"}, true},
		{"end of day", clock{"24:00"}, true},
		{"past end of day", clock{"24:30"}, false},
		{"single digit hour", clock{"9:30"}, false},
		{"seconds", clock{"09:30:00"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.in)
			if (err == nil) != tt.ok {
				t.Errorf("expected ok=%v, got %v", tt.ok, err)
			}
		})
	}
}
