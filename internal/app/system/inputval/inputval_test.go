package inputval

import (
	"errors"
	"testing"
)

type sampleInput struct {
	Name   string  `validate:"notblank,max=10" label:"Name"`
	Status string  `validate:"omitempty,oneof=pending approved" label:"Status"`
	Price  float64 `validate:"gte=0" label:"Price"`
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		in      sampleInput
		wantErr string
		field   string
	}{
		{"valid", sampleInput{Name: "ok", Status: "pending"}, "", ""},
		{"blank name", sampleInput{Name: "   "}, "Name is required.", "Name"},
		{"too long", sampleInput{Name: "abcdefghijk"}, "Name must be at most 10 characters.", "Name"},
		{"bad status", sampleInput{Name: "ok", Status: "open"}, "Status must be one of: pending, approved.", "Status"},
		{"negative price", sampleInput{Name: "ok", Price: -1}, "Price must be 0 or greater.", "Price"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.in)
			if tt.wantErr == "" {
				if res.HasErrors() {
					t.Fatalf("unexpected error: %v", res.First())
				}
				return
			}
			if !res.HasErrors() {
				t.Fatal("expected validation error")
			}
			if got := res.First().Message; got != tt.wantErr {
				t.Errorf("message = %q, want %q", got, tt.wantErr)
			}
			if got := res.First().Field; got != tt.field {
				t.Errorf("field = %q, want %q", got, tt.field)
			}
		})
	}
}

func TestResultErr(t *testing.T) {
	res := Validate(sampleInput{})
	var verr *ValidationError
	if !errors.As(res.Err(), &verr) {
		t.Fatalf("Err() = %v, want *ValidationError", res.Err())
	}
	if Validate(sampleInput{Name: "x"}).Err() != nil {
		t.Error("expected nil error for valid input")
	}
}

func TestInvalid(t *testing.T) {
	err := Invalid("DueDate", "%s is not a valid date.", "Due date")
	if err.Error() != "Due date is not a valid date." || err.Field != "DueDate" {
		t.Errorf("unexpected error %+v", err)
	}
}
