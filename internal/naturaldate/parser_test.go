package naturaldate

import (
	"errors"
	"testing"
	"time"

	"github.com/starford/almanac/internal/apperr"
)

var base = time.Date(2024, time.March, 4, 10, 0, 0, 0, time.UTC)

func TestParse_DateOnly(t *testing.T) {
	r, err := New().Parse("Dentist tomorrow", base)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Dentist" || r.Date != "2024-03-05" || r.Time != DefaultTime {
		t.Errorf("result = %+v", r)
	}
}

func TestParse_DateAndTime(t *testing.T) {
	r, err := New().Parse("Call mom tomorrow 15:30", base)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Title != "Call mom" || r.Date != "2024-03-05" || r.Time != "15:30" {
		t.Errorf("result = %+v", r)
	}
	f := r.Fields()
	if f.Title != r.Title || f.Date != r.Date || f.Time != r.Time {
		t.Errorf("fields = %+v", f)
	}
}

func TestParse_NoDate(t *testing.T) {
	_, err := New().Parse("buy milk", base)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestParse_NoTitle(t *testing.T) {
	_, err := New().Parse("tomorrow", base)
	if !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
	if _, ok := apperr.FieldErrors(err)["text"]; !ok {
		t.Errorf("fields = %v", apperr.FieldErrors(err))
	}
}

func TestParse_ExplicitTimeEqualToBase(t *testing.T) {
	r, err := New().Parse("Dentist tomorrow 10:00", base)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if r.Date != "2024-03-05" || r.Time != "10:00" {
		t.Errorf("result = %+v, want the typed 10:00 kept", r)
	}
}

func TestClockRe(t *testing.T) {
	tests := []struct {
		text string
		want bool
	}{
		{"tomorrow", false},
		{"next friday", false},
		{"tomorrow 15:30", true},
		{"tomorrow at 5pm", true},
		{"friday 9 a.m.", true},
		{"tomorrow noon", true},
		{"tomorrow evening", true},
	}
	for _, tt := range tests {
		if got := clockRe.MatchString(tt.text); got != tt.want {
			t.Errorf("clockRe(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}
