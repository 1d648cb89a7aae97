package builder

import (
	"testing"
	"time"
)

func TestLessAny(t *testing.T) {
	jan := time.Date(2022, 1, 1, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2022, 2, 1, 0, 0, 0, 0, time.UTC)

	tests := map[[2]any]bool{
		{1, 2}:     true,
		{"a", "b"}: true,
		{"b", "a"}: false,
		{2, 1}:     false,
		{1, 1.5}:   true,
		{2.5, 2}:   false,
		{jan, feb}: true,
		{feb, jan}: false,

		// Mixed types are always false
		{2, false}: false,
		{false, 2}: false,
		{"1", 2}:   false,
	}
	for input, expected := range tests {
		actual := lessAny(input[0], input[1])
		if actual != expected {
			if expected {
				t.Errorf("expected %v to be less than %v", input[0], input[1])
			} else {
				t.Errorf("expected %v not to be less than %v", input[0], input[1])
			}
		}
	}
}
