package api_test

import (
	"testing"

	"loom/internal/api"
)

func TestDeriveTitle(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"", ""},
		{"   ", ""},
		{"a calm history of lighthouses", "A Calm History Of Lighthouses"},
		{"WHY DO CATS PURR?", "Why Do Cats Purr"},
		{"one two three four five six seven eight nine ten", "One Two Three Four Five Six Seven Eight"},
	}
	for _, tc := range cases {
		if got := api.DeriveTitle(tc.prompt); got != tc.want {
			t.Fatalf("DeriveTitle(%q) = %q, want %q", tc.prompt, got, tc.want)
		}
	}
}
