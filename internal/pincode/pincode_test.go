package pincode

import (
	"regexp"
	"strconv"
	"testing"
)

func TestGenerate_Format(t *testing.T) {
	format := regexp.MustCompile(`^[1-9]\d{5}$`)

	for i := 0; i < 1000; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if !format.MatchString(code) {
			t.Fatalf("Generate() = %q, want match for %s", code, format)
		}
		n, err := strconv.Atoi(code)
		if err != nil {
			t.Fatalf("Generate() = %q, not numeric: %v", code, err)
		}
		if n < 100000 || n > 999999 {
			t.Fatalf("Generate() = %d, out of range [100000, 999999]", n)
		}
	}
}

func TestGenerate_CoversLeadingDigits(t *testing.T) {
	// A biased generator (e.g. truncating a hash) would struggle to produce
	// all leading digits; a uniform one covers 1-9 quickly.
	seen := make(map[byte]bool)
	for i := 0; i < 5000 && len(seen) < 9; i++ {
		code, err := Generate()
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		seen[code[0]] = true
	}
	if len(seen) < 9 {
		t.Errorf("leading digits seen = %d, want all 9", len(seen))
	}
}
