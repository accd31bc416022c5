package common

import (
	"encoding/hex"
	"testing"
)

func TestMakeRandHexString_Length(t *testing.T) {
	t.Parallel()

	for _, size := range []int{1, 16, 32} {
		s, err := MakeRandHexString(size)
		if err != nil {
			t.Fatalf("MakeRandHexString(%d) error: %v", size, err)
		}
		if len(s) != size*2 {
			t.Fatalf("MakeRandHexString(%d) length = %d, want %d", size, len(s), size*2)
		}
		if _, err := hex.DecodeString(s); err != nil {
			t.Fatalf("MakeRandHexString(%d) not valid hex: %v", size, err)
		}
	}
}

func TestMakeRandHexString_Unique(t *testing.T) {
	t.Parallel()

	seen := make(map[string]struct{})
	for i := 0; i < 100; i++ {
		s, err := MakeRandHexString(32)
		if err != nil {
			t.Fatalf("MakeRandHexString error: %v", err)
		}
		if _, ok := seen[s]; ok {
			t.Fatalf("duplicate random string %q", s)
		}
		seen[s] = struct{}{}
	}
}
