package dict

import "testing"

func TestFrontCodedExtract(t *testing.T) {
	strs := []string{"apple", "application", "apply", "banana", "bandana", "cat", "dog", "dogma"}
	sect := NewFrontCoded(strs, 4)

	if got := sect.Len(); got != uint64(len(strs)) {
		t.Fatalf("Len() = %d, want %d", got, len(strs))
	}
	for i, want := range strs {
		id := uint64(i + 1)
		got, err := sect.Extract(id)
		if err != nil {
			t.Fatalf("Extract(%d) error: %v", id, err)
		}
		if got != want {
			t.Errorf("Extract(%d) = %q, want %q", id, got, want)
		}
	}
}

func TestFrontCodedLocate(t *testing.T) {
	strs := []string{"apple", "application", "apply", "banana", "bandana", "cat", "dog", "dogma"}
	sect := NewFrontCoded(strs, 4)

	for i, s := range strs {
		if got := sect.Locate(s); got != uint64(i+1) {
			t.Errorf("Locate(%q) = %d, want %d", s, got, i+1)
		}
	}
	for _, missing := range []string{"ant", "app", "applicatio", "azzz", "cattle", "elephant", "zebra"} {
		if got := sect.Locate(missing); got != 0 {
			t.Errorf("Locate(%q) = %d, want 0 (not found)", missing, got)
		}
	}
}

func TestFrontCodedSingleBlock(t *testing.T) {
	strs := []string{"a", "b", "c"}
	sect := NewFrontCoded(strs, 8)
	for i, s := range strs {
		if got := sect.Locate(s); got != uint64(i+1) {
			t.Errorf("Locate(%q) = %d, want %d", s, got, i+1)
		}
		got, _ := sect.Extract(uint64(i + 1))
		if got != s {
			t.Errorf("Extract(%d) = %q, want %q", i+1, got, s)
		}
	}
}

func TestFrontCodedIdOutOfRange(t *testing.T) {
	sect := NewFrontCoded([]string{"x", "y"}, 8)
	if _, err := sect.Extract(0); err == nil {
		t.Errorf("Extract(0) should error")
	}
	if _, err := sect.Extract(3); err == nil {
		t.Errorf("Extract(3) should error, only 2 strings")
	}
}
