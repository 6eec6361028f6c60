package domain_test

import (
	"testing"

	"go.trai.ch/cheetah/internal/core/domain"
)

func TestInternedString(t *testing.T) {
	s1 := "/srv/watched/a.txt"
	s2 := "/srv/watched/" + "a.txt"

	is1 := domain.NewInternedString(s1)
	is2 := domain.NewInternedString(s2)

	// Identical strings intern to the same key
	if is1 != is2 {
		t.Errorf("Expected interned values to be equal for identical strings")
	}

	if is1.String() != s1 {
		t.Errorf("Expected String() to return %q, got %q", s1, is1.String())
	}

	if is1 == domain.NewInternedString("/srv/watched/b.txt") {
		t.Errorf("Expected interned values to differ for different strings")
	}
}

func TestInternedString_AsMapKey(t *testing.T) {
	pending := map[domain.InternedString]int{}
	for _, path := range []string{"/srv/a", "/srv/b", "/srv/a"} {
		pending[domain.NewInternedString(path)]++
	}

	if len(pending) != 2 {
		t.Fatalf("Expected 2 distinct keys, got %d", len(pending))
	}
	if n := pending[domain.NewInternedString("/srv/a")]; n != 2 {
		t.Errorf("Expected /srv/a counted twice, got %d", n)
	}
}

func TestInternedString_ZeroValue(t *testing.T) {
	var zero domain.InternedString
	if zero.String() != "" {
		t.Errorf("Expected zero value to render empty, got %q", zero.String())
	}
}
