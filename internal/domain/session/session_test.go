package session

import (
	"testing"
	"time"
)

func TestActiveWithin(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	timeout := 15 * time.Minute

	cases := []struct {
		name         string
		lastActivity time.Time
		want         bool
	}{
		{"just touched", now, true},
		{"inside window", now.Add(-10 * time.Minute), true},
		{"exactly at boundary", now.Add(-timeout), true},
		{"one second past", now.Add(-timeout - time.Second), false},
		{"long expired", now.Add(-time.Hour), false},
	}
	for _, c := range cases {
		if got := ActiveWithin(c.lastActivity, now, timeout); got != c.want {
			t.Errorf("%s: ActiveWithin = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestNewTokenUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		tok := NewToken()
		if tok == "" {
			t.Fatal("empty token")
		}
		if seen[tok] {
			t.Fatalf("duplicate token %q", tok)
		}
		seen[tok] = true
	}
}
