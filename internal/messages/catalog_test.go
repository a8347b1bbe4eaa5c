package messages

import "testing"

func TestLookupSubstitutesParams(t *testing.T) {
	c := Default()
	got := c.Lookup("feedback.topPerformer", map[string]string{"player": "Alice", "correct": "3"})
	if got != "Alice carried the team with 3 correct answers." {
		t.Fatalf("unexpected template result: %q", got)
	}
}

func TestLookupUnknownKeyReturnsKey(t *testing.T) {
	c := Default()
	if got := c.Lookup("no.such.key", nil); got != "no.such.key" {
		t.Fatalf("unknown key should echo the key, got %q", got)
	}
}

func TestLookupWithoutParams(t *testing.T) {
	c := Default()
	if got := c.Lookup("tier.good", nil); got == "" || got == "tier.good" {
		t.Fatalf("expected resolved template, got %q", got)
	}
}
