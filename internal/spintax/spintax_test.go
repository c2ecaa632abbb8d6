package spintax

import (
	"strings"
	"testing"
)

func TestResolvePicksOneOption(t *testing.T) {
	got := Resolve("{a|b|c}")
	if got != "a" && got != "b" && got != "c" {
		t.Fatalf("Resolve picked %q, want one of a/b/c", got)
	}
}

func TestResolveKeepsSurroundingText(t *testing.T) {
	got := Resolve("Oi {amigo|parceiro}, tudo bem?")
	if !strings.HasPrefix(got, "Oi ") || !strings.HasSuffix(got, ", tudo bem?") {
		t.Fatalf("surrounding text mangled: %q", got)
	}
	if strings.ContainsAny(got, "{}|") {
		t.Fatalf("unresolved group characters left in %q", got)
	}
}

func TestResolveMultipleGroupsIndependent(t *testing.T) {
	// each group must be resolved on its own; with enough draws both
	// positions show variation
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		seen[Resolve("{x|y} {1|2}")] = true
	}
	if len(seen) < 2 {
		t.Fatalf("expected variation across draws, got only %v", seen)
	}
	for s := range seen {
		switch s {
		case "x 1", "x 2", "y 1", "y 2":
		default:
			t.Fatalf("unexpected resolution %q", s)
		}
	}
}

func TestResolveNoGroups(t *testing.T) {
	const plain = "no alternation here"
	if got := Resolve(plain); got != plain {
		t.Fatalf("plain text changed: %q", got)
	}
}

func TestResolveSingleOptionGroup(t *testing.T) {
	if got := Resolve("{only}"); got != "only" {
		t.Fatalf("got %q, want %q", got, "only")
	}
}

func TestResolveUnbalancedBracesPassThrough(t *testing.T) {
	for _, tpl := range []string{"{open", "close}", "{}"} {
		if got := Resolve(tpl); got != tpl {
			t.Fatalf("Resolve(%q) = %q, want unchanged", tpl, got)
		}
	}
}

func TestResolveEmptyOption(t *testing.T) {
	// {a|} may legally resolve to the empty string
	got := Resolve("x{a|}y")
	if got != "xay" && got != "xy" {
		t.Fatalf("got %q, want xay or xy", got)
	}
}
