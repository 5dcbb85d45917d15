package names_test

import (
	"testing"

	"github.com/sunholo/relaxir/internal/names"
)

func TestGetUniqueNameDeduplicates(t *testing.T) {
	tbl := names.NewTable()
	first := tbl.GetUniqueName("lv")
	second := tbl.GetUniqueName("lv")
	third := tbl.GetUniqueName("lv")
	if first != "lv" || second != "lv1" || third != "lv2" {
		t.Fatalf("got %q, %q, %q; want lv, lv1, lv2", first, second, third)
	}
}

func TestGetUniqueNameEmptyHintDefaultsToV(t *testing.T) {
	tbl := names.NewTable()
	if got := tbl.GetUniqueName(""); got != "v" {
		t.Fatalf("got %q, want v", got)
	}
}

func TestFreshAlwaysDistinct(t *testing.T) {
	tbl := names.NewTable()
	a := tbl.Fresh("x")
	b := tbl.Fresh("x")
	if a.Equal(b) {
		t.Fatalf("two Fresh calls with the same hint must produce distinct ids")
	}
	if a.Name() == b.Name() {
		t.Fatalf("expected distinct display names too, got %q and %q", a.Name(), b.Name())
	}
}

func TestGetUniqueNameNormalizesUnicode(t *testing.T) {
	tbl := names.NewTable()
	// single NFC codepoint "\u00e9" vs "e" + combining acute accent
	// "\u0301" (NFD form) -- both spell the same visible name.
	nfc := "caf\u00e9"
	nfd := "cafe\u0301"
	first := tbl.GetUniqueName(nfc)
	second := tbl.GetUniqueName(nfd)
	if first == second {
		t.Fatalf("expected the two differently-encoded hints to still collide and dedupe, got same name twice: %q", first)
	}
	if second != first+"1" {
		t.Fatalf("got %q, want %q", second, first+"1")
	}
}
