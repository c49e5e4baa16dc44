package model

import (
	"errors"
	"testing"
)

func TestIsSingleEmoji(t *testing.T) {
	cases := []struct {
		in   string
		want bool
	}{
		{"📝", true},
		{"🏃🏻", true},
		{"👩‍💻", true},
		{"🇹🇷", true},
		{"❤️", true},
		{"1️⃣", true},
		{"", false},
		{"a", false},
		{"1", false},
		{"#", false},
		{"📝📒", false},
		{"📝 ", false},
	}
	for _, tc := range cases {
		if got := IsSingleEmoji(tc.in); got != tc.want {
			t.Fatalf("IsSingleEmoji(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestCategorySetFromRequiresFourEntries(t *testing.T) {
	if _, ok := CategorySetFrom([]string{"📝", "💼", "🏠"}); ok {
		t.Fatal("expected 3 entries to be rejected")
	}
	set, ok := CategorySetFrom([]string{"📒", "💼", "🏠", "🏃🏻"})
	if !ok || set[0] != "📒" {
		t.Fatalf("unexpected set: %v ok=%v", set, ok)
	}
}

func TestCategorySetRename(t *testing.T) {
	set := DefaultCategories
	renamed, err := set.Rename(0, " 📒 ")
	if err != nil {
		t.Fatalf("rename failed: %v", err)
	}
	if renamed[0] != "📒" || set[0] != "📝" {
		t.Fatalf("rename must return a modified copy: got %v from %v", renamed, set)
	}
	if renamed.Index("📒") != 0 || renamed.Index("📝") != -1 {
		t.Fatalf("unexpected index lookup on %v", renamed)
	}

	if _, err := set.Rename(1, "ab"); !errors.Is(err, ErrInvalidCategory) {
		t.Fatalf("expected ErrInvalidCategory, got %v", err)
	}
	if _, err := set.Rename(4, "📒"); !errors.Is(err, ErrCategoryIndex) {
		t.Fatalf("expected ErrCategoryIndex, got %v", err)
	}
}
