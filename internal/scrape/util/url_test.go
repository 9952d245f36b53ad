package util

import (
	"strings"
	"testing"
)

func TestCanonicalizeURL_StripsTracking(t *testing.T) {
	got := CanonicalizeURL("https://Example.com/watch/1?utm_source=nl&ref=abc&gclid=xyz#top")
	want := "https://example.com/watch/1?ref=abc"
	if got != want {
		t.Errorf("CanonicalizeURL: got %q, want %q", got, want)
	}
}

func TestCanonicalizeURL_SortsQuery(t *testing.T) {
	a := CanonicalizeURL("https://example.com/s?b=2&a=1")
	b := CanonicalizeURL("https://example.com/s?a=1&b=2")
	if a != b {
		t.Errorf("query order changed canonical form: %q vs %q", a, b)
	}
}

func TestFingerprint_Stable(t *testing.T) {
	a := Fingerprint("https://example.com/watch/1?utm_campaign=x")
	b := Fingerprint("https://EXAMPLE.com/watch/1")
	if a != b {
		t.Errorf("equivalent URLs fingerprint differently: %q vs %q", a, b)
	}
	if len(a) != 16 {
		t.Errorf("fingerprint length: got %d, want 16", len(a))
	}
	for _, c := range a {
		if !strings.ContainsRune("0123456789abcdef", c) {
			t.Fatalf("fingerprint not lowercase hex: %q", a)
		}
	}
}

func TestFingerprint_DistinctURLs(t *testing.T) {
	if Fingerprint("https://example.com/watch/1") == Fingerprint("https://example.com/watch/2") {
		t.Error("distinct URLs collided")
	}
}

func TestFingerprint_Empty(t *testing.T) {
	if got := Fingerprint(""); got != "" {
		t.Errorf("empty URL: got %q, want empty", got)
	}
}

func TestResolveURL(t *testing.T) {
	tests := []struct {
		base, href, want string
	}{
		{"https://example.com/shop/", "/item/1", "https://example.com/item/1"},
		{"https://example.com/shop/", "item/1", "https://example.com/shop/item/1"},
		{"https://example.com/shop/", "https://other.com/x", "https://other.com/x"},
		{"https://example.com/shop/", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveURL(tt.base, tt.href); got != tt.want {
			t.Errorf("ResolveURL(%q, %q): got %q, want %q", tt.base, tt.href, got, tt.want)
		}
	}
}
