package textutil

import "testing"

func TestDetectScript(t *testing.T) {
	cases := []struct {
		name string
		text string
		want string
	}{
		{"latin", "Hello, world!", "LATIN"},
		{"latin with html entities", "IT&#39;S ALIVE! Pac-Man of the Sea?", "LATIN"},
		{"hiragana", "こんにちは", "HIRAGANA"},
		{"hangul", "안녕하세요", "HANGUL"},
		{"han", "你好", "CJK"},
		{"arabic", "مرحبا", "ARABIC"},
		{"cyrillic", "Привет", "CYRILLIC"},
		{"latin leading hiragana", "Hello こんにちは", "LATIN"},
		{"hangul leading han", "안녕하세요 你好", "HANGUL"},
		{"arabic leading hiragana", "مرحبا こんにちは", "ARABIC"},
		{"mostly punctuation", "!!! ?? ... ++", "MIXED"},
		{"empty", "", "MIXED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := DetectScript(tc.text); got != tc.want {
				t.Fatalf("DetectScript(%q) = %q, want %q", tc.text, got, tc.want)
			}
		})
	}
}
