// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import "testing"

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"simple title", "Main Menu", "main-menu"},
		{"special characters", "Hello, World!", "hello-world"},
		{"numbers", "Snapshot 123", "snapshot-123"},
		{"accents", "Café résumé", "cafe-resume"},
		{"multiple spaces", "Hello   World", "hello-world"},
		{"hyphen with spaces", "Hello - World", "hello-world"},
		{"leading and trailing spaces", "  Hello World  ", "hello-world"},
		{"only symbols", "!@#$%^&*()", ""},
		{"german umlauts", "Über München", "uber-munchen"},
		{"cyrillic", "Привет мир", "privet-mir"},
		{"tabs and newlines", "nav\tlinks\n2026", "nav-links-2026"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.input); got != tt.expected {
				t.Errorf("Slugify(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestIsValidSlug(t *testing.T) {
	tests := []struct {
		slug string
		want bool
	}{
		{"main-menu", true},
		{"menu2", true},
		{"", false},
		{"-menu", false},
		{"menu-", false},
		{"main--menu", false},
		{"Main", false},
		{"main_menu", false},
	}

	for _, tt := range tests {
		if got := IsValidSlug(tt.slug); got != tt.want {
			t.Errorf("IsValidSlug(%q) = %v, want %v", tt.slug, got, tt.want)
		}
	}
}
