// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package util

import (
	"database/sql"
	"testing"
)

func TestNullStringFromValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected sql.NullString
	}{
		{
			name:     "empty string",
			input:    "",
			expected: sql.NullString{},
		},
		{
			name:     "non-empty string",
			input:    "about",
			expected: sql.NullString{String: "about", Valid: true},
		},
		{
			name:     "whitespace only",
			input:    "  ",
			expected: sql.NullString{String: "  ", Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := NullStringFromValue(tt.input)
			if result != tt.expected {
				t.Errorf("NullStringFromValue(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestStringFromNull(t *testing.T) {
	if got := StringFromNull(sql.NullString{}); got != "" {
		t.Errorf("StringFromNull(NULL) = %q, want empty", got)
	}
	if got := StringFromNull(sql.NullString{String: "admin", Valid: true}); got != "admin" {
		t.Errorf("StringFromNull(admin) = %q", got)
	}
	// An invalid value ignores any leftover string.
	if got := StringFromNull(sql.NullString{String: "stale"}); got != "" {
		t.Errorf("StringFromNull(invalid) = %q, want empty", got)
	}
}
