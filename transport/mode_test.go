// SPDX-FileCopyrightText: 2026 The courier-go Authors
//
// SPDX-License-Identifier: GPL-3.0-or-later

package transport

import "testing"

func TestParseMode(t *testing.T) {
	tests := []struct {
		name string
		mode Mode
	}{
		{"inline", ModeInline},
		{"buffered", ModeBufferedInMemory},
		{"durable", ModeDurable},
	}

	for _, test := range tests {
		mode, err := ParseMode(test.name)
		if err != nil {
			t.Fatal(err)
		}
		if mode != test.mode {
			t.Errorf("%q parsed to %v", test.name, mode)
		}
		if mode.String() != test.name {
			t.Errorf("%v prints as %q", test.mode, mode.String())
		}
	}

	if _, err := ParseMode("best-effort"); err == nil {
		t.Error("parsing an unknown mode did not fail")
	}
}
