package main

import "testing"

func TestParseGeometry(t *testing.T) {
	cases := []struct {
		in      string
		w, h, d int
		wantErr bool
	}{
		{in: "1440x900x24", w: 1440, h: 900, d: 24},
		{in: "1920X1080X24", w: 1920, h: 1080, d: 24},
		{in: " 800x600x16 ", w: 800, h: 600, d: 16},
		{in: "1440x900", wantErr: true},
		{in: "1440x900x24x8", wantErr: true},
		{in: "ax900x24", wantErr: true},
		{in: "1440x0x24", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tc := range cases {
		w, h, d, err := parseGeometry(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("parseGeometry(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("parseGeometry(%q): %v", tc.in, err)
		}
		if w != tc.w || h != tc.h || d != tc.d {
			t.Fatalf("parseGeometry(%q) = %dx%dx%d", tc.in, w, h, d)
		}
	}
}
