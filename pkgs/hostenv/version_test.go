package hostenv

import (
	"testing"
)

func TestNormalizeOS(t *testing.T) {
	tests := []struct {
		in, want string
		wantErr  bool
	}{
		{"10.9", "10.9", false},
		{"10.9.5", "10.9.5", false},
		{"v10.10", "10.10", false},
		{"mavericks", "10.9", false},
		{"Snow Leopard", "10.6", false},
		{"big_sur", "11", false},
		{"14", "14", false},
		{"", "", true},
		{"10.9-beta", "", true},
		{"ten", "", true},
	}
	for _, tt := range tests {
		got, err := NormalizeOS(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("NormalizeOS(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("NormalizeOS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestCompareOS(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10.10", "10.9", 1},
		{"10.6", "10.6.0", 0},
		{"10.5", "10.6", -1},
		{"11", "10.15", 1},
	}
	for _, tt := range tests {
		if got := CompareOS(tt.a, tt.b); got != tt.want {
			t.Errorf("CompareOS(%q, %q) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestMajorMinor(t *testing.T) {
	for in, want := range map[string]string{
		"10.9.5": "10.9",
		"10.9":   "10.9",
		"11":     "11.0",
	} {
		if got := MajorMinor(in); got != want {
			t.Errorf("MajorMinor(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestReleaseName(t *testing.T) {
	for in, want := range map[string]string{
		"10.9.5": "mavericks",
		"10.6":   "snow_leopard",
		"11.2":   "big_sur",
		"9.0":    "",
	} {
		if got := ReleaseName(in); got != want {
			t.Errorf("ReleaseName(%q) = %q, want %q", in, got, want)
		}
	}
}
