package formatting_test

import (
	"testing"

	"github.com/JaimeStill/callbook/pkg/formatting"
)

const (
	kb = int64(1024)
	mb = kb * 1024
	gb = mb * 1024
)

func TestParseBytes(t *testing.T) {
	tests := []struct {
		input   string
		want    int64
		wantErr bool
	}{
		{"1024", 1024, false},
		{"512B", 512, false},
		{"1KB", kb, false},
		{"512k", 512 * kb, false},
		{"10MB", 10 * mb, false},
		{"10mb", 10 * mb, false},
		{"1.5 GiB", gb + gb/2, false},
		{"  50 MB  ", 50 * mb, false},
		{"0", 0, false},
		{"", 0, true},
		{"MB", 0, true},
		{"-5MB", 0, true},
		{"50XB", 0, true},
		{"1.2.3MB", 0, true},
		{"9000000EB", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := formatting.ParseBytes(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("= %d, want %d", got, tt.want)
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n         int64
		precision int
		want      string
	}{
		{0, 2, "0 B"},
		{64, 1, "64 B"},
		{1023, 0, "1023 B"},
		{kb, 0, "1 KB"},
		{10 * mb, 0, "10 MB"},
		{mb + mb/2, 1, "1.5 MB"},
		{gb, -3, "1 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := formatting.FormatBytes(tt.n, tt.precision); got != tt.want {
				t.Errorf("FormatBytes(%d, %d) = %q, want %q", tt.n, tt.precision, got, tt.want)
			}
		})
	}
}

func TestFormatThenParse(t *testing.T) {
	for _, n := range []int64{kb, 50 * mb, gb, 1024 * gb} {
		parsed, err := formatting.ParseBytes(formatting.FormatBytes(n, 0))
		if err != nil || parsed != n {
			t.Errorf("%d round trip = %d, %v", n, parsed, err)
		}
	}
}
