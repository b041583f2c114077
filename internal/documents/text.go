package documents

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// DecodeText converts raw transcript bytes to a string. UTF-8 input (with or
// without a byte order mark) is returned as is; anything else is decoded as
// Windows-1251, the encoding legacy call-center exports use.
func DecodeText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	if utf8.Valid(data) {
		return string(data), nil
	}

	out, err := charmap.Windows1251.NewDecoder().Bytes(data)
	if err != nil {
		return "", fmt.Errorf("decode cp1251: %w", err)
	}
	return string(out), nil
}

// Blank reports whether text has no printable content.
func Blank(text string) bool {
	return strings.TrimSpace(text) == ""
}
