package helpers

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Hexdump renders data in the classic 16-bytes-per-line offset/hex/ASCII
// layout, truncating at max bytes when max > 0.
func Hexdump(data []byte, max int) string {
	if max > 0 && len(data) > max {
		data = data[:max]
	}

	var b strings.Builder
	for i := 0; i < len(data); i += 16 {
		chunk := data[i:]
		if len(chunk) > 16 {
			chunk = chunk[:16]
		}

		hexs := make([]string, len(chunk))
		text := make([]byte, len(chunk))
		for j, c := range chunk {
			hexs[j] = fmt.Sprintf("%02x", c)
			if c >= 32 && c < 127 {
				text[j] = c
			} else {
				text[j] = '.'
			}
		}
		fmt.Fprintf(&b, "%08x: %-48s  %s\n", i, strings.Join(hexs, " "), text)
	}
	return b.String()
}

// Preview renders file content for display: valid UTF-8 is returned as-is,
// anything else as a hexdump. max > 0 caps the bytes considered.
func Preview(data []byte, max int) string {
	if max > 0 && len(data) > max {
		data = data[:max]
	}
	if utf8.Valid(data) {
		return string(data)
	}
	return Hexdump(data, 0)
}
