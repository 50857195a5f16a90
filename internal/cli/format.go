// Number formatting utilities for CLI output.

package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/agbru/bigtensor/internal/boundary"
)

// FormatNumberString inserts thousands separators into a decimal integer
// string, keeping a leading sign.
func FormatNumberString(s string) string {
	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	if len(s) <= 3 {
		return sign + s
	}
	var b strings.Builder
	b.Grow(len(sign) + len(s) + len(s)/3)
	b.WriteString(sign)
	head := len(s) % 3
	if head > 0 {
		b.WriteString(s[:head])
	}
	for i := head; i < len(s); i += 3 {
		if b.Len() > len(sign) {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// TruncateDigits shortens decimal strings longer than TruncationLimit to
// their first and last DisplayEdges digits.
func TruncateDigits(s string) string {
	if len(s) <= TruncationLimit {
		return s
	}
	return fmt.Sprintf("%s...%s", s[:DisplayEdges], s[len(s)-DisplayEdges:])
}

// FormatBytes renders a byte count with a binary unit.
func FormatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(b)/float64(div), "KMGTPE"[exp])
}

// valueStrings renders every element of raw in decimal.
func valueStrings(raw boundary.RawArray) []string {
	switch v := raw.Values.(type) {
	case []string:
		return v
	case []int32:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatInt(int64(x), 10)
		}
		return out
	case []int64:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatInt(x, 10)
		}
		return out
	case []uint8:
		out := make([]string, len(v))
		for i, x := range v {
			out[i] = strconv.FormatUint(uint64(x), 10)
		}
		return out
	}
	return nil
}
