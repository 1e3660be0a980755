package common

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney renders a dollar amount with thousands separators, e.g. "$1,234.56".
func FormatMoney(v float64) string {
	neg := v < 0
	s := fmt.Sprintf("%.2f", math.Abs(v))
	parts := strings.SplitN(s, ".", 2)
	whole := groupThousands(parts[0])
	out := "$" + whole + "." + parts[1]
	if neg {
		return "-" + out
	}
	return out
}

// FormatSignedMoney renders a dollar amount with an explicit sign, e.g. "+$12.00".
func FormatSignedMoney(v float64) string {
	if v >= 0 {
		return "+" + FormatMoney(v)
	}
	return FormatMoney(v)
}

// FormatPct renders a ratio as a percentage, e.g. 0.125 -> "12.5%".
func FormatPct(v float64) string {
	return fmt.Sprintf("%.1f%%", v*100)
}

// FormatSignedPct renders a percentage value with an explicit sign, e.g. "+4.2%".
func FormatSignedPct(v float64) string {
	if v >= 0 {
		return fmt.Sprintf("+%.1f%%", v)
	}
	return fmt.Sprintf("%.1f%%", v)
}

// FormatMarketCap renders large dollar amounts with a magnitude suffix,
// e.g. 1.25e9 -> "$1.25B". Values under a million fall back to FormatMoney.
func FormatMarketCap(v float64) string {
	abs := math.Abs(v)
	sign := ""
	if v < 0 {
		sign = "-"
	}
	switch {
	case abs >= 1e12:
		return fmt.Sprintf("%s$%.2fT", sign, abs/1e12)
	case abs >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, abs/1e9)
	case abs >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, abs/1e6)
	default:
		return FormatMoney(v)
	}
}

// groupThousands inserts commas into a digit string.
func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var sb strings.Builder
	first := n % 3
	if first > 0 {
		sb.WriteString(digits[:first])
	}
	for i := first; i < n; i += 3 {
		if sb.Len() > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(digits[i : i+3])
	}
	return sb.String()
}
