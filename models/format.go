package models

import (
	"strings"

	"github.com/spf13/cast"
)

// FormatVND groups thousands with dots, e.g. 100000 -> 100.000đ
func FormatVND(amount float64) string {
	digits := cast.ToString(int64(amount))
	neg := strings.HasPrefix(digits, "-")
	digits = strings.TrimPrefix(digits, "-")

	var out []byte
	for i := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out = append(out, '.')
		}
		out = append(out, digits[i])
	}
	if neg {
		return "-" + string(out) + "đ"
	}
	return string(out) + "đ"
}
