package cart

import (
	"errors"
	"strings"
	"unicode"
)

var ErrInvalidPhone = errors.New("invalid whatsapp number")

// NormalizePhone reduces a contact number to the digits-only international
// form the deep link expects ("+963 912-345-678" -> "963912345678").
// Arabic-Indic digits are folded to ASCII.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r >= '٠' && r <= '٩':
			b.WriteRune('0' + (r - '٠'))
		case r >= '۰' && r <= '۹':
			b.WriteRune('0' + (r - '۰'))
		case unicode.IsSpace(r), r == '+', r == '-', r == '(', r == ')', r == '.':
		default:
			return "", ErrInvalidPhone
		}
	}

	digits := strings.TrimPrefix(b.String(), "00")
	if len(digits) < 8 || len(digits) > 15 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}
