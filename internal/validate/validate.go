package validate

import (
	"errors"
	"regexp"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/ttacon/libphonenumber"
)

var (
	reEmail    = regexp.MustCompile(`^[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}$`)
	reQ        = regexp.MustCompile(`^[\p{L}\p{N} _'&./#+-]{1,80}$`)
	reID       = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
	reUsername = regexp.MustCompile(`^[A-Za-z0-9_.-]{3,32}$`)
	reCategory = regexp.MustCompile(`^[\p{L}\p{N} _&().,'-]{1,80}$`)
)

// DefaultRegion is used to parse phone numbers written without a country code.
const DefaultRegion = "AU"

func Email(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if len(s) == 0 || len(s) > 254 {
		return "", false
	}
	return s, reEmail.MatchString(s)
}

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if r := []rune(s); len(r) > 80 {
		s = string(r[:80])
	}
	return s, reQ.MatchString(s)
}

// Qty parses a line quantity, clamped to [1, 9999].
func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > 9999 {
		return 9999
	}
	return n
}

// ID validates a simple resource identifier (quote ids, upload ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

func Username(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reUsername.MatchString(s)
}

// Category validates a category name, which doubles as a worksheet title.
func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, reCategory.MatchString(s)
}

// Password enforces the strength rules for new passwords.
func Password(s string) bool {
	l := len(s)
	if l < 8 || l > 64 {
		return false
	}
	var hasLower, hasUpper, hasDigit, hasSymbol bool
	for _, r := range s {
		switch {
		case 'a' <= r && r <= 'z':
			hasLower = true
		case 'A' <= r && r <= 'Z':
			hasUpper = true
		case '0' <= r && r <= '9':
			hasDigit = true
		default:
			hasSymbol = true
		}
	}
	return hasLower && hasUpper && hasDigit && hasSymbol
}

var ErrPhone = errors.New("phone number is not valid")

// Phone normalises a phone number to E.164. Empty input is allowed and returns "".
func Phone(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	p, err := libphonenumber.Parse(s, DefaultRegion)
	if err != nil {
		return "", ErrPhone
	}
	if !libphonenumber.IsValidNumber(p) {
		return "", ErrPhone
	}
	return libphonenumber.Format(p, libphonenumber.E164), nil
}

var v = validator.New()

// Struct runs the `validate` tags of x and returns field -> failed tag.
func Struct(x any) map[string]string {
	err := v.Struct(x)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		out[fe.Field()] = fe.Tag()
	}
	return out
}
