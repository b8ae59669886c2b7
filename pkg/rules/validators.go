package rules

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"
)

// Built-in validators treat blank values as valid unless their purpose is to
// reject them (Required, MinLength). Compose with Required for mandatory
// fields. Passing an empty message selects the default wording.

const (
	defaultRequiredMessage = "This field is required"
	dateLayout             = "2006-01-02"
)

var (
	emailPattern      = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	caPostalPattern   = regexp.MustCompile(`^[A-Za-z]\d[A-Za-z][ -]?\d[A-Za-z]\d$`)
	usZipPattern      = regexp.MustCompile(`^\d{5}(-\d{4})?$`)
	phoneStripPattern = regexp.MustCompile(`[\s().+-]`)
)

// Required rejects nil, blank strings, and empty collections.
func Required(message string) Validator {
	message = orDefault(message, defaultRequiredMessage)
	return func(value any) string {
		if isBlank(value) {
			return message
		}
		return ""
	}
}

// MinLength rejects values shorter than min runes, including blank ones.
func MinLength(min int, message string) Validator {
	message = orDefault(message, fmt.Sprintf("This field must be at least %d characters", min))
	return func(value any) string {
		if utf8.RuneCountInString(stringValue(value)) < min {
			return message
		}
		return ""
	}
}

// MaxLength rejects values longer than max runes.
func MaxLength(max int, message string) Validator {
	message = orDefault(message, fmt.Sprintf("This field has a %d character limit", max))
	return func(value any) string {
		if utf8.RuneCountInString(stringValue(value)) > max {
			return message
		}
		return ""
	}
}

// ExactLength requires non-blank values to have exactly n runes.
func ExactLength(n int, message string) Validator {
	message = orDefault(message, fmt.Sprintf("This field must have exactly %d characters", n))
	return func(value any) string {
		text := stringValue(value)
		if text == "" {
			return ""
		}
		if utf8.RuneCountInString(text) != n {
			return message
		}
		return ""
	}
}

// Pattern compiles expr and requires non-blank values to match it. It panics
// on an invalid expression; use PatternRegexp with a pre-compiled pattern
// when the expression is user supplied.
func Pattern(expr, message string) Validator {
	return PatternRegexp(regexp.MustCompile(expr), message)
}

// PatternRegexp requires non-blank values to match re.
func PatternRegexp(re *regexp.Regexp, message string) Validator {
	message = orDefault(message, "This field has an invalid format")
	return func(value any) string {
		text := stringValue(value)
		if text == "" || re.MatchString(text) {
			return ""
		}
		return message
	}
}

// Email requires a plausible email address.
func Email(message string) Validator {
	return PatternRegexp(emailPattern, orDefault(message, "You must enter an email address in a valid format. For example: name@example.com"))
}

// Phone requires ten digits once common separators are removed.
func Phone(message string) Validator {
	message = orDefault(message, "You must enter a valid phone number with 10 digits")
	return func(value any) string {
		text := stringValue(value)
		if text == "" {
			return ""
		}
		digits := phoneStripPattern.ReplaceAllString(text, "")
		if len(digits) != 10 || !allDigits(digits) {
			return message
		}
		return ""
	}
}

// CanadianPostalCode requires the A9A 9A9 format.
func CanadianPostalCode(message string) Validator {
	return PatternRegexp(caPostalPattern, orDefault(message, "The postal code must be in the format A9A 9A9"))
}

// USZipCode requires a five or nine digit ZIP code.
func USZipCode(message string) Validator {
	return PatternRegexp(usZipPattern, orDefault(message, "The ZIP code must have 5 or 9 digits"))
}

// Numeric requires digits only.
func Numeric(message string) Validator {
	message = orDefault(message, "This field must contain only numbers")
	return func(value any) string {
		text := stringValue(value)
		if text == "" || allDigits(text) {
			return ""
		}
		return message
	}
}

// Alphanumeric requires letters and digits only.
func Alphanumeric(message string) Validator {
	message = orDefault(message, "This field must contain only letters and numbers")
	return func(value any) string {
		for _, r := range stringValue(value) {
			if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
				return message
			}
		}
		return ""
	}
}

// NoSpecialCharacters allows letters, digits, spaces and basic punctuation.
func NoSpecialCharacters(message string) Validator {
	message = orDefault(message, "This field cannot contain special characters")
	return func(value any) string {
		for _, r := range stringValue(value) {
			if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
				continue
			}
			if strings.ContainsRune(".,'&-()/", r) {
				continue
			}
			return message
		}
		return ""
	}
}

// NotNegative rejects numeric values below zero. Non-numeric values are
// rejected as well.
func NotNegative(message string) Validator {
	message = orDefault(message, "This value cannot be negative")
	return func(value any) string {
		if isBlank(value) {
			return ""
		}
		number, ok := numberValue(value)
		if !ok || number < 0 {
			return message
		}
		return ""
	}
}

// Range requires numeric values within [min, max].
func Range(min, max float64, message string) Validator {
	message = orDefault(message, fmt.Sprintf("This value must be between %s and %s", formatNumber(min), formatNumber(max)))
	return func(value any) string {
		if isBlank(value) {
			return ""
		}
		number, ok := numberValue(value)
		if !ok || number < min || number > max {
			return message
		}
		return ""
	}
}

// OneOf requires non-blank values to equal one of values.
func OneOf(values []string, message string) Validator {
	allowed := make(map[string]struct{}, len(values))
	for _, v := range values {
		allowed[v] = struct{}{}
	}
	message = orDefault(message, "This field must be one of: "+strings.Join(values, ", "))
	return func(value any) string {
		text := stringValue(value)
		if text == "" {
			return ""
		}
		if _, ok := allowed[text]; ok {
			return ""
		}
		return message
	}
}

// Date requires non-blank values to parse with layout (YYYY-MM-DD when
// layout is empty).
func Date(layout, message string) Validator {
	layout = orDefault(layout, dateLayout)
	message = orDefault(message, "You must enter a valid date")
	return func(value any) string {
		text := stringValue(value)
		if text == "" {
			return ""
		}
		if _, err := time.Parse(layout, text); err != nil {
			return message
		}
		return ""
	}
}

// MinYearsAgo requires a YYYY-MM-DD date at least years before now. A nil
// clock uses time.Now.
func MinYearsAgo(years int, now func() time.Time, message string) Validator {
	if now == nil {
		now = time.Now
	}
	message = orDefault(message, fmt.Sprintf("You must be at least %d years old", years))
	return func(value any) string {
		text := stringValue(value)
		if text == "" {
			return ""
		}
		date, err := time.Parse(dateLayout, text)
		if err != nil {
			return message
		}
		limit := now().AddDate(-years, 0, 0)
		if date.After(limit) {
			return message
		}
		return ""
	}
}

// Optional skips v for blank values.
func Optional(v Validator) Validator {
	return func(value any) string {
		if isBlank(value) {
			return ""
		}
		return v(value)
	}
}

// Chain folds validators into one that reports the first failure.
func Chain(validators ...Validator) Validator {
	return func(value any) string {
		for _, v := range validators {
			if v == nil {
				continue
			}
			if msg := v(value); msg != "" {
				return msg
			}
		}
		return ""
	}
}

// WithMessage replaces any failure message produced by v.
func WithMessage(v Validator, message string) Validator {
	return func(value any) string {
		if v(value) == "" {
			return ""
		}
		return message
	}
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}

func isBlank(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func stringValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case fmt.Stringer:
		return strings.TrimSpace(v.String())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func numberValue(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case int32:
		return float64(v), true
	case uint:
		return float64(v), true
	case uint64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func allDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
