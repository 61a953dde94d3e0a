package wizard

import (
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
)

// Option list bounds. A vote (or similar choice list) needs a real choice but
// stays readable on a ballot.
const (
	MinOptions   = 2
	MaxOptions   = 10
	MaxOptionLen = 100
)

// phonePattern matches a country-code prefix followed by exactly ten digits.
var phonePattern = regexp.MustCompile(`^\+[0-9]{1,3}[0-9]{10}$`)

// Validator is a pure, side-effect-free predicate over a Draft. A nil return
// means valid; a non-nil error carries the human-readable reason for the
// specific failing rule.
type Validator func(d *Draft) error

// All combines validators; the first failure wins.
func All(vs ...Validator) Validator {
	return func(d *Draft) error {
		for _, v := range vs {
			if err := v(d); err != nil {
				return err
			}
		}
		return nil
	}
}

// Always accepts any draft. For purely informational steps.
func Always() Validator {
	return func(*Draft) error { return nil }
}

// NonEmpty requires the field to be non-empty after trimming.
func NonEmpty(field, label string) Validator {
	return func(d *Draft) error {
		if strings.TrimSpace(d.Str(field)) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

// MaxLen caps the trimmed length of a field.
func MaxLen(field, label string, max int) Validator {
	return func(d *Draft) error {
		if len(strings.TrimSpace(d.Str(field))) > max {
			return fmt.Errorf("%s cannot exceed %d characters", label, max)
		}
		return nil
	}
}

// Phone requires a country-code-prefixed 10-digit number, e.g. +64211234567.
func Phone(field, label string) Validator {
	return func(d *Draft) error {
		if !phonePattern.MatchString(strings.TrimSpace(d.Str(field))) {
			return fmt.Errorf("%s must be a country code followed by a 10-digit number", label)
		}
		return nil
	}
}

// Password requires at least 8 characters with a lowercase letter, an
// uppercase letter, and a digit.
func Password(field string) Validator {
	return func(d *Draft) error {
		pw := d.Str(field)
		if len(pw) < 8 {
			return fmt.Errorf("password must be at least 8 characters")
		}
		var lower, upper, digit bool
		for _, r := range pw {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if !lower || !upper || !digit {
			return fmt.Errorf("password must contain a lowercase letter, an uppercase letter, and a digit")
		}
		return nil
	}
}

// Equals requires two fields to hold the same value (confirmation inputs).
func Equals(field, confirm, label string) Validator {
	return func(d *Draft) error {
		if d.Str(field) != d.Str(confirm) {
			return fmt.Errorf("%s does not match", label)
		}
		return nil
	}
}

// Checked requires a boolean field to be true (consent checkboxes).
func Checked(field, label string) Validator {
	return func(d *Draft) error {
		if !d.Bool(field) {
			return fmt.Errorf("%s must be accepted", label)
		}
		return nil
	}
}

// Options validates a choice list: 2..10 entries, none empty after trim,
// case-insensitive uniqueness, each at most 100 characters.
func Options(field, label string) Validator {
	return func(d *Draft) error {
		opts := d.Strings(field)
		if len(opts) < MinOptions {
			return fmt.Errorf("%s requires at least %d entries", label, MinOptions)
		}
		if len(opts) > MaxOptions {
			return fmt.Errorf("%s allows a maximum of %d entries", label, MaxOptions)
		}
		seen := make(map[string]bool, len(opts))
		for _, opt := range opts {
			trimmed := strings.TrimSpace(opt)
			if trimmed == "" {
				return fmt.Errorf("%s entries cannot be empty", label)
			}
			if len(trimmed) > MaxOptionLen {
				return fmt.Errorf("%s entries cannot exceed %d characters", label, MaxOptionLen)
			}
			key := strings.ToLower(trimmed)
			if seen[key] {
				return fmt.Errorf("%s entries must be unique", label)
			}
			seen[key] = true
		}
		return nil
	}
}

// Schedule validates a start/end window: start strictly before end, and start
// strictly in the future against the injected clock. The clock is consulted
// on every run, so a window that was valid at step-exit time fails at submit
// time once the start has slipped into the past.
func Schedule(startField, endField string, clock Clock) Validator {
	return func(d *Draft) error {
		start, err := ParseDraftTime(d.Str(startField))
		if err != nil {
			return fmt.Errorf("start time is not a valid date/time")
		}
		end, err := ParseDraftTime(d.Str(endField))
		if err != nil {
			return fmt.Errorf("end time is not a valid date/time")
		}
		if !start.Before(end) {
			return fmt.Errorf("start time must be before end time")
		}
		if !start.After(clock.Now()) {
			return fmt.Errorf("start time must be in the future")
		}
		return nil
	}
}

// ParseDraftTime parses the two timestamp shapes a draft can hold: the
// datetime-local form entered in forms ("2006-01-02T15:04") and RFC 3339 as
// returned by the API for existing records.
func ParseDraftTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04", s)
}
