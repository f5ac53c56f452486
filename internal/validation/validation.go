// Package validation holds the pure field and payload checks shared by the
// checkout flow, the self-service screens and the back office.  Nothing here
// performs I/O or returns an error value: single-field predicates answer a
// bool and composite validators collect every violation into a Result.
package validation

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

const (
	MinPasswordLen = 6
	IDCardLen      = 12
)

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^\d{3}-\d{4}-\d{5}$`)
)

// Email accepts local@domain.tld with no whitespace and exactly one '@'.
func Email(s string) bool { return emailRe.MatchString(strings.TrimSpace(s)) }

// Phone accepts the fixed XXX-XXXX-XXXXX pattern.
func Phone(s string) bool { return phoneRe.MatchString(strings.TrimSpace(s)) }

// Password requires at least MinPasswordLen characters.
func Password(s string) bool { return utf8.RuneCountInString(s) >= MinPasswordLen }

// IDCard requires exactly IDCardLen characters once surrounding blanks are
// removed.
func IDCard(s string) bool { return utf8.RuneCountInString(strings.TrimSpace(s)) == IDCardLen }

// DateRange requires end strictly after start.  When maxNights is positive
// the stay may not exceed it.
func DateRange(start, end model.Date, maxNights int) bool {
	if start.IsZero() || end.IsZero() || !end.After(start) {
		return false
	}
	return maxNights <= 0 || model.Nights(start, end) <= maxNights
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }

// FieldError names one violated field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Result is the outcome of a composite validator.  Errors keeps the order
// in which fields were checked so the first entry is the first field a
// user sees on the form.
type Result struct {
	Valid  bool         `json:"isValid"`
	Errors []FieldError `json:"errors,omitempty"`
}

// First returns the first violated field, or a zero FieldError when valid.
func (r Result) First() FieldError {
	if len(r.Errors) == 0 {
		return FieldError{}
	}
	return r.Errors[0]
}

// Merge appends the violations of o, prefixing their field names.
func (r *Result) Merge(prefix string, o Result) {
	for _, e := range o.Errors {
		if prefix != "" {
			e.Field = prefix + "." + e.Field
		}
		r.Errors = append(r.Errors, e)
	}
	r.Valid = len(r.Errors) == 0
}

type collector struct{ errs []FieldError }

func (c *collector) check(ok bool, field, msg string) {
	if !ok {
		c.errs = append(c.errs, FieldError{Field: field, Message: msg})
	}
}

func (c *collector) result() Result {
	return Result{Valid: len(c.errs) == 0, Errors: c.errs}
}

// Error carries a failed Result across API boundaries.  Its message is the
// first violated field's message.
type Error struct {
	Result Result
}

func (e *Error) Error() string { return e.Result.First().Message }

// Err converts an invalid result into an *Error and a valid one into nil.
func (r Result) Err() error {
	if r.Valid {
		return nil
	}
	return &Error{Result: r}
}
