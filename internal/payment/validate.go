package payment

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zoobzio/clockz"

	"github.com/joseph-ayodele/payment-desk/constants"
	"github.com/joseph-ayodele/payment-desk/internal/codec"
)

// Result is the outcome of validating a payment request. The zero value is Valid.
type Result struct {
	Reason constants.Reason
}

// Valid reports whether every rule passed.
func (r Result) Valid() bool { return r.Reason == "" }

func invalid(reason constants.Reason) Result { return Result{Reason: reason} }

// rule returns a non-empty reason when the request fails it.
type rule func(v *Validator, fields codec.Fields) constants.Reason

// rules run in order; the first failure is reported.
var rules = []rule{
	checkCard,
	checkExpiry,
	checkCVV,
	checkAmount,
}

// Validator applies the payment rules against a clock.
type Validator struct {
	clock clockz.Clock
}

// NewValidator returns a Validator; a nil clock means the real clock.
func NewValidator(clock clockz.Clock) *Validator {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Validator{clock: clock}
}

// Validate checks the request and reports the first failing rule.
func (v *Validator) Validate(fields codec.Fields) Result {
	for _, r := range rules {
		if reason := r(v, fields); reason != "" {
			return invalid(reason)
		}
	}
	return Result{}
}

func checkCard(_ *Validator, fields codec.Fields) constants.Reason {
	card, ok := fields.Get(constants.FieldCard)
	if !ok || !isDigits(card) {
		return constants.ReasonInvalidCard
	}
	return ""
}

func checkExpiry(v *Validator, fields codec.Fields) constants.Reason {
	exp, ok := fields.Get(constants.FieldExpiry)
	if !ok || !strings.Contains(exp, "/") {
		return constants.ReasonInvalidExpiryFormat
	}
	year, month, ok := ParseExpiry(exp)
	if !ok {
		return constants.ReasonInvalidExpiryFormat
	}
	if expired(year, month, v.clock.Now()) {
		return constants.ReasonCardExpired
	}
	return ""
}

func checkCVV(_ *Validator, fields codec.Fields) constants.Reason {
	cvv, ok := fields.Get(constants.FieldCVV)
	if !ok || !isDigits(cvv) {
		return constants.ReasonInvalidCvv
	}
	return ""
}

func checkAmount(_ *Validator, fields codec.Fields) constants.Reason {
	raw, ok := fields.Get(constants.FieldAmount)
	if !ok {
		return constants.ReasonMissingAmount
	}
	if _, ok := ParseAmount(raw); !ok {
		return constants.ReasonInvalidAmount
	}
	return ""
}

// ParseExpiry parses MM/YY into a calendar year (2000+YY) and month.
func ParseExpiry(exp string) (int, time.Month, bool) {
	parts := strings.Split(exp, "/")
	if len(parts) != 2 {
		return 0, 0, false
	}
	mm, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, 0, false
	}
	yy, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, 0, false
	}
	year := 2000 + yy
	if mm < 1 || mm > 12 || year < 1 || year > 9999 {
		return 0, 0, false
	}
	return year, time.Month(mm), true
}

// Bounds on accepted amounts. Exponent notation is allowed but the value must
// stay small enough to store and print in full.
const (
	maxAmountLen    = 64
	maxAmountExp    = 18
	maxAmountDigits = 32
)

// ParseAmount parses a decimal amount that must be strictly positive.
func ParseAmount(raw string) (decimal.Decimal, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) > maxAmountLen {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(raw)
	if err != nil || !d.IsPositive() {
		return decimal.Zero, false
	}
	if exp := d.Exponent(); exp > maxAmountExp || exp < -maxAmountExp {
		return decimal.Zero, false
	}
	if d.NumDigits() > maxAmountDigits {
		return decimal.Zero, false
	}
	return d, true
}

// expired compares the first day of the expiry month with the first day of now's month.
func expired(year int, month time.Month, now time.Time) bool {
	expiry := time.Date(year, month, 1, 0, 0, 0, 0, now.Location())
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return expiry.Before(current)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
