package payroll

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// TaxBracket taxes the slice of income above the previous bracket's ceiling
// and up to UpTo. A nil UpTo marks the open top bracket.
type TaxBracket struct {
	UpTo *decimal.Decimal
	Rate decimal.Decimal
}

type TaxSchedule []TaxBracket

func DefaultTaxSchedule() TaxSchedule {
	upTo := func(v int64) *decimal.Decimal {
		d := decimal.NewFromInt(v)
		return &d
	}
	return TaxSchedule{
		{UpTo: upTo(50000), Rate: decimal.Zero},
		{UpTo: upTo(100000), Rate: decimal.RequireFromString("0.10")},
		{UpTo: upTo(200000), Rate: decimal.RequireFromString("0.20")},
		{UpTo: nil, Rate: decimal.RequireFromString("0.30")},
	}
}

// ParseTaxSchedule reads brackets written as "ceiling:rate" pairs separated
// by commas, e.g. "50000:0,100000:0.10,*:0.30". A "*" ceiling marks the open
// top bracket. The result still has to pass Validate.
func ParseTaxSchedule(raw string) (TaxSchedule, error) {
	var schedule TaxSchedule
	for i, part := range strings.Split(raw, ",") {
		ceiling, rate, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok {
			return nil, fmt.Errorf("tax bracket %d: %q is not ceiling:rate", i, part)
		}

		var b TaxBracket
		r, err := decimal.NewFromString(strings.TrimSpace(rate))
		if err != nil {
			return nil, fmt.Errorf("tax bracket %d: invalid rate: %w", i, err)
		}
		b.Rate = r

		if ceiling = strings.TrimSpace(ceiling); ceiling != "*" {
			upTo, err := decimal.NewFromString(ceiling)
			if err != nil {
				return nil, fmt.Errorf("tax bracket %d: invalid ceiling: %w", i, err)
			}
			b.UpTo = &upTo
		}
		schedule = append(schedule, b)
	}
	return schedule, nil
}

// String renders the schedule in the form ParseTaxSchedule reads.
func (s TaxSchedule) String() string {
	parts := make([]string, len(s))
	for i, b := range s {
		ceiling := "*"
		if b.UpTo != nil {
			ceiling = b.UpTo.String()
		}
		parts[i] = ceiling + ":" + b.Rate.String()
	}
	return strings.Join(parts, ",")
}

// Validate checks that ceilings are strictly increasing, rates are within
// [0, 1] and only the last bracket is open.
func (s TaxSchedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("tax schedule has no brackets")
	}
	prev := decimal.Zero
	for i, b := range s {
		if b.Rate.IsNegative() || b.Rate.GreaterThan(decimal.NewFromInt(1)) {
			return fmt.Errorf("tax bracket %d: rate %s out of range", i, b.Rate)
		}
		if b.UpTo == nil {
			if i != len(s)-1 {
				return fmt.Errorf("tax bracket %d: only the last bracket may be open", i)
			}
			continue
		}
		if !b.UpTo.GreaterThan(prev) {
			return fmt.Errorf("tax bracket %d: ceiling %s must exceed %s", i, b.UpTo, prev)
		}
		prev = *b.UpTo
	}
	return nil
}

// Tax applies each marginal rate only to the portion of income inside its bracket.
func (s TaxSchedule) Tax(income decimal.Decimal) decimal.Decimal {
	tax := decimal.Zero
	lower := decimal.Zero
	for _, b := range s {
		if !income.GreaterThan(lower) {
			break
		}
		upper := income
		if b.UpTo != nil && b.UpTo.LessThan(income) {
			upper = *b.UpTo
		}
		tax = tax.Add(upper.Sub(lower).Mul(b.Rate))
		if b.UpTo == nil {
			break
		}
		lower = *b.UpTo
	}
	return tax
}
