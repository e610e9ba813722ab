package wizard

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"loan-console/internal/common/errors"
)

const dateLayout = "2006-01-02"

// checkField validates one value against its field's constraints. required
// is passed separately because branch fields are only required while their
// branch is selected.
func checkField(f Field, value string, required bool, bounds *DurationBounds) error {
	value = strings.TrimSpace(value)
	label := f.Label
	if label == "" {
		label = f.Name
	}

	if required {
		if err := validation.Validate(value, validation.Required.Error("is required")); err != nil {
			return fieldError(f, label, err)
		}
	}
	if value == "" {
		return nil
	}

	rules := kindRules(f)
	if f.Pattern != "" {
		rules = append(rules, validation.Match(regexp.MustCompile(f.Pattern)).Error("has an invalid format"))
	}
	if err := validation.Validate(value, rules...); err != nil {
		return fieldError(f, label, err)
	}

	if f.Kind != KindNumber && f.Kind != KindInteger {
		return nil
	}
	n, _ := strconv.ParseFloat(value, 64)
	min, max := f.Min, f.Max
	if bounds != nil {
		min, max = bound(float64(bounds.Min)), bound(float64(bounds.Max))
	}
	var ranges []validation.Rule
	if min != nil {
		ranges = append(ranges, validation.Min(*min).Error(fmt.Sprintf("must be at least %s", trimFloat(*min))))
	}
	if max != nil {
		ranges = append(ranges, validation.Max(*max).Error(fmt.Sprintf("must be at most %s", trimFloat(*max))))
	}
	if err := validation.Validate(n, ranges...); err != nil {
		return fieldError(f, label, err)
	}
	return nil
}

func kindRules(f Field) []validation.Rule {
	switch f.Kind {
	case KindNumber:
		return []validation.Rule{is.Float.Error("must be a number")}
	case KindInteger:
		return []validation.Rule{is.Int.Error("must be a whole number")}
	case KindDate:
		return []validation.Rule{validation.Date(dateLayout).Error("must be a date (YYYY-MM-DD)")}
	case KindEmail:
		return []validation.Rule{is.EmailFormat.Error("must be a valid email address")}
	case KindSelect:
		opts := make([]interface{}, len(f.Options))
		for i, o := range f.Options {
			opts[i] = o
		}
		return []validation.Rule{validation.In(opts...).Error("must be one of: " + strings.Join(f.Options, ", "))}
	}
	return nil
}

func fieldError(f Field, label string, err error) error {
	return errors.NewValidationError(f.Name, fmt.Sprintf("%s %s", label, err.Error()))
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
