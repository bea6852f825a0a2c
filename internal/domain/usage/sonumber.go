package usage

import (
	"regexp"
	"time"

	"github.com/fieldstock/partsdesk/internal/errs"
)

var soNumberRe = regexp.MustCompile(`^[0-9]{8,20}$`)

// ValidateSONumber checks a service order number: 8-20 decimal digits
// whose first 8 digits form a real YYYYMMDD calendar date.
func ValidateSONumber(so string) error {
	if !soNumberRe.MatchString(so) {
		return errs.Validationf("service order number must be 8-20 digits, got %q", so)
	}
	if _, err := time.Parse("20060102", so[:8]); err != nil {
		return errs.Validationf("service order number %q does not start with a valid YYYYMMDD date", so)
	}
	return nil
}
