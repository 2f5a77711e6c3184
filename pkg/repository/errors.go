package repository

import (
	"math"

	"github.com/garnizeh/jobly/pkg/apperr"
	"github.com/garnizeh/jobly/pkg/sqlbuild"
)

var (
	errSalary         = apperr.InvalidInput("salary must be greater than or equal to 0")
	errEquity         = apperr.InvalidInput("equity must be between 0 and 1")
	errEmployeeBounds = apperr.InvalidInput("min_employees cannot be greater than max_employees")
	errSalaryBounds   = apperr.InvalidInput("min_salary cannot be greater than max_salary")
	errEmployees      = apperr.InvalidInput("num_employees must be between 0 and %d", math.MaxInt32)
	errEmployeeRange  = apperr.InvalidInput("employee bounds must be between %d and %d", math.MinInt32, math.MaxInt32)
)

// NumberValue converts a decoded JSON number to float64. ok is false for
// non-numeric values.
func NumberValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	}
	return 0, false
}

// CheckJobFields applies the salary and equity range checks to an update.
func CheckJobFields(f sqlbuild.Fields) error {
	if v, ok := f.Get("salary"); ok && v != nil {
		n, isNum := NumberValue(v)
		if !isNum {
			return apperr.InvalidInput("salary must be a number")
		}
		if err := CheckSalary(n); err != nil {
			return err
		}
	}
	if v, ok := f.Get("equity"); ok && v != nil {
		n, isNum := NumberValue(v)
		if !isNum {
			return apperr.InvalidInput("equity must be a number")
		}
		if err := CheckEquity(n); err != nil {
			return err
		}
	}
	return nil
}
