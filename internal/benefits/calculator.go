// Package benefits computes employee benefits costs.
package benefits

import (
	"unicode"
	"unicode/utf8"

	"github.com/vyrodovalexey/benefits-example/internal/model"
)

// Cost constants.
const (
	EmployeeBaseYearly  = 1000.0
	DependentBaseYearly = 500.0
	PayPeriodsPerYear   = 26
	// DiscountMultiplier applies the 10% discount for names starting with "A".
	DiscountMultiplier = 0.9
	// SalaryPerPayPeriod is the gross pay of every employee per pay period.
	SalaryPerPayPeriod = 2000.0
)

// Paycheck is the pay breakdown for a single pay period.
type Paycheck struct {
	Salary       float64 `json:"salary"`
	BenefitsCost float64 `json:"benefits_cost"`
	NetPay       float64 `json:"net_pay"`
}

// Comparison contrasts a current and an updated benefits cost.
type Comparison struct {
	Current    float64 `json:"current"`
	Updated    float64 `json:"updated"`
	Difference float64 `json:"difference"`
}

// Cost returns the per-pay-period benefits cost for an employee with the
// given first name and dependents.
func Cost(firstName string, dependents []model.Dependent) float64 {
	return AnnualCost(firstName, dependents) / PayPeriodsPerYear
}

// AnnualCost returns the yearly benefits cost of an employee and dependents.
func AnnualCost(firstName string, dependents []model.Dependent) float64 {
	total := EmployeeAnnualCost(firstName)
	for _, d := range dependents {
		total += DependentAnnualCost(d.FirstName)
	}
	return total
}

// EmployeeAnnualCost returns the yearly cost for the employee alone.
func EmployeeAnnualCost(firstName string) float64 {
	return applyDiscount(EmployeeBaseYearly, firstName)
}

// DependentAnnualCost returns the yearly cost for a single dependent.
func DependentAnnualCost(firstName string) float64 {
	return applyDiscount(DependentBaseYearly, firstName)
}

// PaycheckFor returns the pay breakdown for the given per-period cost.
func PaycheckFor(cost float64) Paycheck {
	return Paycheck{
		Salary:       SalaryPerPayPeriod,
		BenefitsCost: cost,
		NetPay:       SalaryPerPayPeriod - cost,
	}
}

// Compare returns current, updated and the difference updated - current.
func Compare(current, updated float64) Comparison {
	return Comparison{
		Current:    current,
		Updated:    updated,
		Difference: updated - current,
	}
}

func applyDiscount(base float64, name string) float64 {
	if qualifiesForDiscount(name) {
		return base * DiscountMultiplier
	}
	return base
}

// qualifiesForDiscount reports whether name starts with "a" or "A".
func qualifiesForDiscount(name string) bool {
	r, _ := utf8.DecodeRuneInString(name)
	return unicode.ToLower(r) == 'a'
}
