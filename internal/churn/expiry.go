package churn

import (
	"fmt"
	"strings"
	"time"

	"github.com/paveg/churnprep/internal/common"
	"github.com/paveg/churnprep/internal/dates"
	"github.com/paveg/churnprep/internal/errors"
)

// DefaultReferenceYear anchors the year-based expiry rule.
const DefaultReferenceYear = 2020

// MonthToMonthPolicy decides how a month-to-month contract that began
// outside January and February gets an expiry.
type MonthToMonthPolicy int

const (
	// PolicyStrict refuses to invent an expiry and reports the row.
	PolicyStrict MonthToMonthPolicy = iota
	// PolicyOneMonth applies the February rule to every month: begin + 1 month.
	PolicyOneMonth
)

var policyNames = common.EnumStringMap{
	int(PolicyStrict):   "strict",
	int(PolicyOneMonth): "one-month",
}

func (p MonthToMonthPolicy) String() string {
	return common.FormatEnum(int(p), policyNames)
}

// ParseMonthToMonthPolicy reads "strict" or "one-month".
func ParseMonthToMonthPolicy(s string) (MonthToMonthPolicy, error) {
	v, ok := common.ParseEnum(s, policyNames)
	if !ok {
		return PolicyStrict, errors.NewInvalidInputError("ParseMonthToMonthPolicy",
			fmt.Sprintf("unknown month-to-month policy %q (want strict or one-month)", s))
	}
	return MonthToMonthPolicy(v), nil
}

// ExpiryRule records how an end date was obtained.
type ExpiryRule int

const (
	RuleObserved ExpiryRule = iota
	RuleFebruaryPlusMonth
	RuleJanuaryFixed
	RuleOneMonth
	RuleSameYear
	RuleReferenceYear
)

var ruleNames = common.EnumStringMap{
	int(RuleObserved):          "observed",
	int(RuleFebruaryPlusMonth): "february_plus_month",
	int(RuleJanuaryFixed):      "january_fixed",
	int(RuleOneMonth):          "one_month",
	int(RuleSameYear):          "same_year",
	int(RuleReferenceYear):     "reference_year",
}

func (r ExpiryRule) String() string {
	return common.FormatEnum(int(r), ruleNames)
}

// Synthetic reports whether the end date was imputed rather than observed.
func (r ExpiryRule) Synthetic() bool {
	return r != RuleObserved
}

// EndDate is a contract end date together with the rule that produced it.
type EndDate struct {
	Date time.Time
	Rule ExpiryRule
}

// Resolver fills in missing contract end dates. The zero value uses
// DefaultReferenceYear and PolicyStrict.
type Resolver struct {
	ReferenceYear int
	MonthToMonth  MonthToMonthPolicy
}

// NewResolver creates a resolver. A non-positive year means DefaultReferenceYear.
func NewResolver(referenceYear int, policy MonthToMonthPolicy) Resolver {
	return Resolver{ReferenceYear: referenceYear, MonthToMonth: policy}
}

func (r Resolver) referenceYear() int {
	if r.ReferenceYear <= 0 {
		return DefaultReferenceYear
	}
	return r.ReferenceYear
}

// JanuaryExpiry is the fixed expiry for month-to-month contracts begun in
// January: February 1st of the reference year.
func (r Resolver) JanuaryExpiry() time.Time {
	return dates.Date(r.referenceYear(), time.February, 1)
}

// Resolve returns the observed end date when there is one, otherwise the
// synthetic expiry for the contract type.
func (r Resolver) Resolve(rec ContractRecord) (EndDate, error) {
	if rec.HasObservedEnd {
		return EndDate{Date: rec.ObservedEnd, Rule: RuleObserved}, nil
	}

	switch rec.Type {
	case MonthToMonth:
		return r.monthToMonth(rec)
	case OneYear:
		return r.yearBased(rec.Begin, 1), nil
	case TwoYear:
		return r.yearBased(rec.Begin, 2), nil
	default:
		return EndDate{}, errors.NewValidationError("ResolveExpiry", ColType,
			fmt.Sprintf("customer %s: unknown contract type %v", rec.CustomerID, rec.Type))
	}
}

func (r Resolver) monthToMonth(rec ContractRecord) (EndDate, error) {
	switch rec.Begin.Month() {
	case time.February:
		return EndDate{Date: dates.Add(rec.Begin, dates.Months(1)), Rule: RuleFebruaryPlusMonth}, nil
	case time.January:
		return EndDate{Date: r.JanuaryExpiry(), Rule: RuleJanuaryFixed}, nil
	}

	if r.MonthToMonth == PolicyOneMonth {
		return EndDate{Date: dates.Add(rec.Begin, dates.Months(1)), Rule: RuleOneMonth}, nil
	}
	return EndDate{}, errors.NewUnresolvedExpiryError("ResolveExpiry", rec.CustomerID,
		fmt.Sprintf("month-to-month contract begun in %s has no expiry rule under the %s policy",
			strings.ToLower(rec.Begin.Month().String()), r.MonthToMonth))
}

// yearBased applies the n-year rule. Contracts begun in the reference year run
// n years from their begin date; any other begin year is re-anchored to the
// first of the begin month in the year before the reference year.
func (r Resolver) yearBased(begin time.Time, n int) EndDate {
	ref := r.referenceYear()
	if begin.Year() == ref {
		return EndDate{Date: dates.Add(begin, dates.Years(n)), Rule: RuleSameYear}
	}
	anchor := dates.Date(ref-1, begin.Month(), 1)
	return EndDate{Date: dates.Add(anchor, dates.Years(n)), Rule: RuleReferenceYear}
}
