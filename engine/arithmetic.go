/*
arithmetic.go - Pure financial split computation

PURPOSE:
  Computes the three-way split between the billed party, the operator's
  commission, and the assigned workers. Pure functions, no I/O: the split is
  exactly reproducible from (workerCount, unitBillRate, unitPayRate) at any
  later time.

THE SPLIT:
  billedTotal       = workerCount * unitBillRate
  workerPayoutTotal = workerCount * unitPayRate
  operatorCommission = billedTotal - workerPayoutTotal

  Whether the requester or the caterer is billed changes nothing in the
  arithmetic, only the addressee.

VALIDATION:
  unitPayRate < unitBillRate is a business rule, not an arithmetic one: an
  event that yields zero or negative commission is rejected before anything
  is persisted.

SEE ALSO:
  - coordinator.go: calls ComputeSplit on the create path
*/
package engine

import "github.com/shopspring/decimal"

// FinancialSplit is the derived money flow for one event.
type FinancialSplit struct {
	BilledTotal        decimal.Decimal
	WorkerPayoutTotal  decimal.Decimal
	OperatorCommission decimal.Decimal
}

// ComputeSplit derives the split from the financial inputs. Inputs must have
// passed ValidateFinancials; ComputeSplit itself never fails.
func ComputeSplit(workerCount int, unitBillRate, unitPayRate decimal.Decimal) FinancialSplit {
	n := decimal.NewFromInt(int64(workerCount))
	billed := n.Mul(unitBillRate)
	payout := n.Mul(unitPayRate)
	return FinancialSplit{
		BilledTotal:        billed,
		WorkerPayoutTotal:  payout,
		OperatorCommission: billed.Sub(payout),
	}
}

// ValidateFinancials checks the financial preconditions for event creation:
// workerCount >= 1, both rates non-negative, and pay rate strictly below bill
// rate so the operator commission is positive.
func ValidateFinancials(workerCount int, unitBillRate, unitPayRate decimal.Decimal) error {
	if workerCount < 1 {
		return invalidf("workerCount", "must be at least 1, got %d", workerCount)
	}
	if unitBillRate.IsNegative() {
		return invalidf("unitBillRate", "must not be negative, got %s", unitBillRate)
	}
	if unitPayRate.IsNegative() {
		return invalidf("unitPayRate", "must not be negative, got %s", unitPayRate)
	}
	if unitPayRate.GreaterThanOrEqual(unitBillRate) {
		return invalidf("unitPayRate", "must be below unitBillRate (%s >= %s would leave no commission)",
			unitPayRate, unitBillRate)
	}
	return nil
}
