package billing

import (
	"sort"

	"github.com/spec-kit/rental-portal/internal/domain"
)

// TotalPaid sums the base value of every payment on the contracts. Taxes are not included.
func TotalPaid(contracts []domain.Contract) float64 {
	var total float64
	for _, c := range contracts {
		total += c.TotalPaid()
	}
	return total
}

// ActiveMonthlyTotal sums the monthly rent of active contracts.
func ActiveMonthlyTotal(contracts []domain.Contract) float64 {
	var total float64
	for _, c := range contracts {
		if c.Active {
			total += c.MonthlyValue
		}
	}
	return total
}

// ActiveCount counts active contracts.
func ActiveCount(contracts []domain.Contract) int {
	n := 0
	for _, c := range contracts {
		if c.Active {
			n++
		}
	}
	return n
}

// MaintenanceExpenses sums the cost of maintenance work.
func MaintenanceExpenses(maintenances []domain.Maintenance) float64 {
	var total float64
	for _, m := range maintenances {
		total += m.TotalValue
	}
	return total
}

// LatestPayments returns up to n payments of the contract, most recent first.
func LatestPayments(contract domain.Contract, n int) []domain.Payment {
	payments := make([]domain.Payment, len(contract.Payments))
	copy(payments, contract.Payments)
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})
	if n >= 0 && len(payments) > n {
		payments = payments[:n]
	}
	return payments
}
