// Package billing classifies how urgent the current rent cycle of a
// contract is and computes the totals shown on the reports.
package billing

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// Status is the urgency class of a contract's current cycle.
type Status int

const (
	StatusPaid Status = iota + 1
	StatusOverdue
	StatusDueToday
	StatusUpcomingImminent
	StatusUpcomingSoon
	StatusUpcomingDistant
	// StatusUnclassifiable marks a contract whose data does not allow a
	// classification, such as a missing payment day.
	StatusUnclassifiable
)

// Band limits, in days before the due date.
const (
	ImminentWithinDays = 3
	SoonWithinDays     = 7
)

func (s Status) String() string {
	switch s {
	case StatusPaid:
		return "PAID"
	case StatusOverdue:
		return "OVERDUE"
	case StatusDueToday:
		return "DUE_TODAY"
	case StatusUpcomingImminent:
		return "UPCOMING_IMMINENT"
	case StatusUpcomingSoon:
		return "UPCOMING_SOON"
	case StatusUpcomingDistant:
		return "UPCOMING_DISTANT"
	case StatusUnclassifiable:
		return "UNCLASSIFIABLE"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Rank orders statuses from most to least urgent.
func (s Status) Rank() int {
	switch s {
	case StatusOverdue:
		return 0
	case StatusDueToday:
		return 1
	case StatusUpcomingImminent:
		return 2
	case StatusUpcomingSoon:
		return 3
	case StatusUpcomingDistant:
		return 4
	case StatusPaid:
		return 5
	case StatusUnclassifiable:
		return 6
	default:
		return 7
	}
}

// Classification is the result of Classify. DaysRemaining holds the overdue
// magnitude for StatusOverdue and zero for paid or due today.
type Classification struct {
	Status        Status `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	Message       string `json:"message"`
}

// Classify reports the urgency of the contract's cycle containing now.
// Any payment created in the month of now settles the cycle. Month
// boundaries and the due date are taken in now's location.
func Classify(contract domain.Contract, now time.Time) (Classification, error) {
	if err := domain.ValidatePaymentDay(contract.PaymentDay); err != nil {
		return Classification{}, apperrors.NewFieldError("payment_day", err.Error())
	}

	loc := now.Location()
	year, month, _ := now.Date()
	for _, p := range contract.Payments {
		py, pm, _ := p.CreatedAt.In(loc).Date()
		if py == year && pm == month {
			return Classification{Status: StatusPaid, Message: "Paid for this month"}, nil
		}
	}

	due := time.Date(year, month, contract.PaymentDay, 0, 0, 0, 0, loc)
	diffDays := int(math.Ceil(float64(due.Sub(now)) / float64(24*time.Hour)))
	return classifyDays(diffDays), nil
}

func classifyDays(diffDays int) Classification {
	switch {
	case diffDays < 0:
		return Classification{Status: StatusOverdue, DaysRemaining: -diffDays, Message: "Overdue by " + days(-diffDays)}
	case diffDays == 0:
		return Classification{Status: StatusDueToday, Message: "Due today"}
	case diffDays <= ImminentWithinDays:
		return Classification{Status: StatusUpcomingImminent, DaysRemaining: diffDays, Message: "Due in " + days(diffDays)}
	case diffDays <= SoonWithinDays:
		return Classification{Status: StatusUpcomingSoon, DaysRemaining: diffDays, Message: "Due in " + days(diffDays)}
	default:
		return Classification{Status: StatusUpcomingDistant, DaysRemaining: diffDays, Message: "Due in " + days(diffDays)}
	}
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

// Classified pairs a contract with its classification. Err is set when the
// contract could not be classified; Classification is then StatusUnclassifiable.
type Classified struct {
	Contract       domain.Contract `json:"contract"`
	Classification Classification  `json:"classification"`
	Err            error           `json:"-"`
}

// ClassifyAll classifies every contract at the same instant. A contract
// that cannot be classified stays in the result, marked unclassifiable.
func ClassifyAll(contracts []domain.Contract, now time.Time) []Classified {
	out := make([]Classified, 0, len(contracts))
	for _, c := range contracts {
		cl, err := Classify(c, now)
		if err != nil {
			out = append(out, Classified{
				Contract:       c,
				Classification: Classification{Status: StatusUnclassifiable, Message: "Payment day unavailable"},
				Err:            fmt.Errorf("contract %d: %w", c.ID, err),
			})
			continue
		}
		out = append(out, Classified{Contract: c, Classification: cl})
	}
	return out
}

// SortByUrgency orders classified contracts most urgent first. Within a
// status, fewer remaining days come first, except overdue where more come first.
func SortByUrgency(items []Classified) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i].Classification, items[j].Classification
		if a.Status.Rank() != b.Status.Rank() {
			return a.Status.Rank() < b.Status.Rank()
		}
		if a.Status == StatusOverdue {
			return a.DaysRemaining > b.DaysRemaining
		}
		return a.DaysRemaining < b.DaysRemaining
	})
}
