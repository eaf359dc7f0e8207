// Package reports assembles the tenant and landlord report pages from
// backend data and the billing classifier.
package reports

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/billing"
	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

// RecentPaymentsShown is how many payments each report row lists.
const RecentPaymentsShown = 3

// Backend is the slice of the REST client reports read from.
type Backend interface {
	ListTenantContracts(ctx context.Context, tenantID int64) ([]domain.Contract, error)
	ListLandlordContracts(ctx context.Context, landlordID int64) ([]domain.Contract, error)
	ListLandlordMaintenances(ctx context.Context, landlordID int64) ([]domain.Maintenance, error)
}

// Row is one contract on a report.
type Row struct {
	billing.Classified
	RecentPayments []domain.Payment `json:"recent_payments"`
}

// TenantReport summarizes a tenant's contracts.
type TenantReport struct {
	GeneratedAt     time.Time `json:"generated_at"`
	Contracts       []Row     `json:"contracts"`
	ActiveContracts int       `json:"active_contracts"`
	TotalPaid       float64   `json:"total_paid"`
	MonthlyTotal    float64   `json:"monthly_total"`
}

// LandlordReport summarizes a landlord's earnings and maintenance expenses.
type LandlordReport struct {
	GeneratedAt   time.Time            `json:"generated_at"`
	Contracts     []Row                `json:"contracts"`
	Maintenances  []domain.Maintenance `json:"maintenances"`
	TotalEarnings float64              `json:"total_earnings"`
	TotalExpenses float64              `json:"total_expenses"`
	NetBalance    float64              `json:"net_balance"`

	// MaintenancesUnavailable is set when the expense list could not be loaded.
	MaintenancesUnavailable bool `json:"maintenances_unavailable,omitempty"`
}

// Service builds reports.
type Service struct {
	backend Backend
	logger  *zap.Logger
}

// NewService wires the report service.
func NewService(client Backend, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{backend: client, logger: logger}
}

// TenantReport classifies the tenant's contracts at now, most urgent first.
func (s *Service) TenantReport(ctx context.Context, tenantID int64, now time.Time) (*TenantReport, error) {
	contracts, err := s.backend.ListTenantContracts(ctx, tenantID)
	if err != nil {
		return nil, apperrors.NewFetchError("contracts", err)
	}
	rows := BuildRows(contracts, now, s.logger)
	return &TenantReport{
		GeneratedAt:     now,
		Contracts:       rows,
		ActiveContracts: billing.ActiveCount(contracts),
		TotalPaid:       billing.TotalPaid(contracts),
		MonthlyTotal:    billing.ActiveMonthlyTotal(contracts),
	}, nil
}

// LandlordReport classifies the landlord's contracts and adds maintenance
// expenses. Maintenances are optional: a failure to load them yields an
// empty list and a warning, unless the session itself was rejected.
func (s *Service) LandlordReport(ctx context.Context, landlordID int64, now time.Time) (*LandlordReport, error) {
	contracts, err := s.backend.ListLandlordContracts(ctx, landlordID)
	if err != nil {
		return nil, apperrors.NewFetchError("contracts", err)
	}
	rows := BuildRows(contracts, now, s.logger)

	report := &LandlordReport{GeneratedAt: now, Contracts: rows, Maintenances: []domain.Maintenance{}}
	maintenances, err := s.backend.ListLandlordMaintenances(ctx, landlordID)
	switch {
	case err == nil:
		report.Maintenances = maintenances
	case apperrors.IsAuth(err):
		return nil, err
	default:
		s.logger.Warn("maintenances unavailable, reporting no expenses",
			zap.Int64("landlord_id", landlordID),
			zap.Bool("endpoint_missing", errors.Is(err, backend.ErrMaintenancesUnavailable)),
			zap.Error(err),
		)
		report.MaintenancesUnavailable = true
	}

	report.TotalEarnings = billing.TotalPaid(contracts)
	report.TotalExpenses = billing.MaintenanceExpenses(report.Maintenances)
	report.NetBalance = report.TotalEarnings - report.TotalExpenses
	return report, nil
}

// BuildRows classifies contracts at now, most urgent first, with their
// latest payments. Contracts that cannot be classified are kept and logged.
func BuildRows(contracts []domain.Contract, now time.Time, logger *zap.Logger) []Row {
	classified := billing.ClassifyAll(contracts, now)
	billing.SortByUrgency(classified)
	rows := make([]Row, 0, len(classified))
	for _, c := range classified {
		if c.Err != nil && logger != nil {
			logger.Warn("contract left unclassified", zap.Int64("contract_id", c.Contract.ID), zap.Error(c.Err))
		}
		rows = append(rows, Row{Classified: c, RecentPayments: billing.LatestPayments(c.Contract, RecentPaymentsShown)})
	}
	return rows
}
