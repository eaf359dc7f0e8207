package reports

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spec-kit/rental-portal/internal/backend"
	"github.com/spec-kit/rental-portal/internal/billing"
	"github.com/spec-kit/rental-portal/internal/domain"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

type stubBackend struct {
	contracts       []domain.Contract
	contractsErr    error
	maintenances    []domain.Maintenance
	maintenancesErr error
}

func (s stubBackend) ListTenantContracts(context.Context, int64) ([]domain.Contract, error) {
	return s.contracts, s.contractsErr
}

func (s stubBackend) ListLandlordContracts(context.Context, int64) ([]domain.Contract, error) {
	return s.contracts, s.contractsErr
}

func (s stubBackend) ListLandlordMaintenances(context.Context, int64) ([]domain.Maintenance, error) {
	return s.maintenances, s.maintenancesErr
}

var now = time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC)

func sampleContracts() []domain.Contract {
	return []domain.Contract{
		{ID: 1, MonthlyValue: 1000, PaymentDay: 20, Active: true},
		{ID: 2, MonthlyValue: 1200, PaymentDay: 5, Active: true, Payments: []domain.Payment{
			{ID: 10, Value: 1200, CreatedAt: now.AddDate(0, -2, 0)},
			{ID: 11, Value: 1200, CreatedAt: now.AddDate(0, -1, 0)},
		}},
		{ID: 3, MonthlyValue: 900, PaymentDay: 5, Active: false, Payments: []domain.Payment{
			{ID: 12, Value: 900, Tax: 10, CreatedAt: now.AddDate(0, 0, -3)},
		}},
	}
}

func TestTenantReport(t *testing.T) {
	svc := NewService(stubBackend{contracts: sampleContracts()}, nil)

	report, err := svc.TenantReport(context.Background(), 3, now)
	require.NoError(t, err)
	require.Len(t, report.Contracts, 3)

	assert.Equal(t, int64(2), report.Contracts[0].Contract.ID)
	assert.Equal(t, billing.StatusOverdue, report.Contracts[0].Classification.Status)
	assert.Equal(t, billing.StatusUpcomingDistant, report.Contracts[1].Classification.Status)
	assert.Equal(t, billing.StatusPaid, report.Contracts[2].Classification.Status)

	assert.Equal(t, []int64{11, 10}, []int64{report.Contracts[0].RecentPayments[0].ID, report.Contracts[0].RecentPayments[1].ID})
	assert.Equal(t, 2, report.ActiveContracts)
	assert.Equal(t, 3300.0, report.TotalPaid)
	assert.Equal(t, 2200.0, report.MonthlyTotal)
}

func TestTenantReportFetchFailure(t *testing.T) {
	svc := NewService(stubBackend{contractsErr: apperrors.NewTransportError(errors.New("refused"))}, nil)
	_, err := svc.TenantReport(context.Background(), 3, now)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeFetchFailed))

	svc = NewService(stubBackend{contractsErr: apperrors.NewUnauthorized("expired")}, nil)
	_, err = svc.TenantReport(context.Background(), 3, now)
	assert.True(t, apperrors.IsAuth(err))
}

func TestLandlordReport(t *testing.T) {
	svc := NewService(stubBackend{
		contracts:    sampleContracts(),
		maintenances: []domain.Maintenance{{ID: 1, TotalValue: 450}, {ID: 2, TotalValue: 50}},
	}, nil)

	report, err := svc.LandlordReport(context.Background(), 9, now)
	require.NoError(t, err)
	assert.Equal(t, 3300.0, report.TotalEarnings)
	assert.Equal(t, 500.0, report.TotalExpenses)
	assert.Equal(t, 2800.0, report.NetBalance)
	assert.False(t, report.MaintenancesUnavailable)
}

func TestLandlordReportDegradesWithoutMaintenances(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	missing := fmt.Errorf("%w: 404", backend.ErrMaintenancesUnavailable)
	svc := NewService(stubBackend{contracts: sampleContracts(), maintenancesErr: missing}, zap.New(core))

	report, err := svc.LandlordReport(context.Background(), 9, now)
	require.NoError(t, err)
	assert.NotNil(t, report.Maintenances)
	assert.Empty(t, report.Maintenances)
	assert.True(t, report.MaintenancesUnavailable)
	assert.Equal(t, 3300.0, report.NetBalance)
	assert.Equal(t, 1, logs.FilterMessage("maintenances unavailable, reporting no expenses").Len())
}

func TestLandlordReportAuthFailureOnMaintenances(t *testing.T) {
	svc := NewService(stubBackend{contracts: sampleContracts(), maintenancesErr: apperrors.NewUnauthorized("expired")}, nil)
	_, err := svc.LandlordReport(context.Background(), 9, now)
	assert.True(t, apperrors.IsAuth(err))
}

func TestReportsKeepGoingPastUnclassifiableContract(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)
	contracts := []domain.Contract{
		{ID: 1, MonthlyValue: 1000, PaymentDay: 5, Active: true, Payments: []domain.Payment{{ID: 7, Value: 1000, CreatedAt: now.AddDate(0, -1, 0)}}},
		{ID: 2, MonthlyValue: 800, Active: true},
	}
	svc := NewService(stubBackend{contracts: contracts}, zap.New(core))

	report, err := svc.TenantReport(context.Background(), 3, now)
	require.NoError(t, err)
	require.Len(t, report.Contracts, 2)
	assert.Equal(t, billing.StatusOverdue, report.Contracts[0].Classification.Status)
	assert.Equal(t, int64(2), report.Contracts[1].Contract.ID)
	assert.Equal(t, billing.StatusUnclassifiable, report.Contracts[1].Classification.Status)
	assert.Equal(t, 1800.0, report.MonthlyTotal)
	assert.Equal(t, 1000.0, report.TotalPaid)

	warned := logs.FilterMessage("contract left unclassified").All()
	require.Len(t, warned, 1)
	assert.Equal(t, int64(2), warned[0].ContextMap()["contract_id"])

	landlord, err := svc.LandlordReport(context.Background(), 9, now)
	require.NoError(t, err)
	assert.Len(t, landlord.Contracts, 2)
	assert.Equal(t, 1000.0, landlord.TotalEarnings)
}
