package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/domain"
	"github.com/spec-kit/rental-portal/internal/observability"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

type fakeSession struct {
	token      string
	err        error
	terminated atomic.Int32
}

func (f *fakeSession) Token(context.Context) (string, error) { return f.token, f.err }
func (f *fakeSession) Terminate(context.Context) { f.terminated.Add(1) }

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *fakeSession, *observability.Metrics) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	metrics := observability.NewMetrics()
	sess := &fakeSession{token: "tok-1"}
	return New(srv.URL+"/", time.Second, metrics, zap.NewNop()).WithSession(sess), sess, metrics
}

func TestListTicketsAttachesBearerToken(t *testing.T) {
	client, _, metrics := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/tickets/property/4/9", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`[{"id":2,"description":"leak","status":"PROGRESS","created_at":"2024-03-01T10:00:00Z"}]`))
	})

	tickets, err := client.ListTickets(context.Background(), 4, 9)
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	assert.Equal(t, domain.TicketStatusInProgress, tickets[0].Status)
	assert.Equal(t, int64(1), metrics.Snapshot().BackendCalls["list_tickets|200"])
}

func TestListTicketsEmptyIsNotAnError(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	})

	tickets, err := client.ListTickets(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.NotNil(t, tickets)
	assert.Empty(t, tickets)
}

func TestUnauthorizedTearsSessionDown(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client, sess, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		})

		_, err := client.ListTenantContracts(context.Background(), 3)
		assert.True(t, apperrors.IsAuth(err), "status %d", status)
		assert.Equal(t, int32(1), sess.terminated.Load())
	}
}

func TestRejectionMessageExtraction(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"message":"Ticket already finished"}`, "Ticket already finished"},
		{`{"message":["value must be positive","tax must not be negative"]}`, "value must be positive; tax must not be negative"},
		{`{"error":"Bad Request"}`, "Bad Request"},
		{`<html>oops</html>`, DefaultRejectionMessage},
		{``, DefaultRejectionMessage},
	}
	for _, tc := range cases {
		client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(tc.body))
		})

		err := client.DeactivateContract(context.Background(), 5)
		require.Error(t, err)
		de := apperrors.ToDomainError(err)
		assert.Equal(t, apperrors.CodeBackendRejected, de.Code)
		assert.Equal(t, tc.want, de.Message)
		assert.Equal(t, http.StatusBadRequest, de.Details["backend_status"])
	}
}

func TestTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	metrics := observability.NewMetrics()
	client := New(url, time.Second, metrics, nil).WithSession(&fakeSession{token: "t"})
	_, err := client.ListLandlordContracts(context.Background(), 1)
	assert.True(t, apperrors.IsTransport(err))
	assert.Equal(t, apperrors.DefaultTransportMessage, apperrors.UserMessage(err, ""))
	assert.Equal(t, int64(1), metrics.Snapshot().BackendCalls["list_landlord_contracts|0"])
}

func TestUnboundClientRefusesAuthenticatedCalls(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { hits.Add(1) }))
	defer srv.Close()

	_, err := New(srv.URL, 0, nil, nil).ListLandlordProperties(context.Background(), 1)
	assert.True(t, apperrors.IsAuth(err))
	assert.Zero(t, hits.Load())
}

func TestUpdateTicketStatusBody(t *testing.T) {
	var got map[string]any
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tickets/12/status", r.URL.Path)
		got = nil
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
	})

	cost := 450.0
	err := client.UpdateTicketStatus(context.Background(), 12, StatusUpdate{
		Status:     domain.TicketStatusFinished,
		TotalValue: &cost,
		Email:      "landlord@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"status": "FINISHED", "total_value": 450.0, "email": "landlord@example.com"}, got)

	err = client.UpdateTicketStatus(context.Background(), 12, StatusUpdate{Status: domain.TicketStatusInProgress, Email: "a@b.c"})
	require.NoError(t, err)
	assert.Equal(t, "PROGRESS", got["status"])
	assert.NotContains(t, got, "total_value")
}

func TestFormValidationNeverReachesBackend(t *testing.T) {
	var hits atomic.Int32
	client, _, _ := newTestClient(t, func(http.ResponseWriter, *http.Request) { hits.Add(1) })
	ctx := context.Background()

	valid := NewContract{PropertyID: 1, TenantEmail: "t@x.com", MonthlyValue: 1000, Deposit: 0, Duration: 12, PaymentDay: 5}
	require.NoError(t, valid.Validate())

	invalid := map[string]NewContract{
		"property_id":   {TenantEmail: "t@x.com", MonthlyValue: 1, Duration: 1, PaymentDay: 1},
		"tenantEmail":   {PropertyID: 1, MonthlyValue: 1, Duration: 1, PaymentDay: 1},
		"monthly_value": {PropertyID: 1, TenantEmail: "t@x.com", Duration: 1, PaymentDay: 1},
		"deposit":       {PropertyID: 1, TenantEmail: "t@x.com", MonthlyValue: 1, Deposit: -1, Duration: 1, PaymentDay: 1},
		"duration":      {PropertyID: 1, TenantEmail: "t@x.com", MonthlyValue: 1, PaymentDay: 1},
		"payment_day":   {PropertyID: 1, TenantEmail: "t@x.com", MonthlyValue: 1, Duration: 1, PaymentDay: 29},
	}
	for field, form := range invalid {
		err := client.CreateContract(ctx, form)
		require.True(t, apperrors.IsValidation(err), field)
		assert.Equal(t, field, apperrors.ToDomainError(err).Details["field"])
	}

	assert.True(t, apperrors.IsValidation(client.RegisterPayment(ctx, NewPayment{ContractID: 1, Value: 0})))
	assert.True(t, apperrors.IsValidation(client.RegisterPayment(ctx, NewPayment{ContractID: 1, Value: 10, Tax: -1})))
	assert.True(t, apperrors.IsValidation(client.CreateTicket(ctx, NewTicket{PropertyID: 1, Description: "  ", TenantEmail: "t@x.com"})))
	_, err := client.SignIn(ctx, Credentials{Email: "a@b.c", Password: "12345"})
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, hits.Load())
}

func TestSignInIsAnonymous(t *testing.T) {
	client, sess, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/auth/signIn", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var creds Credentials
		require.NoError(t, json.NewDecoder(r.Body).Decode(&creds))
		if creds.Password != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Invalid credentials"}`))
			return
		}
		_, _ = w.Write([]byte(`{"accessToken":"jwt","user":{"id":3,"email":"a@b.c","type":"landlord"}}`))
	})
	ctx := context.Background()

	res, err := client.SignIn(ctx, Credentials{Email: " a@b.c ", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, "jwt", res.AccessToken)
	assert.True(t, res.User.IsLandlord())

	_, err = client.SignIn(ctx, Credentials{Email: "a@b.c", Password: "wrong-pass"})
	assert.Equal(t, "Invalid credentials", apperrors.UserMessage(err, ""))
	assert.False(t, apperrors.IsAuth(err))
	assert.Zero(t, sess.terminated.Load())
}

func TestSignUpSendsSplitNameAndBareDigits(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/signup", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]string{
			"name":     "Ana",
			"lastName": "Maria Souza",
			"cpf":      "12345678901",
			"phone":    "11987654321",
			"type":     "TENANT",
			"email":    "ana@example.com",
			"password": "secret1",
		}, body)
		_, _ = w.Write([]byte(`{"id":12,"name":"Ana","email":"ana@example.com","type":"tenant"}`))
	})

	user, err := client.SignUp(context.Background(), SignUpForm{
		FullName: "Ana Maria Souza",
		CPF:      "123.456.789-01",
		Email:    " ana@example.com ",
		Password: "secret1",
		Phone:    "(11) 98765-4321",
		Type:     "tenant",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), user.ID)
	assert.True(t, user.IsTenant())
}

func TestSignUpValidatesBeforeCalling(t *testing.T) {
	var hits atomic.Int32
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	valid := SignUpForm{FullName: "Ana Souza", CPF: "12345678901", Email: "ana@example.com", Password: "secret1", Phone: "1198765432", Type: domain.UserTypeLandlord}
	require.NoError(t, valid.Validate())

	invalid := map[string]func(f *SignUpForm){
		"full_name": func(f *SignUpForm) { f.FullName = " A " },
		"cpf":       func(f *SignUpForm) { f.CPF = "123.456.789" },
		"email":     func(f *SignUpForm) { f.Email = "ana" },
		"password":  func(f *SignUpForm) { f.Password = strings.Repeat("x", 51) },
		"phone":     func(f *SignUpForm) { f.Phone = "98765-4321" },
		"type":      func(f *SignUpForm) { f.Type = "ADMIN" },
	}
	for field, mutate := range invalid {
		form := valid
		mutate(&form)
		_, err := client.SignUp(context.Background(), form)
		require.True(t, apperrors.IsValidation(err), field)
		assert.Equal(t, field, apperrors.ToDomainError(err).Details["field"])
	}
	assert.Zero(t, hits.Load())
}

func TestMaintenancesUnavailable(t *testing.T) {
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.ListLandlordMaintenances(context.Background(), 1)
	assert.True(t, errors.Is(err, ErrMaintenancesUnavailable))
}

func TestCreateRequestsUseBackendFieldNames(t *testing.T) {
	bodies := map[string]map[string]any{}
	client, _, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		bodies[r.URL.Path] = body
		w.WriteHeader(http.StatusCreated)
	})
	ctx := context.Background()

	require.NoError(t, client.CreateTicket(ctx, NewTicket{PropertyID: 4, Description: "door", Urgent: true, TenantEmail: "t@x.com"}))
	require.NoError(t, client.RegisterPayment(ctx, NewPayment{ContractID: 8, Value: 1200, Tax: 15}))

	assert.Equal(t, map[string]any{"property_id": 4.0, "description": "door", "urgent": true, "tenantEmail": "t@x.com"}, bodies["/api/tickets/"])
	assert.Equal(t, map[string]any{"contractId": 8.0, "value": 1200.0, "tax": 15.0}, bodies["/api/payment"])
}
