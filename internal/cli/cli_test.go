package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/rental-portal/internal/config"
	"github.com/spec-kit/rental-portal/internal/tickets"
	apperrors "github.com/spec-kit/rental-portal/pkg/util/errorutil"
)

type fakeAPI struct {
	mu      sync.Mutex
	status  string
	updates []map[string]any
}

func (f *fakeAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")

	switch {
	case r.URL.Path == "/auth/signIn":
		var creds map[string]string
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds["password"] != "secret1" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"invalid credentials"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"accessToken": "token-1",
			"user":        map[string]any{"id": 9, "name": "Ana", "lastName": "Lima", "email": creds["email"], "type": "landlord"},
		})
	case r.URL.Path == "/auth/signup":
		var form map[string]string
		_ = json.NewDecoder(r.Body).Decode(&form)
		_ = json.NewEncoder(w).Encode(map[string]any{"id": 30, "email": form["email"], "type": form["type"]})
	case r.Header.Get("Authorization") != "Bearer token-1":
		w.WriteHeader(http.StatusUnauthorized)
	case r.URL.Path == "/api/tickets/property/4/9":
		_ = json.NewEncoder(w).Encode([]map[string]any{
			{"id": 2, "description": "broken door", "status": f.status},
		})
	case r.Method == http.MethodPut && r.URL.Path == "/api/tickets/2/status":
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.updates = append(f.updates, body)
		f.status = body["status"].(string)
	case r.URL.Path == "/api/landlords/9/contracts":
		_, _ = w.Write([]byte(`[
			{"id":1,"monthly_value":1000,"payment_day":20,"active":true,"payments":[]},
			{"id":2,"monthly_value":1200,"payment_day":5,"active":true,"payments":[]}
		]`))
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func testConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	return &config.Config{
		Backend: config.BackendConfig{BaseURL: baseURL, TimeoutSeconds: 2},
		Session: config.SessionConfig{
			Store:    config.StoreMemory,
			TokenTTL: time.Hour,
			FilePath: filepath.Join(t.TempDir(), "session.json"),
		},
	}
}

type runner struct {
	t   *testing.T
	cfg *config.Config
	api *fakeAPI
}

func newRunner(t *testing.T) *runner {
	api := &fakeAPI{status: "PROGRESS"}
	srv := httptest.NewServer(api)
	t.Cleanup(srv.Close)
	return &runner{t: t, cfg: testConfig(t, srv.URL), api: api}
}

// run executes one portalctl invocation with a fresh Env, the way separate processes would.
func (r *runner) run(stdin string, args ...string) (string, error) {
	r.t.Helper()
	var out bytes.Buffer
	env, err := NewEnv(r.cfg, zap.NewNop(), strings.NewReader(stdin), &out)
	require.NoError(r.t, err)
	defer env.Close()
	env.Now = func() time.Time { return time.Date(2024, time.May, 10, 9, 0, 0, 0, time.UTC) }

	root := NewRootCmd(env)
	root.SetArgs(args)
	err = root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLoginPersistsAcrossInvocations(t *testing.T) {
	r := newRunner(t)

	out, err := r.run("secret1\n", "login", "--email", "ana@example.com")
	require.NoError(t, err)
	assert.Contains(t, out, "Signed in as ana@example.com (LANDLORD)")

	out, err = r.run("", "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "#9 Ana Lima <ana@example.com> LANDLORD")

	_, err = r.run("", "logout")
	require.NoError(t, err)

	_, err = r.run("", "whoami")
	assert.True(t, apperrors.IsAuth(err))
}

func TestLoginRejected(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "wrong12")
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeBackendRejected))
	assert.Equal(t, "invalid credentials", apperrors.UserMessage(err, ""))
}

func TestSignUpDoesNotSignIn(t *testing.T) {
	r := newRunner(t)
	out, err := r.run("secret1\n", "signup",
		"--name", "Bia Costa", "--cpf", "12345678901", "--email", "bia@example.com",
		"--phone", "11987654321", "--type", "tenant")
	require.NoError(t, err)
	assert.Contains(t, out, "Created account #30 for bia@example.com (TENANT)")

	_, err = r.run("", "whoami")
	assert.True(t, apperrors.IsAuth(err))

	_, err = r.run("", "signup",
		"--name", "Bia Costa", "--cpf", "123", "--email", "bia@example.com",
		"--phone", "11987654321", "--type", "TENANT", "--password", "secret1")
	assert.True(t, apperrors.IsValidation(err))
}

func TestAdvanceToFinishedPromptsForCost(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := r.run("450,00\n", "tickets", "advance", "--property", "4", "--ticket", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Total cost for ticket #2 (broken door): ")
	assert.Contains(t, out, "Ticket #2 is now FINISHED.")

	require.Len(t, r.api.updates, 1)
	assert.Equal(t, 450.0, r.api.updates[0]["total_value"])
	assert.Equal(t, "ana@example.com", r.api.updates[0]["email"])
}

func TestAdvanceCancelledPromptSendsNothing(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, err = r.run("", "tickets", "advance", "--property", "4", "--ticket", "2")
	assert.ErrorIs(t, err, tickets.ErrPromptCancelled)

	_, err = r.run("abc\n", "tickets", "advance", "--property", "4", "--ticket", "2")
	assert.True(t, apperrors.IsValidation(err))
	assert.Empty(t, r.api.updates)
}

func TestAdvanceWithCostFlag(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, err = r.run("", "tickets", "advance", "--property", "4", "--ticket", "2", "--cost", "99.5")
	require.NoError(t, err)
	require.Len(t, r.api.updates, 1)
	assert.Equal(t, 99.5, r.api.updates[0]["total_value"])

	_, err = r.run("", "tickets", "advance", "--property", "4", "--ticket", "2")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeTransitionRejected))
}

func TestContractsListMostUrgentFirst(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	out, err := r.run("", "contracts", "list")
	require.NoError(t, err)
	overdue := strings.Index(out, "Overdue by 5 days")
	upcoming := strings.Index(out, "Due in 10 days")
	require.NotEqual(t, -1, overdue, out)
	require.NotEqual(t, -1, upcoming, out)
	assert.Less(t, overdue, upcoming)
}

func TestTenantOnlyCommandRefusesLandlord(t *testing.T) {
	r := newRunner(t)
	_, err := r.run("", "login", "--email", "ana@example.com", "--password", "secret1")
	require.NoError(t, err)

	_, err = r.run("", "tickets", "create", "--property", "4", "--description", "leak")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))
}
