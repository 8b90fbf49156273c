package httpapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sudo-init-do/timebank/internal/timebank"
)

func newTestHandler() *Handler {
	return NewHandler(timebank.New(timebank.NewMemoryStore()))
}

// do runs one handler as an authenticated request and returns the recorder.
func do(t *testing.T, h echo.HandlerFunc, method, target, accountID, role, body string, params map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("{}")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("account_id", accountID)
	c.Set("role", role)
	for name, value := range params {
		c.SetParamNames(name)
		c.SetParamValues(value)
	}
	require.NoError(t, h(c))
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	out := map[string]any{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRegisterGrantsStartingBalance(t *testing.T) {
	h := newTestHandler()

	rec := do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member",
		`{"name":"Alice","bio":"gardener"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "Alice", body["name"])
	assert.EqualValues(t, 60, body["time_balance"])
}

func TestRegisterRejectsMissingName(t *testing.T) {
	h := newTestHandler()

	rec := do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member",
		`{"bio":"no name"}`, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDuplicateRegistrationMapsToConflict(t *testing.T) {
	h := newTestHandler()

	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member",
		`{"name":"Alice"}`, nil)
	rec := do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member",
		`{"name":"Alice"}`, nil)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(timebank.CodeAlreadyExists), decode(t, rec)["code"])
}

func TestAddSkillRequiresAdmin(t *testing.T) {
	h := newTestHandler()
	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member",
		`{"name":"Alice"}`, nil)

	rec := do(t, h.AddSkill, http.MethodPost, "/admin/skills", "acct-alice", "member",
		`{"name":"Gardening"}`, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(timebank.CodeNotAuthorized), decode(t, rec)["code"])
}

func TestServiceLifecycleOverHTTP(t *testing.T) {
	h := newTestHandler()

	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member", `{"name":"Alice"}`, nil)
	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-bob", "member", `{"name":"Bob"}`, nil)

	rec := do(t, h.AddSkill, http.MethodPost, "/admin/skills", "acct-deployer", "admin",
		`{"name":"Gardening","group":"outdoors"}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h.RegisterProvider, http.MethodPost, "/timebank/skills/1/providers", "acct-alice", "member",
		`{"experience_level":"expert"}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h.RequestService, http.MethodPost, "/timebank/services", "acct-bob", "member",
		`{"provider_id":1,"skill_id":1,"description":"hedges","estimated_minutes":30}`, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = do(t, h.StartService, http.MethodPost, "/timebank/services/1/start", "acct-alice", "member",
		"", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.CompleteService, http.MethodPost, "/timebank/services/1/complete", "acct-alice", "member",
		`{"actual_minutes":45}`, map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.VerifyService, http.MethodPost, "/timebank/services/1/verify", "acct-bob", "member",
		"", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(t, h.Balance, http.MethodGet, "/timebank/members/1/balance", "acct-alice", "member",
		"", map[string]string{"id": "1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 105, decode(t, rec)["time_balance"])
}

func TestStartByReceiverMapsToForbidden(t *testing.T) {
	h := newTestHandler()

	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-alice", "member", `{"name":"Alice"}`, nil)
	do(t, h.Register, http.MethodPost, "/timebank/register", "acct-bob", "member", `{"name":"Bob"}`, nil)
	do(t, h.AddSkill, http.MethodPost, "/admin/skills", "acct-deployer", "admin", `{"name":"Gardening"}`, nil)
	do(t, h.RegisterProvider, http.MethodPost, "/timebank/skills/1/providers", "acct-alice", "member",
		"", map[string]string{"id": "1"})
	do(t, h.RequestService, http.MethodPost, "/timebank/services", "acct-bob", "member",
		`{"provider_id":1,"skill_id":1,"estimated_minutes":30}`, nil)

	rec := do(t, h.StartService, http.MethodPost, "/timebank/services/1/start", "acct-bob", "member",
		"", map[string]string{"id": "1"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, string(timebank.CodeNotServiceProvider), decode(t, rec)["code"])
}

func TestGetMissingServiceMapsToNotFound(t *testing.T) {
	h := newTestHandler()

	rec := do(t, h.GetService, http.MethodGet, "/timebank/services/99", "acct-alice", "member",
		"", map[string]string{"id": "99"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBadIDParamRejectedBeforeEngine(t *testing.T) {
	h := newTestHandler()

	rec := do(t, h.GetService, http.MethodGet, "/timebank/services/abc", "acct-alice", "member",
		"", map[string]string{"id": "abc"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
