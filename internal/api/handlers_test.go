package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"example.com/gym/internal/auth"
	"example.com/gym/internal/domain"
	"example.com/gym/internal/events"
	"example.com/gym/internal/persistence/memory"
)

type fixture struct {
	mux       *http.ServeMux
	repo      *memory.Repository
	published *events.Buffer
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	repo := memory.NewRepository()
	published := &events.Buffer{}
	service := domain.NewService(repo, published, zerolog.Nop())
	mux := http.NewServeMux()
	NewHandler(service).RegisterRoutes(mux)
	return fixture{mux: mux, repo: repo, published: published}
}

func (f fixture) do(t *testing.T, method, target, body string, scopes ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	}
	if scopes != nil {
		set := make(map[string]struct{}, len(scopes))
		for _, s := range scopes {
			set[s] = struct{}{}
		}
		req = req.WithContext(auth.WithClaims(req.Context(), &auth.Claims{
			Subject:   "tester",
			Scopes:    set,
			ExpiresAt: time.Now().Add(time.Hour),
		}))
	}
	rr := httptest.NewRecorder()
	f.mux.ServeHTTP(rr, req)
	return rr
}

func errorType(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body["type"]
}

func TestCreateAndGetMember(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodPost, "/v1/members", `{"id":1,"name":"Snow White","age":19}`, auth.ScopeGymWrite)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/v1/members/1", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var view MemberView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, MemberView{ID: 1, Name: "Snow White", Age: 19}, view)
	require.Equal(t, 1, f.published.Len())
}

func TestCreateMemberDuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	body := `{"id":1,"name":"Snow White","age":19}`

	require.Equal(t, http.StatusCreated, f.do(t, http.MethodPost, "/v1/members", body, auth.ScopeGymWrite).Code)

	rr := f.do(t, http.MethodPost, "/v1/members", body, auth.ScopeGymWrite)
	require.Equal(t, http.StatusConflict, rr.Code)
	require.Equal(t, "already_exists", errorType(t, rr))
}

func TestCreateMemberValidation(t *testing.T) {
	f := newFixture(t)

	for _, body := range []string{
		`{"id":1,"name":"Ann"}`,
		`{"id":1,"name":"","age":3}`,
		`{"id":0,"name":"Ann","age":3}`,
		`{"id":1,"name":"Ann","age":-1}`,
		`not json`,
	} {
		rr := f.do(t, http.MethodPost, "/v1/members", body, auth.ScopeGymWrite)
		require.Equal(t, http.StatusBadRequest, rr.Code, body)
	}
}

func TestUpdateMemberAge(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/members", `{"id":5,"name":"Ann","age":20}`, auth.ScopeGymWrite)

	rr := f.do(t, http.MethodPut, "/v1/members/5/age", `{"age":26}`, auth.ScopeGymWrite)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/v1/members/5", "", auth.ScopeGymRead)
	var view MemberView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, 26, view.Age)

	rr = f.do(t, http.MethodPut, "/v1/members/6/age", `{"age":26}`, auth.ScopeGymWrite)
	require.Equal(t, http.StatusNotFound, rr.Code)
	require.Equal(t, "not_found", errorType(t, rr))
}

func TestMembersInAgeRange(t *testing.T) {
	f := newFixture(t)
	f.do(t, http.MethodPost, "/v1/members", `{"id":1,"name":"Ann","age":20}`, auth.ScopeGymWrite)
	f.do(t, http.MethodPost, "/v1/members", `{"id":2,"name":"Bo","age":27}`, auth.ScopeGymWrite)
	f.do(t, http.MethodPost, "/v1/members", `{"id":3,"name":"Cy","age":30}`, auth.ScopeGymWrite)

	rr := f.do(t, http.MethodGet, "/v1/members?min_age=25&max_age=30", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var resp ListMembersResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Equal(t, []MemberView{{ID: 2, Name: "Bo", Age: 27}, {ID: 3, Name: "Cy", Age: 30}}, resp.Items)

	rr = f.do(t, http.MethodGet, "/v1/members?min_age=40&max_age=50", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusOK, rr.Code)
	require.JSONEq(t, `{"items":[]}`, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/v1/members?min_age=30&max_age=25", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/members?min_age=x&max_age=25", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSessionLifecycle(t *testing.T) {
	f := newFixture(t)
	body := `{"session_id":10,"member_id":2,"session_date":"2024-10-20","session_time":"5:15 AM","activity":"Cardio"}`

	rr := f.do(t, http.MethodPost, "/v1/sessions", body, auth.ScopeGymWrite)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = f.do(t, http.MethodGet, "/v1/sessions/10", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusOK, rr.Code)
	var view SessionView
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &view))
	require.Equal(t, "2024-10-20", view.SessionDate)
	require.Equal(t, int64(2), view.MemberID)

	rr = f.do(t, http.MethodDelete, "/v1/sessions/10", "", auth.ScopeGymWrite)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = f.do(t, http.MethodDelete, "/v1/sessions/10", "", auth.ScopeGymWrite)
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = f.do(t, http.MethodGet, "/v1/sessions/10", "", auth.ScopeGymRead)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestCreateSessionRejectsBadDate(t *testing.T) {
	f := newFixture(t)
	body := `{"session_id":10,"member_id":2,"session_date":"20/10/2024","session_time":"5:15 AM","activity":"Cardio"}`

	rr := f.do(t, http.MethodPost, "/v1/sessions", body, auth.ScopeGymWrite)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	require.Equal(t, 0, f.published.Len())
}

func TestScopes(t *testing.T) {
	f := newFixture(t)

	rr := f.do(t, http.MethodGet, "/v1/members/1", "")
	require.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = f.do(t, http.MethodPost, "/v1/members", `{"id":1,"name":"Ann","age":20}`, auth.ScopeGymRead)
	require.Equal(t, http.StatusForbidden, rr.Code)

	// write implies read
	rr = f.do(t, http.MethodGet, "/v1/members/1", "", auth.ScopeGymWrite)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestRouting(t *testing.T) {
	f := newFixture(t)

	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/members/abc", "", auth.ScopeGymRead).Code)
	require.Equal(t, http.StatusBadRequest, f.do(t, http.MethodGet, "/v1/sessions/", "", auth.ScopeGymRead).Code)
	require.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodDelete, "/v1/members/1", "", auth.ScopeGymWrite).Code)
	require.Equal(t, http.StatusMethodNotAllowed, f.do(t, http.MethodGet, "/v1/sessions", "", auth.ScopeGymRead).Code)
	require.Equal(t, http.StatusNotFound, f.do(t, http.MethodGet, "/v1/members/1/unknown", "", auth.ScopeGymRead).Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodGet, "/healthz", "").Code)
}
