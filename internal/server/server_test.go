package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/choppr/choppr/internal/auth"
	"github.com/choppr/choppr/internal/login"
	"github.com/choppr/choppr/internal/onboarding"
	"github.com/choppr/choppr/internal/store/memory"
)

type apiFixture struct {
	mux     *http.ServeMux
	manager *login.Manager
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	users := memory.NewUserStore()
	sessions := memory.NewSessionStore()
	orgs := memory.NewOrganizationStore()
	frameworks := memory.NewFrameworkStore()
	canvasStore := memory.NewCanvasStore()

	magic, err := auth.NewMagicLink(bytes.Repeat([]byte("s"), 32), 15*time.Minute)
	require.NoError(t, err)

	manager, err := login.NewManager(login.Stores{Users: users, Sessions: sessions}, magic, time.Hour, "http://localhost:8080")
	require.NoError(t, err)

	svc := onboarding.NewService(orgs, frameworks, canvasStore)
	handlers := NewHandlers(svc, orgs, frameworks, canvasStore)

	mux := http.NewServeMux()
	mux.Handle("POST /api/v1/orgs", manager.RequireSession(http.HandlerFunc(handlers.CreateOrganizationHandler)))
	mux.Handle("PUT /api/v1/orgs/{org_id}/frameworks", manager.RequireSession(http.HandlerFunc(handlers.ReplaceFrameworksHandler)))
	mux.Handle("POST /api/v1/orgs/{org_id}/processes", manager.RequireSession(http.HandlerFunc(handlers.SeedProcessesHandler)))
	mux.Handle("GET /api/v1/frameworks", manager.RequireSession(http.HandlerFunc(handlers.ListFrameworksHandler)))
	mux.Handle("GET /api/v1/catalog/processes", manager.RequireSession(http.HandlerFunc(handlers.ListCatalogHandler)))
	mux.Handle("GET /api/v1/canvas", manager.RequireSession(http.HandlerFunc(handlers.CanvasHandler)))
	mux.Handle("PATCH /api/v1/processes/{process_id}/position", manager.RequireSession(http.HandlerFunc(handlers.UpdatePositionHandler)))
	mux.Handle("PATCH /api/v1/processes/{process_id}", manager.RequireSession(http.HandlerFunc(handlers.UpdateProcessHandler)))
	mux.Handle("POST /api/v1/relationships", manager.RequireSession(http.HandlerFunc(handlers.CreateRelationshipHandler)))

	return &apiFixture{mux: mux, manager: manager}
}

func (f *apiFixture) signup(t *testing.T, email string) *http.Cookie {
	t.Helper()

	body := `{"email":"` + email + `","password":"correct-horse"}`
	r := httptest.NewRequest(http.MethodPost, "/auth/signup", strings.NewReader(body))
	w := httptest.NewRecorder()
	f.manager.SignupHandler(w, r)
	require.Equal(t, http.StatusCreated, w.Code)

	for _, c := range w.Result().Cookies() {
		if c.Name == "_session" {
			return c
		}
	}
	t.Fatal("no session cookie set")
	return nil
}

func (f *apiFixture) do(t *testing.T, cookie *http.Cookie, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	r := httptest.NewRequest(method, path, reader)
	if cookie != nil {
		r.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	f.mux.ServeHTTP(w, r)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(w.Body).Decode(&v))
	return v
}

// onboard walks a fresh user through all three onboarding steps and returns
// the seeded process IDs keyed by catalog key.
func (f *apiFixture) onboard(t *testing.T, cookie *http.Cookie, keys []string) (orgID string, processIDs map[string]processResponse) {
	t.Helper()

	w := f.do(t, cookie, http.MethodPost, "/api/v1/orgs", `{"name":"Acme","size_bucket":"50-250"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	org := decode[organizationResponse](t, w)

	w = f.do(t, cookie, http.MethodGet, "/api/v1/frameworks", "")
	require.Equal(t, http.StatusOK, w.Code)
	catalog := decode[struct {
		Frameworks []frameworkResponse `json:"frameworks"`
	}](t, w)
	require.NotEmpty(t, catalog.Frameworks)

	fwBody, _ := json.Marshal(map[string][]string{"framework_ids": {catalog.Frameworks[0].FrameworkID}})
	w = f.do(t, cookie, http.MethodPut, "/api/v1/orgs/"+org.OrgID+"/frameworks", string(fwBody))
	require.Equal(t, http.StatusOK, w.Code)

	keysBody, _ := json.Marshal(map[string][]string{"keys": keys})
	w = f.do(t, cookie, http.MethodPost, "/api/v1/orgs/"+org.OrgID+"/processes", string(keysBody))
	require.Equal(t, http.StatusCreated, w.Code)
	seeded := decode[struct {
		Processes []processResponse `json:"processes"`
	}](t, w)

	processIDs = make(map[string]processResponse, len(seeded.Processes))
	for _, p := range seeded.Processes {
		processIDs[p.Key] = p
	}
	return org.OrgID, processIDs
}

func TestAPIRequiresSession(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, nil, http.MethodGet, "/api/v1/canvas", "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestOnboardingFlow(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")

	_, processes := f.onboard(t, cookie, []string{"S2P.01", "DSS01", "DSS02"})
	require.Len(t, processes, 3)

	// seeded layout: one column per value stream, stacked rows within it
	require.Equal(t, 0, processes["S2P.01"].X)
	require.Equal(t, 600, processes["DSS01"].X)
	require.Equal(t, 0, processes["DSS01"].Y)
	require.Equal(t, 120, processes["DSS02"].Y)
}

func TestCreateOrganizationValidation(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")

	w := f.do(t, cookie, http.MethodPost, "/api/v1/orgs", `{"name":"   "}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, cookie, http.MethodPost, "/api/v1/orgs", `{"name":"Acme","size_bucket":"huge"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestReplaceFrameworksRejectsNonMember(t *testing.T) {
	f := newAPIFixture(t)
	owner := f.signup(t, "alice@example.com")
	outsider := f.signup(t, "bob@example.com")

	orgID, _ := f.onboard(t, owner, []string{"S2P.01"})

	w := f.do(t, outsider, http.MethodPut, "/api/v1/orgs/"+orgID+"/frameworks", `{"framework_ids":[]}`)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCanvasWithoutOrganization(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")

	w := f.do(t, cookie, http.MethodGet, "/api/v1/canvas", "")
	require.Equal(t, http.StatusNotFound, w.Code)
	require.Contains(t, w.Body.String(), "no organization")
}

func TestCanvasLoad(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")
	f.onboard(t, cookie, []string{"S2P.01", "R2D.01"})

	w := f.do(t, cookie, http.MethodGet, "/api/v1/canvas", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[canvasResponse](t, w)
	require.Len(t, resp.Nodes, 2)
	require.Empty(t, resp.Edges)

	for _, n := range resp.Nodes {
		require.Equal(t, "processNode", n.Type)
		require.NotEmpty(t, n.Data.Color)
	}
}

func TestUpdatePositionRoundsFloats(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")
	_, processes := f.onboard(t, cookie, []string{"S2P.01"})

	id := processes["S2P.01"].ProcessID
	w := f.do(t, cookie, http.MethodPatch, "/api/v1/processes/"+id+"/position", `{"x":150.4,"y":219.6}`)
	require.Equal(t, http.StatusOK, w.Code)

	moved := decode[processResponse](t, w)
	require.Equal(t, 150, moved.X)
	require.Equal(t, 220, moved.Y)
}

func TestUpdatePositionCrossOrgFails(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.signup(t, "alice@example.com")
	bob := f.signup(t, "bob@example.com")

	_, aliceProcs := f.onboard(t, alice, []string{"S2P.01"})
	f.onboard(t, bob, []string{"R2D.01"})

	// bob cannot move alice's process even with a valid ID
	id := aliceProcs["S2P.01"].ProcessID
	w := f.do(t, bob, http.MethodPatch, "/api/v1/processes/"+id+"/position", `{"x":0,"y":0}`)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateProcessDetails(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")
	_, processes := f.onboard(t, cookie, []string{"S2P.01"})

	id := processes["S2P.01"].ProcessID
	w := f.do(t, cookie, http.MethodPatch, "/api/v1/processes/"+id,
		`{"key":"S2P.02","name":"Portfolio Review","value_stream":"Strategy2Portfolio"}`)
	require.Equal(t, http.StatusOK, w.Code)

	updated := decode[processResponse](t, w)
	require.Equal(t, "S2P.02", updated.Key)
	require.Equal(t, "Portfolio Review", updated.Name)

	w = f.do(t, cookie, http.MethodPatch, "/api/v1/processes/"+id, `{"key":"X","name":"","value_stream":"Detect2Correct"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreateRelationship(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")
	_, processes := f.onboard(t, cookie, []string{"S2P.01", "R2D.01"})

	body, _ := json.Marshal(map[string]any{
		"from_process": processes["S2P.01"].ProcessID,
		"to_process":   processes["R2D.01"].ProcessID,
		"label":        "feeds",
	})
	w := f.do(t, cookie, http.MethodPost, "/api/v1/relationships", string(body))
	require.Equal(t, http.StatusCreated, w.Code)

	rel := decode[relationshipResponse](t, w)
	require.NotEmpty(t, rel.RelationshipID)
	require.NotNil(t, rel.Label)
	require.Equal(t, "feeds", *rel.Label)

	// the edge comes back on the next canvas load
	w = f.do(t, cookie, http.MethodGet, "/api/v1/canvas", "")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[canvasResponse](t, w)
	require.Len(t, resp.Edges, 1)
	require.Equal(t, "smoothstep", resp.Edges[0].Type)
	require.Equal(t, "feeds", resp.Edges[0].Label)
}

func TestCreateRelationshipCrossOrgEndpointFails(t *testing.T) {
	f := newAPIFixture(t)
	alice := f.signup(t, "alice@example.com")
	bob := f.signup(t, "bob@example.com")

	_, aliceProcs := f.onboard(t, alice, []string{"S2P.01"})
	_, bobProcs := f.onboard(t, bob, []string{"R2D.01"})

	body, _ := json.Marshal(map[string]any{
		"from_process": aliceProcs["S2P.01"].ProcessID,
		"to_process":   bobProcs["R2D.01"].ProcessID,
	})
	w := f.do(t, alice, http.MethodPost, "/api/v1/relationships", string(body))
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestListCatalog(t *testing.T) {
	f := newAPIFixture(t)
	cookie := f.signup(t, "alice@example.com")

	w := f.do(t, cookie, http.MethodGet, "/api/v1/catalog/processes", "")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decode[struct {
		Processes []starterProcessResponse `json:"processes"`
	}](t, w)
	require.NotEmpty(t, resp.Processes)
	require.Equal(t, "S2P.01", resp.Processes[0].Key)
}
