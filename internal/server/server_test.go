package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/matryer/is"

	"regform/internal/config"
	"regform/internal/models"
	"regform/internal/registration"
	"regform/internal/store/xlsx"
)

type harness struct {
	ts     *httptest.Server
	client *http.Client
	store  *xlsx.Store
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	st, err := xlsx.Open(filepath.Join(t.TempDir(), "participants.xlsx"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	logger := log.New(io.Discard)
	svc := registration.NewService(st, registration.NewValidator(4), logger)
	cfg := config.Config{EventName: "Hack4Bengal Season 4", SessionCacheSize: 16}
	h, err := NewHandler(cfg, svc, logger)
	if err != nil {
		t.Fatalf("handler: %v", err)
	}
	ts := httptest.NewServer(h)
	t.Cleanup(ts.Close)

	jar, _ := cookiejar.New(nil)
	return &harness{ts: ts, client: &http.Client{Jar: jar}, store: st}
}

func (h *harness) get(t *testing.T, path string) (int, string) {
	t.Helper()
	resp, err := h.client.Get(h.ts.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func (h *harness) post(t *testing.T, path string, form url.Values) (int, string) {
	t.Helper()
	resp, err := h.client.PostForm(h.ts.URL+path, form)
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func submission(email, phone, action, team string) url.Values {
	return url.Values{
		"name":      {"Ann"},
		"email":     {email},
		"phone":     {phone},
		"action":    {action},
		"team_name": {team},
		"github":    {"github.com/ann"},
	}
}

func TestFormRendersDefaults(t *testing.T) {
	is := is.New(t)
	h := newHarness(t)

	code, body := h.get(t, "/")
	is.Equal(code, http.StatusOK)
	is.True(strings.Contains(body, "Hack4Bengal Season 4 Registration"))
	is.True(strings.Contains(body, `value="CreateTeam" checked`))
	is.True(strings.Contains(body, `name="team_name"`))
}

func TestSubmitThenNewEntry(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	h := newHarness(t)

	code, body := h.post(t, "/", submission("ann@example.com", "111", "CreateTeam", "Falcons99"))
	is.Equal(code, http.StatusOK)
	is.True(strings.Contains(body, "registered successfully for Hack4Bengal Season 4 for Team Falcons99"))
	is.True(!strings.Contains(body, `name="team_name"`)) // form hidden once registered

	n, err := h.store.Count(ctx)
	is.NoErr(err)
	is.Equal(n, 1)

	// the session remembers the success across reloads
	_, body = h.get(t, "/")
	is.True(strings.Contains(body, "registered successfully"))

	code, body = h.post(t, "/new", nil)
	is.Equal(code, http.StatusOK) // after redirect
	is.True(strings.Contains(body, `name="team_name" value=""`))
	is.True(!strings.Contains(body, "registered successfully"))
}

func TestRejectedSubmissionKeepsValues(t *testing.T) {
	is := is.New(t)
	ctx := context.Background()
	h := newHarness(t)

	code, body := h.post(t, "/", submission("ann@example.com", "111", "JoinTeam", "Falcons99"))
	is.Equal(code, http.StatusUnprocessableEntity)
	is.True(strings.Contains(body, "No team named"))
	is.True(strings.Contains(body, `value="ann@example.com"`))
	is.True(strings.Contains(body, `value="JoinTeam" checked`))

	code, body = h.post(t, "/", url.Values{"name": {"Ann"}})
	is.Equal(code, http.StatusUnprocessableEntity)
	is.True(strings.Contains(body, "Please fill in all the mandatory fields."))

	n, err := h.store.Count(ctx)
	is.NoErr(err)
	is.Equal(n, 0)
}

func TestHealthAndMetrics(t *testing.T) {
	is := is.New(t)
	h := newHarness(t)

	code, _ := h.get(t, "/livez")
	is.Equal(code, http.StatusOK)
	code, _ = h.get(t, "/readyz")
	is.Equal(code, http.StatusOK)

	h.post(t, "/", submission("ann@example.com", "111", "CreateTeam", "Falcons99"))
	code, body := h.get(t, "/metrics")
	is.Equal(code, http.StatusOK)
	is.True(strings.Contains(body, "regform_registration_submissions_total"))
}

type downService struct{}

func (downService) Register(context.Context, models.Submission) (models.Registration, error) {
	return models.Registration{}, &registration.Error{Kind: registration.KindStorageUnavailable}
}

func (downService) Ready(context.Context) error { return errors.New("offline") }

func TestReadinessFailsWhenStoreIsDown(t *testing.T) {
	is := is.New(t)
	hd, err := NewHandler(config.Config{EventName: "Hack4Bengal Season 4"}, downService{}, log.New(io.Discard))
	is.NoErr(err)

	rec := httptest.NewRecorder()
	hd.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	is.Equal(rec.Code, http.StatusServiceUnavailable)

	rec = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(submission("a@b.c", "1", "CreateTeam", "Falcons99").Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	hd.ServeHTTP(rec, req)
	is.Equal(rec.Code, http.StatusUnprocessableEntity)
	is.True(strings.Contains(rec.Body.String(), "An error occurred while saving the data."))
}
