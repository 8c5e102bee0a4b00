package server

import (
	"context"
	"html/template"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regform/internal/config"
	"regform/internal/form"
	"regform/internal/models"
)

const sessionCookie = "regform_session"

// Service is what the web form needs from the registration layer.
type Service interface {
	form.Registrar
	Ready(ctx context.Context) error
}

type handler struct {
	form     *form.Form
	svc      Service
	sessions *lru.Cache[string, form.State]
	logger   *log.Logger
}

// New builds the HTTP server for the registration form.
func New(cfg config.Config, svc Service, logger *log.Logger) (*http.Server, error) {
	h, err := NewHandler(cfg, svc, logger)
	if err != nil {
		return nil, err
	}
	return &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}, nil
}

// NewHandler returns the routed, logged and recovering handler.
func NewHandler(cfg config.Config, svc Service, logger *log.Logger) (http.Handler, error) {
	size := cfg.SessionCacheSize
	if size < 1 {
		size = 1024
	}
	sessions, err := lru.New[string, form.State](size)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = log.Default()
	}
	logger = logger.WithPrefix("http")

	h := &handler{
		form:     form.New(cfg.EventName, svc),
		svc:      svc,
		sessions: sessions,
		logger:   logger,
	}

	r := mux.NewRouter()
	r.HandleFunc("/", h.getForm).Methods(http.MethodGet)
	r.HandleFunc("/", h.postForm).Methods(http.MethodPost)
	r.HandleFunc("/new", h.postNewEntry).Methods(http.MethodPost)
	r.HandleFunc("/livez", h.getLiveness).Methods(http.MethodGet)
	r.HandleFunc("/readyz", h.getReadiness).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	access := logger.StandardLog(log.StandardLogOptions{ForceLevel: log.InfoLevel}).Writer()
	return handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(
		handlers.CombinedLoggingHandler(access, r),
	), nil
}

// session returns the caller's session id and state, starting a new
// session when the cookie is missing or its state was evicted.
func (h *handler) session(w http.ResponseWriter, r *http.Request) (string, form.State) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if st, ok := h.sessions.Get(c.Value); ok {
			return c.Value, st
		}
	}
	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id, form.NewState()
}

func (h *handler) getForm(w http.ResponseWriter, r *http.Request) {
	id, st := h.session(w, r)
	st, view := h.form.Render(r.Context(), st, nil)
	h.sessions.Add(id, st)
	h.render(w, http.StatusOK, view)
}

func (h *handler) postForm(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	id, st := h.session(w, r)
	st, view := h.form.Render(r.Context(), st, form.Submit{Fields: fieldsFrom(r)})
	h.sessions.Add(id, st)

	status := http.StatusOK
	if view.Error != "" {
		status = http.StatusUnprocessableEntity
	}
	h.render(w, status, view)
}

func (h *handler) postNewEntry(w http.ResponseWriter, r *http.Request) {
	id, st := h.session(w, r)
	st, _ = h.form.Render(r.Context(), st, form.NewEntry{})
	h.sessions.Add(id, st)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *handler) getLiveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handler) getReadiness(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Ready(r.Context()); err != nil {
		h.logger.Warn("readiness check failed", "err", err)
		http.Error(w, "store unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func (h *handler) render(w http.ResponseWriter, status int, view form.View) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := pageTemplate.Execute(w, view); err != nil {
		h.logger.Error("render form", "err", err)
	}
}

func fieldsFrom(r *http.Request) models.Submission {
	return models.Submission{
		Name:     r.PostFormValue("name"),
		Email:    r.PostFormValue("email"),
		Phone:    r.PostFormValue("phone"),
		Action:   models.Action(r.PostFormValue("action")),
		TeamName: r.PostFormValue("team_name"),
		GitHub:   r.PostFormValue("github"),
		LinkedIn: r.PostFormValue("linkedin"),
	}
}

var pageTemplate = template.Must(template.New("form").Parse(`<!doctype html>
<html><head><meta charset="utf-8"><title>{{.Title}}</title></head><body>
<h2>{{.Title}}</h2>
<p>{{.Intro}}</p>
{{if .Success}}<p class="success">{{.Success}}</p>
<form method="post" action="/new"><button type="submit">Enter New Data</button></form>
{{end}}{{if .Error}}<p class="error">Error: {{.Error}}</p>
{{end}}{{if .ShowForm}}<form method="post" action="/">
<label>Name <input name="name" value="{{.Fields.Name}}"></label><br>
<label>Email <input name="email" value="{{.Fields.Email}}"></label><br>
<label>Phone <input name="phone" value="{{.Fields.Phone}}"></label><br>
<p>Would you like to create or join a team?</p>
{{$current := .Fields.Action}}{{range .Actions}}<label><input type="radio" name="action" value="{{.}}"{{if eq . $current}} checked{{end}}> {{.}}</label>
{{end}}<br>
<label>Team Name (Case Sensitive) <input name="team_name" value="{{.Fields.TeamName}}"></label><br>
<label>GitHub Profile (optional) <input name="github" value="{{.Fields.GitHub}}"></label><br>
<label>LinkedIn Profile (optional) <input name="linkedin" value="{{.Fields.LinkedIn}}"></label><br>
<button type="submit">Submit</button>
</form>
{{end}}</body></html>
`))
