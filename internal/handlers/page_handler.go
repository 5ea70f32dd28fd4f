package handlers

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/shaibs3/pageanalyzer/internal/analyzer"
	"github.com/shaibs3/pageanalyzer/internal/db"
	"github.com/shaibs3/pageanalyzer/internal/pages"
	"github.com/shaibs3/pageanalyzer/internal/urlutil"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	msgURLAdded     = "Page successfully added"
	msgURLExists    = "Page already exists"
	msgURLChecked   = "Page successfully checked"
	msgCheckFailed  = "An error occurred during the check"
	msgNotFound     = "Page not found"
	msgInternalFail = "Something went wrong, please try again later"
)

// pageData is the view model shared by all templates
type pageData struct {
	Flashes []Flash
	URL     string
	Error   string
	URLs    []db.URLSummary
	Record  *db.URLRecord
	Checks  []db.CheckRecord
	Status  int
	Message string
}

// PageHandler serves the HTML pages for submitting, listing and checking URLs
type PageHandler struct {
	service   *pages.Service
	templates map[string]*template.Template
	logger    *zap.Logger
}

// NewPageHandler creates a new page handler
func NewPageHandler(service *pages.Service) *PageHandler {
	templates := make(map[string]*template.Template)
	for _, name := range []string{"index", "urls", "url", "error"} {
		templates[name] = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html"))
	}
	return &PageHandler{
		service:   service,
		templates: templates,
		logger:    zap.NewNop(),
	}
}

// RegisterRoutes registers the routes for this handler
func (h *PageHandler) RegisterRoutes(router *mux.Router, logger *zap.Logger) {
	h.logger = logger.Named("pages")
	router.HandleFunc("/", h.handleIndex).Methods(http.MethodGet)
	router.HandleFunc("/urls", h.handleAddURL).Methods(http.MethodPost)
	router.HandleFunc("/urls", h.handleListURLs).Methods(http.MethodGet)
	router.HandleFunc("/urls/{id:[0-9]+}", h.handleShowURL).Methods(http.MethodGet)
	router.HandleFunc("/urls/{id:[0-9]+}/checks", h.handleCheckURL).Methods(http.MethodPost)
}

func (h *PageHandler) handleIndex(w http.ResponseWriter, req *http.Request) {
	h.render(w, req, "index", http.StatusOK, pageData{})
}

func (h *PageHandler) handleAddURL(w http.ResponseWriter, req *http.Request) {
	raw := strings.TrimSpace(req.PostFormValue("url"))

	id, created, err := h.service.AddURL(req.Context(), raw)
	var verr *urlutil.ValidationError
	switch {
	case errors.As(err, &verr):
		h.render(w, req, "index", http.StatusUnprocessableEntity, pageData{URL: raw, Error: verr.Error()})
		return
	case err != nil:
		h.logger.Error("failed to add url", zap.String("url", raw), zap.Error(err))
		h.render(w, req, "index", http.StatusInternalServerError, pageData{
			URL:   raw,
			Error: "An error occurred while adding the page",
		})
		return
	}

	if created {
		setFlash(w, "success", msgURLAdded)
	} else {
		setFlash(w, "info", msgURLExists)
	}
	http.Redirect(w, req, urlPath(id), http.StatusFound)
}

func (h *PageHandler) handleListURLs(w http.ResponseWriter, req *http.Request) {
	summaries, err := h.service.ListURLs(req.Context())
	if err != nil {
		h.logger.Error("failed to list urls", zap.Error(err))
		h.renderError(w, req, http.StatusInternalServerError, msgInternalFail)
		return
	}
	h.render(w, req, "urls", http.StatusOK, pageData{URLs: summaries})
}

func (h *PageHandler) handleShowURL(w http.ResponseWriter, req *http.Request) {
	id, ok := urlID(req)
	if !ok {
		h.renderError(w, req, http.StatusNotFound, msgNotFound)
		return
	}

	rec, checks, err := h.service.GetURL(req.Context(), id)
	switch {
	case errors.Is(err, pages.ErrURLNotFound):
		h.renderError(w, req, http.StatusNotFound, msgNotFound)
		return
	case err != nil:
		h.logger.Error("failed to load url", zap.Int64("url_id", id), zap.Error(err))
		h.renderError(w, req, http.StatusInternalServerError, msgInternalFail)
		return
	}
	h.render(w, req, "url", http.StatusOK, pageData{Record: rec, Checks: checks})
}

func (h *PageHandler) handleCheckURL(w http.ResponseWriter, req *http.Request) {
	id, ok := urlID(req)
	if !ok {
		h.renderError(w, req, http.StatusNotFound, msgNotFound)
		return
	}

	_, err := h.service.CheckURL(req.Context(), id)
	var fetchErr *analyzer.FetchError
	switch {
	case errors.Is(err, pages.ErrURLNotFound):
		h.renderError(w, req, http.StatusNotFound, msgNotFound)
		return
	case errors.As(err, &fetchErr):
		setFlash(w, "danger", msgCheckFailed)
	case err != nil:
		h.logger.Error("failed to record check", zap.Int64("url_id", id), zap.Error(err))
		h.renderError(w, req, http.StatusInternalServerError, msgInternalFail)
		return
	default:
		setFlash(w, "success", msgURLChecked)
	}
	http.Redirect(w, req, urlPath(id), http.StatusFound)
}

func (h *PageHandler) renderError(w http.ResponseWriter, req *http.Request, status int, message string) {
	h.render(w, req, "error", status, pageData{Status: status, Message: message})
}

// render executes the named template into a buffer first so a template
// failure can still produce a clean 500
func (h *PageHandler) render(w http.ResponseWriter, req *http.Request, name string, status int, data pageData) {
	data.Flashes = popFlashes(w, req)

	var buf bytes.Buffer
	if err := h.templates[name].ExecuteTemplate(&buf, "layout", data); err != nil {
		h.logger.Error("failed to render template", zap.String("template", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

func urlID(req *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(mux.Vars(req)["id"], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func urlPath(id int64) string {
	return fmt.Sprintf("/urls/%d", id)
}
