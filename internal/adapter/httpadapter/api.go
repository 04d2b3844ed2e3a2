package httpadapter

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"

	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
	"github.com/tardus/office-planner/internal/planner"
	"github.com/tardus/office-planner/internal/storage"
)

const (
	maxUploadBytes = 10 << 20
	maxJSONBytes   = 1 << 20
)

// EventPlanner produces weather reports and location suggestions.
type EventPlanner interface {
	Weather(ctx context.Context, date domain.Date) planner.Report
	Suggest(ctx context.Context, date domain.Date) (planner.Suggestion, error)
}

// ApplicantRepository persists applicants.
type ApplicantRepository interface {
	Create(ctx context.Context, a domain.Applicant) (domain.Applicant, error)
}

// ResumeStorage stores and serves uploaded résumés.
type ResumeStorage interface {
	Save(original string, r io.Reader) (string, error)
	Remove(name string) error
	Open(name string) (*os.File, error)
}

// API holds the collaborators behind the /api routes. Publisher and
// Geocoder may be nil.
type API struct {
	Planner    EventPlanner
	Geocoder   domain.Geocoder
	Applicants ApplicantRepository
	Resumes    ResumeStorage
	Publisher  domain.ApplicationPublisher
	Metrics    *observability.Metrics
	Logger     *slog.Logger
}

func (a *API) register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/employees", a.handleCreateApplicant)
	mux.HandleFunc("GET /api/employees/resume/{filename}", a.handleDownloadResume)
	mux.HandleFunc("GET /api/offices", a.handleOffices)
	mux.HandleFunc("GET /api/offices/nearest", a.handleNearestOffice)
	mux.HandleFunc("GET /api/weather", a.handleWeather)
	mux.HandleFunc("POST /api/events/suggest", a.handleSuggest)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, errorResponse{Error: msg})
}

// --- applicants ---

type createApplicantResponse struct {
	Success        bool   `json:"success"`
	ID             int64  `json:"id"`
	OfficeLocation string `json:"officeLocation"`
}

func (a *API) handleCreateApplicant(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := parseForm(r); err != nil {
		a.Metrics.ApplicationFailures.WithLabelValues("validation").Inc()
		writeError(w, http.StatusBadRequest, "Invalid form data")
		return
	}

	applicant := domain.Applicant{
		Name:           r.FormValue("name"),
		Email:          r.FormValue("email"),
		Phone:          r.FormValue("phone"),
		Address:        r.FormValue("address"),
		OfficeLocation: r.FormValue("officeLocation"),
	}.Normalize()

	if err := applicant.Validate(); err != nil {
		a.Metrics.ApplicationFailures.WithLabelValues("validation").Inc()
		writeError(w, http.StatusBadRequest, validationMessage(err))
		return
	}

	resume, err := a.saveResume(r)
	if err != nil {
		a.Logger.Error("resume upload failed", "error", err)
		a.Metrics.ApplicationFailures.WithLabelValues("upload").Inc()
		writeError(w, http.StatusInternalServerError, "File upload error")
		return
	}
	applicant.ResumeFile = resume

	saved, err := a.Applicants.Create(r.Context(), applicant)
	if err != nil {
		a.Logger.Error("create applicant failed", "error", err)
		a.Metrics.ApplicationFailures.WithLabelValues("storage").Inc()
		if resume != nil {
			if rmErr := a.Resumes.Remove(*resume); rmErr != nil {
				a.Logger.Warn("orphaned resume file", "file", *resume, "error", rmErr)
			}
		}
		writeError(w, http.StatusInternalServerError, "Database error")
		return
	}

	a.Metrics.ApplicationsCreated.Inc()
	a.Logger.Info("application received", "applicant_id", saved.ID, "office", saved.OfficeLocation, "has_resume", resume != nil)

	if a.Publisher != nil {
		if err := a.Publisher.PublishApplication(r.Context(), saved); err != nil {
			a.Logger.Warn("publish application event failed", "applicant_id", saved.ID, "error", err)
		}
	}

	sharedobs.WriteJSON(w, http.StatusCreated, createApplicantResponse{
		Success:        true,
		ID:             saved.ID,
		OfficeLocation: saved.OfficeLocation,
	})
}

func parseForm(r *http.Request) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		return r.ParseMultipartForm(maxUploadBytes)
	}
	return r.ParseForm()
}

func validationMessage(err error) string {
	var ve *domain.ValidationError
	if errors.As(err, &ve) && !ve.Missing() {
		return "Invalid " + ve.Field
	}
	return "Missing required fields"
}

// saveResume stores the optional "resume" file part. It returns nil when the
// request carried no file or an empty one.
func (a *API) saveResume(r *http.Request) (*string, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("resume")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if header.Size == 0 {
		return nil, nil
	}

	name, err := a.Resumes.Save(header.Filename, file)
	if err != nil {
		return nil, err
	}
	return &name, nil
}

func (a *API) handleDownloadResume(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("filename")

	f, err := a.Resumes.Open(name)
	switch {
	case errors.Is(err, storage.ErrInvalidFilename):
		writeError(w, http.StatusBadRequest, "Invalid filename")
		return
	case errors.Is(err, storage.ErrResumeNotFound):
		writeError(w, http.StatusNotFound, "Resume not found")
		return
	case err != nil:
		a.Logger.Error("open resume failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "File error")
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		a.Logger.Error("stat resume failed", "file", name, "error", err)
		writeError(w, http.StatusInternalServerError, "File error")
		return
	}

	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filepath.Base(name)}))
	http.ServeContent(w, r, name, info.ModTime(), f)
}

// --- offices ---

func (a *API) handleOffices(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, domain.Offices())
}

func (a *API) handleNearestOffice(w http.ResponseWriter, r *http.Request) {
	address := strings.TrimSpace(r.URL.Query().Get("address"))
	res := domain.ResolveNearestOffice(r.Context(), address, a.Geocoder, a.Logger)
	sharedobs.WriteJSON(w, http.StatusOK, res)
}

// --- weather & events ---

func (a *API) handleWeather(w http.ResponseWriter, r *http.Request) {
	var date domain.Date
	if raw := r.URL.Query().Get("date"); raw != "" {
		d, err := domain.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	sharedobs.WriteJSON(w, http.StatusOK, a.Planner.Weather(r.Context(), date))
}

type suggestRequest struct {
	Title       string `json:"title"`
	Date        string `json:"date"`
	Description string `json:"description"`
}

type suggestResponse struct {
	Title string `json:"title,omitempty"`
	planner.Suggestion
}

func (a *API) handleSuggest(w http.ResponseWriter, r *http.Request) {
	var req suggestRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Date) == "" {
		writeError(w, http.StatusBadRequest, "date is required")
		return
	}
	date, err := domain.ParseDate(strings.TrimSpace(req.Date))
	if err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	s, err := a.Planner.Suggest(r.Context(), date)
	if errors.Is(err, planner.ErrNoWeather) {
		a.Logger.Warn("suggestion unavailable", "date", date.String(), "failed", len(s.Failed))
		sharedobs.WriteJSON(w, http.StatusBadGateway, struct {
			errorResponse
			Failed []planner.Failure `json:"failed"`
		}{errorResponse{Error: "Weather data unavailable"}, s.Failed})
		return
	}
	if err != nil {
		a.Logger.Error("suggest failed", "date", date.String(), "error", err)
		writeError(w, http.StatusInternalServerError, "Planning error")
		return
	}

	a.Logger.Info("event suggestion", "title", req.Title, "date", date.String(), "status", s.Status)
	sharedobs.WriteJSON(w, http.StatusOK, suggestResponse{Title: req.Title, Suggestion: s})
}
