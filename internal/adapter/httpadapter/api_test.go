package httpadapter_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tardus/office-planner/internal/adapter/httpadapter"
	"github.com/tardus/office-planner/internal/domain"
	"github.com/tardus/office-planner/internal/observability"
	"github.com/tardus/office-planner/internal/planner"
	"github.com/tardus/office-planner/internal/storage"
)

// --- mocks ---

type fakeRepo struct {
	mu     sync.Mutex
	nextID int64
	saved  []domain.Applicant
	err    error
}

func (f *fakeRepo) Create(_ context.Context, a domain.Applicant) (domain.Applicant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return domain.Applicant{}, f.err
	}
	f.nextID++
	a.ID = f.nextID
	f.saved = append(f.saved, a)
	return a, nil
}

type fakePublisher struct {
	published []domain.Applicant
	err       error
}

func (f *fakePublisher) PublishApplication(_ context.Context, a domain.Applicant) error {
	f.published = append(f.published, a)
	return f.err
}

type fakePlanner struct {
	report     planner.Report
	suggestion planner.Suggestion
	err        error
	gotDate    domain.Date
}

func (f *fakePlanner) Weather(_ context.Context, date domain.Date) planner.Report {
	f.gotDate = date
	return f.report
}

func (f *fakePlanner) Suggest(_ context.Context, date domain.Date) (planner.Suggestion, error) {
	f.gotDate = date
	return f.suggestion, f.err
}

type stubGeocoder struct {
	result domain.GeocodingResult
	err    error
}

func (s *stubGeocoder) Geocode(_ context.Context, _ string) (domain.GeocodingResult, error) {
	return s.result, s.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testAPI struct {
	api       *httpadapter.API
	repo      *fakeRepo
	publisher *fakePublisher
	planner   *fakePlanner
	geocoder  *stubGeocoder
	uploadDir string
	srv       *httpadapter.Server
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	dir := t.TempDir()
	resumes, err := storage.NewResumeStore(dir)
	require.NoError(t, err)

	ta := &testAPI{
		repo:      &fakeRepo{},
		publisher: &fakePublisher{},
		planner:   &fakePlanner{},
		geocoder:  &stubGeocoder{},
		uploadDir: dir,
	}
	ta.api = &httpadapter.API{
		Planner:    ta.planner,
		Geocoder:   ta.geocoder,
		Applicants: ta.repo,
		Resumes:    resumes,
		Publisher:  ta.publisher,
		Metrics:    observability.NewMetricsForTesting(),
		Logger:     discardLogger(),
	}
	ta.srv = httpadapter.NewServer(":0", ta.api, &mockReadiness{}, discardLogger())
	return ta
}

func (ta *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	ta.srv.ServeHTTP(rec, req)
	return rec
}

func validFields() map[string]string {
	return map[string]string{
		"name":           "Ada Lovelace",
		"email":          "ada@example.com",
		"phone":          "555-0100",
		"address":        "1 Main St, Irving, TX",
		"officeLocation": "Irving",
	}
}

func multipartRequest(t *testing.T, fields map[string]string, fileName, fileBody string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	if fileName != "" {
		fw, err := mw.CreateFormFile("resume", fileName)
		require.NoError(t, err)
		_, err = io.WriteString(fw, fileBody)
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/employees", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

// --- POST /api/employees ---

func TestCreateApplicant_MultipartWithResume(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(multipartRequest(t, validFields(), "Ada CV 2026.pdf", "%PDF-1.4"))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, true, body["success"])
	assert.InDelta(t, 1, body["id"], 1e-9)
	assert.Equal(t, "Irving", body["officeLocation"])

	require.Len(t, ta.repo.saved, 1)
	saved := ta.repo.saved[0]
	require.NotNil(t, saved.ResumeFile)
	assert.True(t, strings.HasSuffix(*saved.ResumeFile, "-Ada_CV_2026.pdf"))

	content, err := os.ReadFile(filepath.Join(ta.uploadDir, *saved.ResumeFile))
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4", string(content))

	require.Len(t, ta.publisher.published, 1)
	assert.Equal(t, int64(1), ta.publisher.published[0].ID)
	assert.InDelta(t, 1.0, testutil.ToFloat64(ta.api.Metrics.ApplicationsCreated), 1e-9)
}

func TestCreateApplicant_URLEncodedWithoutResume(t *testing.T) {
	ta := newTestAPI(t)

	form := url.Values{}
	for k, v := range validFields() {
		form.Set(k, v)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/employees", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	rec := ta.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, ta.repo.saved, 1)
	assert.Nil(t, ta.repo.saved[0].ResumeFile)
}

func TestCreateApplicant_MissingField(t *testing.T) {
	for _, field := range []string{"name", "email", "phone", "address", "officeLocation"} {
		t.Run(field, func(t *testing.T) {
			ta := newTestAPI(t)
			fields := validFields()
			fields[field] = "   "

			rec := ta.do(multipartRequest(t, fields, "cv.pdf", "x"))

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "Missing required fields", decode[map[string]string](t, rec)["error"])
			assert.Empty(t, ta.repo.saved)

			entries, err := os.ReadDir(ta.uploadDir)
			require.NoError(t, err)
			assert.Empty(t, entries, "no file is stored for a rejected application")
		})
	}
}

func TestCreateApplicant_MalformedEmail(t *testing.T) {
	ta := newTestAPI(t)
	fields := validFields()
	fields["email"] = "ada-at-example"

	rec := ta.do(multipartRequest(t, fields, "", ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid email", decode[map[string]string](t, rec)["error"])
	assert.InDelta(t, 1.0, testutil.ToFloat64(ta.api.Metrics.ApplicationFailures.WithLabelValues("validation")), 1e-9)
}

func TestCreateApplicant_DatabaseErrorRemovesResume(t *testing.T) {
	ta := newTestAPI(t)
	ta.repo.err = errors.New("connection refused")

	rec := ta.do(multipartRequest(t, validFields(), "cv.pdf", "x"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Database error", decode[map[string]string](t, rec)["error"])
	assert.Empty(t, ta.publisher.published)

	entries, err := os.ReadDir(ta.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCreateApplicant_PublishFailureStillCreated(t *testing.T) {
	ta := newTestAPI(t)
	ta.publisher.err = errors.New("broker unavailable")

	rec := ta.do(multipartRequest(t, validFields(), "", ""))

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, ta.repo.saved, 1)
}

func TestCreateApplicant_NilPublisher(t *testing.T) {
	ta := newTestAPI(t)
	ta.api.Publisher = nil

	rec := ta.do(multipartRequest(t, validFields(), "", ""))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestCreateApplicant_EmptyResumeIgnored(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(multipartRequest(t, validFields(), "empty.pdf", ""))

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	require.Len(t, ta.repo.saved, 1)
	assert.Nil(t, ta.repo.saved[0].ResumeFile)

	entries, err := os.ReadDir(ta.uploadDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// --- GET /api/employees/resume/{filename} ---

func TestDownloadResume(t *testing.T) {
	ta := newTestAPI(t)
	require.NoError(t, os.WriteFile(filepath.Join(ta.uploadDir, "abc-cv.pdf"), []byte("resume bytes"), 0o644))

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/employees/resume/abc-cv.pdf", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "resume bytes", rec.Body.String())
	assert.Equal(t, `attachment; filename=abc-cv.pdf`, rec.Header().Get("Content-Disposition"))
}

func TestDownloadResume_NotFound(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/employees/resume/missing.pdf", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownloadResume_TraversalRejected(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/employees/resume/..%2Fsecret.txt", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- offices ---

func TestOffices(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/offices", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[[]domain.Office](t, rec)
	if diff := cmp.Diff(domain.Offices(), got); diff != "" {
		t.Errorf("offices mismatch (-want +got):\n%s", diff)
	}
}

func TestNearestOffice_Geocoded(t *testing.T) {
	ta := newTestAPI(t)
	ta.geocoder.result = domain.GeocodingResult{Lat: 32.90, Lng: -96.95, FormattedAddress: "Las Colinas, TX"}

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/offices/nearest?address=Las+Colinas", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.OfficeResolution](t, rec)
	assert.Equal(t, "Irving, TX", res.Office.City)
	assert.Equal(t, domain.MethodGeocode, res.Method)
	assert.Greater(t, res.DistanceMiles, 0.0)
}

func TestNearestOffice_FallsBackToText(t *testing.T) {
	ta := newTestAPI(t)
	ta.geocoder.err = &domain.UpstreamError{Provider: "google-geocoding", StatusCode: 500}

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/offices/nearest?address=Downtown+Pittsburgh", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[domain.OfficeResolution](t, rec)
	assert.Equal(t, "pittsburgh", res.Office.ID)
	assert.Equal(t, domain.MethodText, res.Method)
}

// --- weather & suggestions ---

func TestWeather_ParsesDate(t *testing.T) {
	ta := newTestAPI(t)
	ta.planner.report = planner.Report{IsForecast: true, Options: []planner.Option{}, Failed: []planner.Failure{}}

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/weather?date=2026-10-22", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "2026-10-22", ta.planner.gotDate.String())
	assert.Equal(t, true, decode[map[string]any](t, rec)["isForecast"])
}

func TestWeather_NoDateMeansCurrent(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/weather", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ta.planner.gotDate.IsZero())
}

func TestWeather_BadDate(t *testing.T) {
	ta := newTestAPI(t)

	rec := ta.do(httptest.NewRequest(http.MethodGet, "/api/weather?date=next-friday", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func suggestRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/events/suggest", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestSuggest_Best(t *testing.T) {
	ta := newTestAPI(t)
	tampa, _ := domain.OfficeByID("tampa")
	best := planner.Option{
		Office:      tampa,
		Weather:     domain.WeatherObservation{City: tampa.City, TemperatureF: 70, Condition: "Overcast"},
		Suitability: domain.SuitabilityResult{Score: 100, Reasons: []string{"Perfect temperature"}, IsSuitable: true},
		Reason:      "Perfect temperature",
	}
	ta.planner.suggestion = planner.Suggestion{
		Status:  planner.StatusBest,
		Date:    domain.Date{Year: 2026, Month: time.October, Day: 24},
		Best:    &best,
		Options: []planner.Option{best},
		Failed:  []planner.Failure{},
	}

	rec := ta.do(suggestRequest(`{"title":"Team picnic","date":"2026-10-24","description":"Annual"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "best", body["status"])
	assert.Equal(t, "Team picnic", body["title"])
	assert.Equal(t, "2026-10-24", body["date"])
	assert.NotContains(t, body, "suggestedDate")
	bestJSON := body["best"].(map[string]any)
	assert.Equal(t, "Tampa, FL", bestJSON["office"].(map[string]any)["city"])
}

func TestSuggest_None(t *testing.T) {
	ta := newTestAPI(t)
	alt := domain.Date{Year: 2026, Month: time.October, Day: 25}
	irving, _ := domain.OfficeByID("irving")
	ta.planner.suggestion = planner.Suggestion{
		Status:          planner.StatusNone,
		Date:            domain.Date{Year: 2026, Month: time.October, Day: 24},
		Options:         []planner.Option{},
		SuggestedDate:   &alt,
		SuggestedOffice: &irving,
		Failed:          []planner.Failure{},
	}

	rec := ta.do(suggestRequest(`{"title":"Offsite","date":"2026-10-24"}`))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "none", body["status"])
	assert.Equal(t, "2026-10-25", body["suggestedDate"])
	assert.Equal(t, "irving", body["suggestedOffice"].(map[string]any)["id"])
	assert.NotContains(t, body, "best")
}

func TestSuggest_WeatherUnavailable(t *testing.T) {
	ta := newTestAPI(t)
	ta.planner.err = planner.ErrNoWeather
	ta.planner.suggestion = planner.Suggestion{Failed: []planner.Failure{{OfficeID: "irving", City: "Irving, TX", Error: "timeout"}}}

	rec := ta.do(suggestRequest(`{"date":"2026-10-24"}`))

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "Weather data unavailable", body["error"])
	assert.Len(t, body["failed"], 1)
}

func TestSuggest_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"invalid json", `{`, "Invalid JSON body"},
		{"missing date", `{"title":"x"}`, "date is required"},
		{"bad date", `{"date":"24/10/2026"}`, "date must be YYYY-MM-DD"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ta := newTestAPI(t)
			rec := ta.do(suggestRequest(tt.body))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, tt.want, decode[map[string]string](t, rec)["error"])
		})
	}
}

// uncoveredForecast answers every forecast request without an entry for the
// requested day.
type uncoveredForecast struct{}

func (uncoveredForecast) Current(_ context.Context, office domain.Office) (domain.WeatherObservation, error) {
	return domain.WeatherObservation{City: office.City}, errors.New("current conditions not expected")
}

func (uncoveredForecast) Forecast(_ context.Context, _ domain.Office, _ domain.Date) (domain.WeatherObservation, bool, error) {
	return domain.WeatherObservation{}, false, nil
}

func TestSuggest_LastForecastDayWithoutEntriesProposesNextDay(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.October, 19, 9, 0, 0, 0, time.UTC)))
	t.Cleanup(func() { domain.SetClock(nil) })

	ta := newTestAPI(t)
	ta.api.Planner = planner.New(uncoveredForecast{}, discardLogger(), ta.api.Metrics)

	rec := ta.do(suggestRequest(`{"title":"Offsite","date":"2026-10-29"}`))

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[map[string]any](t, rec)
	assert.Equal(t, "none", body["status"])
	assert.Equal(t, "2026-10-30", body["suggestedDate"])
	assert.Empty(t, body["options"])
	assert.Empty(t, body["failed"])
	assert.NotContains(t, body, "suggestedOffice")
}
