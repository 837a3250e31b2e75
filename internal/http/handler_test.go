package http

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"plate-registry/internal/config"
	"plate-registry/internal/domain/plate"
	"plate-registry/internal/metrics"
	"plate-registry/internal/ocr"
	"plate-registry/internal/report"
	"plate-registry/internal/repository"
	"plate-registry/internal/service"
)

type recognizerFunc func(ctx context.Context, img ocr.Image) (string, error)

func (f recognizerFunc) Recognize(ctx context.Context, img ocr.Image) (string, error) {
	return f(ctx, img)
}

type memPlates struct {
	mu      sync.Mutex
	records []plate.Record
}

func (s *memPlates) Insert(_ context.Context, rec *plate.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = int64(len(s.records) + 1)
	s.records = append(s.records, *rec)
	return nil
}

func (s *memPlates) FindByNumber(_ context.Context, number string) ([]plate.Record, error) {
	return s.filter(func(r plate.Record) bool { return r.Number == number }), nil
}

func (s *memPlates) FindByCity(_ context.Context, city string) ([]plate.Record, error) {
	return s.filter(func(r plate.Record) bool { return r.City == city }), nil
}

func (s *memPlates) filter(match func(plate.Record) bool) []plate.Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []plate.Record
	for _, r := range s.records {
		if match(r) {
			out = append(out, r)
		}
	}
	return out
}

type memUsers struct {
	mu    sync.Mutex
	users map[string]plate.User
}

func (s *memUsers) Create(_ context.Context, user *plate.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[user.Email]; ok {
		return repository.ErrDuplicate
	}
	user.ID = int64(len(s.users) + 1)
	user.CreatedAt = time.Now()
	s.users[user.Email] = *user
	return nil
}

func (s *memUsers) FindByEmail(_ context.Context, email string) (*plate.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type testServer struct {
	router *gin.Engine
	plates *memPlates
	cfg    *config.Config
}

func newTestServer(t *testing.T, recognize recognizerFunc) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	cfg := &config.Config{
		Server: config.ServerConfig{
			StaticDir:     filepath.Join(dir, "public"),
			UploadDir:     filepath.Join(dir, "uploads"),
			MaxUploadMB:   1,
			TutorialVideo: filepath.Join(dir, "tutorial.mp4"),
		},
		Auth: config.AuthConfig{
			JWTSecret:  "test-secret",
			TokenTTL:   time.Hour,
			BcryptCost: 4,
		},
	}

	log := zerolog.Nop()
	m := metrics.New()
	plates := &memPlates{}
	users := &memUsers{users: map[string]plate.User{}}

	router := NewRouter(RouterDeps{
		Config:       cfg,
		Registration: service.NewRegistrationService(recognize, plates, m, log),
		Lookup:       service.NewLookupService(plates, report.NewPDFExporter(), m, log),
		Auth:         service.NewAuthService(users, cfg.Auth, log),
		Metrics:      m,
		Log:          log,
	})

	return &testServer{router: router, plates: plates, cfg: cfg}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal body: %v", err)
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(data))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func (s *testServer) token(t *testing.T) string {
	t.Helper()
	w := s.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"nome": "Ana", "email": "ana@example.com", "senha": "secret123",
	}))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d: %s", w.Code, w.Body.String())
	}

	w = s.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ana@example.com", "senha": "secret123",
	}))
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Data plate.LoginResult `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode login response: %v", err)
	}
	if resp.Data.Token == "" {
		t.Fatal("expected token in login response")
	}
	return resp.Data.Token
}

func uploadRequest(t *testing.T, token string, image []byte, city string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if image != nil {
		part, err := mw.CreateFormFile("imagem", "plate.png")
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		part.Write(image)
	}
	if city != "" {
		mw.WriteField("cidade", city)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/plates", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

func authorized(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func fixedText(text string) recognizerFunc {
	return func(context.Context, ocr.Image) (string, error) { return text, nil }
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v (%s)", err, w.Body.String())
	}
	return body
}

func TestUploadThenLookupAndReport(t *testing.T) {
	var gotImage ocr.Image
	srv := newTestServer(t, func(_ context.Context, img ocr.Image) (string, error) {
		gotImage = img
		return "MG\nBelo Horizonte\nHGT-0042\n", nil
	})
	token := srv.token(t)

	w := srv.do(uploadRequest(t, token, []byte("fake-png"), ""))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if string(gotImage.Data) != "fake-png" {
		t.Errorf("recognizer received %q", gotImage.Data)
	}

	entries, err := os.ReadDir(srv.cfg.Server.UploadDir)
	if err != nil {
		t.Fatalf("read upload dir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("expected temp upload to be removed, found %d files", len(entries))
	}

	w = srv.do(authorized(httptest.NewRequest(http.MethodGet, "/api/v1/plates/hgt-0042", nil), token))
	if w.Code != http.StatusOK {
		t.Fatalf("lookup: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var lookup struct {
		Data []plate.Record `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &lookup); err != nil {
		t.Fatalf("decode lookup: %v", err)
	}
	if len(lookup.Data) != 1 {
		t.Fatalf("expected 1 record, got %d", len(lookup.Data))
	}
	rec := lookup.Data[0]
	if rec.Number != "HGT0042" || rec.State != "MG" || rec.City != "Belo Horizonte" {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Source == nil || rec.Source.UploadedBy != "1" {
		t.Errorf("expected uploader 1 in source, got %+v", rec.Source)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/cities/"+"Belo%20Horizonte", nil)
	w = srv.do(authorized(req, token))
	if w.Code != http.StatusOK {
		t.Fatalf("report: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != report.ContentTypePDF {
		t.Errorf("expected content type %s, got %s", report.ContentTypePDF, ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "relatorio_Belo Horizonte.pdf") {
		t.Errorf("unexpected content disposition %q", cd)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF-")) {
		t.Error("expected PDF body")
	}
}

func TestUploadCityResolution(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		hint     string
		wantCity string
	}{
		{name: "parsed city wins", text: "SP Centro ABC-1234", hint: "Campinas", wantCity: "Centro"},
		{name: "hint when parsed city blank", text: "SP   ABC-1234", hint: "Campinas", wantCity: "Campinas"},
		{name: "unknown without hint", text: "SP   ABC-1234", wantCity: plate.UnknownCity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, fixedText(tt.text))
			token := srv.token(t)

			w := srv.do(uploadRequest(t, token, []byte("img"), tt.hint))
			if w.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
			}

			recs, _ := srv.plates.FindByNumber(context.Background(), "ABC1234")
			if len(recs) != 1 || recs[0].City != tt.wantCity {
				t.Fatalf("expected city %q, got %+v", tt.wantCity, recs)
			}
		})
	}
}

func TestUploadFailures(t *testing.T) {
	tests := []struct {
		name        string
		recognize   recognizerFunc
		wantStatus  int
		wantOutcome plate.Outcome
	}{
		{
			name: "ocr failure",
			recognize: func(context.Context, ocr.Image) (string, error) {
				return "", ocr.ErrRecognition
			},
			wantStatus:  http.StatusBadRequest,
			wantOutcome: plate.OutcomeRecognitionFailed,
		},
		{
			name:        "empty text",
			recognize:   fixedText(""),
			wantStatus:  http.StatusBadRequest,
			wantOutcome: plate.OutcomeRecognitionFailed,
		},
		{
			name:        "unrecognized format",
			recognize:   fixedText("hello world"),
			wantStatus:  http.StatusBadRequest,
			wantOutcome: plate.OutcomeUnrecognizedFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, tt.recognize)
			token := srv.token(t)

			w := srv.do(uploadRequest(t, token, []byte("img"), ""))
			if w.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, w.Code, w.Body.String())
			}
			body := decodeError(t, w)
			if body["outcome"] != string(tt.wantOutcome) {
				t.Errorf("expected outcome %s, got %v", tt.wantOutcome, body["outcome"])
			}
			if len(srv.plates.records) != 0 {
				t.Errorf("expected nothing stored, got %d records", len(srv.plates.records))
			}
		})
	}
}

func TestUploadWithoutImage(t *testing.T) {
	srv := newTestServer(t, fixedText("SP Campinas ABC-1234"))
	token := srv.token(t)

	w := srv.do(uploadRequest(t, token, nil, "Campinas"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestUploadOverSizeLimit(t *testing.T) {
	srv := newTestServer(t, fixedText("SP Limeira ABC-1234"))
	token := srv.token(t)
	big := bytes.Repeat([]byte("x"), 2<<20)

	w := srv.do(uploadRequest(t, token, big, ""))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("multipart: expected 413, got %d: %s", w.Code, w.Body.String())
	}

	req := jsonRequest(t, http.MethodPost, "/api/v1/plates", map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString(big),
	})
	w = srv.do(authorized(req, token))
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("json: expected 413, got %d: %s", w.Code, w.Body.String())
	}

	if len(srv.plates.records) != 0 {
		t.Fatalf("expected nothing stored, got %d records", len(srv.plates.records))
	}
}

func TestUploadInlineBase64(t *testing.T) {
	var gotType string
	srv := newTestServer(t, func(_ context.Context, img ocr.Image) (string, error) {
		gotType = img.ContentType
		return "RJ Niteroi KLM-5678", nil
	})
	token := srv.token(t)

	req := jsonRequest(t, http.MethodPost, "/api/v1/plates", map[string]string{
		"image_base64": base64.StdEncoding.EncodeToString([]byte("jpeg-bytes")),
		"content_type": "image/jpeg",
	})
	w := srv.do(authorized(req, token))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	if gotType != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %q", gotType)
	}

	req = jsonRequest(t, http.MethodPost, "/api/v1/plates", map[string]string{"image_base64": "!!"})
	w = srv.do(authorized(req, token))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for invalid base64, got %d", w.Code)
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t, fixedText("SP Campinas ABC-1234"))

	tests := []struct {
		name   string
		header string
	}{
		{name: "missing", header: ""},
		{name: "wrong scheme", header: "Basic abc"},
		{name: "garbage token", header: "Bearer not-a-jwt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/plates/ABC1234", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := srv.do(req)
			if w.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", w.Code)
			}
		})
	}
}

func TestLookupNotFound(t *testing.T) {
	srv := newTestServer(t, fixedText(""))
	token := srv.token(t)

	w := srv.do(authorized(httptest.NewRequest(http.MethodGet, "/api/v1/plates/ZZZ9999", nil), token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = srv.do(authorized(httptest.NewRequest(http.MethodGet, "/api/v1/plates/---", nil), token))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for blank plate, got %d", w.Code)
	}

	w = srv.do(authorized(httptest.NewRequest(http.MethodGet, "/api/v1/reports/cities/Nowhere", nil), token))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for empty city report, got %d", w.Code)
	}
}

func TestRegisterAndLoginErrors(t *testing.T) {
	srv := newTestServer(t, fixedText(""))
	srv.token(t)

	w := srv.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "ANA@example.com", "senha": "another1",
	}))
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate email: expected 409, got %d", w.Code)
	}

	w = srv.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"email": "not-an-email", "senha": "secret123",
	}))
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid email: expected 400, got %d", w.Code)
	}

	w = srv.do(jsonRequest(t, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email": "ana@example.com", "senha": "wrong-password",
	}))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: expected 401, got %d", w.Code)
	}
}

func TestTutorialVideo(t *testing.T) {
	srv := newTestServer(t, fixedText(""))

	w := srv.do(httptest.NewRequest(http.MethodGet, "/api/v1/tutorial", nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without video, got %d", w.Code)
	}

	if err := os.WriteFile(srv.cfg.Server.TutorialVideo, []byte("0123456789"), 0o600); err != nil {
		t.Fatalf("write video: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/tutorial", nil)
	req.Header.Set("Range", "bytes=2-5")
	w = srv.do(req)
	if w.Code != http.StatusPartialContent {
		t.Fatalf("expected 206, got %d", w.Code)
	}
	if w.Body.String() != "2345" {
		t.Errorf("expected partial body 2345, got %q", w.Body.String())
	}
}

func TestHealthAndMetrics(t *testing.T) {
	srv := newTestServer(t, fixedText(""))

	w := srv.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("healthz: expected 200, got %d", w.Code)
	}
	if w.Header().Get(requestIDHeader) == "" {
		t.Error("expected request id header")
	}

	w = srv.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("metrics: expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "plate_registry_http_requests_total") {
		t.Error("expected http request counter in metrics output")
	}
}

func TestHandleErrorMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		err  error
		want int
	}{
		{fmtErr(service.ErrInvalidInput), http.StatusBadRequest},
		{fmtErr(service.ErrNotFound), http.StatusNotFound},
		{service.ErrEmailTaken, http.StatusConflict},
		{service.ErrInvalidCredentials, http.StatusUnauthorized},
		{service.ErrTokenInvalid, http.StatusUnauthorized},
		{fmtErr(service.ErrStorageFailed), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		handleError(c, zerolog.Nop(), tt.err)
		if w.Code != tt.want {
			t.Errorf("%v: expected %d, got %d", tt.err, tt.want, w.Code)
		}
	}
}

func fmtErr(sentinel error) error {
	return errors.Join(sentinel, errors.New("detail"))
}
