package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/service"
	"github.com/muroom-studio/muroom-admin/upload"
)

func init() {
	gin.SetMode(gin.TestMode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

type fakeIssuer struct {
	calls atomic.Int32
}

func (f *fakeIssuer) IssueUploadURL(_ context.Context, req model.PresignRequest) (model.PresignedURL, error) {
	f.calls.Add(1)
	key := "studios/" + strings.ToLower(string(req.Category)) + "/" + req.FileName
	return model.PresignedURL{URL: "https://storage.test/" + key, Key: key}, nil
}

type fakeStorage struct {
	mu     sync.Mutex
	failOn string
}

func (f *fakeStorage) Put(_ context.Context, url string, body io.Reader, _ int64, _ string) error {
	io.Copy(io.Discard, body)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failOn != "" && strings.Contains(url, f.failOn) {
		return &apperr.StorageWriteError{Status: http.StatusForbidden, Err: errors.New("AccessDenied")}
	}
	return nil
}

type fakeSubmitter struct {
	mu    sync.Mutex
	calls []*model.StudioCreateRequest
}

func (f *fakeSubmitter) CreateStudio(_ context.Context, req *model.StudioCreateRequest) (*model.StudioCreated, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, req)
	return &model.StudioCreated{StudioID: 42}, nil
}

type fakeAPI struct {
	owners    []*model.OwnerCreateRequest
	terms     []*model.TermsCreateRequest
	termTypes []model.TermsType
}

func (f *fakeAPI) FilterOptions(context.Context) (*model.FilterOptions, error) {
	return &model.FilterOptions{FloorOptions: []model.FilterOption{{Code: "UNDERGROUND", Description: "지하"}}}, nil
}

func (f *fakeAPI) NearbyStations(_ context.Context, address string) (*model.NearbyStations, error) {
	return &model.NearbyStations{Stations: []model.StationInfo{{StationID: 1, StationName: address}}}, nil
}

func (f *fakeAPI) ListStudios(_ context.Context, page, size int) (*model.StudioPage, error) {
	return &model.StudioPage{Pagination: model.Pagination{PageNumber: page, PageSize: size}}, nil
}

func (f *fakeAPI) GetStudio(_ context.Context, id int64) (*model.StudioDetail, error) {
	if id == 404 {
		return nil, &apperr.UpstreamError{Endpoint: "/api/v1/studios/404", Status: http.StatusNotFound}
	}
	detail := &model.StudioDetail{}
	detail.StudioBaseInfo.StudioID = id
	detail.StudioImages = model.ImageKeys{MainImageKeys: []string{"studios/main/a.jpg"}, BlueprintImageKey: "studios/blueprint/b.png"}
	return detail, nil
}

func (f *fakeAPI) GenerateNickname(context.Context) (string, error) { return "친절한 뮤즈 1", nil }

func (f *fakeAPI) CreateOwner(_ context.Context, req *model.OwnerCreateRequest) error {
	f.owners = append(f.owners, req)
	return nil
}

func (f *fakeAPI) CreateTerms(_ context.Context, req *model.TermsCreateRequest) error {
	f.terms = append(f.terms, req)
	return nil
}

func (f *fakeAPI) ListTerms(_ context.Context, types []model.TermsType) ([]model.TermItem, error) {
	f.termTypes = types
	return []model.TermItem{{TermID: 1}}, nil
}

func (f *fakeAPI) GetTerms(_ context.Context, id int64) (*model.TermContent, error) {
	return &model.TermContent{TermID: id, Content: "<p>body</p>"}, nil
}

func (f *fakeAPI) ListSignupTerms(context.Context) ([]model.TermItem, error) {
	return []model.TermItem{}, nil
}

type fakePreview struct{}

func (fakePreview) PresignGet(_ context.Context, key string) (string, error) {
	return "https://storage.test/" + key + "?sig", nil
}

type testEnv struct {
	router    *gin.Engine
	issuer    *fakeIssuer
	storage   *fakeStorage
	submitter *fakeSubmitter
	api       *fakeAPI
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		router:    gin.New(),
		issuer:    &fakeIssuer{},
		storage:   &fakeStorage{},
		submitter: &fakeSubmitter{},
		api:       &fakeAPI{},
	}
	flow := upload.NewFlow(upload.NewCoordinator(env.issuer, env.storage, 2), env.submitter, upload.DefaultRules())
	loc, _ := time.LoadLocation("Asia/Seoul")

	RegisterRoutes(env.router, Handlers{
		Drafts:  NewDraftHandler(service.NewDraftStore(10), flow, 1<<20),
		Studios: NewStudioHandler(env.api, fakePreview{}),
		Owners:  NewOwnerHandler(env.api),
		Terms:   NewTermsHandler(env.api, loc),
	})
	return env
}

func (e *testEnv) do(t *testing.T, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) doJSON(t *testing.T, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("Failed to marshal payload: %v", err)
	}
	return e.do(t, method, path, bytes.NewReader(data), "application/json")
}

func (e *testEnv) addFile(t *testing.T, draftID, category, name string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.WriteField("category", category)
	part, err := mw.CreateFormFile("file", name)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	part.Write(content)
	mw.Close()
	return e.do(t, http.MethodPost, "/admin/drafts/"+draftID+"/files", &buf, mw.FormDataContentType())
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("Failed to parse response %s: %v", w.Body.String(), err)
	}
	return v
}
