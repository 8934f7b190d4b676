package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	ginpkg "github.com/gin-gonic/gin"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	infragin "github.com/jonesrussell/company-url-collector/infrastructure/gin"
	"github.com/jonesrussell/company-url-collector/infrastructure/jwt"
	infralogger "github.com/jonesrussell/company-url-collector/infrastructure/logger"
	"github.com/jonesrussell/company-url-collector/internal/api"
	"github.com/jonesrussell/company-url-collector/internal/domain"
)

type mockService struct {
	mock.Mock
}

func (m *mockService) Collect(ctx context.Context, req domain.CollectionRequest) domain.CollectionResult {
	args := m.Called(ctx, req)
	return args.Get(0).(domain.CollectionResult)
}

func (m *mockService) Filtered(ctx context.Context, company string, firstParty, relevant *bool) ([]domain.URLRecord, error) {
	args := m.Called(ctx, company, firstParty, relevant)
	records, _ := args.Get(0).([]domain.URLRecord)
	return records, args.Error(1)
}

func (m *mockService) Companies(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	keys, _ := args.Get(0).([]string)
	return keys, args.Error(1)
}

const secret = "test-secret"

func newRouter(svc api.Service, jwtSecret string) *ginpkg.Engine {
	h := api.NewURLHandler(svc, infralogger.NewNop())
	return infragin.NewServerBuilder("urlcollector", 0).
		WithLogger(infralogger.NewNop()).
		WithRoutes(func(r *ginpkg.Engine) { api.RegisterRoutes(r, h, jwtSecret) }).
		Build().
		Router()
}

func do(router http.Handler, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header[k] = v
	}
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

var elasticReq = domain.CollectionRequest{
	CompanyName: "Elastic",
	CompanyURL:  "https://elastic.co",
	Duration:    domain.Last7Days,
}

const elasticBody = `{"company_name":"Elastic","company_url":"https://elastic.co","duration":"7 days"}`

func TestCollect_Success(t *testing.T) {
	records := []domain.URLRecord{{URL: "https://elastic.co/blog", IsFirstParty: true, IsRelevant: true}}
	svc := &mockService{}
	svc.On("Collect", mock.Anything, elasticReq).
		Return(domain.Succeeded(elasticReq, "2025-06-01T12:00:00Z", domain.Summarize(records, records)))

	w := do(newRouter(svc, ""), http.MethodPost, "/api/v1/collect-urls", elasticBody, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "Elastic", body["company"])
	assert.InDelta(t, 1, body["new_urls_found"], 0)
	assert.InDelta(t, 1, body["first_party_count"], 0)
	assert.Len(t, body["all_urls"], 1)
	svc.AssertExpectations(t)
}

func TestCollect_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "Missing required fields"},
		{"not json", "{", "Missing required fields"},
		{"missing duration", `{"company_name":"Elastic","company_url":"https://elastic.co"}`, "Missing required fields"},
		{"empty name", `{"company_name":"","company_url":"https://elastic.co","duration":"7 days"}`, "Missing required fields"},
		{
			"bad duration",
			`{"company_name":"Elastic","company_url":"https://elastic.co","duration":"2 weeks"}`,
			"Invalid duration. Must be one of: 24 hrs, 7 days, 1 Month, 3 Months, 6 Months, 1 year, All time",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockService{}
			router := newRouter(svc, "")

			for _, path := range []string{"/api/v1/collect-urls", "/api/collect-urls"} {
				w := do(router, http.MethodPost, path, tt.body, nil)
				require.Equal(t, http.StatusBadRequest, w.Code, path)
				assert.Equal(t, tt.wantErr, decode(t, w)["error"], path)
			}
			svc.AssertNotCalled(t, "Collect", mock.Anything, mock.Anything)
		})
	}
}

func TestCollect_FailureStatus(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{domain.ErrSearchUnavailable, http.StatusBadGateway},
		{domain.ErrMalformedResponse, http.StatusBadGateway},
		{domain.ErrStorageUnavailable, http.StatusServiceUnavailable},
		{errors.New("unexpected failure: boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			svc := &mockService{}
			svc.On("Collect", mock.Anything, elasticReq).
				Return(domain.Failed(elasticReq, "2025-06-01T12:00:00Z", tt.err))
			router := newRouter(svc, "")

			w := do(router, http.MethodPost, "/api/v1/collect-urls", elasticBody, nil)
			require.Equal(t, tt.want, w.Code)
			body := decode(t, w)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, string(domain.KindOf(tt.err)), body["error_kind"])
			assert.NotContains(t, body, "new_urls_found")

			legacy := do(router, http.MethodPost, "/api/collect-urls", elasticBody, nil)
			assert.Equal(t, http.StatusOK, legacy.Code)
		})
	}
}

func TestStatusForKind(t *testing.T) {
	assert.Equal(t, http.StatusOK, api.StatusForKind(""))
	assert.Equal(t, http.StatusBadRequest, api.StatusForKind(domain.KindInvalidRequest))
	assert.Equal(t, http.StatusInternalServerError, api.StatusForKind(domain.KindCollectionFailed))
}

func TestURLs(t *testing.T) {
	records := []domain.URLRecord{{URL: "https://techcrunch.com/elastic", IsRelevant: true}}
	no, yes := false, true
	svc := &mockService{}
	svc.On("Filtered", mock.Anything, "Elastic", (*bool)(nil), (*bool)(nil)).Return(records, nil)
	svc.On("Filtered", mock.Anything, "Elastic", &no, &yes).Return(records, nil)
	router := newRouter(svc, "")

	for _, path := range []string{
		"/api/v1/urls/Elastic",
		"/api/get-urls/Elastic",
		"/api/v1/urls/Elastic?is_first_party=false&is_relevant=true",
	} {
		w := do(router, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, w.Code, path)
		body := decode(t, w)
		assert.Equal(t, "Elastic", body["company"])
		assert.InDelta(t, 1, body["count"], 0)
		assert.Len(t, body["urls"], 1)
	}

	w := do(router, http.MethodGet, "/api/v1/urls/Elastic?is_relevant=maybe", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestURLs_Empty(t *testing.T) {
	svc := &mockService{}
	svc.On("Filtered", mock.Anything, "Unknown Co", (*bool)(nil), (*bool)(nil)).Return([]domain.URLRecord{}, nil)

	w := do(newRouter(svc, ""), http.MethodGet, "/api/v1/urls/Unknown%20Co", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"company":"Unknown Co","urls":[],"count":0}`, w.Body.String())
}

func TestURLs_StoreError(t *testing.T) {
	svc := &mockService{}
	svc.On("Filtered", mock.Anything, "Elastic", (*bool)(nil), (*bool)(nil)).
		Return(nil, domain.ErrStorageUnavailable)

	w := do(newRouter(svc, ""), http.MethodGet, "/api/v1/urls/Elastic", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestCompanies(t *testing.T) {
	svc := &mockService{}
	svc.On("Companies", mock.Anything).Return([]string{"elastic", "open_ai"}, nil)

	w := do(newRouter(svc, ""), http.MethodGet, "/api/v1/companies", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"companies":["elastic","open_ai"],"count":2}`, w.Body.String())
}

func TestJWTProtection(t *testing.T) {
	svc := &mockService{}
	svc.On("Companies", mock.Anything).Return([]string{}, nil)
	router := newRouter(svc, secret)

	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/v1/companies", "", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(router, http.MethodGet, "/api/get-urls/elastic", "", nil).Code)

	token, err := jwt.Sign(secret, "operator", jwtlib.RegisteredClaims{
		ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(time.Hour)),
	})
	require.NoError(t, err)

	w := do(router, http.MethodGet, "/api/v1/companies", "", http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusOK, w.Code)

	health := do(router, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, health.Code)
}
