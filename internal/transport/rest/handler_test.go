package rest

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perrors "github.com/autoflex/inventory/internal/errors"
	"github.com/autoflex/inventory/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProductService is a mock implementation of the ProductService interface
type mockProductService struct {
	response *service.ProductResponse
	list     []service.ProductResponse
	exists   bool
	count    int64
	total    decimal.Decimal
	error    error
}

func (m *mockProductService) ListAll(_ context.Context) ([]service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.list, nil
}

func (m *mockProductService) GetByID(_ context.Context, _ int64) (*service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.response, nil
}

func (m *mockProductService) GetByCode(_ context.Context, _ string) (*service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.response, nil
}

func (m *mockProductService) SearchByName(_ context.Context, _ string) ([]service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.list, nil
}

func (m *mockProductService) ListSortedByValueDesc(_ context.Context) ([]service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.list, nil
}

func (m *mockProductService) ListByValueRange(_ context.Context, _, _ decimal.Decimal) ([]service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.list, nil
}

func (m *mockProductService) Create(_ context.Context, _ service.ProductRequest) (*service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.response, nil
}

func (m *mockProductService) Update(_ context.Context, _ int64, _ service.ProductRequest) (*service.ProductResponse, error) {
	if m.error != nil {
		return nil, m.error
	}
	return m.response, nil
}

func (m *mockProductService) Delete(_ context.Context, _ int64) error {
	return m.error
}

func (m *mockProductService) Exists(_ context.Context, _ int64) (bool, error) {
	return m.exists, m.error
}

func (m *mockProductService) Count(_ context.Context) (int64, error) {
	if m.error != nil {
		return 0, m.error
	}
	return m.count, nil
}

func (m *mockProductService) TotalValue(_ context.Context) (decimal.Decimal, error) {
	if m.error != nil {
		return decimal.Zero, m.error
	}
	return m.total, nil
}

func testResponse() *service.ProductResponse {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	return &service.ProductResponse{
		ID:        1,
		Code:      "TEST001",
		Name:      "Test Product",
		Value:     decimal.RequireFromString("999.99"),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// newTestRouter wires the handler under test into a chi router.
func newTestRouter(svc service.ProductService) *chi.Mux {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	mux := chi.NewRouter()
	NewHandler(svc, logger).RegisterRoutes(mux)
	return mux
}

func doRequest(t *testing.T, mux *chi.Mux, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

// decodeErrorResponse decodes the standard error envelope.
func decodeErrorResponse(t *testing.T, body []byte) map[string]any {
	t.Helper()
	var envelope map[string]any
	require.NoError(t, json.Unmarshal(body, &envelope))
	return envelope
}

func Test_Handler_GetByID(t *testing.T) {
	testCases := []struct {
		name           string
		mockService    *mockProductService
		target         string
		expectedCode   int
		expectedError  string
		expectedFields map[string]any
	}{
		{
			name:         "Success - product found",
			mockService:  &mockProductService{response: testResponse()},
			target:       "/products/1",
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - product not found",
			mockService:   &mockProductService{error: perrors.ErrProductNotFound},
			target:        "/products/42",
			expectedCode:  http.StatusNotFound,
			expectedError: "Resource Not Found",
		},
		{
			name:          "Error - invalid id",
			mockService:   &mockProductService{},
			target:        "/products/abc",
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mux := newTestRouter(tc.mockService)
			// when
			rec := doRequest(t, mux, http.MethodGet, tc.target, "")
			// then
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedError != "" {
				envelope := decodeErrorResponse(t, rec.Body.Bytes())
				assert.Equal(t, false, envelope["success"])
				assert.Equal(t, tc.expectedError, envelope["error"])
				assert.NotEmpty(t, envelope["message"])
				assert.NotEmpty(t, envelope["timestamp"])
				return
			}
			var got service.ProductResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, int64(1), got.ID)
			assert.Equal(t, "TEST001", got.Code)
			assert.True(t, got.Value.Equal(decimal.RequireFromString("999.99")))
		})
	}
}

func Test_Handler_GetByCode(t *testing.T) {
	testCases := []struct {
		name          string
		mockService   *mockProductService
		target        string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - product found",
			mockService:  &mockProductService{response: testResponse()},
			target:       "/products/code/TEST001",
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - code not found",
			mockService:   &mockProductService{error: perrors.ErrProductNotFound},
			target:        "/products/code/MISSING",
			expectedCode:  http.StatusNotFound,
			expectedError: "Resource Not Found",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.mockService)
			rec := doRequest(t, mux, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedError != "" {
				envelope := decodeErrorResponse(t, rec.Body.Bytes())
				assert.Equal(t, tc.expectedError, envelope["error"])
			}
		})
	}
}

func Test_Handler_ListAll(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{list: []service.ProductResponse{*testResponse()}})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	var got []service.ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func Test_Handler_SearchByName(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{list: []service.ProductResponse{*testResponse()}})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products/search?name=test", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	var got []service.ProductResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 1)
}

func Test_Handler_ListSortedByValueDesc(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{list: []service.ProductResponse{*testResponse()}})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products/sorted/value-desc", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
}

func Test_Handler_ListByValueRange(t *testing.T) {
	testCases := []struct {
		name          string
		target        string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - valid range",
			target:       "/products/filter/value-range?min=10&max=100.50",
			expectedCode: http.StatusOK,
		},
		{
			name:         "Success - inverted range is passed through",
			target:       "/products/filter/value-range?min=100&max=10",
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - missing min",
			target:        "/products/filter/value-range?max=100",
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
		{
			name:          "Error - malformed max",
			target:        "/products/filter/value-range?min=10&max=abc",
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(&mockProductService{list: []service.ProductResponse{}})
			rec := doRequest(t, mux, http.MethodGet, tc.target, "")
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedError != "" {
				envelope := decodeErrorResponse(t, rec.Body.Bytes())
				assert.Equal(t, tc.expectedError, envelope["error"])
			}
		})
	}
}

func Test_Handler_Create(t *testing.T) {
	validBody := `{"code":"TEST001","name":"Test Product","value":999.99}`
	testCases := []struct {
		name          string
		mockService   *mockProductService
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - product created",
			mockService:  &mockProductService{response: testResponse()},
			body:         validBody,
			expectedCode: http.StatusCreated,
		},
		{
			name:          "Error - duplicate code",
			mockService:   &mockProductService{error: perrors.ErrProductCodeExists},
			body:          validBody,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
		{
			name: "Error - validation failure",
			mockService: &mockProductService{error: &perrors.ValidationError{Fields: map[string]string{
				"Code":  "failed on rule: min",
				"Name":  "failed on rule: required",
				"Value": "failed on rule: gt",
			}}},
			body:          `{"code":"AB","name":"","value":-100}`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Validation Error",
		},
		{
			name:          "Error - malformed JSON",
			mockService:   &mockProductService{},
			body:          `{"code":`,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			mux := newTestRouter(tc.mockService)
			// when
			rec := doRequest(t, mux, http.MethodPost, "/products", tc.body)
			// then
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedError != "" {
				envelope := decodeErrorResponse(t, rec.Body.Bytes())
				assert.Equal(t, false, envelope["success"])
				assert.Equal(t, tc.expectedError, envelope["error"])
				if tc.expectedError == "Validation Error" {
					details, ok := envelope["details"].(map[string]any)
					require.True(t, ok, "validation details should be a field map")
					assert.Len(t, details, 3)
				}
				return
			}
			var got service.ProductResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
			assert.Equal(t, int64(1), got.ID)
		})
	}
}

func Test_Handler_Update(t *testing.T) {
	validBody := `{"code":"TEST001-UPDATED","name":"Updated Test Product","value":1299.99}`
	testCases := []struct {
		name          string
		mockService   *mockProductService
		target        string
		body          string
		expectedCode  int
		expectedError string
	}{
		{
			name:         "Success - product updated",
			mockService:  &mockProductService{response: testResponse()},
			target:       "/products/1",
			body:         validBody,
			expectedCode: http.StatusOK,
		},
		{
			name:          "Error - product not found",
			mockService:   &mockProductService{error: perrors.ErrProductNotFound},
			target:        "/products/42",
			body:          validBody,
			expectedCode:  http.StatusNotFound,
			expectedError: "Resource Not Found",
		},
		{
			name:          "Error - code owned by another product",
			mockService:   &mockProductService{error: perrors.ErrProductCodeExists},
			target:        "/products/1",
			body:          validBody,
			expectedCode:  http.StatusBadRequest,
			expectedError: "Bad Request",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.mockService)
			rec := doRequest(t, mux, http.MethodPut, tc.target, tc.body)
			assert.Equal(t, tc.expectedCode, rec.Code)
			if tc.expectedError != "" {
				envelope := decodeErrorResponse(t, rec.Body.Bytes())
				assert.Equal(t, tc.expectedError, envelope["error"])
			}
		})
	}
}

func Test_Handler_DeleteByID(t *testing.T) {
	testCases := []struct {
		name         string
		mockService  *mockProductService
		target       string
		expectedCode int
	}{
		{
			name:         "Success - product deleted",
			mockService:  &mockProductService{},
			target:       "/products/1",
			expectedCode: http.StatusNoContent,
		},
		{
			name:         "Error - product not found",
			mockService:  &mockProductService{error: perrors.ErrProductNotFound},
			target:       "/products/42",
			expectedCode: http.StatusNotFound,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mux := newTestRouter(tc.mockService)
			rec := doRequest(t, mux, http.MethodDelete, tc.target, "")
			assert.Equal(t, tc.expectedCode, rec.Code)
		})
	}
}

func Test_Handler_Count(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{count: 7})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products/count", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "7", rec.Body.String())
}

func Test_Handler_TotalValue(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{total: decimal.RequireFromString("1000.29")})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products/stats/total-value", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	// serialized as a bare JSON number
	assert.Equal(t, "1000.29", rec.Body.String())
}

func Test_Handler_HealthCheck(t *testing.T) {
	// given
	mux := newTestRouter(&mockProductService{})
	// when
	rec := doRequest(t, mux, http.MethodGet, "/products/health", "")
	// then
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Product service is operational", rec.Body.String())
}
