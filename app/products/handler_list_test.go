package products

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mytheresa/product-catalog/models"
)

// --- Mock Repo ---

type MockProductRepo struct {
	SourceProducts []models.Product
	Err            error
	CreateErr      error
	UpdateErr      error
	DeleteErr      error
	ResetErr       error

	// Fields to capture call arguments
	lastFindID  uint
	lastFilter  *models.ProductFilter
	created     *models.Product
	updated     *models.Product
	deleted     *models.Product
	resetCalled bool
	resetSeed   []*models.Product
}

func (m *MockProductRepo) Find(_ context.Context, id uint) (*models.Product, error) {
	m.lastFindID = id
	if m.Err != nil {
		return nil, m.Err
	}
	for _, p := range m.SourceProducts {
		if p.ID == id {
			product := p
			return &product, nil
		}
	}
	return nil, models.ErrProductNotFound
}

func (m *MockProductRepo) List(_ context.Context, f models.ProductFilter) ([]models.Product, error) {
	m.lastFilter = &f
	if m.Err != nil {
		return nil, m.Err
	}

	// Simulate filtering
	filtered := []models.Product{}
	for _, p := range m.SourceProducts {
		match := true
		switch f.Kind {
		case models.FilterByName:
			match = p.Name == f.Name
		case models.FilterByCategory:
			match = p.Category == f.Category
		case models.FilterByAvailability:
			match = p.Available == f.Available
		}
		if match {
			filtered = append(filtered, p)
		}
	}
	return filtered, nil
}

func (m *MockProductRepo) Create(_ context.Context, p *models.Product) error {
	m.created = p
	if m.CreateErr != nil {
		return m.CreateErr
	}
	p.ID = uint(len(m.SourceProducts) + 1)
	return nil
}

func (m *MockProductRepo) Update(_ context.Context, p *models.Product) error {
	m.updated = p
	return m.UpdateErr
}

func (m *MockProductRepo) Delete(_ context.Context, p *models.Product) error {
	m.deleted = p
	return m.DeleteErr
}

func (m *MockProductRepo) Reset(_ context.Context, seed []*models.Product) error {
	m.resetCalled = true
	m.resetSeed = seed
	return m.ResetErr
}

// --- Helpers ---

func newTestProduct(id uint, name string, category models.Category, available bool, price string) models.Product {
	return models.Product{
		ID:          id,
		Name:        name,
		Description: name + " description",
		Price:       decimal.RequireFromString(price),
		Available:   available,
		Category:    category,
	}
}

func newTestHandler(repo *MockProductRepo) *ProductHandler {
	return NewProductHandler(repo, zap.NewNop())
}

func decodeList(t *testing.T, rec *httptest.ResponseRecorder) []map[string]any {
	t.Helper()
	var resp []map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

// --- Tests ---

func TestHandleList(t *testing.T) {
	allMockProducts := []models.Product{
		newTestProduct(1, "Fedora", models.CategoryCloths, true, "12.50"),
		newTestProduct(2, "Hammer", models.CategoryTools, false, "24.99"),
		newTestProduct(3, "Bread", models.CategoryFood, true, "3.10"),
		newTestProduct(4, "Fedora", models.CategoryCloths, false, "95.50"),
	}

	testCases := []struct {
		name               string
		url                string
		mockRepoSetup      func() *MockProductRepo
		expectedStatusCode int
		checkResponse      func(t *testing.T, rec *httptest.ResponseRecorder)
		checkRepoCalls     func(t *testing.T, repo *MockProductRepo)
	}{
		{
			name: "Success without filters",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeList(t, rec)
				assert.Len(t, resp, 4)
				assert.Equal(t, "Fedora", resp[0]["name"])
				assert.Equal(t, "12.50", resp[0]["price"])
				assert.Equal(t, "CLOTHS", resp[0]["category"])
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, models.FilterNone, repo.lastFilter.Kind)
			},
		},
		{
			name: "Empty store returns an empty array",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				assert.JSONEq(t, `[]`, rec.Body.String())
			},
		},
		{
			name: "Filter by name",
			url:  "/products?name=Fedora",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeList(t, rec)
				assert.Len(t, resp, 2)
				for _, p := range resp {
					assert.Equal(t, "Fedora", p["name"])
				}
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, models.FilterByName, repo.lastFilter.Kind)
				assert.Equal(t, "Fedora", repo.lastFilter.Name)
			},
		},
		{
			name: "Name takes priority over category and availability",
			url:  "/products?available=false&category=FOOD&name=Hammer",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeList(t, rec)
				require.Len(t, resp, 1)
				assert.Equal(t, "Hammer", resp[0]["name"])
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, models.FilterByName, repo.lastFilter.Kind)
			},
		},
		{
			name: "Category takes priority over availability",
			url:  "/products?category=CLOTHS&available=false",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeList(t, rec)
				assert.Len(t, resp, 2)
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Equal(t, models.FilterByCategory, repo.lastFilter.Kind)
				assert.Equal(t, models.CategoryCloths, repo.lastFilter.Category)
			},
		},
		{
			name: "Filter by availability",
			url:  "/products?available=true",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusOK,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				resp := decodeList(t, rec)
				assert.Len(t, resp, 2)
				for _, p := range resp {
					assert.Equal(t, true, p["available"])
				}
			},
		},
		{
			name: "Unknown category is a client error",
			url:  "/products?category=SHOES",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{SourceProducts: allMockProducts}
			},
			expectedStatusCode: http.StatusBadRequest,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Contains(t, errResp["error"], "SHOES")
			},
			checkRepoCalls: func(t *testing.T, repo *MockProductRepo) {
				assert.Nil(t, repo.lastFilter, "List should not be called with an invalid category")
			},
		},
		{
			name: "Repository error",
			url:  "/products",
			mockRepoSetup: func() *MockProductRepo {
				return &MockProductRepo{Err: errors.New("db connection lost")}
			},
			expectedStatusCode: http.StatusInternalServerError,
			checkResponse: func(t *testing.T, rec *httptest.ResponseRecorder) {
				var errResp map[string]string
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&errResp))
				assert.Equal(t, "Failed to list products", errResp["error"])
				assert.NotContains(t, rec.Body.String(), "db connection lost")
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// Arrange
			mockRepo := tc.mockRepoSetup()
			handler := newTestHandler(mockRepo)
			req := httptest.NewRequest("GET", tc.url, nil)
			rec := httptest.NewRecorder()

			// Act
			handler.HandleList(rec, req)

			// Assert
			assert.Equal(t, tc.expectedStatusCode, rec.Code)
			if tc.checkResponse != nil {
				tc.checkResponse(t, rec)
			}
			if tc.checkRepoCalls != nil {
				tc.checkRepoCalls(t, mockRepo)
			}
		})
	}
}

func TestParseFilter(t *testing.T) {
	testCases := []struct {
		query    string
		expected models.ProductFilter
	}{
		{"", models.ProductFilter{Kind: models.FilterNone}},
		{"name=", models.ProductFilter{Kind: models.FilterNone}},
		{"name=Fedora", models.ProductFilter{Kind: models.FilterByName, Name: "Fedora"}},
		{"category=&available=yes", models.ProductFilter{Kind: models.FilterByAvailability, Available: true}},
		{"category=FOOD", models.ProductFilter{Kind: models.FilterByCategory, Category: models.CategoryFood}},
		{"available=TRUE", models.ProductFilter{Kind: models.FilterByAvailability, Available: true}},
		{"available=1", models.ProductFilter{Kind: models.FilterByAvailability, Available: true}},
		{"available=t", models.ProductFilter{Kind: models.FilterByAvailability, Available: true}},
		{"available=Y", models.ProductFilter{Kind: models.FilterByAvailability, Available: true}},
		{"available=no", models.ProductFilter{Kind: models.FilterByAvailability, Available: false}},
		{"available=maybe", models.ProductFilter{Kind: models.FilterByAvailability, Available: false}},
		{"available=", models.ProductFilter{Kind: models.FilterByAvailability, Available: false}},
	}

	for _, tc := range testCases {
		t.Run(tc.query, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)

			filter, err := parseFilter(q)

			require.NoError(t, err)
			assert.Equal(t, tc.expected, filter)
		})
	}

	t.Run("unknown category", func(t *testing.T) {
		_, err := parseFilter(url.Values{"category": {"cloths"}})

		var vErr *models.ValidationError
		assert.ErrorAs(t, err, &vErr)
	})
}
