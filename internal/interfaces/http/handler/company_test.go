package handler

import (
	"net/http"
	"strings"
	"testing"

	"github.com/retailpos/backend/internal/application/identity"
	domain "github.com/retailpos/backend/internal/domain/identity"
	"github.com/retailpos/backend/internal/domain/shared"
	"github.com/retailpos/backend/internal/interfaces/http/dto"
	"github.com/retailpos/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func setupCompanyRouter(t *testing.T) (*testutil.MockCompanyRepository, *domain.Company, http.Handler) {
	t.Helper()
	company, err := domain.NewCompany("Armazém São Jorge", "")
	require.NoError(t, err)
	company.ID = testTenantID

	repo := new(testutil.MockCompanyRepository)
	h := NewCompanyHandler(identity.NewCompanyService(repo, nil))
	r := newAuthedRouter()
	r.GET("/company", h.Get)
	r.PUT("/company", h.Update)
	return repo, company, r
}

func TestCompanyHandler_Get(t *testing.T) {
	repo, company, r := setupCompanyRouter(t)
	repo.On("FindByID", mock.Anything, testTenantID).Return(company, nil)

	w := doJSON(t, r, http.MethodGet, "/company", nil)

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := dataMap(t, w)
	assert.Equal(t, "Armazém São Jorge", data["name"])
	assert.Equal(t, domain.DefaultTimezone, data["timezone"])
	assert.Equal(t, false, data["pix_enabled"])
}

func TestCompanyHandler_GetMissingCompany(t *testing.T) {
	repo, _, r := setupCompanyRouter(t)
	repo.On("FindByID", mock.Anything, testTenantID).Return(nil, shared.ErrNotFound)

	w := doJSON(t, r, http.MethodGet, "/company", nil)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, dto.ErrCodeNotFound, decodeResponse(t, w).Error.Code)
}

func TestCompanyHandler_UpdateTimezone(t *testing.T) {
	repo, company, r := setupCompanyRouter(t)
	repo.On("FindByID", mock.Anything, testTenantID).Return(company, nil)
	repo.On("Save", mock.Anything, company).Return(nil)

	w := doJSON(t, r, http.MethodPut, "/company", map[string]any{"timezone": "America/Manaus"})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "America/Manaus", dataMap(t, w)["timezone"])
	assert.Equal(t, "America/Manaus", company.Location().String())
	repo.AssertExpectations(t)
}

func TestCompanyHandler_UpdateRejections(t *testing.T) {
	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"malformed body", `{"name":`, http.StatusBadRequest, dto.ErrCodeInvalidJSON},
		{"blank name", map[string]any{"name": "   "}, http.StatusBadRequest, "INVALID_NAME"},
		{"name too long", map[string]any{"name": strings.Repeat("a", 201)}, http.StatusBadRequest, dto.ErrCodeValidation},
		{"unknown timezone", map[string]any{"timezone": "Mars/Olympus"}, http.StatusBadRequest, "INVALID_TIMEZONE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, company, r := setupCompanyRouter(t)
			repo.On("FindByID", mock.Anything, testTenantID).Return(company, nil)

			w := doJSON(t, r, http.MethodPut, "/company", tt.body)

			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
			assert.Equal(t, tt.wantCode, decodeResponse(t, w).Error.Code)
			repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
		})
	}
}
