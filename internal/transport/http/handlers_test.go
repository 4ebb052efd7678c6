package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"basketwatch/internal/config"
	apierrors "basketwatch/internal/errors"
	"basketwatch/internal/services"
	"basketwatch/pkg/contracts/domain"
)

type stubPriceService struct {
	dataset *domain.CombinedDataset
	err     error
}

func (s *stubPriceService) GetCombined(context.Context) (*domain.CombinedDataset, error) {
	return s.dataset, s.err
}

func (s *stubPriceService) GetBasket(context.Context) ([]domain.BasketPoint, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.dataset.Basket, nil
}

func (s *stubPriceService) GetChart(_ context.Context, commodity string) (domain.ChartSeries, error) {
	if s.err != nil {
		return domain.ChartSeries{}, s.err
	}
	chart, ok := s.dataset.Charts[commodity]
	if !ok {
		return domain.ChartSeries{}, apierrors.ErrCommodityNotFound
	}
	return chart, nil
}

type stubAdminService struct {
	ingested []services.IngestResult
	dataset  *domain.CombinedDataset
	err      error
}

func (s *stubAdminService) IngestAll(context.Context) ([]services.IngestResult, error) {
	return s.ingested, s.err
}

func (s *stubAdminService) RunPipeline(context.Context) (*domain.CombinedDataset, error) {
	return s.dataset, s.err
}

func (s *stubAdminService) RecomputeBaselines(context.Context) error { return s.err }

func (s *stubAdminService) CleanupBackups(context.Context, int) (int, error) { return 1, nil }

type stubHealth struct{ err error }

func (s *stubHealth) Health(context.Context) error { return s.err }

func sampleDataset() *domain.CombinedDataset {
	price := 5.83
	return &domain.CombinedDataset{
		Metadata: domain.CombinedMetadata{Quantities: map[string]float64{"eggs": 1}},
		Basket: []domain.BasketPoint{{
			AdjDate:       domain.MustCalendarDate("2025-01-03"),
			BasketPrice:   5.83,
			Prices:        map[string]*float64{"eggs": &price},
			FormattedDate: "Jan 3, 2025",
			IsComplete:    true,
		}},
		Charts: map[string]domain.ChartSeries{
			"eggs": {Data: []domain.ChartPoint{{AdjDate: domain.MustCalendarDate("2025-01-03"), Price: 5.83}}},
		},
	}
}

func testRouter(t *testing.T, prices PriceServiceInterface, admin AdminServiceInterface, health HealthServiceInterface, adminToken string) chi.Router {
	t.Helper()
	logger := slog.Default()
	errHandler := apierrors.NewErrorHandler(logger)
	cfg := config.Default()
	cfg.Security.AdminToken = adminToken
	return NewRouter(RouterDeps{
		Prices: NewPricesHandler(prices, logger, errHandler),
		Admin:  NewAdminHandler(admin, logger, errHandler, 5),
		Health: NewHealthHandler(health, logger),
		Logger: logger,
		Config: cfg,
	})
}

func TestGetCombinedEndpoint(t *testing.T) {
	router := testRouter(t, &stubPriceService{dataset: sampleDataset()}, &stubAdminService{}, &stubHealth{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/prices", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var dataset domain.CombinedDataset
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &dataset))
	require.Len(t, dataset.Basket, 1)
	assert.Equal(t, "2025-01-03", dataset.Basket[0].AdjDate.String())
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestGetChartEndpoint(t *testing.T) {
	router := testRouter(t, &stubPriceService{dataset: sampleDataset()}, &stubAdminService{}, &stubHealth{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/prices/chart/eggs", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/prices/chart/caviar", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStorageErrorMapsTo503(t *testing.T) {
	failing := &stubPriceService{err: apierrors.NewStorageError("get", "price_data", errors.New("down"))}
	router := testRouter(t, failing, &stubAdminService{}, &stubHealth{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/prices/basket", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "STORAGE_UNAVAILABLE")
}

func TestAdminRefreshRequiresToken(t *testing.T) {
	admin := &stubAdminService{ingested: []services.IngestResult{{Commodity: "eggs", Added: 2}}, dataset: sampleDataset()}
	router := testRouter(t, &stubPriceService{dataset: sampleDataset()}, admin, &stubHealth{}, "s3cret")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/admin/refresh", nil)
	req.Header.Set("Authorization", "Bearer s3cret")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"ingested\"")
}

func TestAdminDisabledWithoutToken(t *testing.T) {
	router := testRouter(t, &stubPriceService{dataset: sampleDataset()}, &stubAdminService{dataset: sampleDataset()}, &stubHealth{}, "")

	req := httptest.NewRequest(http.MethodPost, "/api/admin/pipeline", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t, &stubPriceService{dataset: sampleDataset()}, &stubAdminService{}, &stubHealth{}, "")

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "\"ok\"")

	router = testRouter(t, &stubPriceService{dataset: sampleDataset()}, &stubAdminService{}, &stubHealth{err: errors.New("redis down")}, "")
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "degraded")
}
