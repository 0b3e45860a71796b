package httpapi_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	httpapi "digital-menu/analytics-svc/internal/api/http"
	"digital-menu/analytics-svc/internal/domain"
	"digital-menu/analytics-svc/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func serve(t *testing.T, mockAnalytics *mocks.AnalyticsInterface, target string) *httptest.ResponseRecorder {
	t.Helper()
	router := httpapi.NewRouter(httpapi.NewHandler(mockAnalytics, nil))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	return w
}

func TestGetSummaryHandler(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(*mocks.AnalyticsInterface)
		wantCode int
	}{
		{
			name: "success",
			setup: func(mockAnalytics *mocks.AnalyticsInterface) {
				mockAnalytics.On("Summary", mock.Anything, "owner-1").Return(domain.Summary{
					OwnerID: "owner-1",
					Totals:  map[string]int64{"menu_view": 3},
					Source:  domain.SourceRedis,
				}, nil).Once()
			},
			wantCode: http.StatusOK,
		},
		{
			name: "storage failure",
			setup: func(mockAnalytics *mocks.AnalyticsInterface) {
				mockAnalytics.On("Summary", mock.Anything, "owner-1").
					Return(domain.Summary{}, errors.New("db down")).Once()
			},
			wantCode: http.StatusInternalServerError,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockAnalytics := mocks.NewAnalyticsInterface(t)
			testCase.setup(mockAnalytics)

			w := serve(t, mockAnalytics, "/api/analytics/owner-1/summary")

			assert.Equal(t, testCase.wantCode, w.Code)
		})
	}
}

func TestGetTopItemsHandler(t *testing.T) {
	tests := []struct {
		name     string
		target   string
		setup    func(*mocks.AnalyticsInterface)
		wantCode int
		wantLen  int
	}{
		{
			name:   "defaults to add_to_cart and five items",
			target: "/api/analytics/owner-1/top-items",
			setup: func(mockAnalytics *mocks.AnalyticsInterface) {
				mockAnalytics.On("TopItems", mock.Anything, "owner-1", domain.EventAddToCart, 5).
					Return([]domain.ItemScore{{ItemID: "A", Name: "Sate", Score: 4}}, nil).Once()
			},
			wantCode: http.StatusOK,
			wantLen:  1,
		},
		{
			name:   "explicit type and limit",
			target: "/api/analytics/owner-1/top-items?type=item_view&limit=10",
			setup: func(mockAnalytics *mocks.AnalyticsInterface) {
				mockAnalytics.On("TopItems", mock.Anything, "owner-1", domain.EventItemView, 10).
					Return([]domain.ItemScore{}, nil).Once()
			},
			wantCode: http.StatusOK,
			wantLen:  0,
		},
		{
			name:     "non-numeric limit",
			target:   "/api/analytics/owner-1/top-items?limit=lots",
			setup:    func(*mocks.AnalyticsInterface) {},
			wantCode: http.StatusBadRequest,
		},
		{
			name:   "rejected query",
			target: "/api/analytics/owner-1/top-items?type=menu_view",
			setup: func(mockAnalytics *mocks.AnalyticsInterface) {
				mockAnalytics.On("TopItems", mock.Anything, "owner-1", domain.EventMenuView, 5).
					Return(nil, domain.ErrInvalidQuery).Once()
			},
			wantCode: http.StatusBadRequest,
		},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockAnalytics := mocks.NewAnalyticsInterface(t)
			testCase.setup(mockAnalytics)

			w := serve(t, mockAnalytics, testCase.target)

			require.Equal(t, testCase.wantCode, w.Code)
			if testCase.wantCode == http.StatusOK {
				var items []domain.ItemScore
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &items))
				assert.Len(t, items, testCase.wantLen)
			}
		})
	}
}

func TestGetDailyHandler(t *testing.T) {
	mockAnalytics := mocks.NewAnalyticsInterface(t)
	mockAnalytics.On("Daily", mock.Anything, "owner-1", 7).Return([]domain.DayCount{
		{Date: "2024-05-03", Counts: domain.EmptyCounts()},
	}, nil).Once()

	w := serve(t, mockAnalytics, "/api/analytics/owner-1/daily")

	require.Equal(t, http.StatusOK, w.Code)
	var series []domain.DayCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &series))
	assert.Equal(t, "2024-05-03", series[0].Date)
}

func TestHealthCheck(t *testing.T) {
	w := serve(t, mocks.NewAnalyticsInterface(t), "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "analytics-svc")
}
