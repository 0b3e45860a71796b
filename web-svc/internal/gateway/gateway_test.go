package gateway_test

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"digital-menu/web-svc/internal/gateway"
	"digital-menu/web-svc/internal/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func okResponse(body string) *http.Response {
	resp := &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp
}

func TestGateway_RouteHandler(t *testing.T) {
	tests := []struct {
		name    string
		method  string
		path    string
		wantURL string
	}{
		{name: "qr code rewrite", method: http.MethodGet, path: "/menu/warung/qrcode", wantURL: "http://catalog/api/public/warung/qrcode"},
		{name: "login", method: http.MethodPost, path: "/api/auth/login", wantURL: "http://catalog/api/auth/login"},
		{name: "settings", method: http.MethodPut, path: "/api/settings", wantURL: "http://catalog/api/settings"},
		{name: "uploads", method: http.MethodGet, path: "/uploads/owner-1/a.jpg", wantURL: "http://catalog/uploads/owner-1/a.jpg"},
		{name: "analytics keeps query", method: http.MethodGet, path: "/api/analytics/owner-1/daily?days=7", wantURL: "http://analytics/api/analytics/owner-1/daily?days=7"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			mockClient := mocks.NewHTTPClient(t)
			gw := gateway.NewGateway(gateway.Config{
				CatalogSvcURL:   "http://catalog",
				AnalyticsSvcURL: "http://analytics",
			}, mockClient, nil)

			mockClient.On("Do", mock.MatchedBy(func(req *http.Request) bool {
				return req.Method == testCase.method && req.URL.String() == testCase.wantURL
			})).Return(okResponse(`{"ok":true}`), nil).Once()

			rr := httptest.NewRecorder()
			gw.RouteHandler(rr, httptest.NewRequest(testCase.method, testCase.path, nil))

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.Contains(t, rr.Body.String(), "ok")
		})
	}
}

func TestGateway_RouteHandler_Unknown(t *testing.T) {
	gw := gateway.NewGateway(gateway.Config{}, nil, nil)

	rr := httptest.NewRecorder()
	gw.RouteHandler(rr, httptest.NewRequest(http.MethodGet, "/api/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestGateway_RouteHandler_ProxyError(t *testing.T) {
	mockClient := mocks.NewHTTPClient(t)
	gw := gateway.NewGateway(gateway.Config{CatalogSvcURL: "http://invalid"}, mockClient, nil)

	mockClient.On("Do", mock.Anything).Return(nil, errors.New("connection failed")).Once()

	rr := httptest.NewRecorder()
	gw.RouteHandler(rr, httptest.NewRequest(http.MethodGet, "/api/auth/me", nil))

	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
