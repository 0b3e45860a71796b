// Package gateway forwards the routes web-svc does not handle itself to the
// backing services.
package gateway

import (
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	CatalogSvcURL   string
	AnalyticsSvcURL string
}

type Gateway struct {
	config Config
	client HTTPClient
	logger *zap.Logger
}

func NewGateway(config Config, client HTTPClient, logger *zap.Logger) *Gateway {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gateway{
		config: config,
		client: client,
		logger: logger,
	}
}

func (g *Gateway) ProxyRequest(w http.ResponseWriter, r *http.Request, targetURL string) {
	g.logger.Debug("proxy", zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.String("target", targetURL))

	url := targetURL + r.URL.Path
	if r.URL.RawQuery != "" {
		url += "?" + r.URL.RawQuery
	}

	req, err := http.NewRequestWithContext(r.Context(), r.Method, url, r.Body)
	if err != nil {
		g.logger.Error("failed to create proxy request", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	for k, v := range r.Header {
		req.Header[k] = v
	}

	resp, err := g.client.Do(req)
	if err != nil {
		g.logger.Error("failed to proxy", zap.String("target", targetURL), zap.Error(err))
		http.Error(w, "Upstream unavailable", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()

	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		g.logger.Warn("failed to copy proxy response", zap.Error(err))
	}
}

// RouteHandler picks the upstream for a path. The storefront QR code lives under
// /menu/{slug}/qrcode and is rewritten to catalog-svc's public route.
func (g *Gateway) RouteHandler(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	if strings.HasPrefix(path, "/menu/") && strings.HasSuffix(path, "/qrcode") {
		parts := strings.Split(strings.Trim(path, "/"), "/")
		if len(parts) == 3 {
			r.URL.Path = "/api/public/" + parts[1] + "/qrcode"
			g.ProxyRequest(w, r, g.config.CatalogSvcURL)
			return
		}
	}

	if strings.HasPrefix(path, "/api/analytics/") {
		g.ProxyRequest(w, r, g.config.AnalyticsSvcURL)
		return
	}

	if strings.HasPrefix(path, "/api/auth/") || path == "/api/settings" || strings.HasPrefix(path, "/uploads/") {
		g.ProxyRequest(w, r, g.config.CatalogSvcURL)
		return
	}

	g.logger.Debug("unmatched route", zap.String("path", path))
	http.Error(w, "Not found", http.StatusNotFound)
}
