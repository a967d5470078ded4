package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"facturas_api/pkg/config"
	"facturas_api/pkg/logger"
)

var (
	ErrURLRequerida = errors.New("La URL es requerida")
	ErrURLInvalida  = errors.New("La URL debe ser absoluta y usar http o https")
)

// Client 抓取發票頁面並擷取資料
type Client struct {
	client *resty.Client
	lggr   logger.Logger
}

// NewClient 依照 scraper 配置建立 HTTP 客戶端
func NewClient(cfg config.ScraperConfig, lggr logger.Logger) *Client {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeaders(map[string]string{
			"User-Agent": cfg.UserAgent,
			"Accept":     "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8",
		}).
		SetRetryCount(cfg.Retries).
		SetResponseBodyLimit(cfg.MaxBodyBytes).
		SetRetryWaitTime(500 * time.Millisecond).
		SetRetryMaxWaitTime(5 * time.Second)

	return &Client{
		client: client,
		lggr:   lggr.Named("scraper"),
	}
}

// ValidateURL 確認 URL 為絕對的 http/https 位址
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrURLRequerida
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return nil, ErrURLInvalida
	}
	return u, nil
}

// Scrape 抓取 rawURL 指向的頁面並擷取發票欄位
func (c *Client) Scrape(ctx context.Context, rawURL string) (*Extraction, error) {
	u, err := ValidateURL(rawURL)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	resp, err := c.client.R().SetContext(ctx).Get(u.String())
	if errors.Is(err, resty.ErrResponseBodyTooLarge) {
		return nil, fmt.Errorf("la página supera el tamaño máximo de %d bytes: %w", c.client.ResponseBodyLimit, err)
	}
	if err != nil {
		return nil, fmt.Errorf("no se pudo obtener la página: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("la página respondió con estado %d", resp.StatusCode())
	}

	c.lggr.Debugw("page fetched",
		"url", u.String(),
		"status", resp.StatusCode(),
		"bytes", len(resp.Body()),
		"elapsed", time.Since(start),
	)

	// 以重新導向後的最終位址為準
	finalURL := u.String()
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		finalURL = raw.Request.URL.String()
	}

	extraction, err := ExtractHTML(bytes.NewReader(resp.Body()), resp.Header().Get("Content-Type"), finalURL)
	if err != nil {
		return nil, err
	}

	c.lggr.Infow("factura extracted",
		"url", finalURL,
		"numero", extraction.Numero,
		"items", len(extraction.Items),
	)
	return extraction, nil
}
