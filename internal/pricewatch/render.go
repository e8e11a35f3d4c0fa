package pricewatch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// ErrBlocked means the store refused the request (bot wall, 403, rate limit).
var ErrBlocked = errors.New("blocked by site")

// Renderer returns a PNG/JPEG screenshot of a store page. product may be used to
// search inside the store when the landing page is generic.
type Renderer interface {
	Screenshot(ctx context.Context, pageURL, product string) ([]byte, error)
}

// ProxyRenderer asks a rendering proxy API (ScrapingBee style) for a screenshot.
type ProxyRenderer struct {
	Endpoint string
	APIKey   string
	Client   *http.Client
}

func NewProxyRenderer(endpoint, apiKey string) *ProxyRenderer {
	return &ProxyRenderer{
		Endpoint: endpoint,
		APIKey:   apiKey,
		Client:   &http.Client{Timeout: 90 * time.Second},
	}
}

func (p *ProxyRenderer) Screenshot(ctx context.Context, pageURL, product string) ([]byte, error) {
	q := url.Values{}
	q.Set("api_key", p.APIKey)
	q.Set("url", pageURL)
	q.Set("render_js", "true")
	q.Set("premium_proxy", "true")
	q.Set("screenshot", "true")
	q.Set("wait_browser", "networkidle2")
	if product != "" {
		q.Set("js_scenario", searchScenario(product))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.Endpoint+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusForbidden, resp.StatusCode == http.StatusTooManyRequests:
		return nil, fmt.Errorf("%w: proxy status %d", ErrBlocked, resp.StatusCode)
	case resp.StatusCode >= 300:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("proxy status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return io.ReadAll(io.LimitReader(resp.Body, 20<<20))
}

// searchScenario fills the store's search box, when it has one, and submits it.
func searchScenario(product string) string {
	return fmt.Sprintf(`{"strict":false,"instructions":[{"evaluate":%q},{"wait":2500}]}`, fillSearchJS(product))
}

func fillSearchJS(product string) string {
	return fmt.Sprintf(`(function(){
  var el = document.querySelector('input[type="search"], input[name="q"]');
  if (!el || el.offsetParent === null) { return false; }
  el.value = %q;
  el.dispatchEvent(new Event('input', {bubbles: true}));
  if (el.form) { el.form.submit(); } else {
    el.dispatchEvent(new KeyboardEvent('keydown', {key: 'Enter', keyCode: 13, bubbles: true}));
  }
  return true;
})()`, product)
}

// BrowserRenderer drives a local headless Chrome, optionally through a proxy server.
type BrowserRenderer struct {
	ProxyServer string
	UserAgent   string
}

var blockedMarkers = []string{"access denied", "attention required", "just a moment", "captcha", "are you a robot"}

func (b *BrowserRenderer) Screenshot(ctx context.Context, pageURL, product string) ([]byte, error) {
	opts := append([]chromedp.ExecAllocatorOption{}, chromedp.DefaultExecAllocatorOptions[:]...)
	opts = append(opts, chromedp.WindowSize(1366, 900))
	if b.ProxyServer != "" {
		opts = append(opts, chromedp.ProxyServer(b.ProxyServer))
	}
	if b.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(b.UserAgent))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var title string
	if err := chromedp.Run(tabCtx,
		chromedp.Navigate(pageURL),
		chromedp.Sleep(2*time.Second),
		chromedp.Title(&title),
	); err != nil {
		return nil, err
	}
	lt := strings.ToLower(title)
	for _, m := range blockedMarkers {
		if strings.Contains(lt, m) {
			return nil, fmt.Errorf("%w: %q", ErrBlocked, title)
		}
	}

	if product != "" {
		var filled bool
		if err := chromedp.Run(tabCtx, chromedp.Evaluate(fillSearchJS(product), &filled)); err != nil {
			return nil, err
		}
		if filled {
			if err := chromedp.Run(tabCtx, chromedp.Sleep(3*time.Second)); err != nil {
				return nil, err
			}
		}
	}

	var shot []byte
	if err := chromedp.Run(tabCtx, chromedp.FullScreenshot(&shot, 80)); err != nil {
		return nil, err
	}
	return shot, nil
}
