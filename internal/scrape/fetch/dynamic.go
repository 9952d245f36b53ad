package fetch

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/stealth"

	"watchscout-engine/internal/domain"
	"watchscout-engine/internal/scrape/util"
)

const waitSelectorTimeout = 10 * time.Second

// Dynamic renders pages in headless Chrome via Rod for sources that build
// their listings client-side. The browser process is launched lazily on the
// first fetch and must be released with Close.
type Dynamic struct {
	src     domain.SourceConfig
	limiter *util.DomainLimiter

	mu      sync.Mutex
	lnch    *launcher.Launcher
	browser *rod.Browser
	closed  bool
}

func NewDynamic(src domain.SourceConfig, limiter *util.DomainLimiter) *Dynamic {
	return &Dynamic{src: src, limiter: limiter}
}

func (d *Dynamic) connect() (*rod.Browser, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return nil, fmt.Errorf("%w: backend is closed", ErrFetch)
	}
	if d.browser != nil {
		return d.browser, nil
	}

	l := launcher.New().Headless(true)
	l = l.Set("disable-blink-features", "AutomationControlled")

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("%w: launch browser: %v", ErrFetch, err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("%w: connect browser: %v", ErrFetch, err)
	}

	d.lnch = l
	d.browser = b
	log.Printf("[fetch:%s] headless browser launched", d.src.Name)
	return b, nil
}

// navigate opens a fresh stealth tab and loads url. Callers must close the
// returned page.
func (d *Dynamic) navigate(ctx context.Context, url string) (*rod.Page, error) {
	if err := d.limiter.Wait(ctx, d.src.Domain, d.src.RateLimit); err != nil {
		return nil, err
	}

	b, err := d.connect()
	if err != nil {
		return nil, err
	}

	page, err := stealth.Page(b)
	if err != nil {
		return nil, fmt.Errorf("%w: create tab: %v", ErrFetch, err)
	}

	navCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := page.Context(navCtx).Navigate(url); err != nil {
		page.Close()
		return nil, fmt.Errorf("%w: navigate %s: %v", ErrFetch, url, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		log.Printf("[fetch:%s] wait load timeout url=%s err=%v", d.src.Name, url, err)
	}
	return page, nil
}

func (d *Dynamic) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	page, err := d.navigate(ctx, url)
	if err != nil {
		return nil, err
	}
	defer page.Close()

	// Wait for the configured selector; on timeout keep whatever rendered
	// rather than failing the whole fetch.
	if d.src.WaitSelector != "" {
		waitCtx, cancel := context.WithTimeout(ctx, waitSelectorTimeout)
		if _, err := page.Context(waitCtx).Element(d.src.WaitSelector); err != nil {
			log.Printf("[fetch:%s] degraded: selector %q not found in %s, using partial render",
				d.src.Name, d.src.WaitSelector, waitSelectorTimeout)
		}
		cancel()
	}

	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, fmt.Errorf("%w: read DOM %s: %v", ErrFetch, url, err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrFetch, url, err)
	}
	return doc, nil
}

// CheckReachable navigates and compares the post-navigation URL with the
// requested one. Sold or removed listings on rendered sites typically bounce
// to the home page or an error page off the original path.
func (d *Dynamic) CheckReachable(ctx context.Context, url string) (bool, error) {
	page, err := d.navigate(ctx, url)
	if err != nil {
		return false, err
	}
	defer page.Close()

	info, err := page.Context(ctx).Info()
	if err != nil {
		return false, fmt.Errorf("%w: page info: %v", ErrFetch, err)
	}

	current := info.URL
	if !strings.Contains(current, url) && !strings.Contains(current, d.src.Domain) {
		return false, nil
	}
	return true, nil
}

func (d *Dynamic) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if d.browser != nil {
		if err := d.browser.Close(); err != nil {
			log.Printf("[fetch:%s] browser close: %v", d.src.Name, err)
		}
		d.browser = nil
	}
	if d.lnch != nil {
		d.lnch.Kill()
		d.lnch = nil
	}
	return nil
}
