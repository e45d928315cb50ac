package browser

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/launcher/flags"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/use-agent/brightscrape/config"
	"github.com/use-agent/brightscrape/models"
	"github.com/ysmood/gson"
)

// Session owns one browser and the single page a scrape cycle drives. The
// portal's results grid is stateful server-side, so a session never runs
// more than one page, and runs are strictly sequential.
type Session struct {
	browser *rod.Browser
	page    *rod.Page
	router  *rod.HijackRouter
	portal  config.PortalConfig
	wait    time.Duration
}

// NewSession launches a browser with automation hiding applied and opens
// the working page. waitTimeout bounds individual element-presence waits
// for everything done through this session.
func NewSession(cfg config.BrowserConfig, portal config.PortalConfig, waitTimeout time.Duration) (*Session, error) {
	l := launcher.New().
		Headless(cfg.Headless).
		NoSandbox(cfg.NoSandbox)

	if cfg.BrowserBin != "" {
		l = l.Bin(cfg.BrowserBin)
	}
	if cfg.Proxy != "" {
		l = l.Proxy(cfg.Proxy)
	}

	// ── Automation-hiding flags ──────────────────────────────────────
	l.Set(flags.Flag("disable-blink-features"), "AutomationControlled")
	l.Delete(flags.Flag("enable-automation"))
	l.Set(flags.Flag("window-size"), "1920,1080")
	l.Set(flags.Flag("disable-extensions"))
	l.Set(flags.Flag("disable-dev-shm-usage"))
	l.Set(flags.Flag("disable-popup-blocking"))
	l.Set(flags.Flag("disable-renderer-backgrounding"))
	l.Set(flags.Flag("disable-background-timer-throttling"))
	l.Set(flags.Flag("disable-backgrounding-occluded-windows"))
	l.Set(flags.Flag("disable-component-update"))
	l.Set(flags.Flag("disable-default-apps"))
	l.Set(flags.Flag("no-first-run"))

	controlURL, err := l.Launch()
	if err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to launch browser",
			err,
		)
	}
	slog.Info("browser launched", "controlURL", controlURL)

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to connect to browser",
			err,
		)
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		browser.MustClose()
		return nil, models.NewScrapeError(
			models.ErrCodeBrowserCrash,
			"failed to open page",
			err,
		)
	}

	s := &Session{browser: browser, page: page, portal: portal, wait: waitTimeout}

	// Stealth JS only takes effect for navigations that happen after it
	// is installed, so it goes in before anything else.
	if cfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	s.router = setupHijack(page, cfg.BlockedResourceTypes)

	s.setHeaders(map[string]string{
		"Accept-Language": "en-US,en;q=0.9",
	})

	return s, nil
}

// Close releases the browser session. Safe to call on any exit path.
func (s *Session) Close() {
	if s.router != nil {
		_ = s.router.Stop()
	}
	s.browser.MustClose()
	slog.Info("browser session released")
}

// setHeaders applies extra HTTP headers to every request the page makes.
func (s *Session) setHeaders(headers map[string]string) {
	m := make(proto.NetworkHeaders, len(headers))
	for k, v := range headers {
		m[k] = gson.New(v)
	}
	_ = proto.NetworkSetExtraHTTPHeaders{Headers: m}.Call(s.page)
}

// settle waits a fixed delay for an asynchronous UI update to finish.
func (s *Session) settle(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
