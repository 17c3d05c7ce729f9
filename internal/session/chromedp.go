package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/storage"
	"github.com/chromedp/chromedp"

	"github.com/alanyoungcy/loungebot/internal/domain"
)

// chromeMu serializes Chrome usage so only one instance runs at a time.
var chromeMu sync.Mutex

// ChromeConfig configures the browser-driven login.
type ChromeConfig struct {
	// SteamBaseURL is loaded before cookie injection, e.g.
	// "https://steamcommunity.com".
	SteamBaseURL string
	// LoginRedirectURL is the OpenID checkid_setup URL that sends an
	// authenticated Steam user back to the pool site.
	LoginRedirectURL string
	// LoginURL is the pool site's login endpoint, visited after the OpenID
	// round trip completes.
	LoginURL string
	// SiteURL is the pool site root where the session token is exposed.
	SiteURL string
	// SteamCookiesPath is a JSON file of Steam browser cookies. It is read
	// before login and rewritten afterwards so refreshed cookies survive.
	SteamCookiesPath string
	// LoginButtonID is the DOM id of the OpenID confirm button.
	LoginButtonID string

	Headless bool
	Timeout  time.Duration
}

// ChromeAuthenticator logs in to the pool site by injecting saved Steam
// cookies into a headless browser and driving the OpenID confirmation.
type ChromeAuthenticator struct {
	cfg    ChromeConfig
	logger *slog.Logger
}

// NewChromeAuthenticator creates a browser-driven Authenticator.
func NewChromeAuthenticator(cfg ChromeConfig, logger *slog.Logger) *ChromeAuthenticator {
	if cfg.LoginButtonID == "" {
		cfg.LoginButtonID = "imageLogin"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 2 * time.Minute
	}
	return &ChromeAuthenticator{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "session.chrome")),
	}
}

// steamCookie is the on-disk cookie format, compatible with browser cookie
// export extensions.
type steamCookie struct {
	Name     string  `json:"name"`
	Value    string  `json:"value"`
	Domain   string  `json:"domain"`
	Path     string  `json:"path"`
	Expires  float64 `json:"expiry,omitempty"`
	Secure   bool    `json:"secure"`
	HTTPOnly bool    `json:"httpOnly"`
}

// Authenticate runs one full login: inject Steam cookies, follow the OpenID
// redirect, confirm, then read the PHP session cookie and page token from the
// pool site. Refreshed Steam cookies are written back to disk on success.
func (a *ChromeAuthenticator) Authenticate(ctx context.Context) (Session, error) {
	chromeMu.Lock()
	defer chromeMu.Unlock()

	cookies, err := a.loadSteamCookies()
	if err != nil {
		return Session{}, err
	}

	userDir, err := os.MkdirTemp("", "loungebot_chrome_")
	if err != nil {
		return Session{}, fmt.Errorf("session: chrome temp dir: %w", err)
	}
	defer os.RemoveAll(userDir)

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", a.cfg.Headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.WindowSize(1280, 720),
		chromedp.UserDataDir(userDir),
	)

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserVerbose := os.Getenv("LOUNGEBOT_CHROME_DEBUG") == "1"
	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(format string, v ...interface{}) {
		if browserVerbose {
			a.logger.Debug("chromedp", slog.String("message", fmt.Sprintf(format, v...)))
		}
	}))
	defer cancelBrowser()

	var (
		token      string
		allCookies []*network.Cookie
	)

	err = chromedp.Run(browserCtx,
		chromedp.Navigate(a.cfg.SteamBaseURL),
		a.injectCookies(cookies),
		chromedp.Navigate(a.cfg.LoginRedirectURL),
		chromedp.WaitVisible("#"+a.cfg.LoginButtonID, chromedp.ByID),
		chromedp.Click("#"+a.cfg.LoginButtonID, chromedp.ByID),
		// The OpenID round trip redirects twice with no stable completion
		// marker to wait on.
		chromedp.Sleep(5*time.Second),
		chromedp.Navigate(a.cfg.LoginURL),
		chromedp.Navigate(a.cfg.SiteURL),
		chromedp.Evaluate("GetSessionToken", &token),
		chromedp.ActionFunc(func(ctx context.Context) error {
			var err error
			allCookies, err = storage.GetCookies().Do(ctx)
			return err
		}),
	)
	if err != nil {
		return Session{}, fmt.Errorf("session: browser login: %w", err)
	}

	sessCookie := findCookie(allCookies, "PHPSESSID")
	if sessCookie == "" {
		return Session{}, fmt.Errorf("session: browser login: %w: no PHPSESSID cookie", domain.ErrUnauthorized)
	}
	if token == "" {
		return Session{}, fmt.Errorf("session: browser login: %w: empty session token", domain.ErrUnauthorized)
	}

	a.saveSteamCookies(allCookies)

	return Session{Cookie: sessCookie, Token: token}, nil
}

func (a *ChromeAuthenticator) injectCookies(cookies []steamCookie) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		for _, c := range cookies {
			p := network.SetCookie(c.Name, c.Value).
				WithDomain(c.Domain).
				WithPath(c.Path).
				WithSecure(c.Secure).
				WithHTTPOnly(c.HTTPOnly)
			if c.Expires > 0 {
				expires := cdp.TimeSinceEpoch(time.Unix(int64(c.Expires), 0))
				p = p.WithExpires(&expires)
			}
			if err := p.Do(ctx); err != nil {
				return fmt.Errorf("set cookie %s: %w", c.Name, err)
			}
		}
		return nil
	})
}

func (a *ChromeAuthenticator) loadSteamCookies() ([]steamCookie, error) {
	data, err := os.ReadFile(a.cfg.SteamCookiesPath)
	if err != nil {
		return nil, fmt.Errorf("session: read steam cookies %s: %w", a.cfg.SteamCookiesPath, err)
	}
	var cookies []steamCookie
	if err := json.Unmarshal(data, &cookies); err != nil {
		return nil, fmt.Errorf("session: decode steam cookies: %w", err)
	}
	return cookies, nil
}

// saveSteamCookies writes the browser's current cookies back to the cookie
// file so rotated Steam session cookies are kept for the next login.
func (a *ChromeAuthenticator) saveSteamCookies(cookies []*network.Cookie) {
	out := make([]steamCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, steamCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			Secure:   c.Secure,
			HTTPOnly: c.HTTPOnly,
		})
	}
	data, err := json.Marshal(out)
	if err != nil {
		return
	}
	if err := os.WriteFile(a.cfg.SteamCookiesPath, data, 0o600); err != nil {
		a.logger.Warn("failed to save steam cookies",
			slog.String("path", a.cfg.SteamCookiesPath),
			slog.String("error", err.Error()))
	}
}

func findCookie(cookies []*network.Cookie, name string) string {
	for _, c := range cookies {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}
