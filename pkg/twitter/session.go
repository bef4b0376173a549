package twitter

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/playwright-community/playwright-go"

	"xwatch/pkg/config"
	"xwatch/pkg/logger"
)

const (
	loginURL       = siteOrigin + "/i/flow/login"
	homeURLPattern = "**/home"
	loginProbeMs   = 3000
)

// Session owns the logged-in browser context every extraction runs through.
// One session serves one logical flow at a time; callers are expected to be
// strictly sequential.
type Session struct {
	pw         *playwright.Playwright
	browser    playwright.Browser
	context    playwright.BrowserContext
	browserCfg config.BrowserConfig
	scraperCfg config.ScraperConfig
	logger     logger.Logger
}

// NewSession launches the browser and opens a context seeded from the
// persisted storage state file, creating that file first if it is missing.
func NewSession(browserCfg config.BrowserConfig, scraperCfg config.ScraperConfig) (*Session, error) {
	pw, err := playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.WebKit.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(browserCfg.Headless),
	})
	if err != nil {
		pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	viewport := &playwright.Size{
		Width:  browserCfg.Viewport.Width,
		Height: browserCfg.Viewport.Height,
	}

	// Seed the state file from a throwaway context on first run
	if _, err := os.Stat(browserCfg.StateFile); os.IsNotExist(err) {
		seed, err := browser.NewContext(playwright.BrowserNewContextOptions{
			Viewport: viewport,
		})
		if err != nil {
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to create browser context: %w", err)
		}
		if _, err := seed.StorageState(browserCfg.StateFile); err != nil {
			seed.Close()
			browser.Close()
			pw.Stop()
			return nil, fmt.Errorf("failed to seed state file: %w", err)
		}
		seed.Close()
	}

	context, err := browser.NewContext(playwright.BrowserNewContextOptions{
		StorageStatePath: playwright.String(browserCfg.StateFile),
		Viewport:         viewport,
	})
	if err != nil {
		browser.Close()
		pw.Stop()
		return nil, fmt.Errorf("failed to create browser context: %w", err)
	}

	return &Session{
		pw:         pw,
		browser:    browser,
		context:    context,
		browserCfg: browserCfg,
		scraperCfg: scraperCfg,
		logger:     logger.GetLogger(),
	}, nil
}

// IsLoggedIn checks session validity by visiting the site and waiting for
// the redirect to the home timeline
func (s *Session) IsLoggedIn() bool {
	page, err := s.context.NewPage()
	if err != nil {
		return false
	}
	defer page.Close()

	if _, err := page.Goto(siteOrigin); err != nil {
		return false
	}

	if err := page.WaitForURL(homeURLPattern, playwright.PageWaitForURLOptions{
		Timeout: playwright.Float(loginProbeMs),
	}); err != nil {
		return false
	}

	return true
}

// Login walks the interactive login flow: username into the first input,
// password into the last, and success once the home timeline loads
func (s *Session) Login(username, password string) bool {
	page, err := s.context.NewPage()
	if err != nil {
		return false
	}
	defer page.Close()

	if _, err := page.Goto(loginURL); err != nil {
		return false
	}

	if err := page.Locator(selLoginInput).First().Fill(username); err != nil {
		return false
	}
	next := page.Locator(selSpan, playwright.PageLocatorOptions{HasText: "Next"})
	if err := next.First().Click(); err != nil {
		return false
	}

	if err := page.Locator(selLoginInput).Last().Fill(password); err != nil {
		return false
	}
	login := page.Locator(selSpan, playwright.PageLocatorOptions{HasText: "Log in"})
	if err := login.First().Click(); err != nil {
		return false
	}

	if err := page.WaitForURL(homeURLPattern); err != nil {
		return false
	}

	s.logger.Info("login succeeded")
	return true
}

// PersistState writes the context's storage state back to the state file so
// the next process start skips the login flow
func (s *Session) PersistState() error {
	if _, err := s.context.StorageState(s.browserCfg.StateFile); err != nil {
		return fmt.Errorf("failed to persist session state: %w", err)
	}
	return nil
}

// Collect opens the account's profile page and runs the pagination loop
// until minimum unique posts have been extracted or the feed stalls
func (s *Session) Collect(ctx context.Context, account string, minimum int) ([]Tweet, error) {
	page, err := s.context.NewPage()
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer page.Close()

	if _, err := page.Goto(siteOrigin + "/" + account); err != nil {
		return nil, fmt.Errorf("failed to open profile %s: %w", account, err)
	}

	feed := &profileFeed{
		page:         page,
		settleDelay:  s.scraperCfg.SettleDelay,
		probeTimeout: s.scraperCfg.ProbeTimeout,
	}

	return Collect(ctx, feed, minimum, s.scraperCfg.MaxScrollPasses), nil
}

// Close tears down the context, browser, and driver
func (s *Session) Close() {
	s.context.Close()
	s.browser.Close()
	s.pw.Stop()
}

// profileFeed adapts an open profile page to the Feed contract
type profileFeed struct {
	page         playwright.Page
	settleDelay  time.Duration
	probeTimeout time.Duration
}

func (f *profileFeed) Settle(ctx context.Context) {
	timer := time.NewTimer(f.settleDelay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}

func (f *profileFeed) Posts() []Element {
	matches, err := f.page.Locator(selTimelinePosts).All()
	if err != nil {
		return nil
	}
	elements := make([]Element, 0, len(matches))
	for _, match := range matches {
		elements = append(elements, newElement(match, f.probeTimeout))
	}
	return elements
}

func (f *profileFeed) ScrollToBottom() error {
	_, err := f.page.Evaluate("window.scrollTo(0, document.body.scrollHeight)")
	return err
}
