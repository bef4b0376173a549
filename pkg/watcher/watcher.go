// Package watcher runs the main loop: it decides which watched accounts are
// due, keeps the browser session logged in, and relays qualifying posts to
// their webhooks.
package watcher

import (
	"context"
	"time"

	"xwatch/pkg/config"
	"xwatch/pkg/discord"
	"xwatch/pkg/filter"
	"xwatch/pkg/history"
	"xwatch/pkg/logger"
	"xwatch/pkg/twitter"
)

// Collector is the logged-in session capability the watcher drives
type Collector interface {
	IsLoggedIn() bool
	Login(username, password string) bool
	PersistState() error
	Collect(ctx context.Context, account string, minimum int) ([]twitter.Tweet, error)
}

// Deliverer posts formatted payloads to a webhook address
type Deliverer interface {
	Deliver(ctx context.Context, webhookURL string, payload *discord.WebhookPayload) error
}

// History is the seen-post store the watcher deduplicates against
type History interface {
	Has(webhook, account, id string, mode history.Mode) (bool, error)
	Add(webhook, account, id string) error
}

// Entry is one watched account with its relay settings and check cadence
type Entry struct {
	Account    string
	Webhook    string
	WebhookURL string
	Mode       history.Mode
	Rules      filter.Rules
	Interval   time.Duration

	// lastChecked is stamped when the entry is selected for checking, not
	// when the check completes, so Interval is a true minimum spacing
	// between check starts.
	lastChecked time.Time
}

// state names the phases of the main loop
type state int

const (
	stateIdle state = iota
	stateLoginCheck
	stateProcessing
)

// Watcher owns the scheduling loop. Accounts are checked strictly
// sequentially; the single browser session serves one flow at a time.
type Watcher struct {
	entries   []*Entry
	pending   []*Entry
	collector Collector
	deliverer Deliverer
	store     History
	login     config.LoginConfig
	scraper   config.ScraperConfig
	style     config.EmbedConfig
	logger    logger.Logger
	now       func() time.Time
}

// New builds a watcher from the validated configuration
func New(cfg *config.Config, collector Collector, deliverer Deliverer, store History) (*Watcher, error) {
	entries := make([]*Entry, 0, len(cfg.Twitter.Watch))
	for account, watch := range cfg.Twitter.Watch {
		mode, err := history.ParseMode(watch.History)
		if err != nil {
			return nil, err
		}
		entries = append(entries, &Entry{
			Account:    account,
			Webhook:    watch.Webhook,
			WebhookURL: cfg.Discord.Webhooks[watch.Webhook],
			Mode:       mode,
			Rules: filter.Rules{
				Posts:        watch.Posts,
				Reposts:      watch.Reposts,
				Pinned:       watch.Pinned,
				WithImages:   watch.WithImages,
				WithVideos:   watch.WithVideos,
				WithoutMedia: watch.WithoutMedia,
			},
			Interval: watch.Interval(),
		})
	}

	return &Watcher{
		entries:   entries,
		collector: collector,
		deliverer: deliverer,
		store:     store,
		login:     cfg.Twitter.Login,
		scraper:   cfg.Scraper,
		style:     cfg.Discord.Embed,
		logger:    logger.GetLogger(),
		now:       time.Now,
	}, nil
}

// Run drives the state machine until the context is cancelled. An in-flight
// account check finishes before Run returns, so history updates are never
// left half-applied.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.InfoWithFields("watcher started", map[string]interface{}{
		"accounts": len(w.entries),
	})

	current := stateIdle
	for ctx.Err() == nil {
		current = w.step(ctx, current)
	}

	w.logger.Info("watcher stopped")
	return ctx.Err()
}

// step runs one transition of the main loop and returns the next state
func (w *Watcher) step(ctx context.Context, current state) state {
	switch current {
	case stateIdle:
		w.pending = append(w.pending, w.due()...)
		if len(w.pending) == 0 {
			w.sleep(ctx, w.scraper.IdlePoll)
			return stateIdle
		}
		return stateLoginCheck

	case stateLoginCheck:
		if !w.ensureLoggedIn() {
			w.logger.WarnWithFields("login failed, backing off", map[string]interface{}{
				"backoff": w.scraper.LoginBackoff,
			})
			w.sleep(ctx, w.scraper.LoginBackoff)
			// pending entries survive so they are checked once login recovers
			return stateIdle
		}
		return stateProcessing

	default: // stateProcessing
		for _, entry := range w.pending {
			if ctx.Err() != nil {
				break
			}
			w.check(ctx, entry)
		}
		w.pending = nil
		return stateIdle
	}
}

// due returns the entries whose interval has elapsed, in discovery order,
// stamping lastChecked at selection time
func (w *Watcher) due() []*Entry {
	now := w.now()
	var due []*Entry
	for _, entry := range w.entries {
		if !entry.lastChecked.Add(entry.Interval).After(now) {
			entry.lastChecked = now
			due = append(due, entry)
		}
	}
	return due
}

// ensureLoggedIn verifies the session and walks the login flow if needed
func (w *Watcher) ensureLoggedIn() bool {
	if w.collector.IsLoggedIn() {
		return true
	}

	w.logger.Info("session expired, logging in")
	if !w.collector.Login(w.login.Username, w.login.Password) {
		return false
	}

	if err := w.collector.PersistState(); err != nil {
		w.logger.WithError(err).Warn("failed to persist session state")
	}
	return true
}

// check runs one account pass: a bulk catch-up on the first-ever check,
// a steady-state incremental pass otherwise
func (w *Watcher) check(ctx context.Context, entry *Entry) {
	log := w.logger.WithField("account", entry.Account)

	// The existence probe always runs by-account: by-author answers true
	// for any known webhook, which would mask a first run.
	known, err := w.store.Has(entry.Webhook, entry.Account, "", history.ModeByAccount)
	if err != nil {
		log.WithError(err).Error("history probe failed")
		return
	}

	if !known {
		w.bulkCatchUp(ctx, entry)
		return
	}
	w.steadyState(ctx, entry)
}

// bulkCatchUp records the account's current timeline without delivering
// anything, so the first run does not flood the webhook with old posts
func (w *Watcher) bulkCatchUp(ctx context.Context, entry *Entry) {
	log := w.logger.WithField("account", entry.Account)
	log.Info("first check, backfilling history")

	tweets, err := w.collector.Collect(ctx, entry.Account, w.scraper.BulkMinimum)
	if err != nil {
		log.WithError(err).Error("collection failed")
		return
	}

	// Establish the account entry even when the timeline is empty
	if err := w.store.Add(entry.Webhook, entry.Account, ""); err != nil {
		log.WithError(err).Error("history update failed")
		return
	}

	for _, tweet := range tweets {
		if err := w.store.Add(entry.Webhook, entry.Account, tweet.ID); err != nil {
			log.WithError(err).Error("history update failed")
			return
		}
	}

	log.InfoWithFields("backfill complete", map[string]interface{}{
		"recorded": len(tweets),
	})
}

// steadyState collects the newest posts and relays the unseen ones that
// pass the account's filters
func (w *Watcher) steadyState(ctx context.Context, entry *Entry) {
	log := w.logger.WithField("account", entry.Account)

	tweets, err := w.collector.Collect(ctx, entry.Account, w.scraper.SteadyMinimum)
	if err != nil {
		log.WithError(err).Error("collection failed")
		return
	}

	sent := 0
	for _, tweet := range tweets {
		seen, err := w.store.Has(entry.Webhook, entry.Account, tweet.ID, entry.Mode)
		if err != nil {
			log.WithError(err).Error("history lookup failed")
			continue
		}
		if seen {
			continue
		}

		if !filter.Sendable(entry.Rules, tweet) {
			// Filtered posts can never become sendable later; record them
			// immediately so they are not re-evaluated every cycle.
			if err := w.store.Add(entry.Webhook, entry.Account, tweet.ID); err != nil {
				log.WithError(err).Error("history update failed")
			}
			continue
		}

		payload := discord.BuildPayload(tweet, w.style)
		if err := w.deliverer.Deliver(ctx, entry.WebhookURL, payload); err != nil {
			// Not recorded as seen: the post is retried on the next cycle
			log.WithError(err).WithField("id", tweet.ID).Error("delivery failed")
			continue
		}

		if err := w.store.Add(entry.Webhook, entry.Account, tweet.ID); err != nil {
			log.WithError(err).Error("history update failed")
		}
		sent++
	}

	if sent > 0 {
		log.InfoWithFields("relayed posts", map[string]interface{}{
			"sent": sent,
		})
	}
}

// sleep waits the given duration, returning early on cancellation
func (w *Watcher) sleep(ctx context.Context, delay time.Duration) {
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
	case <-timer.C:
	}
}
