package cdp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/dgnsrekt/netchat_agent/internal/capture"
	"github.com/dgnsrekt/netchat_agent/internal/config"
)

// Client manages CDP connections to browser tabs and routes network
// lifecycle events into the capture listener. Tab lifecycle transitions feed
// the store directly: a destroyed tab removes its capture key, an active-tab
// change resets all captured history.
type Client struct {
	cfg      *config.AgentConfig
	listener *capture.Listener
	store    *capture.Store

	allocCtx      context.Context
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	tabs   map[target.ID]*TabContext
	tabsMu sync.RWMutex

	done chan struct{}
}

// TabContext tracks one attached page target.
type TabContext struct {
	ID     target.ID
	URL    string
	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient builds an unconnected client.
func NewClient(cfg *config.AgentConfig, listener *capture.Listener, store *capture.Store) *Client {
	return &Client{
		cfg:      cfg,
		listener: listener,
		store:    store,
		tabs:     make(map[target.ID]*TabContext),
		done:     make(chan struct{}),
	}
}

// Connect attaches to the browser, subscribes to target discovery so new and
// closed tabs are tracked, and attaches to every existing page tab matching
// the URL filter. The recording flag must already be loaded by the caller.
func (c *Client) Connect(ctx context.Context) error {
	_ = ctx
	cdpURL := c.cfg.CDPURL()
	slog.Info("Connecting to Chromium", "url", cdpURL)

	c.allocCtx, c.allocCancel = chromedp.NewRemoteAllocator(context.Background(), cdpURL)
	c.browserCtx, c.browserCancel = chromedp.NewContext(c.allocCtx)

	if err := chromedp.Run(c.browserCtx); err != nil {
		return fmt.Errorf("failed to connect to browser: %w", err)
	}

	chromedp.ListenBrowser(c.browserCtx, c.onBrowserEvent)
	if err := chromedp.Run(c.browserCtx, target.SetDiscoverTargets(true)); err != nil {
		return fmt.Errorf("failed to enable target discovery: %w", err)
	}

	targets, err := chromedp.Targets(c.browserCtx)
	if err != nil {
		return fmt.Errorf("failed to enumerate targets: %w", err)
	}
	slog.Info("Found browser targets", "count", len(targets))

	attached := 0
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		if !c.matchesTabURL(t.URL) {
			slog.Debug("Skipping tab (url filter)", "url", t.URL)
			continue
		}
		if err := c.attachToTab(t.TargetID, t.URL); err != nil {
			slog.Error("Failed to attach to tab", "target_id", t.TargetID, "url", t.URL, "error", err)
			continue
		}
		attached++
	}

	slog.Info("Attached to tabs", "count", attached, "tab_url_filter", c.cfg.TabURLFilter)

	go c.watchActiveTab()
	return nil
}

func (c *Client) onBrowserEvent(ev interface{}) {
	switch e := ev.(type) {
	case *target.EventTargetCreated:
		info := e.TargetInfo
		if info.Type != "page" || !c.matchesTabURL(info.URL) {
			return
		}
		c.tabsMu.RLock()
		_, known := c.tabs[info.TargetID]
		c.tabsMu.RUnlock()
		if known {
			return
		}
		// Attaching runs CDP commands; never block the event dispatcher.
		go func() {
			if err := c.attachToTab(info.TargetID, info.URL); err != nil {
				slog.Error("Failed to attach to new tab", "target_id", info.TargetID, "error", err)
			}
		}()
	case *target.EventTargetDestroyed:
		c.detachTab(e.TargetID)
	}
}

func (c *Client) attachToTab(targetID target.ID, url string) error {
	tabCtx, tabCancel := chromedp.NewContext(c.allocCtx, chromedp.WithTargetID(targetID))
	tab := &TabContext{ID: targetID, URL: url, ctx: tabCtx, cancel: tabCancel}

	c.tabsMu.Lock()
	c.tabs[targetID] = tab
	c.tabsMu.Unlock()

	if err := chromedp.Run(tabCtx, network.Enable(), network.SetCacheDisabled(true)); err != nil {
		tabCancel()
		c.tabsMu.Lock()
		delete(c.tabs, targetID)
		c.tabsMu.Unlock()
		return fmt.Errorf("failed to enable network domain: %w", err)
	}

	chromedp.ListenTarget(tabCtx, c.createEventHandler(string(targetID)))
	slog.Info("Attached to tab", "target_id", targetID, "url", truncateURL(url))
	return nil
}

// detachTab tears down a closed tab and drops its capture key so memory does
// not grow across the tab's lifetime.
func (c *Client) detachTab(targetID target.ID) {
	c.tabsMu.Lock()
	tab, ok := c.tabs[targetID]
	if ok {
		delete(c.tabs, targetID)
	}
	c.tabsMu.Unlock()

	if !ok {
		return
	}

	tab.cancel()
	c.store.RemoveTab(string(targetID))
	slog.Info("Tab closed, capture removed", "target_id", targetID)
}

func (c *Client) createEventHandler(tabID string) func(ev interface{}) {
	return func(ev interface{}) {
		switch e := ev.(type) {
		case *network.EventRequestWillBeSent:
			c.listener.OnRequestWillBeSent(tabID, e)
		case *network.EventResponseReceived:
			c.listener.OnResponseReceived(tabID, e)
		case *network.EventLoadingFailed:
			c.listener.OnLoadingFailed(tabID, e)
		}
	}
}

// Close shuts down the client and all tab sessions.
func (c *Client) Close() error {
	close(c.done)

	c.tabsMu.Lock()
	for _, tab := range c.tabs {
		tab.cancel()
	}
	c.tabs = make(map[target.ID]*TabContext)
	c.tabsMu.Unlock()

	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}

	slog.Info("CDP client closed")
	return nil
}

// GetTabCount returns the number of attached tabs.
func (c *Client) GetTabCount() int {
	c.tabsMu.RLock()
	defer c.tabsMu.RUnlock()
	return len(c.tabs)
}

func (c *Client) matchesTabURL(url string) bool {
	if c.cfg.TabURLFilter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(url), strings.ToLower(c.cfg.TabURLFilter))
}

func truncateURL(url string) string {
	if len(url) > 120 {
		return url[:120] + "..."
	}
	return url
}
