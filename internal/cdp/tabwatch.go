package cdp

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
)

const visibilityEvalTimeout = 2 * time.Second

// watchActiveTab polls each attached tab's visibility state. CDP has no
// focus-change event, so activation is detected by asking the page itself.
// Whenever the active tab changes, all captured history is discarded; the
// reset is global, not per tab.
func (c *Client) watchActiveTab() {
	interval := time.Duration(c.cfg.ActivePollMS) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var active target.ID
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			next, changed := nextActiveTab(active, c.findVisibleTabs())
			if !changed {
				continue
			}
			if active != "" {
				c.store.ClearAll()
				slog.Info("Active tab changed, capture cleared", "previous", active, "current", next)
			}
			active = next
		}
	}
}

// nextActiveTab selects the active tab for one poll round. More than one tab
// can report itself visible at once (separate browser windows), so the
// current tab keeps its status while it remains visible; only when it is
// gone does the lowest visible target id take over. That keeps the selection
// stable across polls instead of flapping with map iteration order.
func nextActiveTab(current target.ID, visible []target.ID) (target.ID, bool) {
	if len(visible) == 0 {
		return current, false
	}
	for _, id := range visible {
		if id == current {
			return current, false
		}
	}
	sort.Slice(visible, func(i, j int) bool { return visible[i] < visible[j] })
	return visible[0], true
}

// findVisibleTabs returns the ids of every attached tab reporting itself
// visible.
func (c *Client) findVisibleTabs() []target.ID {
	c.tabsMu.RLock()
	tabs := make([]*TabContext, 0, len(c.tabs))
	for _, tab := range c.tabs {
		tabs = append(tabs, tab)
	}
	c.tabsMu.RUnlock()

	var visible []target.ID
	for _, tab := range tabs {
		evalCtx, cancel := context.WithTimeout(tab.ctx, visibilityEvalTimeout)
		var state string
		err := chromedp.Run(evalCtx, chromedp.Evaluate(`document.visibilityState`, &state))
		cancel()
		if err != nil {
			// The tab may be mid-close or unresponsive; skip it this round.
			slog.Debug("visibility probe failed", "target_id", tab.ID, "error", err)
			continue
		}
		if state == "visible" {
			visible = append(visible, tab.ID)
		}
	}
	return visible
}
