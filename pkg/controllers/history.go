package controllers

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomcli/loom/pkg/chat"
	"github.com/loomcli/loom/pkg/logger"
	"github.com/sirupsen/logrus"
)

// HistoryFetcher is the pagination contract the history controller consumes
type HistoryFetcher interface {
	ListMessages(ctx context.Context, agentID, before string, limit int) ([]chat.Message, error)
}

// HistoryController pages persisted history into the shared transcript
// store. Pages are prepended, never interleaved, so it can run while a
// live turn streams: the two touch disjoint ends of an append-only list.
type HistoryController struct {
	fetcher  HistoryFetcher
	store    *TranscriptStore
	agentID  string
	pageSize int
	log      *logrus.Entry

	mu      sync.Mutex
	hasMore bool
	loaded  bool
}

func NewHistoryController(fetcher HistoryFetcher, store *TranscriptStore, agentID string, pageSize int) *HistoryController {
	if pageSize <= 0 {
		pageSize = 50
	}
	return &HistoryController{
		fetcher:  fetcher,
		store:    store,
		agentID:  agentID,
		pageSize: pageSize,
		hasMore:  true,
		log:      logger.WithComponent("history"),
	}
}

// HasMore reports whether older pages remain. Pagination stops once a
// fetched page comes back shorter than the requested size.
func (hc *HistoryController) HasMore() bool {
	hc.mu.Lock()
	defer hc.mu.Unlock()
	return hc.hasMore
}

// LoadInitial fetches the newest page of history. Noise is filtered and
// the injected greeting stripped before anything is merged.
func (hc *HistoryController) LoadInitial(ctx context.Context) error {
	hc.mu.Lock()
	if hc.loaded {
		hc.mu.Unlock()
		return nil
	}
	hc.mu.Unlock()

	page, err := hc.fetcher.ListMessages(ctx, hc.agentID, "", hc.pageSize)
	if err != nil {
		return fmt.Errorf("initial history load failed: %w", err)
	}

	full := len(page) >= hc.pageSize
	merged := chat.FilterControlMessages(page)
	merged = chat.StripInjectedGreeting(merged)
	hc.store.Prepend(merged)

	hc.mu.Lock()
	hc.loaded = true
	hc.hasMore = full
	hc.mu.Unlock()

	hc.log.WithFields(logrus.Fields{
		"fetched": len(page),
		"merged":  len(merged),
	}).Debug("initial history loaded")
	return nil
}

// LoadOlder prepends the page before the current oldest message. It
// returns whether more pages remain after this one.
func (hc *HistoryController) LoadOlder(ctx context.Context) (bool, error) {
	hc.mu.Lock()
	if !hc.hasMore {
		hc.mu.Unlock()
		return false, nil
	}
	hc.mu.Unlock()

	cursor, ok := hc.store.OldestID()
	if !ok {
		if err := hc.LoadInitial(ctx); err != nil {
			return false, err
		}
		return hc.HasMore(), nil
	}

	page, err := hc.fetcher.ListMessages(ctx, hc.agentID, cursor, hc.pageSize)
	if err != nil {
		return hc.HasMore(), fmt.Errorf("history page load failed: %w", err)
	}

	full := len(page) >= hc.pageSize
	merged := chat.FilterControlMessages(page)
	hc.store.Prepend(merged)

	hc.mu.Lock()
	hc.hasMore = full
	hc.mu.Unlock()

	hc.log.WithFields(logrus.Fields{
		"fetched": len(page),
		"merged":  len(merged),
		"cursor":  cursor,
	}).Debug("older history page loaded")
	return full, nil
}
