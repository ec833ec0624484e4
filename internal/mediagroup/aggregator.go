package mediagroup

import (
	"fmt"
	"sync"
	"time"
)

type Item struct {
	ChatID       int64
	UserID       int64
	MediaGroupID string
	Caption      string
	FileID       string
}

// Group is one album. FileIDs keep arrival order; Dropped counts files past
// the aggregator's limit.
type Group struct {
	ChatID  int64
	UserID  int64
	Caption string
	FileIDs []string
	Dropped int
}

type Options struct {
	Debounce time.Duration
	// MaxItems caps FileIDs per group. Zero keeps every file.
	MaxItems int
	OnFlush  func(Group)
}

type Aggregator struct {
	mu       sync.Mutex
	debounce time.Duration
	maxItems int
	onFlush  func(Group)
	groups   map[string]*pendingGroup
	closed   bool
}

type pendingGroup struct {
	group Group
	timer *time.Timer
}

func New(opts Options) *Aggregator {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 1200 * time.Millisecond
	}

	return &Aggregator{
		debounce: debounce,
		maxItems: opts.MaxItems,
		onFlush:  opts.OnFlush,
		groups:   make(map[string]*pendingGroup),
	}
}

func (a *Aggregator) Add(item Item) {
	if item.MediaGroupID == "" || item.FileID == "" {
		return
	}

	key := makeKey(item.ChatID, item.MediaGroupID)

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	pg, ok := a.groups[key]
	if !ok {
		pg = &pendingGroup{
			group: Group{
				ChatID:  item.ChatID,
				UserID:  item.UserID,
				Caption: item.Caption,
			},
		}
		a.groups[key] = pg
	}

	if a.maxItems > 0 && len(pg.group.FileIDs) >= a.maxItems {
		pg.group.Dropped++
	} else {
		pg.group.FileIDs = append(pg.group.FileIDs, item.FileID)
	}
	if item.Caption != "" {
		pg.group.Caption = item.Caption
	}

	if pg.timer != nil {
		pg.timer.Stop()
	}
	pg.timer = time.AfterFunc(a.debounce, func() {
		a.flush(key)
	})
}

// Pending reports how many albums are still collecting.
func (a *Aggregator) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.groups)
}

// Close stops pending timers and discards their groups.
func (a *Aggregator) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	for key, pg := range a.groups {
		if pg.timer != nil {
			pg.timer.Stop()
		}
		delete(a.groups, key)
	}
}

func (a *Aggregator) flush(key string) {
	a.mu.Lock()
	pg, ok := a.groups[key]
	if !ok {
		a.mu.Unlock()
		return
	}
	delete(a.groups, key)
	group := pg.group
	onFlush := a.onFlush
	a.mu.Unlock()

	if onFlush != nil {
		onFlush(group)
	}
}

func makeKey(chatID int64, mediaGroupID string) string {
	return fmt.Sprintf("%d:%s", chatID, mediaGroupID)
}
