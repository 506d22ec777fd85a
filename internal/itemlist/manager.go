package itemlist

import (
	"context"
	"log/slog"
	"slices"
	"sync"

	"github.com/mmcdole/watchlist/internal/domain"
)

// Manager owns the signed-in user's items for one session. Local state
// changes first; remote writes run in the background and failures are only
// logged. Nothing is retried or rolled back.
type Manager struct {
	repo   domain.ItemRepository
	logger *slog.Logger
	drafts *Drafts

	mu     sync.RWMutex
	userID string
	items  []domain.Item

	writes sync.WaitGroup
}

// NewManager creates a manager backed by repo
func NewManager(repo domain.ItemRepository, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{repo: repo, logger: logger, drafts: NewDrafts()}
}

// Drafts returns the pending-edit buffer for this session
func (m *Manager) Drafts() *Drafts {
	return m.drafts
}

// UserID returns the user the manager was last loaded for
func (m *Manager) UserID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.userID
}

// Load replaces the in-memory items with the user's stored items. On error
// the previous items are kept.
func (m *Manager) Load(ctx context.Context, userID string) error {
	if userID == "" {
		return domain.ErrNotSignedIn
	}

	items, err := m.repo.ListByUser(ctx, userID)
	if err != nil {
		m.logger.Error("failed to load items", "error", err, "userID", userID)
		// a failed first load still scopes new items to this user
		m.mu.Lock()
		if m.userID == "" {
			m.userID = userID
		}
		m.mu.Unlock()
		return err
	}

	seen := make(map[string]bool, len(items))
	owned := make([]domain.Item, 0, len(items))
	for _, it := range items {
		if it.UserID != userID {
			m.logger.Warn("dropping item owned by another user", "id", it.ID)
			continue
		}
		if it.ID == "" || seen[it.ID] {
			continue
		}
		seen[it.ID] = true
		owned = append(owned, it)
	}

	m.mu.Lock()
	m.userID = userID
	m.items = owned
	m.mu.Unlock()

	m.logger.Debug("loaded items", "count", len(owned), "userID", userID)
	return nil
}

// Create persists a new item with defaults derived from the active filters
// and appends it once the store has assigned an ID.
func (m *Manager) Create(ctx context.Context, filters domain.Filters) (domain.Item, error) {
	userID := m.UserID()
	if userID == "" {
		return domain.Item{}, domain.ErrNotSignedIn
	}

	item := NewItem(filters, userID)
	id, err := m.repo.Create(ctx, item)
	if err != nil {
		m.logger.Error("failed to add item", "error", err)
		return domain.Item{}, err
	}
	item.ID = id

	m.mu.Lock()
	m.items = append(m.items, item)
	m.mu.Unlock()

	m.logger.Debug("added item", "id", id, "status", item.Status, "genre", item.Genre)
	return item.Clone(), nil
}

// Update applies patch to the item locally and persists it in the
// background. Setting status to completed also aligns the episode counts.
func (m *Manager) Update(ctx context.Context, id string, patch domain.ItemPatch) {
	patch = clampPatch(patch)
	if patch.IsEmpty() {
		return
	}

	m.mu.Lock()
	idx := m.indexOf(id)
	if idx < 0 {
		m.mu.Unlock()
		m.logger.Warn("update for unknown item", "id", id)
		return
	}
	patch = coupleCompletion(m.items[idx], patch)
	patch.ApplyTo(&m.items[idx])
	m.mu.Unlock()

	m.persist(ctx, "update", id, func(ctx context.Context) error {
		return m.repo.Update(ctx, id, patch)
	})
}

// CommitDraft applies the pending edit for a field, if there is one
func (m *Manager) CommitDraft(ctx context.Context, id string, field Field) error {
	patch, ok, err := m.drafts.Commit(id, field)
	if err != nil || !ok {
		return err
	}
	m.Update(ctx, id, patch)
	return nil
}

// Remove drops the item immediately and deletes it remotely in the background
func (m *Manager) Remove(ctx context.Context, id string) {
	m.mu.Lock()
	idx := m.indexOf(id)
	if idx >= 0 {
		m.items = slices.Delete(m.items, idx, idx+1)
	}
	m.mu.Unlock()

	m.drafts.DiscardItem(id)
	if idx < 0 {
		m.logger.Warn("remove for unknown item", "id", id)
		return
	}

	m.persist(ctx, "delete", id, func(ctx context.Context) error {
		return m.repo.Delete(ctx, id)
	})
}

// Items returns a snapshot of the in-memory items in storage order
func (m *Manager) Items() []domain.Item {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Item, len(m.items))
	for i, it := range m.items {
		out[i] = it.Clone()
	}
	return out
}

// Get returns a copy of one item
func (m *Manager) Get(id string) (domain.Item, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if idx := m.indexOf(id); idx >= 0 {
		return m.items[idx].Clone(), true
	}
	return domain.Item{}, false
}

// Visible returns the projection of the current items
func (m *Manager) Visible(filters domain.Filters) []domain.Item {
	return Project(m.Items(), filters)
}

// Wait blocks until background writes have finished
func (m *Manager) Wait() {
	m.writes.Wait()
}

// Reset forgets the user and all items. Pending drafts are discarded.
func (m *Manager) Reset() {
	m.mu.Lock()
	m.userID = ""
	m.items = nil
	m.mu.Unlock()
	m.drafts.Clear()
}

// persist runs a remote write detached from the caller's cancellation.
// In-flight writes cannot be aborted; later writes simply race them.
func (m *Manager) persist(ctx context.Context, op, id string, write func(context.Context) error) {
	ctx = context.WithoutCancel(ctx)
	m.writes.Add(1)
	go func() {
		defer m.writes.Done()
		if err := write(ctx); err != nil {
			m.logger.Error("failed to persist item", "op", op, "error", err, "id", id)
			return
		}
		m.logger.Debug("persisted item", "op", op, "id", id)
	}()
}

func (m *Manager) indexOf(id string) int {
	return slices.IndexFunc(m.items, func(it domain.Item) bool { return it.ID == id })
}

// coupleCompletion makes a patch that sets status=completed also set both
// episode counts to the same value: the total if known, else the current
// count. When neither is known the counts stay unset.
func coupleCompletion(current domain.Item, patch domain.ItemPatch) domain.ItemPatch {
	if patch.Status == nil || *patch.Status != domain.StatusCompleted {
		return patch
	}

	after := current.Clone()
	patch.ApplyTo(&after)

	var n int
	switch {
	case after.TotalEpisode != nil:
		n = *after.TotalEpisode
	case after.CurrentEpisode != nil:
		n = *after.CurrentEpisode
	default:
		return patch
	}
	patch.CurrentEpisode = domain.SetInt(n)
	patch.TotalEpisode = domain.SetInt(n)
	return patch
}

// clampPatch keeps numeric fields non-negative and the rating within range
func clampPatch(p domain.ItemPatch) domain.ItemPatch {
	if p.Rating != nil {
		r := clampRating(*p.Rating)
		p.Rating = &r
	}
	p.CurrentEpisode = clampNullInt(p.CurrentEpisode)
	p.TotalEpisode = clampNullInt(p.TotalEpisode)
	p.Season = clampNullInt(p.Season)
	p.MovieOrder = clampNullInt(p.MovieOrder)
	return p
}

func clampNullInt(n *domain.NullInt) *domain.NullInt {
	if n == nil || !n.Valid || n.Int >= 0 {
		return n
	}
	return domain.SetInt(0)
}

func clampRating(r int) int {
	return max(0, min(domain.MaxRating, r))
}
