package coord

import (
	"sync"

	"github.com/tesseract-protocol/tesseract/core/types"
)

// SwapGroupTracker tracks bounded sets of co-dependent records. A group
// either advances all members to READY together or is collectively
// failed by expiry; membership is capacity-bounded and, once a record
// is grouped, permanent.
type SwapGroupTracker struct {
	mu     sync.RWMutex
	groups map[types.Hash]*types.SwapGroup
}

// NewSwapGroupTracker creates an empty tracker.
func NewSwapGroupTracker() *SwapGroupTracker {
	return &SwapGroupTracker{
		groups: make(map[types.Hash]*types.SwapGroup),
	}
}

// Join adds txID to the group, creating the group on first join.
// Returns whether this call created the group.
func (t *SwapGroupTracker) Join(groupID, txID types.Hash) (created bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.groups[groupID]
	if !ok {
		t.groups[groupID] = &types.SwapGroup{
			ID:      groupID,
			Members: []types.Hash{txID},
		}
		return true, nil
	}
	if g.Full() {
		return false, ErrGroupFull
	}
	g.Members = append(g.Members, txID)
	return false, nil
}

// MarkReady increments the group's ready count and reports whether the
// group is now complete.
func (t *SwapGroupTracker) MarkReady(groupID types.Hash) (complete bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.groups[groupID]
	if !ok {
		return false
	}
	g.ReadyCount++
	return g.AllReady()
}

// Count returns the number of groups ever created.
func (t *SwapGroupTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.groups)
}

// MarkUnready decrements the group's ready count. Used when a READY
// member is forced to EXPIRED by a group expiry sweep.
func (t *SwapGroupTracker) MarkUnready(groupID types.Hash) {
	t.mu.Lock()
	defer t.mu.Unlock()

	g, ok := t.groups[groupID]
	if !ok || g.ReadyCount == 0 {
		return
	}
	g.ReadyCount--
}

// Get returns a copy of the group.
func (t *SwapGroupTracker) Get(groupID types.Hash) (*types.SwapGroup, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.groups[groupID]
	if !ok {
		return nil, false
	}
	return g.Copy(), true
}

// Size returns the member count of the group, 0 when it does not exist.
func (t *SwapGroupTracker) Size(groupID types.Hash) int {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.groups[groupID]
	if !ok {
		return 0
	}
	return len(g.Members)
}

// Status returns (size, readyCount, allReady) for the group. A missing
// group reports (0, 0, false).
func (t *SwapGroupTracker) Status(groupID types.Hash) (size, ready int, allReady bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	g, ok := t.groups[groupID]
	if !ok {
		return 0, 0, false
	}
	return len(g.Members), g.ReadyCount, g.AllReady()
}
