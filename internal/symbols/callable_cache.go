package symbols

import (
	"sync"

	"github.com/funvibe/closig/internal/typesystem"
)

// TraitLookup is the read-only view of a trait table that inference needs.
type TraitLookup interface {
	CallableTraits(scope ScopeID) []typesystem.TraitID
	AssociatedTypeTrait(id typesystem.AssocTypeID) (typesystem.TraitID, bool)
}

// CallableTraitCache memoizes CallableTraits per scope. It is safe for use
// by inference passes running concurrently.
type CallableTraitCache struct {
	inner TraitLookup

	mu   sync.RWMutex
	sets map[ScopeID][]typesystem.TraitID
}

// NewCallableTraitCache wraps inner with a per-scope cache.
func NewCallableTraitCache(inner TraitLookup) *CallableTraitCache {
	return &CallableTraitCache{
		inner: inner,
		sets:  make(map[ScopeID][]typesystem.TraitID),
	}
}

func (c *CallableTraitCache) CallableTraits(scope ScopeID) []typesystem.TraitID {
	c.mu.RLock()
	ids, ok := c.sets[scope]
	c.mu.RUnlock()
	if ok {
		return ids
	}

	ids = c.inner.CallableTraits(scope)
	c.mu.Lock()
	c.sets[scope] = ids
	c.mu.Unlock()
	return ids
}

func (c *CallableTraitCache) AssociatedTypeTrait(id typesystem.AssocTypeID) (typesystem.TraitID, bool) {
	return c.inner.AssociatedTypeTrait(id)
}

// Len returns the number of cached scopes.
func (c *CallableTraitCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.sets)
}
