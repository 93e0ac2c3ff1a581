// Package observability provides hooks for instrumenting graph walks and
// link operations.
//
// Libraries emit events through the registered hooks; the defaults are no-ops
// so that nothing is required at startup. Consumers (the CLI, tests, or an
// embedding program) register their own implementations:
//
//	func main() {
//	    observability.SetWalkHooks(&myWalkHooks{})
//	    // ... run commands
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Walk().OnNodeStart(ctx, walkID, name)
//	// ... apply action ...
//	observability.Walk().OnNodeComplete(ctx, walkID, name, time.Since(start), err)
package observability

import (
	"context"
	"sync"
	"time"
)

// =============================================================================
// Walk Hooks
// =============================================================================

// WalkHooks receives events from the traversal engine.
type WalkHooks interface {
	OnWalkStart(ctx context.Context, walkID, root string)
	OnNodeStart(ctx context.Context, walkID, pkg string)
	OnNodeComplete(ctx context.Context, walkID, pkg string, duration time.Duration, err error)
	OnNodeSkipped(ctx context.Context, walkID, pkg, reason string)
	OnWalkComplete(ctx context.Context, walkID string, visited, failed int, duration time.Duration)
}

// =============================================================================
// Link Hooks
// =============================================================================

// LinkHooks receives events from the materialization engine.
type LinkHooks interface {
	// OnLinkCreated records a symlink created at target pointing to source.
	OnLinkCreated(ctx context.Context, pkg, source, target string)

	// OnMaterialized records a link replaced by a real copy.
	OnMaterialized(ctx context.Context, pkg, target string, files int)

	// OnDematerialized records a copy propagated back and relinked.
	OnDematerialized(ctx context.Context, pkg, target string, files int)
}

// =============================================================================
// No-op Implementations
// =============================================================================

// NoopWalkHooks is a no-op implementation of WalkHooks.
type NoopWalkHooks struct{}

func (NoopWalkHooks) OnWalkStart(context.Context, string, string)                          {}
func (NoopWalkHooks) OnNodeStart(context.Context, string, string)                          {}
func (NoopWalkHooks) OnNodeComplete(context.Context, string, string, time.Duration, error) {}
func (NoopWalkHooks) OnNodeSkipped(context.Context, string, string, string)                {}
func (NoopWalkHooks) OnWalkComplete(context.Context, string, int, int, time.Duration)      {}

// NoopLinkHooks is a no-op implementation of LinkHooks.
type NoopLinkHooks struct{}

func (NoopLinkHooks) OnLinkCreated(context.Context, string, string, string) {}
func (NoopLinkHooks) OnMaterialized(context.Context, string, string, int)   {}
func (NoopLinkHooks) OnDematerialized(context.Context, string, string, int) {}

// =============================================================================
// Global Hook Registry
// =============================================================================

var (
	walkHooks WalkHooks = NoopWalkHooks{}
	linkHooks LinkHooks = NoopLinkHooks{}
	hooksMu   sync.RWMutex
)

// SetWalkHooks registers custom walk hooks.
// This should be called once at application startup before any walk.
func SetWalkHooks(h WalkHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		walkHooks = h
	}
}

// SetLinkHooks registers custom link hooks.
func SetLinkHooks(h LinkHooks) {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	if h != nil {
		linkHooks = h
	}
}

// Walk returns the registered walk hooks.
func Walk() WalkHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return walkHooks
}

// Link returns the registered link hooks.
func Link() LinkHooks {
	hooksMu.RLock()
	defer hooksMu.RUnlock()
	return linkHooks
}

// Reset restores all hooks to their no-op defaults.
// This is primarily useful for testing.
func Reset() {
	hooksMu.Lock()
	defer hooksMu.Unlock()
	walkHooks = NoopWalkHooks{}
	linkHooks = NoopLinkHooks{}
}
