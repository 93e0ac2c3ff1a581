package observability

import (
	"context"
	"testing"
	"time"
)

func TestNoopHooksDoNotPanic(t *testing.T) {
	ctx := context.Background()

	w := NoopWalkHooks{}
	w.OnWalkStart(ctx, "id", "app")
	w.OnNodeStart(ctx, "id", "lib")
	w.OnNodeComplete(ctx, "id", "lib", time.Second, nil)
	w.OnNodeSkipped(ctx, "id", "tool", "missing")
	w.OnWalkComplete(ctx, "id", 3, 0, time.Second)

	l := NoopLinkHooks{}
	l.OnLinkCreated(ctx, "app", "/ws/lib/src", "/ws/app/deps/lib")
	l.OnMaterialized(ctx, "app", "/ws/app/deps/lib", 12)
	l.OnDematerialized(ctx, "app", "/ws/app/deps/lib", 12)
}

func TestGlobalHooksRegistry(t *testing.T) {
	Reset()

	if _, ok := Walk().(NoopWalkHooks); !ok {
		t.Error("Walk() should return NoopWalkHooks by default")
	}
	if _, ok := Link().(NoopLinkHooks); !ok {
		t.Error("Link() should return NoopLinkHooks by default")
	}

	customWalk := &testWalkHooks{}
	SetWalkHooks(customWalk)
	if Walk() != customWalk {
		t.Error("SetWalkHooks should set custom hooks")
	}

	customLink := &testLinkHooks{}
	SetLinkHooks(customLink)
	if Link() != customLink {
		t.Error("SetLinkHooks should set custom hooks")
	}

	// nil is ignored
	SetWalkHooks(nil)
	if Walk() != customWalk {
		t.Error("SetWalkHooks(nil) should keep current hooks")
	}

	Reset()
	if _, ok := Walk().(NoopWalkHooks); !ok {
		t.Error("Reset should restore NoopWalkHooks")
	}
	if _, ok := Link().(NoopLinkHooks); !ok {
		t.Error("Reset should restore NoopLinkHooks")
	}
}

type testWalkHooks struct{ NoopWalkHooks }

type testLinkHooks struct{ NoopLinkHooks }
