package perform

import (
	stderrors "errors"
	"fmt"
	"time"
)

// Failure records an action error for one package.
type Failure struct {
	Package string
	Err     error
}

func (f Failure) Error() string { return fmt.Sprintf("%s: %v", f.Package, f.Err) }

func (f Failure) Unwrap() error { return f.Err }

// Report is the outcome of a walk.
type Report struct {
	WalkID   string
	Visited  []string // Packages the action was applied to, in order
	Skipped  []string // Missing packages that were not walked
	Failures []Failure
	Duration time.Duration
}

// Failed reports whether any package failed.
func (r *Report) Failed() bool { return len(r.Failures) > 0 }

// Err joins all failures, or returns nil when every package succeeded.
func (r *Report) Err() error {
	if !r.Failed() {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

// FailureFor returns the failure recorded for pkg, or nil.
func (r *Report) FailureFor(pkg string) error {
	for _, f := range r.Failures {
		if f.Package == pkg {
			return f.Err
		}
	}
	return nil
}

func (r *Report) fail(pkg string, err error) {
	r.Failures = append(r.Failures, Failure{Package: pkg, Err: err})
}
