// Package perform walks a dependency graph applying an action per package.
//
// A walk starts at the graph root. In forward mode a package is acted on
// before its dependencies; in reverse mode after them, so that for example
// dependencies are committed before the dependents that pin them:
//
//	p := perform.New(logger, ws, prompter)
//	report := p.Perform(ctx, g, commit, perform.Selected(), perform.Options{Reverse: true})
//	if err := report.Err(); err != nil {
//	    // one or more packages failed; all others were processed
//	}
//
// Each package is acted on at most once per walk, however many paths lead
// to it. A failing action is logged with the package name and recorded in
// the [Report]; it never stops the walk.
//
// Missing packages are skipped with a warning unless
// [Options.IncludeMissing] is set. With [Options.Reload] the graph is
// rebuilt through the [Reloader] around each action and the current
// package is looked up again by name.
package perform
