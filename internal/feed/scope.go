package feed

// Scope is the language-neutral rendering of the block-with-context DSL
// described in §9: it carries an Activity plus a caller-supplied bindings
// map, and is passed explicitly into a callback rather than relying on any
// implicit receiver rewriting.
type Scope struct {
	Activity *MultiActivity
	Bindings map[string]any
}

// WithScope constructs a Scope for the given feed/users and invokes fn with
// it, returning fn's error unchanged. Operations performed via scope.Activity
// delegate directly to the bound Activity handle.
func WithScope(f *Feed, userIDs []string, bindings map[string]any, fn func(scope *Scope) error) error {
	activity, err := f.Activity(userIDs...)
	if err != nil {
		return err
	}
	if bindings == nil {
		bindings = make(map[string]any)
	}
	scope := &Scope{Activity: activity, Bindings: bindings}
	return fn(scope)
}
