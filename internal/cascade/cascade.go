// Package cascade runs ordered "try this, then that" strategy lists.
package cascade

// Step is one named attempt. Try reports whether it produced a result.
type Step[C, R any] struct {
	Name string
	Try  func(C) (R, bool)
}

// First runs steps in order and returns the first result that was found,
// along with the name of the step that produced it.
func First[C, R any](ctx C, steps ...Step[C, R]) (R, string, bool) {
	for _, s := range steps {
		if s.Try == nil {
			continue
		}
		if r, ok := s.Try(ctx); ok {
			return r, s.Name, true
		}
	}
	var zero R
	return zero, "", false
}

// Names lists the step names, in order.
func Names[C, R any](steps []Step[C, R]) []string {
	names := make([]string, 0, len(steps))
	for _, s := range steps {
		names = append(names, s.Name)
	}
	return names
}
