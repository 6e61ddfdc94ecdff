package pull

// Observer is the interpreter's instrumentation hook: a scope tree can be
// built and run with zero observers attached, or with one that mirrors
// lifecycle events out to logging/visualization. The core package never
// imports log/slog or a tree-drawing library itself — only an Observer
// implementation (see the scopetree extensions package) does, the same
// decoupling the teacher keeps between its core Scope and
// extensions/graph_debug.go.
type Observer interface {
	OnScopeOpen(scope *CompileScope)
	OnScopeClose(scope *CompileScope, err error)
	OnResourceAcquire(scope *CompileScope, id Token)
	OnResourceRelease(scope *CompileScope, id Token, err error)
	OnInterrupt(scope *CompileScope, cause *InterruptedError)
}

// WithObserver attaches obs to a newly opened scope; children opened from
// it inherit the same observer unless overridden with another
// WithObserver option of their own.
func WithObserver(obs Observer) CompileScopeOption {
	return func(s *CompileScope) { s.observer = obs }
}

// noopObserver is installed implicitly wherever no WithObserver option is
// given, so call sites never need a nil check.
type noopObserver struct{}

func (noopObserver) OnScopeOpen(*CompileScope)                      {}
func (noopObserver) OnScopeClose(*CompileScope, error)               {}
func (noopObserver) OnResourceAcquire(*CompileScope, Token)          {}
func (noopObserver) OnResourceRelease(*CompileScope, Token, error)    {}
func (noopObserver) OnInterrupt(*CompileScope, *InterruptedError)     {}

var defaultObserver Observer = noopObserver{}
