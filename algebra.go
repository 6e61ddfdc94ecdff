package pull

// Result is the Either<Error, Any> a continuation consumes: the value
// from a successful step, or the error from a failed one.
type Result struct {
	Val any
	Err error
}

// Ok wraps a successful value as a Result.
func Ok(v any) Result { return Result{Val: v} }

// ErrResult wraps an error as a Result.
func ErrResult(err error) Result { return Result{Err: err} }

// Term is the FreeC-like program representation: a sum of Pure(r),
// Fail(e), and Bind(step, k). Terms are built by composing Step
// constructors (Output, Eval, Acquire, ...) with FlatMap/TransformWith;
// the interpreter only ever consumes them through ViewL.
type Term interface {
	isTerm()
}

type pureTerm struct{ result any }

func (*pureTerm) isTerm() {}

// Pure completes a term successfully with r, with no further algebra
// steps.
func Pure(r any) Term { return &pureTerm{result: r} }

type failTerm struct{ err error }

func (*failTerm) isTerm() {}

// Fail completes a term with err.
func Fail(err error) Term { return &failTerm{err: err} }

type bindTerm struct {
	step Step
	k    func(Result) Term
}

func (*bindTerm) isTerm() {}

// Bind sequences step followed by the continuation k, which receives
// the step's Result and decides how (or whether) to continue.
func Bind(step Step, k func(Result) Term) Term {
	return &bindTerm{step: step, k: k}
}

// Step is one constructor of the interpreter's instruction set.
type Step interface {
	isStep()
}

// ViewKind tags the normalized shape a Term reduces to.
type ViewKind int

const (
	ViewPure ViewKind = iota
	ViewFail
	ViewBind
)

// View is the left-view normalization of a Term: always exactly one of
// Pure(PureVal), Fail(FailErr), or Bind(Step, K).
type View struct {
	Kind    ViewKind
	PureVal any
	FailErr error
	Step    Step
	K       func(Result) Term
}

// ViewL normalizes t into its left view. Because every combinator in
// this package (FlatMap, TransformWith) already reassociates nested
// binds at construction time rather than leaving a Bind's step slot
// holding another unresolved Term, a Term built through this package is
// always already in one of the three normal forms — so ViewL only needs
// one dispatch, not the iterative reassociation loop a FreeC supporting
// raw nested Binds would need. The loop always returns on its first
// pass: ViewL does no reassociation of its own, and it panics on a Term
// implementation it does not know.
func ViewL(t Term) View {
	for {
		switch v := t.(type) {
		case *pureTerm:
			return View{Kind: ViewPure, PureVal: v.result}
		case *failTerm:
			return View{Kind: ViewFail, FailErr: v.err}
		case *bindTerm:
			return View{Kind: ViewBind, Step: v.step, K: v.k}
		default:
			panic("pull: unknown Term implementation")
		}
	}
}

// TransformWith reassociates t so that f runs after t completes
// (successfully or not), without ever nesting a Bind's step inside
// another Bind — the left-view normalization the design notes call for:
// TransformWith(Bind(step, k), f) == Bind(step, x => TransformWith(k(x), f)).
func TransformWith(t Term, f func(Result) Term) Term {
	switch v := t.(type) {
	case *pureTerm:
		return f(Ok(v.result))
	case *failTerm:
		return f(ErrResult(v.err))
	case *bindTerm:
		innerK := v.k
		return &bindTerm{step: v.step, k: func(r Result) Term {
			return TransformWith(innerK(r), f)
		}}
	default:
		panic("pull: unknown Term implementation")
	}
}

// FlatMap sequences f after a successful t, short-circuiting on Fail —
// the monadic bind the external FreeC contract calls flatMap.
func FlatMap(t Term, f func(any) Term) Term {
	return TransformWith(t, func(r Result) Term {
		if r.Err != nil {
			return Fail(r.Err)
		}
		return f(r.Val)
	})
}

// HandleErrorWith installs handler as the recovery path for any error
// (including an InterruptedError) that reaches the end of t — the
// external contract's asHandler(err): "install an error handler
// delivering err to the user program".
func HandleErrorWith(t Term, handler func(error) Term) Term {
	return TransformWith(t, func(r Result) Term {
		if r.Err != nil {
			return handler(r.Err)
		}
		return Pure(r.Val)
	})
}

// --- Step constructors -----------------------------------------------

type outputStep struct{ seg Segment }

func (*outputStep) isStep() {}

// Output emits seg to the fold.
func Output(seg Segment) Step { return &outputStep{seg: seg} }

type runStep struct{ seg Segment }

func (*runStep) isStep() {}

// Run forces seg into (chunks, result): its chunks are emitted to the
// fold and its terminal result is handed to the continuation.
func Run(seg Segment) Step { return &runStep{seg: seg} }

type unconsStep struct {
	inner     Term
	chunkSize int
	maxSteps  int
}

func (*unconsStep) isStep() {}

// Uncons evaluates inner just enough to yield at most one chunk of size
// <= chunkSize within <= maxSteps work units.
func Uncons(inner Term, chunkSize, maxSteps int) Step {
	return &unconsStep{inner: inner, chunkSize: chunkSize, maxSteps: maxSteps}
}

// UnconsResult is the value fed to a continuation by an Uncons step:
// either Done (the inner stream is exhausted) or a leading Chunk plus
// the Remainder term to resume from.
type UnconsResult struct {
	Done      bool
	Chunk     []any
	Remainder Term
}

type evalStep struct{ fx func() (any, error) }

func (*evalStep) isStep() {}

// Eval evaluates fx through the current scope's interruptibleEval.
func Eval(fx func() (any, error)) Step { return &evalStep{fx: fx} }

type acquireStep struct {
	acquire func() (any, error)
	release func(any) error
}

func (*acquireStep) isStep() {}

// Acquire runs acquire through the current scope's acquireResource,
// installing release as the finalizer.
func Acquire(acquire func() (any, error), release func(any) error) Step {
	return &acquireStep{acquire: acquire, release: release}
}

type releaseStep struct{ id Token }

func (*releaseStep) isStep() {}

// Release runs the current scope's releaseResource for id.
func Release(id Token) Step { return &releaseStep{id: id} }

type openScopeStep struct{ interruptible *ExecArgs }

func (*openScopeStep) isStep() {}

// OpenScope opens a child of the current scope, interruptible when
// interruptible is non-nil. The child becomes the current scope for
// what follows.
func OpenScope(interruptible *ExecArgs) Step {
	return &openScopeStep{interruptible: interruptible}
}

type closeScopeStep struct{ inner *CompileScope }

func (*closeScopeStep) isStep() {}

// CloseScope closes inner; the current scope becomes inner's open
// ancestor.
func CloseScope(inner *CompileScope) Step { return &closeScopeStep{inner: inner} }

type getScopeStep struct{}

func (*getScopeStep) isStep() {}

// GetScope returns the current scope.
func GetScope() Step { return &getScopeStep{} }
