// Package scopetree is an optional observability layer for the scope
// tree: it implements pull.Observer to log lifecycle events through
// log/slog and render the live tree with treedrawer on demand. Neither
// dependency is imported by the core package — this is the same
// decoupling the teacher keeps between its Scope core and its own
// extensions/graph_debug.go.
package scopetree

import (
	"fmt"
	"sort"
	"sync"

	"github.com/m1gwings/treedrawer/tree"

	"log/slog"

	pull "github.com/pumped-fn/pull"
)

// Extension logs scope lifecycle events at the given slog.Logger. It
// records scope names, used to label its log lines, and the error of
// each scope that closed with one; Render does not read this state.
type Extension struct {
	logger *slog.Logger

	mu     sync.Mutex
	roots  map[pull.Token]*pull.CompileScope
	names  map[pull.Token]string
	failed map[pull.Token]error
}

// New creates an Extension logging through logger. Pass
// slog.New(NewSilentHandler()) for tests that want the hook exercised
// without producing output.
func New(logger *slog.Logger) *Extension {
	return &Extension{
		logger: logger,
		roots:  make(map[pull.Token]*pull.CompileScope),
		names:  make(map[pull.Token]string),
		failed: make(map[pull.Token]error),
	}
}

func (e *Extension) OnScopeOpen(scope *pull.CompileScope) {
	e.mu.Lock()
	if scope.Name != "" {
		e.names[scope.ID] = scope.Name
	}
	e.mu.Unlock()
	e.logger.Info("scope opened", "scope", e.label(scope.ID), "name", scope.Name)
}

func (e *Extension) OnScopeClose(scope *pull.CompileScope, err error) {
	if err != nil {
		e.mu.Lock()
		e.failed[scope.ID] = err
		e.mu.Unlock()
		e.logger.Error("scope closed with error", "scope", e.label(scope.ID), "error", err.Error())
		return
	}
	e.logger.Info("scope closed", "scope", e.label(scope.ID))
}

func (e *Extension) OnResourceAcquire(scope *pull.CompileScope, id pull.Token) {
	e.logger.Debug("resource acquired", "scope", e.label(scope.ID), "resource", id.String())
}

func (e *Extension) OnResourceRelease(scope *pull.CompileScope, id pull.Token, err error) {
	if err != nil {
		e.logger.Error("resource release failed", "scope", e.label(scope.ID), "resource", id.String(), "error", err.Error())
		return
	}
	e.logger.Debug("resource released", "scope", e.label(scope.ID), "resource", id.String())
}

func (e *Extension) OnInterrupt(scope *pull.CompileScope, cause *pull.InterruptedError) {
	e.logger.Warn("scope interrupted", "scope", e.label(scope.ID), "loop", cause.Loop, "cause", cause.Error())
}

func (e *Extension) label(id pull.Token) string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if name, ok := e.names[id]; ok && name != "" {
		return fmt.Sprintf("%s(%s)", name, id.String())
	}
	return id.String()
}

// Render draws root's live subtree as a horizontal tree via treedrawer,
// marking a scope that is closed with "[closed]". It does not show
// whether a scope closed with an error.
func Render(root *pull.CompileScope) string {
	t := buildTree(root, make(map[pull.Token]bool))
	if t == nil {
		return ""
	}
	return t.String()
}

func buildTree(s *pull.CompileScope, visited map[pull.Token]bool) *tree.Tree {
	if s == nil || visited[s.ID] {
		return nil
	}
	visited[s.ID] = true

	open, children, resources := s.Snapshot()
	label := s.ID.String()
	if s.Name != "" {
		label = fmt.Sprintf("%s (%s)", s.Name, label)
	}
	if !open {
		label += " [closed]"
	}
	if len(resources) > 0 {
		label += fmt.Sprintf(" res=%d", len(resources))
	}

	node := tree.NewTree(tree.NodeString(label))

	sorted := make([]*pull.CompileScope, len(children))
	copy(sorted, children)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })

	for _, child := range sorted {
		if childTree := buildTree(child, visited); childTree != nil {
			attachChild(node, childTree)
		}
	}
	return node
}

// attachChild copies child's whole subtree under parent, since
// treedrawer builds nodes bottom-up from a single owning tree rather
// than letting two independently-built *tree.Tree values be spliced
// together directly.
func attachChild(parent *tree.Tree, child *tree.Tree) {
	newChild := parent.AddChild(child.Val())
	for _, grandchild := range child.Children() {
		attachChild(newChild, grandchild)
	}
}
