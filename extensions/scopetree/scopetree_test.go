package scopetree

import (
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	pull "github.com/pumped-fn/pull"
)

func TestExtension_TracksScopeLifecycle(t *testing.T) {
	ext := New(slog.New(NewSilentHandler()))

	root := pull.NewRootScope(pull.WithObserver(ext), pull.WithScopeName("root"))
	child, err := root.Open(nil, pull.WithScopeName("child"))
	require.NoError(t, err)

	require.NoError(t, child.Close())
	require.NoError(t, root.Close())
}

func TestRender_DrawsOpenAndClosedScopes(t *testing.T) {
	root := pull.NewRootScope(pull.WithScopeName("root"))
	child, err := root.Open(nil, pull.WithScopeName("child"))
	require.NoError(t, err)

	out := Render(root)
	require.Contains(t, out, "root")
	require.Contains(t, out, "child")

	require.NoError(t, child.Close())
	out = Render(root)
	require.True(t, strings.Contains(out, "[closed]") || !strings.Contains(out, "child"),
		"a closed child scope must be rendered as closed or no longer listed")
}
