package paths

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	r, err := New("/project", map[string]string{"@": "src", "@views": "src/views"})
	require.NoError(t, err)

	root, err := r.Resolve("@")
	require.NoError(t, err)
	require.Equal(t, "/project/src", root)

	views, err := r.Resolve("@views")
	require.NoError(t, err)
	require.Equal(t, root+"/views", views)
}

func TestResolve_unknownAlias(t *testing.T) {
	r, err := New("/project", map[string]string{"@": "src"})
	require.NoError(t, err)

	_, err = r.Resolve("@unknown")
	require.Error(t, err)

	var unknown *UnknownAliasError
	require.True(t, errors.As(err, &unknown))
	require.Equal(t, "@unknown", unknown.Name)
}

func TestNew_rejectsInvalidEntries(t *testing.T) {
	tests := []struct {
		name  string
		table map[string]string
	}{
		{name: "empty name", table: map[string]string{"": "src"}},
		{name: "empty path", table: map[string]string{"@": ""}},
		{name: "absolute path", table: map[string]string{"@": "/etc"}},
		{name: "escapes root", table: map[string]string{"@": "../outside"}},
		{name: "escapes root after clean", table: map[string]string{"@": "src/../../outside"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New("/project", tt.table)
			require.ErrorIs(t, err, ErrInvalidAlias)
		})
	}
}

func TestValidate(t *testing.T) {
	r, err := New("/project", DefaultTable())
	require.NoError(t, err)

	require.NoError(t, r.Validate(r.Names()...))

	err = r.Validate("@views", "@missing", "@other")
	require.Error(t, err)
	require.Contains(t, err.Error(), "@missing")
	require.Contains(t, err.Error(), "@other")
}

func TestPath(t *testing.T) {
	r, err := New("/project", nil)
	require.NoError(t, err)
	require.Equal(t, filepath.Join("/project", "src", "icons"), r.Path("src/icons"))
	require.Equal(t, "/project", r.Root())
}
