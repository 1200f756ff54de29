package buildconfig

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func testSplitChunks() *SplitChunks {
	sc := &SplitChunks{Chunks: "all"}
	sc.CacheGroups.Set("libs", CacheGroup{
		Name:     "chunk-libs",
		Test:     `[\\/]node_modules[\\/]`,
		Priority: 10,
		Chunks:   ChunksInitial,
	})
	sc.CacheGroups.Set("elementUI", CacheGroup{
		Name:     "chunk-elementUI",
		Test:     `[\\/]node_modules[\\/]_?element-ui(.*)`,
		Priority: 20,
	})
	sc.CacheGroups.Set("commons", CacheGroup{
		Name:               "chunk-commons",
		Test:               `^/project/src/components`,
		Priority:           5,
		MinChunks:          3,
		ReuseExistingChunk: true,
	})
	return sc
}

func TestSplitChunks_match(t *testing.T) {
	sc := testSplitChunks()

	tests := []struct {
		name     string
		path     string
		refs     int
		async    bool
		expected string
		found    bool
	}{
		{name: "vendor", path: "/project/node_modules/vue/dist/vue.js", refs: 1, expected: "chunk-libs", found: true},
		{name: "ui library beats vendor", path: "/project/node_modules/element-ui/lib/index.js", refs: 1, expected: "chunk-elementUI", found: true},
		{name: "ui library via cnpm layout", path: "/project/node_modules/_element-ui@2.15.0/lib/index.js", refs: 1, expected: "chunk-elementUI", found: true},
		{name: "windows separators", path: `C:\project\node_modules\element-ui\lib\index.js`, refs: 1, expected: "chunk-elementUI", found: true},
		{name: "commons below threshold", path: "/project/src/components/Button.js", refs: 2, found: false},
		{name: "commons at threshold", path: "/project/src/components/Button.js", refs: 3, expected: "chunk-commons", found: true},
		{name: "app code", path: "/project/src/views/Home.js", refs: 5, found: false},
		{name: "async-only vendor", path: "/project/node_modules/echarts/index.js", refs: 1, async: true, found: false},
		{name: "async-only ui library", path: "/project/node_modules/element-ui/lib/index.js", refs: 1, async: true, expected: "chunk-elementUI", found: true},
		{name: "async-only commons", path: "/project/src/components/Button.js", refs: 3, async: true, expected: "chunk-commons", found: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			group, found, err := sc.Match(tt.path, tt.refs, !tt.async)
			require.NoError(t, err)
			require.Equal(t, tt.found, found)
			require.Equal(t, tt.expected, group.Name)
		})
	}
}

func TestSplitChunks_equalPriorityKeepsRegistrationOrder(t *testing.T) {
	sc := &SplitChunks{}
	sc.CacheGroups.Set("first", CacheGroup{Name: "first", Test: "x", Priority: 1})
	sc.CacheGroups.Set("second", CacheGroup{Name: "second", Test: "x", Priority: 1})

	group, found, err := sc.Match("x", 1, true)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, "first", group.Name)
}

func TestSplitChunks_invalidPattern(t *testing.T) {
	sc := &SplitChunks{}
	sc.CacheGroups.Set("bad", CacheGroup{Name: "bad", Test: "("})

	_, _, err := sc.Match("x", 1, true)
	require.Error(t, err)
}
