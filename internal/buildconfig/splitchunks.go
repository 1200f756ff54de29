package buildconfig

import (
	"fmt"
	"regexp"
)

// SplitChunks partitions shared modules into named cache groups.
type SplitChunks struct {
	Chunks      string               `json:"chunks" yaml:"chunks"`
	CacheGroups Registry[CacheGroup] `json:"cacheGroups" yaml:"cacheGroups"`
}

// CacheGroup selects modules whose path matches Test. When several groups
// match, the highest Priority wins.
type CacheGroup struct {
	Name               string `json:"name" yaml:"name"`
	Test               string `json:"test" yaml:"test"`
	Priority           int    `json:"priority" yaml:"priority"`
	Chunks             string `json:"chunks,omitempty" yaml:"chunks,omitempty"`
	MinChunks          int    `json:"minChunks,omitempty" yaml:"minChunks,omitempty"`
	ReuseExistingChunk bool   `json:"reuseExistingChunk,omitempty" yaml:"reuseExistingChunk,omitempty"`
}

// ChunksInitial restricts a cache group to modules of initially loaded chunks.
const ChunksInitial = "initial"

// Match returns the group a module lands in given how many chunks reference
// it and whether any of them is loaded initially. Equal priorities keep
// registration order.
func (s *SplitChunks) Match(modulePath string, refs int, initial bool) (CacheGroup, bool, error) {
	var (
		best  CacheGroup
		found bool
	)
	for name, group := range s.CacheGroups.All() {
		re, err := regexp.Compile(group.Test)
		if err != nil {
			return CacheGroup{}, false, fmt.Errorf("cache group %s: %w", name, err)
		}
		if group.Chunks == ChunksInitial && !initial {
			continue
		}
		minChunks := max(group.MinChunks, 1)
		if refs < minChunks || !re.MatchString(modulePath) {
			continue
		}
		if !found || group.Priority > best.Priority {
			best, found = group, true
		}
	}
	return best, found, nil
}
