package coordinator

import (
	"github.com/sevigo/code-fixer/internal/core"
	"github.com/sevigo/code-fixer/internal/filelock"
)

// fileGroup is every plan of one batch that targets the same canonical file.
type fileGroup struct {
	path    string
	indices []int // absolute indices into the submitted plan slice
	err     error
}

// groupByFile partitions plans[offset:end] by canonical path. Groups keep the
// order in which their file first appears and plans keep submission order.
func groupByFile(plans []core.FixPlan, offset, end int) []fileGroup {
	var groups []fileGroup
	byKey := make(map[string]int)

	for idx := offset; idx < end; idx++ {
		raw := plans[idx].FilePath
		key, err := filelock.Canonical(raw)
		if err != nil {
			// Unresolvable paths each get their own group so they fail alone.
			groups = append(groups, fileGroup{path: raw, indices: []int{idx}, err: err})
			continue
		}
		if pos, ok := byKey[key]; ok {
			groups[pos].indices = append(groups[pos].indices, idx)
			continue
		}
		byKey[key] = len(groups)
		groups = append(groups, fileGroup{path: key, indices: []int{idx}})
	}
	return groups
}
