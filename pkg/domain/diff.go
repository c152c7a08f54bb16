package domain

import (
	"fmt"
	"reflect"
)

// ChangeOp classifies a single tree change.
type ChangeOp string

const (
	OpAdd     ChangeOp = "add"
	OpRemove  ChangeOp = "remove"
	OpReplace ChangeOp = "replace"
)

// Change is one difference between two delivered trees.
// Path uses a JSONPath-like notation rooted at "$", e.g. "$.children[1].props.url".
type Change struct {
	Op   ChangeOp `json:"op"`
	Path string   `json:"path"`
}

// TreeDiff is the list of changes between two trees.
// It is informational: the host always receives the whole tree.
type TreeDiff []Change

// DiffTrees calculates the difference between oldTree and newTree.
// If oldTree is nil, the whole of newTree is reported as a single replacement (initial load).
func DiffTrees(oldTree, newTree *Tree) TreeDiff {
	if newTree == nil {
		return nil
	}
	if oldTree == nil {
		return TreeDiff{{Op: OpReplace, Path: "$"}}
	}

	var diff TreeDiff
	diffTree(&diff, "$", oldTree, newTree)
	if len(diff) == 0 {
		return nil
	}
	return diff
}

// IsEmpty checks if the diff contains any changes.
func (d TreeDiff) IsEmpty() bool {
	return len(d) == 0
}

func diffTree(diff *TreeDiff, path string, old, new *Tree) {
	if old.Type != new.Type {
		*diff = append(*diff, Change{Op: OpReplace, Path: path})
		return
	}
	diffProps(diff, path+".props", old.Props, new.Props)
	diffChildren(diff, path+".children", old.Children, new.Children)
}

func diffProps(diff *TreeDiff, path string, old, new map[string]any) {
	// Added or modified
	for k, newVal := range new {
		oldVal, exists := old[k]
		if !exists {
			*diff = append(*diff, Change{Op: OpAdd, Path: path + "." + k})
		} else if !reflect.DeepEqual(oldVal, newVal) {
			*diff = append(*diff, Change{Op: OpReplace, Path: path + "." + k})
		}
	}

	// Deleted
	for k := range old {
		if _, exists := new[k]; !exists {
			*diff = append(*diff, Change{Op: OpRemove, Path: path + "." + k})
		}
	}
}

func diffChildren(diff *TreeDiff, path string, old, new any) {
	oldList, oldIsList := old.([]any)
	newList, newIsList := new.([]any)

	// A primitive on either side means the whole children value changed shape or content.
	if !oldIsList || !newIsList {
		if !reflect.DeepEqual(old, new) {
			*diff = append(*diff, Change{Op: OpReplace, Path: path})
		}
		return
	}

	for i := 0; i < len(oldList) && i < len(newList); i++ {
		itemPath := fmt.Sprintf("%s[%d]", path, i)
		oldTree, oldOK := oldList[i].(*Tree)
		newTree, newOK := newList[i].(*Tree)
		if oldOK && newOK {
			diffTree(diff, itemPath, oldTree, newTree)
			continue
		}
		if !reflect.DeepEqual(oldList[i], newList[i]) {
			*diff = append(*diff, Change{Op: OpReplace, Path: itemPath})
		}
	}
	for i := len(oldList); i < len(newList); i++ {
		*diff = append(*diff, Change{Op: OpAdd, Path: fmt.Sprintf("%s[%d]", path, i)})
	}
	for i := len(newList); i < len(oldList); i++ {
		*diff = append(*diff, Change{Op: OpRemove, Path: fmt.Sprintf("%s[%d]", path, i)})
	}
}
