package domain

import (
	"fmt"
	"strings"
)

// FileEntry is one blob from a repository tree listing. Directories are
// never represented as entries, only as path segments.
type FileEntry struct {
	Path string
	Size int64
}

// TreeNode is a recursive directory structure built from flat slash-separated
// paths. A node is either a directory (leaf == false, children populated) or
// a file leaf carrying its byte size. Child order is insertion order, which
// preserves the order the provider returned the entries in.
type TreeNode struct {
	leaf     bool
	size     int64
	order    []string
	children map[string]*TreeNode
}

// NewTree creates an empty directory node.
func NewTree() *TreeNode {
	return &TreeNode{children: make(map[string]*TreeNode)}
}

// BuildTree builds a directory tree from at most maxFiles entries.
// maxFiles <= 0 means no limit.
func BuildTree(files []FileEntry, maxFiles int) *TreeNode {
	if maxFiles > 0 && len(files) > maxFiles {
		files = files[:maxFiles]
	}
	root := NewTree()
	for _, f := range files {
		root.Insert(f.Path, f.Size)
	}
	return root
}

// Insert adds one file path, creating intermediate directories as needed.
// Inserting into a leaf is ignored: a path that names both a file and a
// directory is malformed provider data, first entry wins.
func (n *TreeNode) Insert(path string, size int64) {
	parts := strings.Split(path, "/")
	current := n
	for _, part := range parts[:len(parts)-1] {
		if current.leaf {
			return
		}
		child, ok := current.children[part]
		if !ok {
			child = NewTree()
			current.children[part] = child
			current.order = append(current.order, part)
		}
		current = child
	}
	if current.leaf {
		return
	}
	name := parts[len(parts)-1]
	if _, ok := current.children[name]; ok {
		return
	}
	current.children[name] = &TreeNode{leaf: true, size: size}
	current.order = append(current.order, name)
}

// Serialize renders the tree depth-first as indented lines, two spaces per
// level. Directories are suffixed with a slash; leaves with a positive size
// are annotated with "(N bytes)".
func (n *TreeNode) Serialize() string {
	var b strings.Builder
	n.writeIndented(&b, 0)
	return strings.TrimRight(b.String(), "\n")
}

func (n *TreeNode) writeIndented(b *strings.Builder, level int) {
	indent := strings.Repeat("  ", level)
	for _, name := range n.order {
		child := n.children[name]
		if child.leaf {
			if child.size > 0 {
				fmt.Fprintf(b, "%s%s (%d bytes)\n", indent, name, child.size)
			} else {
				fmt.Fprintf(b, "%s%s\n", indent, name)
			}
			continue
		}
		fmt.Fprintf(b, "%s%s/\n", indent, name)
		child.writeIndented(b, level+1)
	}
}
