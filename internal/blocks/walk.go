package blocks

// Visitor receives every block and every text run reachable from a tree.
// Either function may be nil. Both receive pointers into the tree so they
// can rewrite nodes in place.
type Visitor struct {
	Block func(b *Block)
	Run   func(r *TextRun)
}

// Walk performs a depth-first traversal of the tree. A block is visited
// before its runs, cells and children.
func Walk(t Tree, v Visitor) {
	for i := range t {
		walkBlock(&t[i], v)
	}
}

func walkBlock(b *Block, v Visitor) {
	if v.Block != nil {
		v.Block(b)
	}
	if v.Run != nil {
		for i := range b.Text {
			v.Run(&b.Text[i])
		}
		for c := range b.Cells {
			for i := range b.Cells[c] {
				v.Run(&b.Cells[c][i])
			}
		}
	}
	for i := range b.Children {
		walkBlock(&b.Children[i], v)
	}
}

// WalkRuns visits every text run in the tree.
func WalkRuns(t Tree, fn func(r *TextRun)) {
	Walk(t, Visitor{Run: fn})
}

// Count returns the number of blocks in the tree, nested ones included.
func Count(t Tree) int {
	n := 0
	Walk(t, Visitor{Block: func(*Block) { n++ }})
	return n
}
