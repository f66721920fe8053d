package core_test

import (
	"fmt"
	"os"

	"github.com/katalvlaran/fragtree/core"
)

// ExampleBuilder builds the two-candidate graph, selects the better candidate
// and prints the tree in the debug dump format.
func ExampleBuilder() {
	b := core.NewBuilder()
	root := b.AddFragment(core.Fragment{Color: 0})
	a := b.AddFragment(core.Fragment{Color: 1, Weight: 5})
	bb := b.AddFragment(core.Fragment{Color: 1, Weight: 3})
	ea, _ := b.AddLoss(core.Loss{Head: root, Tail: a, Weight: 2})
	_, _ = b.AddLoss(core.Loss{Head: root, Tail: bb, Weight: 1})
	_ = b.SetRoot(root)

	g, err := b.Build()
	if err != nil {
		fmt.Println(err)
		return
	}
	t, err := core.NewTree(g, []int{ea})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(g.NumVertices(), g.NumEdges(), g.NumColors())
	_ = core.WriteTreeDump(os.Stdout, t)
	// Output:
	// 3 2 2
	// 2
	// 1
	// 2
	// 7
	// 0 0
	// 1 1
	// 0 1 7
}
