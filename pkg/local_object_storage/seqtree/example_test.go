package seqtree_test

import (
	"fmt"
	"os"

	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree"
	"github.com/nspcc-dev/seqtree/pkg/local_object_storage/seqtree/codec"
)

func Example() {
	dir, err := os.MkdirTemp("", "seqtree")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(dir)

	c, err := seqtree.New(dir, "notes", 10, codec.YAML[string]{})
	if err != nil {
		panic(err)
	}

	for _, s := range []string{"first", "second", "third"} {
		if _, err := c.Add(s); err != nil {
			panic(err)
		}
	}

	s, err := c.Get(1)
	if err != nil {
		panic(err)
	}
	fmt.Println(s)

	addr, err := c.Address(2)
	if err != nil {
		panic(err)
	}
	fmt.Println(addr)

	_ = c.Close()
	// Output:
	// second
	// 0/2
}
