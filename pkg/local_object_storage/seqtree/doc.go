/*
Package seqtree implements a storage that keeps objects as files in a directory
tree and addresses them by sequential integer identifiers.

Identifiers are allocated in order starting from zero. Every directory of the
tree holds at most range children, so a tree of L levels stores up to
range^L objects. Directory names are per-level selectors: the selector of an
object at a level is its identifier divided by the capacity of that level.
The tree for range 10 holding 1002 objects looks like this (a part of it):

	/0/
	├── 0
	│   ├── 0
	│   │   ├── 0
	│   │   │   ├── 0
	│   │   │   ├── ...
	│   │   │   └── 9
	│   │   └── ...
	│   └── ...
	└── 1
	    └── 10
	        └── 100
	            ├── 1000
	            └── 1001.d

Once the next identifier does not fit, the tree gets one more level: the
current top directory is moved into a new top directory, so no stored file is
ever rewritten. Empty directories reserved by [Cache.AddDir] are named with a
".d" suffix.

The range bounds tree directories only, i.e. the top directory "0" and
everything under it. The root directory holds the top directory next to
service entries: the ".lock" file and, while the tree grows, a ".grow-*"
staging directory. Object writes go through ".tmp-*" files in the leaf
directory. None of these names parse as identifiers, so they are neither
counted nor walked.

No manifest is stored. Opening an existing tree walks the directory structure
to restore the next identifier, the number of levels and the occupancy of
directories on the write path. A writable handle takes an exclusive lock on
the ".lock" file in the root directory, a second writer is rejected.
*/
package seqtree
