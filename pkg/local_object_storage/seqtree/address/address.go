package address

import (
	"errors"
	"fmt"
	"math/bits"
	"path/filepath"
	"strconv"
	"strings"
)

// SlotSuffix is appended to the id of a reserved (preallocated) directory in
// a leaf directory.
const SlotSuffix = ".d"

var (
	// ErrOverflow is returned when a capacity does not fit into uint64.
	ErrOverflow = errors.New("capacity overflows uint64")

	// ErrInvalidPath is returned when a relative path is not a valid address.
	ErrInvalidPath = errors.New("invalid address path")
)

// Address is a location of a single item in the tree. It is never persisted,
// it is recomputed from the id and the tree parameters instead.
type Address struct {
	// Dirs are per-level directory selectors, coarsest first.
	Dirs []uint64
	// ID is the item id, it also names the leaf file.
	ID uint64
}

// Levels returns the smallest L >= 1 such that rng^L >= n.
//
// Zero is returned for n == 0: an empty tree has no levels. rng MUST be at
// least 2.
func Levels(n, rng uint64) int {
	if n == 0 {
		return 0
	}

	var (
		l = 1
		p = rng
	)

	for p < n {
		hi, lo := bits.Mul64(p, rng)
		l++
		if hi != 0 {
			// rng^l exceeds any uint64 value, n included.
			break
		}
		p = lo
	}

	return l
}

// Capacities returns descending powers of rng used to decompose ids of a tree
// holding n items: [rng^L, rng^(L-1), ..., rng^1] where L = Levels(n, rng).
func Capacities(n, rng uint64) ([]uint64, error) {
	return CapacitiesForLevels(Levels(n, rng), rng)
}

// CapacitiesForLevels is like Capacities but takes the depth of the tree
// directly.
func CapacitiesForLevels(levels int, rng uint64) ([]uint64, error) {
	res := make([]uint64, levels)

	p := uint64(1)
	for i := levels - 1; i >= 0; i-- {
		hi, lo := bits.Mul64(p, rng)
		if hi != 0 {
			return nil, fmt.Errorf("%w: %d^%d", ErrOverflow, rng, levels-i)
		}
		p = lo
		res[i] = p
	}

	return res, nil
}

// DirIndices returns directory selectors of the id at each of the levels,
// outer level first. Each selector is the id divided by the capacity of its
// level, so directory q only ever holds children q*rng ... q*rng+rng-1.
//
// capacities MUST contain at least levels elements.
func DirIndices(id uint64, levels int, capacities []uint64) []uint64 {
	res := make([]uint64, levels)
	for i := range res {
		res[i] = id / capacities[i]
	}

	return res
}

// Compute returns the address of id in a tree of the given depth.
func Compute(id, rng uint64, levels int) (Address, error) {
	caps, err := CapacitiesForLevels(levels, rng)
	if err != nil {
		return Address{}, err
	}

	return Address{
		Dirs: DirIndices(id, levels, caps),
		ID:   id,
	}, nil
}

// Path returns the full path of the leaf file under root.
func (a Address) Path(root string) string {
	return filepath.Join(root, filepath.FromSlash(a.String()))
}

// Dir returns the full path of the leaf directory under root.
func (a Address) Dir(root string) string {
	return DirPath(root, a.Dirs)
}

// SlotPath returns the full path of the reserved directory of the address.
func (a Address) SlotPath(root string) string {
	return filepath.Join(a.Dir(root), SlotName(a.ID))
}

// String returns slash-separated path of the item relative to the tree root.
func (a Address) String() string {
	var sb strings.Builder
	for i := range a.Dirs {
		sb.WriteString(FormatName(a.Dirs[i]))
		sb.WriteByte('/')
	}
	sb.WriteString(FormatName(a.ID))

	return sb.String()
}

// Equal checks whether two addresses point to the same file.
func (a Address) Equal(b Address) bool {
	if a.ID != b.ID || len(a.Dirs) != len(b.Dirs) {
		return false
	}
	for i := range a.Dirs {
		if a.Dirs[i] != b.Dirs[i] {
			return false
		}
	}
	return true
}

// Parse decodes slash-separated relative path produced by Address.String.
// Every selector is checked to be the parent of the next one and the first
// selector must be zero.
func Parse(rel string, rng uint64) (Address, error) {
	parts := strings.Split(filepath.ToSlash(rel), "/")
	if len(parts) < 2 {
		return Address{}, fmt.Errorf("%w: %q has no directories", ErrInvalidPath, rel)
	}

	nums := make([]uint64, len(parts))
	for i := range parts {
		v, ok := ParseName(parts[i])
		if !ok {
			return Address{}, fmt.Errorf("%w: bad component %q in %q", ErrInvalidPath, parts[i], rel)
		}
		nums[i] = v
	}

	if nums[0] != 0 {
		return Address{}, fmt.Errorf("%w: top selector of %q is not zero", ErrInvalidPath, rel)
	}

	for i := 1; i < len(nums); i++ {
		if nums[i]/rng != nums[i-1] {
			return Address{}, fmt.Errorf("%w: %d is not a child of %d in %q", ErrInvalidPath, nums[i], nums[i-1], rel)
		}
	}

	a := Address{
		Dirs: nums[:len(nums)-1],
		ID:   nums[len(nums)-1],
	}

	if Levels(a.ID+1, rng) > len(a.Dirs) {
		return Address{}, fmt.Errorf("%w: %q is too shallow for id %d", ErrInvalidPath, rel, a.ID)
	}

	return a, nil
}

// DirPath joins directory selectors to root.
func DirPath(root string, dirs []uint64) string {
	elems := make([]string, 0, len(dirs)+1)
	elems = append(elems, root)
	for i := range dirs {
		elems = append(elems, FormatName(dirs[i]))
	}

	return filepath.Join(elems...)
}

// FormatName returns canonical name of a directory selector or leaf file.
func FormatName(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// ParseName parses a canonical decimal name. Names with leading zeros, signs
// or any other decoration are rejected.
func ParseName(s string) (uint64, bool) {
	if s == "" || (len(s) > 1 && s[0] == '0') {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}

	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}

// SlotName returns the name of a reserved directory for id.
func SlotName(id uint64) string {
	return FormatName(id) + SlotSuffix
}

// ParseSlotName parses a name produced by SlotName.
func ParseSlotName(s string) (uint64, bool) {
	base, ok := strings.CutSuffix(s, SlotSuffix)
	if !ok {
		return 0, false
	}

	return ParseName(base)
}
