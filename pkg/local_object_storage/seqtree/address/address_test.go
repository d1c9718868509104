package address

import (
	"math"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

func pow(b uint64, e int) uint64 {
	r := uint64(1)
	for range e {
		r *= b
	}
	return r
}

func TestLevels(t *testing.T) {
	for _, tc := range []struct {
		n, rng uint64
		exp    int
	}{
		{n: 101, rng: 10, exp: 3},
		{n: 1001, rng: 10, exp: 4},
		{n: 10001, rng: 10, exp: 5},
		{n: 100001, rng: 10, exp: 6},
		{n: 100001, rng: 100, exp: 3},
		{n: 10000001, rng: 100, exp: 4},
		{n: 12345678910, rng: 34, exp: 7},
		{n: 1, rng: 10, exp: 1},
		{n: 10, rng: 10, exp: 1},
		{n: 11, rng: 10, exp: 2},
		{n: 100, rng: 10, exp: 2},
		{n: 1, rng: 2, exp: 1},
		{n: 2, rng: 2, exp: 1},
		{n: 3, rng: 2, exp: 2},
	} {
		t.Run(strconv.FormatUint(tc.n, 10)+"/"+strconv.FormatUint(tc.rng, 10), func(t *testing.T) {
			require.Equal(t, tc.exp, Levels(tc.n, tc.rng))
		})
	}

	t.Run("empty", func(t *testing.T) {
		require.Zero(t, Levels(0, 10))
	})

	t.Run("huge", func(t *testing.T) {
		require.Equal(t, 20, Levels(math.MaxUint64, 10))
		require.Equal(t, 64, Levels(math.MaxUint64, 2))
		require.Equal(t, 2, Levels(math.MaxUint64, math.MaxUint32+1))
	})
}

func TestLevelsBounds(t *testing.T) {
	for _, rng := range []uint64{2, 3, 7, 10, 34, 100} {
		for n := uint64(1); n < 5000; n++ {
			l := Levels(n, rng)
			require.GreaterOrEqual(t, l, 1)
			require.GreaterOrEqual(t, pow(rng, l), n, "n=%d rng=%d", n, rng)
			if l > 1 {
				require.Less(t, pow(rng, l-1), n, "n=%d rng=%d", n, rng)
			}
		}
	}
}

func TestCapacities(t *testing.T) {
	caps, err := Capacities(1001, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{10000, 1000, 100, 10}, caps)

	caps, err = Capacities(10001, 10)
	require.NoError(t, err)
	require.Equal(t, []uint64{100000, 10000, 1000, 100, 10}, caps)

	caps, err = Capacities(0, 10)
	require.NoError(t, err)
	require.Empty(t, caps)

	t.Run("overflow", func(t *testing.T) {
		_, err := CapacitiesForLevels(21, 10)
		require.ErrorIs(t, err, ErrOverflow)

		_, err = Capacities(math.MaxUint64, 10)
		require.ErrorIs(t, err, ErrOverflow)

		caps, err := CapacitiesForLevels(19, 10)
		require.NoError(t, err)
		require.EqualValues(t, uint64(10000000000000000000), caps[0])
	})
}

func TestDirIndices(t *testing.T) {
	const id, rng = 10001, 10

	levels := Levels(id, rng)
	caps, err := Capacities(id, rng)
	require.NoError(t, err)
	require.Equal(t, []uint64{0, 1, 10, 100, 1000}, DirIndices(id, levels, caps))

	caps3, err := CapacitiesForLevels(3, 3)
	require.NoError(t, err)
	require.Equal(t, []uint64{27, 9, 3}, caps3)

	for _, tc := range []struct {
		id  uint64
		exp []uint64
	}{
		{0, []uint64{0, 0, 0}},
		{2, []uint64{0, 0, 0}},
		{3, []uint64{0, 0, 1}},
		{8, []uint64{0, 0, 2}},
		{9, []uint64{0, 1, 3}},
		{17, []uint64{0, 1, 5}},
		{26, []uint64{0, 2, 8}},
	} {
		require.Equal(t, tc.exp, DirIndices(tc.id, 3, caps3), tc.id)
	}
}

func TestDirIndicesFanOut(t *testing.T) {
	for _, rng := range []uint64{2, 3, 10} {
		const n = 3000
		levels := Levels(n, rng)
		caps, err := CapacitiesForLevels(levels, rng)
		require.NoError(t, err)

		children := make(map[string]map[uint64]struct{})
		for id := uint64(0); id < n; id++ {
			dirs := DirIndices(id, levels, caps)
			require.Zero(t, dirs[0])

			parent := "root"
			for i := range dirs {
				if i > 0 {
					require.Equal(t, dirs[i-1], dirs[i]/rng)
				}
				if children[parent] == nil {
					children[parent] = make(map[uint64]struct{})
				}
				children[parent][dirs[i]] = struct{}{}
				parent += "/" + FormatName(dirs[i])
			}
			if children[parent] == nil {
				children[parent] = make(map[uint64]struct{})
			}
			children[parent][id] = struct{}{}
		}

		for dir, set := range children {
			require.LessOrEqual(t, uint64(len(set)), rng, "rng=%d dir=%s", rng, dir)
		}
	}
}

func TestCompute(t *testing.T) {
	a, err := Compute(10001, 10, 5)
	require.NoError(t, err)
	require.Equal(t, "0/1/10/100/1000/10001", a.String())
	require.Equal(t, filepath.Join("root", "0", "1", "10", "100", "1000", "10001"), a.Path("root"))
	require.Equal(t, filepath.Join("root", "0", "1", "10", "100", "1000"), a.Dir("root"))
	require.Equal(t, filepath.Join("root", "0", "1", "10", "100", "1000", "10001.d"), a.SlotPath("root"))

	_, err = Compute(1, 10, 21)
	require.ErrorIs(t, err, ErrOverflow)
}

func TestParse(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		for _, rng := range []uint64{2, 10, 34} {
			for id := uint64(0); id < 2000; id++ {
				levels := Levels(id+1, rng)
				for extra := 0; extra < 2; extra++ {
					a, err := Compute(id, rng, levels+extra)
					require.NoError(t, err)

					b, err := Parse(a.String(), rng)
					require.NoError(t, err, a.String())
					require.True(t, a.Equal(b))
					require.Equal(t, id, b.ID)
				}
			}
		}
	})

	for _, s := range []string{
		"",
		"5",
		"1/5",
		"0/05",
		"0/x",
		"0/-1",
		"0/1/5",
		"0/15",
		"0/1.d",
	} {
		_, err := Parse(s, 10)
		require.ErrorIs(t, err, ErrInvalidPath, s)
	}
}

func TestNames(t *testing.T) {
	v, ok := ParseName("0")
	require.True(t, ok)
	require.Zero(t, v)

	v, ok = ParseName("18446744073709551615")
	require.True(t, ok)
	require.EqualValues(t, uint64(math.MaxUint64), v)

	for _, s := range []string{"", "00", "01", "+1", "-1", "1a", "18446744073709551616", ".lock"} {
		_, ok = ParseName(s)
		require.False(t, ok, s)
	}

	require.Equal(t, "42.d", SlotName(42))
	v, ok = ParseSlotName("42.d")
	require.True(t, ok)
	require.EqualValues(t, 42, v)

	for _, s := range []string{"42", "042.d", ".d", "42.dd"} {
		_, ok = ParseSlotName(s)
		require.False(t, ok, s)
	}
}
