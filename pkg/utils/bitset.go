package utils

import "fmt"

const bitsPerWord = 64

// BitSet is a dense bitset over machine words, used by the liveness pass to
// represent the live-in/live-out sets of each IR instruction (one bit per
// virtual register). Sized once at construction and never grown.
type BitSet struct {
	words []uint64
	size  int
}

// NewBitSet allocates a BitSet able to accommodate 'size' distinct bit
// positions (e.g. one per virtual register), all initially clear.
func NewBitSet(size int) *BitSet {
	nWords := (size + bitsPerWord - 1) / bitsPerWord
	if nWords == 0 {
		nWords = 1
	}
	return &BitSet{words: make([]uint64, nWords), size: size}
}

// Copy returns a brand new BitSet with the same size and bits set as 'bs'.
func (bs *BitSet) Copy() *BitSet {
	if bs == nil {
		return nil
	}
	cp := NewBitSet(bs.size)
	copy(cp.words, bs.words)
	return cp
}

// Set adds 'pos' to the set. Positions beyond the configured size are ignored.
func (bs *BitSet) Set(pos int) {
	if pos < 0 || pos >= bs.size {
		return
	}
	bs.words[pos/bitsPerWord] |= 1 << uint(pos%bitsPerWord)
}

// Clear removes 'pos' from the set.
func (bs *BitSet) Clear(pos int) {
	if pos < 0 || pos >= bs.size {
		return
	}
	bs.words[pos/bitsPerWord] &^= 1 << uint(pos%bitsPerWord)
}

// Test reports whether 'pos' is a member of the set.
func (bs *BitSet) Test(pos int) bool {
	if bs == nil || pos < 0 || pos >= bs.size {
		return false
	}
	return bs.words[pos/bitsPerWord]&(1<<uint(pos%bitsPerWord)) != 0
}

// Union performs dest = dest U src, ignoring a nil src.
func (bs *BitSet) Union(src *BitSet) {
	if src == nil {
		return
	}
	n := len(bs.words)
	if len(src.words) < n {
		n = len(src.words)
	}
	for i := 0; i < n; i++ {
		bs.words[i] |= src.words[i]
	}
}

// Equals reports whether two BitSets (nil included) hold identical bits.
func Equals(a, b *BitSet) bool {
	if a == nil && b == nil {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if len(a.words) != len(b.words) {
		return false
	}
	for i := range a.words {
		if a.words[i] != b.words[i] {
			return false
		}
	}
	return true
}

// Members returns, in ascending order, every position currently set.
func (bs *BitSet) Members() []int {
	if bs == nil {
		return nil
	}
	members := []int{}
	for i := 0; i < bs.size; i++ {
		if bs.Test(i) {
			members = append(members, i)
		}
	}
	return members
}

// String renders the bitset as a space-separated (every 8 bits) binary
// string, mirroring the listing dump used while debugging liveness fixpoints.
func (bs *BitSet) String() string {
	if bs == nil {
		return "∅"
	}

	out := make([]byte, 0, bs.size+bs.size/8)
	for i := 0; i < bs.size; i++ {
		if bs.Test(i) {
			out = append(out, '1')
		} else {
			out = append(out, '0')
		}
		if (i+1)%8 == 0 && i+1 < bs.size {
			out = append(out, ' ')
		}
	}
	return fmt.Sprintf("%s", out)
}
