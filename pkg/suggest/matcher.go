package suggest

// autoJunkMinLen is the b length from which very common runes are
// left out of the match index.
const autoJunkMinLen = 200

// sequenceMatcher finds matching blocks between two rune slices the
// Ratcliff/Obershelp way: take the longest common block, then recurse on
// the pieces left and right of it.
type sequenceMatcher struct {
	a, b []rune
	b2j  map[rune][]int
}

func newSequenceMatcher(a, b []rune) *sequenceMatcher {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}
	if n := len(b); n >= autoJunkMinLen {
		popular := n/100 + 1
		for r, idx := range b2j {
			if len(idx) > popular {
				delete(b2j, r)
			}
		}
	}
	return &sequenceMatcher{a: a, b: b, b2j: b2j}
}

// longestMatch returns (i, j, k) such that a[i:i+k] == b[j:j+k] is the
// longest block in a[alo:ahi] x b[blo:bhi], earliest in a, then in b.
func (m *sequenceMatcher) longestMatch(alo, ahi, blo, bhi int) (int, int, int) {
	besti, bestj, bestsize := alo, blo, 0
	j2len := map[int]int{}
	for i := alo; i < ahi; i++ {
		next := map[int]int{}
		for _, j := range m.b2j[m.a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			next[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = next
	}

	// popular runes were left out of the index, extend over them here
	for besti > alo && bestj > blo && m.a[besti-1] == m.b[bestj-1] {
		besti, bestj, bestsize = besti-1, bestj-1, bestsize+1
	}
	for besti+bestsize < ahi && bestj+bestsize < bhi && m.a[besti+bestsize] == m.b[bestj+bestsize] {
		bestsize++
	}
	return besti, bestj, bestsize
}

// matches is the total size of all matching blocks.
func (m *sequenceMatcher) matches() int {
	type span struct{ alo, ahi, blo, bhi int }

	total := 0
	queue := []span{{0, len(m.a), 0, len(m.b)}}
	for len(queue) > 0 {
		s := queue[len(queue)-1]
		queue = queue[:len(queue)-1]

		i, j, k := m.longestMatch(s.alo, s.ahi, s.blo, s.bhi)
		if k == 0 {
			continue
		}
		total += k
		if s.alo < i && s.blo < j {
			queue = append(queue, span{s.alo, i, s.blo, j})
		}
		if i+k < s.ahi && j+k < s.bhi {
			queue = append(queue, span{i + k, s.ahi, j + k, s.bhi})
		}
	}
	return total
}

// ratio is 2*M/T, with M matched runes and T the combined length.
// Two empty inputs are identical and score 1.
func ratio(a, b []rune) float64 {
	t := len(a) + len(b)
	if t == 0 {
		return 1
	}
	return 2 * float64(newSequenceMatcher(a, b).matches()) / float64(t)
}
