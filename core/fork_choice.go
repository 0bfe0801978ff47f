package core

// ChooseHead picks the canonical tip between the current head and a
// candidate: strictly greater height always wins; on an exact height tie,
// the candidate with the lexicographically larger hash bytes wins. Hash
// values in this runtime are fixed-width (32 bytes), so "longer length
// wins, then lexicographic bytes" reduces to a plain byte comparison, which
// is all Hash.Compare does.
func ChooseHead(current HeadRef, hasCurrent bool, candidate HeadRef) HeadRef {
	if !hasCurrent {
		return candidate
	}
	if candidate.Height != current.Height {
		if candidate.Height > current.Height {
			return candidate
		}
		return current
	}
	if candidate.Hash.Compare(current.Hash) > 0 {
		return candidate
	}
	return current
}
