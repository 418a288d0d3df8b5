package strategy

// Candidate is the read-only view of a pool member that strategies select from.
type Candidate interface {
	Address() string
	Weight() int
	ActiveConnections() int
}

// Candidates is an ordered, indexable set of candidates.
// Implementations must not allocate on Len or At since Select runs on the request path.
type Candidates interface {
	Len() int
	At(i int) Candidate
}

// Strategy returns the position of the next candidate to use, or -1 when
// there is nothing to select. Strategies are not safe for concurrent use:
// the owner of the candidate set serializes every call.
type Strategy interface {
	Select(candidates Candidates) int

	// Removed is called after the owner compacted its order by moving the
	// last candidate into position index. size is the new length.
	Removed(index, size int)
}
