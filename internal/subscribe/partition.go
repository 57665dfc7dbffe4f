package subscribe

// Group is an ordered set of symbols sent in one subscribe request.
type Group struct {
	Symbols []string

	// Oversized marks a single symbol whose identifier alone exceeds the
	// byte budget. It is emitted as its own group rather than silently
	// dropped; the feed session logs it and still attempts the subscribe.
	Oversized bool
}

// Size returns the serialized request size of the group: symbol lengths plus
// one separator overhead per symbol.
func (g Group) Size(separatorOverhead int) int {
	size := 0
	for _, s := range g.Symbols {
		size += len(s) + separatorOverhead
	}
	return size
}

// Partition splits symbols into groups whose serialized size (each symbol
// plus separatorOverhead) stays within maxBytes. Greedy single-pass packing:
// only the last group may be non-maximal. A symbol that cannot fit even alone
// becomes its own Oversized group.
func Partition(symbols []string, maxBytes, separatorOverhead int) []Group {
	var groups []Group

	var current []string
	currentSize := 0

	flush := func() {
		if len(current) > 0 {
			groups = append(groups, Group{Symbols: current})
			current = nil
			currentSize = 0
		}
	}

	for _, sym := range symbols {
		need := len(sym) + separatorOverhead

		if need > maxBytes {
			flush()
			groups = append(groups, Group{Symbols: []string{sym}, Oversized: true})
			continue
		}

		if currentSize+need > maxBytes {
			flush()
		}

		current = append(current, sym)
		currentSize += need
	}
	flush()

	return groups
}
