package domain

// NextID returns the next id of a high-water-mark allocator:
// 1 when nothing exists yet, otherwise max(existing)+1.
// Freed ids are never handed out again as long as the caller passes the
// current persisted maximum and serializes allocation with the insert.
func NextID(existing ...int64) int64 {
	var max int64
	for _, id := range existing {
		if id > max {
			max = id
		}
	}
	return max + 1
}
