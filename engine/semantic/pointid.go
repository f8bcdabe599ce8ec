package semantic

// PointID derives the vector-store key for a content id: FNV-1a 64-bit over
// the id bytes. Deterministic across processes, so repeated upserts of the
// same content always address the same point.
func PointID(contentID string) uint64 {
	const (
		offset64 = 14695981039346656037
		prime64  = 1099511628211
	)
	h := uint64(offset64)
	for i := 0; i < len(contentID); i++ {
		h ^= uint64(contentID[i])
		h *= prime64
	}
	return h
}

// LegacyPointID reproduces the original addressing scheme: a 31-multiplier
// polynomial rolling hash with 32-bit wraparound, absolute value. Distinct
// ids can and do collide at 32 bits ("Aa" and "BB" hash identically), which
// is why live points are keyed by PointID instead. Kept only so the backfill
// tool can locate points written under the old scheme.
func LegacyPointID(contentID string) uint64 {
	var h int32
	for _, c := range contentID {
		h = 31*h + c
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return uint64(v)
}
