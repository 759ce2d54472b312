package vtx

// TimeUs is a free-running microsecond counter that wraps at 2^32
// (roughly every 71.6 minutes).
type TimeUs uint32

// CmpTimeUs returns a - b as a signed difference, which stays correct
// across a single counter wrap as long as the two instants are less than
// half the counter range apart.
func CmpTimeUs(a, b TimeUs) int32 {
	return int32(a - b)
}
