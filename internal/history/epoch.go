package history

// Week is the length of a gauge voting epoch in seconds.
const Week uint64 = 604800

// Epoch returns the start of the epoch containing ts.
func Epoch(ts, week uint64) uint64 {
	if week == 0 {
		week = Week
	}
	return ts / week * week
}
