package directive

// Renamed records one synthesized filename.
type Renamed struct {
	Index    int
	Title    string
	Filename string
}

// Skipped records one episode left out of the output.
type Skipped struct {
	Index  int
	Title  string
	Reason string
}

// Report accumulates per-run outcomes. Build updates it as each episode is
// committed, so it is complete up to the last committed episode even when the
// run is interrupted. It is not safe for concurrent use.
type Report struct {
	// Episodes counts episodes handed to Build.
	Episodes int
	// Committed counts episodes whose outcome is final.
	Committed     int
	Renamed       []Renamed
	Skipped       []Skipped
	ProbeFailures int
	Collisions    int
}

// Created returns the number of synthesized filenames.
func (r *Report) Created() int {
	if r == nil {
		return 0
	}
	return len(r.Renamed)
}

// AddSkipped appends a skipped entry.
func (r *Report) AddSkipped(index int, title, reason string) {
	if r == nil {
		return
	}
	r.Skipped = append(r.Skipped, Skipped{Index: index, Title: title, Reason: reason})
}
