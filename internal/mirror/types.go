package mirror

// Object is a listing-time snapshot of one stored object.
type Object struct {
	Key  string
	Size int64
}

// Task is the unit of work handed to a download worker. Each listed Object
// becomes exactly one Task, consumed by exactly one worker.
type Task struct {
	Object       Object
	RelPath      string // object key with the listing prefix stripped
	LocalPath    string // destination file path
	SkipExisting bool
	ChunkSize    int64 // read buffer size; 0 means io.Copy's default
}

// Kind classifies the result of one task.
type Kind int

const (
	// Downloaded means the object's bytes were transferred to LocalPath.
	Downloaded Kind = iota
	// Skipped means a local file with matching size already existed.
	Skipped
	// DirMarker means the key ends in '/' and was ignored without transfer.
	DirMarker
	// Failed means the transfer did not succeed within the retry deadline.
	Failed
)

func (k Kind) String() string {
	switch k {
	case Downloaded:
		return "downloaded"
	case Skipped:
		return "skipped"
	case DirMarker:
		return "dir-marker"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// Outcome is the tagged result of one task. Err is set only for Failed.
type Outcome struct {
	Object  Object
	Kind    Kind
	RelPath string
	Err     error
}

// Summary aggregates outcomes for a run.
// Downloaded + Skipped + DirMarkers + Failed always equals Total once the
// run has drained.
type Summary struct {
	Downloaded int
	Skipped    int
	DirMarkers int
	Failed     int
	Total      int
	Bytes      int64 // bytes actually transferred
}

// Add folds one outcome into the summary.
func (s *Summary) Add(o Outcome) {
	s.Total++
	switch o.Kind {
	case Downloaded:
		s.Downloaded++
		s.Bytes += o.Object.Size
	case Skipped:
		s.Skipped++
	case DirMarker:
		s.DirMarkers++
	case Failed:
		s.Failed++
	}
}

// Merge adds the counts from another summary, for multi-prefix runs.
func (s *Summary) Merge(other Summary) {
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.DirMarkers += other.DirMarkers
	s.Failed += other.Failed
	s.Total += other.Total
	s.Bytes += other.Bytes
}

// Ok reports whether the run completed without any failed task.
func (s Summary) Ok() bool {
	return s.Failed == 0
}
