package watcher

import "time"

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a file appeared since the previous sample.
	OpCreate Operation = iota
	// OpModify indicates a file's modification time or size changed.
	OpModify
	// OpDelete indicates a file disappeared since the previous sample.
	OpDelete
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	default:
		return "UNKNOWN"
	}
}

// FileEvent describes one difference between two samples.
type FileEvent struct {
	// Path is the absolute path of the file.
	Path string

	// Operation is the kind of change.
	Operation Operation
}

// Options configures the refresher.
type Options struct {
	// PollInterval is the time between change checks.
	// Default: 5s
	PollInterval time.Duration

	// UseFsnotify wakes the refresher early on file system events.
	// Default: false
	UseFsnotify bool
}

// DefaultOptions returns the default refresher options.
func DefaultOptions() Options {
	return Options{
		PollInterval: 5 * time.Second,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = DefaultOptions().PollInterval
	}
	return o
}
