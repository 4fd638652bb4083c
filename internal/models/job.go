package models

import "time"

// JobStatus is the lifecycle state of an extraction job.
type JobStatus int

const (
	// JobIdle means an image is selected but not yet submitted.
	JobIdle JobStatus = iota
	// JobUploading means the request body is being sent (progress 0-50).
	JobUploading
	// JobAwaitingResult means the upload finished and the response is being
	// read (progress 50-100).
	JobAwaitingResult
	// JobSucceeded is terminal; ExtractedText is populated.
	JobSucceeded
	// JobFailed is terminal; FailReason describes what went wrong.
	JobFailed
)

// String returns the string representation of the JobStatus.
func (s JobStatus) String() string {
	switch s {
	case JobIdle:
		return "idle"
	case JobUploading:
		return "uploading"
	case JobAwaitingResult:
		return "extracting"
	case JobSucceeded:
		return "succeeded"
	case JobFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Terminal reports whether the job has settled.
func (s JobStatus) Terminal() bool {
	return s == JobSucceeded || s == JobFailed
}

// InFlight reports whether a network call is outstanding for the job.
func (s JobStatus) InFlight() bool {
	return s == JobUploading || s == JobAwaitingResult
}

// FailureKind distinguishes quota exhaustion from everything else, because
// the two recover differently: exhaustion opens the API key panel, anything
// else renders an inline retryable error.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureQuotaExceeded
	FailureGeneric
)

// ExtractionJob represents the single in-flight or settled image-to-text
// operation. At most one job exists at a time; selecting a new image replaces
// the current job wholesale. ID comes from a monotonic counter and guards
// against late completions of replaced jobs.
type ExtractionJob struct {
	ID            int64
	ImagePath     string
	ImageName     string
	Data          []byte
	Preview       *ImagePreview
	Status        JobStatus
	Progress      float64
	ExtractedText string
	FailReason    FailureKind
	ErrMessage    string
	StartedAt     time.Time
}

// ImagePreview is the renderable representation of the selected image. It is
// derived once at selection time and discarded with the job.
type ImagePreview struct {
	Width     int
	Height    int
	Format    string
	ByteSize  int64
	Thumbnail string
}
