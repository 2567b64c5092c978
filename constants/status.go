package constants

// JobStatus is the outcome recorded for a batch document.
type JobStatus string

const (
	JobStatusQueued  JobStatus = "QUEUED"  // waiting for a worker
	JobStatusRunning JobStatus = "RUNNING" // in progress
	JobStatusOK      JobStatus = "OK"      // text and fields extracted
	JobStatusFailed  JobStatus = "FAILED"  // terminal failure
)

// Extraction methods reported on results.
const (
	MethodPDFText  = "pdf-text"
	MethodPDFOCR   = "pdf-ocr"
	MethodImageOCR = "image-ocr"
)
