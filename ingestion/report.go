package ingestion

import "time"

// FileStatus is the outcome of one input file.
type FileStatus string

const (
	FileProcessed FileStatus = "processed"
	FileSkipped   FileStatus = "skipped"
	FileFailed    FileStatus = "failed"
)

// FileReport describes what happened to one input file.
type FileReport struct {
	Path    string
	DocType string
	Status  FileStatus
	Reason  string
	Records int
	// Complete is true when every record of the file was upserted.
	Complete bool
}

// Report summarizes a run.
type Report struct {
	RunID           string
	Namespace       string
	FilesFound      int
	FilesProcessed  int
	FilesSkipped    int
	FilesFailed     int
	RecordsBuilt    int
	VectorsUpserted int
	VectorsFailed   int
	FailedIDs       []string
	Files           []FileReport
	StartedAt       time.Time
	Duration        time.Duration
}

func (r *Report) add(f FileReport) {
	r.Files = append(r.Files, f)
	r.RecordsBuilt += f.Records
	switch f.Status {
	case FileProcessed:
		r.FilesProcessed++
	case FileSkipped:
		r.FilesSkipped++
	case FileFailed:
		r.FilesFailed++
	}
}
