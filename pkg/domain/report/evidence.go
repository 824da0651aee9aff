package report

import (
	"fmt"
	"time"

	"github.com/incidenthq/api/pkg/domain/shared"
)

const maxEvidenceSize = 50 * 1024 * 1024

// EvidenceFile is a file attached to a report. Bytes are stored through
// the repository alongside the metadata.
type EvidenceFile struct {
	id         shared.ID
	reportID   shared.ID
	uploaderID shared.ID
	filename   string
	mimetype   string
	size       int64
	data       []byte
	createdAt  time.Time
}

// NewEvidenceFile creates an evidence file record.
func NewEvidenceFile(reportID, uploaderID shared.ID, filename, mimetype string, data []byte, now time.Time) (*EvidenceFile, error) {
	if reportID.IsZero() {
		return nil, fmt.Errorf("%w: report ID is required", shared.ErrValidation)
	}
	if uploaderID.IsZero() {
		return nil, fmt.Errorf("%w: uploader ID is required", shared.ErrValidation)
	}
	if filename == "" {
		return nil, fmt.Errorf("%w: filename is required", shared.ErrValidation)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: file is empty", shared.ErrValidation)
	}
	if len(data) > maxEvidenceSize {
		return nil, fmt.Errorf("%w: file exceeds %d bytes", shared.ErrValidation, maxEvidenceSize)
	}
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	return &EvidenceFile{
		id:         shared.NewID(),
		reportID:   reportID,
		uploaderID: uploaderID,
		filename:   filename,
		mimetype:   mimetype,
		size:       int64(len(data)),
		data:       data,
		createdAt:  now,
	}, nil
}

// ReconstituteEvidenceFile recreates an EvidenceFile from persistence.
// Data may be nil when only metadata was loaded.
func ReconstituteEvidenceFile(id, reportID, uploaderID shared.ID, filename, mimetype string, size int64, data []byte, createdAt time.Time) *EvidenceFile {
	return &EvidenceFile{
		id:         id,
		reportID:   reportID,
		uploaderID: uploaderID,
		filename:   filename,
		mimetype:   mimetype,
		size:       size,
		data:       data,
		createdAt:  createdAt,
	}
}

// ID returns the file ID.
func (f *EvidenceFile) ID() shared.ID { return f.id }

// ReportID returns the owning report's ID.
func (f *EvidenceFile) ReportID() shared.ID { return f.reportID }

// UploaderID returns the uploader's user ID.
func (f *EvidenceFile) UploaderID() shared.ID { return f.uploaderID }

// Filename returns the original filename.
func (f *EvidenceFile) Filename() string { return f.filename }

// Mimetype returns the declared MIME type.
func (f *EvidenceFile) Mimetype() string { return f.mimetype }

// Size returns the file size in bytes.
func (f *EvidenceFile) Size() int64 { return f.size }

// Data returns the file bytes, nil when not loaded.
func (f *EvidenceFile) Data() []byte { return f.data }

// CreatedAt returns the upload timestamp.
func (f *EvidenceFile) CreatedAt() time.Time { return f.createdAt }
