package handler

import (
	"io"
	"mime"
	"net/http"
	"strings"
	"time"

	"github.com/incidenthq/api/internal/app"
	httpx "github.com/incidenthq/api/internal/infra/http"
	"github.com/incidenthq/api/internal/infra/http/middleware"
	"github.com/incidenthq/api/pkg/apierror"
	"github.com/incidenthq/api/pkg/domain/report"
	"github.com/incidenthq/api/pkg/logger"
)

// maxMultipartMemory bounds the in-memory portion of multipart parsing;
// larger files spill to disk.
const maxMultipartMemory = 4 << 20

// EvidenceHandler handles evidence file requests.
type EvidenceHandler struct {
	evidenceService *app.EvidenceService
	logger          *logger.Logger
}

// NewEvidenceHandler creates a new EvidenceHandler.
func NewEvidenceHandler(evidenceService *app.EvidenceService, log *logger.Logger) *EvidenceHandler {
	return &EvidenceHandler{
		evidenceService: evidenceService,
		logger:          log.With("handler", "evidence"),
	}
}

// EvidenceResponse is the API representation of an evidence file.
// File bytes are served by Download, not embedded here.
type EvidenceResponse struct {
	ID         string    `json:"id"`
	ReportID   string    `json:"report_id"`
	UploaderID string    `json:"uploader_id"`
	Filename   string    `json:"filename"`
	Mimetype   string    `json:"mimetype"`
	Size       int64     `json:"size"`
	CreatedAt  time.Time `json:"created_at"`
}

func toEvidenceResponse(f *report.EvidenceFile) EvidenceResponse {
	return EvidenceResponse{
		ID:         f.ID().String(),
		ReportID:   f.ReportID().String(),
		UploaderID: f.UploaderID().String(),
		Filename:   f.Filename(),
		Mimetype:   f.Mimetype(),
		Size:       f.Size(),
		CreatedAt:  f.CreatedAt(),
	}
}

// Upload attaches a file to a report. Accepts multipart/form-data with
// a "file" field, or a raw body with the filename in the query string.
// Raw bodies may be gzip or zstd compressed in transit.
func (h *EvidenceHandler) Upload(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	filename, mimetype, data, err := readUploadedFile(r)
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	f, err := h.evidenceService.UploadEvidence(r.Context(), actorID, app.UploadEvidenceInput{
		ReportID: httpx.PathParam(r, "reportID"),
		Filename: filename,
		Mimetype: mimetype,
		Data:     data,
	})
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	respondJSON(w, http.StatusCreated, toEvidenceResponse(f))
}

func readUploadedFile(r *http.Request) (filename, mimetype string, data []byte, err error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if strings.HasPrefix(mediaType, "multipart/") {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return "", "", nil, apierror.BadRequest("Invalid multipart body")
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			return "", "", nil, apierror.BadRequest("Missing file field")
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			return "", "", nil, apierror.BadRequest("Failed to read file")
		}
		return header.Filename, header.Header.Get("Content-Type"), data, nil
	}

	filename = httpx.QueryParam(r, "filename")
	if filename == "" {
		return "", "", nil, apierror.BadRequest("Missing filename query parameter")
	}

	data, err = io.ReadAll(r.Body)
	if err != nil {
		return "", "", nil, apierror.BadRequest("Failed to read request body")
	}
	return filename, mediaType, data, nil
}

// Download streams an evidence file's bytes.
func (h *EvidenceHandler) Download(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	f, err := h.evidenceService.GetEvidence(r.Context(), actorID, httpx.PathParam(r, "evidenceID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	mimetype := f.Mimetype()
	if mimetype == "" {
		mimetype = "application/octet-stream"
	}

	w.Header().Set("Content-Type", mimetype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.Filename()}))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	_, _ = w.Write(f.Data())
}

// List lists a report's evidence files, metadata only.
func (h *EvidenceHandler) List(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	files, err := h.evidenceService.ListEvidence(r.Context(), actorID, httpx.PathParam(r, "reportID"))
	if err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	data := make([]EvidenceResponse, 0, len(files))
	for _, f := range files {
		data = append(data, toEvidenceResponse(f))
	}

	respondJSON(w, http.StatusOK, ListResponse[EvidenceResponse]{
		Data:  data,
		Count: len(data),
	})
}

// Delete removes an evidence file.
func (h *EvidenceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		apierror.Unauthorized("").WriteJSON(w)
		return
	}

	if err := h.evidenceService.DeleteEvidence(r.Context(), actorID, httpx.PathParam(r, "evidenceID")); err != nil {
		handleDomainError(w, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
