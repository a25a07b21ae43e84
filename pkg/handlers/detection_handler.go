package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/cropmind/cropmind-engine/pkg/apperrors"
	"github.com/cropmind/cropmind-engine/pkg/jsonutil"
	"github.com/cropmind/cropmind-engine/pkg/models"
	"github.com/cropmind/cropmind-engine/pkg/services"
	"github.com/cropmind/cropmind-engine/pkg/uploads"
)

// maxFormMemory caps the in-memory portion of a parsed multipart form.
// Larger file parts spill to temporary files.
const maxFormMemory = 10 << 20

// AnalyzeResponse is the payload returned by POST /api/analyze.
type AnalyzeResponse struct {
	PestName  string   `json:"pest_name"`
	Remedies  []string `json:"remedies"`
	Treatment string   `json:"treatment"`
	Raw       string   `json:"raw"`
}

// DetectionHandler handles pest analysis and detection record endpoints.
type DetectionHandler struct {
	service services.DetectionService
	stager  *uploads.Stager
	store   *uploads.Store
	logger  *zap.Logger
}

// NewDetectionHandler creates a new DetectionHandler.
func NewDetectionHandler(service services.DetectionService, stager *uploads.Stager, store *uploads.Store, logger *zap.Logger) *DetectionHandler {
	return &DetectionHandler{
		service: service,
		stager:  stager,
		store:   store,
		logger:  logger,
	}
}

// RegisterRoutes registers the detection handler's routes on the given mux.
func (h *DetectionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analyze", h.Analyze)
	mux.HandleFunc("POST /api/detections", h.SaveDetection)
	mux.HandleFunc("GET /api/detections", h.ListDetections)
}

// Analyze handles POST /api/analyze requests.
// It forwards the uploaded image to the inference provider and returns the
// normalized result without persisting anything.
func (h *DetectionHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidForm, "request must be multipart/form-data")
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeImageRequired, "image file is required")
		return
	}
	defer func() { _ = file.Close() }()

	staged, err := h.stager.Stage(file, header)
	if err != nil {
		if errors.Is(err, uploads.ErrTooLarge) {
			_ = ErrorResponse(w, http.StatusRequestEntityTooLarge, ErrCodeImageTooLarge, "image exceeds the upload size limit")
			return
		}
		h.logger.Error("Failed to stage uploaded image", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeStagingFailed, "failed to process uploaded image")
		return
	}
	defer staged.Release()

	image, err := staged.Bytes()
	if err != nil {
		h.logger.Error("Failed to read staged image", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeStagingFailed, "failed to process uploaded image")
		return
	}

	result, err := h.service.Analyze(r.Context(), image, staged.MIMEType())
	if err != nil {
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeAnalysisFailed, "image analysis failed")
		return
	}

	response := AnalyzeResponse{
		PestName:  result.Draft.PestName,
		Remedies:  result.Draft.Remedies,
		Treatment: result.Draft.Treatment,
		Raw:       result.Raw,
	}
	if err := WriteJSON(w, http.StatusOK, response); err != nil {
		h.logger.Error("Failed to encode analyze response", zap.Error(err))
	}
}

// SaveDetection handles POST /api/detections requests.
// Fields arrive as multipart form values, with an optional image file that is
// stored and served under the uploads path.
func (h *DetectionHandler) SaveDetection(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidForm, "malformed form data")
		return
	}

	// The documented field name is "pest"; "pest_name" is accepted as an
	// alias since it matches the response payload's key.
	pestName := r.FormValue("pest")
	if pestName == "" {
		pestName = r.FormValue("pest_name")
	}

	draft := &models.DetectionDraft{
		PestName:  pestName,
		Remedies:  jsonutil.FlexibleStringList(json.RawMessage(r.FormValue("remedies"))),
		Treatment: r.FormValue("treatment"),
	}

	var userID *uuid.UUID
	if v := r.FormValue("user_id"); v != "" {
		parsed, err := uuid.Parse(v)
		if err != nil {
			_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidUserID, "user_id must be a valid UUID")
			return
		}
		userID = &parsed
	}

	var imageURL *string
	if file, header, err := r.FormFile("image"); err == nil {
		defer func() { _ = file.Close() }()
		url, saveErr := h.store.Save(file, header)
		if saveErr != nil {
			if errors.Is(saveErr, uploads.ErrTooLarge) {
				_ = ErrorResponse(w, http.StatusRequestEntityTooLarge, ErrCodeImageTooLarge, "image exceeds the upload size limit")
				return
			}
			h.logger.Error("Failed to store uploaded image", zap.Error(saveErr))
			_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeUploadFailed, "failed to store uploaded image")
			return
		}
		imageURL = &url
	} else if !errors.Is(err, http.ErrMissingFile) {
		_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeInvalidForm, "malformed image upload")
		return
	}

	detection, err := h.service.Save(r.Context(), draft, imageURL, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrValidation) {
			_ = ErrorResponse(w, http.StatusBadRequest, ErrCodeValidation, err.Error())
			return
		}
		if imageURL != nil {
			// The stored file is not rolled back; flag it for cleanup.
			h.logger.Warn("Detection insert failed after image was stored",
				zap.String("image_url", *imageURL),
				zap.Error(err))
		}
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeSaveFailed, "failed to save detection")
		return
	}

	if err := WriteJSON(w, http.StatusCreated, detection); err != nil {
		h.logger.Error("Failed to encode detection response", zap.Error(err))
	}
}

// ListDetections handles GET /api/detections requests.
// Returns all detections as a JSON array, newest first.
func (h *DetectionHandler) ListDetections(w http.ResponseWriter, r *http.Request) {
	detections, err := h.service.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list detections", zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, ErrCodeListFailed, "failed to list detections")
		return
	}

	if detections == nil {
		detections = []*models.Detection{}
	}
	if err := WriteJSON(w, http.StatusOK, detections); err != nil {
		h.logger.Error("Failed to encode detections response", zap.Error(err))
	}
}
