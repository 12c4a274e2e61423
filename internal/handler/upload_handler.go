package handler

import (
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/mansoorceksport/examcore/internal/middleware"
	"github.com/mansoorceksport/examcore/internal/service"
)

// UploadHandler handles question-image upload requests
type UploadHandler struct {
	uploads *service.UploadService
	policy  domain.UploadPolicy
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploads *service.UploadService, policy domain.UploadPolicy) *UploadHandler {
	return &UploadHandler{uploads: uploads, policy: policy}
}

// UploadExamQuestionImage handles POST /v1/uploads/exam-question-image/:examId/:questionId
func (h *UploadHandler) UploadExamQuestionImage(c *fiber.Ctx) error {
	file, err := h.readImage(c)
	if err != nil {
		return respondError(c, err)
	}

	stored, err := h.uploads.UploadExamQuestionImage(
		c.Context(),
		c.Params("examId"),
		c.Params("questionId"),
		middleware.GetActor(c),
		file,
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stored)
}

// UploadQuestionImage handles POST /v1/uploads/question-image/:questionId
func (h *UploadHandler) UploadQuestionImage(c *fiber.Ctx) error {
	file, err := h.readImage(c)
	if err != nil {
		return respondError(c, err)
	}

	stored, err := h.uploads.UploadQuestionImage(
		c.Context(),
		c.Params("questionId"),
		middleware.GetActor(c),
		file,
	)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(stored)
}

// readImage extracts the multipart part named "image" and applies the
// transport-level type and size checks before the service sees the bytes.
// The service re-checks both; rejecting here just avoids buffering files
// we already know are unacceptable.
func (h *UploadHandler) readImage(c *fiber.Ctx) (*service.UploadedFile, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, domain.Invalid("No file provided. Please upload an image with field name 'image'.")
	}

	mimeType := fileHeader.Header.Get("Content-Type")
	if !h.policy.AllowsMIME(mimeType) {
		return nil, domain.Invalid("Invalid file type. Allowed types: %s", strings.Join(domain.AllowedImageExtensions, ", "))
	}
	if fileHeader.Size > h.policy.MaxBytes {
		return nil, domain.Invalid("File size exceeds maximum allowed size of %s", domain.FormatSize(h.policy.MaxBytes))
	}

	f, err := fileHeader.Open()
	if err != nil {
		return nil, domain.Invalid("Failed to read uploaded file: %v", err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, domain.Invalid("Failed to read uploaded file: %v", err)
	}

	return &service.UploadedFile{
		Data:         data,
		OriginalName: fileHeader.Filename,
		MIMEType:     mimeType,
	}, nil
}
