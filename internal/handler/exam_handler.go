package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mansoorceksport/examcore/internal/domain"
	"github.com/mansoorceksport/examcore/internal/middleware"
	"github.com/mansoorceksport/examcore/internal/service"
)

// ExamHandler handles exam and question endpoints
type ExamHandler struct {
	exams *service.ExamService
}

// NewExamHandler creates a new exam handler
func NewExamHandler(exams *service.ExamService) *ExamHandler {
	return &ExamHandler{exams: exams}
}

// CreateExamRequest is the body for POST /v1/exams
type CreateExamRequest struct {
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	TotalMarks   int    `json:"total_marks"`
	PassingMarks int    `json:"passing_marks"`
}

// CreateExam handles POST /v1/exams
func (h *ExamHandler) CreateExam(c *fiber.Ctx) error {
	var req CreateExamRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.Invalid("Invalid request body"))
	}

	exam := &domain.Exam{
		Title:        req.Title,
		Subject:      req.Subject,
		TotalMarks:   req.TotalMarks,
		PassingMarks: req.PassingMarks,
	}

	if err := h.exams.CreateExam(c.Context(), middleware.GetActor(c), exam); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    exam,
	})
}

// ListExams handles GET /v1/exams
func (h *ExamHandler) ListExams(c *fiber.Ctx) error {
	exams, err := h.exams.ListMyExams(c.Context(), middleware.GetActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    exams,
	})
}

// GetExam handles GET /v1/exams/:id
func (h *ExamHandler) GetExam(c *fiber.Ctx) error {
	exam, questions, err := h.exams.GetExamWithQuestions(c.Context(), c.Params("id"))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"exam":      exam,
			"questions": questions,
		},
	})
}

// UpdateExamRequest is the body for PUT /v1/exams/:id
type UpdateExamRequest struct {
	Title        string `json:"title"`
	Subject      string `json:"subject"`
	TotalMarks   int    `json:"total_marks"`
	PassingMarks int    `json:"passing_marks"`
	Status       string `json:"status"`
}

// UpdateExam handles PUT /v1/exams/:id
func (h *ExamHandler) UpdateExam(c *fiber.Ctx) error {
	var req UpdateExamRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.Invalid("Invalid request body"))
	}

	exam := &domain.Exam{
		ID:           c.Params("id"),
		Title:        req.Title,
		Subject:      req.Subject,
		TotalMarks:   req.TotalMarks,
		PassingMarks: req.PassingMarks,
		Status:       req.Status,
	}

	if err := h.exams.UpdateExam(c.Context(), middleware.GetActor(c), exam); err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    exam,
	})
}

// AddQuestionRequest is the body for POST /v1/exams/:id/questions
type AddQuestionRequest struct {
	Text  string `json:"text"`
	Type  string `json:"type"`
	Marks int    `json:"marks"`
	Order int    `json:"order"`
}

// AddQuestion handles POST /v1/exams/:id/questions
func (h *ExamHandler) AddQuestion(c *fiber.Ctx) error {
	var req AddQuestionRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.Invalid("Invalid request body"))
	}

	question := &domain.Question{
		Text:  req.Text,
		Type:  req.Type,
		Marks: req.Marks,
		Order: req.Order,
	}

	if err := h.exams.AddQuestion(c.Context(), c.Params("id"), middleware.GetActor(c), question); err != nil {
		return respondError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    question,
	})
}

// UpdateQuestionImageRequest is the body for PATCH /v1/questions/:questionId/image
type UpdateQuestionImageRequest struct {
	ImageURL string `json:"imageUrl"`
}

// UpdateQuestionImage handles PATCH /v1/questions/:questionId/image
func (h *ExamHandler) UpdateQuestionImage(c *fiber.Ctx) error {
	var req UpdateQuestionImageRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, domain.Invalid("Invalid request body"))
	}

	question, err := h.exams.SetQuestionImage(c.Context(), c.Params("questionId"), middleware.GetActor(c), req.ImageURL)
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    question,
	})
}
