package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
	"clinic-management-api/pkg/validator"

	"github.com/google/uuid"
)

type FeedbackHandler struct {
	feedbackUsecase usecase.FeedbackUsecase
	validator       *validator.CustomValidator
}

func NewFeedbackHandler(feedbackUsecase usecase.FeedbackUsecase, validator *validator.CustomValidator) *FeedbackHandler {
	return &FeedbackHandler{
		feedbackUsecase: feedbackUsecase,
		validator:       validator,
	}
}

func (h *FeedbackHandler) CreateFeedback(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateFeedbackRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, http.StatusBadRequest, "Invalid request body", nil)
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		response.ValidationError(w, h.validator.FormatValidationErrors(err))
		return
	}

	feedback, err := h.feedbackUsecase.CreateFeedback(r.Context(), &req)
	if err != nil {
		switch err {
		case usecase.ErrAppointmentNotFound:
			response.NotFound(w, "Appointment not found")
		case usecase.ErrFeedbackNotAllowed:
			response.Forbidden(w, "Appointment does not belong to you")
		case usecase.ErrAppointmentNotCompleted:
			response.Error(w, http.StatusBadRequest, "Feedback requires a completed appointment", nil)
		case usecase.ErrFeedbackAlreadySubmitted:
			response.Error(w, http.StatusConflict, "Feedback already submitted for this appointment", nil)
		default:
			response.InternalServerError(w, "Failed to create feedback")
		}
		return
	}

	response.Success(w, http.StatusCreated, "Feedback created successfully", feedback)
}

func (h *FeedbackHandler) ListFeedbacks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := &entity.FeedbackFilter{
		DateFrom: q.Get("date_from"),
		DateTo:   q.Get("date_to"),
	}
	if doctorID, err := uuid.Parse(q.Get("doctor_id")); err == nil {
		filter.DoctorID = &doctorID
	}
	if patientID, err := uuid.Parse(q.Get("patient_id")); err == nil {
		filter.PatientID = &patientID
	}
	filter.Rating, _ = strconv.Atoi(q.Get("rating"))
	filter.Page, _ = strconv.Atoi(q.Get("page"))
	filter.PageSize, _ = strconv.Atoi(q.Get("page_size"))

	feedbacks, err := h.feedbackUsecase.ListFeedbacks(r.Context(), filter)
	if err != nil {
		response.InternalServerError(w, "Failed to list feedbacks")
		return
	}

	response.Success(w, http.StatusOK, "Feedbacks retrieved successfully", feedbacks)
}
