package handler

import (
	"net/http"

	"clinic-management-api/internal/usecase"
	"clinic-management-api/pkg/response"
)

type SpecialtyHandler struct {
	specialtyUsecase usecase.SpecialtyUsecase
}

func NewSpecialtyHandler(specialtyUsecase usecase.SpecialtyUsecase) *SpecialtyHandler {
	return &SpecialtyHandler{specialtyUsecase: specialtyUsecase}
}

func (h *SpecialtyHandler) ListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.specialtyUsecase.ListSpecialties(r.Context())
	if err != nil {
		response.InternalServerError(w, "Failed to list specialties")
		return
	}

	response.Success(w, http.StatusOK, "Specialties retrieved successfully", specialties)
}
