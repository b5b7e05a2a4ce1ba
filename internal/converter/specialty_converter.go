package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func SpecialtyToResponse(specialty *entity.Specialty) *dto.SpecialtyResponse {
	return &dto.SpecialtyResponse{
		ID:          specialty.ID,
		Name:        specialty.Name,
		Description: specialty.Description,
	}
}

func SpecialtiesToResponses(specialties []entity.Specialty) []*dto.SpecialtyResponse {
	responses := make([]*dto.SpecialtyResponse, len(specialties))
	for i := range specialties {
		responses[i] = SpecialtyToResponse(&specialties[i])
	}
	return responses
}
