package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func PatientToResponse(profile *entity.PatientProfile) *dto.PatientResponse {
	return &dto.PatientResponse{
		UserID:      profile.UserID,
		Email:       profile.User.Email,
		FullName:    profile.User.FullName,
		Phone:       profile.User.Phone,
		DateOfBirth: profile.DateOfBirth.Format("2006-01-02"),
		Gender:      profile.Gender,
		Address:     profile.Address,
		CreatedAt:   profile.User.CreatedAt,
	}
}

func PatientsToResponses(profiles []entity.PatientProfile) []*dto.PatientResponse {
	responses := make([]*dto.PatientResponse, len(profiles))
	for i := range profiles {
		responses[i] = PatientToResponse(&profiles[i])
	}
	return responses
}
