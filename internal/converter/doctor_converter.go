package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func DoctorToResponse(profile *entity.DoctorProfile) *dto.DoctorResponse {
	return &dto.DoctorResponse{
		UserID:    profile.UserID,
		Email:     profile.User.Email,
		FullName:  profile.User.FullName,
		Phone:     profile.User.Phone,
		Specialty: profile.Specialty.Name,
		Bio:       profile.Bio,
		Room:      profile.Room,
		CreatedAt: profile.User.CreatedAt,
	}
}

func DoctorsToResponses(profiles []entity.DoctorProfile) []*dto.DoctorResponse {
	responses := make([]*dto.DoctorResponse, len(profiles))
	for i := range profiles {
		responses[i] = DoctorToResponse(&profiles[i])
	}
	return responses
}
