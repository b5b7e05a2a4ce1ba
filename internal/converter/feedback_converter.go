package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func FeedbackToResponse(feedback *entity.Feedback) *dto.FeedbackResponse {
	resp := &dto.FeedbackResponse{
		ID:            feedback.ID,
		AppointmentID: feedback.AppointmentID,
		DoctorID:      feedback.DoctorID,
		PatientID:     feedback.PatientID,
		Rating:        feedback.Rating,
		Comment:       feedback.Comment,
		CreatedAt:     feedback.CreatedAt,
	}

	if feedback.Doctor.User.FullName != "" {
		resp.DoctorName = feedback.Doctor.User.FullName
	}
	if feedback.Patient.User.FullName != "" {
		resp.PatientName = feedback.Patient.User.FullName
	}

	return resp
}

func FeedbacksToResponses(feedbacks []entity.Feedback) []*dto.FeedbackResponse {
	responses := make([]*dto.FeedbackResponse, len(feedbacks))
	for i := range feedbacks {
		responses[i] = FeedbackToResponse(&feedbacks[i])
	}
	return responses
}
