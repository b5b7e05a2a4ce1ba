package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func AppointmentToResponse(appointment *entity.Appointment) *dto.AppointmentResponse {
	resp := &dto.AppointmentResponse{
		ID:         appointment.ID,
		PatientID:  appointment.PatientID,
		DoctorID:   appointment.DoctorID,
		ScheduleID: appointment.ScheduleID,
		SlotID:     appointment.SlotID,
		SlotIndex:  appointment.SlotIndex,
		Reason:     appointment.Reason,
		Note:       appointment.Note,
		Status:     string(appointment.Status),
		CanceledAt: appointment.CanceledAt,
		CreatedAt:  appointment.CreatedAt,
	}

	if appointment.CanceledBy != nil {
		resp.CanceledBy = string(*appointment.CanceledBy)
	}
	if appointment.Patient.User.FullName != "" {
		resp.PatientName = appointment.Patient.User.FullName
	}
	if appointment.Doctor.User.FullName != "" {
		resp.DoctorName = appointment.Doctor.User.FullName
		resp.Specialty = appointment.Doctor.Specialty.Name
	}
	if !appointment.Schedule.ScheduleDate.IsZero() {
		resp.Date = appointment.Schedule.DateString()
		if slot, _, err := appointment.Schedule.SlotByID(appointment.SlotID); err == nil {
			resp.SlotStart = slot.Start
			resp.SlotEnd = slot.End
		}
	}

	return resp
}

func AppointmentsToResponses(appointments []entity.Appointment) []*dto.AppointmentResponse {
	responses := make([]*dto.AppointmentResponse, len(appointments))
	for i := range appointments {
		responses[i] = AppointmentToResponse(&appointments[i])
	}
	return responses
}
