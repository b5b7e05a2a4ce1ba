package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func ScheduleToResponse(schedule *entity.Schedule) *dto.ScheduleResponse {
	slots := make([]dto.SlotResponse, len(schedule.Slots))
	for i, slot := range schedule.Slots {
		slots[i] = dto.SlotResponse{
			ID:          slot.ID,
			Index:       i,
			Start:       slot.Start,
			End:         slot.End,
			Capacity:    slot.Capacity,
			BookedCount: slot.BookedCount,
			Available:   slot.Capacity - slot.BookedCount,
		}
	}

	resp := &dto.ScheduleResponse{
		ID:           schedule.ID,
		DoctorID:     schedule.DoctorID,
		ScheduleDate: schedule.DateString(),
		Slots:        slots,
		CreatedAt:    schedule.CreatedAt,
		UpdatedAt:    schedule.UpdatedAt,
	}

	if schedule.Doctor.User.FullName != "" {
		resp.DoctorName = schedule.Doctor.User.FullName
		resp.Specialty = schedule.Doctor.Specialty.Name
		resp.Room = schedule.Doctor.Room
	}

	return resp
}

func SchedulesToResponses(schedules []entity.Schedule) []*dto.ScheduleResponse {
	responses := make([]*dto.ScheduleResponse, len(schedules))
	for i := range schedules {
		responses[i] = ScheduleToResponse(&schedules[i])
	}
	return responses
}
