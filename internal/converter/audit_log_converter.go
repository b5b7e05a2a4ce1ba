package converter

import (
	"clinic-management-api/internal/delivery/dto"
	"clinic-management-api/internal/domain/entity"
)

func AuditLogToResponse(log *entity.AuditLog) *dto.AuditLogResponse {
	resp := &dto.AuditLogResponse{
		ID:        log.ID,
		UserID:    log.UserID,
		Action:    log.Action,
		Metadata:  log.Metadata,
		CreatedAt: log.CreatedAt,
	}

	if log.User != nil {
		resp.UserName = log.User.FullName
	}

	return resp
}

func AuditLogsToResponses(logs []entity.AuditLog) []*dto.AuditLogResponse {
	responses := make([]*dto.AuditLogResponse, len(logs))
	for i := range logs {
		responses[i] = AuditLogToResponse(&logs[i])
	}
	return responses
}
