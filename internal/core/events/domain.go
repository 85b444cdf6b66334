package events

import (
	"time"

	"github.com/google/uuid"
)

// Event types published by the domain action layer. The notification
// dispatcher subscribes to all of them.
const (
	TypeTicketCreated      = "ticket.created"
	TypeApprovalCreated    = "approval.created"
	TypeApprovalDecided    = "approval.decided"
	TypeMaintenanceUpdated = "maintenance.updated"
)

func newEvent(eventType string, data map[string]interface{}) BaseEvent {
	return BaseEvent{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now(),
		Data:      data,
	}
}

func NewTicketCreated(displayID, subject, reporterName string) BaseEvent {
	return newEvent(TypeTicketCreated, map[string]interface{}{
		"display_id": displayID,
		"subject":    subject,
		"reporter":   reporterName,
	})
}

func NewApprovalCreated(displayID, subject, requesterName string) BaseEvent {
	return newEvent(TypeApprovalCreated, map[string]interface{}{
		"display_id": displayID,
		"subject":    subject,
		"requester":  requesterName,
	})
}

func NewApprovalDecided(displayID, subject, decision, approverName string) BaseEvent {
	return newEvent(TypeApprovalDecided, map[string]interface{}{
		"display_id": displayID,
		"subject":    subject,
		"decision":   decision,
		"approver":   approverName,
	})
}

func NewMaintenanceUpdated(displayID, title, status string) BaseEvent {
	return newEvent(TypeMaintenanceUpdated, map[string]interface{}{
		"display_id": displayID,
		"title":      title,
		"status":     status,
	})
}
