package event

import (
	"time"

	"github.com/google/uuid"
)

type AuditAction string

const (
	ActionAddTariff          AuditAction = "add_tariff"
	ActionDeleteTariff       AuditAction = "delete_tariff"
	ActionUpdateTariff       AuditAction = "update_tariff"
	ActionCalculateInsurance AuditAction = "calculate_insurance"
)

type AuditStatus string

const (
	StatusSuccess AuditStatus = "Success"
	StatusFail    AuditStatus = "Fail"
)

// AuditEvent is one audit record. It has no persistence of its own and is
// transient until shipped to the audit queue.
type AuditEvent struct {
	ID     string      `json:"id"`
	Action AuditAction `json:"action"`
	Status AuditStatus `json:"status"`
	Detail any         `json:"detail"`
	UserIP string      `json:"user_ip"`
	Time   time.Time   `json:"time"`
}

func NewAuditEvent(action AuditAction, status AuditStatus, detail any, userIP string) AuditEvent {
	return AuditEvent{
		ID:     uuid.NewString(),
		Action: action,
		Status: status,
		Detail: detail,
		UserIP: userIP,
		Time:   time.Now(),
	}
}
