package model

import (
	"fmt"
	"strings"
)

// Status is the workflow stage of an inquiry.
type Status string

const (
	StatusPending        Status = "pending"
	StatusProgress       Status = "progress"
	StatusWaitForPayment Status = "wait for payment"
	StatusOnGoingQA      Status = "on going QA"
	StatusOnProgressQA   Status = "on progress QA"
	StatusReadyForUpdate Status = "ready for update"
	StatusPaidOff        Status = "paid off"
	StatusSelesai        Status = "selesai"
	StatusBatal          Status = "batal"
)

// AllStatuses lists every status in workflow order.
var AllStatuses = []Status{
	StatusPending,
	StatusProgress,
	StatusWaitForPayment,
	StatusOnGoingQA,
	StatusOnProgressQA,
	StatusReadyForUpdate,
	StatusPaidOff,
	StatusSelesai,
	StatusBatal,
}

func (s Status) Valid() bool {
	for _, v := range AllStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// Terminal reports whether no normal action may move an inquiry out of s.
func (s Status) Terminal() bool {
	return s == StatusSelesai || s == StatusBatal
}

// ParseStatus matches case-insensitively, so "on going qa" is accepted.
func ParseStatus(raw string) (Status, error) {
	raw = strings.TrimSpace(raw)
	for _, v := range AllStatuses {
		if strings.EqualFold(string(v), raw) {
			return v, nil
		}
	}
	return "", fmt.Errorf("invalid status %q", raw)
}

// Role is the single role carried by an operator account.
type Role string

const (
	RoleProduksi Role = "produksi"
	RoleQC       Role = "qc"
	RoleFinance  Role = "finance"
	RoleHelpdesk Role = "helpdesk"
	RoleAdmin    Role = "admin"
)

var AllRoles = []Role{RoleProduksi, RoleQC, RoleFinance, RoleHelpdesk, RoleAdmin}

func (r Role) Valid() bool {
	for _, v := range AllRoles {
		if v == r {
			return true
		}
	}
	return false
}

func ParseRole(raw string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(raw)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role %q", raw)
	}
	return r, nil
}

// Division is the operational team currently holding an inquiry.
// Admin has no division.
type Division string

const (
	DivisionProduksi Division = "produksi"
	DivisionQC       Division = "qc"
	DivisionFinance  Division = "finance"
	DivisionHelpdesk Division = "helpdesk"
)

// ServiceType is paid (berbayar) or free (gratis). Empty means not yet set.
type ServiceType string

const (
	TypeBerbayar ServiceType = "berbayar"
	TypeGratis   ServiceType = "gratis"
)

func (t ServiceType) Valid() bool {
	return t == TypeBerbayar || t == TypeGratis
}

func ParseServiceType(raw string) (ServiceType, error) {
	t := ServiceType(strings.ToLower(strings.TrimSpace(raw)))
	if !t.Valid() {
		return "", fmt.Errorf("type must be %q or %q", TypeBerbayar, TypeGratis)
	}
	return t, nil
}

type AttachmentKind string

const (
	KindImage AttachmentKind = "image"
	KindPDF   AttachmentKind = "pdf"
)
