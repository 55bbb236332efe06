package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Note is an append-only comment left on an inquiry.
type Note struct {
	Content   string    `json:"content"`
	CreatedBy string    `json:"created_by"`
	CreatedAt time.Time `json:"created_at"`
}

// Attachment is a file that has already been written to storage.
type Attachment struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	URL        string         `json:"url"`
	Kind       AttachmentKind `json:"kind"`
	Size       int64          `json:"size"`
	UploadedAt time.Time      `json:"uploaded_at"`
	UploadedBy string         `json:"uploaded_by,omitempty"`
}

type Inquiry struct {
	ID                    uuid.UUID           `gorm:"type:uuid;primaryKey" json:"id"`
	NomorWhatsappCustomer string              `gorm:"type:varchar(32);index;not null" json:"nomor_whatsapp_customer"`
	NamaToko              string              `gorm:"type:varchar(255);index;not null" json:"nama_toko"`
	Deskripsi             string              `gorm:"type:text;not null" json:"deskripsi"`
	Status                Status              `gorm:"type:varchar(32);index;not null" json:"status"`
	Type                  ServiceType         `gorm:"type:varchar(16)" json:"type,omitempty"`
	Fee                   decimal.NullDecimal `gorm:"type:numeric(14,2)" json:"fee"`
	Divisi                Division            `gorm:"type:varchar(16)" json:"divisi,omitempty"`

	Attachments datatypes.JSONSlice[Attachment] `gorm:"type:jsonb" json:"attachments"`
	Notes       datatypes.JSONSlice[Note]       `gorm:"type:jsonb" json:"notes"`

	CreatedBy  string     `gorm:"type:varchar(100);index;not null" json:"created_by"`
	ProduksiBy string     `gorm:"type:varchar(100)" json:"produksi_by,omitempty"`
	QCBy       string     `gorm:"column:qc_by;type:varchar(100)" json:"qc_by,omitempty"`
	FinanceBy  string     `gorm:"type:varchar(100)" json:"finance_by,omitempty"`
	HelpdeskBy string     `gorm:"type:varchar(100)" json:"helpdesk_by,omitempty"`
	EditedBy   string     `gorm:"type:varchar(100)" json:"edited_by,omitempty"`
	EditedAt   *time.Time `json:"edited_at,omitempty"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (i *Inquiry) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	if i.Status == "" {
		i.Status = StatusPending
	}
	i.normalize()
	return nil
}

func (i *Inquiry) AfterFind(*gorm.DB) error {
	i.normalize()
	return nil
}

// normalize keeps list fields non-nil so they serialize as [] rather than null.
func (i *Inquiry) normalize() {
	if i.Attachments == nil {
		i.Attachments = datatypes.JSONSlice[Attachment]{}
	}
	if i.Notes == nil {
		i.Notes = datatypes.JSONSlice[Note]{}
	}
}

// Clone returns a copy whose slices do not alias the receiver's.
func (i Inquiry) Clone() Inquiry {
	out := i
	out.Attachments = append(datatypes.JSONSlice[Attachment]{}, i.Attachments...)
	out.Notes = append(datatypes.JSONSlice[Note]{}, i.Notes...)
	if i.EditedAt != nil {
		t := *i.EditedAt
		out.EditedAt = &t
	}
	return out
}
