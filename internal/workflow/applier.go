package workflow

import (
	"io"
	"strings"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Upload is an attachment reference in an action payload: either Stored (the
// bytes already live in file storage) or Pending (a file still to be written).
type Upload interface {
	isUpload()
}

type Stored struct {
	Attachment model.Attachment
}

type Pending struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

func (Stored) isUpload()  {}
func (Pending) isUpload() {}

// CheckAttachment rejects references that do not point at a stored file.
func CheckAttachment(a model.Attachment) error {
	if strings.TrimSpace(a.ID) == "" || strings.TrimSpace(a.URL) == "" {
		return invalidField("attachments", "attachment %q has no id or url", a.Name)
	}
	if a.Kind != model.KindImage && a.Kind != model.KindPDF {
		return invalidField("attachments", "attachment %q has unknown kind %q", a.Name, a.Kind)
	}
	return nil
}

// Patch is the complete change an accepted action makes to one inquiry. It is
// written in a single update so it lands entirely or not at all.
type Patch struct {
	Status   model.Status
	Divisi   model.Division
	ByField  ByField
	By       string
	EditedBy string
	EditedAt time.Time

	SetsType bool
	Type     model.ServiceType
	Fee      decimal.NullDecimal

	Origin      OriginEdit
	Notes       []model.Note
	Attachments []model.Attachment
}

// BuildPatch merges an outcome with the inquiry it was computed from: new
// attachments and the note are appended, edited text replaces, status and
// stamps overwrite. Pending uploads must be stored before calling.
func BuildPatch(current model.Inquiry, out Outcome, uploads []Upload) (Patch, error) {
	added := make([]model.Attachment, 0, len(uploads))
	for _, u := range uploads {
		switch u := u.(type) {
		case Stored:
			a := u.Attachment
			if err := CheckAttachment(a); err != nil {
				return Patch{}, err
			}
			if a.UploadedAt.IsZero() {
				a.UploadedAt = out.At
			}
			if a.UploadedBy == "" {
				a.UploadedBy = out.Actor.Name
			}
			added = append(added, a)
		case Pending:
			return Patch{}, invalidField("attachments", "attachment %q has not been stored", u.Name)
		default:
			return Patch{}, invalidField("attachments", "unsupported attachment reference %T", u)
		}
	}

	p := Patch{
		Status:   out.To,
		Divisi:   out.Stamp.Division,
		ByField:  out.Stamp.ByField,
		By:       out.Actor.Name,
		EditedBy: out.Actor.Name,
		EditedAt: out.At,
		SetsType: out.SetsType,
		Type:     out.Type,
		Fee:      out.Fee,
		Origin:   out.Origin,
	}
	p.Notes = append(append(make([]model.Note, 0, len(current.Notes)+1), current.Notes...), out.Note)
	p.Attachments = append(append(make([]model.Attachment, 0, len(current.Attachments)+len(added)), current.Attachments...), added...)
	return p, nil
}

// Columns renders the patch as a column->value map for a single UPDATE.
func (p Patch) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"status":      p.Status,
		"divisi":      p.Divisi,
		"edited_by":   p.EditedBy,
		"edited_at":   p.EditedAt,
		"notes":       datatypes.JSONSlice[model.Note](p.Notes),
		"attachments": datatypes.JSONSlice[model.Attachment](p.Attachments),
	}
	if p.ByField != "" {
		cols[string(p.ByField)] = p.By
	}
	if p.SetsType {
		cols["type"] = p.Type
		cols["fee"] = p.Fee
	}
	if p.Origin.NomorWhatsappCustomer != nil {
		cols["nomor_whatsapp_customer"] = *p.Origin.NomorWhatsappCustomer
	}
	if p.Origin.NamaToko != nil {
		cols["nama_toko"] = *p.Origin.NamaToko
	}
	if p.Origin.Deskripsi != nil {
		cols["deskripsi"] = *p.Origin.Deskripsi
	}
	return cols
}

// ApplyTo returns a new inquiry with the patch applied; inq is not modified.
func (p Patch) ApplyTo(inq model.Inquiry) model.Inquiry {
	out := inq.Clone()
	out.Status = p.Status
	out.Divisi = p.Divisi
	switch p.ByField {
	case ByProduksi:
		out.ProduksiBy = p.By
	case ByQC:
		out.QCBy = p.By
	case ByFinance:
		out.FinanceBy = p.By
	case ByHelpdesk:
		out.HelpdeskBy = p.By
	}
	out.EditedBy = p.EditedBy
	editedAt := p.EditedAt
	out.EditedAt = &editedAt
	if p.SetsType {
		out.Type = p.Type
		out.Fee = p.Fee
	}
	if p.Origin.NomorWhatsappCustomer != nil {
		out.NomorWhatsappCustomer = *p.Origin.NomorWhatsappCustomer
	}
	if p.Origin.NamaToko != nil {
		out.NamaToko = *p.Origin.NamaToko
	}
	if p.Origin.Deskripsi != nil {
		out.Deskripsi = *p.Origin.Deskripsi
	}
	out.Notes = append(datatypes.JSONSlice[model.Note]{}, p.Notes...)
	out.Attachments = append(datatypes.JSONSlice[model.Attachment]{}, p.Attachments...)
	return out
}
