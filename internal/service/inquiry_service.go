package service

//go:generate mockgen -source=inquiry_service.go -destination=mocks/mock_inquiry_service.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/errs"
	"github.com/psds-microservice/inquiry-service/internal/followup"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/notify"
	"github.com/psds-microservice/inquiry-service/internal/storage"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// InquiryServicer: интерфейс для HTTP слоя (подменяется моком в тестах хендлеров).
type InquiryServicer interface {
	Create(ctx context.Context, actor workflow.Actor, in CreateInquiryInput) (*model.Inquiry, error)
	Get(ctx context.Context, id uuid.UUID) (*model.Inquiry, error)
	List(ctx context.Context, q ListQuery) (*ListResult, error)
	Stats(ctx context.Context) (map[model.Status]int64, error)
	AllowedActions(ctx context.Context, id uuid.UUID, role model.Role) ([]workflow.Rule, error)
	Act(ctx context.Context, id uuid.UUID, actor workflow.Actor, action workflow.Action, in ActInput) (*ActResult, error)
	Delete(ctx context.Context, id uuid.UUID, actor workflow.Actor) error
}

// EventPublisher получает события заявок после коммита.
type EventPublisher interface {
	Publish(e notify.Event)
}

type CreateInquiryInput struct {
	NomorWhatsappCustomer string
	NamaToko              string
	Deskripsi             string
	Notes                 string
	Uploads               []workflow.Upload
}

type ActInput struct {
	Payload workflow.Payload
	Uploads []workflow.Upload
}

type ActResult struct {
	Inquiry  *model.Inquiry
	Outcome  workflow.Outcome
	FollowUp *followup.FollowUp
}

// ListQuery filters and pages the inquiry list. An empty Status means all.
type ListQuery struct {
	Page      int
	Limit     int
	Status    model.Status
	Search    string
	SortBy    string
	SortOrder string
}

type ListResult struct {
	Items []model.Inquiry
	Page  int
	Limit int
	Total int64
	Pages int
}

var sortColumns = map[string]string{
	"created_at": "created_at",
	"createdAt":  "created_at",
	"updated_at": "updated_at",
	"updatedAt":  "updated_at",
	"status":     "status",
	"nama_toko":  "nama_toko",
}

type InquiryService struct {
	db      *gorm.DB
	machine *workflow.Machine
	files   storage.Storage
	events  EventPublisher
	now     func() time.Time
}

// NewInquiryService wires the service. files may be nil, in which case
// actions carrying fresh uploads are rejected; events may be nil.
func NewInquiryService(db *gorm.DB, machine *workflow.Machine, files storage.Storage, events EventPublisher) *InquiryService {
	return &InquiryService{db: db, machine: machine, files: files, events: events, now: time.Now}
}

func (s *InquiryService) Create(ctx context.Context, actor workflow.Actor, in CreateInquiryInput) (*model.Inquiry, error) {
	if !s.machine.Registry().CanCreate(actor.Role) {
		return nil, errs.ErrForbidden
	}
	inq := model.Inquiry{
		NomorWhatsappCustomer: strings.TrimSpace(in.NomorWhatsappCustomer),
		NamaToko:              strings.TrimSpace(in.NamaToko),
		Deskripsi:             strings.TrimSpace(in.Deskripsi),
		Status:                model.StatusPending,
		CreatedBy:             actor.Name,
		Notes:                 datatypes.JSONSlice[model.Note]{},
		Attachments:           datatypes.JSONSlice[model.Attachment]{},
	}
	required := []struct{ field, value string }{
		{"nomor_whatsapp_customer", inq.NomorWhatsappCustomer},
		{"nama_toko", inq.NamaToko},
		{"deskripsi", inq.Deskripsi},
	}
	for _, r := range required {
		if r.value == "" {
			return nil, workflow.Invalid(r.field, r.field+" is required")
		}
	}

	now := s.now()
	attachments, fresh, err := s.storeUploads(ctx, actor, in.Uploads, now)
	if err != nil {
		return nil, err
	}
	inq.Attachments = append(inq.Attachments, attachments...)
	if note := strings.TrimSpace(in.Notes); note != "" {
		inq.Notes = append(inq.Notes, model.Note{Content: note, CreatedBy: actor.Name, CreatedAt: now})
	}

	if err := s.db.WithContext(ctx).Create(&inq).Error; err != nil {
		s.discard(fresh)
		return nil, fmt.Errorf("create inquiry: %w", err)
	}
	s.publish(notify.Event{
		Name:      notify.EventCreated,
		InquiryID: inq.ID,
		NamaToko:  inq.NamaToko,
		Status:    inq.Status,
		Role:      actor.Role,
		Actor:     actor.Name,
		At:        inq.CreatedAt,
	})
	return &inq, nil
}

func (s *InquiryService) Get(ctx context.Context, id uuid.UUID) (*model.Inquiry, error) {
	return s.load(s.db.WithContext(ctx), id)
}

func (s *InquiryService) load(tx *gorm.DB, id uuid.UUID) (*model.Inquiry, error) {
	var inq model.Inquiry
	if err := tx.First(&inq, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrInquiryNotFound
		}
		return nil, err
	}
	return &inq, nil
}

func (s *InquiryService) List(ctx context.Context, q ListQuery) (*ListResult, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultPageSize
	}
	if q.Limit > MaxPageSize {
		q.Limit = MaxPageSize
	}

	tx := s.db.WithContext(ctx).Model(&model.Inquiry{})
	if q.Status != "" {
		tx = tx.Where("status = ?", q.Status)
	}
	if search := strings.TrimSpace(q.Search); search != "" {
		like := "%" + escapeLike(strings.ToLower(search)) + "%"
		tx = tx.Where(
			`LOWER(nama_toko) LIKE ? ESCAPE '\' OR LOWER(nomor_whatsapp_customer) LIKE ? ESCAPE '\' OR LOWER(deskripsi) LIKE ? ESCAPE '\'`,
			like, like, like,
		)
	}

	var total int64
	if err := tx.Count(&total).Error; err != nil {
		return nil, err
	}

	column, ok := sortColumns[q.SortBy]
	if !ok {
		column = "created_at"
	}
	desc := !strings.EqualFold(q.SortOrder, "asc")

	items := []model.Inquiry{}
	err := tx.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Limit(q.Limit).
		Offset((q.Page - 1) * q.Limit).
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Items: items,
		Page:  q.Page,
		Limit: q.Limit,
		Total: total,
		Pages: int(math.Ceil(float64(total) / float64(q.Limit))),
	}, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Stats counts inquiries per status; every status is present, zero or not.
func (s *InquiryService) Stats(ctx context.Context) (map[model.Status]int64, error) {
	var rows []struct {
		Status model.Status
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&model.Inquiry{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make(map[model.Status]int64, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		out[st] = 0
	}
	for _, r := range rows {
		out[r.Status] = r.Count
	}
	return out, nil
}

func (s *InquiryService) AllowedActions(ctx context.Context, id uuid.UUID, role model.Role) ([]workflow.Rule, error) {
	inq, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.machine.Registry().Actions(role, inq.Status), nil
}

// Act выполняет одно действие workflow. Решение повторно принимается под
// блокировкой строки, весь патч записывается одним UPDATE.
func (s *InquiryService) Act(ctx context.Context, id uuid.UUID, actor workflow.Actor, action workflow.Action, in ActInput) (*ActResult, error) {
	// Отклоняем до записи файлов.
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.machine.Apply(workflow.SnapshotOf(*current), actor, action, in.Payload); err != nil {
		return nil, err
	}

	attachments, fresh, err := s.storeUploads(ctx, actor, in.Uploads, s.now())
	if err != nil {
		return nil, err
	}
	stored := make([]workflow.Upload, 0, len(attachments))
	for _, a := range attachments {
		stored = append(stored, workflow.Stored{Attachment: a})
	}

	var (
		out     workflow.Outcome
		updated *model.Inquiry
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		locked, err := s.load(tx.Clauses(clause.Locking{Strength: "UPDATE"}), id)
		if err != nil {
			return err
		}
		out, err = s.machine.Apply(workflow.SnapshotOf(*locked), actor, action, in.Payload)
		if err != nil {
			return err
		}
		patch, err := workflow.BuildPatch(*locked, out, stored)
		if err != nil {
			return err
		}
		res := tx.Model(&model.Inquiry{}).Where("id = ?", id).Updates(patch.Columns())
		if res.Error != nil {
			return fmt.Errorf("apply %s: %w", action, res.Error)
		}
		if res.RowsAffected == 0 {
			return errs.ErrInquiryNotFound
		}
		updated, err = s.load(tx, id)
		return err
	})
	if err != nil {
		s.discard(fresh)
		return nil, err
	}

	s.publish(notify.Event{
		Name:           notify.EventUpdated,
		InquiryID:      updated.ID,
		NamaToko:       updated.NamaToko,
		Status:         out.To,
		PreviousStatus: out.From,
		Action:         string(out.Action),
		Role:           actor.Role,
		Actor:          actor.Name,
		Divisi:         out.Stamp.Division,
		At:             out.At,
	})

	result := &ActResult{Inquiry: updated, Outcome: out}
	if action == workflow.ActionFollowUp {
		f := followup.Build(*updated)
		result.FollowUp = &f
	}
	return result, nil
}

func (s *InquiryService) Delete(ctx context.Context, id uuid.UUID, actor workflow.Actor) error {
	if !s.machine.Registry().CanDelete(actor.Role) {
		return errs.ErrForbidden
	}
	inq, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Delete(&model.Inquiry{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return errs.ErrInquiryNotFound
	}
	s.publish(notify.Event{
		Name:      notify.EventDeleted,
		InquiryID: inq.ID,
		NamaToko:  inq.NamaToko,
		Status:    inq.Status,
		Role:      actor.Role,
		Actor:     actor.Name,
		At:        s.now(),
	})
	return nil
}

// Each walks every inquiry in primary key order, batchSize rows at a time.
func (s *InquiryService) Each(ctx context.Context, batchSize int, fn func(model.Inquiry) error) (int, error) {
	var (
		batch []model.Inquiry
		n     int
	)
	err := s.db.WithContext(ctx).FindInBatches(&batch, batchSize, func(_ *gorm.DB, _ int) error {
		for _, inq := range batch {
			if err := fn(inq); err != nil {
				return err
			}
			n++
		}
		return nil
	}).Error
	return n, err
}

// storeUploads validates stored references and writes pending files. The ids
// of files written here are returned so a failed write can remove them.
func (s *InquiryService) storeUploads(ctx context.Context, actor workflow.Actor, uploads []workflow.Upload, now time.Time) ([]model.Attachment, []string, error) {
	if len(uploads) > storage.MaxFilesPerRequest {
		return nil, nil, workflow.Invalid("attachments", fmt.Sprintf("at most %d files per request", storage.MaxFilesPerRequest))
	}
	out := make([]model.Attachment, 0, len(uploads))
	var fresh []string
	for _, u := range uploads {
		var a model.Attachment
		switch u := u.(type) {
		case workflow.Stored:
			a = u.Attachment
		case workflow.Pending:
			if s.files == nil {
				s.discard(fresh)
				return nil, nil, workflow.Invalid("attachments", "file storage is not configured")
			}
			saved, err := s.savePending(ctx, u)
			if err != nil {
				s.discard(fresh)
				return nil, nil, err
			}
			fresh = append(fresh, saved.ID)
			a = saved
		default:
			s.discard(fresh)
			return nil, nil, workflow.Invalid("attachments", fmt.Sprintf("unsupported attachment reference %T", u))
		}
		if err := workflow.CheckAttachment(a); err != nil {
			s.discard(fresh)
			return nil, nil, err
		}
		if a.UploadedAt.IsZero() {
			a.UploadedAt = now
		}
		if a.UploadedBy == "" {
			a.UploadedBy = actor.Name
		}
		out = append(out, a)
	}
	return out, fresh, nil
}

func (s *InquiryService) savePending(ctx context.Context, p workflow.Pending) (model.Attachment, error) {
	rc, err := p.Open()
	if err != nil {
		return model.Attachment{}, fmt.Errorf("open upload %s: %w", p.Name, err)
	}
	defer rc.Close()
	a, err := s.files.Save(ctx, p.Name, rc)
	if errors.Is(err, errs.ErrInvalidFile) {
		return model.Attachment{}, workflow.Invalid("attachments", err.Error())
	}
	return a, err
}

// discard removes freshly written files after a failed write. Best-effort.
func (s *InquiryService) discard(ids []string) {
	for _, id := range ids {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.files.Delete(ctx, id); err != nil {
			slog.Warn("service: discard upload", slog.String("id", id), slog.Any("err", err))
		}
		cancel()
	}
}

func (s *InquiryService) publish(e notify.Event) {
	if s.events != nil {
		s.events.Publish(e)
	}
}
