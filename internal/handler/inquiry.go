package handler

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/psds-microservice/inquiry-service/internal/followup"
	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/psds-microservice/inquiry-service/internal/service"
	"github.com/psds-microservice/inquiry-service/internal/workflow"
	"github.com/shopspring/decimal"
)

var errInvalidBody = errors.New("invalid body")

type InquiryHandler struct {
	svc service.InquiryServicer
}

func NewInquiryHandler(svc service.InquiryServicer) *InquiryHandler {
	return &InquiryHandler{svc: svc}
}

type createInquiryRequest struct {
	NomorWhatsappCustomer string             `json:"nomor_whatsapp_customer" binding:"required,max=32"`
	NamaToko              string             `json:"nama_toko" binding:"required,max=255"`
	Deskripsi             string             `json:"deskripsi" binding:"required"`
	Notes                 string             `json:"notes"`
	Attachments           []model.Attachment `json:"attachments"`
}

type listQuery struct {
	Page      int    `form:"page" binding:"omitempty,min=1"`
	Limit     int    `form:"limit" binding:"omitempty,min=1"`
	Status    string `form:"status" binding:"omitempty,inquiry_status"`
	Search    string `form:"search"`
	SortBy    string `form:"sort_by"`
	SortOrder string `form:"sort_order" binding:"omitempty,oneof=asc desc"`
}

// actRequest is the JSON form of an action payload. Multipart requests carry
// the same fields as form values plus files under "files".
type actRequest struct {
	Type                  string             `json:"type"`
	Fee                   json.RawMessage    `json:"fee"`
	Notes                 string             `json:"notes"`
	NomorWhatsappCustomer *string            `json:"nomor_whatsapp_customer"`
	NamaToko              *string            `json:"nama_toko"`
	Deskripsi             *string            `json:"deskripsi"`
	Attachments           []model.Attachment `json:"attachments"`
}

type actionView struct {
	Action      workflow.Action                    `json:"action"`
	To          model.Status                       `json:"to,omitempty"`
	ByType      map[model.ServiceType]model.Status `json:"by_type,omitempty"`
	Requires    []string                           `json:"requires,omitempty"`
	EditsOrigin bool                               `json:"edits_origin,omitempty"`
	DefaultNote string                             `json:"default_note"`
}

type actResponse struct {
	Inquiry  *model.Inquiry     `json:"inquiry"`
	From     model.Status       `json:"from"`
	To       model.Status       `json:"to"`
	FollowUp *followup.FollowUp `json:"follow_up,omitempty"`
}

func (h *InquiryHandler) Create(c *gin.Context) {
	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid body", bindingField(err))
		return
	}
	u, _ := currentUser(c)
	inq, err := h.svc.Create(c.Request.Context(), actorOf(u), service.CreateInquiryInput{
		NomorWhatsappCustomer: req.NomorWhatsappCustomer,
		NamaToko:              req.NamaToko,
		Deskripsi:             req.Deskripsi,
		Notes:                 req.Notes,
		Uploads:               storedUploads(req.Attachments),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "inquiry created", inq)
}

func (h *InquiryHandler) Get(c *gin.Context) {
	id, ok := inquiryID(c)
	if !ok {
		return
	}
	inq, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", inq)
}

func (h *InquiryHandler) List(c *gin.Context) {
	var q listQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		fail(c, http.StatusBadRequest, CodeBadRequest, "invalid query", bindingField(err))
		return
	}
	var status model.Status
	if q.Status != "" && q.Status != "all" {
		status, _ = model.ParseStatus(q.Status)
	}
	res, err := h.svc.List(c.Request.Context(), service.ListQuery{
		Page:      q.Page,
		Limit:     q.Limit,
		Status:    status,
		Search:    q.Search,
		SortBy:    q.SortBy,
		SortOrder: q.SortOrder,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, Response{
		Success:    true,
		Data:       res.Items,
		Pagination: &Pagination{Page: res.Page, Limit: res.Limit, Total: res.Total, Pages: res.Pages},
	})
}

func (h *InquiryHandler) Stats(c *gin.Context) {
	stats, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "", stats)
}

// Actions lists what the caller may do with the inquiry right now.
func (h *InquiryHandler) Actions(c *gin.Context) {
	id, ok := inquiryID(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	rules, err := h.svc.AllowedActions(c.Request.Context(), id, u.Role)
	if err != nil {
		writeError(c, err)
		return
	}
	views := make([]actionView, 0, len(rules))
	for _, r := range rules {
		views = append(views, actionView{
			Action:      r.Action,
			To:          r.To,
			ByType:      r.ByType,
			Requires:    r.Requires(),
			EditsOrigin: r.EditsOrigin,
			DefaultNote: r.DefaultNote,
		})
	}
	respond(c, http.StatusOK, "", views)
}

func (h *InquiryHandler) Act(c *gin.Context) {
	id, ok := inquiryID(c)
	if !ok {
		return
	}
	action := workflow.ParseAction(c.Param("action"))

	var (
		in  service.ActInput
		err error
	)
	if strings.HasPrefix(c.ContentType(), "multipart/") {
		in, err = multipartAct(c)
	} else {
		in, err = jsonAct(c)
	}
	if err != nil {
		var rej *workflow.Rejection
		if errors.As(err, &rej) {
			writeError(c, err)
			return
		}
		fail(c, http.StatusBadRequest, CodeBadRequest, err.Error(), "")
		return
	}

	u, _ := currentUser(c)
	res, err := h.svc.Act(c.Request.Context(), id, actorOf(u), action, in)
	if err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "inquiry updated", actResponse{
		Inquiry:  res.Inquiry,
		From:     res.Outcome.From,
		To:       res.Outcome.To,
		FollowUp: res.FollowUp,
	})
}

func (h *InquiryHandler) Delete(c *gin.Context) {
	id, ok := inquiryID(c)
	if !ok {
		return
	}
	u, _ := currentUser(c)
	if err := h.svc.Delete(c.Request.Context(), id, actorOf(u)); err != nil {
		writeError(c, err)
		return
	}
	respond(c, http.StatusOK, "inquiry deleted", nil)
}

func jsonAct(c *gin.Context) (service.ActInput, error) {
	var req actRequest
	// An empty body is a bare action with default note.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		return service.ActInput{}, errInvalidBody
	}
	fee, err := parseFee(req.Fee)
	if err != nil {
		return service.ActInput{}, err
	}
	return service.ActInput{
		Payload: workflow.Payload{
			Type:  req.Type,
			Fee:   fee,
			Notes: req.Notes,
			Origin: workflow.OriginEdit{
				NomorWhatsappCustomer: req.NomorWhatsappCustomer,
				NamaToko:              req.NamaToko,
				Deskripsi:             req.Deskripsi,
			},
		},
		Uploads: storedUploads(req.Attachments),
	}, nil
}

func multipartAct(c *gin.Context) (service.ActInput, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return service.ActInput{}, errInvalidBody
	}
	p := workflow.Payload{
		Type:  c.PostForm("type"),
		Notes: c.PostForm("notes"),
	}
	if raw, ok := c.GetPostForm("fee"); ok {
		fee, err := parseFee([]byte(raw))
		if err != nil {
			return service.ActInput{}, err
		}
		p.Fee = fee
	}
	if v, ok := c.GetPostForm("nomor_whatsapp_customer"); ok {
		p.Origin.NomorWhatsappCustomer = &v
	}
	if v, ok := c.GetPostForm("nama_toko"); ok {
		p.Origin.NamaToko = &v
	}
	if v, ok := c.GetPostForm("deskripsi"); ok {
		p.Origin.Deskripsi = &v
	}
	return service.ActInput{Payload: p, Uploads: pendingUploads(form.File["files"])}, nil
}

// parseFee accepts a JSON number, a quoted number or a bare form value.
// Absent, empty and null mean no fee.
func parseFee(raw []byte) (*decimal.Decimal, error) {
	s := strings.TrimSpace(string(raw))
	if s == "" || s == "null" {
		return nil, nil
	}
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimSpace(s[1 : len(s)-1])
	}
	fee, err := decimal.NewFromString(s)
	if err != nil {
		return nil, workflow.Invalid("fee", "fee must be a number")
	}
	return &fee, nil
}

func storedUploads(atts []model.Attachment) []workflow.Upload {
	out := make([]workflow.Upload, 0, len(atts))
	for _, a := range atts {
		out = append(out, workflow.Stored{Attachment: a})
	}
	return out
}

func pendingUploads(files []*multipart.FileHeader) []workflow.Upload {
	out := make([]workflow.Upload, 0, len(files))
	for _, fh := range files {
		out = append(out, workflow.Pending{Name: fh.Filename, Size: fh.Size, Open: openHeader(fh)})
	}
	return out
}

func openHeader(fh *multipart.FileHeader) func() (io.ReadCloser, error) {
	return func() (io.ReadCloser, error) { return fh.Open() }
}

func inquiryID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid id")
		return uuid.Nil, false
	}
	return id, true
}
