package workflow

import (
	"strings"
	"time"

	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/shopspring/decimal"
)

// Snapshot is the part of an inquiry the machine decides on.
type Snapshot struct {
	Status model.Status
	Type   model.ServiceType
	Fee    decimal.NullDecimal
}

func SnapshotOf(inq model.Inquiry) Snapshot {
	return Snapshot{Status: inq.Status, Type: inq.Type, Fee: inq.Fee}
}

type Actor struct {
	Name string
	Role model.Role
}

// OriginEdit carries replacement values for the static origin fields. Nil
// means "leave as is".
type OriginEdit struct {
	NomorWhatsappCustomer *string
	NamaToko              *string
	Deskripsi             *string
}

func (o OriginEdit) Empty() bool {
	return o.NomorWhatsappCustomer == nil && o.NamaToko == nil && o.Deskripsi == nil
}

// Payload is the role-specific input of an action.
type Payload struct {
	Type   string
	Fee    *decimal.Decimal
	Notes  string
	Origin OriginEdit
}

// Outcome is an accepted action: next status plus everything to stamp.
type Outcome struct {
	Action Action
	Actor  Actor
	From   model.Status
	To     model.Status
	Stamp  Stamp

	// SetsType is true when the action decided type and fee; Fee is then
	// invalid (NULL) for gratis.
	SetsType bool
	Type     model.ServiceType
	Fee      decimal.NullDecimal

	Origin OriginEdit
	Note   model.Note
	At     time.Time
}

func (o Outcome) StatusChanged() bool { return o.From != o.To }

type Machine struct {
	registry *Registry
	now      func() time.Time
}

func NewMachine(reg *Registry) *Machine {
	return &Machine{registry: reg, now: time.Now}
}

// WithClock returns a copy of the machine reading time from now.
func (m *Machine) WithClock(now func() time.Time) *Machine {
	cp := *m
	cp.now = now
	return &cp
}

func (m *Machine) Registry() *Registry { return m.registry }

// Apply decides the result of actor invoking action on an inquiry in state
// snap. It is pure: nothing is persisted and snap is not modified.
func (m *Machine) Apply(snap Snapshot, actor Actor, action Action, p Payload) (Outcome, error) {
	if !snap.Status.Valid() {
		return Outcome{}, invalidField("status", "unknown current status %q", snap.Status)
	}
	if strings.TrimSpace(actor.Name) == "" {
		return Outcome{}, invalidField("actor", "acting user has no name")
	}
	rule, ok := m.registry.Rule(actor.Role, action)
	if !ok {
		return Outcome{}, invalidTransition("role %s has no action %q", actor.Role, action)
	}
	if !rule.Allows(snap.Status) {
		return Outcome{}, invalidTransition("role %s cannot %q an inquiry in status %q", actor.Role, action, snap.Status)
	}
	stamp, _ := m.registry.Stamp(actor.Role)

	at := m.now()
	out := Outcome{
		Action: action,
		Actor:  actor,
		From:   snap.Status,
		To:     snap.Status,
		Stamp:  stamp,
		At:     at,
	}
	if rule.To != "" {
		out.To = rule.To
	}

	if len(rule.ByType) > 0 {
		if err := resolveType(rule, p, &out); err != nil {
			return Outcome{}, err
		}
	}

	if !p.Origin.Empty() {
		if !rule.EditsOrigin {
			return Outcome{}, invalidField("deskripsi", "action %q cannot edit origin fields", action)
		}
		origin, err := cleanOrigin(p.Origin)
		if err != nil {
			return Outcome{}, err
		}
		out.Origin = origin
	}

	content := strings.TrimSpace(p.Notes)
	if content == "" {
		content = rule.DefaultNote
	}
	out.Note = model.Note{Content: content, CreatedBy: actor.Name, CreatedAt: at}
	return out, nil
}

// The fee column is NUMERIC(14,2).
const FeeScale = 2

var MaxFee = decimal.RequireFromString("999999999999.99")

func resolveType(rule Rule, p Payload, out *Outcome) error {
	if strings.TrimSpace(p.Type) == "" {
		return invalidField("type", "type is required")
	}
	t, err := model.ParseServiceType(p.Type)
	if err != nil {
		return invalidField("type", "%s", err.Error())
	}
	next, ok := rule.ByType[t]
	if !ok {
		return invalidField("type", "type %q is not accepted here", t)
	}
	out.SetsType = true
	out.Type = t
	out.To = next
	if t != model.TypeBerbayar {
		// A fee only exists for paid work; anything supplied is dropped.
		out.Fee = decimal.NullDecimal{}
		return nil
	}
	if p.Fee == nil {
		return invalidField("fee", "fee is required when type is %s", model.TypeBerbayar)
	}
	if p.Fee.IsNegative() {
		return invalidField("fee", "fee cannot be negative")
	}
	if p.Fee.GreaterThan(MaxFee) {
		return invalidField("fee", "fee cannot exceed %s", MaxFee.StringFixed(FeeScale))
	}
	if !p.Fee.Equal(p.Fee.Truncate(FeeScale)) {
		return invalidField("fee", "fee allows at most %d decimal places", FeeScale)
	}
	out.Fee = decimal.NewNullDecimal(*p.Fee)
	return nil
}

func cleanOrigin(o OriginEdit) (OriginEdit, error) {
	var out OriginEdit
	fields := []struct {
		name string
		in   *string
		out  **string
	}{
		{"nomor_whatsapp_customer", o.NomorWhatsappCustomer, &out.NomorWhatsappCustomer},
		{"nama_toko", o.NamaToko, &out.NamaToko},
		{"deskripsi", o.Deskripsi, &out.Deskripsi},
	}
	for _, f := range fields {
		if f.in == nil {
			continue
		}
		v := strings.TrimSpace(*f.in)
		if v == "" {
			return OriginEdit{}, invalidField(f.name, "%s cannot be empty", f.name)
		}
		*f.out = &v
	}
	return out, nil
}
