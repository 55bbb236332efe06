package workflow

import (
	"fmt"
	"strings"

	"github.com/psds-microservice/inquiry-service/internal/model"
)

// Action identifies what an operator wants to do with an inquiry.
type Action string

const (
	ActionEdit       Action = "edit"
	ActionComplete   Action = "selesai"
	ActionCancel     Action = "batal"
	ActionFollowUp   Action = "follow up"
	ActionSubmitType Action = "submit type"
	ActionProcess    Action = "proses"
	ActionUpdate     Action = "update"
)

// ParseAction folds case and separators, so "Submit-Type" and "submit_type"
// both resolve to ActionSubmitType.
func ParseAction(raw string) Action {
	s := strings.ToLower(raw)
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	return Action(strings.Join(strings.Fields(s), " "))
}

// ByField names the per-division audit column stamped with the actor's name.
type ByField string

const (
	ByProduksi ByField = "produksi_by"
	ByQC       ByField = "qc_by"
	ByFinance  ByField = "finance_by"
	ByHelpdesk ByField = "helpdesk_by"
)

// Stamp is what a role writes on every accepted action.
type Stamp struct {
	Division model.Division
	ByField  ByField
}

// Rule is one row of the role table: Role may invoke Action while the inquiry
// is in one of From.
type Rule struct {
	Role   model.Role
	Action Action
	From   []model.Status
	// To is the resulting status; empty keeps the current one.
	To model.Status
	// ByType picks the resulting status from the submitted service type and
	// makes type (and fee for berbayar) required.
	ByType map[model.ServiceType]model.Status
	// EditsOrigin lets the payload rewrite customer number, store name and
	// description.
	EditsOrigin bool
	DefaultNote string
}

func (r Rule) Allows(s model.Status) bool {
	for _, from := range r.From {
		if from == s {
			return true
		}
	}
	return false
}

// ChangesStatus reports whether the rule can ever move an inquiry.
func (r Rule) ChangesStatus() bool {
	return r.To != "" || len(r.ByType) > 0
}

// Requires lists payload fields the action cannot do without.
func (r Rule) Requires() []string {
	if len(r.ByType) > 0 {
		return []string{"type"}
	}
	return nil
}

type ruleKey struct {
	role   model.Role
	action Action
}

// Registry is the single source of role permissions. Nothing else in the
// service decides which status an action leads to.
type Registry struct {
	rules    map[ruleKey]Rule
	order    map[model.Role][]Action
	stamps   map[model.Role]Stamp
	creators map[model.Role]bool
	deleters map[model.Role]bool
}

// Policy holds the non-transition permissions.
type Policy struct {
	Stamps   map[model.Role]Stamp
	Creators []model.Role
	Deleters []model.Role
}

func NewRegistry(rules []Rule, policy Policy) (*Registry, error) {
	reg := &Registry{
		rules:    make(map[ruleKey]Rule, len(rules)),
		order:    make(map[model.Role][]Action),
		stamps:   make(map[model.Role]Stamp, len(policy.Stamps)),
		creators: make(map[model.Role]bool),
		deleters: make(map[model.Role]bool),
	}
	for role, st := range policy.Stamps {
		if !role.Valid() {
			return nil, fmt.Errorf("registry: invalid role %q", role)
		}
		reg.stamps[role] = st
	}
	for _, rule := range rules {
		if err := reg.add(rule); err != nil {
			return nil, err
		}
	}
	for _, role := range policy.Creators {
		reg.creators[role] = true
	}
	for _, role := range policy.Deleters {
		reg.deleters[role] = true
	}
	return reg, nil
}

func (reg *Registry) add(rule Rule) error {
	key := ruleKey{role: rule.Role, action: rule.Action}
	if _, dup := reg.rules[key]; dup {
		return fmt.Errorf("registry: duplicate rule %s/%s", rule.Role, rule.Action)
	}
	if _, ok := reg.stamps[rule.Role]; !ok {
		return fmt.Errorf("registry: role %s has rules but no stamp", rule.Role)
	}
	if rule.DefaultNote == "" {
		return fmt.Errorf("registry: rule %s/%s has no default note", rule.Role, rule.Action)
	}
	if rule.To != "" && !rule.To.Valid() {
		return fmt.Errorf("registry: rule %s/%s targets invalid status %q", rule.Role, rule.Action, rule.To)
	}
	for t, to := range rule.ByType {
		if !t.Valid() || !to.Valid() {
			return fmt.Errorf("registry: rule %s/%s has invalid type mapping %q -> %q", rule.Role, rule.Action, t, to)
		}
	}
	for _, from := range rule.From {
		if !from.Valid() {
			return fmt.Errorf("registry: rule %s/%s starts from invalid status %q", rule.Role, rule.Action, from)
		}
		if from.Terminal() && rule.ChangesStatus() {
			return fmt.Errorf("registry: rule %s/%s leaves terminal status %q", rule.Role, rule.Action, from)
		}
	}
	reg.rules[key] = rule
	reg.order[rule.Role] = append(reg.order[rule.Role], rule.Action)
	return nil
}

func (reg *Registry) Rule(role model.Role, action Action) (Rule, bool) {
	rule, ok := reg.rules[ruleKey{role: role, action: action}]
	return rule, ok
}

func (reg *Registry) Stamp(role model.Role) (Stamp, bool) {
	st, ok := reg.stamps[role]
	return st, ok
}

// Actions returns, in table order, what role may invoke on an inquiry in
// status s. Presentation layers render exactly this list.
func (reg *Registry) Actions(role model.Role, s model.Status) []Rule {
	var out []Rule
	for _, action := range reg.order[role] {
		rule := reg.rules[ruleKey{role: role, action: action}]
		if rule.Allows(s) {
			out = append(out, rule)
		}
	}
	return out
}

// Rules returns every row, grouped by role in table order.
func (reg *Registry) Rules() []Rule {
	var out []Rule
	for _, role := range model.AllRoles {
		for _, action := range reg.order[role] {
			out = append(out, reg.rules[ruleKey{role: role, action: action}])
		}
	}
	return out
}

func (reg *Registry) CanCreate(role model.Role) bool { return reg.creators[role] }

func (reg *Registry) CanDelete(role model.Role) bool { return reg.deleters[role] }

func except(excluded ...model.Status) []model.Status {
	var out []model.Status
next:
	for _, s := range model.AllStatuses {
		for _, e := range excluded {
			if s == e {
				continue next
			}
		}
		out = append(out, s)
	}
	return out
}

// DefaultRules is the production role table.
func DefaultRules() []Rule {
	open := except(model.StatusSelesai, model.StatusBatal)
	qa := []model.Status{model.StatusOnGoingQA, model.StatusOnProgressQA}
	return []Rule{
		{Role: model.RoleHelpdesk, Action: ActionEdit, From: open, EditsOrigin: true,
			DefaultNote: "Data inquiry diperbarui oleh Helpdesk"},
		{Role: model.RoleHelpdesk, Action: ActionComplete, From: open, To: model.StatusSelesai,
			DefaultNote: "Telah diselesaikan oleh Helpdesk"},
		{Role: model.RoleHelpdesk, Action: ActionCancel, From: open, To: model.StatusBatal,
			DefaultNote: "Dibatalkan oleh Helpdesk"},
		{Role: model.RoleHelpdesk, Action: ActionFollowUp, From: except(model.StatusBatal),
			DefaultNote: "Follow up dikirim ke customer oleh Helpdesk"},

		{Role: model.RoleProduksi, Action: ActionSubmitType, From: open,
			ByType: map[model.ServiceType]model.Status{
				model.TypeBerbayar: model.StatusWaitForPayment,
				model.TypeGratis:   model.StatusProgress,
			},
			DefaultNote: "Tipe project ditetapkan oleh produksi"},
		{Role: model.RoleProduksi, Action: ActionProcess,
			From:        except(model.StatusSelesai, model.StatusBatal, model.StatusProgress, model.StatusWaitForPayment),
			To:          model.StatusProgress,
			DefaultNote: "Sedang diproses oleh produksi"},
		{Role: model.RoleProduksi, Action: ActionComplete, From: []model.Status{model.StatusProgress}, To: model.StatusOnGoingQA,
			DefaultNote: "Telah diselesaikan oleh produksi"},

		{Role: model.RoleQC, Action: ActionProcess, From: []model.Status{model.StatusOnGoingQA}, To: model.StatusOnProgressQA,
			DefaultNote: "Sedang diproses oleh QA"},
		{Role: model.RoleQC, Action: ActionComplete, From: qa, To: model.StatusReadyForUpdate,
			DefaultNote: "Telah diselesaikan oleh QA"},
		{Role: model.RoleQC, Action: ActionCancel, From: qa, To: model.StatusBatal,
			DefaultNote: "Dibatalkan oleh QA"},

		{Role: model.RoleFinance, Action: ActionUpdate, From: []model.Status{model.StatusWaitForPayment}, To: model.StatusPaidOff,
			DefaultNote: "Pembayaran dikonfirmasi oleh Finance"},
	}
}

// DefaultPolicy stamps each division's audit column; admin has no stamp and
// therefore no actions.
func DefaultPolicy() Policy {
	return Policy{
		Stamps: map[model.Role]Stamp{
			model.RoleProduksi: {Division: model.DivisionProduksi, ByField: ByProduksi},
			model.RoleQC:       {Division: model.DivisionQC, ByField: ByQC},
			model.RoleFinance:  {Division: model.DivisionFinance, ByField: ByFinance},
			model.RoleHelpdesk: {Division: model.DivisionHelpdesk, ByField: ByHelpdesk},
		},
		Creators: []model.Role{model.RoleHelpdesk, model.RoleQC},
		Deleters: []model.Role{model.RoleHelpdesk},
	}
}

// Default builds the production registry and panics if the table is broken.
func Default() *Registry {
	reg, err := NewRegistry(DefaultRules(), DefaultPolicy())
	if err != nil {
		panic(err)
	}
	return reg
}
