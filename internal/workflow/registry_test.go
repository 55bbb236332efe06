package workflow

import (
	"testing"

	"github.com/psds-microservice/inquiry-service/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseAction(t *testing.T) {
	cases := map[string]Action{
		"selesai":       ActionComplete,
		" Submit-Type ": ActionSubmitType,
		"submit_type":   ActionSubmitType,
		"follow  up":    ActionFollowUp,
		"Follow-Up":     ActionFollowUp,
		"PROSES":        ActionProcess,
	}
	for raw, want := range cases {
		assert.Equal(t, want, ParseAction(raw), raw)
	}
}

func TestRegistryActions(t *testing.T) {
	reg := Default()
	cases := []struct {
		role   model.Role
		status model.Status
		want   []Action
	}{
		{model.RoleHelpdesk, model.StatusPending, []Action{ActionEdit, ActionComplete, ActionCancel, ActionFollowUp}},
		{model.RoleHelpdesk, model.StatusSelesai, []Action{ActionFollowUp}},
		{model.RoleHelpdesk, model.StatusBatal, nil},
		{model.RoleProduksi, model.StatusPending, []Action{ActionSubmitType, ActionProcess}},
		{model.RoleProduksi, model.StatusProgress, []Action{ActionSubmitType, ActionComplete}},
		{model.RoleProduksi, model.StatusWaitForPayment, []Action{ActionSubmitType}},
		{model.RoleProduksi, model.StatusPaidOff, []Action{ActionSubmitType, ActionProcess}},
		{model.RoleQC, model.StatusProgress, nil},
		{model.RoleQC, model.StatusOnGoingQA, []Action{ActionProcess, ActionComplete, ActionCancel}},
		{model.RoleQC, model.StatusOnProgressQA, []Action{ActionComplete, ActionCancel}},
		{model.RoleFinance, model.StatusWaitForPayment, []Action{ActionUpdate}},
		{model.RoleFinance, model.StatusOnGoingQA, nil},
		{model.RoleAdmin, model.StatusPending, nil},
	}
	for _, tt := range cases {
		var got []Action
		for _, rule := range reg.Actions(tt.role, tt.status) {
			got = append(got, rule.Action)
		}
		assert.Equal(t, tt.want, got, "%s on %q", tt.role, tt.status)
	}
}

func TestRegistryPolicy(t *testing.T) {
	reg := Default()
	assert.True(t, reg.CanCreate(model.RoleHelpdesk))
	assert.True(t, reg.CanCreate(model.RoleQC))
	assert.False(t, reg.CanCreate(model.RoleFinance))
	assert.True(t, reg.CanDelete(model.RoleHelpdesk))
	assert.False(t, reg.CanDelete(model.RoleAdmin))

	_, ok := reg.Stamp(model.RoleAdmin)
	assert.False(t, ok)
	st, ok := reg.Stamp(model.RoleQC)
	require.True(t, ok)
	assert.Equal(t, Stamp{Division: model.DivisionQC, ByField: ByQC}, st)
}

func TestDefaultRulesNeverLeaveTerminalStatus(t *testing.T) {
	for _, rule := range Default().Rules() {
		if !rule.ChangesStatus() {
			continue
		}
		assert.False(t, rule.Allows(model.StatusSelesai), "%s/%s", rule.Role, rule.Action)
		assert.False(t, rule.Allows(model.StatusBatal), "%s/%s", rule.Role, rule.Action)
	}
}

func TestNewRegistryRejectsBrokenTables(t *testing.T) {
	policy := DefaultPolicy()
	cases := map[string][]Rule{
		"leaves terminal": {{
			Role: model.RoleHelpdesk, Action: "reopen", From: []model.Status{model.StatusBatal},
			To: model.StatusPending, DefaultNote: "x",
		}},
		"duplicate": {
			{Role: model.RoleFinance, Action: ActionUpdate, From: []model.Status{model.StatusPending}, To: model.StatusPaidOff, DefaultNote: "x"},
			{Role: model.RoleFinance, Action: ActionUpdate, From: []model.Status{model.StatusProgress}, To: model.StatusPaidOff, DefaultNote: "x"},
		},
		"no stamp": {{
			Role: model.RoleAdmin, Action: ActionUpdate, From: []model.Status{model.StatusPending}, DefaultNote: "x",
		}},
		"no default note": {{
			Role: model.RoleQC, Action: ActionProcess, From: []model.Status{model.StatusOnGoingQA}, To: model.StatusOnProgressQA,
		}},
		"invalid target": {{
			Role: model.RoleQC, Action: ActionProcess, From: []model.Status{model.StatusOnGoingQA}, To: "archived", DefaultNote: "x",
		}},
	}
	for name, rules := range cases {
		_, err := NewRegistry(rules, policy)
		assert.Error(t, err, name)
	}
}
