package authz

import (
	"testing"

	"dealflow/internal/model"
)

func TestPolicy(t *testing.T) {
	en, err := NewEnforcer(Options{})
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}

	tests := []struct {
		role, resource, action string
		want                   bool
	}{
		{model.RoleSubmitter, ResourceRequests, ActionCreate, true},
		{model.RoleSubmitter, ResourceRequests, ActionSubmit, true},
		{model.RoleSubmitter, ResourceRequests, ActionDecide, false},
		{model.RoleSubmitter, ResourceStatistics, ActionRead, false},
		{model.RoleReviewer, ResourceRequests, ActionDecide, true},
		{model.RoleReviewer, ResourceRequests, ActionCreate, false},
		{model.RoleReviewer, ResourceRequests, ActionSubmit, false},
		{model.RoleReviewer, ResourceRequests, ActionRedecide, false},
		{"", ResourceCatalog, ActionRead, false},
	}
	for _, tt := range tests {
		got, err := en.Allowed(tt.role, tt.resource, tt.action)
		if err != nil {
			t.Fatalf("allowed: %v", err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%q, %q, %q) = %v, want %v", tt.role, tt.resource, tt.action, got, tt.want)
		}
	}
}

func TestRedecideGrant(t *testing.T) {
	en, err := NewEnforcer(Options{AllowRedecide: true})
	if err != nil {
		t.Fatalf("new enforcer: %v", err)
	}
	if ok, _ := en.Allowed(model.RoleReviewer, ResourceRequests, ActionRedecide); !ok {
		t.Fatalf("reviewer should be allowed to redecide when enabled")
	}
	if ok, _ := en.Allowed(model.RoleSubmitter, ResourceRequests, ActionRedecide); ok {
		t.Fatalf("submitter must never redecide")
	}
}
