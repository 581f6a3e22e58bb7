// Package authz decides which role may perform which action on which resource.
package authz

import (
	"fmt"

	"dealflow/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

// Resources
const (
	ResourceRequests   = "requests"
	ResourceStatistics = "statistics"
	ResourceUsers      = "users"
	ResourceCatalog    = "catalog"
)

// Actions
const (
	ActionCreate   = "create"
	ActionReadOwn  = "read_own"
	ActionReadAll  = "read_all"
	ActionSubmit   = "submit"
	ActionDecide   = "decide"
	ActionRedecide = "redecide"
	ActionExport   = "export"
	ActionRead     = "read"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub == p.sub && r.obj == p.obj && r.act == p.act
`

var basePolicy = [][]string{
	{model.RoleSubmitter, ResourceRequests, ActionCreate},
	{model.RoleSubmitter, ResourceRequests, ActionReadOwn},
	{model.RoleSubmitter, ResourceRequests, ActionSubmit},
	{model.RoleSubmitter, ResourceCatalog, ActionRead},
	{model.RoleReviewer, ResourceRequests, ActionReadAll},
	{model.RoleReviewer, ResourceRequests, ActionDecide},
	{model.RoleReviewer, ResourceRequests, ActionExport},
	{model.RoleReviewer, ResourceStatistics, ActionRead},
	{model.RoleReviewer, ResourceUsers, ActionRead},
	{model.RoleReviewer, ResourceCatalog, ActionRead},
}

// Enforcer wraps a casbin enforcer loaded with the built-in policy.
type Enforcer struct {
	e *casbin.Enforcer
}

// Options toggles optional grants.
type Options struct {
	AllowRedecide bool
}

func NewEnforcer(opts Options) (*Enforcer, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load RBAC model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize RBAC enforcer: %w", err)
	}

	rules := basePolicy
	if opts.AllowRedecide {
		rules = append(rules, []string{model.RoleReviewer, ResourceRequests, ActionRedecide})
	}
	for _, rule := range rules {
		if _, err := e.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
			return nil, fmt.Errorf("failed to add policy %v: %w", rule, err)
		}
	}
	return &Enforcer{e: e}, nil
}

// Allowed reports whether role may perform action on resource.
func (en *Enforcer) Allowed(role, resource, action string) (bool, error) {
	ok, err := en.e.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("RBAC permission check failed: %w", err)
	}
	return ok, nil
}
