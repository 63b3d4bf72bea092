// Package policy maps an operator role to the dashboard capabilities it
// unlocks. It is the only place in the codebase that compares role names.
package policy

import "github.com/branchledger/dashboard/internal/core/domain"

// Capabilities is the set of dashboard actions and sections a role may use.
type Capabilities struct {
	CanCreateOperation bool `json:"can_create_operation"`
	CanFilterByBranch  bool `json:"can_filter_by_branch"`
	CanManageUsers     bool `json:"can_manage_users"`
	// BranchPinned forces every request onto the operator's own branch.
	BranchPinned bool `json:"branch_pinned"`
}

var table = map[domain.Role]Capabilities{
	domain.RoleSystemAdmin: {CanCreateOperation: true, CanFilterByBranch: true, CanManageUsers: true},
	domain.RoleAdmin:       {CanCreateOperation: true, CanFilterByBranch: true, CanManageUsers: true},
	domain.RoleManager:     {CanFilterByBranch: true},
	domain.RoleAccountant:  {CanCreateOperation: true, BranchPinned: true},
}

// leastPrivilege applies to roles missing from the table.
var leastPrivilege = Capabilities{BranchPinned: true}

// For returns the capabilities of role. Unknown roles get least privilege.
func For(role domain.Role) Capabilities {
	if c, ok := table[domain.NormalizeRole(string(role))]; ok {
		return c
	}
	return leastPrivilege
}

// EffectiveBranchScope returns the branch filter actually applied for
// identity after overriding whatever the operator asked for.
func (c Capabilities) EffectiveBranchScope(identity domain.Identity, requested domain.BranchScope) domain.BranchScope {
	if c.BranchPinned || !c.CanFilterByBranch {
		return domain.ScopeOf(identity.BranchID)
	}
	return domain.ScopeOf(int(requested))
}

// EffectiveBranchScope is shorthand for For(identity.Role).EffectiveBranchScope.
func EffectiveBranchScope(identity domain.Identity, requested domain.BranchScope) domain.BranchScope {
	return For(identity.Role).EffectiveBranchScope(identity, requested)
}
