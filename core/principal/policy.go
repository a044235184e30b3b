package principal

import (
	"github.com/ryitech/institute/core"
)

// Operation names an access-controlled action.
type Operation string

const (
	OpCreateBranchAdmin Operation = "branchAdmin:create"
	OpUpdateBranchAdmin Operation = "branchAdmin:update"
	OpDeleteBranchAdmin Operation = "branchAdmin:delete"
	OpListBranchAdmins  Operation = "branchAdmin:list"

	OpCreateStudent Operation = "student:create"
	OpUpdateStudent Operation = "student:update"
	OpDeleteStudent Operation = "student:delete"
	OpListStudents  Operation = "student:list"
	OpGetStudent    Operation = "student:get"

	OpCreateCourse   Operation = "course:create"
	OpCreateBranch   Operation = "branch:create"
	OpCreateTeam     Operation = "team:create"
	OpCreateActivity Operation = "activity:create"
	OpUploadImages   Operation = "gallery:upload"
	OpViewEnquiries  Operation = "enquiry:view"
)

// policy maps each operation to the roles allowed to perform it. Branch-scoped
// operations additionally run the branch predicate below for branchAdmin
// callers.
var policy = map[Operation][]string{
	OpCreateBranchAdmin: {RoleSuper},
	OpUpdateBranchAdmin: {RoleSuper},
	OpDeleteBranchAdmin: {RoleSuper},
	OpListBranchAdmins:  {RoleSuper},

	OpCreateStudent: {RoleSuper, RoleBranchAdmin},
	OpUpdateStudent: {RoleSuper, RoleBranchAdmin},
	OpDeleteStudent: {RoleSuper, RoleBranchAdmin},
	OpListStudents:  {RoleSuper, RoleBranchAdmin},
	OpGetStudent:    {RoleSuper, RoleBranchAdmin},

	OpCreateCourse:   {RoleSuper},
	OpCreateBranch:   {RoleSuper},
	OpCreateTeam:     {RoleSuper},
	OpCreateActivity: {RoleSuper},
	OpUploadImages:   {RoleSuper},
	OpViewEnquiries:  {RoleSuper, RoleBranchAdmin},
}

// Authorize is a pure predicate over the policy table. An inactive caller is
// always denied, so a deactivated account loses access on its next call even
// with a still-valid token.
func Authorize(p Principal, op Operation) error {
	if p == nil || !p.Active() {
		return core.NewForbiddenError("access denied")
	}
	for _, role := range policy[op] {
		if p.Role() == role {
			return nil
		}
	}
	return core.NewForbiddenError("access denied")
}

// AuthorizeBranch applies the role check plus the branch-scope predicate:
// branchAdmin callers may only act within their own branch.
func AuthorizeBranch(p Principal, op Operation, targetBranch string) error {
	if err := Authorize(p, op); err != nil {
		return err
	}
	if p.Role() == RoleBranchAdmin && p.Branch() != targetBranch {
		return core.NewForbiddenError("cannot act on other branches")
	}
	return nil
}
