package domain

import "strconv"

// BranchScope is the branch filter applied to ledger and reporting requests.
// Any value <= 0 means all branches.
type BranchScope int

// AllBranches is the scope that spans every branch.
const AllBranches BranchScope = 0

// ScopeOf converts a raw branch id into a scope.
func ScopeOf(branchID int) BranchScope {
	if branchID <= 0 {
		return AllBranches
	}
	return BranchScope(branchID)
}

func (s BranchScope) IsAll() bool {
	return s <= 0
}

// BranchID returns the concrete branch and false when the scope spans all branches.
func (s BranchScope) BranchID() (int, bool) {
	if s.IsAll() {
		return 0, false
	}
	return int(s), true
}

func (s BranchScope) String() string {
	if s.IsAll() {
		return "all"
	}
	return strconv.Itoa(int(s))
}
