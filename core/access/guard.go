// Package access centralizes the branch-scoped authorization rules.
// Every rule is a pure function over the acting user and the target scope;
// denial is always a *core.PermissionError regardless of whether the target
// exists, so callers never leak existence across branches.
package access

import (
	"github.com/athlos-club/athlos/core"
	"github.com/athlos-club/athlos/core/user"
)

const deniedMsg = "you do not have access to this branch"

// CanManageBranch checks whether usr may mutate branch-scoped records
// (attendance, payments, approvals, posts) of the given branch.
// A head coach may manage any branch; a coach only their active one.
func CanManageBranch(usr user.User, branchID int) error {
	if usr.IsHeadCoach() {
		return nil
	}
	if usr.IsCoach() && usr.BranchID == branchID && branchID != 0 {
		return nil
	}
	return core.NewPermissionError(deniedMsg)
}

// CanViewBranch checks whether usr may read branch-scoped records.
// Staff follow the manage rule; an athlete may view their own branch.
func CanViewBranch(usr user.User, branchID int) error {
	if usr.IsAthlete() {
		if usr.BranchID == branchID && branchID != 0 {
			return nil
		}
		return core.NewPermissionError(deniedMsg)
	}
	return CanManageBranch(usr, branchID)
}

// CanAccessAthlete checks whether usr may act on an athlete's records:
// the athlete themselves, a coach of the athlete's branch, or a head coach.
func CanAccessAthlete(usr user.User, athleteUserID, athleteBranchID int) error {
	if usr.IsAthlete() {
		if usr.ID == athleteUserID {
			return nil
		}
		return core.NewPermissionError("you do not have access to this athlete")
	}
	return CanManageBranch(usr, athleteBranchID)
}

// CanSwitchBranch checks whether usr may set branchID as their active branch.
// A head coach may switch to any branch; a coach only to an assigned one.
func CanSwitchBranch(usr user.User, branchID int, assignedBranchIDs []int) error {
	if usr.IsHeadCoach() {
		return nil
	}
	if !usr.IsCoach() {
		return core.NewPermissionError("only coaches can switch branches")
	}
	for _, id := range assignedBranchIDs {
		if id == branchID {
			return nil
		}
	}
	return core.NewPermissionError("you are not assigned to this branch")
}
