package authz

import (
	"strings"

	"github.com/codehivehq/codehive/backend/internal/apperr"
)

// Role is a user's privilege level within one project. Owners and admins may
// manage membership; members and viewers may not.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
	RoleViewer Role = "viewer"
)

// ResolveRole normalizes a raw role string: trimmed, case-folded, empty
// defaults to member. Anything outside the enum is rejected.
func ResolveRole(raw string) (Role, error) {
	normalized := Role(strings.ToLower(strings.TrimSpace(raw)))
	switch normalized {
	case "":
		return RoleMember, nil
	case RoleOwner, RoleAdmin, RoleMember, RoleViewer:
		return normalized, nil
	default:
		return "", apperr.InvalidRole(raw)
	}
}

// CanManageMembers reports whether the role grants membership mutations.
func (r Role) CanManageMembers() bool {
	return r == RoleOwner || r == RoleAdmin
}

// Membership is one (user, role) pair of a project snapshot.
type Membership struct {
	UserID uint
	Role   Role
}

// Snapshot is the full membership state of a project read at a single point.
// Every decision in this package is computed against one snapshot; callers
// must hold the snapshot and the subsequent write under the same per-project
// serialization (see ProjectService).
type Snapshot []Membership

func (s Snapshot) find(userID uint) (Membership, bool) {
	for _, m := range s {
		if m.UserID == userID {
			return m, true
		}
	}
	return Membership{}, false
}

// OwnerCount returns the number of memberships holding the owner role.
func (s Snapshot) OwnerCount() int {
	n := 0
	for _, m := range s {
		if m.Role == RoleOwner {
			n++
		}
	}
	return n
}

// CanMutateMembership decides whether the requester may add, remove or
// re-role members. Absent requesters are rejected before role is considered.
func CanMutateMembership(s Snapshot, requesterID uint) error {
	m, ok := s.find(requesterID)
	if !ok {
		return apperr.NotAMember()
	}
	if !m.Role.CanManageMembers() {
		return apperr.InsufficientRole()
	}
	return nil
}

// CanViewProject decides whether the requester may read the project. A nil
// requester is a system-internal read and is always allowed.
func CanViewProject(s Snapshot, requesterID *uint) error {
	if requesterID == nil {
		return nil
	}
	if _, ok := s.find(*requesterID); !ok {
		return apperr.AccessDenied()
	}
	return nil
}

// ValidateRemoval guards the last-owner invariant: removing the sole owner is
// never allowed, regardless of who asks.
func ValidateRemoval(s Snapshot, targetID uint) error {
	target, ok := s.find(targetID)
	if !ok {
		return apperr.MemberNotFound()
	}
	if target.Role == RoleOwner && s.OwnerCount() == 1 {
		return apperr.LastOwnerProtection()
	}
	return nil
}

// ValidateRoleChange applies ValidateRemoval semantics to demotions: moving
// the sole owner to any non-owner role would leave the project ownerless.
func ValidateRoleChange(s Snapshot, targetID uint, newRole Role) error {
	target, ok := s.find(targetID)
	if !ok {
		return apperr.MemberNotFound()
	}
	if newRole != RoleOwner && target.Role == RoleOwner && s.OwnerCount() == 1 {
		return apperr.LastOwnerProtection()
	}
	return nil
}

// DiffNewMembers splits candidate user IDs into those not yet in the snapshot
// and those already present. Duplicate candidates collapse to one entry.
// Add semantics are idempotent: present members are filtered, never re-roled.
func DiffNewMembers(s Snapshot, candidateIDs []uint) (toAdd, alreadyPresent []uint) {
	seen := make(map[uint]bool, len(candidateIDs))
	for _, id := range candidateIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := s.find(id); ok {
			alreadyPresent = append(alreadyPresent, id)
		} else {
			toAdd = append(toAdd, id)
		}
	}
	return toAdd, alreadyPresent
}
