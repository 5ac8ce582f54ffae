// Package authz is the single authorization evaluator for the API. Handlers
// resolve the target resource to its recorded owner (walking joins such as
// segment -> map -> store -> user inside the repositories) and pass the
// result here together with the authenticated principal. The evaluator is a
// pure function so the precedence rules can be tested without a database.
package authz

// Action classifies what the principal wants to do with a resource.
type Action int

const (
	ActionRead Action = iota
	ActionCreate
	ActionUpdate
	ActionDelete
)

// Principal is the authenticated actor making the request.
type Principal struct {
	ID    uint64
	Admin bool
}

// Resource describes the target of an authorization check. OwnerID is the
// recorded owner (creator) of the resource. HouseholdID scopes the resource
// to a household when it lives under one; zero means no household scope.
// MemberWrite grants household members mutate access on top of the usual
// read/create access. Comment deletion needs this: any member of the
// household may redact a comment, not just its author.
type Resource struct {
	OwnerID     uint64
	HouseholdID uint64
	MemberWrite bool
}

// Decision is the outcome of an evaluation. Reason is set on deny and is the
// message surfaced to the client.
type Decision struct {
	Allowed bool
	Reason  string
}

var allow = Decision{Allowed: true}

func deny() Decision { return Decision{Reason: "Unauthorized"} }

// Evaluate applies the role precedence rules, first match wins:
//
//  1. global admin -> allow
//  2. resource owner -> allow
//  3. household member -> allow for read/create, and for mutate only when
//     the resource grants MemberWrite
//  4. deny
//
// member reports whether the principal holds a membership row for the
// household the resource is scoped under; callers pass false for resources
// with no household scope.
func Evaluate(p Principal, act Action, res Resource, member bool) Decision {
	if p.Admin {
		return allow
	}
	if res.OwnerID != 0 && res.OwnerID == p.ID {
		return allow
	}
	if res.HouseholdID != 0 && member {
		if act == ActionRead || act == ActionCreate {
			return allow
		}
		if res.MemberWrite {
			return allow
		}
	}
	return deny()
}

// Relationship is the 4-way classification of a (user, household) pair.
// The labels are part of the wire contract.
type Relationship string

const (
	RelNonMember Relationship = "nonMember"
	RelMember    Relationship = "member"
	RelOwner     Relationship = "owner"
	RelApplied   Relationship = "applied"
)

// Classify resolves the relationship of a user to a household. Precedence is
// owner -> member -> applied -> nonMember; exactly one label applies because
// a pair can never hold a membership and a pending application at once.
func Classify(ownerID, userID uint64, member, applied bool) Relationship {
	switch {
	case userID == ownerID:
		return RelOwner
	case member:
		return RelMember
	case applied:
		return RelApplied
	default:
		return RelNonMember
	}
}
