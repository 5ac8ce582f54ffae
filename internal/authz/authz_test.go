package authz

import "testing"

func TestEvaluatePrecedence(t *testing.T) {
	owner := Principal{ID: 1}
	member := Principal{ID: 2}
	stranger := Principal{ID: 3}
	admin := Principal{ID: 4, Admin: true}

	res := Resource{OwnerID: 1, HouseholdID: 10}

	cases := []struct {
		name    string
		p       Principal
		act     Action
		res     Resource
		member  bool
		allowed bool
	}{
		{"admin always allowed", admin, ActionDelete, res, false, true},
		{"owner may mutate", owner, ActionUpdate, res, false, true},
		{"owner may delete", owner, ActionDelete, res, false, true},
		{"member may read", member, ActionRead, res, true, true},
		{"member may create", member, ActionCreate, res, true, true},
		{"member may not update", member, ActionUpdate, res, true, false},
		{"member may not delete", member, ActionDelete, res, true, false},
		{"member write grant opens delete", member, ActionDelete, Resource{OwnerID: 1, HouseholdID: 10, MemberWrite: true}, true, true},
		{"non-member denied read", stranger, ActionRead, res, false, false},
		{"no household scope denies non-owner", stranger, ActionRead, Resource{OwnerID: 1}, false, false},
		{"zero owner id never matches", Principal{ID: 0}, ActionUpdate, Resource{OwnerID: 0, HouseholdID: 10}, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			d := Evaluate(tc.p, tc.act, tc.res, tc.member)
			if d.Allowed != tc.allowed {
				t.Fatalf("Evaluate() allowed = %v, want %v", d.Allowed, tc.allowed)
			}
			if !d.Allowed && d.Reason != "Unauthorized" {
				t.Fatalf("deny reason = %q, want %q", d.Reason, "Unauthorized")
			}
		})
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name    string
		ownerID uint64
		userID  uint64
		member  bool
		applied bool
		want    Relationship
	}{
		{"owner", 1, 1, true, false, RelOwner},
		{"member", 1, 2, true, false, RelMember},
		{"applied", 1, 2, false, true, RelApplied},
		{"non-member", 1, 2, false, false, RelNonMember},
		// Owner wins even with odd flag combinations.
		{"owner beats member flag", 1, 1, true, true, RelOwner},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Classify(tc.ownerID, tc.userID, tc.member, tc.applied)
			if got != tc.want {
				t.Fatalf("Classify() = %q, want %q", got, tc.want)
			}
		})
	}
}
