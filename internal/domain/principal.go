// Package domain – Principal
//
// Principal is the caller identity resolved once at the access-control
// boundary. It is a tagged variant over the capability sets a user can hold:
// an anonymous caller, a customer (optionally an organization admin), or an
// employee (agent or admin). Authorization checks are expressed as methods so
// handlers never re-join the employee/customer tables ad hoc.
package domain

// PrincipalKind discriminates the Principal variant.
type PrincipalKind int

const (
	// PrincipalAnonymous is a caller with no resolved identity (soft auth).
	PrincipalAnonymous PrincipalKind = iota
	// PrincipalCustomer is a tenant user; IsOrgAdmin may grant extra rights.
	PrincipalCustomer
	// PrincipalEmployee is vendor staff with a role (agent or admin).
	PrincipalEmployee
)

// Principal is the resolved caller identity.
type Principal struct {
	Kind           PrincipalKind
	UserID         string
	Email          string
	OrganizationID string

	// Customer variant.
	IsOrgAdmin bool

	// Employee variant.
	Role string
}

// Anonymous reports whether no identity was resolved.
func (p Principal) Anonymous() bool { return p.Kind == PrincipalAnonymous }

// IsEmployee reports whether the caller is vendor staff of any role.
func (p Principal) IsEmployee() bool { return p.Kind == PrincipalEmployee }

// IsGlobalOrgEmployee reports whether the caller is staff of the vendor's own
// organization, which unlocks the cross-tenant listings.
func (p Principal) IsGlobalOrgEmployee() bool {
	return p.Kind == PrincipalEmployee && p.OrganizationID == GlobalOrgID
}

// CanViewTicket reports whether the caller may read the ticket: the
// requester, the assignee, or any registered employee.
func (p Principal) CanViewTicket(t *Ticket) bool {
	if p.Anonymous() || t == nil {
		return false
	}
	if p.IsEmployee() {
		return true
	}
	if t.CustomerID == p.UserID {
		return true
	}
	return t.AssignedTo != nil && *t.AssignedTo == p.UserID
}

// CanMutateTicket reports whether the caller may update the ticket: the
// requester, the assignee, an organization-admin customer, or an admin
// employee.
func (p Principal) CanMutateTicket(t *Ticket) bool {
	if p.Anonymous() || t == nil {
		return false
	}
	if t.CustomerID == p.UserID {
		return true
	}
	if t.AssignedTo != nil && *t.AssignedTo == p.UserID {
		return true
	}
	switch p.Kind {
	case PrincipalCustomer:
		return p.IsOrgAdmin
	case PrincipalEmployee:
		return p.Role == RoleAdmin
	}
	return false
}
