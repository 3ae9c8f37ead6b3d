// Package domain defines the persistence models for the helpdesk: tenants,
// users (with their employee/customer sub-records), teams, tickets with their
// status catalog and audit history, ticket messages, tags, custom fields, and
// knowledge-base articles. All types are mapped with GORM and form the core
// data layer of the application.
package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// GlobalOrgID is the fixed identifier of the vendor's own organization
// ("AutoCRM"). Teams, articles, and employees owned by this organization are
// visible across all tenant organizations.
const GlobalOrgID = "9066e91f-faa2-4a68-8749-af0582dd435c"

// GlobalOrgName is the display name of the vendor organization.
const GlobalOrgName = "AutoCRM"

// Ticket priorities accepted on creation.
const (
	PriorityUrgent = "urgent"
	PriorityHigh   = "high"
	PriorityNormal = "normal"
	PriorityLow    = "low"
)

// ValidPriority reports whether p is one of the enumerated ticket priorities.
func ValidPriority(p string) bool {
	switch p {
	case PriorityUrgent, PriorityHigh, PriorityNormal, PriorityLow:
		return true
	}
	return false
}

// Well-known statuses. The full catalog lives in the ticket_statuses table;
// these constants name the entries the lifecycle logic depends on.
const (
	StatusNew              = "New"
	StatusClosed           = "Closed"
	StatusResolved         = "Resolved"
	StatusClosedWillNotFix = "Closed (Will Not Fix)"
)

// ClosedStatuses is the set of statuses that mark a ticket as closed.
// Transitioning into this set stamps closed_at; transitioning out clears it.
var ClosedStatuses = map[string]struct{}{
	StatusClosed:           {},
	StatusResolved:         {},
	StatusClosedWillNotFix: {},
}

// IsClosedStatus reports whether status belongs to the closed-status set.
func IsClosedStatus(status string) bool {
	_, ok := ClosedStatuses[status]
	return ok
}

// Organization is a tenant. The vendor's own organization (GlobalOrgID) is
// seeded at migration time and acts as the cross-tenant sentinel.
type Organization struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Name      string    `json:"name"       gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Organization.
func (Organization) TableName() string { return "organizations" }

// User is an account belonging to exactly one organization. Capability sets
// are polymorphic: a user is either an employee (vendor staff) or a customer,
// expressed as an optional sub-row in the corresponding table.
type User struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Email          string    `json:"email"           gorm:"type:varchar(255);not null;uniqueIndex"`
	OrganizationID string    `json:"organization_id" gorm:"type:char(36);not null;index"`
	Profile        string    `json:"profile,omitempty" gorm:"type:text"`
	CreatedAt      time.Time `json:"created_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID"`
	Employee     *Employee     `json:"employee,omitempty"     gorm:"foreignKey:UserID;references:ID"`
	Customer     *Customer     `json:"customer,omitempty"     gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for User.
func (User) TableName() string { return "users" }

// DisplayName resolves a human-readable name for the user: the "name" field
// of the profile JSON blob when present, otherwise the email local part.
func (u *User) DisplayName() string {
	if u == nil {
		return "Unknown"
	}
	if u.Profile != "" {
		var p struct {
			Name string `json:"name"`
		}
		if err := json.Unmarshal([]byte(u.Profile), &p); err == nil && p.Name != "" {
			return p.Name
		}
	}
	if local, _, found := strings.Cut(u.Email, "@"); found && local != "" {
		return local
	}
	return "Unknown"
}

// Employee roles.
const (
	RoleAgent = "agent"
	RoleAdmin = "admin"
)

// Employee is the vendor-staff capability row for a user. Employees belong to
// a team and carry a role (agent or admin).
type Employee struct {
	ID        string    `json:"id"      gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id" gorm:"type:char(36);not null;uniqueIndex"`
	Role      string    `json:"role"    gorm:"type:varchar(16);not null;default:'agent';check:role IN ('agent','admin')"`
	TeamID    *string   `json:"team_id" gorm:"type:char(36);index"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Employee.
func (Employee) TableName() string { return "employees" }

// Customer is the tenant-user capability row. Organization admins can mutate
// any ticket within their organization.
type Customer struct {
	ID         string    `json:"id"           gorm:"type:char(36);primaryKey"`
	UserID     string    `json:"user_id"      gorm:"type:char(36);not null;uniqueIndex"`
	IsOrgAdmin bool      `json:"is_org_admin" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName returns the database table name for Customer.
func (Customer) TableName() string { return "customers" }

// Team groups employees within an organization. Teams of the vendor
// organization are visible to every tenant.
type Team struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Name           string    `json:"name"            gorm:"type:varchar(255);not null"`
	Description    string    `json:"description"     gorm:"type:text"`
	OrganizationID string    `json:"organization_id" gorm:"type:char(36);not null;index"`
	CreatedAt      time.Time `json:"created_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID"`
}

// TableName returns the database table name for Team.
func (Team) TableName() string { return "teams" }

// TicketStatus is one entry of the externally configured status catalog.
// CustomerAccess marks statuses that may be shown to customers; the rest are
// internal-only.
type TicketStatus struct {
	Status         string    `json:"status"          gorm:"type:varchar(64);primaryKey"`
	// No column default here: GORM drops zero-valued fields from inserts
	// when a default tag is present, which would store internal-only
	// statuses as customer-visible.
	CustomerAccess bool      `json:"customer_access" gorm:"not null"`
	CreatedAt      time.Time `json:"created_at"`
}

// TableName returns the database table name for TicketStatus.
func (TicketStatus) TableName() string { return "ticket_statuses" }

// Ticket is a support request raised by a customer against a team.
//
// Invariants:
//   - A newly created ticket has status "New" and a nil ClosedAt.
//   - ClosedAt is non-nil exactly while the current status belongs to
//     ClosedStatuses.
//   - Every status change appends one TicketStatusHistory row.
type Ticket struct {
	ID          string     `json:"id"          gorm:"type:char(36);primaryKey"`
	Subject     string     `json:"subject"     gorm:"type:varchar(255);not null"`
	Description string     `json:"description" gorm:"type:text"`
	Priority    string     `json:"priority"    gorm:"type:varchar(16);not null;check:priority IN ('urgent','high','normal','low')"`
	Status      string     `json:"status"      gorm:"type:varchar(64);not null;index"`
	Channel     string     `json:"channel"     gorm:"type:varchar(32)"`
	CustomerID  string     `json:"customer_id" gorm:"type:char(36);not null;index"`
	AssignedTo  *string    `json:"assigned_to" gorm:"type:char(36);index"`
	TeamID      string     `json:"team_id"     gorm:"type:char(36);not null;index"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	ClosedAt    *time.Time `json:"closed_at"`

	Requester *User                 `json:"requester,omitempty"      gorm:"foreignKey:CustomerID;references:ID"`
	Assignee  *User                 `json:"assignee,omitempty"       gorm:"foreignKey:AssignedTo;references:ID"`
	Team      *Team                 `json:"team,omitempty"           gorm:"foreignKey:TeamID;references:ID"`
	Tags      []Tag                 `json:"tags,omitempty"           gorm:"many2many:ticket_tags"`
	Fields    []TicketField         `json:"custom_fields,omitempty"  gorm:"foreignKey:TicketID;references:ID"`
	History   []TicketStatusHistory `json:"status_history,omitempty" gorm:"foreignKey:TicketID;references:ID"`
}

// TableName returns the database table name for Ticket.
func (Ticket) TableName() string { return "tickets" }

// Closed reports whether the ticket is currently closed.
func (t *Ticket) Closed() bool { return t.ClosedAt != nil }

// TicketStatusHistory is an immutable, append-only audit record of a status
// transition. The creation row has a nil OldStatus. Rows are never updated or
// deleted.
type TicketStatusHistory struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	TicketID  string    `json:"ticket_id"  gorm:"type:char(36);not null;index:idx_ticket_history,priority:1"`
	OldStatus *string   `json:"old_status" gorm:"type:varchar(64)"`
	NewStatus string    `json:"new_status" gorm:"type:varchar(64);not null"`
	ChangedBy string    `json:"changed_by" gorm:"type:char(36)"`
	ChangedAt time.Time `json:"changed_at" gorm:"index:idx_ticket_history,priority:2"`
}

// TableName returns the database table name for TicketStatusHistory.
func (TicketStatusHistory) TableName() string { return "ticket_status_history" }

// Message is a ticket-scoped chat entry. Internal messages are visible only
// to employees.
type Message struct {
	ID         string    `json:"id"          gorm:"type:char(36);primaryKey"`
	TicketID   string    `json:"ticket_id"   gorm:"type:char(36);not null;index:idx_ticket_msgs,priority:1"`
	UserID     string    `json:"user_id"     gorm:"type:char(36);not null"`
	Content    string    `json:"content"     gorm:"type:text;not null"`
	IsInternal bool      `json:"is_internal" gorm:"not null;default:false"`
	CreatedAt  time.Time `json:"created_at"  gorm:"index:idx_ticket_msgs,priority:2"`

	Author *User `json:"user,omitempty" gorm:"foreignKey:UserID;references:ID"`
}

// TableName returns the database table name for Message.
func (Message) TableName() string { return "messages" }

// Tag is a label attachable to tickets via the ticket_tags join table.
type Tag struct {
	ID   string `json:"id"   gorm:"type:char(36);primaryKey"`
	Name string `json:"name" gorm:"type:varchar(64);not null;uniqueIndex"`
}

// TableName returns the database table name for Tag.
func (Tag) TableName() string { return "tags" }

// TicketField is a custom name/value pair attached to a ticket.
type TicketField struct {
	ID       string `json:"id"        gorm:"type:char(36);primaryKey"`
	TicketID string `json:"ticket_id" gorm:"type:char(36);not null;index"`
	Name     string `json:"name"      gorm:"type:varchar(128);not null"`
	Value    string `json:"value"     gorm:"type:text"`
}

// TableName returns the database table name for TicketField.
func (TicketField) TableName() string { return "ticket_fields" }

// KnowledgeBaseArticle is a support article owned by an organization.
// Articles of the vendor organization are visible to every tenant. Content is
// HTML; the literal "{kbtitle}" placeholder is substituted with the title
// when the article is indexed for retrieval.
type KnowledgeBaseArticle struct {
	ID             string    `json:"id"              gorm:"type:char(36);primaryKey"`
	Title          string    `json:"title"           gorm:"type:varchar(255);not null"`
	Content        string    `json:"content"         gorm:"type:text;not null"`
	Category       string    `json:"category"        gorm:"type:varchar(128)"`
	OrganizationID string    `json:"organization_id" gorm:"type:char(36);not null;index"`
	CreatedAt      time.Time `json:"created_at"`

	Organization *Organization `json:"organization,omitempty" gorm:"foreignKey:OrganizationID;references:ID"`
}

// TableName returns the database table name for KnowledgeBaseArticle.
func (KnowledgeBaseArticle) TableName() string { return "knowledge_base" }

// IdempotencyKey records a completed ticket creation keyed by the client's
// Idempotency-Key header, so replays return the original ticket instead of
// creating a duplicate. Entries expire after a configurable TTL.
type IdempotencyKey struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	UserID    string    `json:"user_id"    gorm:"type:char(36);not null;uniqueIndex:ux_idem_user_key"`
	Key       string    `json:"key"        gorm:"column:idem_key;type:varchar(200);not null;uniqueIndex:ux_idem_user_key"`
	TicketID  string    `json:"ticket_id"  gorm:"type:char(36);not null"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"index"`
}

// TableName returns the database table name for IdempotencyKey.
func (IdempotencyKey) TableName() string { return "idempotency_keys" }
