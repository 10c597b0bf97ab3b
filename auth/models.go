package auth

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// AccountRole is the account's role
type AccountRole = string

const (
	// RoleFieldAgent is the least-privileged role, handling day to day listings
	RoleFieldAgent AccountRole = "fieldAgent"
	// RoleAdmin manages accounts and invitations
	RoleAdmin AccountRole = "admin"
)

// Account is the identity record behind every login.
type Account struct {
	bun.BaseModel    `bun:"table:accounts,alias:acc"`
	ID               uuid.UUID   `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Role             AccountRole `bun:"role,notnull" json:"role,omitempty"`
	Name             string      `bun:"name,notnull" json:"name,omitempty"`
	Username         string      `bun:"username,notnull,unique" json:"username,omitempty"`
	Email            string      `bun:"email,notnull,unique" json:"email,omitempty"`
	Telephone        string      `bun:"telephone,notnull" json:"telephone,omitempty"`
	EmergencyContact string      `bun:"emergency_contact,notnull" json:"emergencyContact,omitempty"`
	Address          string      `bun:"address,notnull" json:"address,omitempty"`
	StartDate        string      `bun:"start_date,notnull" json:"startDate,omitempty"`
	Images           []string    `bun:"images,type:jsonb" json:"images,omitempty"`
	PasswordHash     string      `bun:"password_hash,notnull" json:"-"`
	CreatedAt        *time.Time  `bun:"created_at,nullzero,default:current_timestamp" json:"createdAt,omitempty"`
	UpdatedAt        *time.Time  `bun:"updated_at,nullzero,default:current_timestamp" json:"updatedAt,omitempty"`
}

// SessionRecord is one live refresh token. At most SessionCap records exist
// per account; the oldest excess is evicted on insert. The autoincrement id
// gives a strict insertion order for ties on created_at.
type SessionRecord struct {
	bun.BaseModel `bun:"table:session_records,alias:sess"`
	ID            int64     `bun:"id,pk,autoincrement" json:"id,omitempty"`
	AccountID     uuid.UUID `bun:"account_id,notnull,type:uuid" json:"account_id,omitempty"`
	TokenHash     string    `bun:"token_hash,notnull,unique" json:"-"`
	CreatedAt     time.Time `bun:"created_at,notnull,default:current_timestamp" json:"created_at,omitempty"`
}

type accountIdentity struct {
	id       string
	username string
	email    string
	role     string
}

func (a accountIdentity) ID() string       { return a.id }
func (a accountIdentity) Username() string { return a.username }
func (a accountIdentity) Email() string    { return a.email }
func (a accountIdentity) Role() string     { return a.role }

var _ Identity = accountIdentity{}

// IdentityFromAccount adapts a stored account to the Identity interface.
func IdentityFromAccount(acc *Account) Identity {
	return accountIdentity{
		id:       acc.ID.String(),
		username: acc.Username,
		email:    acc.Email,
		role:     string(acc.Role),
	}
}
