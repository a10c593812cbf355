package models

import "time"

// Chaos types injected into the order pipeline.
const (
	ChaosNone     = "none"
	ChaosBadJWT   = "badjwt"
	ChaosThrottle = "throttle"
	ChaosFail     = "fail"
)

type Role struct {
	ID   int    `gorm:"primaryKey;autoIncrement" json:"id"`
	Name string `gorm:"uniqueIndex;not null" json:"name"`
}

type Vendor struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	APIKey    string    `gorm:"uniqueIndex;not null" json:"apiKey"`
	Name      string    `json:"name,omitempty"`
	Email     string    `json:"email,omitempty"`
	Phone     string    `json:"phone,omitempty"`
	Website   string    `json:"website,omitempty"`
	GitHubURL string    `json:"gitHubUrl,omitempty"`
	Roles     []Role    `gorm:"many2many:vendor_roles" json:"-"`
	Chaos     *Chaos    `gorm:"foreignKey:VendorID;references:ID" json:"chaos,omitempty"`
	CreatedAt time.Time `json:"created"`
	UpdatedAt time.Time `json:"-"`
}

// RoleNames returns the stored role names plus the implicit vendor role.
func (v *Vendor) RoleNames() []string {
	names := make([]string, 0, len(v.Roles)+1)
	for _, r := range v.Roles {
		names = append(names, r.Name)
	}
	return append(names, "vendor")
}

func (v *Vendor) HasRole(role string) bool {
	for _, r := range v.RoleNames() {
		if r == role {
			return true
		}
	}
	return false
}

// Chaos is a vendor's current simulated-fault state. FixCode is only set
// while Type is not none and is cleared the moment it is consumed.
type Chaos struct {
	VendorID    string     `gorm:"primaryKey" json:"-"`
	Type        string     `gorm:"not null;default:none" json:"type"`
	FixCode     *string    `json:"fixCode,omitempty"`
	InitiatedAt time.Time  `json:"initiatedDate"`
	FixedAt     *time.Time `json:"fixDate,omitempty"`
}

// Connection is one vendor's pairing request for a purpose. Vendor2 is nil
// while the request is still waiting for a partner; once filled a mirror
// row exists with the roles swapped so each side can look up the other.
type Connection struct {
	Vendor1   string    `gorm:"primaryKey" json:"vendor1"`
	Purpose   string    `gorm:"primaryKey" json:"purpose"`
	Vendor2   *string   `json:"vendor2,omitempty"`
	Rating    *int      `json:"rating,omitempty"`
	CreatedAt time.Time `json:"created"`
}

// AuthCode holds the bcrypt hash of a vendor's outstanding login code.
type AuthCode struct {
	VendorID  string    `gorm:"primaryKey" json:"vendor_id"`
	CodeHash  string    `gorm:"not null" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}
