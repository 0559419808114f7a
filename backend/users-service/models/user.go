package models

import "time"

// Roles recognized across the FMS services.
const (
	RoleManager = "manager"
	RoleMember  = "member"
)

// User identifies people by the same stable id the task documents reference
// in assignedTo and assignedBy. The password hash never leaves the service.
type User struct {
	UserID       string    `bson:"_id" json:"userId"`
	Name         string    `bson:"name" json:"name"`
	Department   string    `bson:"department" json:"department"`
	Email        string    `bson:"email" json:"email"`
	Role         string    `bson:"role" json:"role"`
	PasswordHash string    `bson:"passwordHash" json:"-"`
	CreatedOn    time.Time `bson:"createdOn" json:"createdOn"`
}
