package domain

import (
	"context"
	"time"
)

// User is a platform account. A user holds exactly one role. Staff accounts
// (teachers, admins) are pre-provisioned by email and linked to their
// identity-provider account on first login; self-registered users start as
// students.
type User struct {
	ID          string    `bson:"_id,omitempty" json:"id"`
	FirebaseUID string    `bson:"firebase_uid,omitempty" json:"firebase_uid"`
	Email       string    `bson:"email" json:"email"`
	Name        string    `bson:"name" json:"name"`
	Role        string    `bson:"role" json:"role"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
}

// UserRepository defines operations for managing users
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByFirebaseUID(ctx context.Context, uid string) (*User, error)
	UpdateFirebaseUID(ctx context.Context, userID string, firebaseUID string) error
}

// Role constants
const (
	RoleStudent         = "STUDENT"
	RoleInternalTeacher = "INTERNAL_TEACHER"
	RoleExternalTeacher = "EXTERNAL_TEACHER"
	RoleAdmin           = "ADMIN"
	RoleSuperAdmin      = "SUPER_ADMIN"
)

// TeacherRoles is the transport-level gate for exam mutation and upload
// endpoints. The ownership rule is applied separately, after this gate.
var TeacherRoles = []string{
	RoleInternalTeacher,
	RoleExternalTeacher,
	RoleAdmin,
	RoleSuperAdmin,
}

// Actor identifies the authenticated caller of a request, extracted from
// the verified JWT claims.
type Actor struct {
	UserID string
	Role   string
}
