package auth

import (
	"context"
	"errors"
)

var (
	ErrUsernameExists     = errors.New("username already exists")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

const (
	RoleCustomer = "customer"
	RoleAdmin    = "admin"
	RoleSeller   = "seller"
)

type User struct {
	ID       string
	Username string
	Hash     []byte
	Role     string
}

// UserStore is the credential collaborator: hashing and verification
// live entirely behind this interface.
type UserStore interface {
	Create(ctx context.Context, username, password, role, id string) error
	Verify(ctx context.Context, username, password string) (User, error)
	Ping(ctx context.Context) error
}

// SeedUser is a pre-provisioned admin or seller account.
type SeedUser struct {
	Username string
	Password string
	Role     string
}

// DemoSeedUsers mirror the demo deployment's fixed staff accounts.
func DemoSeedUsers() []SeedUser {
	return []SeedUser{
		{Username: "admin", Password: "admin123", Role: RoleAdmin},
		{Username: "superadmin", Password: "super123", Role: RoleAdmin},
		{Username: "seller1", Password: "seller123", Role: RoleSeller},
		{Username: "seller2", Password: "seller456", Role: RoleSeller},
	}
}
