package user

import (
	"context"

	"adminauth/internal/auth/models"
)

// Hasher is the subset of the password hasher seeding needs.
type Hasher interface {
	Hash(password string) (string, error)
}

type seedAccount struct {
	username string
	password string
	fullName string
}

// Default admin accounts from the original provisioning sheet. Intended for
// development and tests; production deployments provision out-of-band.
var seedAccounts = []seedAccount{
	{"admin_kelurahan", "admin123", "Admin Kelurahan"},
	{"kepala_kelurahan", "kepala123", "Kepala Kelurahan"},
	{"sekretaris", "sekret123", "Sekretaris Kelurahan"},
	{"staff_admin", "staff123", "Staff Admin"},
}

// SeedDefaultAdmins loads the default admin accounts into a store, hashing
// each password with the given hasher. Existing usernames are left untouched.
func SeedDefaultAdmins(ctx context.Context, store Store, hasher Hasher) error {
	for _, acc := range seedAccounts {
		hash, err := hasher.Hash(acc.password)
		if err != nil {
			return err
		}
		u, err := models.NewUser(acc.username, hash, acc.fullName, models.RoleAdmin)
		if err != nil {
			return err
		}
		if _, err := store.FindByUsername(ctx, acc.username); err == nil {
			continue
		}
		if err := store.Create(ctx, u); err != nil {
			return err
		}
	}
	return nil
}
