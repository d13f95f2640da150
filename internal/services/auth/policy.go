package auth

import (
	"strings"

	"github.com/dmarchuk/assetmarket/internal/domain/enums"
)

// CanAccessOwned reports whether the identity may read a resource owned by
// ownerID. Owners and admins pass; everyone else does not.
func CanAccessOwned(identity Identity, ownerID string) bool {
	if strings.TrimSpace(ownerID) == "" {
		return false
	}
	if identity.UserID == ownerID {
		return true
	}
	return IsAdmin(identity)
}

func IsAdmin(identity Identity) bool {
	return strings.EqualFold(identity.Role, string(enums.RoleAdmin))
}
