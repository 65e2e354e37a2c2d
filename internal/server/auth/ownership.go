package auth

import "github.com/dmitrijs2005/filevault/internal/common"

// CanAccess is the ownership rule: only the owner may touch a file.
func CanAccess(requesterID, ownerID int64) bool {
	return requesterID == ownerID
}

// CheckOwner returns common.ErrorForbidden unless CanAccess holds.
func CheckOwner(requesterID, ownerID int64) error {
	if !CanAccess(requesterID, ownerID) {
		return common.ErrorForbidden
	}
	return nil
}
