// internal/services/permission_service.go
package services

import (
	"sort"

	"github.com/iddsaiddunia/audio-copyright-frontend-sub001/internal/models"
)

// Permission names an action a user may perform.
type Permission string

const (
	PermApproveTracks        Permission = "approveTracks"
	PermRejectTracks         Permission = "rejectTracks"
	PermManageContent        Permission = "manageContent"
	PermVerifyArtists        Permission = "verifyArtists"
	PermVerifyPayments       Permission = "verifyPayments"
	PermViewPayments         Permission = "viewPayments"
	PermManageFees           Permission = "manageFees"
	PermViewFinancialReports Permission = "viewFinancialReports"
	PermPublishCopyrights    Permission = "publishCopyrights"
	PermPublishTransfers     Permission = "publishTransfers"
	PermManageBlockchain     Permission = "manageBlockchain"
	PermManageSystemSettings Permission = "manageSystemSettings"
	PermManageAdmins         Permission = "manageAdmins"
	PermManageUsers          Permission = "manageUsers"
	PermViewAuditLogs        Permission = "viewAuditLogs"
	PermManageRoles          Permission = "manageRoles"
	PermUploadTracks         Permission = "uploadTracks"
	PermViewOwnTracks        Permission = "viewOwnTracks"
	PermRequestTransfers     Permission = "requestTransfers"
	PermViewCertificates     Permission = "viewCertificates"
	PermBrowseTracks         Permission = "browseTracks"
	PermRequestLicenses      Permission = "requestLicenses"
	PermViewOwnLicenses      Permission = "viewOwnLicenses"
	PermPayLicenses          Permission = "payLicenses"
)

var licenseePermissions = []Permission{
	PermBrowseTracks, PermRequestLicenses, PermViewOwnLicenses, PermPayLicenses,
}

// permissionMatrix is keyed by admin sub-type or by role tag. It is never
// handed out directly.
var permissionMatrix = map[string][]Permission{
	string(models.AdminTypeContent): {
		PermApproveTracks, PermRejectTracks, PermManageContent, PermVerifyArtists,
	},
	string(models.AdminTypeFinancial): {
		PermVerifyPayments, PermViewPayments, PermManageFees, PermViewFinancialReports,
	},
	string(models.AdminTypeTechnical): {
		PermPublishCopyrights, PermPublishTransfers, PermManageBlockchain, PermManageSystemSettings,
	},
	string(models.AdminTypeSuper): {
		PermManageAdmins, PermManageUsers, PermViewAuditLogs, PermManageRoles,
	},
	string(models.RoleArtist): append([]Permission{
		PermUploadTracks, PermViewOwnTracks, PermRequestTransfers, PermViewCertificates,
	}, licenseePermissions...),
	string(models.RoleLicensee): append([]Permission(nil), licenseePermissions...),
}

// matrixKey picks the matrix entry for a user: the admin sub-type for admins,
// otherwise the role itself.
func matrixKey(user *models.User) string {
	if user.Role == models.RoleAdmin {
		return string(user.AdminType)
	}
	return string(user.Role)
}

func HasPermission(user *models.User, action Permission) bool {
	if user == nil {
		return false
	}
	for _, p := range permissionMatrix[matrixKey(user)] {
		if p == action {
			return true
		}
	}
	return false
}

// HasRole matches the literal "admin" against Role alone. Admin sub-type tags
// match only admins carrying that sub-type; anything else is compared to Role.
func HasRole(user *models.User, role string) bool {
	if user == nil {
		return false
	}
	if role == string(models.RoleAdmin) {
		return user.Role == models.RoleAdmin
	}
	if _, ok := models.ParseAdminType(role); ok {
		return user.Role == models.RoleAdmin && string(user.AdminType) == role
	}
	return string(user.Role) == role
}

func IsAdmin(user *models.User) bool {
	return user != nil && user.Role == models.RoleAdmin
}

// PermissionsFor returns a sorted copy of the user's effective permissions.
func PermissionsFor(user *models.User) []Permission {
	if user == nil {
		return []Permission{}
	}
	perms := append([]Permission{}, permissionMatrix[matrixKey(user)]...)
	sort.Slice(perms, func(i, j int) bool { return perms[i] < perms[j] })
	return perms
}
