package authz

const (
	RoleCustomer      = "customer"
	RoleOrganizer     = "event_organizer"
	RoleCoordinator   = "coordinator"
	RoleVenueAdmin    = "venue_administrator"
	RoleAdministrator = "administrator"
)

func IsKnown(role string) bool {
	switch role {
	case RoleCustomer, RoleOrganizer, RoleCoordinator, RoleVenueAdmin, RoleAdministrator:
		return true
	}
	return false
}

// CanUsePublicSignIn reports whether the role may use the app's public
// sign-in. Administrators authenticate through the back office instead.
func CanUsePublicSignIn(role string) bool {
	return role != RoleAdministrator
}

func IsVenueStaff(role string) bool {
	return role == RoleVenueAdmin || role == RoleCoordinator
}
