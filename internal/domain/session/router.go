package session

const (
	RoleManager = "MANAGER"
	RoleStudent = "ROLE_USER"
)

type Destination string

const (
	DestinationCompanyHome    Destination = "/homecompany"
	DestinationStudentHome    Destination = "/student"
	DestinationChangePassword Destination = "/change-password"
	DestinationLogin          Destination = "/login"
	DestinationProfileView    Destination = "/profile/view"
	DestinationProfileCreate  Destination = "/profile/create"
)

// Route dispatches on the decoded role. Unknown and missing roles go to the
// credential-change destination.
func Route(role *string) Destination {
	if role == nil {
		return DestinationChangePassword
	}
	switch *role {
	case RoleManager:
		return DestinationCompanyHome
	case RoleStudent:
		return DestinationStudentHome
	default:
		return DestinationChangePassword
	}
}

// ProfileHome picks the profile page for a user depending on whether their
// profile exists yet.
func ProfileHome(exists bool) Destination {
	if exists {
		return DestinationProfileView
	}
	return DestinationProfileCreate
}
