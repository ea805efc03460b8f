package model

/*

UserProfile is the record stored at /users/{uid}.

FirstName, LastName: set at registration, shown on the profile screen
ProfilePicture: URI of the user's avatar image
CurrentTheme: persisted display theme, "light" or "dark"

The uid itself is owned by the auth backend and is the node key, not a field.

*/

type UserProfile struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	ProfilePicture string `json:"profile_picture"`
	CurrentTheme   Theme  `json:"current_theme"`
}

func (u UserProfile) DisplayName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
