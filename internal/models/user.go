package models

// UserRole is the routing tag stored on a user profile.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
)

// Profile display fallbacks.
const (
	DefaultDisplayName   = "User"
	DefaultLocation      = "Unknown Location"
	DefaultAvatarURL     = "/default-profile.png"
	DefaultTeacherHeader = "Teacher"
)

var landingRoutes = map[UserRole]string{
	RoleStudent: "/dashboard/student",
	RoleTeacher: "/dashboard/teacher",
	RoleAdmin:   "/dashboard/admin",
}

// LandingRoute returns the dashboard owned by role.
func LandingRoute(role UserRole) (string, bool) {
	route, ok := landingRoutes[role]
	return route, ok
}

// Roles lists every role that owns a dashboard.
func Roles() []UserRole {
	return []UserRole{RoleStudent, RoleTeacher, RoleAdmin}
}

// UserProfile is the document stored under users/{uid}.
type UserProfile struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Email     string   `json:"email,omitempty"`
	Location  string   `json:"location,omitempty"`
	AvatarURL string   `json:"avatarUrl,omitempty"`
	Role      UserRole `json:"role"`
}

// DisplayName returns the profile name or fallback when it is blank.
func (p UserProfile) DisplayName(fallback string) string {
	if p.Name == "" {
		return fallback
	}
	return p.Name
}

// DisplayLocation returns the location or the default placeholder.
func (p UserProfile) DisplayLocation() string {
	if p.Location == "" {
		return DefaultLocation
	}
	return p.Location
}

// DisplayAvatar returns the avatar URL or the default image.
func (p UserProfile) DisplayAvatar() string {
	if p.AvatarURL == "" {
		return DefaultAvatarURL
	}
	return p.AvatarURL
}
