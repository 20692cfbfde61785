package models

// Document collection names.
const (
	CollectionUsers       = "users"
	CollectionCourses     = "courses"
	CollectionProjects    = "projects"
	CollectionAssessments = "assessments"
	CollectionJobsApplied = "jobsApplied"
	CollectionCredentials = "credentials"
)

// Collections lists every collection the service persists.
func Collections() []string {
	return []string{
		CollectionUsers,
		CollectionCourses,
		CollectionProjects,
		CollectionAssessments,
		CollectionJobsApplied,
		CollectionCredentials,
	}
}

// Filter narrows a collection listing. Equals is pushed down to the store as an
// equality query; Match runs on decoded entities after the fetch.
type Filter[T any] struct {
	Equals map[string]interface{}
	Match  func(T) bool
}
