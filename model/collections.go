package model

// Collection names double as table names and realtime channel keys
const (
	CollectionUsers        = "users"
	CollectionInternships  = "internships"
	CollectionApplications = "applications"
	CollectionLogbooks     = "logbooks"
	CollectionCertificates = "certificates"
	CollectionPlans        = "plans"
	CollectionCourses      = "courses"
	CollectionRatings      = "ratings"
)

func (LogbookEntry) TableName() string { return CollectionLogbooks }

// AllModels lists every model for AutoMigrate
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Internship{},
		&Application{},
		&LogbookEntry{},
		&Certificate{},
		&Plan{},
		&Course{},
		&Rating{},
		&CronJobLog{},
		&RevokedToken{},
	}
}
