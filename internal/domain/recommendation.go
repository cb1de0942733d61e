package domain

// RecommendationRequest is the profile sent to the scoring service.
type RecommendationRequest struct {
	UserID           string   `json:"user_id"`
	UserInterests    []string `json:"user_interests"`
	CompletedCourses []string `json:"completed_courses"`
	EnrolledCourses  []string `json:"enrolled_courses"`
}

type Recommendation struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description,omitempty"`
	Category         string   `json:"category,omitempty"`
	Difficulty       string   `json:"difficulty,omitempty"`
	AverageRating    float64  `json:"averageRating,omitempty"`
	EnrolledStudents int      `json:"enrolledStudents,omitempty"`
	SimilarityScore  float64  `json:"similarity_score,omitempty"`
	Reason           string   `json:"reason,omitempty"`
	Tags             []string `json:"tags,omitempty"`
}

const (
	SourceService  = "service"
	SourceFallback = "fallback"
)

type Recommendations struct {
	UserID          string           `json:"user_id"`
	Recommendations []Recommendation `json:"recommendations"`
	Source          string           `json:"source"`
}
