package recommend

import "learnplatform/internal/domain"

var fallbackCourses = []domain.Recommendation{
	{
		ID:               "1",
		Title:            "Python Programming Fundamentals",
		Description:      "Learn Python from scratch with hands-on projects",
		Category:         "programming",
		Difficulty:       "beginner",
		AverageRating:    4.5,
		EnrolledStudents: 1500,
		SimilarityScore:  0.95,
		Reason:           "Matches your interest in programming",
	},
	{
		ID:               "2",
		Title:            "Machine Learning Basics",
		Description:      "Introduction to machine learning concepts and algorithms",
		Category:         "programming",
		Difficulty:       "intermediate",
		AverageRating:    4.7,
		EnrolledStudents: 890,
		SimilarityScore:  0.88,
		Reason:           "Based on your learning history",
	},
	{
		ID:               "3",
		Title:            "Web Development Bootcamp",
		Description:      "Full-stack web development with modern technologies",
		Category:         "programming",
		Difficulty:       "beginner",
		AverageRating:    4.6,
		EnrolledStudents: 2300,
		SimilarityScore:  0.82,
		Reason:           "Popular among students with similar interests",
	},
}

// Fallback is the fixed list served when the scoring service cannot answer.
func Fallback(userID string) domain.Recommendations {
	recs := make([]domain.Recommendation, len(fallbackCourses))
	copy(recs, fallbackCourses)
	return domain.Recommendations{
		UserID:          userID,
		Recommendations: recs,
		Source:          domain.SourceFallback,
	}
}
