package dataprocessing

// Engagement weights
const (
	LikeWeight    = 1.0
	CommentWeight = 2.0
	ShareWeight   = 3.0
)

// Engagement scores a post: likes + 2·comments + 3·shares, unrounded
func Engagement(likes, comments, shares float64) float64 {
	return LikeWeight*likes + CommentWeight*comments + ShareWeight*shares
}
