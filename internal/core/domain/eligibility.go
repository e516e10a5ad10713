package domain

// IsEligible decides whether the bot should draft an answer for a fetched post.
//
// Rules are evaluated in order and the first failing rule returns false:
//  1. the post is a question
//  2. no instructor answer exists
//  3. the post is not tagged instructor-note
//
// The dedup ledger is checked separately by the caller so this stays pure.
func IsEligible(post *Post) bool {
	if post == nil {
		return false
	}
	if post.Type != PostTypeQuestion {
		return false
	}
	if _, answered := post.FirstChild(ChildInstructorAnswer); answered {
		return false
	}
	if post.HasTag(TagInstructorNote) {
		return false
	}
	return true
}
