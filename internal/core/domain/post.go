package domain

// PostType identifies the kind of forum thread.
type PostType string

// Known post types.
const (
	// PostTypeQuestion is a student question, the only type the bot answers.
	PostTypeQuestion PostType = "question"

	// PostTypeNote is an announcement or informational note.
	PostTypeNote PostType = "note"

	// PostTypePoll is a poll thread.
	PostTypePoll PostType = "poll"
)

// ChildType identifies a reply attached to a post.
type ChildType string

// Known child types. The platform may send others; they are kept verbatim.
const (
	// ChildInstructorAnswer is the single staff-authored answer of a question.
	ChildInstructorAnswer ChildType = "i_answer"

	// ChildStudentAnswer is the collaborative student answer of a question.
	ChildStudentAnswer ChildType = "s_answer"

	// ChildFollowup is a follow-up discussion thread.
	ChildFollowup ChildType = "followup"

	// ChildFeedback is a reply inside a follow-up.
	ChildFeedback ChildType = "feedback"
)

// TagInstructorNote marks posts written for staff that the bot must never answer.
const TagInstructorNote = "instructor-note"

// FeedItem is the lightweight entry returned by feed listings.
type FeedItem struct {
	// ID is the platform identifier of the post.
	ID string

	// Number is the human-facing post number (@123).
	Number int
}

// Post is a forum thread as fetched from the platform.
// It is immutable within a poll cycle; the platform may change it between cycles.
type Post struct {
	// ID is the platform identifier and the identity of the post.
	ID string

	// Number is the display number. Not guaranteed dense or stable.
	Number int

	// Type is the thread type.
	Type PostType

	// Tags are the folder/tag labels attached to the post.
	Tags []string

	// History holds the revisions of the question; History[0] is the original text.
	History []PostVersion

	// Children holds answers and follow-ups in platform order.
	Children []PostChild
}

// PostVersion is a single revision of the question body.
type PostVersion struct {
	// Subject is the thread title.
	Subject string

	// Content is the body as platform markup.
	Content string
}

// PostChild is an answer or follow-up attached to a post.
type PostChild struct {
	// Type is the child kind.
	Type ChildType

	// Content is the body as platform markup.
	Content string
}

// HasTag reports whether the post carries the given tag.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// FirstChild returns the first child of the given type.
func (p *Post) FirstChild(kind ChildType) (PostChild, bool) {
	for _, c := range p.Children {
		if c.Type == kind {
			return c, true
		}
	}
	return PostChild{}, false
}
