package markup

import (
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// NoSubject is used when a question was posted with a blank title.
const NoSubject = "(no subject)"

// StripMarkup returns the text content of s with all tags removed and
// entities decoded. Whitespace between text nodes is preserved as-is.
// Content of script and style elements is dropped.
//
// Empty input yields empty output. Input that cannot be tokenised is
// returned unchanged so the caller never loses the question.
func StripMarkup(s string) string {
	if s == "" {
		return ""
	}
	if !utf8.ValidString(s) {
		return s
	}

	var b strings.Builder
	b.Grow(len(s))

	z := html.NewTokenizer(strings.NewReader(s))
	skip := 0
	for {
		switch z.Next() {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return b.String()
			}
			return s

		case html.TextToken:
			if skip == 0 {
				b.Write(z.Text())
			}

		case html.StartTagToken:
			if a := tagAtom(z); a == atom.Script || a == atom.Style {
				skip++
			}

		case html.EndTagToken:
			if a := tagAtom(z); (a == atom.Script || a == atom.Style) && skip > 0 {
				skip--
			}
		}
	}
}

func tagAtom(z *html.Tokenizer) atom.Atom {
	name, _ := z.TagName()
	return atom.Lookup(name)
}

// ExtractQuestion returns the subject and plain-text body of the original
// question (the first history entry). ok is false when the post has no
// history or the body is empty once stripped and trimmed.
func ExtractQuestion(post *domain.Post) (subject, text string, ok bool) {
	if post == nil || len(post.History) == 0 {
		return "", "", false
	}

	first := post.History[0]
	text = strings.TrimSpace(StripMarkup(first.Content))
	if text == "" {
		return "", "", false
	}

	subject = strings.TrimSpace(StripMarkup(first.Subject))
	if subject == "" {
		subject = NoSubject
	}
	return subject, text, true
}

// ExtractQAPair formats an answered question for the history collection:
//
//	Q: <subject>
//	<question>
//
//	A: <answer>
//
// The instructor answer is preferred over the student answer. ok is false
// when the question is empty or neither answer has text.
func ExtractQAPair(post *domain.Post) (string, bool) {
	subject, question, ok := ExtractQuestion(post)
	if !ok {
		return "", false
	}

	answer := ""
	for _, kind := range []domain.ChildType{domain.ChildInstructorAnswer, domain.ChildStudentAnswer} {
		if child, found := post.FirstChild(kind); found {
			answer = strings.TrimSpace(StripMarkup(child.Content))
			if answer != "" {
				break
			}
		}
	}
	if answer == "" {
		return "", false
	}

	return "Q: " + subject + "\n" + question + "\n\nA: " + answer, true
}
