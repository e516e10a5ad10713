// Package markup turns forum post markup into plain text.
// It strips tags, decodes entities and leaves the text and its whitespace
// untouched, so the model sees the question as the student wrote it.
package markup
