package piazza

import (
	"encoding/json"

	"github.com/custodia-labs/tutorbot/internal/core/domain"
)

// rpcRequest is the JSON-RPC envelope sent to the logic API.
type rpcRequest struct {
	Method string         `json:"method"`
	Params map[string]any `json:"params"`
}

// rpcResponse is the JSON-RPC envelope returned by the logic API.
type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *string         `json:"error"`
	AID    string          `json:"aid"`
}

type feedResult struct {
	Feed []feedEntry `json:"feed"`
}

type feedEntry struct {
	ID string `json:"id"`
	Nr int    `json:"nr"`
}

type rawPost struct {
	ID       string       `json:"id"`
	Nr       int          `json:"nr"`
	Type     string       `json:"type"`
	Tags     []string     `json:"tags"`
	History  []rawVersion `json:"history"`
	Children []rawChild   `json:"children"`
}

type rawVersion struct {
	Subject string `json:"subject"`
	Content string `json:"content"`
}

// rawChild covers answers (text under history) and follow-ups (text under subject).
type rawChild struct {
	Type    string       `json:"type"`
	Subject string       `json:"subject"`
	History []rawVersion `json:"history"`
}

func (f feedResult) toDomain() []domain.FeedItem {
	items := make([]domain.FeedItem, 0, len(f.Feed))
	for _, e := range f.Feed {
		if e.ID == "" {
			continue
		}
		items = append(items, domain.FeedItem{ID: e.ID, Number: e.Nr})
	}
	return items
}

func (p rawPost) toDomain() *domain.Post {
	post := &domain.Post{
		ID:     p.ID,
		Number: p.Nr,
		Type:   domain.PostType(p.Type),
		Tags:   p.Tags,
	}
	for _, v := range p.History {
		post.History = append(post.History, domain.PostVersion{Subject: v.Subject, Content: v.Content})
	}
	for _, c := range p.Children {
		child := domain.PostChild{Type: domain.ChildType(c.Type), Content: c.Subject}
		if len(c.History) > 0 {
			child.Content = c.History[0].Content
		}
		post.Children = append(post.Children, child)
	}
	return post
}
