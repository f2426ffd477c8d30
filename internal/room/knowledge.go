package room

import (
	"strings"

	"github.com/google/uuid"
	"github.com/nkern/swarmhub/internal/store"
)

// AddKnowledge appends one entry to the room's knowledge base and trims
// it back to KnowledgeMax entries, oldest first.
func (r *Room) AddKnowledge(agent, category, title, description, solution string) (KnowledgeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ts := r.clock.next()
	entry := KnowledgeEntry{
		ID:          uuid.NewString(),
		Agent:       agent,
		Category:    category,
		Title:       title,
		Description: description,
		Solution:    solution,
		CreatedAt:   ts,
	}
	if err := store.Put(r.st, keyKnowledge(r.project, entry.ID), entry); err != nil {
		return KnowledgeEntry{}, err
	}
	r.trimKnowledge()
	if _, err := r.appendEvent(ts, "knowledge_added", entry); err != nil {
		return KnowledgeEntry{}, err
	}
	r.broadcast(Frame("knowledge_added", ts, map[string]any{"id": entry.ID, "agent": agent, "title": title}))
	return entry, nil
}

func (r *Room) trimKnowledge() {
	max := r.cfg.KnowledgeMax
	if max <= 0 {
		return
	}
	entries, err := store.List[KnowledgeEntry](r.st, keyKnowledgePrefix(r.project))
	if err != nil || len(entries) <= max {
		return
	}
	// CreatedAt ordering isn't encoded in the key (unlike events), so
	// sort the small in-memory slice before trimming the oldest.
	for i := 1; i < len(entries); i++ {
		for j := i; j > 0 && entries[j].Value.CreatedAt < entries[j-1].Value.CreatedAt; j-- {
			entries[j], entries[j-1] = entries[j-1], entries[j]
		}
	}
	excess := len(entries) - max
	for _, e := range entries[:excess] {
		_ = r.st.Delete(e.Key)
	}
}

// SearchKnowledge returns every entry whose title, description, category,
// or solution contains query, case-insensitively. An empty query returns
// the whole base.
func (r *Room) SearchKnowledge(query string) ([]KnowledgeEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := store.List[KnowledgeEntry](r.st, keyKnowledgePrefix(r.project))
	if err != nil {
		return nil, err
	}
	q := strings.ToLower(query)
	out := make([]KnowledgeEntry, 0, len(entries))
	for _, e := range entries {
		v := e.Value
		if q == "" || containsFold(v.Title, q) || containsFold(v.Description, q) ||
			containsFold(v.Category, q) || containsFold(v.Solution, q) {
			out = append(out, v)
		}
	}
	return out, nil
}

func containsFold(s, q string) bool {
	return strings.Contains(strings.ToLower(s), q)
}
