package workload

import (
	"sort"

	"github.com/visitbench/visitbench/visit"
)

// ConversationNode is one message in a conversation tree: a reply to
// ParentID (empty for the tree root), attributed to a role, with the
// wall-clock timestamp (seconds since epoch) it was originally posted.
type ConversationNode struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id,omitempty"` // empty for a root prompter turn
	Role      visit.Role `json:"role"`
	Text      string     `json:"text"`
	Timestamp float64    `json:"timestamp"`
}

// ConversationTreeNormalizer turns a forest of multi-turn conversation
// trees into a Workload: one visit per tree, in-visit requests chained
// via dep_id across assistant replies. Grounded on
// original_source/src/workload_datasets/oasst1.py's message-tree walk
// (get_prompter_id / parse_simreq / separate_req_in_one_visit).
type ConversationTreeNormalizer struct {
	nodes map[string]ConversationNode
}

// NewConversationTreeNormalizer builds a normalizer over the given nodes,
// keyed by ConversationNode.ID.
func NewConversationTreeNormalizer(nodes []ConversationNode) *ConversationTreeNormalizer {
	byID := make(map[string]ConversationNode, len(nodes))
	for _, n := range nodes {
		byID[n.ID] = n
	}
	return &ConversationTreeNormalizer{nodes: byID}
}

// Dialogs returns every prompter (user) turn's text.
func (c *ConversationTreeNormalizer) Dialogs() []string {
	out := make([]string, 0, len(c.nodes))
	for _, n := range c.nodes {
		if n.Role == visit.RoleUser {
			out = append(out, n.Text)
		}
	}
	return out
}

// nearestPrompterID walks up the tree from id to find the nearest
// ancestor (or self) that is a user turn, mirroring get_prompter_id.
func (c *ConversationTreeNormalizer) nearestPrompterID(id string) string {
	for id != "" {
		n, ok := c.nodes[id]
		if !ok {
			return ""
		}
		if n.Role == visit.RoleUser {
			return n.ID
		}
		id = n.ParentID
	}
	return ""
}

// messagesTo builds the full dialog leading to and including id, walking
// from the root down. Every assistant turn's content is replaced with a
// dep_id reference to the nearest user turn above it, unless separate is
// set, in which case assistant text is kept literally.
func (c *ConversationTreeNormalizer) messagesTo(id string, separate bool) []visit.Message {
	if id == "" {
		return nil
	}
	n, ok := c.nodes[id]
	if !ok {
		return nil
	}
	parent := c.messagesTo(n.ParentID, separate)
	msg := visit.Message{Role: n.Role}
	if n.Role == visit.RoleUser || separate {
		msg.Content = n.Text
	} else {
		msg.DepID = c.nearestPrompterID(n.ParentID)
	}
	return append(parent, msg)
}

// ToWorkload implements Normalizer.
func (c *ConversationTreeNormalizer) ToWorkload(opts ToWorkloadOptions) (visit.Workload, error) {
	if opts.CacheDir != "" {
		var cached visit.Workload
		args := map[string]any{"separate": opts.SeparateReqInOneVisit, "opts": opts}
		if ok, err := cacheGet(opts.CacheDir, "conversation_tree", "to_workload", args, &cached); err == nil && ok {
			return cached, nil
		}
	}

	var w visit.Workload
	if opts.SeparateReqInOneVisit {
		w = c.toWorkloadSeparate(opts)
	} else {
		w = c.toWorkloadByTree()
	}
	w = finalize(w, opts)

	if opts.CacheDir != "" {
		args := map[string]any{"separate": opts.SeparateReqInOneVisit, "opts": opts}
		_ = cachePut(opts.CacheDir, "conversation_tree", "to_workload", args, w)
	}
	return w, nil
}

func (c *ConversationTreeNormalizer) toWorkloadByTree() visit.Workload {
	trees := make(map[string][]ConversationNode) // root id -> nodes
	rootOf := make(map[string]string)

	var findRoot func(id string) string
	findRoot = func(id string) string {
		if r, ok := rootOf[id]; ok {
			return r
		}
		n, ok := c.nodes[id]
		if !ok || n.ParentID == "" {
			rootOf[id] = id
			return id
		}
		r := findRoot(n.ParentID)
		rootOf[id] = r
		return r
	}

	for id := range c.nodes {
		r := findRoot(id)
		trees[r] = append(trees[r], c.nodes[id])
	}

	roots := make([]string, 0, len(trees))
	for r := range trees {
		roots = append(roots, r)
	}
	sort.Strings(roots)

	var w visit.Workload
	for _, r := range roots {
		group := trees[r]
		rootNode, ok := c.nodes[r]
		if !ok {
			continue
		}
		startTime := rootNode.Timestamp

		var entries visit.Visit
		var userTurns []ConversationNode
		for _, n := range group {
			if n.Role == visit.RoleUser {
				userTurns = append(userTurns, n)
			}
		}
		sort.Slice(userTurns, func(i, j int) bool { return userTurns[i].Timestamp < userTurns[j].Timestamp })

		for _, n := range userTurns {
			offset := n.Timestamp - startTime
			entries = append(entries, visit.VisitEntry{
				Offset: floatPtr(offset),
				Req: visit.SimReq{
					ID:              n.ID,
					DepID:           c.nearestPrompterID(n.ParentID),
					MessagesWithDep: c.messagesTo(n.ID, false),
					Stream:          true,
					Params:          visit.GenParams{N: 1},
				},
			})
		}
		if len(entries) == 0 {
			continue
		}
		w = append(w, visit.WorkloadEntry{StartOffset: startTime, V: entries})
	}
	return w
}

func (c *ConversationTreeNormalizer) toWorkloadSeparate(opts ToWorkloadOptions) visit.Workload {
	var userTurns []ConversationNode
	for _, n := range c.nodes {
		if n.Role == visit.RoleUser {
			userTurns = append(userTurns, n)
		}
	}
	sort.Slice(userTurns, func(i, j int) bool { return userTurns[i].Timestamp < userTurns[j].Timestamp })

	var w visit.Workload
	for i, n := range userTurns {
		start := n.Timestamp
		if opts.SeparateInterval > 0 {
			start = float64(i) * opts.SeparateInterval
		}
		w = append(w, visit.WorkloadEntry{
			StartOffset: start,
			V: visit.Visit{{
				Offset: nil,
				Req: visit.SimReq{
					ID:              n.ID,
					MessagesWithDep: c.messagesTo(n.ID, true),
					Stream:          true,
					Params:          visit.GenParams{N: 1},
				},
			}},
		})
	}
	return w
}

func floatPtr(f float64) *float64 { return &f }
