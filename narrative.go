package main

import (
	"encoding/json"
	"fmt"
	"strings"
)

// NarrativeTypeInteractive is the one narrative type whose payload is a node
// graph rather than plain text.
const NarrativeTypeInteractive = "interactive"

// Narrative is a generated narrative of any type. Content holds the plain
// text of linear types; Interactive is set for the interactive type.
type Narrative struct {
	Type        string
	Complexity  string
	Content     string
	Interactive *InteractiveNarrative
}

type NarrativeChoice struct {
	Text     string `json:"text"`
	NextNode string `json:"nextNode"`
}

type NarrativeNode struct {
	ID       string            `json:"id"`
	Content  string            `json:"content"`
	IsEnding bool              `json:"isEnding"`
	Choices  []NarrativeChoice `json:"choices"`
}

type InteractiveNarrative struct {
	Nodes       []NarrativeNode `json:"nodes"`
	StartNodeID string          `json:"startNodeId"`
}

// DecodeNarrative interprets the narrative payload by type. Interactive
// graphs are validated up front: a dangling nextNode or a missing start node
// fails the whole narrative instead of stranding the reader mid-story.
func DecodeNarrative(raw json.RawMessage, narrativeType, complexity string) (*Narrative, error) {
	n := &Narrative{Type: narrativeType, Complexity: complexity}

	if narrativeType != NarrativeTypeInteractive {
		var content string
		if err := json.Unmarshal(raw, &content); err != nil {
			return nil, &DataError{Msg: fmt.Sprintf("malformed narrative payload: %v", err)}
		}
		if strings.TrimSpace(content) == "" {
			return nil, &DataError{Msg: "narrative is empty"}
		}
		n.Content = content
		return n, nil
	}

	var graph InteractiveNarrative
	if err := json.Unmarshal(raw, &graph); err != nil {
		return nil, &DataError{Msg: fmt.Sprintf("malformed interactive narrative: %v", err)}
	}
	if err := validateInteractive(&graph); err != nil {
		return nil, err
	}
	n.Interactive = &graph
	return n, nil
}

func validateInteractive(g *InteractiveNarrative) error {
	if len(g.Nodes) == 0 {
		return &DataError{Msg: "interactive narrative has no nodes"}
	}
	ids := make(map[string]bool, len(g.Nodes))
	for _, node := range g.Nodes {
		if node.ID == "" {
			return &DataError{Msg: "interactive narrative node has no id"}
		}
		if ids[node.ID] {
			return &DataError{Msg: fmt.Sprintf("duplicate narrative node id %q", node.ID)}
		}
		ids[node.ID] = true
	}
	if !ids[g.StartNodeID] {
		return &DataError{Msg: fmt.Sprintf("start node %q does not exist", g.StartNodeID)}
	}
	for _, node := range g.Nodes {
		for _, choice := range node.Choices {
			if !ids[choice.NextNode] {
				return &DataError{Msg: fmt.Sprintf("node %q choice references unknown node %q", node.ID, choice.NextNode)}
			}
		}
	}
	return nil
}

// Pages splits a linear narrative into screen-sized chunks on blank lines.
func (n *Narrative) Pages() []string {
	if n.Content == "" {
		return nil
	}
	var pages []string
	for _, p := range strings.Split(n.Content, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			pages = append(pages, p)
		}
	}
	return pages
}

// NarrativeReader walks an interactive narrative one choice at a time,
// remembering the path taken for the reflection step.
type NarrativeReader struct {
	graph   *InteractiveNarrative
	nodes   map[string]*NarrativeNode
	current string
	visited []string
	chosen  []string
}

func NewNarrativeReader(g *InteractiveNarrative) *NarrativeReader {
	nodes := make(map[string]*NarrativeNode, len(g.Nodes))
	for i := range g.Nodes {
		nodes[g.Nodes[i].ID] = &g.Nodes[i]
	}
	return &NarrativeReader{
		graph:   g,
		nodes:   nodes,
		current: g.StartNodeID,
		visited: []string{g.StartNodeID},
	}
}

func (r *NarrativeReader) Current() *NarrativeNode { return r.nodes[r.current] }

// AtEnd reports whether the story is over: an ending node, or a node with
// nowhere left to go.
func (r *NarrativeReader) AtEnd() bool {
	cur := r.Current()
	return cur == nil || cur.IsEnding || len(cur.Choices) == 0
}

// Choose follows choice i from the current node.
func (r *NarrativeReader) Choose(i int) error {
	cur := r.Current()
	if cur == nil {
		return fmt.Errorf("no current node")
	}
	if i < 0 || i >= len(cur.Choices) {
		return fmt.Errorf("choice %d out of range", i)
	}
	choice := cur.Choices[i]
	r.chosen = append(r.chosen, choice.Text)
	r.current = choice.NextNode
	r.visited = append(r.visited, r.current)
	return nil
}

// Restart returns to the start node, discarding the path.
func (r *NarrativeReader) Restart() {
	r.current = r.graph.StartNodeID
	r.visited = []string{r.current}
	r.chosen = nil
}

// Path returns the visited node ids in order.
func (r *NarrativeReader) Path() []string {
	return append([]string(nil), r.visited...)
}

// Transcript renders the path taken as plain text: each visited passage
// followed by the decision made there. Used as narrative_content for the
// feedback call and as the chat digest.
func (r *NarrativeReader) Transcript() string {
	var b strings.Builder
	for i, id := range r.visited {
		node := r.nodes[id]
		if node == nil {
			continue
		}
		b.WriteString(node.Content)
		b.WriteString("\n")
		if i < len(r.chosen) {
			b.WriteString("> ")
			b.WriteString(r.chosen[i])
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
