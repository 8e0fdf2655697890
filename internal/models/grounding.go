package models

import (
	"bytes"
	"encoding/json"
	"net/url"
)

// GroundingMetadata carries the citations attached to an assistant reply.
type GroundingMetadata struct {
	GroundingChunks []GroundingChunk `json:"groundingChunks,omitempty"`
}

// ChunkKind names the populated side of a GroundingChunk.
type ChunkKind string

const (
	ChunkWeb     ChunkKind = "web"
	ChunkMaps    ChunkKind = "maps"
	ChunkInvalid ChunkKind = ""
)

// GroundingChunk is a tagged union: exactly one of Web or Maps is set.
type GroundingChunk struct {
	Web  *WebSource  `json:"web,omitempty"`
	Maps *MapsSource `json:"maps,omitempty"`
}

// WebSource is a web-search citation.
type WebSource struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

// MapsSource is a place citation returned by map grounding.
type MapsSource struct {
	URI                string             `json:"uri"`
	Title              string             `json:"title"`
	PlaceAnswerSources PlaceAnswerSources `json:"placeAnswerSources,omitempty"`
}

// PlaceAnswerSource groups review snippets backing a place answer.
type PlaceAnswerSource struct {
	ReviewSnippets []ReviewSnippet `json:"reviewSnippets,omitempty"`
}

// ReviewSnippet is a short quoted review.
type ReviewSnippet struct {
	Content string `json:"content"`
}

// PlaceAnswerSources decodes either a single object or a list of objects.
// The upstream API has shipped both shapes.
type PlaceAnswerSources []PlaceAnswerSource

func (p *PlaceAnswerSources) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = nil
		return nil
	}
	if data[0] == '[' {
		var list []PlaceAnswerSource
		if err := json.Unmarshal(data, &list); err != nil {
			return err
		}
		*p = list
		return nil
	}
	var one PlaceAnswerSource
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	*p = PlaceAnswerSources{one}
	return nil
}

// Kind reports which side of the union is populated, or ChunkInvalid when
// neither or both are.
func (c GroundingChunk) Kind() ChunkKind {
	switch {
	case c.Web != nil && c.Maps == nil:
		return ChunkWeb
	case c.Maps != nil && c.Web == nil:
		return ChunkMaps
	default:
		return ChunkInvalid
	}
}

// Valid reports whether exactly one side is populated.
func (c GroundingChunk) Valid() bool { return c.Kind() != ChunkInvalid }

func (c GroundingChunk) Title() string {
	switch c.Kind() {
	case ChunkWeb:
		return c.Web.Title
	case ChunkMaps:
		return c.Maps.Title
	}
	return ""
}

func (c GroundingChunk) URI() string {
	switch c.Kind() {
	case ChunkWeb:
		return c.Web.URI
	case ChunkMaps:
		return c.Maps.URI
	}
	return ""
}

// Host returns the hostname of the citation URI, shown under web results.
func (c GroundingChunk) Host() string {
	u, err := url.Parse(c.URI())
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// FirstReviewSnippet returns the first review quote of a maps citation.
func (c GroundingChunk) FirstReviewSnippet() (string, bool) {
	if c.Kind() != ChunkMaps {
		return "", false
	}
	// only the first source is rendered
	if len(c.Maps.PlaceAnswerSources) == 0 || len(c.Maps.PlaceAnswerSources[0].ReviewSnippets) == 0 {
		return "", false
	}
	return c.Maps.PlaceAnswerSources[0].ReviewSnippets[0].Content, true
}

// Sanitized returns a copy with malformed chunks dropped, or nil when no
// valid chunk remains.
func (g *GroundingMetadata) Sanitized() *GroundingMetadata {
	if g == nil {
		return nil
	}
	chunks := make([]GroundingChunk, 0, len(g.GroundingChunks))
	for _, c := range g.GroundingChunks {
		if c.Valid() {
			chunks = append(chunks, c)
		}
	}
	if len(chunks) == 0 {
		return nil
	}
	return &GroundingMetadata{GroundingChunks: chunks}
}

// HasKind reports whether any chunk is of the given kind.
func (g *GroundingMetadata) HasKind(kind ChunkKind) bool {
	if g == nil {
		return false
	}
	for _, c := range g.GroundingChunks {
		if c.Kind() == kind {
			return true
		}
	}
	return false
}
