package domain

import "strings"

// Document is a reference document in the knowledge base. Immutable once loaded.
type Document struct {
	ID       string   `json:"id" yaml:"id"`
	Content  string   `json:"content" yaml:"content"`
	Category string   `json:"category" yaml:"category"`
	Tags     []string `json:"tags" yaml:"tags"`
}

// HasTag reports whether the document carries the given tag.
func (d Document) HasTag(tag string) bool {
	for _, t := range d.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// Clone returns a copy that shares no slices with d.
func (d Document) Clone() Document {
	d.Tags = append([]string(nil), d.Tags...)
	return d
}

// titleWeight is how many times the category is repeated at the head of
// IndexText, so a document's own topic outweighs passing mentions elsewhere.
const titleWeight = 3

// IndexText is the text embedded for retrieval: the category as a weighted
// title line, the tags, then the content.
func (d Document) IndexText() string {
	lines := make([]string, 0, titleWeight+2)
	for range titleWeight {
		lines = append(lines, d.Category)
	}
	lines = append(lines, strings.Join(d.Tags, " "), d.Content)
	return strings.Join(lines, "\n")
}
