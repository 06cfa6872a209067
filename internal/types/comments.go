package types

import (
	"iter"
	"slices"
	"strings"
)

// Comments is a parsed comment block: the vendor string plus an ordered
// list of key/value entries.
//
// Keys compare case-insensitively but are stored and written back with
// their original spelling. Duplicate keys are legal, and entry order is
// preserved from read through write.
type Comments struct {
	// Vendor identifies the encoder that produced the stream. It is
	// carried through edits untouched unless explicitly replaced.
	Vendor string

	list []comment
}

type comment struct {
	key   string
	value string
}

// NewComments returns an empty comment block with the given vendor string.
func NewComments(vendor string) *Comments {
	return &Comments{Vendor: vendor}
}

// Len returns the number of key/value entries.
func (c *Comments) Len() int {
	return len(c.list)
}

// All returns an iterator over the entries in stored order.
func (c *Comments) All() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for _, e := range c.list {
			if !yield(e.key, e.value) {
				return
			}
		}
	}
}

// Get returns all values for key in stored order, nil if absent.
func (c *Comments) Get(key string) []string {
	var values []string
	for _, e := range c.list {
		if strings.EqualFold(e.key, key) {
			values = append(values, e.value)
		}
	}
	return values
}

// GetFirst returns the first value for key, or "" if absent.
func (c *Comments) GetFirst(key string) string {
	for _, e := range c.list {
		if strings.EqualFold(e.key, key) {
			return e.value
		}
	}
	return ""
}

// Set replaces every existing value of key with the given values,
// appended at the end of the block.
func (c *Comments) Set(key string, values ...string) {
	c.Del(key)
	for _, v := range values {
		c.Add(key, v)
	}
}

// Add appends one key/value entry at the end of the block.
func (c *Comments) Add(key, value string) {
	c.list = append(c.list, comment{key: key, value: value})
}

// Del removes every entry for key and returns how many were removed.
func (c *Comments) Del(key string) int {
	kept := c.list[:0]
	removed := 0
	for _, e := range c.list {
		if strings.EqualFold(e.key, key) {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	c.list = kept
	return removed
}

// Clear removes all entries, keeping the vendor string.
func (c *Comments) Clear() {
	c.list = c.list[:0]
}

// Clone returns a deep copy.
func (c *Comments) Clone() *Comments {
	return &Comments{Vendor: c.Vendor, list: slices.Clone(c.list)}
}

// Equal reports whether both blocks hold the same vendor and the same
// entries in the same order. Keys compare case-insensitively, values
// exactly.
func (c *Comments) Equal(other *Comments) bool {
	if c == nil || other == nil {
		return c == other
	}
	if c.Vendor != other.Vendor || len(c.list) != len(other.list) {
		return false
	}
	for i, e := range c.list {
		o := other.list[i]
		if !strings.EqualFold(e.key, o.key) || e.value != o.value {
			return false
		}
	}
	return true
}
