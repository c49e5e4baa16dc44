package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidCategory = errors.New("model: category must be a single emoji")
	ErrCategoryIndex   = errors.New("model: category index out of range")
)

// CategoryCount is fixed; the set is renamed in place, never resized.
const CategoryCount = 4

type CategorySet [CategoryCount]string

var DefaultCategories = CategorySet{"📝", "💼", "🏠", "🏃🏻"}

// CategorySetFrom accepts a stored sequence only when it has exactly
// CategoryCount entries.
func CategorySetFrom(items []string) (CategorySet, bool) {
	if len(items) != CategoryCount {
		return CategorySet{}, false
	}
	var out CategorySet
	copy(out[:], items)
	return out, true
}

func (c CategorySet) Slice() []string {
	out := make([]string, CategoryCount)
	copy(out, c[:])
	return out
}

func (c CategorySet) Index(emoji string) int {
	for i, e := range c {
		if e == emoji {
			return i
		}
	}
	return -1
}

func (c CategorySet) Rename(index int, emoji string) (CategorySet, error) {
	if index < 0 || index >= CategoryCount {
		return c, fmt.Errorf("%w: %d", ErrCategoryIndex, index)
	}
	emoji = strings.TrimSpace(emoji)
	if !IsSingleEmoji(emoji) {
		return c, fmt.Errorf("%w: %q", ErrInvalidCategory, emoji)
	}
	c[index] = emoji
	return c, nil
}
