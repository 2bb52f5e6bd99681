package util

import (
	"math"
	"strconv"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)

type Page struct {
	Number int
	Offset int
	Limit  int
}

type PageMeta struct {
	Page       int   `json:"page"`
	Size       int   `json:"size"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasPrev    bool  `json:"has_prev"`
	HasNext    bool  `json:"has_next"`
}

func ParseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}

// NewPage clamps page to >= 1 and size to (0, MaxPageSize]. Page is capped so
// the offset never exceeds math.MaxInt32.
func NewPage(page, size int) Page {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > MaxPageSize {
		size = DefaultPageSize
	}
	if maxPage := math.MaxInt32/size + 1; page > maxPage {
		page = maxPage
	}
	return Page{Number: page, Offset: (page - 1) * size, Limit: size}
}

func (p Page) Meta(total int64) PageMeta {
	return PageMeta{
		Page:       p.Number,
		Size:       p.Limit,
		Total:      total,
		TotalPages: (total + int64(p.Limit) - 1) / int64(p.Limit),
		HasPrev:    p.Number > 1,
		HasNext:    int64(p.Offset+p.Limit) < total,
	}
}
