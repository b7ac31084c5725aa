package database

import (
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ListParams is a validated page/sort request. Build it with NewListParams.
type ListParams struct {
	Page     int
	PageSize int
	Sort     string // API field name, already checked against the whitelist
	Desc     bool
}

// SortColumns maps API sort fields to column identifiers. Only listed fields sort.
type SortColumns map[string]string

// NewListParams clamps paging and drops any sort field not in allowed.
func NewListParams(page, pageSize int, sort, order string, allowed SortColumns, defaultSort string) ListParams {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	sort = strings.TrimSpace(strings.ToLower(sort))
	if _, ok := allowed[sort]; !ok {
		sort = defaultSort
	}
	return ListParams{
		Page:     page,
		PageSize: pageSize,
		Sort:     sort,
		Desc:     !strings.EqualFold(strings.TrimSpace(order), "asc"),
	}
}

func (p ListParams) Offset() int { return (p.Page - 1) * p.PageSize }

// Apply adds ORDER BY / LIMIT / OFFSET. The column is taken from allowed and
// quoted by gorm as an identifier; values are never interpolated.
func (p ListParams) Apply(allowed SortColumns) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if col, ok := allowed[p.Sort]; ok {
			db = db.Order(clause.OrderByColumn{Column: clause.Column{Name: col}, Desc: p.Desc})
		}
		return db.Limit(p.PageSize).Offset(p.Offset())
	}
}
