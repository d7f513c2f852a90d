package repository

import (
	"strings"

	"github.com/just-nibble/srs-tracker/internal/http/dtos"
)

const (
	DEFAULTPAGE                  = 1
	DEFAULTLIMIT                 = 10
	MAXLIMIT                     = 100
	PageDefaultSortBy            = "created_at"
	PageDefaultSortDirectionDesc = "desc"
)

func getPaginationInfo(query dtos.APIPagingDto, sortable ...string) (dtos.APIPagingDto, int) {
	var offset int
	// load defaults
	if query.Page <= 0 {
		query.Page = DEFAULTPAGE
	}
	if query.Limit <= 0 {
		query.Limit = DEFAULTLIMIT
	}
	if query.Limit > MAXLIMIT {
		query.Limit = MAXLIMIT
	}

	// sort column is interpolated into SQL, so only known columns pass
	if !contains(sortable, query.Sort) {
		query.Sort = PageDefaultSortBy
		if len(sortable) > 0 {
			query.Sort = sortable[0]
		}
	}

	query.Direction = strings.ToLower(query.Direction)
	if query.Direction != "asc" && query.Direction != "desc" {
		query.Direction = PageDefaultSortDirectionDesc
	}

	if query.Page > 1 {
		offset = query.Limit * (query.Page - 1)
	}
	return query, offset
}

func getPagingInfo(query dtos.APIPagingDto, count int) dtos.PagingInfo {
	var hasNextPage bool

	next := int64((query.Page * query.Limit) - count)
	if next < 0 {
		hasNextPage = true
	}

	pagingInfo := dtos.PagingInfo{
		TotalCount:  int64(count),
		HasNextPage: hasNextPage,
		Page:        int(query.Page),
	}

	return pagingInfo
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
