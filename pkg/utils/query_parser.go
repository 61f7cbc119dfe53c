package utils

import (
	"net/url"
	"strconv"
	"strings"

	"consult-system/pkg/types"
)

const (
	DefaultLimit = 50
	MaxLimit     = 500
)

// ParseFilterFromQuery собирает types.Filter из query string.
// Поддерживаются filter[поле]=значение, search, sort (-поле = desc),
// limit/offset.
func ParseFilterFromQuery(query url.Values) types.Filter {
	filter := types.Filter{
		Filter:         make(map[string]interface{}),
		Sort:           make(map[string]string),
		Limit:          DefaultLimit,
		Offset:         0,
		WithPagination: true,
	}

	for key, values := range query {
		if strings.HasPrefix(key, "filter[") && strings.HasSuffix(key, "]") && len(values) > 0 {
			filterKey := key[7 : len(key)-1]
			filter.Filter[filterKey] = values[0]
		}
	}

	if search := query.Get("search"); search != "" {
		filter.Search = search
	}

	if sort := query.Get("sort"); sort != "" {
		if strings.HasPrefix(sort, "-") {
			filter.Sort[sort[1:]] = "desc"
		} else {
			filter.Sort[sort] = "asc"
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			if l > MaxLimit {
				l = MaxLimit
			}
			filter.Limit = l
		}
	}
	if offsetStr := query.Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filter.Offset = o
		}
	}

	return filter
}
