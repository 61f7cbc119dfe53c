package types

// Filter — общие параметры списковых запросов (фильтрация, сортировка,
// пагинация). Заполняется из query string в pkg/utils.
type Filter struct {
	Search         string
	Filter         map[string]interface{}
	Sort           map[string]string
	Limit          int
	Offset         int
	WithPagination bool
}
