package database

const (
	SortByID    = "id"
	SortByName  = "name"
	SortByAge   = "age"
	SortByEmail = "email"
	SortBySex   = "sex"

	// accepted as a synonym of SortBySex, the list view links use it
	sortBySexName = "sex.name"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

const (
	DefaultSortBy = SortByName
	DefaultOrder  = OrderAsc
)

// IsValidSortColumn checks if a string names a sortable person column
func IsValidSortColumn(column string) bool {
	switch column {
	case SortByID, SortByName, SortByAge, SortByEmail, SortBySex, sortBySexName:
		return true
	default:
		return false
	}
}

// IsValidSortOrder checks if a string is a valid sort direction
func IsValidSortOrder(order string) bool {
	return order == OrderAsc || order == OrderDesc
}

// NormalizeSort maps user supplied sort parameters onto the whitelist,
// falling back to the defaults for anything unknown.
func NormalizeSort(column, order string) (string, string) {
	if !IsValidSortColumn(column) {
		column = DefaultSortBy
	}
	if column == sortBySexName {
		column = SortBySex
	}
	if !IsValidSortOrder(order) {
		order = DefaultOrder
	}
	return column, order
}
