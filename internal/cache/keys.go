package cache

import "fmt"

// FilterOptionsKey is the single key of the filter category
const FilterOptionsKey = "wanted_filter_options"

// ListKey is the key of one page of the wanted list
func ListKey(page, pageSize int) string {
	return fmt.Sprintf("wanted_list_%d_%d", page, pageSize)
}

// SearchKey is the key of one page of search results
func SearchKey(query string, page, pageSize int) string {
	return fmt.Sprintf("wanted_search_%s_%d_%d", query, page, pageSize)
}

// PersonKey is the key of a single person record
func PersonKey(id string) string {
	return "wanted_person_" + id
}
