package product

import "fmt"

// ItemCacheKey is the redis key of one cached product.
func ItemCacheKey(id string) string {
	return "products:item:" + id
}

// ListCachePattern matches every cached list page of a vendor.
func ListCachePattern(vendorID string) string {
	return fmt.Sprintf("products:list:%s:*", vendorID)
}
