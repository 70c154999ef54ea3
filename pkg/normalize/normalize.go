// Package normalize extracts product records from heterogeneous storefront
// JSON payloads. The payload schema is not a contract: the listing array and
// every logical field are located through ordered alias lists, so schema
// drift degrades to skipped fields or an empty page instead of a failure.
package normalize

import (
	"encoding/json"
	"strconv"
	"strings"
)

// containerPaths are the known locations of the product array inside a
// response object, tried in order. A dot separates nested object keys.
var containerPaths = []string{
	"products",
	"data.products",
	"data.items",
	"data.list",
	"result.goodsList",
	"result.products",
	"goodsList",
	"items",
	"list",
	"rows",
}

// Field alias lists, tried in order per logical field. First match wins.
// Dot paths reach into nested objects (GS Shop nests the sell price under
// a "price" object).
var (
	idAliases       = []string{"goodsNo", "goodsId", "itemId", "productId", "prdNo", "id"}
	nameAliases     = []string{"goodsNm", "name", "itemNm", "prdNm", "goodsName", "title"}
	priceAliases    = []string{"price.sellPrice", "sellPrice", "salePrice", "finalPrice", "price", "prc"}
	discountAliases = []string{"price.dcRate", "dcRate", "discountRate", "saleRate"}
	urlAliases      = []string{"detailUrl", "goodsDetailUrl", "url", "link", "linkUrl"}
	imageAliases    = []string{"imgUrl", "imageUrl", "listImgUrl", "thumbnail", "thumbUrl"}
)

// Result is the outcome of normalizing one page body.
//
// Empty reports that the page appeared to contain no data at all: the body
// was not JSON, no known container path matched, or the container held zero
// entries. It is distinct from Skipped, which counts entries that were
// present but lacked a resolvable identifier.
type Result struct {
	Products []Product
	Skipped  int
	Empty    bool
}

// Extract locates the product array in a raw page body and converts each
// entry to a Product. Entries without a resolvable identifier are skipped.
func Extract(body []byte) Result {
	var payload any
	if err := json.Unmarshal(body, &payload); err != nil {
		return Result{Empty: true}
	}

	entries := findContainer(payload)
	if len(entries) == 0 {
		return Result{Empty: true}
	}

	result := Result{Products: make([]Product, 0, len(entries))}
	for _, raw := range entries {
		entry, ok := raw.(map[string]any)
		if !ok {
			result.Skipped++
			continue
		}

		product, ok := fromEntry(entry)
		if !ok {
			result.Skipped++
			continue
		}
		result.Products = append(result.Products, product)
	}

	return result
}

// findContainer returns the first product array reachable from the payload.
// A top-level array is accepted as-is.
func findContainer(payload any) []any {
	if entries, ok := payload.([]any); ok {
		return entries
	}

	obj, ok := payload.(map[string]any)
	if !ok {
		return nil
	}

	for _, path := range containerPaths {
		if entries, ok := lookup(obj, path).([]any); ok && len(entries) > 0 {
			return entries
		}
	}
	return nil
}

// fromEntry builds a Product from one raw payload entry. The identifier is
// required; everything else is opportunistic.
func fromEntry(entry map[string]any) (Product, bool) {
	id := firstString(entry, idAliases)
	if id == "" {
		return Product{}, false
	}

	product := Product{
		ID:    id,
		Name:  firstString(entry, nameAliases),
		URL:   firstString(entry, urlAliases),
		Image: firstString(entry, imageAliases),
	}

	if price, ok := firstNumber(entry, priceAliases); ok {
		product.Price = price
	}
	if discount, ok := firstNumber(entry, discountAliases); ok {
		product.Discount = discount
	}

	return product, true
}

// lookup resolves a dot path against nested JSON objects.
func lookup(obj map[string]any, path string) any {
	keys := strings.Split(path, ".")
	var current any = obj
	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}
		current = m[key]
	}
	return current
}

// firstString returns the first alias that resolves to a non-empty scalar,
// stringified. Objects and arrays never match.
func firstString(entry map[string]any, aliases []string) string {
	for _, alias := range aliases {
		switch v := lookup(entry, alias).(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case json.Number:
			return v.String()
		}
	}
	return ""
}

// firstNumber returns the first alias that parses as a number. String values
// go through ParsePrice so currency-formatted prices resolve too.
func firstNumber(entry map[string]any, aliases []string) (int64, bool) {
	for _, alias := range aliases {
		switch v := lookup(entry, alias).(type) {
		case float64:
			return int64(v), true
		case string:
			if n, err := ParsePrice(v); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}
