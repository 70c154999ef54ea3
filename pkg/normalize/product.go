package normalize

// Product is one unique listing record extracted from a storefront payload.
// Identifier is the dedup key and is always non-empty; the remaining fields
// are best-effort and may be zero when the source omits them.
type Product struct {
	ID       string
	Name     string
	Price    int64
	Discount int64
	URL      string
	Image    string
}
