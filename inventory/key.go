package inventory

// =============================================================================
// VARIANT KEY - Aggregate identity
// =============================================================================

// VariantKey identifies an aggregate stocking bucket. Two records belong to
// the same variant iff every field is byte-for-byte equal. There is no fuzzy
// matching: a different price or accessory set is a different bucket.
//
// VariantKey is comparable and can be used as a map key.
type VariantKey struct {
	Brand     string
	Model     string
	Box       bool
	Charger   bool
	SellPrice string
}

// KeyOf extracts the variant key of a record.
func KeyOf(r Record) VariantKey {
	return VariantKey{
		Brand:     r.Brand,
		Model:     r.Model,
		Box:       r.Box,
		Charger:   r.Charger,
		SellPrice: r.SellPrice,
	}
}

// Match reports whether two records belong to the same variant.
func Match(a, b Record) bool {
	return KeyOf(a) == KeyOf(b)
}

// Matches reports whether r belongs to this variant.
func (k VariantKey) Matches(r Record) bool {
	return KeyOf(r) == k
}

func (k VariantKey) String() string {
	return k.Brand + " " + k.Model + " box=" + FormatBool(k.Box) + " charger=" + FormatBool(k.Charger) + " @" + k.SellPrice
}
