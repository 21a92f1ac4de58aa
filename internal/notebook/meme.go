package notebook

// ChainOf extracts the ordered sequence of provenance ids from cells.
// Cells without a provenance descriptor contribute nothing, so the
// chain aligns to provenance-bearing cells only, not to cell indices.
func ChainOf(cells []Cell) []string {
	var chain []string
	for _, cell := range cells {
		if id := cell.Metadata.MemeID(); id != "" {
			chain = append(chain, id)
		}
	}
	return chain
}

// ChainsMatch reports whether two provenance chains are identical:
// equal length and equal ids at every position. A chain that differs by
// a single inserted or reordered id does not match; callers treat that
// as "insert fresh" rather than attempting a partial overwrite.
func ChainsMatch(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
