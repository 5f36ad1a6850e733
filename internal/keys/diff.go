package keys

// Diff returns the entries of reference that do not occur in comparison, in
// reference order. Equality is exact; duplicates in reference are preserved.
func Diff(reference, comparison []string) []string {
	present := make(map[string]struct{}, len(comparison))
	for _, k := range comparison {
		present[k] = struct{}{}
	}
	var missing []string
	for _, k := range reference {
		if _, ok := present[k]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}
