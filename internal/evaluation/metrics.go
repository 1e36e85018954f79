package evaluation

// ScoreTolerance is the absolute deviation allowed when comparing expected
// and actual sub-scores, absorbing float rounding differences.
const ScoreTolerance = 0.01

// WithinTolerance reports whether two scores agree within ScoreTolerance.
func WithinTolerance(expected, actual float64) bool {
	diff := expected - actual
	if diff < 0 {
		diff = -diff
	}
	return diff <= ScoreTolerance
}

// TagRecall computes the fraction of expected tags present in the actual tag
// set. Returns 1.0 when no tags are expected.
func TagRecall(expected, actual []string) float64 {
	if len(expected) == 0 {
		return 1.0
	}

	actualSet := make(map[string]struct{}, len(actual))
	for _, t := range actual {
		actualSet[t] = struct{}{}
	}

	found := 0
	for _, t := range expected {
		if _, ok := actualSet[t]; ok {
			found++
		}
	}

	return float64(found) / float64(len(expected))
}

// MissingTags returns the expected tags absent from the actual tag set.
func MissingTags(expected, actual []string) []string {
	actualSet := make(map[string]struct{}, len(actual))
	for _, t := range actual {
		actualSet[t] = struct{}{}
	}

	var missing []string
	for _, t := range expected {
		if _, ok := actualSet[t]; !ok {
			missing = append(missing, t)
		}
	}
	return missing
}
