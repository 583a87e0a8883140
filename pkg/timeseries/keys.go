package timeseries

// DiscoverKeys returns every field name seen across records in first-seen
// order, excluding the date field.
func DiscoverKeys(records []Record) []string {
	seen := map[string]struct{}{}
	keys := []string{}
	for _, record := range records {
		for _, key := range record.orderedKeys() {
			if key == FieldDate {
				continue
			}
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
	}
	return keys
}

// RotateFirstKey moves the first key to the end of a new slice.
func RotateFirstKey(keys []string) []string {
	if len(keys) < 2 {
		return append([]string(nil), keys...)
	}
	out := make([]string, 0, len(keys))
	out = append(out, keys[1:]...)
	return append(out, keys[0])
}

// ArrangeKeys orders discovered keys for display. When the widget declares a
// different number of keys and labels, the first discovered key (the total)
// is moved to the end.
func ArrangeKeys(declaredKeys, declaredLabels, discovered []string) []string {
	if len(declaredKeys) != len(declaredLabels) {
		return RotateFirstKey(discovered)
	}
	return append([]string(nil), discovered...)
}

// SeriesLabels returns the legend labels for keys. Without dynamic keys the
// declared labels are used as-is.
func SeriesLabels(declaredKeys, declaredLabels, keys []string, dynamic bool) []string {
	if !dynamic {
		return append([]string(nil), declaredLabels...)
	}
	if len(declaredKeys) != len(declaredLabels) {
		out := make([]string, 0, len(keys))
		for _, key := range keys {
			if key != FieldSum {
				out = append(out, key)
			}
		}
		return out
	}
	out := make([]string, len(keys))
	for i, key := range keys {
		out[i] = key
		if key == FieldSum && len(declaredKeys) > 0 && declaredKeys[0] == FieldSum && len(declaredLabels) > 0 {
			out[i] = declaredLabels[0]
		}
	}
	return out
}
