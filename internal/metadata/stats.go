package metadata

// ComputeSizeStatistics returns the total size of entries and the average entry
// size. The average is zero when there are no entries.
func ComputeSizeStatistics(entries map[string]FileEntry) (total int64, average float64) {
	for _, entry := range entries {
		total += entry.SizeBytes
	}
	if len(entries) == 0 {
		return total, 0
	}
	return total, float64(total) / float64(len(entries))
}

func (r *Record) recomputeStatistics() {
	r.Statistics.TotalDiskUsageBytes, r.Statistics.AverageEntrySizeBytes = ComputeSizeStatistics(r.Entries)
}
