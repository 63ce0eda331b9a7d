package metrics

// InitializeMetrics pre-populates expected label combinations so that
// every metric is exported from the first Prometheus scrape.
func InitializeMetrics() {
	for _, corpus := range []string{"primary", "fixture"} {
		for _, mode := range []string{"load", "refresh", "merge"} {
			ScanRunsTotal.WithLabelValues(corpus, mode)
		}
		ScanDuration.WithLabelValues(corpus)
		ScanErrors.WithLabelValues(corpus)
		ScanLastTimestamp.WithLabelValues(corpus)
		ObserveIndex(corpus, 0, 0, 0)
	}

	for _, result := range []string{"indexed", "not_indexable", "missing_study"} {
		ScanFilesTotal.WithLabelValues(result)
	}

	volumes := []string{"dicom", "testdata", "database", "unknown"}
	for _, vol := range volumes {
		for _, op := range []string{"stat", "open"} {
			FilesystemOperationDuration.WithLabelValues(vol, op)
			FilesystemOperationErrors.WithLabelValues(vol, op)
			FilesystemRetryAttempts.WithLabelValues(op, vol)
			FilesystemRetrySuccess.WithLabelValues(op, vol)
			FilesystemRetryFailures.WithLabelValues(op, vol)
			FilesystemStaleErrors.WithLabelValues(op, vol)
			FilesystemRetryDuration.WithLabelValues(op, vol)
		}
	}

	for _, op := range []string{"initialize_schema", "get_notes", "set_study_description",
		"set_series_description", "add_comment", "update_comment", "delete_comment", "count_notes"} {
		DBQueryTotal.WithLabelValues(op, "success")
		DBQueryTotal.WithLabelValues(op, "error")
		DBQueryDuration.WithLabelValues(op)
	}
}
