package metrics

import "time"

// RecordRefresh records the outcome of one aggregator refresh.
func RecordRefresh(status, origin string, duration time.Duration, cached int) {
	RefreshTotal.WithLabelValues(status, origin).Inc()
	RefreshDuration.Observe(duration.Seconds())
	CachedArticles.Set(float64(cached))
}

// RecordCategoryFetch records one category fetch. result is "success" or "failure".
func RecordCategoryFetch(category string, duration time.Duration, err error) {
	result := "success"
	if err != nil {
		result = "failure"
	}
	CategoryFetchDuration.WithLabelValues(category, result).Observe(duration.Seconds())
}

// RecordStoreWriteFailure records a store write that gave up after retries.
func RecordStoreWriteFailure(key string) {
	StoreWriteFailures.WithLabelValues(key).Inc()
}

// RecordContentFetchSuccess records a successful full-text fetch.
func RecordContentFetchSuccess(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchFailed records a failed full-text fetch.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a detail view whose cached content was already long enough.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordFavoriteToggle records a toggle and the resulting set size.
func RecordFavoriteToggle(added bool, total int) {
	action := "removed"
	if added {
		action = "added"
	}
	FavoritesToggleTotal.WithLabelValues(action).Inc()
	FavoritesTotal.Set(float64(total))
}

// UpdateFavoritesTotal sets the favorites gauge, e.g. after loading from the store.
func UpdateFavoritesTotal(total int) {
	FavoritesTotal.Set(float64(total))
}

// SetConnectivity records the latest connectivity observation.
func SetConnectivity(online bool) {
	if online {
		ConnectivityOnline.Set(1)
		return
	}
	ConnectivityOnline.Set(0)
}
