package index

import (
	"cmp"
	"slices"
	"strconv"
	"strings"
)

// Finalize sorts every series' slices by (slice location, instance number),
// sets each study's series count and fixes the list order of studies and
// series. It is idempotent and returns idx for chaining.
func (idx *Index) Finalize() *Index {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	for _, study := range idx.studies {
		if !study.finalized {
			finalizeStudy(study)
		}
	}

	idx.order = idx.order[:0]
	for id := range idx.studies {
		idx.order = append(idx.order, id)
	}
	slices.SortFunc(idx.order, func(a, b string) int {
		sa, sb := idx.studies[a], idx.studies[b]
		return cmp.Or(
			cmp.Compare(sa.StudyDate, sb.StudyDate),
			cmp.Compare(sa.ID, sb.ID),
		)
	})

	return idx
}

func finalizeStudy(study *Study) {
	images := 0
	study.seriesOrder = study.seriesOrder[:0]
	for id, series := range study.Series {
		slices.SortStableFunc(series.Slices, compareSlices)
		images += len(series.Slices)
		study.seriesOrder = append(study.seriesOrder, id)
	}
	slices.SortFunc(study.seriesOrder, func(a, b string) int {
		return compareSeries(study.Series[a], study.Series[b])
	})

	study.ImageCount = images
	study.SeriesCount = len(study.Series)
	study.finalized = true
}

// compareSlices orders by location, then instance number. The file path
// breaks remaining ties so the order does not depend on arrival order.
func compareSlices(a, b Slice) int {
	return cmp.Or(
		cmp.Compare(a.SliceLocation, b.SliceLocation),
		cmp.Compare(a.InstanceNumber, b.InstanceNumber),
		strings.Compare(a.FilePath, b.FilePath),
	)
}

// compareSeries orders numerically by series number where it parses,
// numbered series before unnumbered ones.
func compareSeries(a, b *Series) int {
	na, errA := strconv.Atoi(strings.TrimSpace(a.Number))
	nb, errB := strconv.Atoi(strings.TrimSpace(b.Number))

	switch {
	case errA == nil && errB == nil:
		if c := cmp.Compare(na, nb); c != 0 {
			return c
		}
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}

	return cmp.Or(
		cmp.Compare(a.Number, b.Number),
		cmp.Compare(a.ID, b.ID),
	)
}

// Merge returns a new finalized Index holding the studies of idx and newer.
// A study present in both is taken wholesale from newer. Studies are shared,
// not copied, so both inputs should already be finalized.
func (idx *Index) Merge(newer *Index) *Index {
	merged := New()
	for id, study := range idx.studies {
		merged.studies[id] = study
	}
	for id, study := range newer.studies {
		merged.studies[id] = study
	}
	return merged.Finalize()
}
