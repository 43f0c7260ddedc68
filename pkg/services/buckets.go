package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/codenexus/codenexus-engine/pkg/models"
)

// WindowStart returns the start of the current reporting window ending at now.
// Daily windows start at local midnight; weekly and monthly windows are the
// trailing 7 and 30 days, not calendar weeks or months.
func WindowStart(period models.Period, now time.Time) (time.Time, error) {
	switch period {
	case models.PeriodDaily:
		y, m, d := now.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, now.Location()), nil
	case models.PeriodWeekly:
		return now.Add(-7 * 24 * time.Hour), nil
	case models.PeriodMonthly:
		return now.Add(-30 * 24 * time.Hour), nil
	}
	return time.Time{}, fmt.Errorf("unknown period %q", period)
}

// BucketKey returns the calendar bucket t falls into: 2006-01-02 for days,
// the ISO week (2006-W01) for weeks and 2006-01 for months.
func BucketKey(period models.Period, t time.Time) (string, error) {
	switch period {
	case models.PeriodDaily:
		return t.Format("2006-01-02"), nil
	case models.PeriodWeekly:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week), nil
	case models.PeriodMonthly:
		return t.Format("2006-01"), nil
	}
	return "", fmt.Errorf("unknown period %q", period)
}

// latestPerBucket keeps the latest scan of each bucket and returns them by
// ascending bucket key. Bucket keys are computed in loc.
func latestPerBucket(period models.Period, scans []*models.Scan, loc *time.Location) (map[string]*models.Scan, []string, error) {
	latest := make(map[string]*models.Scan)
	for _, scan := range scans {
		key, err := BucketKey(period, scan.StartedAt.In(loc))
		if err != nil {
			return nil, nil, err
		}
		if scan.Later(latest[key]) {
			latest[key] = scan
		}
	}

	keys := make([]string, 0, len(latest))
	for k := range latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return latest, keys, nil
}
