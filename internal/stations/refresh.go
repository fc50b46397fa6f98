package stations

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/you/climatemap/internal/mapctx"
)

// refreshTimeout bounds one scheduled reload
const refreshTimeout = 2 * time.Minute

// ScheduleRefresh registers a job on c that reloads the station overlay on
// the given cron schedule. An empty schedule disables the job.
func ScheduleRefresh(c *cron.Cron, schedule string, l *Loader, m *mapctx.Map, sourceURL string) (cron.EntryID, error) {
	if schedule == "" {
		return 0, nil
	}

	id, err := c.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), refreshTimeout)
		defer cancel()

		log.Println("Stations: running scheduled refresh...")
		if err := l.Reload(ctx, m, sourceURL); err != nil {
			log.Printf("Stations: scheduled refresh failed: %v", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("invalid refresh schedule %q: %w", schedule, err)
	}
	return id, nil
}
