package storage

import (
	"context"
	"time"

	"botcore/internal/logger"
	"botcore/pkg/cmd"
)

// RunCooldownCleaner drops expired cooldowns every interval and persists the
// remaining ones, until ctx is done. A final snapshot is saved on exit.
func RunCooldownCleaner(ctx context.Context, cooldowns *cmd.MemoryCooldowns, store *Storage, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			if err := store.SaveCooldowns(cooldowns.Snapshot()); err != nil {
				logger.Errorf("Error saving cooldowns: %v", err)
			}
			return
		case now := <-ticker.C:
			if n := cooldowns.Sweep(now); n > 0 {
				logger.Debugf("Swept %d expired cooldowns", n)
			}
			if err := store.SaveCooldowns(cooldowns.Snapshot()); err != nil {
				logger.Errorf("Error saving cooldowns: %v", err)
			}
		}
	}
}

// RestoreCooldowns loads the persisted snapshot into cooldowns.
func RestoreCooldowns(cooldowns *cmd.MemoryCooldowns, store *Storage, now time.Time) error {
	entries, err := store.LoadCooldowns()
	if err != nil {
		return err
	}
	cooldowns.Restore(entries, now)
	return nil
}
