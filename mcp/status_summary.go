package mcp

import (
	"fmt"
	"math"

	"pkt.systems/seammcp/seam"
)

const (
	lowBatteryThreshold    = 0.30
	mediumBatteryThreshold = 0.60
)

type statusSummary struct {
	TotalLocks      int                 `json:"total_locks"`
	LockStates      lockStateCounts     `json:"lock_states"`
	Connectivity    connectivitySummary `json:"connectivity"`
	BatteryStatus   batterySummary      `json:"battery_status"`
	Issues          issueSummary        `json:"issues"`
	AllLocksSummary []lockSummaryRow    `json:"all_locks_summary"`
}

type lockStateCounts struct {
	Locked           int `json:"locked"`
	Unlocked         int `json:"unlocked"`
	LockedPercentage int `json:"locked_percentage"`
}

type lockRef struct {
	Name     string `json:"name"`
	DeviceID string `json:"device_id"`
}

type connectivitySummary struct {
	Online       int       `json:"online"`
	Offline      int       `json:"offline"`
	OfflineLocks []lockRef `json:"offline_locks"`
}

type batteryRef struct {
	Name         string `json:"name"`
	BatteryLevel string `json:"battery_level"`
	DeviceID     string `json:"device_id"`
}

type batterySummary struct {
	LowBatteryCount    int          `json:"low_battery_count"`
	MediumBatteryCount int          `json:"medium_battery_count"`
	LowBatteryLocks    []batteryRef `json:"low_battery_locks"`
	MediumBatteryLocks []batteryRef `json:"medium_battery_locks"`
}

type lockErrorsRef struct {
	Name     string       `json:"name"`
	Errors   []seam.Issue `json:"errors"`
	DeviceID string       `json:"device_id"`
}

type lockWarningsRef struct {
	Name     string       `json:"name"`
	Warnings []seam.Issue `json:"warnings"`
	DeviceID string       `json:"device_id"`
}

type issueSummary struct {
	ErrorsCount       int               `json:"errors_count"`
	WarningsCount     int               `json:"warnings_count"`
	LocksWithErrors   []lockErrorsRef   `json:"locks_with_errors"`
	LocksWithWarnings []lockWarningsRef `json:"locks_with_warnings"`
}

type lockSummaryRow struct {
	Name     string `json:"name"`
	Status   string `json:"status"`
	Online   string `json:"online"`
	Battery  string `json:"battery"`
	DeviceID string `json:"device_id"`
}

// summarizeLocks aggregates one lock list snapshot. Locks with an unknown
// locked or online value count in neither bucket; locks without a battery
// level are in neither battery tier.
func summarizeLocks(locks []seam.Lock) statusSummary {
	sum := statusSummary{
		TotalLocks:      len(locks),
		Connectivity:    connectivitySummary{OfflineLocks: []lockRef{}},
		BatteryStatus:   batterySummary{LowBatteryLocks: []batteryRef{}, MediumBatteryLocks: []batteryRef{}},
		Issues:          issueSummary{LocksWithErrors: []lockErrorsRef{}, LocksWithWarnings: []lockWarningsRef{}},
		AllLocksSummary: make([]lockSummaryRow, 0, len(locks)),
	}
	for _, lock := range locks {
		name := lock.Name()
		props := lock.Properties

		if props.Locked != nil {
			if *props.Locked {
				sum.LockStates.Locked++
			} else {
				sum.LockStates.Unlocked++
			}
		}
		if props.Online != nil {
			if *props.Online {
				sum.Connectivity.Online++
			} else {
				sum.Connectivity.Offline++
				sum.Connectivity.OfflineLocks = append(sum.Connectivity.OfflineLocks, lockRef{Name: name, DeviceID: lock.DeviceID})
			}
		}
		if level := props.BatteryLevel; level != nil {
			ref := batteryRef{Name: name, BatteryLevel: formatBattery(level), DeviceID: lock.DeviceID}
			switch {
			case *level < lowBatteryThreshold:
				sum.BatteryStatus.LowBatteryLocks = append(sum.BatteryStatus.LowBatteryLocks, ref)
			case *level < mediumBatteryThreshold:
				sum.BatteryStatus.MediumBatteryLocks = append(sum.BatteryStatus.MediumBatteryLocks, ref)
			}
		}
		if len(lock.Errors) > 0 {
			sum.Issues.LocksWithErrors = append(sum.Issues.LocksWithErrors, lockErrorsRef{Name: name, Errors: lock.Errors, DeviceID: lock.DeviceID})
		}
		if len(lock.Warnings) > 0 {
			sum.Issues.LocksWithWarnings = append(sum.Issues.LocksWithWarnings, lockWarningsRef{Name: name, Warnings: lock.Warnings, DeviceID: lock.DeviceID})
		}

		row := lockSummaryRow{
			Name:     name,
			Status:   "🔓 Unlocked",
			Online:   "❌ Offline",
			Battery:  formatBattery(props.BatteryLevel),
			DeviceID: lock.DeviceID,
		}
		if lock.IsLocked() {
			row.Status = "🔒 Locked"
		}
		if props.Online != nil && *props.Online {
			row.Online = "✅ Online"
		}
		sum.AllLocksSummary = append(sum.AllLocksSummary, row)
	}

	sum.LockStates.LockedPercentage = percentage(sum.LockStates.Locked, sum.TotalLocks)
	sum.BatteryStatus.LowBatteryCount = len(sum.BatteryStatus.LowBatteryLocks)
	sum.BatteryStatus.MediumBatteryCount = len(sum.BatteryStatus.MediumBatteryLocks)
	sum.Issues.ErrorsCount = len(sum.Issues.LocksWithErrors)
	sum.Issues.WarningsCount = len(sum.Issues.LocksWithWarnings)
	return sum
}

func percentage(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func formatBattery(level *float64) string {
	if level == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d%%", int(math.Round(*level*100)))
}
