package summary

import (
	"fmt"

	"github.com/heaptrace/pkg/utils"
)

// Log prints s to log in a fixed layout.
func Log(s *Summary, log utils.Logger) {
	if s == nil {
		return
	}

	log.Info("=== Heap Trace Summary ===")
	log.Info("Events:          %d", s.Events)
	log.Info("Heaps:           %d", s.Heaps)
	log.Info("  create:  %d", s.Counts["create"])
	log.Info("  destroy: %d", s.Counts["destroy"])
	log.Info("  alloc:   %d", s.Counts["alloc"])
	log.Info("  free:    %d", s.Counts["free"])
	log.Info("  realloc: %d", s.Counts["realloc"])
	log.Info("Allocated:       %s", FormatBytes(s.AllocatedBytes))
	log.Info("Freed:           %s", FormatBytes(s.FreedBytes))
	log.Info("Reallocated:     %s", FormatBytes(s.ReallocBytes))
	log.Info("Live at end:     %d blocks, %s", s.LiveAllocations, FormatBytes(s.LiveBytes))
	if s.UnmatchedFrees > 0 {
		log.Warn("%d frees did not match a traced allocation", s.UnmatchedFrees)
	}

	if len(s.TopSymbols) == 0 {
		return
	}
	log.Info("")
	log.Info("=== Top Allocating Symbols ===")
	for i, e := range s.TopSymbols {
		log.Info("  %2d. %6.2f%%  %10s  %s", i+1, e.Percent, FormatBytes(e.Bytes), truncateString(e.Symbol, 80))
	}
}

// FormatBytes renders n with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
