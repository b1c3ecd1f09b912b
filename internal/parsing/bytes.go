package parsing

import "fmt"

const (
	kib = 1024
	mib = 1024 * kib
	gib = 1024 * mib
)

// FormatBytes renders a byte count in human-readable units.
func FormatBytes(n int64) string {
	switch {
	case n >= gib:
		return fmt.Sprintf("%.1f GB", float64(n)/float64(gib))
	case n >= mib:
		return fmt.Sprintf("%.1f MB", float64(n)/float64(mib))
	case n >= kib:
		return fmt.Sprintf("%.1f KB", float64(n)/float64(kib))
	default:
		return fmt.Sprintf("%d B", n)
	}
}

// FormatSpeed renders a transfer rate in human-readable units.
func FormatSpeed(bps int64) string {
	switch {
	case bps > mib:
		return fmt.Sprintf("%.1f MB/s", float64(bps)/float64(mib))
	case bps > kib:
		return fmt.Sprintf("%.1f KB/s", float64(bps)/float64(kib))
	default:
		return fmt.Sprintf("%d B/s", bps)
	}
}
