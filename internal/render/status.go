package render

import (
	"fmt"
	"strings"
	"time"

	"wbtracker/internal/domain"
)

// Status renders the bot status report.
func Status(s domain.BotStatus) string {
	var b strings.Builder
	b.WriteString("**Bot**\n")
	fmt.Fprintf(&b, "Uptime: `%s`\n", Uptime(s.Uptime))
	fmt.Fprintf(&b, "Go: `%s`\n", s.GoVersion)
	fmt.Fprintf(&b, "Platform: `%s`\n", s.Platform)
	fmt.Fprintf(&b, "Process ID: `%d`\n", s.PID)
	fmt.Fprintf(&b, "CPUs: `%d`\n", s.NumCPU)
	fmt.Fprintf(&b, "Goroutines: `%d`\n", s.Goroutines)
	b.WriteString("\n**Memory**\n")
	fmt.Fprintf(&b, "Heap in use: `%s`\n", Bytes(s.HeapAlloc))
	fmt.Fprintf(&b, "Heap reserved: `%s`\n", Bytes(s.HeapSys))
	b.WriteString("\n**Worlds**\n")
	fmt.Fprintf(&b, "Stored: `%d`\n", s.StoredWorlds)
	b.WriteString("By location:\n")
	for _, loc := range domain.Locations {
		fmt.Fprintf(&b, "• %s: `%d`\n", strings.ToUpper(string(loc)), s.PerLocation[loc])
	}
	fmt.Fprintf(&b, "Beamed: `%d`\n", s.Beamed)
	fmt.Fprintf(&b, "With PKs: `%d`\n", s.Hostile)
	fmt.Fprintf(&b, "With time: `%d`", s.WithTime)
	return b.String()
}

// Bytes formats a byte count with a binary unit.
func Bytes(n uint64) string {
	units := []string{"B", "KB", "MB", "GB"}
	v := float64(n)
	i := 0
	for v >= 1024 && i < len(units)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.2f %s", v, units[i])
}

// Uptime formats a duration as 1d 2h 3m 4s.
func Uptime(d time.Duration) string {
	secs := int(d / time.Second)
	return fmt.Sprintf("%dd %dh %dm %ds", secs/86400, secs%86400/3600, secs%3600/60, secs%60)
}
