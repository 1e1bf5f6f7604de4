package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/ump-ci/umpci-go/pkg/ci"
	"github.com/ump-ci/umpci-go/pkg/log"
)

// Stats holds aggregate statistics about a capture file.
type Stats struct {
	TotalEvents       int
	EventsByLayer     map[log.Layer]int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Ports             map[string]*PortStats
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// PortStats holds statistics for a single transport port.
type PortStats struct {
	FirstSeen   time.Time
	LastSeen    time.Time
	Events      int
	LocalMUID   uint32
	RemoteMUIDs map[uint32]int
}

// RunStats analyzes the capture file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByLayer:     make(map[log.Layer]int),
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Ports:             make(map[string]*PortStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByLayer[event.Layer]++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		port, ok := stats.Ports[event.PortID]
		if !ok {
			port = &PortStats{
				FirstSeen:   event.Timestamp,
				LastSeen:    event.Timestamp,
				RemoteMUIDs: make(map[uint32]int),
			}
			stats.Ports[event.PortID] = port
		}
		port.Events++
		if event.Timestamp.After(port.LastSeen) {
			port.LastSeen = event.Timestamp
		}
		if event.LocalMUID != 0 && port.LocalMUID == 0 {
			port.LocalMUID = event.LocalMUID
		}
		if event.RemoteMUID != 0 {
			port.RemoteMUIDs[event.RemoteMUID]++
		}

		if event.Error != nil {
			stats.Errors++
		}
	}

	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== MIDI-CI Protocol Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerPacket, log.LayerSysEx, log.LayerCI, log.LayerSession} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-9s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Ports: %d\n", len(stats.Ports))
	if len(stats.Ports) > 0 {
		type portInfo struct {
			id    string
			stats *PortStats
		}
		ports := make([]portInfo, 0, len(stats.Ports))
		for id, ps := range stats.Ports {
			ports = append(ports, portInfo{id, ps})
		}
		sort.Slice(ports, func(i, j int) bool {
			return ports[i].stats.FirstSeen.Before(ports[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, p := range ports {
			duration := p.stats.LastSeen.Sub(p.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenPortID(p.id), p.stats.Events, duration)
			if p.stats.LocalMUID != 0 {
				fmt.Fprintf(w, "           Local MUID: %s\n", ci.MUID(p.stats.LocalMUID))
			}
			if len(p.stats.RemoteMUIDs) > 0 {
				remotes := make([]uint32, 0, len(p.stats.RemoteMUIDs))
				for muid := range p.stats.RemoteMUIDs {
					remotes = append(remotes, muid)
				}
				sort.Slice(remotes, func(i, j int) bool { return remotes[i] < remotes[j] })
				fmt.Fprint(w, "           Remote MUIDs:")
				for _, muid := range remotes {
					fmt.Fprintf(w, " %s(%d)", ci.MUID(muid), p.stats.RemoteMUIDs[muid])
				}
				fmt.Fprintln(w)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
