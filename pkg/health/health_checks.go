package health

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// SimpleCheck always reports healthy.
func SimpleCheck(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusHealthy, LastChecked: time.Now()}
	}
}

// DatabaseCheck reports the result of a database ping.
func DatabaseCheck(ping func(ctx context.Context) error) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: "database"}
		if err := ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
		} else {
			check.Status = StatusHealthy
			check.Message = "Connected"
		}
		return check
	}
}

// DirectoryCheck verifies that dir exists and that a file can be created
// in it. Graph outputs are written there.
func DirectoryCheck(name, dir string) CheckFunc {
	return func(context.Context) Check {
		check := Check{Name: name, Details: map[string]any{"path": dir}}

		info, err := os.Stat(dir)
		switch {
		case err != nil:
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		case !info.IsDir():
			check.Status = StatusUnhealthy
			check.Message = "not a directory"
			return check
		}

		f, err := os.CreateTemp(dir, ".health-*")
		if err != nil {
			check.Status = StatusDegraded
			check.Message = "read-only: " + err.Error()
			return check
		}
		tmp := f.Name()
		f.Close()
		os.Remove(tmp)

		entries, _ := filepath.Glob(filepath.Join(dir, "*_graph.json*"))
		check.Details["graphs"] = len(entries)
		check.Status = StatusHealthy
		check.Message = "Writable"
		return check
	}
}

// WatcherCheck reports the input watcher's state. A stopped watcher only
// degrades the service since graphs can still be served.
func WatcherCheck(state func() (running bool, lastErr error)) CheckFunc {
	return func(context.Context) Check {
		check := Check{Name: "watcher", Details: make(map[string]any)}

		running, lastErr := state()
		check.Details["running"] = running
		switch {
		case !running:
			check.Status = StatusDegraded
			check.Message = "Watcher not running"
		case lastErr != nil:
			check.Status = StatusDegraded
			check.Message = lastErr.Error()
		default:
			check.Status = StatusHealthy
			check.Message = "Watching"
		}
		return check
	}
}

// MemoryCheck degrades when the heap exceeds limitBytes. A zero limit
// only reports usage.
func MemoryCheck(limitBytes uint64) CheckFunc {
	return func(context.Context) Check {
		var m runtime.MemStats
		runtime.ReadMemStats(&m)

		check := Check{
			Name: "memory",
			Details: map[string]any{
				"alloc_bytes": m.Alloc,
				"sys_bytes":   m.Sys,
			},
			Status:  StatusHealthy,
			Message: "Memory usage normal",
		}
		if limitBytes > 0 && m.Alloc > limitBytes {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		}
		return check
	}
}
