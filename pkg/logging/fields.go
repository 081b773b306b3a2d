package logging

import "time"

func String(key, value string) Field          { return Field{Key: key, Value: value} }
func Int(key string, value int) Field         { return Field{Key: key, Value: value} }
func Int64(key string, value int64) Field     { return Field{Key: key, Value: value} }
func Float64(key string, value float64) Field { return Field{Key: key, Value: value} }
func Bool(key string, value bool) Field       { return Field{Key: key, Value: value} }
func Any(key string, value any) Field         { return Field{Key: key, Value: value} }

func Duration(key string, value time.Duration) Field {
	return Field{Key: key, Value: value.String()}
}

func Error(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: nil}
	}
	return Field{Key: "error", Value: err.Error()}
}

// Domain field helpers

func Component(name string) Field { return String("component", name) }
func Path(p string) Field         { return String("path", p) }
func Format(f string) Field       { return String("format", f) }
func NodeID(id string) Field      { return String("node_id", id) }
func Group(g string) Field        { return String("group", g) }
func Nodes(n int) Field           { return Int("nodes", n) }
func Links(n int) Field           { return Int("links", n) }
func Edges(n int) Field           { return Int("edges", n) }
func Count(n int) Field           { return Int("count", n) }
func RequestID(id string) Field   { return String("request_id", id) }
func Latency(d time.Duration) Field {
	return Duration("latency", d)
}
