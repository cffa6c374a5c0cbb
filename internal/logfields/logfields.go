package logfields

import (
	"log/slog"
	"time"
)

// Canonical log field name constants to avoid drift across packages.
const (
	KeyMapping     = "mapping"
	KeySource      = "source"
	KeyDestination = "destination"
	KeyPage        = "page"
	KeyURL         = "url"
	KeyReference   = "reference"
	KeyRunID       = "run_id"
	KeyReason      = "reason"
	KeyPath        = "path"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

func Mapping(prefix string) slog.Attr   { return slog.String(KeyMapping, prefix) }
func Source(p string) slog.Attr         { return slog.String(KeySource, p) }
func Destination(p string) slog.Attr    { return slog.String(KeyDestination, p) }
func Page(p string) slog.Attr           { return slog.String(KeyPage, p) }
func URL(u string) slog.Attr            { return slog.String(KeyURL, u) }
func Reference(ref string) slog.Attr    { return slog.String(KeyReference, ref) }
func RunID(id string) slog.Attr         { return slog.String(KeyRunID, id) }
func Reason(r string) slog.Attr         { return slog.String(KeyReason, r) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func Count(n int) slog.Attr             { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Elapsed(d time.Duration) slog.Attr { return DurationMS(float64(d.Microseconds()) / 1000) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
