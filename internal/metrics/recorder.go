package metrics

import "time"

// SkipReason labels why a page reference was left untouched.
type SkipReason string

const (
	SkipEmpty          SkipReason = "empty"
	SkipAnchor         SkipReason = "anchor"
	SkipAbsolute       SkipReason = "absolute"
	SkipNotFound       SkipReason = "not_found"
	SkipOutsideSource  SkipReason = "outside_source"
	SkipExtension      SkipReason = "extension"
	SkipMissingAtCopy  SkipReason = "missing_at_copy"
	SkipUnparseableRef SkipReason = "unparseable"
)

// BuildOutcome labels the final status of a build.
type BuildOutcome string

const (
	BuildSuccess BuildOutcome = "success"
	BuildFailed  BuildOutcome = "failed"
)

// Recorder defines observability hooks for publishing and builds.
type Recorder interface {
	IncPublished(mapping string)
	ObservePublishedBytes(mapping string, n int64)
	IncRewritten(mapping string)
	IncSkipped(reason SkipReason)
	ObservePageDuration(d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncBuildOutcome(outcome BuildOutcome)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncPublished(string)                 {}
func (NoopRecorder) ObservePublishedBytes(string, int64) {}
func (NoopRecorder) IncRewritten(string)                 {}
func (NoopRecorder) IncSkipped(SkipReason)               {}
func (NoopRecorder) ObservePageDuration(time.Duration)   {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)  {}
func (NoopRecorder) IncBuildOutcome(BuildOutcome)        {}
