// Package metrics records asset publishing and build metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics collection needs no nil checks at call sites:
//
//	pub := assets.NewPublisher(mapping, fs, metrics.NoopRecorder{}, logger)
//
// The preview server swaps in a PrometheusRecorder and exposes its registry
// through HTTPHandler when metrics are enabled in the configuration.
package metrics
