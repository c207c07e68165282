// Package observe provides the event fan-out layer of the runtree engine.
//
// It contains two pieces: a minimal publish/subscribe primitive
// ([Observable]) that isolates subscriber failures from each other and from
// the publisher, and the [Observer] capability set that external
// visualization, persistence, and debugging tools implement to receive the
// full workflow hierarchy.
//
// Shipped observers: [Multi], [Nop], [Funcs], [NewLogObserver] (zap),
// [NewMetricsObserver] (Prometheus), and [NewTraceObserver] (OpenTelemetry).
package observe
