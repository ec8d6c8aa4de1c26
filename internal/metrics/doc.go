// Package metrics provides build observability for simplesite.
//
// Components receive a Recorder through an option and default to NoopRecorder,
// so metrics collection needs no nil checks at call sites:
//
//	reg := prometheus.NewRegistry()
//	rec := metrics.NewPrometheusRecorder(reg)
//	b := site.New(cfg, site.WithRecorder(rec))
//	_, err := b.Build(ctx)
//	_ = metrics.WriteTextfile("simplesite.prom", reg)
//
// A one-shot build has no scrape endpoint, so the registry is exported as a
// node_exporter textfile instead of over HTTP.
package metrics
