// Package metrics records build and stage metrics for lava.
//
// Components receive a Recorder and never check it for nil: NoopRecorder is
// the default and compiles down to nothing. PrometheusRecorder registers its
// collectors on a caller-supplied registry, which the CLI either writes to a
// node_exporter textfile after a build or serves over HTTP while watching.
//
//	reg := prometheus.NewRegistry()
//	b := site.NewBuilder(cfg, site.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//	report, err := b.Build(ctx)
//	_ = metrics.WriteTextfile(path, reg)
package metrics
