// Package prom exports wordvec metrics to Prometheus.
//
//	c := prom.NewCollector()
//	emb, _ := wordvec.Load(ctx, path, format, wordvec.WithMetricsCollector(c))
//	http.Handle("/metrics", c.Handler())
//
// Short-lived batch jobs (accuracy evaluation, quantization) push their
// measurements to a Pushgateway with Collector.Push.
package prom
