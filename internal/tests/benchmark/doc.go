// Package benchmark provides performance benchmarks for the supplier
// portal client and the mock script endpoint.
//
// Run benchmarks with:
//
//	go test -bench=. -benchmem ./internal/tests/benchmark/...
//
// Run with specific token counts:
//
//	go test -bench=BenchmarkTokens -benchmem -benchtime=10s ./internal/tests/benchmark/...
//
// Compare results:
//
//	benchstat old.txt new.txt
package benchmark
