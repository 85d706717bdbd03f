package main

import (
	"fmt"
	"math/rand"
	"sort"
	"time"

	"sleipnir/internal/book"
	"sleipnir/internal/common"

	"github.com/spf13/cobra"
)

func newBenchCmd() *cobra.Command {
	var (
		orders   int
		capacity int
		levels   int
		seed     int64
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Drive a synthetic order feed directly against an in-process book and report latency percentiles",
		RunE: func(cmd *cobra.Command, args []string) error {
			runBench(orders, capacity, levels, seed)
			return nil
		},
	}

	cmd.Flags().IntVar(&orders, "orders", 100_000, "number of synthetic orders to generate")
	cmd.Flags().IntVar(&capacity, "capacity", 1<<20, "order pool capacity")
	cmd.Flags().IntVar(&levels, "levels", 4096, "price levels per side")
	cmd.Flags().Int64Var(&seed, "seed", 1, "random seed")

	return cmd
}

// generateRandomOrder produces a uniformly random order around the book's
// base price, in the spirit of quantcup's GenerateRandomOrder and
// original_source/src/benchmarks.rs's synthetic feed generator: no
// realistic price process, just enough spread around the mid to exercise
// both resting and crossing paths.
func generateRandomOrder(rng *rand.Rand, id uint64, cfg book.Config) common.Order {
	side := common.Buy
	if rng.Intn(2) == 1 {
		side = common.Sell
	}

	spread := int64(cfg.PriceLevels / 2)
	offset := rng.Int63n(2*spread) - spread
	price := int64(cfg.BasePrice) + offset*int64(cfg.TickSize)
	if price < int64(cfg.TickSize) {
		price = int64(cfg.TickSize)
	}

	orderType := common.Limit
	if rng.Intn(20) == 0 {
		orderType = common.Market
	}

	return common.Order{
		ID:       id,
		Price:    uint64(price),
		Quantity: uint64(1 + rng.Intn(1000)),
		Side:     side,
		Type:     orderType,
	}
}

func runBench(numOrders, capacity, levels int, seed int64) {
	cfg := book.DefaultConfig("BENCH", capacity)
	cfg.PriceLevels = levels

	b := book.New(cfg, common.SystemClock{})
	rng := rand.New(rand.NewSource(seed))

	latencies := make([]time.Duration, 0, numOrders)
	var admitted, rejected, executions int

	start := time.Now()
	for i := 0; i < numOrders; i++ {
		order := generateRandomOrder(rng, uint64(i+1), cfg)

		t0 := time.Now()
		execs, err := b.Admit(order)
		latencies = append(latencies, time.Since(t0))

		if err != nil {
			rejected++
		} else {
			admitted++
		}
		executions += len(execs)
	}
	elapsed := time.Since(start)

	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	p50 := percentile(latencies, 0.50)
	p99 := percentile(latencies, 0.99)
	p999 := percentile(latencies, 0.999)

	fmt.Printf("orders=%d admitted=%d rejected=%d executions=%d elapsed=%s throughput=%.0f/s\n",
		numOrders, admitted, rejected, executions, elapsed, float64(numOrders)/elapsed.Seconds())
	fmt.Printf("admit latency: p50=%s p99=%s p999=%s\n", p50, p99, p999)
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
