package metrics

import (
	"math/big"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type MarketMetrics struct {
	sales      *prometheus.CounterVec
	volume     *prometheus.CounterVec
	mints      prometheus.Counter
	escrowHeld *prometheus.GaugeVec
	supply     prometheus.Gauge
}

var (
	marketOnce     sync.Once
	marketRegistry *MarketMetrics
)

func Market() *MarketMetrics {
	marketOnce.Do(func() {
		marketRegistry = &MarketMetrics{
			sales: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passage_market_sales_total",
				Help: "Count of settled sales by kind.",
			}, []string{"kind"}),
			volume: prometheus.NewCounterVec(prometheus.CounterOpts{
				Name: "passage_market_volume",
				Help: "Settled sale volume in base units by denom.",
			}, []string{"denom"}),
			mints: prometheus.NewCounter(prometheus.CounterOpts{
				Name: "passage_minter_mints_total",
				Help: "Count of minted tokens.",
			}),
			escrowHeld: prometheus.NewGaugeVec(prometheus.GaugeOpts{
				Name: "passage_market_escrow_held",
				Help: "Funds held by the marketplace escrow account by denom.",
			}, []string{"denom"}),
			supply: prometheus.NewGauge(prometheus.GaugeOpts{
				Name: "passage_nft_supply",
				Help: "Number of tokens minted so far.",
			}),
		}
		prometheus.MustRegister(
			marketRegistry.sales,
			marketRegistry.volume,
			marketRegistry.mints,
			marketRegistry.escrowHeld,
			marketRegistry.supply,
		)
	})
	return marketRegistry
}

func (m *MarketMetrics) RecordSale(kind, denom string, price *big.Int) {
	if m == nil {
		return
	}
	m.sales.WithLabelValues(kind).Inc()
	if price != nil {
		amount, _ := new(big.Float).SetInt(price).Float64()
		m.volume.WithLabelValues(denom).Add(amount)
	}
}

func (m *MarketMetrics) RecordMint(supply uint64) {
	if m == nil {
		return
	}
	m.mints.Inc()
	m.supply.Set(float64(supply))
}

func (m *MarketMetrics) SetEscrowHeld(denom string, amount *big.Int) {
	if m == nil || amount == nil {
		return
	}
	value, _ := new(big.Float).SetInt(amount).Float64()
	m.escrowHeld.WithLabelValues(denom).Set(value)
}
