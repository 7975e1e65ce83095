package metrics

import (
	"fmt"
	"net/http"

	"github.com/ali-baba-kitchen/internal/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ali_baba"

// Metrics 订单链路指标
type Metrics struct {
	registry *prometheus.Registry

	OrdersSubmitted     *prometheus.CounterVec
	OrderSubmitFailures *prometheus.CounterVec
	OrderTransitions    *prometheus.CounterVec
	PartialOrders       prometheus.Counter
	RealtimeWatchers    *prometheus.GaugeVec
}

// New 创建独立注册表，避免测试间重复注册
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		OrdersSubmitted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "submitted_total",
			Help:      "Orders fully persisted, by order type.",
		}, []string{"order_type"}),
		OrderSubmitFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "submit_failures_total",
			Help:      "Order submissions rejected or failed, by reason.",
		}, []string{"reason"}),
		OrderTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Applied order status transitions, by action and target status.",
		}, []string{"action", "status"}),
		PartialOrders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "partial_total",
			Help:      "Orders persisted without their items.",
		}),
		RealtimeWatchers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "realtime",
			Name:      "watchers",
			Help:      "Open order change streams, by scope.",
		}, []string{"scope"}),
	}
	registry.MustRegister(
		m.OrdersSubmitted,
		m.OrderSubmitFailures,
		m.OrderTransitions,
		m.PartialOrders,
		m.RealtimeWatchers,
	)
	return m
}

// Registry 返回注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 暴露 /metrics
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{
		ErrorLog:      promLogger{},
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// ObserveSubmitted 下单成功
func (m *Metrics) ObserveSubmitted(orderType string) {
	if m == nil {
		return
	}
	m.OrdersSubmitted.WithLabelValues(orderType).Inc()
}

// ObserveSubmitFailure 下单失败
func (m *Metrics) ObserveSubmitFailure(reason string) {
	if m == nil {
		return
	}
	m.OrderSubmitFailures.WithLabelValues(reason).Inc()
}

// ObserveTransition 状态流转成功
func (m *Metrics) ObserveTransition(action, status string) {
	if m == nil {
		return
	}
	m.OrderTransitions.WithLabelValues(action, status).Inc()
}

// ObservePartialOrder 订单明细写入失败
func (m *Metrics) ObservePartialOrder() {
	if m == nil {
		return
	}
	m.PartialOrders.Inc()
}

// WatcherOpened 实时订阅建立
func (m *Metrics) WatcherOpened(scope string) {
	if m == nil {
		return
	}
	m.RealtimeWatchers.WithLabelValues(scope).Inc()
}

// WatcherClosed 实时订阅释放
func (m *Metrics) WatcherClosed(scope string) {
	if m == nil {
		return
	}
	m.RealtimeWatchers.WithLabelValues(scope).Dec()
}

type promLogger struct{}

// Println 实现 promhttp.Logger
func (promLogger) Println(v ...interface{}) {
	logger.Errorw("metrics_handler_error", "error", fmt.Sprint(v...))
}
