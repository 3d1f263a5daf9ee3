package core

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/chronicle-ai/chronicle/pkg/metrics"
)

type Metrics struct {
	apiResponseTime   *prometheus.HistogramVec
	apiErrorCounter   *prometheus.CounterVec
	embeddingTime     *prometheus.HistogramVec
	searchTime        *prometheus.HistogramVec
	extractionTime    *prometheus.HistogramVec
	ingestedDocuments *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
}

func NewMetrics(ns, system string) *Metrics {
	metrics.SetupMetricsManager(ns, system, prometheus.DefaultRegisterer.(*prometheus.Registry))

	m := &Metrics{
		apiResponseTime:   metrics.NewHistogramVec("api_response_time", []string{"api"}),
		apiErrorCounter:   metrics.NewCounterVec("api_error", []string{"method", "api", "status"}),
		embeddingTime:     metrics.NewHistogramVec("embedding_request_time", nil),
		searchTime:        metrics.NewHistogramVec("vector_search_time", nil),
		extractionTime:    metrics.NewHistogramVec("kg_extraction_time", nil),
		ingestedDocuments: metrics.NewCounterVec("kg_ingested_documents", []string{"status"}),
		cacheHits:         metrics.NewCounterVec("search_cache", []string{"result"}),
	}

	return m
}

func (m *Metrics) ApiResponseTimer(api string) *prometheus.Timer {
	return prometheus.NewTimer(m.apiResponseTime.WithLabelValues(api))
}

func (m *Metrics) ApiErrorInc(method, api string, status int) {
	m.apiErrorCounter.WithLabelValues(method, api, strconv.Itoa(status)).Inc()
}

func (m *Metrics) EmbeddingTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.embeddingTime.WithLabelValues())
}

func (m *Metrics) SearchTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.searchTime.WithLabelValues())
}

func (m *Metrics) ExtractionTimer() *prometheus.Timer {
	return prometheus.NewTimer(m.extractionTime.WithLabelValues())
}

func (m *Metrics) IngestedDocumentInc(status string) {
	m.ingestedDocuments.WithLabelValues(status).Inc()
}

func (m *Metrics) CacheResultInc(result string) {
	m.cacheHits.WithLabelValues(result).Inc()
}
