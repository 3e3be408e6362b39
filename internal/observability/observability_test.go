package observability_test

import (
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap/zapcore"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/observability"
)

var _ = Describe("Metrics", func() {
	It("counts requests, errors and transition outcomes", func() {
		m := observability.NewMetrics()
		m.RecordRequest("/api/v1/tickets", http.MethodPost, http.StatusCreated, time.Millisecond)
		m.RecordRequest("/api/v1/tickets", http.MethodPost, http.StatusCreated, time.Millisecond)
		m.RecordError("/api/v1/tickets/:id/transitions", http.MethodPost, "COMMENT_REQUIRED")
		m.RecordTransition("ok")
		m.RecordTransition("COMMENT_REQUIRED")
		m.RecordTransition("ok")
		m.RecordDeadlineProjection()

		snap := m.Snapshot()
		Expect(snap["requests"]).To(HaveKeyWithValue("/api/v1/tickets|POST|201", int64(2)))
		Expect(snap["errors"]).To(HaveKeyWithValue("/api/v1/tickets/:id/transitions|POST|COMMENT_REQUIRED", int64(1)))
		Expect(snap["transitions"]).To(Equal(map[string]int64{"ok": 2, "COMMENT_REQUIRED": 1}))
		Expect(snap["projections"]).To(HaveKeyWithValue("total", int64(1)))
	})

	It("is a no-op when nil", func() {
		var m *observability.Metrics
		m.RecordTransition("ok")
		Expect(m.Snapshot()).To(BeNil())
	})
})

var _ = Describe("NewLogger", func() {
	It("falls back to info on an unknown level", func() {
		logger, err := observability.NewLogger(config.AppConfig{Name: "helpdesk"}, config.LoggerConfig{Level: "loud"})
		Expect(err).NotTo(HaveOccurred())
		Expect(logger.Core().Enabled(zapcore.InfoLevel)).To(BeTrue())
		Expect(logger.Core().Enabled(zapcore.DebugLevel)).To(BeFalse())
	})

	It("honours debug level and console format", func() {
		logger, err := observability.NewLogger(config.AppConfig{Name: "helpdesk", Env: "development"}, config.LoggerConfig{Level: "DEBUG", Format: "console"})
		Expect(err).NotTo(HaveOccurred())
		Expect(logger.Core().Enabled(zapcore.DebugLevel)).To(BeTrue())
	})
})
