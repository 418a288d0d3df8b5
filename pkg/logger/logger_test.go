package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/angeloszaimis/target-pool/pkg/logger"
)

var _ = Describe("Logger", func() {
	ctx := context.Background()

	DescribeTable("level filtering",
		func(level string, enabled, disabled slog.Level) {
			log := logger.New(io.Discard, level, false, "dev")

			Expect(log.Enabled(ctx, enabled)).To(BeTrue())
			Expect(log.Enabled(ctx, disabled)).To(BeFalse())
		},
		Entry("info", "info", slog.LevelInfo, slog.LevelDebug),
		Entry("warn", "warn", slog.LevelWarn, slog.LevelInfo),
		Entry("error", "error", slog.LevelError, slog.LevelWarn),
		Entry("uppercase", "WARN", slog.LevelWarn, slog.LevelInfo),
		Entry("unknown falls back to info", "verbose", slog.LevelInfo, slog.LevelDebug),
	)

	It("should enable everything at debug", func() {
		log := logger.New(io.Discard, "debug", false, "dev")
		Expect(log.Enabled(ctx, slog.LevelDebug)).To(BeTrue())
	})

	It("should write JSON in prod", func() {
		var buf bytes.Buffer
		log := logger.New(&buf, "info", false, "prod")

		log.Info("Target evicted", slog.String("target", "http://a:80"))

		var entry map[string]interface{}
		Expect(json.Unmarshal(buf.Bytes(), &entry)).To(Succeed())
		Expect(entry["msg"]).To(Equal("Target evicted"))
		Expect(entry["target"]).To(Equal("http://a:80"))
		Expect(entry["environment"]).To(Equal("prod"))
	})

	It("should write text outside prod", func() {
		var buf bytes.Buffer
		log := logger.New(&buf, "info", false, "staging")

		log.Info("hello")

		Expect(buf.String()).To(ContainSubstring("msg=hello"))
		Expect(buf.String()).To(ContainSubstring("environment=staging"))
	})

	It("should attach the source location when asked", func() {
		var buf bytes.Buffer
		log := logger.New(&buf, "info", true, "dev")

		log.Info("hello")

		Expect(buf.String()).To(ContainSubstring("source="))
	})
})
