package logging_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/kioku-app/kioku/pkg/utils/logging"
	"github.com/m-mizutani/gt"
)

func TestLevelFiltering(t *testing.T) {
	testCases := map[string]struct {
		level  string
		hidden []string
		shown  []string
	}{
		"debug shows everything": {
			level: "debug",
			shown: []string{"debug msg", "info msg", "error msg"},
		},
		"info hides debug": {
			level:  "info",
			hidden: []string{"debug msg"},
			shown:  []string{"info msg", "error msg"},
		},
		"warning alias accepted": {
			level:  "WARNING",
			hidden: []string{"debug msg", "info msg"},
			shown:  []string{"warn msg", "error msg"},
		},
		"unknown level falls back to info": {
			level:  "verbose",
			hidden: []string{"debug msg"},
			shown:  []string{"info msg"},
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := logging.New(tc.level, buf)

			logger.Debug("debug msg")
			logger.Info("info msg")
			logger.Warn("warn msg")
			logger.Error("error msg")

			out := buf.String()
			for _, msg := range tc.shown {
				gt.S(t, out).Contains(msg)
			}
			for _, msg := range tc.hidden {
				gt.S(t, out).NotContains(msg)
			}
		})
	}
}

func TestContextLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := logging.New("debug", buf).With("component", "retrieval")

	ctx := logging.With(context.Background(), logger)
	gt.Equal(t, logging.From(ctx), logger)

	logging.From(ctx).Info("ranked results")
	gt.S(t, buf.String()).Contains("ranked results")
	gt.S(t, buf.String()).Contains("retrieval")
}

func TestFromWithoutLogger(t *testing.T) {
	gt.V(t, logging.From(context.Background())).NotNil()
}

func TestSetDefault(t *testing.T) {
	original := logging.Default()
	defer logging.SetDefault(original)

	buf := &bytes.Buffer{}
	replacement := logging.New("debug", buf)
	logging.SetDefault(replacement)

	gt.Equal(t, logging.Default(), replacement)

	// From falls back to the replaced default when ctx carries no logger
	logging.From(context.Background()).Info("via default")
	gt.S(t, buf.String()).Contains("via default")
}
