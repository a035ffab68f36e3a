package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger(t *testing.T) {
	logger := NewLogger("test-component")
	if logger == nil {
		t.Fatal("Expected logger to be created")
	}

	if logger.Data["component"] != "test-component" {
		t.Errorf("Expected component to be 'test-component', got %v", logger.Data["component"])
	}
}

func TestNewLoggerSingleton(t *testing.T) {
	first := NewLogger("singleton-component")
	second := NewLogger("singleton-component")

	if first != second {
		t.Error("Expected the same logger instance for repeated component names")
	}
}

func TestLoggerOutput(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{}})

	entry := logger.WithField("component", "test")
	entry.Info("Test message")

	output := buf.String()

	if !strings.Contains(output, "[INFO]") {
		t.Errorf("Expected output to contain [INFO], got: %s", output)
	}
	if !strings.Contains(output, "[test]") {
		t.Errorf("Expected output to contain [test], got: %s", output)
	}
	if !strings.Contains(output, "Test message") {
		t.Errorf("Expected output to contain 'Test message', got: %s", output)
	}
}

func TestFormatterWarnLevel(t *testing.T) {
	var buf bytes.Buffer

	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&TextFormatter{Config: FormatConfig{DisableTimestamp: true}})

	logger.WithField("component", "test").Warn("careful")

	output := buf.String()
	if !strings.Contains(output, "[WARN]") {
		t.Errorf("Expected output to contain [WARN], got: %s", output)
	}
	if strings.Contains(output, "warning") {
		t.Errorf("Expected warning level to be shortened, got: %s", output)
	}
}

func TestExpandPath(t *testing.T) {
	if got := expandPath("/var/log/quickspell.log"); got != "/var/log/quickspell.log" {
		t.Errorf("Expected absolute path unchanged, got %s", got)
	}

	got := expandPath("~/logs/quickspell.log")
	if strings.HasPrefix(got, "~") {
		t.Errorf("Expected tilde to be expanded, got %s", got)
	}
	if !strings.HasSuffix(got, "logs/quickspell.log") {
		t.Errorf("Expected suffix preserved, got %s", got)
	}
}
