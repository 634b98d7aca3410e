package zaplog

import (
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNewFactory(t *testing.T) {
	f, err := NewFactory(zapcore.ErrorLevel)
	if err != nil {
		t.Fatalf("NewFactory() error: %v", err)
	}
	if f.Base == nil {
		t.Fatal("Base is nil")
	}
	log := f.NewLogger("test")
	// Below the configured level; must be silent and must not panic.
	log.Tracef("trace %d", 1)
	log.Debugf("debug %d", 2)
	log.Infof("info %d", 3)
	log.Warnf("warn %d", 4)
}

func TestNilBaseIsSilent(t *testing.T) {
	f := &Factory{}
	log := f.NewLogger("test")
	log.Trace("a")
	log.Debug("b")
	log.Info("c")
	log.Warn("d")
	log.Error("e")
	if err := f.Sync(); err != nil {
		t.Errorf("Sync() error: %v", err)
	}
}

func TestScopedLoggers(t *testing.T) {
	f := &Factory{Base: zap.NewNop()}
	a := f.NewLogger("transport")
	b := f.NewLogger("exchange")
	if a == nil || b == nil {
		t.Fatal("NewLogger returned nil")
	}
	a.Errorf("from %s", "a")
	b.Errorf("from %s", "b")
}
