package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Manager Logger 管理器（管理多个模块 Logger 实例）
type Manager struct {
	baseConfig ManagerConfig
	loggers    map[string]*CtxZapLogger        // module -> CtxZapLogger
	zapLoggers map[string]*zap.Logger          // module -> underlying zap.Logger
	writers    map[string][]*lumberjack.Logger // module -> file writers (closed on CloseAll)
	mu         sync.RWMutex
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// NewManager creates an independent Manager.
// Zero-valued fields in cfg are filled with defaults.
func NewManager(cfg ManagerConfig) *Manager {
	cfg.ApplyDefaults()
	return &Manager{
		baseConfig: cfg,
		loggers:    make(map[string]*CtxZapLogger),
		zapLoggers: make(map[string]*zap.Logger),
		writers:    make(map[string][]*lumberjack.Logger),
	}
}

// InitManager initializes the global manager (first call wins)
func InitManager(cfg ManagerConfig) {
	managerOnce.Do(func() {
		globalManager = NewManager(cfg)
	})
}

// GetLogger returns the module logger, creating it on first use.
// The returned logger already carries the module field.
func (m *Manager) GetLogger(moduleName string) *CtxZapLogger {
	m.mu.RLock()
	if l, exists := m.loggers[moduleName]; exists {
		m.mu.RUnlock()
		return l
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double check
	if l, exists := m.loggers[moduleName]; exists {
		return l
	}

	zapLogger := m.createLogger(moduleName).With(zap.String("module", moduleName))

	ctxLogger := &CtxZapLogger{
		base:   zapLogger.WithOptions(zap.AddCallerSkip(1)),
		module: moduleName,
		config: &m.baseConfig,
	}

	m.loggers[moduleName] = ctxLogger
	m.zapLoggers[moduleName] = zapLogger

	return ctxLogger
}

// createLogger builds console and rotating file cores for one module
func (m *Manager) createLogger(moduleName string) *zap.Logger {
	cfg := m.baseConfig
	encoder := createEncoder(cfg.Encoding)
	level := ParseLevel(cfg.Level)

	var cores []zapcore.Core

	if cfg.EnableConsole {
		cores = append(cores, zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level))
	}

	if cfg.EnableFile {
		var writers []*lumberjack.Logger

		infoWriter, infoLumber := createFileWriter(cfg.infoFilePath(moduleName), cfg)
		writers = append(writers, infoLumber)
		// info file: configured level up to (but excluding) error
		cores = append(cores, zapcore.NewCore(encoder, infoWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= level && lvl < zapcore.ErrorLevel
			})))

		errorWriter, errorLumber := createFileWriter(cfg.errorFilePath(moduleName), cfg)
		writers = append(writers, errorLumber)
		cores = append(cores, zapcore.NewCore(encoder, errorWriter,
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
				return lvl >= zapcore.ErrorLevel
			})))

		m.writers[moduleName] = writers
	}

	opts := []zap.Option{}
	if cfg.EnableCaller {
		opts = append(opts, zap.AddCaller())
	}

	return zap.New(zapcore.NewTee(cores...), opts...)
}

// CloseAll flushes buffers and closes every file handle
func (m *Manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, l := range m.zapLoggers {
		_ = l.Sync()
	}

	for _, writers := range m.writers {
		for _, w := range writers {
			_ = w.Close()
		}
	}

	m.loggers = make(map[string]*CtxZapLogger)
	m.zapLoggers = make(map[string]*zap.Logger)
	m.writers = make(map[string][]*lumberjack.Logger)
}

func createEncoder(encoding string) zapcore.Encoder {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		MessageKey:     "msg",
		CallerKey:      "caller",
		StacktraceKey:  "stack",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	if encoding == "console" {
		return zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zapcore.NewJSONEncoder(encoderConfig)
}

// createFileWriter returns a rotating writer and its lumberjack handle
func createFileWriter(filename string, cfg ManagerConfig) (zapcore.WriteSyncer, *lumberjack.Logger) {
	_ = os.MkdirAll(filepath.Dir(filename), 0755)

	lumberLogger := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
		Compress:   cfg.Compress,
		LocalTime:  true,
	}

	return zapcore.AddSync(lumberLogger), lumberLogger
}

// GetLogger returns a module logger from the global manager
func GetLogger(moduleName string) *CtxZapLogger {
	InitManager(DefaultManagerConfig())
	return globalManager.GetLogger(moduleName)
}

// CloseAll closes the global manager's loggers (call on exit)
func CloseAll() {
	if globalManager == nil {
		return
	}
	globalManager.CloseAll()
}
