package logger

import (
	"os"

	zaplogfmt "github.com/jsternberg/zap-logfmt"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger      *zap.Logger
	path        string
	atomicLevel = zap.NewAtomicLevel()
)

// Initialize builds the global zap logger for svc. Every message is written in
// logfmt to stdout and to a rotated file under LOG_PATH.
func Initialize(svc string) {

	if value := viper.Get("LOG_PATH"); value != nil {
		path = value.(string)
	} else {
		path = "/var/log/"
	}

	stdoutCore := zapcore.NewCore(
		zaplogfmt.NewEncoder(ProdEncoderConf()),
		zapcore.Lock(os.Stdout),
		atomicLevel,
	)

	ljWriteSyncer := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path + svc + ".log",
		MaxSize:    512, // megabytes
		MaxBackups: 3,
		MaxAge:     30, // days
	})

	ljCore := zapcore.NewCore(
		zaplogfmt.NewEncoder(ProdEncoderConf()),
		ljWriteSyncer,
		atomicLevel)

	fields := []zap.Field{zap.String(Service, svc)}
	if host, err := os.Hostname(); err == nil {
		fields = append(fields, zap.String(Hostname, host))
	}

	logger = zap.New(zapcore.NewTee(stdoutCore, ljCore), zap.AddCaller(), zap.Fields(fields...))

	zap.ReplaceGlobals(logger)
}

func Flush() {
	if logger != nil {
		logger.Sync()
	}
}

func SetLevel(l string) {
	atomicLevel.SetLevel(parseLevel(l))
}

func GetLevel() string {
	return atomicLevel.Level().String()
}

func parseLevel(l string) zapcore.Level {
	switch l {
	case "debug":
		return zap.DebugLevel
	case "info":
		return zap.InfoLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

func ProdEncoderConf() zapcore.EncoderConfig {
	encConf := zap.NewProductionEncoderConfig()
	encConf.EncodeTime = zapcore.RFC3339TimeEncoder

	return encConf
}
