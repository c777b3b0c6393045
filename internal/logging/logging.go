package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New はアプリケーション全体で使うロガーを作成します。
// production では JSON 形式、それ以外は人が読みやすいコンソール形式で出力します。
// level が解釈できない場合は error レベルになります。
func New(appEnv, level string) (*zap.Logger, error) {
	var cfg zap.Config
	if appEnv == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	return cfg.Build()
}

// ParseLevel は debug|info|warn|error をログレベルに変換します。
func ParseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return zapcore.ErrorLevel
	}
	return l
}
