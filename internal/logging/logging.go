// Package logging は zerolog のロガーを組み立てる。
package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// TimeFormat はコンソール出力の時刻フォーマット（[dd/mm/YYYY | HH:MM:SS]）。
const TimeFormat = "02/01/2006 | 15:04:05"

// Config はロガーの設定
type Config struct {
	Level string    // debug, info, warn, error
	JSON  bool      // true なら構造化 JSON、false なら人間向けコンソール形式
	Out   io.Writer // nil なら os.Stderr
}

// New は cfg に従って zerolog.Logger を返す。
// 不正なレベル指定は info として扱う。
func New(cfg Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var w io.Writer = out
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{
			Out:             out,
			NoColor:         !isTerminal(out),
			TimeFormat:      TimeFormat,
			FormatTimestamp: formatTimestamp,
		}
	}

	return zerolog.New(w).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// formatTimestamp はタイムスタンプを "[02/01/2006 | 15:04:05]" 形式にする。
func formatTimestamp(i any) string {
	s, ok := i.(string)
	if !ok {
		return ""
	}
	t, err := time.Parse(zerolog.TimeFieldFormat, s)
	if err != nil {
		return "[" + s + "]"
	}
	return "[" + t.Local().Format(TimeFormat) + "]"
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
