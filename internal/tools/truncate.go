package tools

import (
	"fmt"
	"strings"
)

// TruncateConfig はプロンプトに埋め込むツール出力の切り捨て設定。
type TruncateConfig struct {
	HeadLines int // 先頭から残す行数
	TailLines int // 末尾から残す行数
}

// DefaultTruncateConfig はツール定義に prompt 設定が無いときの既定値。
// nmap -p- の全ポート出力でも通常は収まる大きさにしている。
var DefaultTruncateConfig = TruncateConfig{
	HeadLines: 400,
	TailLines: 100,
}

// Truncate は text の先頭 HeadLines 行 + 末尾 TailLines 行を残し、中間を省略する。
// 合計行数が収まる場合は text をそのまま返す。
func Truncate(text string, cfg TruncateConfig) string {
	if text == "" {
		return ""
	}
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	total := len(lines)
	head, tail := cfg.HeadLines, cfg.TailLines
	if head < 0 || tail < 0 || head+tail >= total {
		return text
	}

	omitted := total - head - tail
	var sb strings.Builder
	for _, l := range lines[:head] {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "\n--- %d lines omitted ---\n\n", omitted)
	for _, l := range lines[total-tail:] {
		sb.WriteString(l)
		sb.WriteByte('\n')
	}
	return sb.String()
}
