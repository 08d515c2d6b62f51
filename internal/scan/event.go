package scan

// EventType は Pipeline から TUI へ送るイベントの種別。
type EventType string

const (
	// EventLog は通常の進捗ログ行。
	EventLog EventType = "log"
	// EventStageStart はステージ（ツール実行・LLM 問い合わせ）の開始。
	EventStageStart EventType = "stage_start"
	// EventStageDone はステージの完了。Message に保存先ファイルが入る。
	EventStageDone EventType = "stage_done"
	// EventError はステージの失敗（リカバリー済みのものも含む）。
	EventError EventType = "error"
)

// Event は Pipeline から TUI へ送るメッセージ。
type Event struct {
	Type    EventType
	Stage   string
	Message string
}

// emit は Event を送る（ノンブロッキング、バッファが溢れたら捨てる）。
func (p *Pipeline) emit(e Event) {
	if p.events == nil {
		return
	}
	select {
	case p.events <- e:
	default:
		// TUI が処理しきれない場合は捨てる（ログのドロップは許容）
	}
}
