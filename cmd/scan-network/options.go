package main

// Options はコマンドラインオプション。タグは github.com/jessevdk/go-flags が解釈する。
type Options struct {
	Config     string `short:"c" long:"config" default:"config/config.yaml" description:"設定ファイル (YAML) のパス"`
	EnvFile    string `long:"env-file" default:".env" description:"読み込む .env ファイル（既存の環境変数が優先）"`
	Provider   string `short:"p" long:"provider" description:"LLM プロバイダー: ollama, openai, anthropic"`
	Model      string `short:"m" long:"model" description:"モデル名（省略時はプロバイダーのデフォルト）"`
	Parallel   bool   `long:"parallel" description:"nmap / nikto / gobuster を並行に実行する"`
	ExitPolicy string `long:"exit-policy" choice:"strict" choice:"ignore" description:"非ゼロ終了コードの扱い"`
	TUI        bool   `long:"tui" description:"進捗を TUI で表示する"`
	LogLevel   string `long:"log-level" description:"ログレベル: debug, info, warn, error"`
	Ask        string `long:"ask" description:"スキャンせずにモデルへ1回だけ質問する（ターゲットとは併用不可）"`
	ListTools  bool   `long:"list-tools" description:"登録済みのツール定義を表示して終了する"`

	Args struct {
		Target string `positional-arg-name:"target" description:"スキャン対象のホストまたは IP アドレス"`
	} `positional-args:"yes"`
}

// apply はフラグで指定された値を設定に上書きする。
func (o *Options) apply(cfg *appConfig) {
	if o.Provider != "" {
		cfg.SetProvider(o.Provider)
	}
	if o.Model != "" {
		cfg.Model.Name = o.Model
	}
	if o.Parallel {
		cfg.Scan.Parallel = true
	}
	if o.ExitPolicy != "" {
		cfg.Scan.ExitPolicy = o.ExitPolicy
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
}
