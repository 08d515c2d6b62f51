package tools

import (
	"fmt"
	"regexp"
	"strings"
)

// Inputs は引数ビルダーに渡す呼び出し元の入力。
type Inputs struct {
	Target  string
	Options []string
}

// ArgumentBuilder は Inputs からコマンド名の後ろに続くトークン列を作る。
// 副作用を持たない純粋な写像であること。nil は空のトークン列として扱う。
type ArgumentBuilder interface {
	BuildArguments(in Inputs) []string
}

// BuilderFunc は関数を ArgumentBuilder として使うためのアダプター。
type BuilderFunc func(in Inputs) []string

// BuildArguments は f(in) を返す。
func (f BuilderFunc) BuildArguments(in Inputs) []string { return f(in) }

// tokenRe は "{key}" または "{key!}"（必須マーカー付き）を検出する。
var tokenRe = regexp.MustCompile(`\{(\w+)(!?)\}`)

// templateKeys はテンプレートで使えるキー。
var templateKeys = map[string]bool{"target": true, "url": true, "options": true}

// TemplateBuilder は args_template から CLI 引数を組み立てる ArgumentBuilder。
//
// テンプレートルール:
//   - {target}  : Inputs.Target
//   - {url}     : Inputs.Target（スキームが無ければ "http://" を付与）
//   - {options} : Inputs.Options を要素ごとに独立した引数として展開
//   - {key!}    : 必須。値が空ならそのグループは出力されない（Validate で検出する）
//   - {key} の値が空 → 直前のリテラルごとトークングループを除去（例: "-p {ports}"）
//   - template が空: Options ++ [Target]
type TemplateBuilder struct {
	Template string
}

// BuildArguments はテンプレートを展開する。
func (b TemplateBuilder) BuildArguments(in Inputs) []string {
	values := in.values()
	if strings.TrimSpace(b.Template) == "" {
		var out []string
		out = append(out, in.Options...)
		if in.Target != "" {
			out = append(out, in.Target)
		}
		return out
	}

	var result []string
	for _, group := range splitGroups(b.Template) {
		expanded, skip := expandGroup(group, values)
		if !skip {
			result = append(result, expanded...)
		}
	}
	return result
}

// Validate はテンプレートのキーが既知であること、必須キーが in に揃っていることを検査する。
func (b TemplateBuilder) Validate(in Inputs) error {
	if err := checkTemplateKeys(b.Template); err != nil {
		return err
	}
	values := in.values()
	for _, m := range tokenRe.FindAllStringSubmatch(b.Template, -1) {
		key, required := m[1], m[2] == "!"
		if required && len(values[key]) == 0 {
			return fmt.Errorf("args template: required key %q missing", key)
		}
	}
	return nil
}

func checkTemplateKeys(template string) error {
	for _, m := range tokenRe.FindAllStringSubmatch(template, -1) {
		if !templateKeys[m[1]] {
			return fmt.Errorf("args template: unknown key %q", m[1])
		}
	}
	return nil
}

func (in Inputs) values() map[string][]string {
	v := make(map[string][]string, len(templateKeys))
	if in.Target != "" {
		v["target"] = []string{in.Target}
		v["url"] = []string{toURL(in.Target)}
	}
	if len(in.Options) > 0 {
		v["options"] = in.Options
	}
	return v
}

// toURL はスキームの無いターゲットに http:// を付ける。
func toURL(target string) string {
	if strings.Contains(target, "://") {
		return target
	}
	return "http://" + target
}

// splitGroups はテンプレートを「グループ」に分割する。
// グループとは、{key} を含むトークンと、その直前に置かれたリテラルのまとまり。
// 例: "dir -u {url!} {options}" → ["dir", "-u {url!}", "{options}"]
func splitGroups(template string) []string {
	tokens := strings.Fields(template)
	var groups []string
	for i := 0; i < len(tokens); i++ {
		if !tokenRe.MatchString(tokens[i]) && i+1 < len(tokens) && tokenRe.MatchString(tokens[i+1]) {
			// 次が {key} → 前置リテラルとして同一グループに
			groups = append(groups, tokens[i]+" "+tokens[i+1])
			i++
			continue
		}
		groups = append(groups, tokens[i])
	}
	return groups
}

// expandGroup はグループ内の {key} を展開する。
// トークン全体が {key} の場合は値の要素をそのまま独立した引数にする（空白を含む値も壊さない）。
// 値の無いキーを含むグループは skip=true を返す。
func expandGroup(group string, values map[string][]string) (expanded []string, skip bool) {
	for _, tok := range strings.Fields(group) {
		matches := tokenRe.FindAllStringSubmatch(tok, -1)
		if len(matches) == 0 {
			expanded = append(expanded, tok)
			continue
		}
		if len(matches) == 1 && matches[0][0] == tok {
			vals := values[matches[0][1]]
			if len(vals) == 0 {
				return nil, true
			}
			expanded = append(expanded, vals...)
			continue
		}
		// "--url={url}" のようにリテラルに埋め込まれている場合は文字列置換
		out := tok
		for _, m := range matches {
			vals := values[m[1]]
			if len(vals) == 0 {
				return nil, true
			}
			out = strings.ReplaceAll(out, m[0], strings.Join(vals, ","))
		}
		expanded = append(expanded, out)
	}
	return expanded, false
}
