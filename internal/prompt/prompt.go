// Package prompt はスキャン結果を埋め込んだ LLM 向けプロンプトを組み立てる。
package prompt

import (
	"strings"
	"text/template"
)

// Prompts はネットワーク列挙フェーズで作る2つのプロンプト。
type Prompts struct {
	PortAnalysis   string
	WebAppAnalysis string
}

var portAnalysisTmpl = template.Must(template.New("port_analysis").Parse(`You're a skilled penetration tester.
Identify services and ports that may be vulnerable to exploitation based on the following nmap scan results.

For each service/port:
- Describe the vulnerability or misconfiguration.
- Explain how an attacker might exploit it (e.g., tools, techniques).
- Recommend defensive countermeasures.

Nmap Output:
` + "```" + `
{{.Nmap}}
` + "```" + `
`))

var webAppAnalysisTmpl = template.Must(template.New("web_app_analysis").Parse(`You're a penetration tester specializing in web application security.
Analyze the scan results below and identify directories and known vulnerabilities that an attacker could target.

For each finding:
- Describe its significance and known CVEs (if applicable).
- Suggest exploitation paths (e.g., brute-forcing admin panels, parameter tampering, directory traversal).
- Recommend fixes or mitigations.

Nikto Output:
` + "```" + `
{{.Nikto}}
` + "```" + `

Gobuster Output:
` + "```" + `
{{.Gobuster}}
` + "```" + `
`))

var reportTmpl = template.Must(template.New("vulnerability_report").Parse(`You're preparing a penetration testing report based on recent reconnaissance and vulnerability scans.

Using the following assessments, provide a detailed vulnerability report that includes:
- Key exploitable vulnerabilities.
- Likely attack chains or entry points.
- Exploitation methodology: how each could be leveraged to compromise the system.
- Suggested remediations and security enhancements.

Port Analysis:
` + "```" + `
{{.Port}}
` + "```" + `

Web Application Analysis:
` + "```" + `
{{.Web}}
` + "```" + `
`))

// NetworkEnumeration は nmap / nikto / gobuster の出力からポート解析と Web 解析のプロンプトを作る。
// 出力は空でも構わない（空のコードブロックになる）。
func NetworkEnumeration(nmap, nikto, gobuster string) Prompts {
	return Prompts{
		PortAnalysis: render(portAnalysisTmpl, struct{ Nmap string }{strings.TrimRight(nmap, "\n")}),
		WebAppAnalysis: render(webAppAnalysisTmpl, struct{ Nikto, Gobuster string }{
			strings.TrimRight(nikto, "\n"),
			strings.TrimRight(gobuster, "\n"),
		}),
	}
}

// VulnerabilityReport は2つの解析結果から最終レポート用のプロンプトを作る。
func VulnerabilityReport(portAnalysis, webAppAnalysis string) string {
	return render(reportTmpl, struct{ Port, Web string }{
		strings.TrimRight(portAnalysis, "\n"),
		strings.TrimRight(webAppAnalysis, "\n"),
	})
}

func render(t *template.Template, data any) string {
	var sb strings.Builder
	// テンプレートは固定でフィールドも string のみなので Execute は失敗しない
	_ = t.Execute(&sb, data)
	return sb.String()
}
