package tools

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed defaults/*.yaml
var defaultDefs embed.FS

// Registry はロード済みツール定義を管理する。
// 組み込み定義（nmap / nikto / gobuster）の上に tools_dir の YAML を重ねる。
type Registry struct {
	defs map[string]*ToolDef
}

// NewRegistry は空の Registry を返す。
func NewRegistry() *Registry {
	return &Registry{defs: make(map[string]*ToolDef)}
}

// NewDefaultRegistry は組み込み定義をロード済みの Registry を返す。
func NewDefaultRegistry() (*Registry, error) {
	r := NewRegistry()
	err := fs.WalkDir(defaultDefs, "defaults", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := defaultDefs.ReadFile(path)
		if err != nil {
			return err
		}
		if err := r.load(data); err != nil {
			return fmt.Errorf("builtin %s: %w", path, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// LoadDir は dir 以下の *.yaml / *.yml ファイルをロードして定義を登録（上書き）する。
// ディレクトリが存在しなくてもエラーにはしない（起動時の柔軟性）。
func (r *Registry) LoadDir(dir string) error {
	if dir == "" {
		return nil
	}
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !(strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml")) {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		if err := r.load(data); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		return nil
	})
}

func (r *Registry) load(data []byte) error {
	var def ToolDef
	if err := yaml.Unmarshal(data, &def); err != nil {
		return fmt.Errorf("parse yaml: %w", err)
	}
	if err := def.Validate(); err != nil {
		return err
	}
	r.Register(&def)
	return nil
}

// Register は ToolDef を登録する。同名の定義は上書きする。
func (r *Registry) Register(def *ToolDef) {
	r.defs[def.Name] = def
}

// Get は名前で ToolDef を返す。
func (r *Registry) Get(name string) (*ToolDef, bool) {
	d, ok := r.defs[name]
	return d, ok
}

// All は登録済みの全 ToolDef を名前順で返す。
func (r *Registry) All() []*ToolDef {
	result := make([]*ToolDef, 0, len(r.defs))
	for _, d := range r.defs {
		result = append(result, d)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
