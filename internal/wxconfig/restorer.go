package wxconfig

import (
	"bytes"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

var appCodeConfigPattern = regexp.MustCompile(
	`__wxAppCode__\s*\[\s*["']([^"']+\.json)["']\s*\]\s*=\s*(\{[^}]*\})`,
)

var wxidSegmentPattern = regexp.MustCompile(`^wx[0-9a-f]{16}$`)

// Restorer reconstructs configuration files from an unpacked wxapkg tree.
type Restorer struct {
	baseDir     string
	appConfig   *AppConfig
	pageConfigs map[string]*PageConfig
	pageOrder   []string
}

// New creates a Restorer rooted at the given unpacked tree.
func New(baseDir string) *Restorer {
	return &Restorer{baseDir: baseDir, pageConfigs: make(map[string]*PageConfig)}
}

// Restore runs the primary (app-config.json), secondary (__wxAppCode__ JSON
// literals), and tertiary (loose *.json scan) sources in order, then
// synthesises the output file set.
func (r *Restorer) Restore() (map[string]string, error) {
	if content, err := os.ReadFile(filepath.Join(r.baseDir, "app-config.json")); err == nil {
		r.parseAppConfig(content)
	}
	if content, err := os.ReadFile(filepath.Join(r.baseDir, "app-service.js")); err == nil {
		r.extractFromAppService(string(content))
	}
	if err := r.scanJSONFiles(); err != nil {
		return nil, err
	}

	return r.build()
}

func (r *Restorer) parseAppConfig(content []byte) {
	var raw map[string]any
	if err := json.Unmarshal(content, &raw); err != nil {
		return
	}

	cfg := &AppConfig{}
	if pages, ok := raw["pages"].([]any); ok {
		for _, p := range pages {
			if s, ok := p.(string); ok {
				cfg.Pages = append(cfg.Pages, s)
			}
		}
	}
	if window, ok := raw["window"].(map[string]any); ok {
		cfg.Window = window
	}
	if tb, ok := raw["tabBar"].(map[string]any); ok {
		cfg.TabBar = decodeTabBar(tb)
	}
	if sub, ok := raw["subPackages"].([]any); ok {
		cfg.Subpackages = sub
	} else if sub, ok := raw["subpackages"].([]any); ok {
		cfg.Subpackages = sub
	}
	if plugins, ok := raw["plugins"].(map[string]any); ok {
		cfg.Plugins = plugins
	}
	r.appConfig = cfg

	if pageMap, ok := raw["page"].(map[string]any); ok {
		keys := make([]string, 0, len(pageMap))
		for k := range pageMap {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, pagePath := range keys {
			fields, ok := pageMap[pagePath].(map[string]any)
			if !ok {
				continue
			}
			r.setPageConfig(pagePath, decodePageConfig(fields))
		}
	}
}

func decodeTabBar(tb map[string]any) *TabBar {
	bar := &TabBar{
		Color:           stringField(tb, "color"),
		SelectedColor:   stringField(tb, "selectedColor"),
		BackgroundColor: stringField(tb, "backgroundColor"),
		BorderStyle:     stringField(tb, "borderStyle"),
		Position:        stringField(tb, "position"),
	}
	if list, ok := tb["list"].([]any); ok {
		for _, item := range list {
			fields, ok := item.(map[string]any)
			if !ok {
				continue
			}
			bar.List = append(bar.List, TabBarItem{
				PagePath:         stringField(fields, "pagePath"),
				Text:             stringField(fields, "text"),
				IconPath:         stringField(fields, "iconPath"),
				SelectedIconPath: stringField(fields, "selectedIconPath"),
			})
		}
	}
	return bar
}

func decodePageConfig(fields map[string]any) *PageConfig {
	pc := &PageConfig{
		NavigationBarTitleText:       stringField(fields, "navigationBarTitleText"),
		NavigationBarBackgroundColor: stringField(fields, "navigationBarBackgroundColor"),
		NavigationBarTextStyle:       stringField(fields, "navigationBarTextStyle"),
		BackgroundColor:              stringField(fields, "backgroundColor"),
		BackgroundTextStyle:          stringField(fields, "backgroundTextStyle"),
	}
	if v, ok := fields["enablePullDownRefresh"].(bool); ok {
		pc.EnablePullDownRefresh = v
	}
	if uc, ok := fields["usingComponents"].(map[string]any); ok {
		pc.UsingComponents = make(map[string]string, len(uc))
		for k, v := range uc {
			if s, ok := v.(string); ok {
				pc.UsingComponents[k] = s
			}
		}
	}
	return pc
}

func stringField(m map[string]any, key string) string {
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func (r *Restorer) extractFromAppService(content string) {
	for _, m := range appCodeConfigPattern.FindAllStringSubmatchIndex(content, -1) {
		jsonPath := content[m[2]:m[3]]
		// The pattern only locates the literal's opening brace; decode one
		// full JSON value from there so nested objects (window,
		// usingComponents) are kept.
		var fields map[string]any
		if err := json.NewDecoder(strings.NewReader(content[m[4]:])).Decode(&fields); err != nil {
			continue
		}

		if jsonPath == "app.json" {
			if r.appConfig == nil {
				cfg := &AppConfig{Window: nil}
				if pages, ok := fields["pages"].([]any); ok {
					for _, p := range pages {
						if s, ok := p.(string); ok {
							cfg.Pages = append(cfg.Pages, s)
						}
					}
				}
				if window, ok := fields["window"].(map[string]any); ok {
					cfg.Window = window
				}
				r.appConfig = cfg
			}
			continue
		}

		pagePath := strings.TrimSuffix(jsonPath, ".json")
		if _, exists := r.pageConfigs[pagePath]; exists {
			continue
		}
		pc := &PageConfig{}
		if uc, ok := fields["usingComponents"].(map[string]any); ok {
			pc.UsingComponents = make(map[string]string, len(uc))
			for k, v := range uc {
				if s, ok := v.(string); ok {
					pc.UsingComponents[k] = s
				}
			}
		}
		r.setPageConfig(pagePath, pc)
	}
}

func (r *Restorer) scanJSONFiles() error {
	return filepath.WalkDir(r.baseDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil //nolint:nilerr // best-effort scan
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".json") {
			return nil
		}
		name := filepath.Base(path)
		if name == "app-config.json" || name == "project.config.json" || name == "sitemap.json" {
			return nil
		}

		content, rerr := os.ReadFile(path)
		if rerr != nil {
			return nil
		}
		var fields map[string]any
		if jerr := json.Unmarshal(content, &fields); jerr != nil {
			return nil
		}

		_, hasUsing := fields["usingComponents"]
		_, hasTitle := fields["navigationBarTitleText"]
		if !hasUsing && !hasTitle {
			return nil
		}

		rel, rerr := filepath.Rel(r.baseDir, path)
		if rerr != nil {
			return nil
		}
		pagePath := strings.TrimSuffix(filepath.ToSlash(rel), ".json")
		if _, exists := r.pageConfigs[pagePath]; exists {
			return nil
		}

		pc := &PageConfig{NavigationBarTitleText: stringField(fields, "navigationBarTitleText")}
		if uc, ok := fields["usingComponents"].(map[string]any); ok {
			pc.UsingComponents = make(map[string]string, len(uc))
			for k, v := range uc {
				if s, ok := v.(string); ok {
					pc.UsingComponents[k] = s
				}
			}
		}
		r.setPageConfig(pagePath, pc)
		return nil
	})
}

func (r *Restorer) setPageConfig(pagePath string, pc *PageConfig) {
	if _, exists := r.pageConfigs[pagePath]; exists {
		return
	}
	r.pageConfigs[pagePath] = pc
	r.pageOrder = append(r.pageOrder, pagePath)
}

func (r *Restorer) build() (map[string]string, error) {
	result := make(map[string]string)

	if r.appConfig != nil {
		encoded, err := marshalIndent(r.appConfig)
		if err != nil {
			return nil, err
		}
		result["app.json"] = encoded
	}

	for _, pagePath := range r.pageOrder {
		pc := r.pageConfigs[pagePath]
		if pc.IsEmpty() {
			continue
		}
		encoded, err := marshalIndent(pc)
		if err != nil {
			return nil, err
		}
		result[pagePath+".json"] = encoded
	}

	if r.appConfig != nil && len(r.appConfig.Pages) > 0 {
		appID := resolveAppID(r.baseDir)
		projectName := appID
		if projectName == "" {
			projectName = "miniprogram"
		}
		project := ProjectConfig{
			Description: "项目配置文件",
			PackOptions: map[string]any{"ignore": []any{}},
			Setting: map[string]any{
				"urlCheck": true,
				"es6":      true,
				"postcss":  true,
				"minified": true,
			},
			CompileType: "miniprogram",
			AppID:       appID,
			ProjectName: projectName,
		}
		encoded, err := marshalIndent(project)
		if err != nil {
			return nil, err
		}
		result["project.config.json"] = encoded
	}

	return result, nil
}

// resolveAppID scans the path segments of dir for the first 18-character
// wx-prefixed identifier, matching the reference restorer's appid inference.
func resolveAppID(dir string) string {
	for _, part := range strings.Split(filepath.ToSlash(dir), "/") {
		if len(part) == 18 && wxidSegmentPattern.MatchString(part) {
			return part
		}
	}
	return ""
}

// marshalIndent renders v as 2-space indented JSON with non-ASCII
// characters preserved literally, matching json.dumps(ensure_ascii=False)
// in the reference restorer.
func marshalIndent(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Save writes every restored config file under outputDir.
func Save(configs map[string]string, outputDir string) (int, error) {
	count := 0
	paths := make([]string, 0, len(configs))
	for p := range configs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		dest := filepath.Join(outputDir, filepath.FromSlash(p))
		if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
			return count, err
		}
		if err := os.WriteFile(dest, []byte(configs[p]), 0o644); err != nil {
			return count, err
		}
		count++
	}
	return count, nil
}
