// Package wxconfig reconstructs app.json, per-page .json, and
// project.config.json from a compiled wxapkg app-config.json, the
// __wxAppCode__ JSON literals embedded in app-service.js, and any loose
// *.json files already present in the unpacked tree.
package wxconfig

// PageConfig is one page's restored configuration. Zero-valued fields are
// omitted from the emitted JSON.
type PageConfig struct {
	NavigationBarTitleText      string            `json:"navigationBarTitleText,omitempty"`
	NavigationBarBackgroundColor string           `json:"navigationBarBackgroundColor,omitempty"`
	NavigationBarTextStyle      string            `json:"navigationBarTextStyle,omitempty"`
	BackgroundColor             string            `json:"backgroundColor,omitempty"`
	BackgroundTextStyle         string            `json:"backgroundTextStyle,omitempty"`
	EnablePullDownRefresh       bool              `json:"enablePullDownRefresh,omitempty"`
	UsingComponents              map[string]string `json:"usingComponents,omitempty"`
}

// IsEmpty reports whether every field holds its zero value, matching the
// reference restorer's "only emit non-empty page configs" rule.
func (p *PageConfig) IsEmpty() bool {
	return p.NavigationBarTitleText == "" &&
		p.NavigationBarBackgroundColor == "" &&
		p.NavigationBarTextStyle == "" &&
		p.BackgroundColor == "" &&
		p.BackgroundTextStyle == "" &&
		!p.EnablePullDownRefresh &&
		len(p.UsingComponents) == 0
}

// TabBarItem is one entry in a TabBar's list.
type TabBarItem struct {
	PagePath         string `json:"pagePath"`
	Text             string `json:"text"`
	IconPath         string `json:"iconPath,omitempty"`
	SelectedIconPath string `json:"selectedIconPath,omitempty"`
}

// TabBar is the restored tabBar block of app.json.
type TabBar struct {
	Color           string       `json:"color,omitempty"`
	SelectedColor   string       `json:"selectedColor,omitempty"`
	BackgroundColor string       `json:"backgroundColor,omitempty"`
	BorderStyle     string       `json:"borderStyle,omitempty"`
	Position        string       `json:"position,omitempty"`
	List            []TabBarItem `json:"list,omitempty"`
}

// AppConfig is the restored app.json.
type AppConfig struct {
	Pages        []string       `json:"pages,omitempty"`
	Window       map[string]any `json:"window,omitempty"`
	TabBar       *TabBar        `json:"tabBar,omitempty"`
	Subpackages  []any          `json:"subpackages,omitempty"`
	Plugins      map[string]any `json:"plugins,omitempty"`
}

// ProjectConfig is the fixed project.config.json template.
type ProjectConfig struct {
	Description string         `json:"description"`
	PackOptions map[string]any `json:"packOptions"`
	Setting     map[string]any `json:"setting"`
	CompileType string         `json:"compileType"`
	AppID       string         `json:"appid"`
	ProjectName string         `json:"projectname"`
}
