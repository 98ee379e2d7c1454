package styles

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"gopkg.in/yaml.v3"
)

// ThemeFile is a custom theme on disk. Colors override the named built-in
// base palette (default when empty); keys left out keep the base color.
//
//	base: nord
//	colors:
//	  primary: "#0EA5E9"
//	  warning: "#F59E0B"
type ThemeFile struct {
	Base   string            `yaml:"base"`
	Colors map[string]string `yaml:"colors"`
}

var hexColor = regexp.MustCompile(`^#([0-9A-Fa-f]{3}|[0-9A-Fa-f]{6})$`)

// colorSlots maps theme file keys to palette fields.
var colorSlots = map[string]func(*ColorPalette) *lipgloss.Color{
	"primary":   func(p *ColorPalette) *lipgloss.Color { return &p.Primary },
	"secondary": func(p *ColorPalette) *lipgloss.Color { return &p.Secondary },
	"warning":   func(p *ColorPalette) *lipgloss.Color { return &p.Warning },
	"error":     func(p *ColorPalette) *lipgloss.Color { return &p.Error },
	"muted":     func(p *ColorPalette) *lipgloss.Color { return &p.Muted },
	"surface":   func(p *ColorPalette) *lipgloss.Color { return &p.Surface },
	"text":      func(p *ColorPalette) *lipgloss.Color { return &p.Text },
	"border":    func(p *ColorPalette) *lipgloss.Color { return &p.Border },
}

// Palette resolves the theme against its base.
func (t *ThemeFile) Palette() (*ColorPalette, error) {
	if t.Base != "" && !IsBuiltinTheme(t.Base) {
		return nil, fmt.Errorf("unknown base theme %q", t.Base)
	}
	p := GetPalette(ThemeName(t.Base), nil)
	keys := make([]string, 0, len(t.Colors))
	for k := range t.Colors {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		slot, ok := colorSlots[k]
		if !ok {
			return nil, fmt.Errorf("unknown color %q", k)
		}
		v := t.Colors[k]
		if !hexColor.MatchString(v) {
			return nil, fmt.Errorf("color %q is %q, want #RGB or #RRGGBB", k, v)
		}
		*slot(p) = lipgloss.Color(v)
	}
	return p, nil
}

// CustomThemes maps theme names to resolved palettes. A nil map holds
// nothing.
type CustomThemes map[ThemeName]*ColorPalette

// Valid reports whether name is a built-in or custom theme.
func (c CustomThemes) Valid(name string) bool {
	return IsBuiltinTheme(name) || c[ThemeName(name)] != nil
}

// DiscoverCustomThemes loads every *.yaml or *.yml file in dir as a theme
// named after the file. Unreadable or invalid files, and files named after
// a built-in theme, are skipped and reported. A missing dir yields no
// themes.
func DiscoverCustomThemes(dir string) (CustomThemes, []error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{fmt.Errorf("reading themes directory: %w", err)}
	}

	themes := make(CustomThemes)
	var errs []error
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		if entry.IsDir() || (ext != ".yaml" && ext != ".yml") {
			continue
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if IsBuiltinTheme(name) {
			errs = append(errs, fmt.Errorf("%s: cannot override built-in theme %q", entry.Name(), name))
			continue
		}
		p, err := loadTheme(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", entry.Name(), err))
			continue
		}
		themes[ThemeName(name)] = p
	}
	return themes, errs
}

func loadTheme(path string) (*ColorPalette, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tf ThemeFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("parsing theme: %w", err)
	}
	return tf.Palette()
}
