package wizard

// EmptyTabsMessage is shown when a step's property map hides every tab.
const EmptyTabsMessage = "No available tabs based on the selected properties."

// FilterTabs returns the tabs whose ID is empty, absent from props, or mapped
// to true in props. Order is preserved and tabs is not modified.
func FilterTabs(tabs []Tab, props map[string]any) []Tab {
	visible := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.ID == "" {
			visible = append(visible, t)
			continue
		}
		v, ok := props[t.ID]
		if !ok {
			visible = append(visible, t)
			continue
		}
		if on, isBool := v.(bool); isBool && on {
			visible = append(visible, t)
		}
	}
	return visible
}

// SelectTab returns current when it is still visible, otherwise the first
// visible tab's title, or "" when nothing is visible.
func SelectTab(visible []Tab, current string) string {
	for _, t := range visible {
		if t.Title == current {
			return current
		}
	}
	if len(visible) == 0 {
		return ""
	}
	return visible[0].Title
}

// Properties interprets a data value as a property map. Anything that is not
// a map yields an empty map.
func Properties(v any) map[string]any {
	switch t := v.(type) {
	case map[string]any:
		return t
	case Data:
		return t
	case map[string]bool:
		out := make(map[string]any, len(t))
		for k, b := range t {
			out[k] = b
		}
		return out
	}
	return map[string]any{}
}

// VisibleTabs returns the visible tabs of a step. A step without a
// visibility declaration shows all of its tabs. The upstream property map is
// read live, whether or not its step is confirmed.
func (m *Machine) VisibleTabs(stepIndex int) []Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.inRange(stepIndex) {
		return nil
	}
	s := m.steps[stepIndex]
	if s.Visibility == nil {
		return append([]Tab(nil), s.Tabs...)
	}
	v, _ := m.lookup(*s.Visibility)
	return FilterTabs(s.Tabs, Properties(v))
}
