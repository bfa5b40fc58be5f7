package config

import "strings"

// DisplayOptions toggles parts of an explorer view. It is parsed from the
// "key:value;key:value" strings embedders attach to an explorer.
type DisplayOptions struct {
	Navbar       bool              `json:"navbar"`
	Type         bool              `json:"type"`
	Modified     bool              `json:"modified"`
	Size         bool              `json:"size"`
	Search       bool              `json:"search"`
	DirectoryBar bool              `json:"directorybar"`
	Icons        bool              `json:"icons"`
	TopBar       bool              `json:"topbar"`
	Labels       bool              `json:"labels"`
	LabelText    map[string]string `json:"label_text"`
}

// DefaultDisplayOptions enables everything with the stock column labels.
func DefaultDisplayOptions() DisplayOptions {
	return DisplayOptions{
		Navbar:       true,
		Type:         true,
		Modified:     true,
		Size:         true,
		Search:       true,
		DirectoryBar: true,
		Icons:        true,
		TopBar:       true,
		Labels:       true,
		LabelText: map[string]string{
			"name":     "Name",
			"modified": "Date Modified",
			"type":     "Type",
			"size":     "Size",
		},
	}
}

// ParseDisplayOptions applies s on top of the defaults. Keys are
// case-insensitive; a bare key switches its option on, any value other than
// "true" switches it off. "labels.<column>" keys override column labels when
// given a value. Unknown keys are ignored.
func ParseDisplayOptions(s string) DisplayOptions {
	opts := DefaultDisplayOptions()
	if s == "" {
		return opts
	}

	for _, pair := range strings.Split(s, ";") {
		parts := strings.Split(pair, ":")
		key := strings.ToLower(strings.TrimSpace(parts[0]))
		if key == "" {
			continue
		}
		var value string
		if len(parts) > 1 {
			value = strings.TrimSpace(parts[1])
		}

		if label, ok := strings.CutPrefix(key, "labels."); ok {
			if value != "" {
				opts.LabelText[label] = value
			}
			continue
		}

		flag := opts.flag(key)
		if flag == nil {
			continue
		}
		*flag = value == "" || strings.ToLower(value) == "true"
	}
	return opts
}

func (o *DisplayOptions) flag(key string) *bool {
	switch key {
	case "navbar":
		return &o.Navbar
	case "type":
		return &o.Type
	case "modified":
		return &o.Modified
	case "size":
		return &o.Size
	case "search":
		return &o.Search
	case "directorybar":
		return &o.DirectoryBar
	case "icons":
		return &o.Icons
	case "topbar":
		return &o.TopBar
	case "labels":
		return &o.Labels
	}
	return nil
}
