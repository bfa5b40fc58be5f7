package config

import "testing"

func TestParseDisplayOptions(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		check func(DisplayOptions) bool
	}{
		{"empty keeps defaults", "", func(o DisplayOptions) bool {
			return o.Navbar && o.Icons && o.LabelText["modified"] == "Date Modified"
		}},
		{"false disables", "navbar:false;icons:no", func(o DisplayOptions) bool {
			return !o.Navbar && !o.Icons && o.Search
		}},
		{"bare key enables", "size:false;size", func(o DisplayOptions) bool {
			return o.Size
		}},
		{"case insensitive", " TopBar : TRUE ; Search:False", func(o DisplayOptions) bool {
			return o.TopBar && !o.Search
		}},
		{"label override", "labels.name:File;labels.size:", func(o DisplayOptions) bool {
			return o.LabelText["name"] == "File" && o.LabelText["size"] == "Size"
		}},
		{"labels flag", "labels:false", func(o DisplayOptions) bool {
			return !o.Labels
		}},
		{"unknown ignored", "colour:red;;:x", func(o DisplayOptions) bool {
			return o.Navbar && o.Type
		}},
		{"value stops at second colon", "labels.modified:Changed:at", func(o DisplayOptions) bool {
			return o.LabelText["modified"] == "Changed"
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseDisplayOptions(tt.in); !tt.check(got) {
				t.Errorf("ParseDisplayOptions(%q) = %+v", tt.in, got)
			}
		})
	}
}

func TestDefaultDisplayOptionsNotShared(t *testing.T) {
	a := ParseDisplayOptions("labels.name:A")
	b := DefaultDisplayOptions()
	if b.LabelText["name"] != "Name" {
		t.Errorf("defaults mutated by parse: %v / %v", a.LabelText, b.LabelText)
	}
}
