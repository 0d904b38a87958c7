package models

import "testing"

func TestPropertyMap_Equivalent(t *testing.T) {
	base := PropertyMap{
		"Title": {Kind: PropertyTitle, Text: "Hello"},
		"URL":   {Kind: PropertyURL, URL: "https://example.com/a.md"},
	}

	if !base.Equivalent(base.Clone()) {
		t.Error("map should be equivalent to its clone")
	}

	withEmpty := base.Clone()
	withEmpty["Author"] = Property{Kind: PropertyRichText}
	if !base.Equivalent(withEmpty) || !withEmpty.Equivalent(base) {
		t.Error("absent and empty labels should compare equal")
	}

	changed := base.Clone()
	changed["Title"] = Property{Kind: PropertyTitle, Text: "Bye"}
	if base.Equivalent(changed) {
		t.Error("changed title should not be equivalent")
	}

	extra := base.Clone()
	extra["Author"] = Property{Kind: PropertyRichText, Text: "me"}
	if base.Equivalent(extra) || extra.Equivalent(base) {
		t.Error("extra non-empty label should not be equivalent")
	}
}

func TestPropertyMap_Title(t *testing.T) {
	m := PropertyMap{"Name": {Kind: PropertyTitle, Text: "x"}}
	if title, ok := m.Title(); !ok || title != "x" {
		t.Errorf("Title() = %q, %v", title, ok)
	}
	if _, ok := (PropertyMap{}).Title(); ok {
		t.Error("empty map should have no title")
	}
}

func TestPropertyMap_Labels(t *testing.T) {
	m := PropertyMap{"b": {}, "a": {}, "c": {}}
	got := m.Labels()
	if len(got) != 3 || got[0] != "a" || got[2] != "c" {
		t.Errorf("Labels = %v", got)
	}
}
