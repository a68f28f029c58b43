package resolver

import (
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/tidwall/gjson"
)

type base struct {
	ID int
}

type article struct {
	base

	Title   string
	Slug    string `hbs:"permalink"`
	Secret  string `hbs:"-"`
	private string
	Author  *person
}

type person struct {
	first, last string
	admin       bool
}

func (p person) GetName() string { return p.first + " " + p.last }

func (p *person) IsAdmin() bool { return p.admin }

func (p person) Initials() (string, error) {
	if p.first == "" || p.last == "" {
		return "", errors.New("incomplete name")
	}

	return p.first[:1] + p.last[:1], nil
}

func (p person) Greet(other string) string { return "hi " + other }

func TestMap_Resolve(t *testing.T) {
	tests := []struct {
		name   string
		model  any
		key    string
		want   any
		wantOK bool
	}{
		{"any map", map[string]any{"a": 1}, "a", 1, true},
		{"any map missing", map[string]any{"a": 1}, "b", nil, false},
		{"string map", map[string]string{"a": "x"}, "a", "x", true},
		{"int keys", map[int]string{3: "three"}, "3", "three", true},
		{"int keys non-numeric", map[int]string{3: "three"}, "x", nil, false},
		{"pointer to map", &map[string]int{"n": 2}, "n", 2, true},
		{"not a map", []int{1}, "0", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Map{}.Resolve(tt.model, tt.key)
			if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestMap_Properties_SortedByKey(t *testing.T) {
	props, ok := Map{}.Properties(map[string]int{"b": 2, "c": 3, "a": 1})
	if !ok {
		t.Fatal("expected properties for map")
	}

	want := []Property{{"a", 1}, {"b", 2}, {"c", 3}}
	if !reflect.DeepEqual(props, want) {
		t.Errorf("expected %v, got %v", want, props)
	}
}

func TestList_Resolve(t *testing.T) {
	list := []string{"x", "y", "z"}

	tests := []struct {
		key    string
		want   any
		wantOK bool
	}{
		{"0", "x", true},
		{"2", "z", true},
		{"3", nil, false},
		{"-1", nil, false},
		{"length", 3, true},
		{"first", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := List{}.Resolve(list, tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestField_Resolve(t *testing.T) {
	a := article{
		base:    base{ID: 7},
		Title:   "Hello",
		Slug:    "hello",
		Secret:  "s",
		private: "p",
	}

	tests := []struct {
		key    string
		want   any
		wantOK bool
	}{
		{"Title", "Hello", true},
		{"title", "Hello", true},
		{"permalink", "hello", true},
		{"ID", 7, true},
		{"id", 7, true},
		{"Secret", nil, false},
		{"private", nil, false},
		{"missing", nil, false},
	}

	f := Field{Cache: NewMemberCache()}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, ok := f.Resolve(&a, tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestField_Properties_DeclarationOrder(t *testing.T) {
	props, ok := Field{}.Properties(article{Title: "T", Slug: "s"})
	if !ok {
		t.Fatal("expected properties for struct")
	}

	var names []string
	for _, p := range props {
		names = append(names, p.Name)
	}

	want := []string{"ID", "Title", "permalink", "Author"}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("expected %v, got %v", want, names)
	}
}

func TestMethod_Resolve(t *testing.T) {
	p := person{first: "Ada", last: "Lovelace", admin: true}

	tests := []struct {
		name   string
		model  any
		key    string
		want   any
		wantOK bool
	}{
		{"get prefix", p, "name", "Ada Lovelace", true},
		{"exact name", p, "GetName", "Ada Lovelace", true},
		{"pointer receiver on value", p, "admin", true, true},
		{"pointer receiver on pointer", &p, "admin", true, true},
		{"value with nil error", p, "initials", "AL", true},
		{"non-nil error", person{first: "Ada"}, "initials", nil, false},
		{"takes arguments", p, "greet", nil, false},
		{"unknown", p, "age", nil, false},
	}

	m := Method{Cache: NewMemberCache()}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := m.Resolve(tt.model, tt.key)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestMethod_Properties_Accessors(t *testing.T) {
	props, ok := Method{}.Properties(&person{first: "A", last: "B", admin: true})
	if !ok {
		t.Fatal("expected accessor properties")
	}

	got := map[string]any{}
	for _, p := range props {
		got[p.Name] = p.Value
	}

	want := map[string]any{"name": "A B", "admin": true}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestMethod_NilPointer(t *testing.T) {
	var p *person

	if props, ok := (Method{}).Properties(p); ok || props != nil {
		t.Errorf("expected no properties, got (%v, %v)", props, ok)
	}

	if v, ok := (Method{}).Resolve(p, "name"); ok {
		t.Errorf("expected unresolved, got %v", v)
	}
}

func TestMemberCache_SharedAcrossGoroutines(t *testing.T) {
	cache := NewMemberCache()
	f := Field{Cache: cache}

	var wg sync.WaitGroup

	for range 32 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if v, ok := f.Resolve(article{Title: "x"}, "title"); !ok || v != "x" {
				t.Errorf("expected (x, true), got (%v, %v)", v, ok)
			}
		}()
	}

	wg.Wait()

	if cache.Len() != 1 {
		t.Errorf("expected 1 cached member, got %d", cache.Len())
	}

	cache.Clear()

	if cache.Len() != 0 {
		t.Errorf("expected empty cache after Clear, got %d", cache.Len())
	}
}

func TestMemberCache_KeyedByDeclaringType(t *testing.T) {
	cache := NewMemberCache()
	f := Field{Cache: cache}

	type other struct{ Title int }

	if v, _ := f.Resolve(article{Title: "a"}, "Title"); v != "a" {
		t.Errorf("expected a, got %v", v)
	}

	if v, _ := f.Resolve(other{Title: 5}, "Title"); v != 5 {
		t.Errorf("expected 5, got %v", v)
	}

	if cache.Len() != 2 {
		t.Errorf("expected 2 cached members, got %d", cache.Len())
	}
}

func TestJSON_Resolve(t *testing.T) {
	doc := gjson.Parse(`{"user":{"name":"ann","tags":["a","b"],"a.b":1},"ok":true,"n":null}`)

	user, ok := JSON{}.Resolve(doc, "user")
	if !ok {
		t.Fatal("expected user to resolve")
	}

	tests := []struct {
		name   string
		model  any
		key    string
		want   any
		wantOK bool
	}{
		{"string", user, "name", "ann", true},
		{"dotted key", user, "a.b", 1.0, true},
		{"array", user, "tags", []any{"a", "b"}, true},
		{"bool", doc, "ok", true, true},
		{"null", doc, "n", nil, true},
		{"missing", doc, "nope", nil, false},
		{"not json", map[string]any{}, "ok", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := JSON{}.Resolve(tt.model, tt.key)
			if ok != tt.wantOK || !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected (%v, %v), got (%v, %v)", tt.want, tt.wantOK, got, ok)
			}
		})
	}
}

func TestJSON_ResolveThisAndProperties(t *testing.T) {
	if v, ok := (JSON{}).ResolveThis(gjson.Parse(`"x"`)); !ok || v != "x" {
		t.Errorf("expected (x, true), got (%v, %v)", v, ok)
	}

	if _, ok := (JSON{}).ResolveThis(gjson.Parse(`{}`)); ok {
		t.Error("expected objects to have no this-mapping")
	}

	props, ok := JSON{}.Properties(gjson.Parse(`{"z":1,"a":2}`))
	if !ok || len(props) != 2 || props[0].Name != "z" || props[1].Name != "a" {
		t.Errorf("expected document order [z a], got %v", props)
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	resolvers := Defaults()

	if v, ok := Resolve(resolvers, map[string]any{"Title": "m"}, "Title"); !ok || v != "m" {
		t.Errorf("expected (m, true), got (%v, %v)", v, ok)
	}

	if _, ok := Resolve(resolvers, nil, "x"); ok {
		t.Error("expected nil model to be unresolved")
	}

	if got := ResolveThis(resolvers, 5); got != 5 {
		t.Errorf("expected 5, got %v", got)
	}
}
