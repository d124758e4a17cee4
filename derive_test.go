package mson_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	mson "github.com/reoring/mson"
)

func TestDerive_FieldSet(t *testing.T) {
	c := Circle{Center: Point{X: 1, Y: 2}, Radius: 3.5}
	d, err := mson.Derive(c)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if d["radius"] != 3.5 {
		t.Fatalf("radius: %v", d["radius"])
	}
	center, ok := d["center"].(map[string]any)
	if !ok {
		t.Fatalf("center not extracted: %T", d["center"])
	}
	if center["x"] != 1.0 || center["y"] != 2.0 {
		t.Fatalf("center fields: %v", center)
	}
	if center["@class"] != "Point" {
		t.Fatalf("nested identity missing: %v", center)
	}
	if _, ok := d["@module"]; !ok {
		t.Fatalf("missing @module: %v", d)
	}
	if v, ok := d["@version"]; !ok || v != nil {
		t.Fatalf("expected null @version, got %v", v)
	}
}

func TestRoundTrip_Derived(t *testing.T) {
	want := Circle{Center: Point{X: -1, Y: 4}, Radius: 2.25}
	got, ok := roundTrip(t, want).(Circle)
	if !ok || got != want {
		t.Fatalf("round trip gave %#v", got)
	}
}

func TestRoundTrip_UnderscoreField(t *testing.T) {
	want := Secret{Raw: "hunter2"}
	d, err := mson.Derive(want)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if d["raw"] != "hunter2" {
		t.Fatalf("underscore field not emitted under its plain name: %v", d)
	}
	got, ok := roundTrip(t, want).(Secret)
	if !ok || got != want {
		t.Fatalf("round trip gave %#v", got)
	}
}

func TestRoundTrip_KwargsBag(t *testing.T) {
	want := Box{
		Items:  []string{"a", "b"},
		Extras: map[string]any{"note": "spare", "rank": 4.0},
	}
	d, err := mson.Derive(want)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if d["note"] != "spare" {
		t.Fatalf("kwargs not spliced: %v", d)
	}
	got, ok := roundTrip(t, want).(Box)
	if !ok || !reflect.DeepEqual(got.Items, want.Items) {
		t.Fatalf("round trip gave %#v", got)
	}
	if !reflect.DeepEqual(got.Extras, want.Extras) {
		t.Fatalf("kwargs bag did not round trip: %#v", got.Extras)
	}
}

func TestEncode_ModelDict(t *testing.T) {
	tree, err := mson.Encode(Profile{User: "ada", Age: 36})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m := tree.(map[string]any)
	if m["user"] != "ada" || m["age"] != 36 {
		t.Fatalf("model dict not used: %v", m)
	}
	if m["@class"] != "Profile" {
		t.Fatalf("identity not attached: %v", m)
	}
	if v, ok := m["@version"]; !ok || v != nil {
		t.Fatalf("expected null @version, got %v", v)
	}
}

func TestRoundTrip_Varargs(t *testing.T) {
	want := Batch{Name: "b1", Values: []float64{1.5, 2.5}}
	d, err := mson.Derive(want)
	if err != nil {
		t.Fatalf("Derive: %v", err)
	}
	if d["name"] != "b1" {
		t.Fatalf("name: %v", d)
	}
	vals, ok := d["values"].([]any)
	if !ok || len(vals) != 2 || vals[0] != 1.5 {
		t.Fatalf("varargs not appended under its own key: %v", d)
	}
	got, ok := roundTrip(t, want).(Batch)
	if !ok || got.Name != want.Name || !reflect.DeepEqual(got.Values, want.Values) {
		t.Fatalf("round trip gave %#v", got)
	}
}

// MissingParam declares a parameter list that one field cannot satisfy.
type MissingParam struct {
	A string
}

func TestDerive_MissingParameterFails(t *testing.T) {
	if err := mson.Register[MissingParam](mson.WithFields("a", "b")); err != nil {
		t.Fatal(err)
	}
	_, err := mson.Derive(MissingParam{A: "x"})
	if err == nil {
		t.Fatal("expected derive failure")
	}
	var me *mson.Error
	if !errors.As(err, &me) || me.Code != mson.CodeDerive {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Field != "b" {
		t.Fatalf("failure does not name the missing parameter: %v", me)
	}
	if !strings.Contains(me.Error(), "b") {
		t.Fatalf("message does not mention the parameter: %v", me)
	}
}

func TestDerive_CycleFails(t *testing.T) {
	a := &Node{Label: "a"}
	b := &Node{Label: "b", Next: a}
	a.Next = b
	_, err := mson.Derive(a)
	if err == nil {
		t.Fatal("expected cycle failure")
	}
	if mson.CodeOf(err) != mson.CodeCycle {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRoundTrip_Enum(t *testing.T) {
	tree, err := mson.Encode(Red)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m := tree.(map[string]any)
	if m["value"] != "red" {
		t.Fatalf("enum payload: %v", m)
	}
	got, ok := roundTrip(t, Blue).(Color)
	if !ok || got != Blue {
		t.Fatalf("round trip gave %#v", got)
	}
}

func TestReconstruct_ValidationFailure(t *testing.T) {
	data, err := mson.Marshal(Account{Name: "ada", Balance: 10})
	if err != nil {
		t.Fatal(err)
	}
	bad := strings.Replace(string(data), "10", "-10", 1)
	_, err = mson.Unmarshal([]byte(bad))
	if err == nil {
		t.Fatal("expected validation failure")
	}
	if mson.CodeOf(err) != mson.CodeValidation {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(err.Error(), "negative") {
		t.Fatalf("cause text not carried: %v", err)
	}
}

// Versioned carries a declared release identifier.
type Versioned struct {
	N int
}

func TestEncode_Version(t *testing.T) {
	if err := mson.Register[Versioned](mson.WithVersion("2.1.0")); err != nil {
		t.Fatal(err)
	}
	tree, err := mson.Encode(Versioned{N: 1})
	if err != nil {
		t.Fatal(err)
	}
	m := tree.(map[string]any)
	if m["@version"] != "2.1.0" {
		t.Fatalf("version: %v", m)
	}
}

// Renamed is registered under an explicit wire identity.
type Renamed struct {
	V string
}

func TestRegister_WithIdentity(t *testing.T) {
	if err := mson.Register[Renamed](mson.WithIdentity("app.models", "Renamed")); err != nil {
		t.Fatal(err)
	}
	tree, err := mson.Encode(Renamed{V: "x"})
	if err != nil {
		t.Fatal(err)
	}
	m := tree.(map[string]any)
	if m["@module"] != "app.models" || m["@class"] != "Renamed" {
		t.Fatalf("identity: %v", m)
	}
	got, ok := roundTrip(t, Renamed{V: "x"}).(Renamed)
	if !ok || got.V != "x" {
		t.Fatalf("round trip gave %#v", got)
	}
}

// Counted uses a custom factory.
type Counted struct {
	N     int
	built bool
}

func TestRegister_WithFactory(t *testing.T) {
	err := mson.Register[Counted](
		mson.WithFields("n"),
		mson.WithFactory(func(fields map[string]any) (any, error) {
			n, _ := fields["n"].(float64)
			return Counted{N: int(n), built: true}, nil
		}),
	)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := roundTrip(t, Counted{N: 7}).(Counted)
	if !ok || got.N != 7 || !got.built {
		t.Fatalf("factory not used: %#v", got)
	}
}
