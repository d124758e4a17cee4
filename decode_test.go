package mson_test

import (
	"errors"
	"testing"

	mson "github.com/reoring/mson"
)

func TestUnmarshal_MalformedJSONFails(t *testing.T) {
	_, err := mson.Unmarshal([]byte(`{"broken`))
	if err == nil {
		t.Fatal("expected parse failure")
	}
	if mson.CodeOf(err) != mson.CodeParse {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestDecode_UnresolvedTypeKeptAsMap(t *testing.T) {
	raw := `{"@module":"nowhere","@class":"Ghost","payload":{"@module":"datetime","@class":"datetime","string":"2024-01-02 03:04:05"}}`
	got, err := mson.Unmarshal([]byte(raw))
	if err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	m, ok := got.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T", got)
	}
	if m["@class"] != "Ghost" {
		t.Fatalf("tag keys must survive: %v", m)
	}
	// Non-tag values still resolve.
	if _, ok := m["payload"].(interface{ Unix() int64 }); !ok {
		t.Fatalf("nested tagged value not resolved: %T", m["payload"])
	}
}

func TestDecode_StrictUnresolvedTypeFails(t *testing.T) {
	dec := mson.NewDecoder(mson.WithRedirects(mson.RedirectTable{}), mson.Strict())
	_, err := dec.Unmarshal([]byte(`{"@module":"nowhere","@class":"Ghost"}`))
	if err == nil {
		t.Fatal("expected strict failure")
	}
	if mson.CodeOf(err) != mson.CodeUnresolvedType {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestReconstruct_UnexpectedKeyFails(t *testing.T) {
	tree, err := mson.Encode(Account{Name: "ada", Balance: 1})
	if err != nil {
		t.Fatal(err)
	}
	m := tree.(map[string]any)
	m["ghost"] = true
	data, err := mson.Marshal(m)
	if err != nil {
		t.Fatal(err)
	}
	_, err = mson.Unmarshal(data)
	if err == nil {
		t.Fatal("expected failure for an undeclared key")
	}
	var me *mson.Error
	if !errors.As(err, &me) || me.Code != mson.CodeReconstruct {
		t.Fatalf("unexpected error: %v", err)
	}
	if me.Field != "ghost" {
		t.Fatalf("failure does not name the key: %v", me)
	}
}

func TestDecode_ListOrderPreserved(t *testing.T) {
	got, err := mson.Unmarshal([]byte(`[3, 1, 2]`))
	if err != nil {
		t.Fatal(err)
	}
	list := got.([]any)
	if list[0] != 3.0 || list[1] != 1.0 || list[2] != 2.0 {
		t.Fatalf("order not preserved: %v", list)
	}
}

func TestDecode_PrimitivePassThrough(t *testing.T) {
	got, err := mson.Unmarshal([]byte(`"plain"`))
	if err != nil {
		t.Fatal(err)
	}
	if got != "plain" {
		t.Fatalf("primitive: %v", got)
	}
}

func TestEncode_UnserializableFails(t *testing.T) {
	_, err := mson.Marshal(make(chan int))
	if err == nil {
		t.Fatal("expected failure")
	}
	if mson.CodeOf(err) != mson.CodeNotSerializable {
		t.Fatalf("unexpected error: %v", err)
	}
}
