package mson_test

import (
	"fmt"

	mson "github.com/reoring/mson"
)

// Color is an enumeration fixture.
type Color string

const (
	Red  Color = "red"
	Blue Color = "blue"
)

// Point is a plain struct left unregistered on purpose (dataclass path).
type Point struct {
	X float64
	Y float64
}

// Circle exercises the auto-derive path with a nested plain struct.
type Circle struct {
	Center Point
	Radius float64
}

// Secret stores its parameter under an underscore-prefixed wire form.
type Secret struct {
	Raw string `mson:"_raw"`
}

// Box exercises the kwargs bag.
type Box struct {
	Items  []string
	Extras map[string]any `mson:",kwargs"`
}

// Account exercises post-reconstruction validation.
type Account struct {
	Name    string
	Balance float64
}

func (a *Account) Validate() error {
	if a.Balance < 0 {
		return fmt.Errorf("balance %v is negative", a.Balance)
	}
	return nil
}

// Profile serializes through its model dict instead of auto-derive.
type Profile struct {
	User string
	Age  int
}

func (p Profile) ModelDict() map[string]any {
	return map[string]any{"user": p.User, "age": p.Age}
}

// Batch exercises the varargs slice.
type Batch struct {
	Name   string
	Values []float64 `mson:",varargs"`
}

// Node exercises the derivation cycle guard.
type Node struct {
	Label string
	Next  *Node
}

// Gadget exercises bound callable references.
type Gadget struct {
	Factor int
}

func (g Gadget) Scale(x int) int { return g.Factor * x }

// Double is a free function fixture for callable references.
func Double(x int) int { return 2 * x }

func init() {
	must(mson.RegisterEnum[Color]())
	must(mson.Register[Circle]())
	must(mson.Register[Secret]())
	must(mson.Register[Box]())
	must(mson.Register[Batch]())
	must(mson.Register[Account]())
	must(mson.Register[Node]())
	must(mson.Register[Gadget]())
	must(mson.RegisterCallable(Double))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}
