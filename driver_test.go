package mson_test

import (
	"testing"
	"time"

	mson "github.com/reoring/mson"
)

func TestDriver_StdlibSwap(t *testing.T) {
	mson.SetDriver(mson.StdlibDriver())
	defer mson.UseDefaultDriver()

	want := time.Date(2021, 7, 8, 9, 10, 11, 0, time.UTC)
	got, ok := roundTrip(t, want).(time.Time)
	if !ok || !got.Equal(want) {
		t.Fatalf("round trip under stdlib driver gave %v", got)
	}
}

func TestDriver_NilIgnored(t *testing.T) {
	mson.SetDriver(nil)
	if _, err := mson.Marshal("ok"); err != nil {
		t.Fatalf("driver must remain usable: %v", err)
	}
}
