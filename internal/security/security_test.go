package security

import (
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWithin(t *testing.T) {
	root := filepath.Join(t.TempDir(), "uploads")

	Convey("Plain names resolve directly below the root", t, func() {
		p, err := Within(root, "filteredData_1_abc.kml")
		So(err, ShouldBeNil)
		So(p, ShouldEqual, filepath.Join(root, "filteredData_1_abc.kml"))
	})

	Convey("Anything else is rejected", t, func() {
		for _, name := range []string{"", ".", "..", "../etc/passwd", "a/b.kml", `..\x.kml`, "x\x00.kml"} {
			_, err := Within(root, name)
			So(errors.Is(err, ErrOutsideRoot), ShouldBeTrue)
		}
	})

	Convey("Relative roots are made absolute", t, func() {
		p, err := Within("uploads", "a.kml")
		So(err, ShouldBeNil)
		So(filepath.IsAbs(p), ShouldBeTrue)
		So(filepath.Base(p), ShouldEqual, "a.kml")
	})
}

func TestNameFromURL(t *testing.T) {
	Convey("The last path segment names the file", t, func() {
		name, err := NameFromURL("https://abcd.ngrok-free.app/uploads/filteredData_1_x.kml")
		So(err, ShouldBeNil)
		So(name, ShouldEqual, "filteredData_1_x.kml")
	})

	Convey("Query and fragment are ignored", t, func() {
		name, err := NameFromURL("http://localhost:3020/uploads/a.kml?x=1#top")
		So(err, ShouldBeNil)
		So(name, ShouldEqual, "a.kml")
	})

	Convey("Dot segments collapse to a base name", t, func() {
		name, err := NameFromURL("http://h/uploads/../../etc/passwd")
		So(err, ShouldBeNil)
		So(name, ShouldEqual, "passwd")
	})

	Convey("Malformed or empty URLs are rejected", t, func() {
		for _, raw := range []string{"::not a url", "uploads/a.kml", "http://h/", "http://h"} {
			_, err := NameFromURL(raw)
			So(errors.Is(err, ErrMalformedURL), ShouldBeTrue)
		}
	})
}
