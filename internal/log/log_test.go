package log

import (
	"bytes"
	"os"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLevels(t *testing.T) {
	Convey("Given a captured output", t, func() {
		var buf bytes.Buffer
		SetOutput(&buf)
		Reset(func() {
			SetOutput(os.Stdout)
			SetLevel(INFO)
		})

		Convey("INFO hides debug lines", func() {
			SetLevel(INFO)
			Debugf("hidden %d", 1)
			Infof("shown %d", 2)
			So(buf.String(), ShouldNotContainSubstring, "hidden")
			So(buf.String(), ShouldContainSubstring, "shown 2")
		})

		Convey("ERROR hides info lines", func() {
			SetLevel(ERROR)
			Infof("quiet")
			Errorf("loud")
			So(buf.String(), ShouldNotContainSubstring, "quiet")
			So(buf.String(), ShouldContainSubstring, "loud")
		})

		Convey("DISABLED hides everything", func() {
			SetLevel(DISABLED)
			Errorf("nothing")
			So(buf.Len(), ShouldEqual, 0)
		})
	})
}

func TestParseLevel(t *testing.T) {
	Convey("Level names are case insensitive", t, func() {
		So(ParseLevel("DEBUG"), ShouldEqual, DEBUG)
		So(ParseLevel(" error "), ShouldEqual, ERROR)
		So(ParseLevel("off"), ShouldEqual, DISABLED)
		So(ParseLevel("whatever"), ShouldEqual, INFO)
	})
}
