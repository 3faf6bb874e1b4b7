package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func mapLookup(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestFromEnv(t *testing.T) {
	Convey("An empty environment yields the defaults", t, func() {
		c, err := FromEnv(mapLookup(nil))
		So(err, ShouldBeNil)
		So(c, ShouldResemble, Default())
		So(c.Port, ShouldEqual, 3020)
		So(c.TunnelPort, ShouldEqual, 4040)
	})

	Convey("Every variable is honoured", t, func() {
		c, err := FromEnv(mapLookup(map[string]string{
			"PORT":             "8080",
			"NGROK_PORT":       "4041",
			"UPLOAD_DIR":       "/srv/kml",
			"PUBLIC_BASE_URL":  "https://example.test",
			"TUNNEL_TIMEOUT":   "3s",
			"MAX_UPLOAD_BYTES": "1024",
			"MIN_FREE_BYTES":   "2048",
			"LOG_LEVEL":        "debug",
		}))
		So(err, ShouldBeNil)
		So(c.Port, ShouldEqual, 8080)
		So(c.TunnelPort, ShouldEqual, 4041)
		So(c.UploadDir, ShouldEqual, "/srv/kml")
		So(c.PublicBaseURL, ShouldEqual, "https://example.test")
		So(c.TunnelTimeout, ShouldEqual, 3*time.Second)
		So(c.MaxUploadBytes, ShouldEqual, 1024)
		So(c.MinFreeBytes, ShouldEqual, 2048)
		So(c.LogLevel, ShouldEqual, "debug")
	})

	Convey("Malformed values are rejected", t, func() {
		for _, env := range []map[string]string{
			{"PORT": "http"},
			{"PORT": "70000"},
			{"NGROK_PORT": "-1"},
			{"TUNNEL_TIMEOUT": "soon"},
			{"MAX_UPLOAD_BYTES": "0"},
			{"MIN_FREE_BYTES": "lots"},
		} {
			_, err := FromEnv(mapLookup(env))
			So(err, ShouldNotBeNil)
		}
	})
}

func TestLoad(t *testing.T) {
	Convey("A .env file fills in unset variables", t, func() {
		dir, err := os.MkdirTemp("", "kml-relay-config")
		So(err, ShouldBeNil)
		Reset(func() { os.RemoveAll(dir) })

		envFile := filepath.Join(dir, ".env")
		So(os.WriteFile(envFile, []byte("KMLRELAY_TEST_ONLY=1\nNGROK_PORT=4999\n"), 0644), ShouldBeNil)
		Reset(func() {
			os.Unsetenv("KMLRELAY_TEST_ONLY")
			os.Unsetenv("NGROK_PORT")
		})

		c, err := Load(envFile)
		So(err, ShouldBeNil)
		So(c.TunnelPort, ShouldEqual, 4999)
	})

	Convey("A missing .env file is not an error", t, func() {
		_, err := Load(filepath.Join(os.TempDir(), "kml-relay-does-not-exist.env"))
		So(err, ShouldBeNil)
	})
}
