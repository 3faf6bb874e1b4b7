package client

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"

	"kml-relay/internal/discovery"
	"kml-relay/internal/log"
	"kml-relay/internal/protocol"
	"kml-relay/internal/storage"
	"kml-relay/web/handler"
)

func init() {
	log.SetLevel(log.DISABLED)
}

type lateBase struct{ url *string }

func (b lateBase) ResolvePublicBaseURL(context.Context) (string, error) {
	return discovery.Static(*b.url).ResolvePublicBaseURL(context.Background())
}

func TestClient(t *testing.T) {
	ctx := context.Background()

	Convey("Given a relay and a local KML file", t, func() {
		dir := t.TempDir()
		var base string
		h := handler.New(storage.New(filepath.Join(dir, "uploads")), lateBase{&base})
		srv := httptest.NewServer(handler.NewRouter(h))
		base = srv.URL
		Reset(srv.Close)

		local := filepath.Join(dir, "route.kml")
		content := []byte("<kml><Document><name>route</name></Document></kml>")
		So(os.WriteFile(local, content, 0644), ShouldBeNil)

		c := New(srv.URL + "/")

		Convey("uploading returns a URL that fetches the same bytes", func() {
			fileURL, err := c.UploadFile(ctx, local)
			So(err, ShouldBeNil)
			So(fileURL, ShouldStartWith, srv.URL+protocol.UploadsPrefix+storage.NamePrefix)

			var got bytes.Buffer
			n, err := c.Fetch(ctx, fileURL, &got)
			So(err, ShouldBeNil)
			So(n, ShouldEqual, len(content))
			So(got.Bytes(), ShouldResemble, content)

			Convey("and deleting it makes it unreachable", func() {
				msg, err := c.Delete(ctx, fileURL)
				So(err, ShouldBeNil)
				So(msg, ShouldEqual, protocol.MsgDeleted)

				_, err = c.Fetch(ctx, fileURL, &bytes.Buffer{})
				var se *StatusError
				So(errors.As(err, &se), ShouldBeTrue)
				So(se.Code, ShouldEqual, http.StatusNotFound)

				Convey("and a second delete reports the relay's 500", func() {
					_, err := c.Delete(ctx, fileURL)
					var se *StatusError
					So(errors.As(err, &se), ShouldBeTrue)
					So(se.Code, ShouldEqual, http.StatusInternalServerError)
					So(se.Message, ShouldEqual, protocol.MsgDeleteFailed)
				})
			})
		})

		Convey("progress is drawn when asked for", func() {
			var out bytes.Buffer
			c.Progress = &out
			_, err := c.Upload(ctx, "route.kml", strings.NewReader(string(content)), int64(len(content)))
			So(err, ShouldBeNil)
			So(out.String(), ShouldContainSubstring, "100.0%")
		})

		Convey("a missing local file fails before any request", func() {
			_, err := c.UploadFile(ctx, filepath.Join(dir, "absent.kml"))
			So(os.IsNotExist(err), ShouldBeTrue)
		})
	})
}
