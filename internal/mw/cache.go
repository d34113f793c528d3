package mw

import (
	"bytes"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
)

// snapshotResponse is a rendered read of one snapshot version.
type snapshotResponse struct {
	status      int
	contentType string
	body        []byte
}

// recordingWriter tees the handler's body so it can be replayed.
type recordingWriter struct {
	gin.ResponseWriter
	buf bytes.Buffer
}

func (w *recordingWriter) Write(b []byte) (int, error) {
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *recordingWriter) WriteString(s string) (int, error) {
	w.buf.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}

// Cache replays snapshot reads. Entries are keyed by version() and the request
// URI, so a newly applied snapshot never serves an older body. While version()
// is 0 nothing has been loaded yet and requests pass straight through.
func Cache(store *cache.Cache, ttl time.Duration, version func() uint64) gin.HandlerFunc {
	return func(c *gin.Context) {
		v := version()
		if c.Request.Method != http.MethodGet || v == 0 {
			c.Next()
			return
		}

		key := strconv.FormatUint(v, 10) + " " + c.Request.URL.RequestURI()
		if hit, ok := store.Get(key); ok {
			resp := hit.(snapshotResponse)
			c.Header("X-Cache", "HIT")
			c.Data(resp.status, resp.contentType, resp.body)
			c.Abort()
			return
		}

		rw := &recordingWriter{ResponseWriter: c.Writer}
		c.Writer = rw
		c.Next()

		if status := rw.Status(); status >= 200 && status < 300 {
			store.Set(key, snapshotResponse{
				status:      status,
				contentType: rw.Header().Get("Content-Type"),
				body:        bytes.Clone(rw.buf.Bytes()),
			}, ttl)
		}
	}
}
