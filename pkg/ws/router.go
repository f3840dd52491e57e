package ws

import (
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

const (
	serverHeader = "stnet"
	indexSuffix  = "/index.html"
)

// indexRouter отвечает на обычные HTTP запросы: отдаёт HTML по "/" и любому
// пути, оканчивающемуся на "/index.html", остальное отклоняет с 400.
type indexRouter struct {
	body    string
	metrics *Metrics
}

func newRouter(body string, metrics *Metrics) http.Handler {
	ir := &indexRouter{body: body, metrics: metrics}

	r := chi.NewRouter()
	r.Get("/*", ir.serveIndex)
	r.Head("/*", ir.serveIndex)
	r.NotFound(ir.badRequest("Illegal request-target"))
	r.MethodNotAllowed(ir.badRequest("Unknown HTTP-method"))

	return r
}

func shouldServeIndex(target string) bool {
	return target == "/" || strings.HasSuffix(target, indexSuffix)
}

func (ir *indexRouter) serveIndex(w http.ResponseWriter, r *http.Request) {
	if !shouldServeIndex(r.URL.Path) {
		ir.badRequest("Illegal request-target")(w, r)
		return
	}

	ir.writeHeader(w, http.StatusOK, len(ir.body))

	if r.Method == http.MethodHead {
		return
	}

	_, _ = io.WriteString(w, ir.body)
}

func (ir *indexRouter) badRequest(why string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ir.writeHeader(w, http.StatusBadRequest, len(why))
		_, _ = io.WriteString(w, why)
	}
}

func (ir *indexRouter) writeHeader(w http.ResponseWriter, code, length int) {
	h := w.Header()
	h.Set("Server", serverHeader)
	h.Set("Content-Type", "text/html")
	h.Set("Content-Length", strconv.Itoa(length))

	w.WriteHeader(code)
	ir.metrics.httpResponse(code)
}
