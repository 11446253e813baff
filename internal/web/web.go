// Package web serves the page shell for the authenticate and mint screens.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"mime"
	"net/http"
	"path"
	"regexp"

	"github.com/go-chi/chi/v5"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/html"
	"github.com/tdewolff/minify/v2/js"

	"academia/internal/verification/compare"
	"academia/internal/wallet"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

const (
	PageAuthenticate = "authenticate"
	PageMint         = "mint"
)

var scriptType = regexp.MustCompile(`^(application|text)/(x-)?(java|ecma)script$`)

// WalletStatus reports the wallet state shown in the navbar.
type WalletStatus interface {
	Status() wallet.Status
}

// PageData is the template input shared by both screens.
type PageData struct {
	Title    string
	Page     string
	Wallet   wallet.Status
	Expected []compare.Field
}

type asset struct {
	contentType string
	body        []byte
}

// Site renders the pages and serves minified static assets from memory.
type Site struct {
	pages    map[string]*template.Template
	assets   map[string]asset
	minifier *minify.M
	wallet   WalletStatus
	expected compare.Expected
	logger   *slog.Logger
}

// New parses the embedded templates and minifies the static assets once.
func New(walletStatus WalletStatus, expected compare.Expected, logger *slog.Logger) (*Site, error) {
	m := minify.New()
	m.AddFunc("text/html", html.Minify)
	m.AddFunc("text/css", css.Minify)
	m.AddFuncRegexp(scriptType, js.Minify)

	s := &Site{
		pages:    make(map[string]*template.Template, 2),
		assets:   make(map[string]asset),
		minifier: m,
		wallet:   walletStatus,
		expected: expected,
		logger:   logger,
	}

	for _, page := range []string{PageAuthenticate, PageMint} {
		tmpl, err := template.ParseFS(templateFS, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parse %s template: %w", page, err)
		}
		s.pages[page] = tmpl
	}

	err := fs.WalkDir(staticFS, "static", func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		raw, err := staticFS.ReadFile(p)
		if err != nil {
			return err
		}
		ct := mime.TypeByExtension(path.Ext(p))
		if ct == "" {
			ct = "application/octet-stream"
		}
		body, err := m.Bytes(mediaType(ct), raw)
		if err != nil {
			// unknown media types are served as-is
			body = raw
		}
		s.assets[path.Base(p)] = asset{contentType: ct, body: body}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("load static assets: %w", err)
	}
	return s, nil
}

// Register mounts the page and static routes.
func (s *Site) Register(r chi.Router) {
	r.Get("/", s.handlePage(PageAuthenticate, "Authenticate"))
	r.Get("/mint", s.handlePage(PageMint, "Mint"))
	r.Get("/static/{name}", s.handleStatic)
}

// Render executes the named page into a minified HTML document.
func (s *Site) Render(page string, data PageData) ([]byte, error) {
	tmpl, ok := s.pages[page]
	if !ok {
		return nil, fmt.Errorf("unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", page, err)
	}
	return s.minifier.Bytes("text/html", buf.Bytes())
}

func (s *Site) handlePage(page, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := PageData{
			Title:    title,
			Page:     page,
			Expected: s.expected.Fields(),
		}
		if s.wallet != nil {
			data.Wallet = s.wallet.Status()
		}

		body, err := s.Render(page, data)
		if err != nil {
			s.logger.ErrorContext(r.Context(), "failed to render page", "page", page, "error", err)
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		_, _ = w.Write(body)
	}
}

func (s *Site) handleStatic(w http.ResponseWriter, r *http.Request) {
	a, ok := s.assets[chi.URLParam(r, "name")]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", a.contentType)
	w.Header().Set("Cache-Control", "public, max-age=300")
	_, _ = w.Write(a.body)
}

func mediaType(contentType string) string {
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return contentType
	}
	return mt
}
