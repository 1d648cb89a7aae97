package builder

import (
	"bytes"
	_ "embed"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"time"

	"github.com/adrg/frontmatter"
	"github.com/danprince/noopener/internal/errors"
	"github.com/danprince/noopener/internal/links"
	"github.com/danprince/noopener/internal/livereload"
	"github.com/danprince/noopener/internal/mdext"
	"github.com/danprince/noopener/internal/rel"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
	"golang.org/x/sync/errgroup"
)

//go:embed template.html
var defaultTemplateHtml []byte

// Manages the state of the site throughout the duration of the process.
type Builder struct {
	rootDir      string
	PagesDir     string
	OutDir       string
	configFile   string
	config       Config
	template     *template.Template
	templateFile string
	templateSrc  string
	pages        map[string]*Page
	index        map[string][]*Page
	installation *links.Installation

	Logger log.Logger
	// Extra legacy domain records.
	Domains []string
	// Legacy domain records read at the start of every build, usually a
	// database table. The build carries on without them if they can't be
	// read.
	DomainTable links.DomainTable
	// Adds the live reload script to every page.
	LiveReload bool
}

// Page is a markdown file in the site.
type Page struct {
	Path             string
	Dir              string
	Url              string
	Data             map[string]any
	Date             time.Time
	Contents         string
	template         *template.Template
	rel              rel.Config
	inputPath        string
	outputPath       string
	contentStartLine int
}

// Creates a new builder with the default settings.
func New(dir string) *Builder {
	return &Builder{
		rootDir:      dir,
		PagesDir:     dir,
		OutDir:       path.Join(dir, "_site"),
		configFile:   path.Join(dir, ".noopener.json"),
		templateFile: path.Join(dir, "_template.html"),
		Logger:       log.NewNopLogger(),
	}
}

// Resets the state of a builder to prevent leaking memory across builds.
func (b *Builder) Reset() {
	b.pages = nil
	b.index = nil
	b.template = nil
	b.installation = nil
}

// Pages returns the number of pages in the last build.
func (b *Builder) Pages() int {
	return len(b.pages)
}

// Builds the site.
func (b *Builder) Build() error {
	var err error

	b.pages = map[string]*Page{}
	b.index = map[string][]*Page{}

	err = b.configure()
	if err != nil {
		return err
	}

	err = b.readTemplate()
	if err != nil {
		return err
	}

	err = b.walk()
	if err != nil {
		return err
	}

	err = b.readPages()
	if err != nil {
		return err
	}

	err = b.buildPages()
	if err != nil {
		return err
	}

	err = b.writeFiles()
	if err != nil {
		return err
	}

	return nil
}

// Configure everything required to start building.
func (b *Builder) configure() error {
	if b.Logger == nil {
		b.Logger = log.NewNopLogger()
	}

	b.config = defaultConfig

	if err := b.config.load(b.configFile); err != nil {
		return err
	}

	domains := b.Domains

	if b.DomainTable != nil {
		records, err := b.DomainTable.Domains()
		if err != nil {
			level.Warn(b.Logger).Log("msg", "could not read domain table", "err", err)
		} else {
			domains = append(append([]string{}, domains...), records...)
		}
	}

	b.installation = b.config.installation(domains)

	level.Debug(b.Logger).Log(
		"msg", "configured",
		"base", b.installation.BaseURL,
		"sitePath", b.installation.SitePath,
		"sites", len(b.config.Sites),
		"domains", len(b.config.Domains)+len(domains),
	)

	return nil
}

// Each page gets its own markdown instance because the rel settings can
// change from page to page.
func (b *Builder) markdown(hook *rel.Hook) goldmark.Markdown {
	extensions := []goldmark.Extender{
		extension.GFM,
		extension.Footnote,
		mdext.NewLinks(hook),
		mdext.NewSyntaxHighlighting(b.config.SyntaxColor),
	}

	if b.config.HeadingAnchors {
		extensions = append(extensions, mdext.NewHeadingAnchors(hook))
	}

	return goldmark.New(
		goldmark.WithExtensions(extensions...),
		goldmark.WithRendererOptions(
			html.WithUnsafe(),
		),
	)
}

// Creates the set of functions used to render page contents.
func (b *Builder) templateFuncs(page *Page) template.FuncMap {
	return template.FuncMap{
		"index": func() []*Page {
			return b.index[page.Dir]
		},
		"orderByDate": func(pages []*Page) []*Page {
			pages = append([]*Page(nil), pages...)
			sort.SliceStable(pages, func(i, j int) bool {
				return pages[i].Date.Before(pages[j].Date)
			})
			return pages
		},
		"pagesWith": func(key string) []*Page {
			var pages []*Page
			for _, page := range b.pages {
				if page.Data[key] != nil {
					pages = append(pages, page)
				}
			}
			sort.Slice(pages, func(i, j int) bool {
				return pages[i].Path < pages[j].Path
			})
			return pages
		},
		"sortBy": func(key string, pages []*Page) []*Page {
			pages = append([]*Page(nil), pages...)
			sort.SliceStable(pages, func(i, j int) bool {
				a := pages[i].Data[key]
				b := pages[j].Data[key]
				return lessAny(a, b)
			})
			return pages
		},
		"livereload": func() string {
			if !b.LiveReload {
				return ""
			}
			return fmt.Sprintf("<script>%s</script>", livereload.Script)
		},
	}
}

// Read and parse the site's global page template.
func (b *Builder) readTemplate() error {
	contents, err := os.ReadFile(b.templateFile)
	funcs := b.templateFuncs(nil)

	if os.IsNotExist(err) {
		contents = defaultTemplateHtml
	} else if err != nil {
		return err
	}

	t, err := template.New("template").Funcs(funcs).Parse(string(contents))

	if err != nil {
		return errors.TemplateParseError(err, b.templateFile, string(contents), 0)
	}

	b.template = t
	b.templateSrc = string(contents)
	return nil
}

// Recursive walk through the site's pages dir, searching for markdown files
// and adding them to the builder.
func (b *Builder) walk() error {
	return filepath.WalkDir(b.PagesDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		name := d.Name()

		// Skip over ignored files, but never the pages dir itself
		if p != b.PagesDir && (name[0] == '_' || name[0] == '.') {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(b.PagesDir, p)
		if err != nil {
			return err
		}

		relPath = "/" + filepath.ToSlash(relPath)

		if path.Ext(relPath) == ".md" {
			b.addPage(relPath)
		}

		return nil
	})
}

// Adds a page to the builder given a path that is relative to the PagesDir.
func (b *Builder) addPage(relPath string) {
	name := path.Base(relPath)
	dir := path.Dir(relPath)
	out := strings.TrimSuffix(relPath, ".md") + ".html"
	url := strings.TrimSuffix(out, "index.html")
	inputPath := path.Join(b.PagesDir, relPath)
	outputPath := path.Join(b.OutDir, out)

	page := &Page{
		Path:       relPath,
		Url:        url,
		Dir:        dir,
		Data:       map[string]any{},
		inputPath:  inputPath,
		outputPath: outputPath,
	}

	parent := dir

	// index.md files are indexed as though they were in the parent directory.
	// (e.g. /posts/hello-world/index.md would be indexed in /posts).
	if name == "index.md" {
		parent = path.Dir(parent)
	}

	b.index[parent] = append(b.index[parent], page)
	b.pages[relPath] = page
}

// Read all pages in the site concurrently.
func (b *Builder) readPages() error {
	var g errgroup.Group
	for _, page := range b.pages {
		p := page
		g.Go(func() error {
			return b.readPage(p)
		})
	}
	return g.Wait()
}

// Read the page's contents and metadata from disk.
func (b *Builder) readPage(page *Page) error {
	rawContents, err := os.ReadFile(page.inputPath)

	if err != nil {
		return err
	}

	r := bytes.NewReader(rawContents)
	contents, err := frontmatter.Parse(r, &page.Data)

	if err != nil {
		return errors.YamlParseError(err, page.inputPath, string(rawContents))
	}

	// Figure out number of lines of front matter for line numbers in errors
	frontMatterLen := len(rawContents) - len(contents)
	frontMatterBytes := rawContents[:frontMatterLen]
	page.contentStartLine = bytes.Count(frontMatterBytes, []byte{'\n'})

	// Contents is everything after the front matter
	page.Contents = string(contents)

	page.rel, err = b.config.Rel.resolve(page.Data["rel"])
	if err != nil {
		return fmt.Errorf("%s: %w", page.inputPath, err)
	}

	// Parse the page template
	funcs := b.templateFuncs(page)
	tmpl, err := template.New(page.Path).Funcs(funcs).Parse(page.Contents)
	if err != nil {
		return errors.TemplateParseError(err, page.inputPath, page.Contents, page.contentStartLine)
	}
	page.template = tmpl

	// Attempt to parse the date from front matter
	switch date := page.Data["date"].(type) {
	case string:
		if t, err := time.ParseInLocation(b.config.DateFormat, date, time.Local); err == nil {
			page.Date = t.Local()
		}
	case time.Time:
		page.Date = date.Local()
	}

	return nil
}

// Builds all pages concurrently.
func (b *Builder) buildPages() error {
	var g errgroup.Group
	for _, page := range b.pages {
		p := page
		g.Go(func() error {
			return b.buildPage(p)
		})
	}
	return g.Wait()
}

// Converts the page's markdown into HTML and renders it into the builder's
// template file.
func (b *Builder) buildPage(page *Page) error {
	globalTemplate, err := b.template.Clone()

	if err != nil {
		return err
	}

	globalTemplate.Funcs(b.templateFuncs(page))

	var mdbuf, htmlbuf, pagebuf bytes.Buffer

	if err := page.template.Execute(&mdbuf, page); err != nil {
		return errors.TemplateExecError(err, page.inputPath, page.Contents, page.contentStartLine)
	}

	logger := log.With(b.Logger, "page", page.Path)
	hook := rel.NewHook(page.rel, b.installation, logger)

	if err := b.markdown(hook).Convert(mdbuf.Bytes(), &htmlbuf); err != nil {
		return err
	}

	page.Contents = htmlbuf.String()

	if err := globalTemplate.Execute(&pagebuf, page); err != nil {
		return errors.TemplateExecError(err, b.templateFile, b.templateSrc, 0)
	}

	page.Contents = pagebuf.String()
	return nil
}

// Writes all files in the site into the output directory.
func (b *Builder) writeFiles() error {
	for _, page := range b.pages {
		if err := os.MkdirAll(path.Dir(page.outputPath), 0755); err != nil {
			return err
		}
		if err := os.WriteFile(page.outputPath, []byte(page.Contents), 0644); err != nil {
			return err
		}
		level.Debug(b.Logger).Log("msg", "wrote page", "path", page.outputPath)
	}

	return nil
}
