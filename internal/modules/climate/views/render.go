package views

import (
	"errors"
	"html/template"
	"io"
	"io/fs"
)

var homeTmpl *template.Template

// loadTemplatesFromFS parses the page templates under dir in fsys.
func loadTemplatesFromFS(fsys fs.FS, dir string) error {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		return err
	}
	tmpl, err := template.ParseFS(sub, "*.html")
	if err != nil {
		return err
	}
	if tmpl.Lookup("home.html") == nil {
		return errors.New("home.html template missing")
	}
	homeTmpl = tmpl
	return nil
}

// LoadTemplates loads the embedded templates. Call during startup before
// serving requests; if it returns an error, do not start the server.
func LoadTemplates() error {
	return loadTemplatesFromFS(viewsFS, "templates")
}

// Route is one entry in the home page route list. Href is an example URL
// for Path.
type Route struct {
	Path        string
	Href        string
	Description string
}

type HomeData struct {
	Title  string
	Routes []Route
	// FirstDate and LastDate are empty when the dataset bounds are unknown.
	FirstDate string
	LastDate  string
}

func RenderHome(w io.Writer, data *HomeData) error {
	if homeTmpl == nil {
		return errors.New("home template not loaded: call views.LoadTemplates during startup")
	}
	return homeTmpl.ExecuteTemplate(w, "home.html", data)
}
