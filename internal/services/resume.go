package services

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-pdf/fpdf"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"portfolio/internal/config"
	"portfolio/internal/metrics"
)

//go:embed templates/resume/resume.yaml
var resumeYAML []byte

var unsafeNameChars = regexp.MustCompile(`[^A-Za-z0-9_-]+`)

const maxResumeNameLen = 64

// ResumeDocument is the résumé content rendered into the PDF
type ResumeDocument struct {
	Name    string `yaml:"name"`
	Title   string `yaml:"title"`
	Contact struct {
		Email    string `yaml:"email"`
		Phone    string `yaml:"phone"`
		Location string `yaml:"location"`
		Website  string `yaml:"website"`
		LinkedIn string `yaml:"linkedin"`
		GitHub   string `yaml:"github"`
	} `yaml:"contact"`
	Summary string `yaml:"summary"`
	Skills  []struct {
		Category string   `yaml:"category"`
		Items    []string `yaml:"items"`
	} `yaml:"skills"`
	Experience []struct {
		Role       string   `yaml:"role"`
		Company    string   `yaml:"company"`
		Period     string   `yaml:"period"`
		Location   string   `yaml:"location"`
		Highlights []string `yaml:"highlights"`
	} `yaml:"experience"`
	Education []struct {
		Degree  string `yaml:"degree"`
		School  string `yaml:"school"`
		Period  string `yaml:"period"`
		Details string `yaml:"details"`
	} `yaml:"education"`
	Certifications []string `yaml:"certifications"`
	Languages      []struct {
		Name  string `yaml:"name"`
		Level string `yaml:"level"`
	} `yaml:"languages"`
}

// ParseResume decodes a YAML résumé document
func ParseResume(data []byte) (*ResumeDocument, error) {
	var doc ResumeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse resume: %w", err)
	}
	if doc.Name == "" {
		return nil, fmt.Errorf("resume has no name")
	}
	return &doc, nil
}

// ResumeFile is a PDF ready to be served
type ResumeFile struct {
	Filename string
	Data     []byte
	// Cached is set when generation failed and a cached copy was served
	Cached bool
}

// ResumeService renders and caches the résumé PDF
type ResumeService struct {
	doc         *ResumeDocument
	cacheDir    string
	defaultName string
	log         *zap.Logger
	generate    func(name string) ([]byte, error)
}

// NewResumeService creates a résumé service from the embedded document
func NewResumeService(cfg *config.ResumeConfig, log *zap.Logger) (*ResumeService, error) {
	doc, err := ParseResume(resumeYAML)
	if err != nil {
		return nil, err
	}
	s := &ResumeService{
		doc:         doc,
		cacheDir:    cfg.CacheDir,
		defaultName: SanitizeResumeName(cfg.DefaultName, "Resume"),
		log:         log.Named("resume"),
	}
	s.generate = s.Generate
	return s, nil
}

// SanitizeResumeName reduces name to at most 64 characters of
// [A-Za-z0-9_-], falling back to def
func SanitizeResumeName(name, def string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, " ", "_")
	name = unsafeNameChars.ReplaceAllString(name, "")
	if len(name) > maxResumeNameLen {
		name = name[:maxResumeNameLen]
	}
	if name == "" {
		return def
	}
	return name
}

// Generate renders the résumé as a Letter-size PDF
func (s *ResumeService) Generate(name string) ([]byte, error) {
	d := s.doc
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(tr(name+" Resume"), false)
	pdf.SetAuthor(tr(d.Name), false)
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	// Header
	pdf.SetFont("Helvetica", "B", 22)
	pdf.SetTextColor(46, 134, 171)
	pdf.CellFormat(0, 10, tr(strings.ToUpper(d.Name)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 13)
	pdf.SetTextColor(60, 60, 60)
	pdf.CellFormat(0, 7, tr(d.Title), "", 1, "C", false, 0, "")

	var contact []string
	for _, c := range []struct{ label, value string }{
		{"Email", d.Contact.Email},
		{"Phone", d.Contact.Phone},
		{"Location", d.Contact.Location},
		{"Web", d.Contact.Website},
		{"LinkedIn", d.Contact.LinkedIn},
		{"GitHub", d.Contact.GitHub},
	} {
		if c.value != "" {
			contact = append(contact, c.label+": "+c.value)
		}
	}
	pdf.SetFont("Helvetica", "", 9)
	pdf.MultiCell(0, 5, tr(strings.Join(contact, "  |  ")), "", "C", false)
	pdf.Ln(2)

	section := func(title string) {
		pdf.Ln(3)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.SetTextColor(46, 134, 171)
		pdf.CellFormat(0, 7, tr(strings.ToUpper(title)), "", 1, "L", false, 0, "")
		y := pdf.GetY()
		pdf.SetDrawColor(46, 134, 171)
		pdf.Line(15, y, 200.9, y)
		pdf.Ln(2)
		pdf.SetTextColor(30, 30, 30)
	}
	body := func(text string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.MultiCell(0, 5, tr(strings.TrimSpace(text)), "", "L", false)
	}

	if d.Summary != "" {
		section("Professional Summary")
		body(d.Summary)
	}

	if len(d.Skills) > 0 {
		section("Technical Skills")
		for _, sk := range d.Skills {
			pdf.SetFont("Helvetica", "B", 10)
			pdf.CellFormat(35, 5, tr(sk.Category+":"), "", 0, "L", false, 0, "")
			body(strings.Join(sk.Items, ", "))
		}
	}

	if len(d.Experience) > 0 {
		section("Professional Experience")
		for _, e := range d.Experience {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(120, 6, tr(e.Role+" - "+e.Company), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(0, 6, tr(e.Period), "", 1, "R", false, 0, "")
			if e.Location != "" {
				pdf.SetFont("Helvetica", "I", 9)
				pdf.CellFormat(0, 5, tr(e.Location), "", 1, "L", false, 0, "")
			}
			for _, h := range e.Highlights {
				body("- " + h)
			}
			pdf.Ln(2)
		}
	}

	if len(d.Education) > 0 {
		section("Education")
		for _, e := range d.Education {
			pdf.SetFont("Helvetica", "B", 11)
			pdf.CellFormat(120, 6, tr(e.Degree), "", 0, "L", false, 0, "")
			pdf.SetFont("Helvetica", "I", 10)
			pdf.CellFormat(0, 6, tr(e.Period), "", 1, "R", false, 0, "")
			body(e.School)
			if e.Details != "" {
				body(e.Details)
			}
		}
	}

	if len(d.Certifications) > 0 {
		section("Certifications")
		for _, c := range d.Certifications {
			body("- " + c)
		}
	}

	if len(d.Languages) > 0 {
		section("Languages")
		var langs []string
		for _, l := range d.Languages {
			langs = append(langs, fmt.Sprintf("%s (%s)", l.Name, l.Level))
		}
		body(strings.Join(langs, ", "))
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render resume PDF: %w", err)
	}
	return buf.Bytes(), nil
}

// Download generates the PDF for name and returns it under
// "<name>_Resume.pdf". The cache holds a single file regardless of the
// requested name, refreshed on every successful generation and served when
// generation fails. It errors only when neither is available.
func (s *ResumeService) Download(name string) (*ResumeFile, error) {
	name = SanitizeResumeName(name, s.defaultName)
	filename := name + "_Resume.pdf"
	log := s.log.With(zap.String("name", name))

	data, err := s.generate(name)
	if err == nil {
		if werr := s.writeCache(data); werr != nil {
			log.Warn("failed to cache resume", zap.Error(werr))
		}
		log.Info("resume generated", zap.Int("bytes", len(data)))
		metrics.RecordResumeDownload("generated")
		return &ResumeFile{Filename: filename, Data: data}, nil
	}
	log.Error("resume generation failed", zap.Error(err))

	if cached, ok := s.readCache(); ok {
		log.Info("serving cached resume")
		metrics.RecordResumeDownload("cache")
		return &ResumeFile{Filename: filename, Data: cached, Cached: true}, nil
	}

	metrics.RecordResumeDownload("failed")
	return nil, NewInternalError("resume unavailable", err)
}

func (s *ResumeService) cachePath() string {
	return filepath.Join(s.cacheDir, s.defaultName+"_Resume.pdf")
}

func (s *ResumeService) writeCache(data []byte) error {
	if err := os.MkdirAll(s.cacheDir, 0o755); err != nil {
		return err
	}
	path := s.cachePath()
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (s *ResumeService) readCache() ([]byte, bool) {
	data, err := os.ReadFile(s.cachePath())
	if err != nil || len(data) == 0 {
		return nil, false
	}
	return data, true
}
