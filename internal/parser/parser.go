// Package parser turns extracted resume text into structured content.
package parser

import (
	"context"
	"regexp"
	"strings"

	"portfolio-backend/internal/resume"
)

// Parser converts plain resume text into content.
type Parser interface {
	Parse(ctx context.Context, text string) (resume.Content, error)
}

// Heuristic is a line-oriented parser keyed on common section headings. It
// never fails on odd input; unrecognised lines land in the summary.
type Heuristic struct{}

const month = `(?:(?:jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]*\.?\s+)?`

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`\+?\d[\d\s().\-]{7,}\d`)
	linkPattern  = regexp.MustCompile(`(?i)\b(?:https?://|www\.|linkedin\.com/|github\.com/)[^\s,;|]+`)
	bulletPrefix = regexp.MustCompile(`^[\-\*•·▪◦]\s*`)
	dateRange    = regexp.MustCompile(`(?i)(` + month + `\d{4})\s*(?:-|–|—|to)\s*(` + month + `\d{4}|present|current|now)`)
)

type section int

const (
	sectionHeader section = iota
	sectionSummary
	sectionExperience
	sectionProjects
	sectionEducation
	sectionSkills
	sectionCertifications
)

var headings = map[string]section{
	"summary":                   sectionSummary,
	"profile":                   sectionSummary,
	"about":                     sectionSummary,
	"about me":                  sectionSummary,
	"objective":                 sectionSummary,
	"experience":                sectionExperience,
	"work experience":           sectionExperience,
	"professional experience":   sectionExperience,
	"employment":                sectionExperience,
	"employment history":        sectionExperience,
	"projects":                  sectionProjects,
	"personal projects":         sectionProjects,
	"education":                 sectionEducation,
	"skills":                    sectionSkills,
	"technical skills":          sectionSkills,
	"core skills":               sectionSkills,
	"certifications":            sectionCertifications,
	"certificates":              sectionCertifications,
	"licenses & certifications": sectionCertifications,
}

func (Heuristic) Parse(ctx context.Context, text string) (resume.Content, error) {
	if err := ctx.Err(); err != nil {
		return resume.Content{}, err
	}
	var (
		c       resume.Content
		current = sectionHeader
		summary []string
	)
	c.Email = emailPattern.FindString(text)
	c.Links = uniqueLinks(linkPattern.FindAllString(text, -1))

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if s, ok := headingFor(line); ok {
			current = s
			continue
		}
		bullet := bulletPrefix.MatchString(line)
		line = strings.TrimSpace(bulletPrefix.ReplaceAllString(line, ""))
		if line == "" {
			continue
		}

		switch current {
		case sectionHeader:
			parseHeaderLine(&c, line, &summary)
		case sectionSummary:
			summary = append(summary, line)
		case sectionExperience:
			parseExperienceLine(&c, line, bullet)
		case sectionProjects:
			parseProjectLine(&c, line, bullet)
		case sectionEducation:
			parseEducationLine(&c, line)
		case sectionSkills:
			c.Skills = append(c.Skills, splitSkills(line)...)
		case sectionCertifications:
			c.Certifications = append(c.Certifications, resume.Certification{Name: line})
		}
	}
	c.Summary = strings.Join(summary, " ")
	return clamp(c).Normalize(), nil
}

func headingFor(line string) (section, bool) {
	key := strings.ToLower(strings.TrimRight(strings.TrimSpace(line), ":"))
	s, ok := headings[key]
	return s, ok
}

func parseHeaderLine(c *resume.Content, line string, summary *[]string) {
	switch {
	case c.Name == "" && !emailPattern.MatchString(line) && !linkPattern.MatchString(line):
		c.Name = line
	case emailPattern.MatchString(line) || phonePattern.MatchString(line) || linkPattern.MatchString(line):
		if c.Phone == "" {
			c.Phone = strings.TrimSpace(phonePattern.FindString(line))
		}
		if c.Location == "" {
			c.Location = leftoverLocation(line)
		}
	case c.Title == "":
		c.Title = line
	case c.Location == "" && looksLikeLocation(line):
		c.Location = line
	default:
		*summary = append(*summary, line)
	}
}

// leftoverLocation returns the part of a contact line that is not an email,
// phone or link, when it looks like a place.
func leftoverLocation(line string) string {
	for _, part := range strings.FieldsFunc(line, func(r rune) bool { return r == '|' || r == '•' || r == '·' }) {
		part = strings.TrimSpace(part)
		if part == "" || emailPattern.MatchString(part) || phonePattern.MatchString(part) || linkPattern.MatchString(part) {
			continue
		}
		if looksLikeLocation(part) {
			return part
		}
	}
	return ""
}

func looksLikeLocation(line string) bool {
	return strings.Contains(line, ",") && len(line) <= 60 && !strings.ContainsAny(line, "@:")
}

func parseExperienceLine(c *resume.Content, line string, bullet bool) {
	n := len(c.Experience)
	if bullet && n > 0 {
		c.Experience[n-1].Highlights = append(c.Experience[n-1].Highlights, line)
		return
	}
	if n > 0 && dateRange.MatchString(line) && c.Experience[n-1].Start == "" {
		c.Experience[n-1].Start, c.Experience[n-1].End = dates(line)
		return
	}
	start, end := dates(line)
	role, company := splitRoleCompany(dateRange.ReplaceAllString(line, ""))
	c.Experience = append(c.Experience, resume.Experience{
		Role:    role,
		Company: company,
		Start:   start,
		End:     end,
	})
}

func parseProjectLine(c *resume.Content, line string, bullet bool) {
	n := len(c.Projects)
	if bullet && n > 0 {
		c.Projects[n-1].Highlights = append(c.Projects[n-1].Highlights, line)
		return
	}
	name, desc := splitOnce(line, " - ", " – ", ": ")
	p := resume.Project{Name: name, Description: desc}
	if url := linkPattern.FindString(line); url != "" {
		p.URL = url
	}
	c.Projects = append(c.Projects, p)
}

func parseEducationLine(c *resume.Content, line string) {
	n := len(c.Education)
	if n > 0 && c.Education[n-1].Degree == "" {
		start, end := dates(line)
		c.Education[n-1].Degree = strings.TrimSpace(dateRange.ReplaceAllString(line, ""))
		if c.Education[n-1].Start == "" {
			c.Education[n-1].Start, c.Education[n-1].End = start, end
		}
		return
	}
	start, end := dates(line)
	c.Education = append(c.Education, resume.Education{
		Institution: strings.Trim(strings.TrimSpace(dateRange.ReplaceAllString(line, "")), ",|-"),
		Start:       start,
		End:         end,
	})
}

func dates(line string) (string, string) {
	m := dateRange.FindStringSubmatch(line)
	if m == nil {
		return "", ""
	}
	end := m[2]
	switch strings.ToLower(end) {
	case "present", "current", "now":
		end = "Present"
	}
	return strings.TrimSpace(m[1]), strings.TrimSpace(end)
}

func splitRoleCompany(line string) (string, string) {
	line = strings.Trim(strings.TrimSpace(line), ",|-–(")
	role, company := splitOnce(line, " at ", " @ ", " | ", " - ", " – ", ", ")
	return strings.TrimSpace(role), strings.Trim(strings.TrimSpace(company), ",|-–()")
}

func splitOnce(line string, seps ...string) (string, string) {
	for _, sep := range seps {
		if i := strings.Index(line, sep); i > 0 {
			return strings.TrimSpace(line[:i]), strings.TrimSpace(line[i+len(sep):])
		}
	}
	return strings.TrimSpace(line), ""
}

func splitSkills(line string) []string {
	if _, rest := splitOnce(line, ": "); rest != "" {
		line = rest
	}
	parts := strings.FieldsFunc(line, func(r rune) bool { return r == ',' || r == '|' || r == ';' || r == '•' || r == '·' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func uniqueLinks(links []string) []string {
	seen := make(map[string]struct{}, len(links))
	var out []string
	for _, l := range links {
		l = strings.TrimRight(l, ".)")
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	return out
}
