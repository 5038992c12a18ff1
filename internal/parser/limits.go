package parser

import (
	"unicode/utf8"

	"portfolio-backend/internal/resume"
)

// Bounds mirror the content schema so parser output always validates.
const (
	maxShort    = 200
	maxSummary  = 5000
	maxLinks    = 20
	maxSkills   = 200
	maxEntries  = 50
	maxSchools  = 20
	maxSkillLen = 100
	maxLinkLen  = 500
)

func clamp(c resume.Content) resume.Content {
	c.Name = truncate(c.Name, maxShort)
	c.Title = truncate(c.Title, maxShort)
	c.Location = truncate(c.Location, maxShort)
	c.Summary = truncate(c.Summary, maxSummary)
	c.Email = truncate(c.Email, 320)
	c.Phone = truncate(c.Phone, 64)

	if len(c.Links) > maxLinks {
		c.Links = c.Links[:maxLinks]
	}
	for i := range c.Links {
		c.Links[i] = truncate(c.Links[i], maxLinkLen)
	}
	if len(c.Skills) > maxSkills {
		c.Skills = c.Skills[:maxSkills]
	}
	for i := range c.Skills {
		c.Skills[i] = truncate(c.Skills[i], maxSkillLen)
	}
	if len(c.Experience) > maxEntries {
		c.Experience = c.Experience[:maxEntries]
	}
	if len(c.Projects) > maxEntries {
		c.Projects = c.Projects[:maxEntries]
	}
	if len(c.Education) > maxSchools {
		c.Education = c.Education[:maxSchools]
	}
	if len(c.Certifications) > maxEntries {
		c.Certifications = c.Certifications[:maxEntries]
	}
	return c
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max])
}
