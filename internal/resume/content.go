package resume

// Content is the structured resume data produced by the parser collaborator
// and edited by the owner. Every section is optional; Normalize turns missing
// sections into empty ones so renderers never see nil.
type Content struct {
	Name           string          `json:"name"`
	Title          string          `json:"title"`
	Summary        string          `json:"summary"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone"`
	Location       string          `json:"location"`
	Links          []string        `json:"links"`
	Skills         []string        `json:"skills"`
	Experience     []Experience    `json:"experience"`
	Projects       []Project       `json:"projects"`
	Education      []Education     `json:"education"`
	Certifications []Certification `json:"certifications"`
}

// Experience represents a work history entry.
type Experience struct {
	Company    string   `json:"company"`
	Role       string   `json:"role"`
	Location   string   `json:"location"`
	Start      string   `json:"start"`
	End        string   `json:"end"`
	Highlights []string `json:"highlights"`
}

// Project represents a portfolio project.
type Project struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	URL         string   `json:"url"`
	Stack       []string `json:"stack"`
	Highlights  []string `json:"highlights"`
}

// Education represents an education entry.
type Education struct {
	Institution string `json:"institution"`
	Degree      string `json:"degree"`
	Field       string `json:"field"`
	Start       string `json:"start"`
	End         string `json:"end"`
}

// Certification represents a certification entry.
type Certification struct {
	Name   string `json:"name"`
	Issuer string `json:"issuer"`
	Date   string `json:"date"`
}

// Normalize returns a copy with every nil section replaced by an empty one.
func (c Content) Normalize() Content {
	out := c.Clone()
	if out.Links == nil {
		out.Links = []string{}
	}
	if out.Skills == nil {
		out.Skills = []string{}
	}
	if out.Experience == nil {
		out.Experience = []Experience{}
	}
	if out.Projects == nil {
		out.Projects = []Project{}
	}
	if out.Education == nil {
		out.Education = []Education{}
	}
	if out.Certifications == nil {
		out.Certifications = []Certification{}
	}
	for i := range out.Experience {
		if out.Experience[i].Highlights == nil {
			out.Experience[i].Highlights = []string{}
		}
	}
	for i := range out.Projects {
		if out.Projects[i].Stack == nil {
			out.Projects[i].Stack = []string{}
		}
		if out.Projects[i].Highlights == nil {
			out.Projects[i].Highlights = []string{}
		}
	}
	return out
}

// Clone returns a deep copy; share snapshots rely on it so later edits to a
// document never reach content that was already handed out.
func (c Content) Clone() Content {
	out := c
	out.Links = cloneStrings(c.Links)
	out.Skills = cloneStrings(c.Skills)
	if c.Experience != nil {
		out.Experience = make([]Experience, len(c.Experience))
		for i, e := range c.Experience {
			e.Highlights = cloneStrings(e.Highlights)
			out.Experience[i] = e
		}
	}
	if c.Projects != nil {
		out.Projects = make([]Project, len(c.Projects))
		for i, p := range c.Projects {
			p.Stack = cloneStrings(p.Stack)
			p.Highlights = cloneStrings(p.Highlights)
			out.Projects[i] = p
		}
	}
	if c.Education != nil {
		out.Education = append([]Education(nil), c.Education...)
	}
	if c.Certifications != nil {
		out.Certifications = append([]Certification(nil), c.Certifications...)
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
