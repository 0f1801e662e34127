package agents

import (
	"regexp"

	"github.com/askhub-io/askhub/internal/domain"
)

// GapPattern classifies a question into a knowledge-gap type. The patterns run
// in order against title and content; each match yields exactly one candidate
// gap with a templated title/description and a fixed priority.
type GapPattern struct {
	Type     string
	Pattern  *regexp.Regexp
	Priority domain.GapPriority
}

// GapPatterns is the ordered rule table for pattern-based gap detection.
var GapPatterns = []GapPattern{
	{
		Type:     "missing_documentation",
		Pattern:  regexp.MustCompile(`(?i)(how to|how do i|where can i find|where is the|is there documentation)`),
		Priority: domain.GapPriorityMedium,
	},
	{
		Type:     "troubleshooting",
		Pattern:  regexp.MustCompile(`(?i)(error|exception|failed|doesn't work|not working)`),
		Priority: domain.GapPriorityHigh,
	},
	{
		Type:     "best_practices",
		Pattern:  regexp.MustCompile(`(?i)(best practice|recommended|should i|what's the right way)`),
		Priority: domain.GapPriorityMedium,
	},
	{
		Type:     "version_updates",
		Pattern:  regexp.MustCompile(`(?i)(new|recent|latest|updated|version)`),
		Priority: domain.GapPriorityMedium,
	},
	{
		Type:     "integration_guide",
		Pattern:  regexp.MustCompile(`(?i)(integration|connect|api|webhook)`),
		Priority: domain.GapPriorityHigh,
	},
}

// GapTemplate is a technology-specific gap with a fixed title and priority.
type GapTemplate struct {
	Title       string
	Description string
	Priority    domain.GapPriority
}

// TechnologyGapTemplates maps detected technology keywords to gap templates.
var TechnologyGapTemplates = map[string]GapTemplate{
	"watson": {
		Title:       "Watson AI documentation gaps",
		Description: "Users need better documentation for Watson AI services and APIs.",
		Priority:    domain.GapPriorityHigh,
	},
	"kubernetes": {
		Title:       "Kubernetes deployment guides",
		Description: "Users need comprehensive guides for deploying applications on Kubernetes.",
		Priority:    domain.GapPriorityHigh,
	},
	"docker": {
		Title:       "Docker containerization guides",
		Description: "Users need help with Docker containerization and best practices.",
		Priority:    domain.GapPriorityMedium,
	},
	"openshift": {
		Title:       "Red Hat OpenShift guides",
		Description: "Users need documentation for Red Hat OpenShift platform.",
		Priority:    domain.GapPriorityHigh,
	},
	"microservices": {
		Title:       "Microservices architecture guides",
		Description: "Users need guidance on microservices architecture and patterns.",
		Priority:    domain.GapPriorityHigh,
	},
	"security": {
		Title:       "Security best practices",
		Description: "Users need comprehensive security guidelines and best practices.",
		Priority:    domain.GapPriorityHigh,
	},
}

// SkillRule derives a required skill from terms appearing in the question text.
type SkillRule struct {
	Terms  []string
	Skills []string
}

// SkillRules is the rule table used to derive required skills for routing.
var SkillRules = []SkillRule{
	{Terms: []string{"watson"}, Skills: []string{"watson_ai"}},
	{Terms: []string{"kubernetes", "openshift"}, Skills: []string{"kubernetes", "container_orchestration"}},
	{Terms: []string{"docker"}, Skills: []string{"docker", "containerization"}},
	{Terms: []string{"api", "rest"}, Skills: []string{"api_development"}},
	{Terms: []string{"security", "authentication"}, Skills: []string{"security"}},
	{Terms: []string{"database", "postgresql"}, Skills: []string{"database"}},
	{Terms: []string{"microservices"}, Skills: []string{"microservices"}},
	{Terms: []string{"devops", "ci/cd"}, Skills: []string{"devops"}},
}

// TechnologySkillMap maps technology mentions in a question to the skill the
// author likely holds.
var TechnologySkillMap = map[string]string{
	"watson":        "watson_ai",
	"kubernetes":    "kubernetes",
	"docker":        "docker",
	"openshift":     "openshift",
	"microservices": "microservices",
	"api":           "api_development",
	"security":      "security",
	"database":      "database",
	"postgresql":    "database",
	"redis":         "database",
	"node.js":       "javascript",
	"react":         "javascript",
	"python":        "python",
	"java":          "java",
	"devops":        "devops",
}

// ContentPatternRule derives a weak expertise signal from historical
// contribution text.
type ContentPatternRule struct {
	Terms      []string
	Skill      string
	Confidence float64
	Evidence   string
}

// ContentPatternRules is the rule table for author-history expertise signals.
var ContentPatternRules = []ContentPatternRule{
	{Terms: []string{"architecture", "design pattern"}, Skill: "system_design", Confidence: 0.7, Evidence: "Discusses architecture or design patterns"},
	{Terms: []string{"performance", "optimization"}, Skill: "performance_optimization", Confidence: 0.6, Evidence: "Discusses performance or optimization"},
	{Terms: []string{"security", "authentication"}, Skill: "security", Confidence: 0.8, Evidence: "Discusses security topics"},
	{Terms: []string{"testing", "unit test"}, Skill: "testing", Confidence: 0.7, Evidence: "Discusses testing practices"},
}
