package main

import (
	"regexp"
	"strings"
)

// Skill identifiers, matching the ids advertised in the agent card.
const (
	skillProblems = "get_problems"
	skillAnalyze  = "analyze_problem"
	skillTopology = "get_topology"
	skillHealth   = "get_health"
	skillIncident = "create_incident"
	skillQuery    = "query"
)

// route is the outcome of intent parsing: which skill handles the message
// and the parameters extracted from it.
type route struct {
	skill     string
	problemID string // analyze, incident
	timeRange string // problems, e.g. "24h", "7d"
	service   string // topology: name or SERVICE- id
	entityID  string // health
	question  string // query: the raw message
}

var (
	problemIDRe = regexp.MustCompile(`(?i)\b(P-\d+)\b`)

	incidentRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:create|generate|make)\s*(?:an?\s*)?(?:servicenow\s*)?incident`),
		regexp.MustCompile(`(?i)(?:servicenow|snow)\s*(?:summary|incident)`),
	}

	listProblemsRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:show|list|get|what\s+are|what|any)\s*(?:me\s*)?(?:the\s*)?(?:all\s*)?(?:open\s*)?(?:problems?|issues?)`),
		regexp.MustCompile(`(?i)what(?:'s| is) wrong`),
		regexp.MustCompile(`(?i)any\s*(?:open\s*)?issues?`),
		regexp.MustCompile(`(?i)current\s*(?:problems?|issues?|alerts?)`),
		regexp.MustCompile(`(?i)(?:show|list)\s*alerts?`),
	}

	timeRangeRe = regexp.MustCompile(`(?i)(?:last|past)\s*(\d+)\s*(h|hour|d|day|w|week)`)

	topologyRe = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(?:topology|dependencies|dependency|architecture)\s*(?:for|of)?\s*"?([a-zA-Z0-9_\-.]+)"?`),
		regexp.MustCompile(`(?i)what\s+(?:does|services?)\s+"?([a-zA-Z0-9_\-.]+)"?\s+(?:call|depend|connect)`),
		regexp.MustCompile(`(?i)"?([a-zA-Z0-9_\-.]+)"?\s+(?:topology|dependencies|architecture)`),
	}

	entityIDRe    = regexp.MustCompile(`(?i)\b((?:HOST|SERVICE|PROCESS|APPLICATION)-[A-Z0-9]+)\b`)
	healthWordsRe = regexp.MustCompile(`(?i)health|status|metrics?|check|how\s+is`)
)

// parseIntent selects exactly one skill for the message text. Rules are
// checked in priority order and the first match wins:
//
//  1. incident keywords plus a problem id
//  2. any problem id (P-NNN) → root cause analysis
//  3. list-problems keywords, with an optional "last N h/d/w" range
//  4. topology keywords with a service name
//  5. an entity id plus health keywords
//  6. everything else → free-form query
func parseIntent(query string) route {
	if id, ok := matchProblemID(query); ok {
		for _, re := range incidentRe {
			if re.MatchString(query) {
				return route{skill: skillIncident, problemID: id}
			}
		}
		return route{skill: skillAnalyze, problemID: id}
	}

	for _, re := range listProblemsRe {
		if re.MatchString(query) {
			return route{skill: skillProblems, timeRange: matchTimeRange(query)}
		}
	}

	for _, re := range topologyRe {
		if m := re.FindStringSubmatch(query); m != nil {
			return route{skill: skillTopology, service: m[1]}
		}
	}

	if m := entityIDRe.FindStringSubmatch(query); m != nil && healthWordsRe.MatchString(query) {
		return route{skill: skillHealth, entityID: strings.ToUpper(m[1])}
	}

	return route{skill: skillQuery, question: query}
}

func matchProblemID(query string) (string, bool) {
	m := problemIDRe.FindStringSubmatch(query)
	if m == nil {
		return "", false
	}
	return strings.ToUpper(m[1]), true
}

// matchTimeRange extracts "last 7 days" style ranges as "7d",
// defaulting to 24h.
func matchTimeRange(query string) string {
	m := timeRangeRe.FindStringSubmatch(query)
	if m == nil {
		return "24h"
	}
	return m[1] + strings.ToLower(m[2][:1])
}
