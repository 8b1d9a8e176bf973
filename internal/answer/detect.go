package answer

import "strings"

// knownPlatforms are automation/agent platforms users commonly mention when
// asking for a component. Order matters: the first match wins.
var knownPlatforms = []string{
	"langflow",
	"flowise",
	"n8n",
	"make",
	"zapier",
	"dify",
	"langchain",
	"llamaindex",
	"haystack",
	"semantic kernel",
	"autogen",
	"crewai",
}

// DetectPlatform returns the title-cased name of the first known platform
// mentioned in the query, or "" when none is.
func DetectPlatform(query string) string {
	lower := strings.ToLower(query)
	for _, p := range knownPlatforms {
		if strings.Contains(lower, p) {
			return strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return ""
}
