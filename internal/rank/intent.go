package rank

import (
	"regexp"
)

// intentCategory maps a query pattern to the category tags it implies.
// Patterns run against the raw, untokenized query text.
type intentCategory struct {
	pattern    *regexp.Regexp
	categories []string
}

var intentCategories = []intentCategory{
	{regexp.MustCompile(`(?i)\b(note|notes|page|pages|document|documents|doc|docs|wiki|notion)\b`), []string{"notes", "documents"}},
	{regexp.MustCompile(`(?i)\b(issue|issues|pull request|pr|repo|repository|repositories|commit|branch|github|gitlab|code)\b`), []string{"code", "vcs"}},
	{regexp.MustCompile(`(?i)\b(file|files|folder|directory|directories|path|disk)\b`), []string{"files", "storage"}},
	{regexp.MustCompile(`(?i)\b(mail|email|inbox|message|messages|slack|chat|dm)\b`), []string{"communication", "messaging"}},
	{regexp.MustCompile(`(?i)\b(calendar|meeting|meetings|schedule|event|events|reminder)\b`), []string{"calendar", "scheduling"}},
	{regexp.MustCompile(`(?i)\b(database|db|sql|table|tables|record|records|row|rows)\b`), []string{"database", "data"}},
	{regexp.MustCompile(`(?i)\b(web|url|http|https|website|browse|scrape|fetch|download)\b`), []string{"web", "network"}},
	{regexp.MustCompile(`(?i)\b(task|tasks|todo|todos|ticket|tickets|project|board|jira|linear)\b`), []string{"tasks", "project-management"}},
	{regexp.MustCompile(`(?i)\b(deploy|deployment|server|servers|container|docker|kubernetes|k8s|infra|infrastructure)\b`), []string{"infrastructure", "devops"}},
	{regexp.MustCompile(`(?i)\b(search|find|look ?up|query)\b`), []string{"search"}},
}

// impliedCategories returns the union of category tags implied by the raw query text.
func impliedCategories(query string) map[string]struct{} {
	implied := make(map[string]struct{})
	for _, ic := range intentCategories {
		if !ic.pattern.MatchString(query) {
			continue
		}
		for _, c := range ic.categories {
			implied[c] = struct{}{}
		}
	}
	return implied
}

// verbClass associates trigger tokens from the query with an action pattern
// applied to a tool's name and description.
type verbClass struct {
	name   string
	verbs  map[string]struct{}
	action *regexp.Regexp
}

// verbClasses are checked in priority order: search beats create beats update
// beats delete when a query triggers more than one class.
var verbClasses = []verbClass{
	{
		name:   "search",
		verbs:  tokenSet("search", "find", "list", "get", "show", "read", "fetch", "query", "lookup", "view", "check", "describe"),
		action: regexp.MustCompile(`(?i)\b(search|find|list|get|read|fetch|quer|show|view|retriev|describ|check|status|info)\w*`),
	},
	{
		name:   "create",
		verbs:  tokenSet("create", "make", "add", "new", "write", "compose", "post", "generate", "insert", "send"),
		action: regexp.MustCompile(`(?i)\b(creat|make|add|new|writ|post|generat|insert|compos|send)\w*`),
	},
	{
		name:   "update",
		verbs:  tokenSet("update", "edit", "change", "modify", "rename", "move", "set", "patch", "assign"),
		action: regexp.MustCompile(`(?i)\b(updat|edit|chang|modif|renam|mov|set|patch|assign)\w*`),
	},
	{
		name:   "delete",
		verbs:  tokenSet("delete", "remove", "clear", "drop", "destroy", "cancel", "archive"),
		action: regexp.MustCompile(`(?i)\b(delet|remov|clear|drop|destroy|cancel|archiv)\w*`),
	},
}

// matchVerbClass resolves the query's verb class from its tokens, in priority
// order, and reports whether the given tool text matches that class's action
// pattern. Queries triggering no class score zero.
func matchVerbClass(queryTokens []string, toolText string) bool {
	for _, vc := range verbClasses {
		triggered := false
		for _, tok := range queryTokens {
			if _, ok := vc.verbs[tok]; ok {
				triggered = true
				break
			}
		}
		if !triggered {
			continue
		}
		return vc.action.MatchString(toolText)
	}
	return false
}

func tokenSet(tokens ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		m[t] = struct{}{}
	}
	return m
}
