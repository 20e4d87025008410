// Package rank scores candidate tools against recent conversational context
// using four weighted signals: keyword overlap, category affinity, verb-class
// intent, and usage recency.
package rank

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/toolmux/toolmux/internal/contracts"
	"github.com/toolmux/toolmux/internal/domain"
)

const (
	weightKeyword  = 0.4
	weightCategory = 0.3
	weightIntent   = 0.2
	weightHistory  = 0.1

	// neutralScore is assigned to every candidate when the conversation gives
	// nothing to rank against: "can't tell, don't hide anything".
	neutralScore = 0.5

	// recentMessageWindow is how many trailing user messages form the query.
	recentMessageWindow = 3

	MatchTypeKeyword  = "keyword"
	MatchTypeCategory = "category"
	MatchTypeIntent   = "intent"
	MatchTypeHistory  = "history"
	MatchTypeNeutral  = "neutral"
)

var _ contracts.Ranker = (*Ranker)(nil)

// Ranker scores tools against recent user messages. Safe for concurrent use.
type Ranker struct {
	logger hclog.Logger
	opts   Options
	usage  *usageTracker
}

// NewRanker creates a Ranker with the supplied options applied over defaults.
func NewRanker(logger hclog.Logger, opt ...Option) (*Ranker, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Ranker{
		logger: logger.Named("ranker"),
		opts:   opts,
		usage:  newUsageTracker(opts.usageWindow, opts.now),
	}, nil
}

// Rank scores the candidates against the most recent user messages.
// Candidates at or above the relevance threshold are returned sorted by
// descending score, truncated to the per-turn maximum. When the messages
// yield no usable query text, every candidate above the threshold is returned
// at the neutral score instead, untruncated.
func (r *Ranker) Rank(messages []domain.Message, candidates []domain.ToolDescriptor) ([]domain.RelevanceScore, error) {
	query := recentUserText(messages)
	tokens := Tokenize(query)

	if len(tokens) == 0 {
		r.logger.Debug("no usable query text, returning neutral scores", "candidates", len(candidates))
		return r.neutral(candidates), nil
	}

	implied := impliedCategories(query)

	scored := make([]domain.RelevanceScore, 0, len(candidates))
	for _, tool := range candidates {
		score := r.scoreTool(tokens, implied, tool)
		if score.Score < r.opts.relevanceThreshold {
			continue
		}
		scored = append(scored, score)
	}

	sortScores(scored)

	if len(scored) > r.opts.maxToolsPerTurn {
		scored = scored[:r.opts.maxToolsPerTurn]
	}

	r.logger.Debug("ranked tools", "query_tokens", len(tokens), "candidates", len(candidates), "returned", len(scored))

	return scored, nil
}

// RecordUsage timestamps the (server, tool) pair for the history signal and
// purges records older than the usage window.
func (r *Ranker) RecordUsage(server string, tool string) {
	r.usage.record(server + "/" + tool)
}

// neutral returns every candidate at the fixed neutral score. The threshold
// still applies so that a deliberately unreachable threshold empties the list,
// but the per-turn cap does not: the fallback hides nothing.
func (r *Ranker) neutral(candidates []domain.ToolDescriptor) []domain.RelevanceScore {
	if neutralScore < r.opts.relevanceThreshold {
		return []domain.RelevanceScore{}
	}

	scored := make([]domain.RelevanceScore, 0, len(candidates))
	for _, tool := range candidates {
		scored = append(scored, domain.RelevanceScore{
			Tool:      tool,
			Score:     neutralScore,
			MatchType: MatchTypeNeutral,
		})
	}
	return scored
}

func (r *Ranker) scoreTool(queryTokens []string, implied map[string]struct{}, tool domain.ToolDescriptor) domain.RelevanceScore {
	kw := keywordSignal(queryTokens, tool)
	cat := categorySignal(implied, tool)
	intent := intentSignal(queryTokens, tool)
	hist := r.usage.recency(tool.Key())

	composite := weightKeyword*kw + weightCategory*cat + weightIntent*intent + weightHistory*hist

	// Dominant signal by raw value; ties resolve keyword > category > intent > history.
	matchType := MatchTypeKeyword
	best := kw
	for _, c := range []struct {
		name  string
		value float64
	}{
		{MatchTypeCategory, cat},
		{MatchTypeIntent, intent},
		{MatchTypeHistory, hist},
	} {
		if c.value > best {
			best = c.value
			matchType = c.name
		}
	}

	return domain.RelevanceScore{
		Tool:      tool,
		Score:     composite,
		MatchType: matchType,
	}
}

// keywordSignal is the fraction of query tokens that substring-match, in
// either direction, a token derived from the tool's name or description.
func keywordSignal(queryTokens []string, tool domain.ToolDescriptor) float64 {
	toolTokens := splitIdentifier(tool.Name)
	toolTokens = append(toolTokens, Tokenize(tool.Description)...)
	if len(toolTokens) == 0 {
		return 0
	}

	matched := 0
	for _, q := range queryTokens {
		for _, t := range toolTokens {
			if strings.Contains(t, q) || strings.Contains(q, t) {
				matched++
				break
			}
		}
	}

	return float64(matched) / float64(len(queryTokens))
}

// categorySignal is the fraction of the tool's declared category tags present
// in the union of categories implied by the query. Untagged tools score zero.
func categorySignal(implied map[string]struct{}, tool domain.ToolDescriptor) float64 {
	if len(tool.Categories) == 0 || len(implied) == 0 {
		return 0
	}

	matched := 0
	for _, c := range tool.Categories {
		if _, ok := implied[strings.ToLower(c)]; ok {
			matched++
		}
	}

	return float64(matched) / float64(len(tool.Categories))
}

// intentSignal is binary: 1 when the query triggers a verb class and the
// tool's name and description match that class's action pattern.
func intentSignal(queryTokens []string, tool domain.ToolDescriptor) float64 {
	if matchVerbClass(queryTokens, tool.Name+" "+tool.Description) {
		return 1
	}
	return 0
}

// recentUserText concatenates the most recent user-authored messages.
func recentUserText(messages []domain.Message) string {
	var user []string
	for _, m := range messages {
		if m.Role == domain.RoleUser {
			user = append(user, m.Content)
		}
	}

	if len(user) > recentMessageWindow {
		user = user[len(user)-recentMessageWindow:]
	}

	return strings.TrimSpace(strings.Join(user, " "))
}

// sortScores orders by descending score, breaking ties by server then tool
// name so results are deterministic.
func sortScores(scored []domain.RelevanceScore) {
	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		if scored[i].Tool.ServerName != scored[j].Tool.ServerName {
			return scored[i].Tool.ServerName < scored[j].Tool.ServerName
		}
		return scored[i].Tool.Name < scored[j].Tool.Name
	})
}
