package plan

import (
	"regexp"
	"strings"
)

type topic struct {
	pattern *regexp.Regexp
	draft   Draft
}

// Order matters: the first matching topic wins.
var topics = []topic{
	{
		pattern: regexp.MustCompile(`study|learn|revise|read`),
		draft: Draft{
			Starter: "Open notes, name a section, and list 3 headings.",
			Steps: []string{
				"Write 3 bullets of what you already know.",
				"Skim one page/slide and capture 3 key terms.",
				"Answer one easy check: define 1 concept.",
			},
		},
	},
	{
		pattern: regexp.MustCompile(`code|bug|fix|build|commit`),
		draft: Draft{
			Starter: "Open the repo, run it once, and note the failing area.",
			Steps: []string{
				"Write a 3-bullet plan in TODO form.",
				"Add one log or test to see the current behavior.",
				"Make one small change and verify locally.",
			},
		},
	},
	{
		pattern: regexp.MustCompile(`assignment|report|essay|write`),
		draft: Draft{
			Starter: "Create the doc, add a title, and drop 3 outline bullets.",
			Steps: []string{
				"Draft a rough intro sentence.",
				"Fill one outline bullet with 2 sentences.",
				"Add a source or citation placeholder.",
			},
		},
	},
	{
		pattern: regexp.MustCompile(`email|reach out|follow up`),
		draft: Draft{
			Starter: "Open your email and draft a 3-line skeleton: greet, ask, close.",
			Steps: []string{
				"Fill in one specific ask or update.",
				"Attach or link the needed file/resource.",
				"Add a clear next step and send/save draft.",
			},
		},
	},
}

var genericDraft = Draft{
	Starter: "Write the tiniest next move you can finish in 2 minutes.",
	Steps: []string{
		"Write 3 bullets for what success looks like.",
		"Do one tiny action that takes <5 min.",
		"Leave a note for future you on what's next.",
	},
}

// RuleGenerator builds plans from a fixed keyword table. It has no state.
type RuleGenerator struct{}

// Draft returns the topic draft for task. The returned steps are a fresh
// copy the caller may modify.
func (RuleGenerator) Draft(task string) Draft {
	lowered := strings.ToLower(task)
	d := genericDraft
	for _, t := range topics {
		if t.pattern.MatchString(lowered) {
			d = t.draft
			break
		}
	}
	return Draft{Starter: d.Starter, Steps: append([]string(nil), d.Steps...)}
}

// Generate returns the unbounded rule plan for task, tagged SourceRule.
func (g RuleGenerator) Generate(task string) Plan {
	d := g.Draft(task)
	return Plan{Starter: d.Starter, Steps: d.Steps, Source: SourceRule}
}
