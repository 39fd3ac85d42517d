package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"gopkg.in/yaml.v3"

	"github.com/twominute/twominute/internal/config"
	"github.com/twominute/twominute/internal/guardrail"
	"github.com/twominute/twominute/internal/model"
	"github.com/twominute/twominute/internal/plan"
	"github.com/twominute/twominute/pkg/clog"
)

var (
	app       = kingpin.New("twominute", "Turn an avoided task into a two-minute starter and a short plan")
	rulesFile = app.Flag("rules", "Guardrail rules file (YAML)").Envar("TWOMINUTE_GUARDRAIL_RULES_FILE").String()
	verbose   = app.Flag("verbose", "Log model fallbacks to stderr").Short('v').Bool()

	planCmd    = app.Command("plan", "Generate a starter plan for a task")
	planTask   = planCmd.Arg("task", "What you are avoiding").Required().String()
	planBadDay = planCmd.Flag("bad-day", "Only one follow-up step").Bool()
	planSprint = planCmd.Flag("sprint", "Sprint length in minutes (5-30)").Default("10").Int()
	planRemote = planCmd.Flag("remote", "Use the Gemini model when an API key is configured").Default("true").Bool()
	planJSON   = planCmd.Flag("json", "Print the plan as JSON").Bool()

	checkCmd  = app.Command("check", "Run the guardrail against text")
	checkText = checkCmd.Arg("text", "Text to check").Required().String()

	rulesCmd = app.Command("rules", "Print the active guardrail rules")
)

func main() {
	os.Exit(run())
}

func run() int {
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	level := slog.LevelError
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(clog.NewAttributesHandler(clog.NewHTTPTextHandler(os.Stderr, clog.WithLevel(level)))))

	filter, err := loadFilter(*rulesFile)
	app.FatalIfError(err, "guardrail rules")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	switch command {
	case planCmd.FullCommand():
		return runPlan(ctx, filter)
	case checkCmd.FullCommand():
		return runCheck(filter)
	case rulesCmd.FullCommand():
		app.FatalIfError(yaml.NewEncoder(os.Stdout).Encode(filter.Rules()), "encode rules")
	}
	return 0
}

func loadFilter(path string) (*guardrail.Filter, error) {
	if path == "" {
		return guardrail.NewFilter(guardrail.DefaultRules()), nil
	}
	rules, err := guardrail.LoadRules(path)
	if err != nil {
		return nil, err
	}
	return guardrail.NewFilter(rules), nil
}

func runPlan(ctx context.Context, filter *guardrail.Filter) int {
	var remote plan.RemoteGenerator
	geminiEnv, err := config.LoadGeminiEnv()
	app.FatalIfError(err, "config")
	if geminiEnv.RemoteEnabled() {
		svc, err := model.NewGeminiService(ctx, geminiEnv.APIKey)
		app.FatalIfError(err, "gemini")
		remote = model.NewGenerator(svc, geminiEnv.Candidates(), model.WithCallTimeout(geminiEnv.CallTimeout))
	}

	req, err := planRequest(*planTask, *planBadDay, *planSprint, *planRemote)
	if err != nil {
		fmt.Fprintf(os.Stderr, "twominute: %v\n", err)
		return 1
	}
	p, err := plan.NewService(filter, remote).Generate(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "twominute: %v\n", err)
		return 1
	}

	if *planJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		app.FatalIfError(enc.Encode(p), "encode plan")
		return 0
	}
	fmt.Printf("Starter (2 min): %s\n", p.Starter)
	for i, step := range p.Steps {
		fmt.Printf("  %d. %s\n", i+1, step)
	}
	fmt.Printf("Sprint: %d min  [%s]\n", req.SprintLength(), p.Source)
	return 0
}

// planRequest builds the request for the plan command. The flag always has a
// value, so 0 is an explicit choice and out of range.
func planRequest(task string, badDay bool, sprint int, remote bool) (plan.Request, error) {
	req := plan.Request{Task: task, BadDay: badDay, SprintLengthMinutes: sprint, UseRemoteModel: remote}
	if sprint == 0 {
		return plan.Request{}, fmt.Errorf("--sprint must be between %d and %d", plan.MinSprintLength, plan.MaxSprintLength)
	}
	if err := req.Validate(); err != nil {
		return plan.Request{}, err
	}
	return req, nil
}

func runCheck(filter *guardrail.Filter) int {
	v := filter.Check(*checkText)
	if !v.Blocked {
		fmt.Println("ok")
		return 0
	}
	if v.Match != "" {
		fmt.Printf("blocked: %s (%q)\n", v.Reason, v.Match)
	} else {
		fmt.Printf("blocked: %s\n", v.Reason)
	}
	return 2
}
