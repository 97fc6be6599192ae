package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/RowanDark/xorcist/internal/cipher"
	"github.com/RowanDark/xorcist/internal/config"
	"github.com/RowanDark/xorcist/internal/logging"
)

func runRecipe(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "recipe subcommand required")
		return 2
	}
	switch args[0] {
	case "list":
		return runRecipeList(args[1:])
	case "run":
		return runRecipeRun(args[1:])
	case "save":
		return runRecipeSave(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "unknown recipe subcommand: %s\n", args[0])
		return 2
	}
}

// openRecipes returns a manager backed by the configured recipes directory,
// along with the config it was resolved from. Unreadable recipe files are
// reported but do not stop the command.
func openRecipes() (*cipher.RecipeManager, config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("load config: %w", err)
	}
	dir, err := cfg.ResolveRecipesDir()
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("resolve recipes dir: %w", err)
	}
	rm := cipher.NewRecipeManager(dir)
	if err := rm.LoadRecipes(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v\n", err)
	}
	return rm, cfg, nil
}

func runRecipeList(args []string) int {
	fs := flag.NewFlagSet("recipe list", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	query := fs.String("search", "", "only show recipes matching this text")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	rm, _, err := openRecipes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	recipes := rm.ListRecipes()
	if *query != "" {
		recipes = rm.SearchRecipes(*query)
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tSTEPS\tSOURCE\tDESCRIPTION")
	for _, r := range recipes {
		source := "user"
		if r.Builtin {
			source = "builtin"
		}
		steps := make([]string, len(r.Pipeline.Operations))
		for i, op := range r.Pipeline.Operations {
			steps[i] = op.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.Name, strings.Join(steps, " > "), source, r.Description)
	}
	tw.Flush()
	return 0
}

func runRecipeRun(args []string) int {
	fs := flag.NewFlagSet("recipe run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	reverse := fs.Bool("reverse", false, "run the inverse pipeline")
	hexIn := fs.Bool("hex-in", false, "decode input from hex first")
	hexOut := fs.Bool("hex-out", false, "print output as hex")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "recipe name required")
		return 2
	}

	rm, _, err := openRecipes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	recipe, ok := rm.GetRecipe(fs.Arg(0))
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown recipe: %s\n", fs.Arg(0))
		return 1
	}
	pipeline := recipe.Pipeline
	return runPipeline(&pipeline, *reverse, *hexIn, *hexOut, fs.Args()[1:])
}

func runRecipeSave(args []string) int {
	fs := flag.NewFlagSet("recipe save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	name := fs.String("name", "", "recipe name")
	description := fs.String("description", "", "short description")
	tags := fs.String("tags", "", "comma separated tags")
	irreversible := fs.Bool("irreversible", false, "mark the recipe as one-way")
	var ops opList
	fs.Var(&ops, "op", "operation to apply, name[:key=value,...]; repeat to chain")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *name == "" {
		fmt.Fprintln(os.Stderr, "--name must be provided")
		return 2
	}
	if len(ops) == 0 {
		fmt.Fprintln(os.Stderr, "at least one --op is required")
		return 2
	}
	for _, op := range ops {
		if _, ok := cipher.GetOperation(op.Name); !ok {
			fmt.Fprintf(os.Stderr, "unknown operation: %s\n", op.Name)
			return 2
		}
	}

	rm, cfg, err := openRecipes()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if existing, ok := rm.GetRecipe(*name); ok && existing.Builtin {
		fmt.Fprintf(os.Stderr, "recipe %s is builtin and cannot be replaced\n", *name)
		return 1
	}

	recipe := &cipher.Recipe{
		Name:        *name,
		Description: *description,
		Tags:        splitTags(*tags),
		Pipeline:    cipher.Pipeline{Operations: ops, Reversible: !*irreversible},
	}
	if err := rm.SaveRecipe(recipe); err != nil {
		fmt.Fprintf(os.Stderr, "save recipe: %v\n", err)
		return 1
	}

	audit, err := openAudit(cfg, "recipe")
	if err != nil {
		fmt.Fprintf(os.Stderr, "open audit log: %v\n", err)
		return 1
	}
	defer audit.Close()
	names := make([]string, len(ops))
	for i, op := range ops {
		names[i] = op.Name
	}
	audit.Emit(logging.AuditEvent{
		EventType: logging.EventRecipeSaved,
		Decision:  logging.DecisionInfo,
		Metadata: map[string]any{
			"recipe":     recipe.Name,
			"operations": strings.Join(names, ","),
			"reversible": recipe.Pipeline.Reversible,
		},
	})
	fmt.Printf("saved recipe %s\n", recipe.Name)
	return 0
}

func splitTags(raw string) []string {
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
