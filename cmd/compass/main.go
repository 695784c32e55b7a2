// Command compass is the batch front end for the career graph engine. It
// rebuilds the graph from a stored or file-based snapshot and answers a query,
// prints graph statistics, or reports per-person insights.
//
//	compass import -file snapshot.json
//	compass stats [-file snapshot.json]
//	compass query [-file snapshot.json] -category career_guidance "what roles fit my skills"
//	compass insights [-file snapshot.json] -handle octocat
//	compass export [-file snapshot.json] -out graph.json
//	compass categories
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/devcareer/compass-backend/internal/app"
	"github.com/devcareer/compass-backend/internal/domain"
	"github.com/devcareer/compass-backend/internal/engine"
	"github.com/devcareer/compass-backend/internal/graph"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd := os.Args[1]
	args := os.Args[2:]

	if cmd == "categories" {
		for _, c := range engine.Categories() {
			fmt.Println(string(c))
		}
		return
	}

	ctx := context.Background()
	a, err := app.New(ctx, app.LoadConfig())
	if err != nil {
		fmt.Fprintf(os.Stderr, "init failed: %v\n", err)
		os.Exit(1)
	}
	defer a.Close(ctx)

	switch cmd {
	case "import":
		err = runImport(ctx, a, args)
	case "stats":
		err = runStats(ctx, a, args)
	case "query":
		err = runQuery(ctx, a, args)
	case "insights":
		err = runInsights(ctx, a, args)
	case "export":
		err = runExport(ctx, a, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		a.Log.Error("command failed", "command", cmd, "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: compass <import|stats|query|insights|export|categories> [flags]")
}

func runImport(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	file := fs.String("file", "", "snapshot JSON file to import")
	_ = fs.Parse(args)

	if *file == "" {
		return fmt.Errorf("-file is required")
	}
	if a.Store == nil {
		return fmt.Errorf("no snapshot store configured; set SNAPSHOT_DB_DSN")
	}
	snap, err := readSnapshotFile(*file)
	if err != nil {
		return err
	}
	if err := a.Store.Replace(ctx, snap); err != nil {
		return err
	}
	a.Log.Info("snapshot imported",
		"people", len(snap.People),
		"skills", len(snap.Skills),
		"repositories", len(snap.Repositories),
		"postings", len(snap.Postings),
	)
	return nil
}

func runStats(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	file := fs.String("file", "", "snapshot JSON file (default: snapshot store)")
	_ = fs.Parse(args)

	if err := refresh(ctx, a, *file); err != nil {
		return err
	}
	stats, err := a.Engine.Stats()
	if err != nil {
		return err
	}
	return printJSON(stats)
}

func runQuery(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("query", flag.ExitOnError)
	file := fs.String("file", "", "snapshot JSON file (default: snapshot store)")
	category := fs.String("category", string(engine.CategoryCareerGuidance), "query category")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("query text required")
	}
	text := fs.Arg(0)

	if err := refresh(ctx, a, *file); err != nil {
		return err
	}
	answer, err := a.Engine.Query(ctx, text, engine.Category(*category))
	if err != nil {
		return err
	}
	return printJSON(answer)
}

func runInsights(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("insights", flag.ExitOnError)
	file := fs.String("file", "", "snapshot JSON file (default: snapshot store)")
	handle := fs.String("handle", "", "person handle to analyze")
	_ = fs.Parse(args)

	if *handle == "" {
		return fmt.Errorf("-handle is required")
	}
	if err := refresh(ctx, a, *file); err != nil {
		return err
	}

	g := a.Engine.Graph()
	personID, ok := findPersonByHandle(g, *handle)
	if !ok {
		return fmt.Errorf("no person with handle %q in graph", *handle)
	}
	report, err := a.Analyzer.Analyze(g, personID)
	if err != nil {
		return err
	}
	return printJSON(report)
}

func runExport(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	file := fs.String("file", "", "snapshot JSON file (default: snapshot store)")
	out := fs.String("out", "", "output path for node-link JSON (default: stdout)")
	_ = fs.Parse(args)

	if err := refresh(ctx, a, *file); err != nil {
		return err
	}
	raw, err := graph.MarshalNodeLink(a.Engine.Graph())
	if err != nil {
		return err
	}
	if *out == "" {
		fmt.Println(string(raw))
		return nil
	}
	return os.WriteFile(*out, raw, 0o644)
}

// refresh rebuilds the engine graph from the file snapshot when given one,
// otherwise from the snapshot store.
func refresh(ctx context.Context, a *app.App, file string) error {
	var snap *domain.Snapshot
	var err error
	switch {
	case file != "":
		snap, err = readSnapshotFile(file)
	case a.Store != nil:
		snap, err = a.Store.Load(ctx)
	default:
		return fmt.Errorf("no snapshot source; set SNAPSHOT_DB_DSN or pass -file")
	}
	if err != nil {
		return err
	}
	return a.Engine.Refresh(ctx, snap)
}

func readSnapshotFile(path string) (*domain.Snapshot, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var snap domain.Snapshot
	if err := json.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}
	return &snap, nil
}

func findPersonByHandle(g *graph.Graph, handle string) (string, bool) {
	var id string
	g.ForEachNode(func(n graph.Node) {
		if p, ok := n.(*graph.PersonNode); ok && p.Record.Handle == handle {
			id = p.NodeID()
		}
	})
	return id, id != ""
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
