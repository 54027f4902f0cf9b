package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/elsanchez/author-tools/internal/cache"
	"github.com/elsanchez/author-tools/internal/fetcher"
	"github.com/elsanchez/author-tools/internal/ingest"
	"github.com/elsanchez/author-tools/internal/redditapi"
	"github.com/elsanchez/author-tools/internal/resolver"
	"github.com/elsanchez/author-tools/internal/tui/analyze"
	"github.com/elsanchez/author-tools/pkg/client"
)

const (
	version = "0.1.0"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	// Crear cliente
	c := client.NewDefaultClient()

	switch os.Args[1] {
	case "analyze":
		handleAnalyze(c, os.Args[2:])
	case "overlap":
		handleOverlap(c, os.Args[2:])
	case "status":
		handleStatus(c, os.Args[2:])
	case "results":
		handleResults(c, os.Args[2:])
	case "ingest":
		handleIngest(c, os.Args[2:])
	case "authors":
		handleAuthors(c, os.Args[2:])
	case "calendar":
		handleCalendar(c, os.Args[2:])
	case "heatmap":
		handleHeatmap(c, os.Args[2:])
	case "stats":
		handleStats(c)
	case "ping":
		handlePing(c)
	case "extract":
		handleExtract(os.Args[2:])
	case "skiplist":
		handleSkipList(os.Args[2:])
	case "tui":
		handleTUI()
	case "version":
		fmt.Printf("atool v%s\n", version)
	case "help":
		printUsage()
	default:
		// Si el primer argumento parece una lista de usernames, asumir "analyze"
		if strings.HasSuffix(os.Args[1], ".txt") {
			handleAnalyze(c, os.Args[1:])
		} else {
			fmt.Printf("Unknown command: %s\n", os.Args[1])
			printUsage()
			os.Exit(1)
		}
	}
}

func printUsage() {
	fmt.Println(`Author Tools (atool) v` + version + `

Usage: atool <command> [args]

Commands:
  analyze <file> [options]     Queue account analysis for a username list
  overlap <files...> [options] Queue overlap analysis across 2-5 lists
  status <id>                  Get job status and progress
  results <id> <page>          Show a results page of a completed job
  ingest <file>                Import a JSONL export into the activity store
  authors [--list]             Count (and list) unique authors in the store
  calendar [options]           Daily activity calendar for a subreddit or user
  heatmap [--by hour|weekday]  Activity distribution by hour or weekday
  stats                        Show daemon statistics
  ping                         Check that the daemon is running
  extract <files...>           Extract unique usernames locally (no daemon)
  skiplist <show|add|remove>   Manage the username skip list
  tui                          Interactive analysis session
  version                      Show version
  help                         Show this help

Analyze Options:
  --page-size <n>     Usernames per results page (default: 1000)
  --skip-bots=false   Keep usernames ending in "bot"

Examples:
  atool extract sub_a.jsonl sub_b.jsonl --output users.txt
  atool analyze users.txt
  atool analyze users.txt --page-size 500
  atool overlap users_a.txt users_b.txt users_c.txt
  atool users.txt                    (shorthand for 'analyze')
  atool status 3
  atool results 3 1 --export page1.txt
  atool ingest export.jsonl
  atool calendar --subreddit golang
  atool calendar --author spez
  atool heatmap --by weekday
  atool skiplist add annoying_user`)
}

func handleAnalyze(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Input file is required")
		printUsage()
		os.Exit(1)
	}

	analyzeFlags := flag.NewFlagSet("analyze", flag.ExitOnError)
	pageSize := analyzeFlags.Int("page-size", 0, "Usernames per results page")
	skipBots := analyzeFlags.Bool("skip-bots", true, "Skip usernames ending in 'bot'")

	inputPath := args[0]
	if len(args) > 1 {
		analyzeFlags.Parse(args[1:])
	}

	absPath, err := filepath.Abs(inputPath)
	if err != nil {
		fmt.Printf("Error: Invalid path: %v\n", err)
		os.Exit(1)
	}
	if _, err := os.Stat(absPath); err != nil {
		fmt.Printf("Error: Cannot access %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	id, err := c.StartAnalysis(absPath, *pageSize, *skipBots)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Analysis queued with job ID: %d\n", id)
	fmt.Printf("  Input: %s\n", absPath)
	if *pageSize > 0 {
		fmt.Printf("  Page size: %d\n", *pageSize)
	}
	if !*skipBots {
		fmt.Println("  Keeping bot-suffixed usernames")
	}
	fmt.Println("  Status: pending")
}

func handleOverlap(c *client.Client, args []string) {
	overlapFlags := flag.NewFlagSet("overlap", flag.ExitOnError)
	skipBots := overlapFlags.Bool("skip-bots", true, "Skip usernames ending in 'bot'")

	// Separar manualmente input paths de flags
	var inputPaths []string
	flagStartIdx := -1
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			flagStartIdx = i
			break
		}
		inputPaths = append(inputPaths, arg)
	}
	if flagStartIdx >= 0 {
		overlapFlags.Parse(args[flagStartIdx:])
	}

	if len(inputPaths) < 2 || len(inputPaths) > 5 {
		fmt.Println("Error: Overlap analysis needs between 2 and 5 input files")
		os.Exit(1)
	}

	for i, p := range inputPaths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fmt.Printf("Error: Invalid path %s: %v\n", p, err)
			os.Exit(1)
		}
		if _, err := os.Stat(abs); err != nil {
			fmt.Printf("Error: Cannot access %s: %v\n", p, err)
			os.Exit(1)
		}
		inputPaths[i] = abs
	}

	id, err := c.StartOverlap(inputPaths, *skipBots)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Overlap analysis queued with job ID: %d\n", id)
	fmt.Printf("  Inputs: %d files\n", len(inputPaths))
	fmt.Println("  Status: pending")
}

func handleStatus(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Job ID is required")
		fmt.Println("Usage: atool status <id>")
		os.Exit(1)
	}

	var id int64
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		fmt.Printf("Error: Invalid ID: %s\n", args[0])
		os.Exit(1)
	}

	status, err := c.GetJobStatus(id)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Job %d (%s): %s\n", status.ID, status.Kind, status.Status)
	if status.TotalUsers > 0 {
		fmt.Printf("  Progress: %d / %d users\n", status.Completed, status.TotalUsers)
		fmt.Printf("  Cache hits: %d\n", status.CacheHits)
		fmt.Printf("  Pages: %d\n", status.TotalPages)
	}
	if status.ErrorMessage != "" {
		fmt.Printf("  Error: %s\n", status.ErrorMessage)
	}
	if status.CompletedAt != nil {
		fmt.Printf("  Completed: %s\n", status.CompletedAt.Format("2006-01-02 15:04:05"))
	}
}

func handleResults(c *client.Client, args []string) {
	if len(args) < 2 {
		fmt.Println("Error: Job ID and page number are required")
		fmt.Println("Usage: atool results <id> <page> [--export <path>]")
		os.Exit(1)
	}

	var id int64
	var page int
	if _, err := fmt.Sscanf(args[0], "%d", &id); err != nil {
		fmt.Printf("Error: Invalid ID: %s\n", args[0])
		os.Exit(1)
	}
	if _, err := fmt.Sscanf(args[1], "%d", &page); err != nil {
		fmt.Printf("Error: Invalid page: %s\n", args[1])
		os.Exit(1)
	}

	resultsFlags := flag.NewFlagSet("results", flag.ExitOnError)
	exportPath := resultsFlags.String("export", "", "Write usernames of this page to a file")
	if len(args) > 2 {
		resultsFlags.Parse(args[2:])
	}

	records, err := c.GetPageResults(id, page)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(records) == 0 {
		fmt.Println("No records on this page")
		return
	}

	fmt.Printf("Page %d of job %d (%d records):\n\n", page, id, len(records))
	for _, r := range records {
		year := "????"
		if len(r.CreationDate) >= 4 {
			year = r.CreationDate[:4]
		}
		line := fmt.Sprintf("  %s  %-24s %-10s %s", year, r.Username, r.Status, r.Source)
		if r.LastActivity != "" {
			line += "  last: " + r.LastActivity
		}
		if r.Count > 0 {
			line += fmt.Sprintf("  (%d files)", r.Count)
		}
		fmt.Println(line)
	}

	if *exportPath != "" {
		lines := make([]string, 0, len(records))
		for _, r := range records {
			lines = append(lines, r.Username)
		}
		if err := ingest.WriteLines(*exportPath, lines); err != nil {
			fmt.Printf("Error: Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("\n✓ Exported %d usernames to %s\n", len(lines), *exportPath)
	}
}

func handleIngest(c *client.Client, args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Input file is required")
		fmt.Println("Usage: atool ingest <file>")
		os.Exit(1)
	}

	absPath, err := filepath.Abs(args[0])
	if err != nil {
		fmt.Printf("Error: Invalid path: %v\n", err)
		os.Exit(1)
	}

	inserted, err := c.Ingest(absPath)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("✓ Ingested %d items from %s\n", inserted, filepath.Base(absPath))
}

func handleAuthors(c *client.Client, args []string) {
	authorsFlags := flag.NewFlagSet("authors", flag.ExitOnError)
	withList := authorsFlags.Bool("list", false, "Print the full author list")
	authorsFlags.Parse(args)

	count, authors, err := c.Authors(*withList)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Unique authors: %d\n", count)
	for _, a := range authors {
		fmt.Println("  " + a)
	}
}

func handleCalendar(c *client.Client, args []string) {
	calendarFlags := flag.NewFlagSet("calendar", flag.ExitOnError)
	subreddit := calendarFlags.String("subreddit", "", "Subreddit to chart")
	author := calendarFlags.String("author", "", "Username to chart")
	calendarFlags.Parse(args)

	if (*subreddit == "") == (*author == "") {
		fmt.Println("Error: Exactly one of --subreddit or --author is required")
		os.Exit(1)
	}

	var calendar []client.DateCount
	var err error
	if *subreddit != "" {
		calendar, err = c.SubredditCalendar(*subreddit)
	} else {
		calendar, err = c.AuthorCalendar(*author)
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(calendar) == 0 {
		fmt.Println("No activity found")
		return
	}

	max := 0
	for _, dc := range calendar {
		if dc.Count > max {
			max = dc.Count
		}
	}

	for _, dc := range calendar {
		bar := strings.Repeat("█", scaleBar(dc.Count, max, 40))
		fmt.Printf("  %s  %5d  %s\n", dc.Date, dc.Count, bar)
	}
}

func handleHeatmap(c *client.Client, args []string) {
	heatmapFlags := flag.NewFlagSet("heatmap", flag.ExitOnError)
	by := heatmapFlags.String("by", "hour", "Bucket by 'hour' or 'weekday'")
	heatmapFlags.Parse(args)

	if *by != "hour" && *by != "weekday" {
		fmt.Println("Error: --by must be 'hour' or 'weekday'")
		os.Exit(1)
	}

	heatmap, err := c.Heatmap(*by)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if len(heatmap) == 0 {
		fmt.Println("No activity found")
		return
	}

	weekdays := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

	max := 0
	for _, bc := range heatmap {
		if bc.Count > max {
			max = bc.Count
		}
	}

	for _, bc := range heatmap {
		label := fmt.Sprintf("%02d:00", bc.Bucket)
		if *by == "weekday" && bc.Bucket >= 0 && bc.Bucket < len(weekdays) {
			label = weekdays[bc.Bucket] + "  "
		}
		bar := strings.Repeat("█", scaleBar(bc.Count, max, 40))
		fmt.Printf("  %s  %5d  %s\n", label, bc.Count, bar)
	}
}

func handleStats(c *client.Client) {
	stats, err := c.Stats()
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Daemon Statistics:")
	fmt.Println()
	fmt.Printf("  Pending:      %d\n", intStat(stats, "pending"))
	fmt.Printf("  Running:      %d\n", intStat(stats, "running"))
	fmt.Printf("  Completed:    %d\n", intStat(stats, "completed"))
	fmt.Printf("  Failed:       %d\n", intStat(stats, "failed"))
	fmt.Println()
	fmt.Printf("  Workers:      %d / %d busy\n", intStat(stats, "workers_busy"), intStat(stats, "workers_total"))
	fmt.Printf("  Cache:        %d accounts\n", intStat(stats, "cache_entries"))
}

func handlePing(c *client.Client) {
	if err := c.Ping(); err != nil {
		fmt.Printf("Daemon is not running: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("✓ Daemon is running")
}

// handleExtract corre localmente, sin daemon: une los authors únicos de
// varios dumps y los imprime o exporta
func handleExtract(args []string) {
	extractFlags := flag.NewFlagSet("extract", flag.ExitOnError)
	outputPath := extractFlags.String("output", "", "Write usernames to a file instead of stdout")

	var inputPaths []string
	flagStartIdx := -1
	for i, arg := range args {
		if strings.HasPrefix(arg, "-") {
			flagStartIdx = i
			break
		}
		inputPaths = append(inputPaths, arg)
	}
	if flagStartIdx >= 0 {
		extractFlags.Parse(args[flagStartIdx:])
	}

	if len(inputPaths) == 0 {
		fmt.Println("Error: At least one input file is required")
		fmt.Println("Usage: atool extract <files...> [--output <path>]")
		os.Exit(1)
	}

	usernames, err := ingest.UniqueAuthors(inputPaths...)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if *outputPath != "" {
		if err := ingest.WriteLines(*outputPath, usernames); err != nil {
			fmt.Printf("Error: Export failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Wrote %d usernames to %s\n", len(usernames), *outputPath)
		return
	}

	for _, u := range usernames {
		fmt.Println(u)
	}
	fmt.Fprintf(os.Stderr, "Total: %d unique usernames\n", len(usernames))
}

func handleSkipList(args []string) {
	if len(args) == 0 {
		fmt.Println("Error: Subcommand is required")
		fmt.Println("Usage: atool skiplist <show|add|remove> [username]")
		os.Exit(1)
	}

	path := skipListPath()
	skips, err := ingest.LoadSkipList(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	switch args[0] {
	case "show":
		names := make([]string, 0, len(skips))
		for name := range skips {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Printf("Skip list (%d entries):\n", len(names))
		for _, name := range names {
			fmt.Println("  " + name)
		}
	case "add":
		if len(args) < 2 {
			fmt.Println("Error: Username is required")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		if _, ok := skips[name]; ok {
			fmt.Printf("%s is already on the skip list\n", name)
			return
		}
		skips[name] = struct{}{}
		if err := ingest.SaveSkipList(path, skips); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Added %s to the skip list\n", name)
	case "remove":
		if len(args) < 2 {
			fmt.Println("Error: Username is required")
			os.Exit(1)
		}
		name := strings.ToLower(args[1])
		if _, ok := skips[name]; !ok {
			fmt.Printf("%s is not on the skip list\n", name)
			return
		}
		delete(skips, name)
		if err := ingest.SaveSkipList(path, skips); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("✓ Removed %s from the skip list\n", name)
	default:
		fmt.Printf("Unknown skiplist subcommand: %s\n", args[0])
		os.Exit(1)
	}
}

// handleTUI corre la sesión interactiva en el proceso del CLI, con su propio
// fetcher contra el mismo cache en disco que usa el daemon
func handleTUI() {
	dataDir := dataDir()
	if err := os.MkdirAll(dataDir, 0755); err != nil {
		fmt.Printf("Error: Cannot create data directory: %v\n", err)
		os.Exit(1)
	}

	accountCache := cache.Open(filepath.Join(dataDir, "account_cache.json"))
	session := redditapi.NewSession()
	accountResolver := resolver.New(
		redditapi.NewProfileClient(session),
		redditapi.NewHistoryClient(session),
	)
	batchFetcher := fetcher.New(accountCache, accountResolver, fetcher.DefaultMaxWorkers)

	model := analyze.NewModel(batchFetcher, skipListPath())
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func dataDir() string {
	if v := os.Getenv("AUTHOR_TOOLS_DATA_DIR"); v != "" {
		return v
	}
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".local", "share", "author-tools")
}

func skipListPath() string {
	return filepath.Join(dataDir(), "skip_list.txt")
}

func intStat(stats map[string]interface{}, key string) int {
	if v, ok := stats[key].(float64); ok {
		return int(v)
	}
	return 0
}

// scaleBar escala un conteo al ancho máximo de barra
func scaleBar(count, max, width int) int {
	if max <= 0 || count <= 0 {
		return 0
	}
	n := count * width / max
	if n == 0 {
		n = 1
	}
	return n
}
