package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"scout/internal/config"
	"scout/internal/logging"
	"scout/internal/mcp"
	"scout/internal/prompts"
	"scout/internal/researcher"
	"scout/internal/stream"
)

var (
	cyan   = color.New(color.FgCyan).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

type cliFlags struct {
	configFile  string
	reportType  string
	source      string
	tone        string
	retrievers  string
	mcpStrategy string
	mcpConfig   string
	sourceURLs  []string
	domains     []string
	outputDir   string
	verbose     bool
}

func main() {
	flags := &cliFlags{}

	root := &cobra.Command{
		Use:   "scout <query>",
		Short: "Autonomous research: plan, search, scrape, rank and write a report",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true
			return run(cmd.Context(), strings.Join(args, " "), flags)
		},
	}

	root.Flags().StringVarP(&flags.configFile, "config", "c", "", "JSON config file")
	root.Flags().StringVarP(&flags.reportType, "report-type", "t", prompts.ResearchReport, "report type (research_report, resource_report, outline_report, custom_report, deep)")
	root.Flags().StringVarP(&flags.source, "report-source", "s", "", "report source (web, local, hybrid, static)")
	root.Flags().StringVar(&flags.tone, "tone", "objective", "report tone")
	root.Flags().StringVarP(&flags.retrievers, "retrievers", "r", "", "comma-separated retrievers, overrides config")
	root.Flags().StringVar(&flags.mcpStrategy, "mcp-strategy", "", "MCP strategy (fast, deep, disabled)")
	root.Flags().StringVar(&flags.mcpConfig, "mcp-config", "", "JSON file listing MCP server configs")
	root.Flags().StringArrayVar(&flags.sourceURLs, "url", nil, "research these URLs directly instead of searching")
	root.Flags().StringArrayVar(&flags.domains, "domain", nil, "restrict web search to these domains")
	root.Flags().StringVarP(&flags.outputDir, "output", "o", "outputs", "directory for the report and event log")
	root.Flags().BoolVarP(&flags.verbose, "verbose", "v", false, "log progress to stderr")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, red("error: "+err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, query string, flags *cliFlags) error {
	logger := buildLogger(flags.verbose)

	cfg, err := loadConfig(flags, logger)
	if err != nil {
		return err
	}

	task := &researcher.Task{
		Query:       query,
		ReportType:  flags.reportType,
		Tone:        flags.tone,
		SourceURLs:  flags.sourceURLs,
		Domains:     flags.domains,
		MCPStrategy: flags.mcpStrategy,
	}
	if flags.source != "" {
		task.ReportSource = flags.source
	} else {
		task.ReportSource = cfg.ReportSource
	}
	if flags.mcpConfig != "" {
		servers, err := loadMCPServers(flags.mcpConfig)
		if err != nil {
			return err
		}
		task.MCPConfigs = servers
	}

	if err := os.MkdirAll(flags.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	eventLog, err := os.Create(filepath.Join(flags.outputDir, "events.jsonl"))
	if err != nil {
		return fmt.Errorf("create event log: %w", err)
	}
	defer eventLog.Close()

	engine, err := researcher.NewEngine(cfg, task, stream.NewJSONLinesSubscriber(eventLog), logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Println(bold(cyan("Researching: ")) + query)
	started := time.Now()

	researchContext, err := engine.Conductor.ConductResearch(ctx, task)
	if err != nil {
		return fmt.Errorf("research failed: %w", err)
	}
	fmt.Printf("%s %d sources in %s\n",
		green("Research complete:"), len(task.VisitedURLs()), time.Since(started).Round(time.Second))

	fmt.Println(yellow("Writing report..."))
	report, err := engine.Conductor.WriteReport(ctx, task, researchContext)
	if err != nil {
		return fmt.Errorf("report generation failed: %w", err)
	}
	report = researcher.AddReferences(report, task.VisitedURLs())

	reportPath := filepath.Join(flags.outputDir, "report.md")
	if err := os.WriteFile(reportPath, []byte(report), 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}

	snap := engine.Costs.Snapshot()
	fmt.Println()
	fmt.Println(report)
	fmt.Println()
	fmt.Println(green("Report written to ") + bold(reportPath))
	fmt.Println(gray(fmt.Sprintf("tokens: %d  estimated cost: $%.4f", snap.TotalTokens, snap.TotalCost)))
	return nil
}

func buildLogger(verbose bool) logging.Logger {
	file := logging.NewComponentLogger("cli")
	if !verbose {
		return file
	}
	return logging.Multi(file, logging.NewWriterLogger(os.Stderr, logging.LevelInfo, "cli"))
}

func loadConfig(flags *cliFlags, logger logging.Logger) (*config.Config, error) {
	opts := []config.Option{config.WithLogger(logger)}
	if flags.configFile != "" {
		opts = append(opts, config.WithFile(flags.configFile))
	}
	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, err
	}
	if flags.retrievers != "" {
		cfg.Retrievers = config.ParseRetrievers(flags.retrievers, logger)
	}
	return cfg, nil
}

// loadMCPServers reads a JSON array of server configs.
func loadMCPServers(path string) ([]mcp.ServerConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mcp config %s: %w", path, err)
	}
	var servers []mcp.ServerConfig
	if err := json.Unmarshal(data, &servers); err != nil {
		return nil, fmt.Errorf("parse mcp config %s: %w", path, err)
	}
	if len(servers) == 0 {
		return nil, fmt.Errorf("mcp config %s lists no servers", path)
	}
	return servers, nil
}
