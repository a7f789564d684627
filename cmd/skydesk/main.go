package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/drafts"
	"github.com/joseph-ayodele/skydesk/internal/export"
	"github.com/joseph-ayodele/skydesk/internal/extract"
	"github.com/joseph-ayodele/skydesk/internal/ingest"
	"github.com/joseph-ayodele/skydesk/internal/leads"
	"github.com/joseph-ayodele/skydesk/internal/llm"
	"github.com/joseph-ayodele/skydesk/internal/llm/openai"
	"github.com/joseph-ayodele/skydesk/internal/logging"
	"github.com/joseph-ayodele/skydesk/internal/records"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

// app holds everything a subcommand may need.
type app struct {
	cfg       *common.Config
	logger    *slog.Logger
	extractor extract.TextExtractor
	records   *records.Store
	leads     *leads.Service
	exporter  *export.Service
}

type command struct {
	usage string
	run   func(ctx context.Context, a *app, args []string) error
}

var commands = map[string]command{
	"ingest":    {"ingest -kind quote|booking [-notes text] [-hidden] <file.pdf|dir>", runIngest},
	"watch":     {"watch -kind quote|booking [-notes text] [-debounce 2s] <dir>...", runWatch},
	"draft":     {"draft -kind quote|booking <draft-id>", runDraft},
	"confirm":   {"confirm -kind quote|booking [-payload edited.json] <draft-id>", runConfirm},
	"abandon":   {"abandon -kind quote|booking <draft-id>", runAbandon},
	"enquiry":   {"enquiry <enquiry.json>", runEnquiry},
	"leads":     {"leads -kind enquiry|quote|booking", runLeads},
	"show":      {"show -kind enquiry|quote|booking <record-id>", runShow},
	"notes":     {"notes -kind ... <record-id> <text>", runNotes},
	"log":       {"log -kind ... [-method Phone] [-direction incoming|outgoing] [-at RFC3339] <record-id> <note>", runLog},
	"todo":      {"todo -kind ... <record-id> <task text>", runTodo},
	"todo-done": {"todo-done -kind ... [-undo] <record-id> <todo-id>", runTodoDone},
	"todo-rm":   {"todo-rm -kind ... <record-id> <todo-id>", runTodoDelete},
	"attach":    {"attach -kind quote|booking <record-id> <file>", runAttach},
	"todos":     {"todos", runActiveTodos},
	"export":    {"export -kind enquiry|quote|booking [-out leads.xlsx]", runExport},
	"extract":   {"extract <file.pdf>", runExtract},
}

func usage() {
	printError("usage: skydesk [-config file.yaml] <command> [flags]\n\ncommands:\n")
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		printError("  %s\n", commands[name].usage)
	}
}

func main() {
	configPath := flag.String("config", "", "YAML config file (default $SKYDESK_CONFIG)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}
	cmd, ok := commands[flag.Arg(0)]
	if !ok {
		printError("Error: unknown command %q\n\n", flag.Arg(0))
		usage()
		os.Exit(2)
	}

	cfg, err := common.LoadConfig(*configPath)
	if err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: invalid config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.Init(cfg.Log)

	a, err := newApp(cfg, logger)
	if err != nil {
		logger.Error("startup failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.run(ctx, a, flag.Args()[1:]); err != nil {
		var fe *leads.FormError
		if errors.As(err, &fe) {
			for _, f := range fe.Fields {
				printError("  %s: %s\n", f.Field, f.Message)
			}
		}
		printError("Error: %v\n", err)
		if code := common.ErrorCode(err); code != "" {
			printError("code: %s\n", code)
		}
		os.Exit(1)
	}
}

func newApp(cfg *common.Config, logger *slog.Logger) (*app, error) {
	extractor, err := extract.New(cfg.Extract, logger)
	if err != nil {
		return nil, err
	}

	// A missing key is reported per call, so offline commands still work.
	gateway := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
	prompts := llm.NewPromptLoader(cfg.Storage.PromptsDir)

	recs := records.NewStore(cfg.Storage.DataDir, logger)
	svc := leads.NewService(leads.Deps{
		Pipelines: map[constants.RecordType]leads.DocumentPipeline{
			constants.Quote:   ingest.NewQuotePipeline(extractor, prompts, gateway, logger),
			constants.Booking: ingest.NewBookingPipeline(extractor, prompts, gateway, logger),
		},
		Drafts: map[constants.RecordType]*drafts.Store{
			constants.Quote:   drafts.NewStore(filepath.Join(cfg.Storage.TmpDir, "quote_drafts"), logger),
			constants.Booking: drafts.NewStore(filepath.Join(cfg.Storage.TmpDir, "booking_drafts"), logger),
		},
		Records: recs,
		Todos:   ingest.NewTodoPipeline(prompts, gateway, logger),
		Logger:  logger,
	})

	return &app{
		cfg:       cfg,
		logger:    logger,
		extractor: extractor,
		records:   recs,
		leads:     svc,
		exporter:  export.NewService(recs, logger),
	}, nil
}
