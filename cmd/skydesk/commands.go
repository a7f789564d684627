package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/joseph-ayodele/skydesk/constants"
	"github.com/joseph-ayodele/skydesk/internal/common"
	"github.com/joseph-ayodele/skydesk/internal/entity"
	"github.com/joseph-ayodele/skydesk/internal/leads"
	"github.com/joseph-ayodele/skydesk/internal/records"
)

func newFlags(name string) (*flag.FlagSet, *string) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	kind := fs.String("kind", "", "record type: enquiry, quote or booking")
	return fs, kind
}

func parseKind(s string) (constants.RecordType, error) {
	kind, ok := constants.ParseRecordType(s)
	if !ok {
		return "", common.InvalidInputErrorf("-kind must be enquiry, quote or booking (got %q)", s)
	}
	return kind, nil
}

func parseDocumentKind(s string) (constants.RecordType, error) {
	kind, err := parseKind(s)
	if err != nil {
		return "", err
	}
	if !kind.HasDocuments() {
		return "", common.InvalidInputErrorf("-kind must be quote or booking (got %q)", s)
	}
	return kind, nil
}

func needArgs(fs *flag.FlagSet, n int) error {
	if fs.NArg() < n {
		return common.InvalidInputErrorf("%s: expected %d argument(s), got %d", fs.Name(), n, fs.NArg())
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func runIngest(ctx context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("ingest")
	notes := fs.String("notes", "", "consultant notes passed to the assistant")
	hidden := fs.Bool("hidden", false, "include hidden files when ingesting a directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	path := fs.Arg(0)

	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		id, err := a.leads.IngestFile(ctx, kind, path, *notes)
		if err != nil {
			return err
		}
		fmt.Printf("draft %s\n", id)
		return nil
	}

	results, stats, err := a.leads.IngestDirectory(ctx, kind, path, *notes, !*hidden)
	for _, r := range results {
		if r.Err != "" {
			fmt.Printf("FAIL  %s: %s\n", r.Path, r.Err)
		} else {
			fmt.Printf("OK    %s -> draft %s\n", r.Path, r.DraftID)
		}
	}
	fmt.Printf("matched=%d succeeded=%d failed=%d\n", stats.Matched, stats.Succeeded, stats.Failed)
	return err
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("watch")
	notes := fs.String("notes", "", "consultant notes passed to the assistant")
	debounce := fs.Duration("debounce", 2*time.Second, "wait this long after the last write before ingesting")
	initial := fs.Bool("initial", true, "ingest PDFs already in the directory")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}

	paths, errs, err := leads.WatchInbox(ctx, leads.WatchConfig{
		Roots:       fs.Args(),
		InitialScan: *initial,
		Debounce:    *debounce,
		Logger:      a.logger,
	})
	if err != nil {
		return err
	}
	go func() {
		for range errs {
		}
	}()
	a.logger.Info("watch.start", "kind", string(kind), "roots", fs.Args())

	err = a.leads.ServeInbox(ctx, kind, paths, *notes, func(r leads.FileResult) {
		if r.Err != "" {
			fmt.Printf("FAIL  %s: %s\n", r.Path, r.Err)
			return
		}
		fmt.Printf("OK    %s -> draft %s\n", r.Path, r.DraftID)
	})
	if ctx.Err() != nil {
		return nil
	}
	return err
}

func runDraft(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("draft")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	d, err := a.leads.Draft(kind, fs.Arg(0))
	if err != nil {
		return err
	}
	return printJSON(d)
}

func runConfirm(ctx context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("confirm")
	payloadPath := fs.String("payload", "", "reviewed record JSON (default: the draft as parsed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	draftID := fs.Arg(0)

	var payload entity.Payload
	if *payloadPath != "" {
		data, err := os.ReadFile(*payloadPath)
		if err != nil {
			return err
		}
		if payload, err = entity.DecodePayloadAs(kind, data); err != nil {
			return common.NewAppError(common.CodeInvalidInput, "payload does not fit the record shape", err)
		}
	} else {
		d, err := a.leads.Draft(kind, draftID)
		if err != nil {
			return err
		}
		if payload, err = leads.PayloadFromDraft(kind, d); err != nil {
			return err
		}
	}

	id, err := a.leads.ConfirmDraft(ctx, kind, draftID, payload)
	if err != nil {
		return err
	}
	fmt.Printf("saved %s %s\n", kind, id)
	return nil
}

func runAbandon(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("abandon")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	return a.leads.AbandonDraft(kind, fs.Arg(0))
}

func runEnquiry(_ context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("enquiry", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	data, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}
	p, err := entity.DecodePayloadAs(constants.Enquiry, data)
	if err != nil {
		return common.NewAppError(common.CodeInvalidInput, "enquiry does not fit the record shape", err)
	}
	id, err := a.records.CreateEnquiry(p.(*entity.Enquiry))
	if err != nil {
		return err
	}
	fmt.Printf("saved enquiry %s\n", id)
	return nil
}

func runLeads(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("leads")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	list, err := a.records.List(kind)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tDESTINATION\tTRAVEL\tISSUED\tTOTAL")
	for _, l := range list {
		s := l.Summary
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, s.Name, s.Destination, s.TravelDates, s.Issued, s.GrandTotal.String())
	}
	return tw.Flush()
}

func runShow(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("show")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	p, err := a.records.Load(kind, fs.Arg(0))
	if err != nil {
		return err
	}
	out := map[string]any{"record": p}
	if kind.HasDocuments() {
		docs, err := a.records.Documents(kind, fs.Arg(0))
		if err != nil {
			return err
		}
		out["documents"] = docs
		if meta, err := a.records.LoadMetadata(kind, fs.Arg(0)); err == nil {
			out["saved_at"] = meta.SavedAt
			out["original_filename"] = meta.OriginalFilename
		}
	}
	comms, err := a.records.Communications(kind, fs.Arg(0))
	if err != nil {
		return err
	}
	out["communications"] = comms
	return printJSON(out)
}

func runNotes(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("notes")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	return a.records.UpdateNotes(kind, fs.Arg(0), strings.Join(fs.Args()[1:], " "))
}

func runLog(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("log")
	method := fs.String("method", "", "Phone, Email, WhatsApp, ...")
	direction := fs.String("direction", constants.DirectionIncoming, "incoming or outgoing")
	at := fs.String("at", "", "when it happened (RFC3339, default now)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}
	in := records.CommunicationInput{
		Method:    *method,
		Direction: *direction,
		Note:      strings.Join(fs.Args()[1:], " "),
	}
	if *at != "" {
		t, err := time.Parse(time.RFC3339, *at)
		if err != nil {
			return common.InvalidInputErrorf("-at: %v", err)
		}
		in.At = t
	}
	c, err := a.records.AppendCommunication(kind, fs.Arg(0), in)
	if err != nil {
		return err
	}
	fmt.Printf("logged %s %s at %s\n", c.Direction, c.Method, c.Timestamp)
	return nil
}

func runTodo(ctx context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("todo")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}
	res, err := a.leads.AddTodo(ctx, kind, fs.Arg(0), strings.Join(fs.Args()[1:], " "))
	if err != nil {
		return err
	}
	if res.Fallback {
		printError("warning: %v; saved the task as typed\n", res.Reason)
	}
	due := res.Todo.DueDate
	if due == "" {
		due = "no due date"
	}
	fmt.Printf("todo %s: %s (%s)\n", res.Todo.ID, res.Todo.Text, due)
	return nil
}

func runTodoDone(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("todo-done")
	undo := fs.Bool("undo", false, "mark the task as not done")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}
	return a.records.SetTodoDone(kind, fs.Arg(0), fs.Arg(1), !*undo)
}

func runTodoDelete(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("todo-rm")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}
	return a.records.DeleteTodo(kind, fs.Arg(0), fs.Arg(1))
}

func runAttach(_ context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("attach")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseDocumentKind(*kindStr)
	if err != nil {
		return err
	}
	if err := needArgs(fs, 2); err != nil {
		return err
	}
	f, err := os.Open(fs.Arg(1))
	if err != nil {
		return err
	}
	defer f.Close()
	name, err := a.records.AddDocument(kind, fs.Arg(0), f, f.Name())
	if err != nil {
		return err
	}
	fmt.Printf("stored documents/%s\n", name)
	return nil
}

func runActiveTodos(_ context.Context, a *app, _ []string) error {
	todos, err := a.records.ActiveTodos()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DUE\tTYPE\tNAME\tRECORD\tTASK")
	for _, t := range todos {
		due := t.DueDate
		if due == "" {
			due = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", due, t.TypeLabel, t.Name, t.RecordID, t.Text)
	}
	return tw.Flush()
}

func runExport(ctx context.Context, a *app, args []string) error {
	fs, kindStr := newFlags("export")
	out := fs.String("out", "", "output XLSX path (default <kind>s.xlsx)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	kind, err := parseKind(*kindStr)
	if err != nil {
		return err
	}
	if *out == "" {
		*out = string(kind) + "s.xlsx"
	}
	b, err := a.exporter.ExportLeadsXLSX(ctx, kind)
	if err != nil {
		return err
	}
	if err := os.WriteFile(*out, b, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", *out, err)
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}

func runExtract(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("extract", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := needArgs(fs, 1); err != nil {
		return err
	}
	res, err := a.extractor.Extract(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	a.logger.Info("extract.ok", "pages", res.Pages, "method", res.Method, "elapsed_ms", res.Duration.Milliseconds())
	fmt.Println(res.Text)
	return nil
}
