// Package main is a command-line front end for a single send pass.
//
// It reads a recipient spreadsheet, personalizes the template for each row
// and delivers through the backend configured in the environment, exactly as
// the server does: one recipient at a time, one second apart, every recipient
// attempted once.
//
// Usage:
//
//	send -file recruiters.xlsx [-subject S] [-body-file F] [-backend B] [-yes]
//	send -sample sample_recruiters.xlsx
package main

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"recruitmail/internal/config"
	"recruitmail/internal/delivery"
	"recruitmail/internal/mailmerge"
	"recruitmail/internal/recipients"
	"recruitmail/internal/sender"
	"recruitmail/internal/types"
)

type options struct {
	file     string
	subject  string
	bodyFile string
	backend  string
	yes      bool
	sample   string
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("send", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.file, "file", "", "recipient spreadsheet (.xlsx or .csv)")
	fs.StringVar(&opts.subject, "subject", "", "subject template (default: built-in cover letter subject)")
	fs.StringVar(&opts.bodyFile, "body-file", "", "file holding the body template (default: built-in cover letter)")
	fs.StringVar(&opts.backend, "backend", "", "sendgrid, mailgun or smtp (default: DEFAULT_BACKEND)")
	fs.BoolVar(&opts.yes, "yes", false, "skip the confirmation prompt")
	fs.StringVar(&opts.sample, "sample", "", "write the sample workbook to this path and exit")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.sample == "" && opts.file == "" {
		return opts, errors.New("-file is required")
	}
	return opts, nil
}

func run(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	if opts.sample != "" {
		return writeSample(opts.sample, out)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	registry := delivery.NewDefaultRegistry(delivery.NewClientSet(cfg.Delivery, logger), logger)
	return execute(ctx, opts, cfg, registry, logger, in, out)
}

// execute runs the pass with an injected strategy.
func execute(
	ctx context.Context,
	opts options,
	cfg *config.Config,
	strategy delivery.Strategy,
	logger *slog.Logger,
	in io.Reader,
	out io.Writer,
) error {
	list, err := readRecipients(opts.file)
	if err != nil {
		return err
	}

	tmpl, err := buildTemplate(opts)
	if err != nil {
		return err
	}

	settings := cfg.Defaults.DeliveryDefaults()
	if opts.backend != "" {
		settings.Backend = types.Backend(opts.backend)
	}
	if !settings.Backend.Valid() {
		return fmt.Errorf("unknown backend %q", settings.Backend)
	}
	if settings.Backend == types.BackendMailgun && !cfg.Delivery.MailgunDomainConfigured() {
		fmt.Fprintln(out, "warning: MAILGUN_DOMAIN is not set; Mailgun will reject these sends")
	}

	confirmer := sender.AutoConfirm
	if !opts.yes {
		confirmer = stdinConfirmer(in, out)
	}

	orchOpts := []sender.Option{
		sender.WithLogger(logger),
		sender.WithObserver(func(r types.Recipient, s types.SendStatus) {
			printTransition(out, r, s)
		}),
	}
	if cfg.Delivery.SendInterval > 0 {
		orchOpts = append(orchOpts, sender.WithInterval(cfg.Delivery.SendInterval))
	}
	orch := sender.NewOrchestrator(strategy, sender.NewStatusBoard(), orchOpts...)

	summary, err := orch.Run(ctx, list, settings, tmpl, confirmer)
	if errors.Is(err, sender.ErrDeclined) {
		fmt.Fprintln(out, "Cancelled.")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%s\nSent %d of %d, %d failed.\n", sender.CompletedMessage, summary.Sent, summary.Total, summary.Failed)
	return nil
}

func readRecipients(path string) ([]types.Recipient, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	// One byte past the limit tells an oversize file from one that fits.
	data, err := io.ReadAll(io.LimitReader(f, recipients.MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if len(data) > recipients.MaxUploadSize {
		return nil, types.NewAppError(
			types.ErrCodeValidationInvalidFile,
			fmt.Sprintf("file must not exceed %d MB", recipients.MaxUploadSize>>20),
			nil,
		)
	}

	list, err := recipients.Parse(filepath.Base(path), bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	return list, nil
}

func buildTemplate(opts options) (types.EmailTemplate, error) {
	tmpl := mailmerge.DefaultTemplate()
	if opts.subject != "" {
		tmpl.Subject = opts.subject
	}
	if opts.bodyFile != "" {
		body, err := os.ReadFile(opts.bodyFile)
		if err != nil {
			return tmpl, fmt.Errorf("reading body: %w", err)
		}
		tmpl.Body = string(body)
	}
	return tmpl, nil
}

func writeSample(path string, out io.Writer) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := recipients.WriteSample(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(out, "Wrote %s\n", path)
	return nil
}

// stdinConfirmer asks on out and accepts y or yes from in.
func stdinConfirmer(in io.Reader, out io.Writer) sender.Confirmer {
	reader := bufio.NewReader(in)
	return sender.ConfirmFunc(func(ctx context.Context, prompt string) (bool, error) {
		fmt.Fprintf(out, "%s [y/N] ", prompt)
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return false, err
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes", nil
	})
}

func printTransition(out io.Writer, r types.Recipient, s types.SendStatus) {
	switch s.State {
	case types.SendStateSending:
		fmt.Fprintf(out, "-> %s <%s> ... ", r.Name, r.Email)
	case types.SendStateSent:
		fmt.Fprintln(out, "sent")
	case types.SendStateFailed:
		fmt.Fprintf(out, "failed: %s\n", s.Message)
	}
}
