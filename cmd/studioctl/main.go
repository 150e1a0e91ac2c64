// Command studioctl creates a studio from a YAML manifest and local image
// files, using the same upload flow as the dashboard.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/lipgloss"

	"github.com/muroom-studio/muroom-admin/config"
	"github.com/muroom-studio/muroom-admin/model"
	"github.com/muroom-studio/muroom-admin/pkg/apperr"
	"github.com/muroom-studio/muroom-admin/pkg/logger"
	"github.com/muroom-studio/muroom-admin/service"
	"github.com/muroom-studio/muroom-admin/upload"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#4CAF50")).Bold(true)
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")).Bold(true)
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#999999"))
	detailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#A0AEC0"))
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the YAML configuration")
	manifestPath := flag.String("manifest", "studio.yaml", "studio manifest with form fields and image paths")
	dryRun := flag.Bool("dry-run", false, "validate the manifest without uploading")
	flag.Parse()

	if err := run(*configPath, *manifestPath, *dryRun, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func run(configPath, manifestPath string, dryRun bool, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logger.Init(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	m, err := loadManifest(manifestPath)
	if err != nil {
		return err
	}
	items, err := m.items()
	if err != nil {
		return err
	}

	rules, err := upload.RulesFromConfig(cfg.Upload.Limits)
	if err != nil {
		return err
	}

	session := upload.NewSession("")
	if err := session.SetForm(m.Form); err != nil {
		return err
	}
	for _, item := range items {
		if err := session.AddItem(item, rules); err != nil {
			return fmt.Errorf("%s: %w", item.FileName, err)
		}
	}

	if dryRun {
		view := session.Snapshot()
		if err := upload.Validate(view.Form, view.Items, rules); err != nil {
			printProblems(out, err)
			return errors.New("manifest is not valid")
		}
		fmt.Fprintln(out, okStyle.Render("manifest is valid"), detailStyle.Render(fmt.Sprintf("(%d images)", len(items))))
		return nil
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	flow, err := newFlow(ctx, cfg, rules)
	if err != nil {
		return err
	}

	created, err := flow.Submit(ctx, session)
	printItems(out, session.Snapshot().Items)
	if err != nil {
		printProblems(out, err)
		return err
	}
	fmt.Fprintln(out, okStyle.Render("studio created"), detailStyle.Render(fmt.Sprintf("id=%d", created.StudioID)))
	return nil
}

func newFlow(ctx context.Context, cfg *config.Config, rules upload.Rules) (*upload.Flow, error) {
	api := service.NewAPIClient(&cfg.API)

	signer, err := service.NewSigner(ctx, &cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("object storage: %w", err)
	}
	var issuer upload.Issuer = api
	if cfg.Upload.Issuer == "storage" {
		issuer = service.NewStorageIssuer(signer)
	}

	coordinator := upload.NewCoordinator(issuer, service.NewObjectWriter(cfg.API.Timeout()), cfg.Upload.Concurrency)
	if cfg.Storage.Verify {
		coordinator = coordinator.WithInspector(signer)
	}
	slog.Debug("upload flow ready", "issuer", cfg.Upload.Issuer, "concurrency", cfg.Upload.Concurrency)
	return upload.NewFlow(coordinator, api, rules), nil
}

func printItems(out io.Writer, items []model.UploadItem) {
	fmt.Fprintln(out, titleStyle.Render("Images"))
	for _, item := range items {
		var label string
		switch item.State {
		case model.ItemSucceeded:
			label = okStyle.Render("uploaded")
		case model.ItemFailed:
			label = failStyle.Render("failed  ")
		default:
			label = pendingStyle.Render(string(item.State))
		}
		line := fmt.Sprintf("  %s %-18s %s", label, item.Category, item.FileName)
		switch {
		case item.Error != "":
			line += " " + detailStyle.Render(item.Error)
		case item.Key != "":
			line += " " + detailStyle.Render(item.Key)
		}
		fmt.Fprintln(out, line)
	}
}

func printProblems(out io.Writer, err error) {
	var v *apperr.ValidationError
	if !errors.As(err, &v) {
		return
	}
	fmt.Fprintln(out, titleStyle.Render("Problems"))
	for _, p := range v.Problems {
		fmt.Fprintf(out, "  %s %s\n", failStyle.Render(p.Field), p.Message)
	}
}
