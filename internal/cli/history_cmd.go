// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// history_cmd.go - Saved comparison commands.
//
// Command: history [subcommand]
// Short:   List, show, export and delete saved comparisons
// Aliases: hist
//
// Subcommands:
//   list (default)      Saved comparisons, newest first
//   show ID             One comparison with its verifications
//   export ID           Render a saved comparison
//   delete ID           Delete a comparison and its verifications
//
// IDs may be abbreviated to any unique prefix.
//
// Examples:
//   seqdiff history
//   seqdiff history list --limit 5 --json
//   seqdiff history show 3f2a
//   seqdiff history export 3f2a --format html --output report.html
//   seqdiff history delete 3f2a --confirm
package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/export"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/util"
)

// historySwitches are the boolean flags of history.
var historySwitches = []string{"confirm"}

// HandleHistory handles the "history" command.
func HandleHistory(args Args) error {
	p := NewArgParser(args.Raw, historySwitches...)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx := context.Background()
	id := p.Positional(1)

	switch p.Subcommand() {
	case "", "list", "ls":
		return historyList(ctx, store, p, args)
	case "show", "get":
		if id == "" {
			return ErrMissingArgument("ID", "seqdiff history show ID")
		}
		return historyShow(ctx, store, id, args)
	case "export":
		if id == "" {
			return ErrMissingArgument("ID", "seqdiff history export ID --format md")
		}
		return historyExport(ctx, store, cfg, p, id, args)
	case "delete", "rm":
		if id == "" {
			return ErrMissingArgument("ID", "seqdiff history delete ID")
		}
		return historyDelete(ctx, store, id, p.BoolFlag("confirm"), args)
	default:
		return NewValidationErrorWithExample("subcommand", p.Subcommand(),
			"unknown history subcommand", "seqdiff history list")
	}
}

// historyList prints saved comparisons, newest first.
func historyList(ctx context.Context, store *storage.Store, p *ArgParser, args Args) error {
	limit, err := p.FlagIntOrDefault("limit", 20)
	if err != nil {
		return err
	}

	comparisons, err := store.ListComparisons(ctx, limit)
	if err != nil {
		return err
	}
	total, err := store.CountComparisons(ctx)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history list", HistoryListData{Comparisons: comparisons, Total: total}).Print()
	}

	fmt.Print(storage.FormatComparisonList(comparisons))
	if len(comparisons) > 0 && total > len(comparisons) && !args.Quiet {
		fmt.Println(DimStyle.Render(fmt.Sprintf("Showing %d of %d. Use --limit N for more.", len(comparisons), total)))
	}
	return nil
}

// historyShow prints one comparison and its verification attempts.
func historyShow(ctx context.Context, store *storage.Store, id string, args Args) error {
	sc, err := loadComparison(ctx, store, id)
	if err != nil {
		return err
	}
	verifications, err := store.ListVerifications(ctx, sc.ID)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history show", HistoryShowData{Comparison: sc, Verifications: verifications}).Print()
	}

	fmt.Println()
	fmt.Println(TitleStyle.Render("Comparison " + sc.ID))
	fmt.Println(RenderSeparator(50))
	fmt.Println(RenderField("Created", sc.CreatedAt.Local().Format("2006-01-02 15:04:05")))
	fmt.Println(RenderField("Status", RenderStatus(verificationState(verifications))))
	if sc.OriginalName != "" || sc.EditedName != "" {
		fmt.Println(RenderField("Names", nameOrDash(sc.OriginalName)+" / "+nameOrDash(sc.EditedName)))
	}
	fmt.Println(RenderField("Lengths", fmt.Sprintf("%d / %d", sc.OriginalLength, sc.EditedLength)))
	fmt.Println(RenderField("Similarity", formatPercent(sc.Similarity)))
	fmt.Println(RenderField("Edit distance", fmt.Sprintf("%d", sc.EditDistance)))
	fmt.Println(RenderField("Edit script", nameOrDash(sc.EditScript)))
	fmt.Println(RenderField("Result hash", util.Elide(sc.ResultHash, 12)))
	fmt.Println(RenderField("Original", util.TruncateRunes(sc.Original, 48)))
	fmt.Println(RenderField("Edited", util.TruncateRunes(sc.Edited, 48)))

	fmt.Println(SectionStyle.Render("Verifications"))
	fmt.Print(indent(storage.FormatVerificationList(verifications), "  "))
	fmt.Println()
	return nil
}

// historyExport renders a saved comparison in --format.
func historyExport(ctx context.Context, store *storage.Store, cfg *config.Config, p *ArgParser, id string, args Args) error {
	format := strings.ToLower(p.FlagOrDefault("format", "md"))

	sc, err := loadComparison(ctx, store, id)
	if err != nil {
		return err
	}
	verifications, err := store.ListVerifications(ctx, sc.ID)
	if err != nil {
		return err
	}
	c, err := export.FromStored(sc, verifications)
	if err != nil {
		return err
	}

	hunkContext, err := p.FlagIntOrDefault("context", cfg.UI.Context)
	if err != nil {
		return err
	}
	content, err := exportAs(format, c, cfg, compareOptions{context: hunkContext})
	if err != nil {
		return err
	}

	output := p.Flag("output")
	if output == "" {
		if args.JSON && format != "json" {
			return NewValidationErrorWithExample("output", "", "--json with a non-JSON format needs a file", "--output report."+format)
		}
		fmt.Print(content)
		return nil
	}

	if err := util.AtomicWriteFile(output, []byte(content), 0644); err != nil {
		return NewCommandError("history", "export", output, err)
	}
	if args.JSON {
		return NewJSONResponse("history export", map[string]string{"id": sc.ID, "format": format, "output_file": output}).Print()
	}
	if !args.Quiet {
		StderrPrint("%s wrote %s\n", SuccessStyle.Render("[OK]"), output)
	}
	return nil
}

// historyDelete removes a comparison after confirmation.
func historyDelete(ctx context.Context, store *storage.Store, id string, confirm bool, args Args) error {
	sc, err := loadComparison(ctx, store, id)
	if err != nil {
		return err
	}

	confirmed, err := RequireConfirmationWithDetails(confirm, "delete comparison "+sc.ID, [][2]string{
		{"Created", sc.CreatedAt.Local().Format("2006-01-02 15:04")},
		{"Edit script", nameOrDash(sc.EditScript)},
	}, args.JSON)
	if err != nil {
		return err
	}
	if !confirmed {
		fmt.Println("Cancelled.")
		return nil
	}

	if err := store.DeleteComparison(ctx, sc.ID); err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("history delete", map[string]string{"id": sc.ID}).Print()
	}
	if !args.Quiet {
		fmt.Printf("%s deleted %s\n", SuccessStyle.Render("[OK]"), sc.ID)
	}
	return nil
}

// loadComparison resolves an ID or prefix, reporting a miss as a
// NotFoundError naming what was asked for.
func loadComparison(ctx context.Context, store *storage.Store, id string) (*storage.Comparison, error) {
	sc, err := store.GetComparison(ctx, id)
	if IsNotFoundError(err) {
		return nil, NewNotFoundError("comparison", id)
	}
	return sc, err
}

// verificationState is the status of the latest attempt, or "unverified".
func verificationState(verifications []storage.Verification) string {
	if len(verifications) == 0 {
		return "unverified"
	}
	return verifications[len(verifications)-1].Status
}

func nameOrDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// indent prefixes every non-empty line of s.
func indent(s, prefix string) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n") + "\n"
}
