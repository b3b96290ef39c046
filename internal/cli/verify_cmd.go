// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// verify_cmd.go - Submit a comparison for on-chain verification.
//
// Command: verify ORIGINAL EDITED | verify --id COMPARISON_ID
// Short:   Anchor the comparison hash and print the receipt
// Aliases: anchor
//
// The submission runs as a background task inside this process. The command
// saves the comparison, queues the task, then waits for the receipt.
// Ctrl+C cancels the task.
//
// Examples:
//   seqdiff verify ATGCTAGC ATGGTAGC
//   seqdiff verify --id 3f2a
//   seqdiff verify ATGC ATGG --code 123456 --timeout 2m
//   seqdiff verify --explain
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bionova/seqdiff/internal/align"
	"github.com/bionova/seqdiff/internal/config"
	"github.com/bionova/seqdiff/internal/sequence"
	"github.com/bionova/seqdiff/internal/storage"
	"github.com/bionova/seqdiff/internal/tasks"
	"github.com/bionova/seqdiff/internal/ui/components"
	"github.com/bionova/seqdiff/internal/ui/styles"
	"github.com/bionova/seqdiff/internal/util"
	"github.com/bionova/seqdiff/internal/verify"
)

const verifyUsage = "seqdiff verify ATGCTAGC ATGGTAGC"

// verifySwitches are the boolean flags of verify.
var verifySwitches = []string{"explain"}

// verifyInput is what gets submitted: the pair, its alignment and its ledger ID.
type verifyInput struct {
	original     sequence.Sequence
	edited       sequence.Sequence
	result       *align.Result
	comparisonID string
}

// HandleVerify handles the "verify" command.
func HandleVerify(args Args) error {
	p := NewArgParser(args.Raw, verifySwitches...)

	cfg, err := loadConfig(args)
	if err != nil {
		return err
	}

	explain := p.BoolFlag("explain")
	if explain && !args.JSON {
		fmt.Println(components.ExplainVerification(cfg.Verify.Network, GetTerminalWidth(cfg.UI.WrapWidth)))
		// --explain alone only explains
		if p.PositionalCount() == 0 && !p.HasFlag("id") && !p.HasFlag("file-a") {
			return nil
		}
	}

	timeout, err := p.FlagDuration("timeout", cfg.VerifyTimeout())
	if err != nil {
		return err
	}

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	in, err := resolveVerifyInput(ctx, p, cfg, store)
	if err != nil {
		return err
	}

	svc := newVerifyService(cfg, store)
	code := p.Flag("code")
	if svc.ApprovalRequired() && code == "" && !args.JSON && CanPrompt() {
		if code, err = ReadApprovalCode(); err != nil {
			return err
		}
	}

	payload, err := newPayload(cfg, in.original, in.edited, in.result)
	if err != nil {
		return err
	}

	svcCtx, cancelSvc := context.WithCancel(context.Background())
	defer cancelSvc()
	svc.Start(svcCtx)
	defer svc.Stop()

	taskID, err := svc.Submit(verify.Request{
		Payload:      payload,
		ComparisonID: in.comparisonID,
		ApprovalCode: code,
	})
	if err != nil {
		return err
	}

	if !args.JSON && !args.Quiet {
		StderrPrint("Submitting comparison %s to %s (task %s)...\n",
			util.ShortID(in.comparisonID), cfg.Verify.Network, util.ShortID(taskID))
	}

	receipt, err := awaitReceipt(ctx, svc, taskID, timeout)
	if err != nil {
		return err
	}

	if args.JSON {
		return NewJSONResponse("verify", VerifyData{
			TaskID:       taskID,
			ComparisonID: in.comparisonID,
			ResultHash:   payload.ResultHash,
			State:        string(tasks.TaskStatusComplete),
			Receipt:      &receipt,
		}).Print()
	}

	printReceipt(in, payload.ResultHash, receipt)
	return nil
}

// resolveVerifyInput loads --id from the ledger, or reads and saves a new pair.
func resolveVerifyInput(ctx context.Context, p *ArgParser, cfg *config.Config, store *storage.Store) (verifyInput, error) {
	if id := p.Flag("id"); id != "" {
		sc, err := loadComparison(ctx, store, id)
		if err != nil {
			return verifyInput{}, err
		}
		original, err := sequence.ParseField("original", sc.Original)
		if err != nil {
			return verifyInput{}, err
		}
		edited, err := sequence.ParseField("edited", sc.Edited)
		if err != nil {
			return verifyInput{}, err
		}
		return verifyInput{
			original:     original.WithName(sc.OriginalName),
			edited:       edited.WithName(sc.EditedName),
			result:       align.Align(original, edited),
			comparisonID: sc.ID,
		}, nil
	}

	original, edited, err := resolveSequences(p, 0, verifyUsage)
	if err != nil {
		return verifyInput{}, err
	}
	if err := checkMaxLength(cfg, original, edited); err != nil {
		return verifyInput{}, err
	}

	res := align.Align(original, edited)
	id, err := saveTo(ctx, store, original, edited, res)
	if err != nil {
		return verifyInput{}, err
	}
	return verifyInput{original: original, edited: edited, result: res, comparisonID: id}, nil
}

// awaitReceipt waits up to timeout for the task. An interrupt or an expired
// wait cancels the task before returning.
func awaitReceipt(ctx context.Context, svc *verify.Service, taskID string, timeout time.Duration) (verify.Receipt, error) {
	waitCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	receipt, err := svc.Wait(waitCtx, taskID)
	if err == nil {
		return receipt, nil
	}

	if waitCtx.Err() != nil {
		_ = svc.Cancel(taskID)
		if errors.Is(waitCtx.Err(), context.DeadlineExceeded) {
			return verify.Receipt{}, fmt.Errorf("verification did not finish within %s: %w",
				formatDurationShort(timeout), context.DeadlineExceeded)
		}
		return verify.Receipt{}, fmt.Errorf("verification interrupted: %w", tasks.ErrCanceled)
	}
	return verify.Receipt{}, err
}

// printReceipt shows the verification outcome.
func printReceipt(in verifyInput, resultHash string, r verify.Receipt) {
	fmt.Println()
	fmt.Println(TitleStyle.Render("Verification Recorded"))
	fmt.Println(RenderSeparator(50))
	fmt.Println(RenderField("Status", RenderStatus(string(tasks.TaskStatusComplete))))
	fmt.Println(RenderField("Comparison", util.ShortID(in.comparisonID)))
	fmt.Println(RenderField("Summary", in.result.Summary()))
	fmt.Println(RenderField("Result hash", util.Elide(resultHash, 12)))
	fmt.Println(RenderField("Network", r.Network))
	fmt.Println(RenderField("Transaction", r.TxHash))
	if r.ExplorerURL != "" {
		fmt.Println(RenderField("Explorer", styles.RenderLink(r.ExplorerURL)))
	}
	fmt.Println(RenderField("Submitted", r.SubmittedAt.Local().Format("2006-01-02 15:04:05")))
	fmt.Println()
}
