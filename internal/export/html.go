// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package export

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/bionova/seqdiff/internal/align"
)

// =============================================================================
// HTML EXPORTER
// =============================================================================

// HTMLExporter exports comparisons to a standalone HTML page with embedded CSS.
type HTMLExporter struct {
	options *Options
}

// NewHTMLExporter creates a new HTML exporter.
func NewHTMLExporter(opts *Options) *HTMLExporter {
	if opts == nil {
		opts = DefaultOptions()
	}
	return &HTMLExporter{options: opts}
}

// Export converts a comparison to HTML format.
func (e *HTMLExporter) Export(c *Comparison) ([]byte, error) {
	if err := c.validate(); err != nil {
		return nil, err
	}

	theme := e.options.Theme
	if theme != "light" {
		theme = "dark"
	}

	var sb strings.Builder

	sb.WriteString("<!DOCTYPE html>\n")
	sb.WriteString("<html lang=\"en\">\n")
	sb.WriteString("<head>\n")
	sb.WriteString("    <meta charset=\"UTF-8\">\n")
	sb.WriteString("    <meta name=\"viewport\" content=\"width=device-width, initial-scale=1.0\">\n")
	sb.WriteString(fmt.Sprintf("    <title>%s</title>\n", html.EscapeString(c.Title())))
	sb.WriteString("    <meta name=\"generator\" content=\"seqdiff\">\n")
	if !c.CreatedAt.IsZero() {
		sb.WriteString(fmt.Sprintf("    <meta name=\"date\" content=\"%s\">\n", c.CreatedAt.Format(time.RFC3339)))
	}
	sb.WriteString(e.getCSS())
	sb.WriteString("</head>\n")
	sb.WriteString(fmt.Sprintf("<body class=\"%s-theme\">\n", theme))
	sb.WriteString("    <div class=\"container\">\n")

	sb.WriteString(e.renderHeader(c))

	sb.WriteString("        <main>\n")
	sb.WriteString(e.renderStats(c.Result))
	sb.WriteString(e.renderAlignment(c.Result))
	if e.options.IncludeSequences {
		sb.WriteString(e.renderSequences(c))
	}
	if c.Receipt != nil {
		sb.WriteString(e.renderReceipt(c))
	}
	sb.WriteString("        </main>\n")

	sb.WriteString("        <footer class=\"footer\">\n")
	sb.WriteString(fmt.Sprintf("            <p>Exported from <strong>seqdiff</strong> on %s</p>\n",
		time.Now().Format("January 2, 2006 at 3:04 PM")))
	sb.WriteString("        </footer>\n")
	sb.WriteString("    </div>\n")

	sb.WriteString(e.getScript())

	sb.WriteString("</body>\n")
	sb.WriteString("</html>\n")

	return []byte(sb.String()), nil
}

// FileExtension returns the file extension for HTML.
func (e *HTMLExporter) FileExtension() string {
	return ".html"
}

// MimeType returns the MIME type for HTML.
func (e *HTMLExporter) MimeType() string {
	return "text/html"
}

// =============================================================================
// RENDERING FUNCTIONS
// =============================================================================

// renderHeader renders the header section with metadata.
func (e *HTMLExporter) renderHeader(c *Comparison) string {
	var sb strings.Builder

	sb.WriteString("        <header class=\"header\">\n")
	sb.WriteString(fmt.Sprintf("            <h1>%s</h1>\n", html.EscapeString(c.Title())))
	sb.WriteString(fmt.Sprintf("            <p class=\"summary\">%s</p>\n", html.EscapeString(c.Result.Summary())))
	sb.WriteString("            <div class=\"metadata\">\n")
	if e.options.IncludeMetadata {
		if c.ID != "" {
			sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>ID:</strong> %s</span>\n", html.EscapeString(c.ID)))
		}
		if !c.CreatedAt.IsZero() {
			sb.WriteString(fmt.Sprintf("                <span class=\"meta-item\"><strong>Created:</strong> %s</span>\n", formatTimestamp(c.CreatedAt)))
		}
		sb.WriteString(fmt.Sprintf("                <span class=\"meta-item hash\"><strong>Hash:</strong> <code>%s</code></span>\n", c.Hash()))
	}
	sb.WriteString("                <button class=\"theme-toggle\" onclick=\"toggleTheme()\" title=\"Toggle theme\">[Theme]</button>\n")
	sb.WriteString("            </div>\n")
	sb.WriteString("        </header>\n")

	return sb.String()
}

// renderStats renders the operation counts as a table.
func (e *HTMLExporter) renderStats(res *align.Result) string {
	var sb strings.Builder
	sb.WriteString("            <section class=\"stats\">\n")
	sb.WriteString("                <table>\n")
	row := func(label, value, class string) {
		sb.WriteString(fmt.Sprintf("                    <tr class=\"%s\"><th>%s</th><td>%s</td></tr>\n", class, label, html.EscapeString(value)))
	}
	row("Original length", fmt.Sprint(res.OriginalLen), "")
	row("Edited length", fmt.Sprint(res.EditedLen), "")
	row("Matches", fmt.Sprint(res.Counts.Matches), "op-match")
	row("Substitutions", fmt.Sprint(res.Counts.Substitutions), "op-sub")
	row("Insertions", fmt.Sprint(res.Counts.Insertions), "op-ins")
	row("Deletions", fmt.Sprint(res.Counts.Deletions), "op-del")
	row("Similarity", percent(res.Similarity), "")
	if script := res.EditScript().String(); script != "" {
		row("Edit script", script, "script")
	}
	sb.WriteString("                </table>\n")
	sb.WriteString("            </section>\n")
	return sb.String()
}

// renderAlignment renders the alignment as colored blocks, one span per column.
func (e *HTMLExporter) renderAlignment(res *align.Result) string {
	blocks := res.Blocks(blockSize(e.options))
	if len(blocks) == 0 {
		return "            <section class=\"alignment empty\"><p>Both sequences are empty.</p></section>\n"
	}

	var sb strings.Builder
	sb.WriteString("            <section class=\"alignment\">\n")
	for _, b := range blocks {
		sb.WriteString("                <pre class=\"block\">")
		sb.WriteString(fmt.Sprintf("<span class=\"pos\">%6d</span> ", b.OriginalStart))
		for _, op := range b.Ops {
			sb.WriteString(cell(op, opCellOriginal))
		}
		sb.WriteString(fmt.Sprintf(" <span class=\"pos\">%d</span>\n", b.OriginalEnd))
		sb.WriteString(fmt.Sprintf("<span class=\"pos\">%6d</span> ", b.EditedStart))
		for _, op := range b.Ops {
			sb.WriteString(cell(op, opCellEdited))
		}
		sb.WriteString(fmt.Sprintf(" <span class=\"pos\">%d</span>", b.EditedEnd))
		sb.WriteString("</pre>\n")
	}
	sb.WriteString("            </section>\n")
	return sb.String()
}

func (e *HTMLExporter) renderSequences(c *Comparison) string {
	var sb strings.Builder
	sb.WriteString("            <section class=\"sequences\">\n")
	for _, s := range []struct{ name, bases string }{
		{nameOr(c.OriginalName, "original"), c.Original.String()},
		{nameOr(c.EditedName, "edited"), c.Edited.String()},
	} {
		sb.WriteString(fmt.Sprintf("                <h3>%s <small>%d bp</small></h3>\n", html.EscapeString(s.name), len(s.bases)))
		sb.WriteString(fmt.Sprintf("                <pre class=\"sequence\">%s</pre>\n", s.bases))
	}
	sb.WriteString("            </section>\n")
	return sb.String()
}

func (e *HTMLExporter) renderReceipt(c *Comparison) string {
	r := c.Receipt
	var sb strings.Builder
	sb.WriteString("            <section class=\"receipt\">\n")
	sb.WriteString("                <h2>Verification</h2>\n")
	sb.WriteString(fmt.Sprintf("                <p><strong>Network:</strong> %s</p>\n", html.EscapeString(r.Network)))
	if r.ExplorerURL != "" {
		sb.WriteString(fmt.Sprintf("                <p><strong>Transaction:</strong> <a href=\"%s\">%s</a></p>\n",
			html.EscapeString(r.ExplorerURL), html.EscapeString(r.TxHash)))
	} else {
		sb.WriteString(fmt.Sprintf("                <p><strong>Transaction:</strong> <code>%s</code></p>\n", html.EscapeString(r.TxHash)))
	}
	sb.WriteString("            </section>\n")
	return sb.String()
}

type cellSide int

const (
	opCellOriginal cellSide = iota
	opCellEdited
)

// cell renders one alignment column. Bases are from the validated alphabet.
func cell(op align.Op, side cellSide) string {
	ch := byte(align.GapChar)
	if side == opCellOriginal && op.HasOriginal() {
		ch = op.Original
	} else if side == opCellEdited && op.HasEdited() {
		ch = op.Edited
	}
	if op.Kind == align.OpMatch {
		return string(ch)
	}
	return fmt.Sprintf("<span class=\"%s\">%c</span>", opClass(op.Kind), ch)
}

func opClass(k align.OpKind) string {
	switch k {
	case align.OpSubstitution:
		return "op-sub"
	case align.OpInsertion:
		return "op-ins"
	case align.OpDeletion:
		return "op-del"
	default:
		return "op-match"
	}
}

// getCSS returns the embedded CSS for the HTML export.
func (e *HTMLExporter) getCSS() string {
	return `    <style>
        * {
            margin: 0;
            padding: 0;
            box-sizing: border-box;
        }

        :root {
            --font-sans: -apple-system, BlinkMacSystemFont, "Segoe UI", Roboto, "Helvetica Neue", Arial, sans-serif;
            --font-mono: "SF Mono", "Monaco", "Inconsolata", "Fira Code", "Source Code Pro", monospace;
        }

        /* Dark theme (default) */
        .dark-theme {
            --bg-primary: #1a1b26;
            --bg-secondary: #24283b;
            --bg-tertiary: #414868;
            --text-primary: #c0caf5;
            --text-secondary: #a9b1d6;
            --text-muted: #565f89;
            --border-color: #414868;
            --sub-bg: #78350f;
            --ins-bg: #064e3b;
            --del-bg: #881337;
            --accent-blue: #7aa2f7;
        }

        /* Light theme */
        .light-theme {
            --bg-primary: #ffffff;
            --bg-secondary: #f7f8fa;
            --bg-tertiary: #e1e4e8;
            --text-primary: #24292e;
            --text-secondary: #586069;
            --text-muted: #6a737d;
            --border-color: #e1e4e8;
            --sub-bg: #fef3c7;
            --ins-bg: #d1fae5;
            --del-bg: #fee2e2;
            --accent-blue: #0366d6;
        }

        body {
            font-family: var(--font-sans);
            font-size: 16px;
            line-height: 1.6;
            color: var(--text-primary);
            background: var(--bg-primary);
            padding: 20px;
        }

        .container {
            max-width: 1100px;
            margin: 0 auto;
            background: var(--bg-secondary);
            border-radius: 12px;
            overflow: hidden;
        }

        .header {
            padding: 32px;
            background: var(--bg-tertiary);
            border-bottom: 2px solid var(--border-color);
        }

        .header h1 { font-size: 28px; margin-bottom: 8px; }
        .summary { color: var(--text-secondary); margin-bottom: 12px; }

        .metadata {
            display: flex;
            flex-wrap: wrap;
            gap: 16px;
            font-size: 14px;
            color: var(--text-secondary);
            align-items: center;
        }

        .theme-toggle {
            margin-left: auto;
            background: transparent;
            color: var(--text-primary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 4px 10px;
            cursor: pointer;
        }

        main { padding: 24px 32px; }
        section { margin-bottom: 24px; }
        h2 { font-size: 20px; margin-bottom: 8px; }

        table { border-collapse: collapse; }
        th { text-align: left; padding: 2px 16px 2px 0; color: var(--text-secondary); font-weight: 500; }
        td { font-family: var(--font-mono); }

        pre {
            font-family: var(--font-mono);
            font-size: 14px;
            background: var(--bg-primary);
            border: 1px solid var(--border-color);
            border-radius: 6px;
            padding: 8px 12px;
            margin-bottom: 8px;
            overflow-x: auto;
        }

        .sequence { white-space: pre-wrap; word-break: break-all; }
        .pos { color: var(--text-muted); }
        .op-sub { background: var(--sub-bg); font-weight: 700; }
        .op-ins { background: var(--ins-bg); font-weight: 700; }
        .op-del { background: var(--del-bg); font-weight: 700; }
        a { color: var(--accent-blue); }

        .footer {
            padding: 16px 32px;
            font-size: 13px;
            color: var(--text-muted);
            border-top: 1px solid var(--border-color);
        }
    </style>
`
}

// getScript returns the embedded JavaScript for theme toggling.
func (e *HTMLExporter) getScript() string {
	return `    <script>
        function toggleTheme() {
            const body = document.body;
            if (body.classList.contains('dark-theme')) {
                body.classList.remove('dark-theme');
                body.classList.add('light-theme');
                localStorage.setItem('theme', 'light');
            } else {
                body.classList.remove('light-theme');
                body.classList.add('dark-theme');
                localStorage.setItem('theme', 'dark');
            }
        }

        document.addEventListener('DOMContentLoaded', function() {
            const savedTheme = localStorage.getItem('theme');
            if (savedTheme) {
                document.body.classList.remove('dark-theme', 'light-theme');
                document.body.classList.add(savedTheme + '-theme');
            }
        });
    </script>
`
}
