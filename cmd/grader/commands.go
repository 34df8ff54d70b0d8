package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/samvad-hq/grader-client/internal/app"
	"github.com/samvad-hq/grader-client/internal/config"
	"github.com/samvad-hq/grader-client/internal/logger"
	"github.com/samvad-hq/grader-client/internal/manifest"
	"github.com/samvad-hq/grader-client/pkg/grader"
	"github.com/spf13/cobra"
)

// cli carries the runtime shared by subcommands; it is built once in PersistentPreRunE.
type cli struct {
	app    *app.App
	pretty bool
	flush  func() error // logger.Close unless replaced
}

// close releases whatever init managed to build and flushes the logger. Safe
// to call when init never ran or failed halfway.
func (c *cli) close() error {
	flush := c.flush
	if flush == nil {
		flush = logger.Close
	}
	defer func() { _ = flush() }()
	if c.app == nil {
		return nil
	}
	err := c.app.Close()
	c.app = nil
	return err
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "grader",
		Short:         "Submit homework scans for OCR and code for AI grading",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.init(cmd)
		},
	}
	root.PersistentFlags().BoolVar(&c.pretty, "pretty", false, "indent JSON responses")

	root.AddCommand(
		c.ocrCmd(),
		c.gradeCmd(),
		c.assignmentCmd(),
		c.batchCmd(),
		c.historyCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.DebugObj("grader starting", "config", cfg)

	a, err := app.New(cmd.Context(), cfg, log)
	if err != nil {
		logger.ErrorObj("failed to initialize app", "error", err)
		return err
	}
	c.app = a
	return nil
}

func (c *cli) ocrCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ocr <image>",
		Short: "Upload an image to the OCR endpoint",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.app.SubmitOCR(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), resp.Body, c.pretty)
		},
	}
}

func (c *cli) gradeCmd() *cobra.Command {
	var text, file string
	cmd := &cobra.Command{
		Use:   "grade",
		Short: "Submit source text to the AI grading endpoint",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			source, body, err := readGradeInput(cmd.InOrStdin(), cmd.Flags().Changed("text"), text, file)
			if err != nil {
				return err
			}
			resp, err := c.app.SubmitGrade(cmd.Context(), "", source, body)
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), resp.Body, c.pretty)
		},
	}
	cmd.Flags().StringVar(&text, "text", "", "text to grade")
	cmd.Flags().StringVar(&file, "file", "", "file to grade (- for stdin)")
	cmd.MarkFlagsMutuallyExclusive("text", "file")
	cmd.MarkFlagsOneRequired("text", "file")
	return cmd
}

func (c *cli) assignmentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "assignment",
		Short: "Work with assignments stored on the backend",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "upload <file>",
		Short: "Store an image or source file as a new assignment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			resp, err := c.app.UploadAssignment(cmd.Context(), "", args[0])
			if err != nil {
				return err
			}
			return writeBody(cmd.OutOrStdout(), resp.Body, c.pretty)
		},
	})

	steps := []struct {
		use   string
		short string
		step  grader.AssignmentStep
	}{
		{"ocr", "Run OCR on a stored assignment", grader.StepOCR},
		{"report", "Generate the AI report for a stored assignment", grader.StepReport},
		{"run", "Compile and run a stored assignment", grader.StepCompile},
	}
	for _, s := range steps {
		step := s.step
		cmd.AddCommand(&cobra.Command{
			Use:   s.use + " <assignment-id>",
			Short: s.short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				resp, err := c.app.RunAssignmentStep(cmd.Context(), "", args[0], step)
				if err != nil {
					return err
				}
				return writeBody(cmd.OutOrStdout(), resp.Body, c.pretty)
			},
		})
	}
	return cmd
}

func (c *cli) batchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "batch <manifest>",
		Short: "Run every job listed in a YAML or JSON manifest",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := manifest.Load(args[0])
			if err != nil {
				return err
			}
			results, runErr := c.app.RunBatch(cmd.Context(), jobs)

			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, r := range results {
				line := map[string]any{"job_id": r.JobID, "type": r.Type}
				if r.Err != nil {
					line["error"] = r.Err.Error()
				} else {
					line["status"] = r.Response.StatusCode
					line["response"] = rawOrString(r.Response.Body)
				}
				if err := enc.Encode(line); err != nil {
					return errors.Join(runErr, err)
				}
			}
			return runErr
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent submissions from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			subs, err := c.app.History(limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, s := range subs {
				if err := enc.Encode(s); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "maximum entries to show")
	return cmd
}

// readGradeInput picks the text to grade. An explicitly empty --text is sent as-is.
func readGradeInput(stdin io.Reader, textSet bool, text, file string) (string, string, error) {
	switch {
	case textSet:
		return "inline", text, nil
	case file == "-":
		raw, err := io.ReadAll(stdin)
		if err != nil {
			return "", "", fmt.Errorf("read stdin: %w", err)
		}
		return "stdin", string(raw), nil
	case file != "":
		raw, err := os.ReadFile(file)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", file, err)
		}
		return file, string(raw), nil
	default:
		return "", "", errors.New("one of --text or --file is required")
	}
}

// writeBody prints the response body verbatim, or indented when pretty is set
// and the body is JSON.
func writeBody(w io.Writer, body []byte, pretty bool) error {
	if pretty && json.Valid(body) {
		var buf bytes.Buffer
		if err := json.Indent(&buf, body, "", "  "); err == nil {
			body = buf.Bytes()
		}
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if !strings.HasSuffix(string(body), "\n") {
		_, err := io.WriteString(w, "\n")
		return err
	}
	return nil
}

func rawOrString(body []byte) any {
	if json.Valid(body) {
		return json.RawMessage(body)
	}
	return string(body)
}
