package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/errorcache/errorcache-go/internal/config"
	"github.com/errorcache/errorcache-go/internal/errorcache"
	"github.com/errorcache/errorcache-go/internal/extract"
	"github.com/errorcache/errorcache-go/internal/tool"
)

// newTool builds an errorcache tool from resolved config and root flags.
var newTool = func() *tool.Tool {
	cfg := config.Resolve(config.Values{APIURL: flagURL, APIKey: flagKey})
	return tool.New(errorcache.New(cfg.API.BaseURL, cfg.API.Key))
}

// --- search ---

var searchCmd = &cobra.Command{
	Use:   "search <error message>",
	Short: "Search ErrorCache for verified solutions to an error",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		language, _ := cmd.Flags().GetString("language")
		framework, _ := cmd.Flags().GetString("framework")
		asJSON, _ := cmd.Flags().GetBool("json")

		res := newTool().Execute(cmd.Context(), tool.Input{
			Operation:    tool.OpSearchErrors,
			ErrorMessage: strings.Join(args, " "),
			Limit:        limit,
			Language:     language,
			Framework:    framework,
		})
		return printResult(res, asJSON)
	},
}

// --- submit ---

var submitCmd = &cobra.Command{
	Use:   "submit",
	Short: "Submit a solved error and its fix to ErrorCache",
	RunE: func(cmd *cobra.Command, args []string) error {
		title, _ := cmd.Flags().GetString("title")
		signature, _ := cmd.Flags().GetString("signature")
		category, _ := cmd.Flags().GetString("category")
		rootCause, _ := cmd.Flags().GetString("root-cause")
		fixApproach, _ := cmd.Flags().GetString("fix")
		commandsStr, _ := cmd.Flags().GetString("commands")
		questionID, _ := cmd.Flags().GetString("question-id")
		asJSON, _ := cmd.Flags().GetBool("json")

		var commands []string
		if commandsStr != "" {
			commands = strings.Split(commandsStr, ",")
			for i := range commands {
				commands[i] = strings.TrimSpace(commands[i])
			}
		}

		res := newTool().Execute(cmd.Context(), tool.Input{
			Operation:      tool.OpSubmitSolution,
			Title:          title,
			ErrorSignature: signature,
			ErrorCategory:  category,
			RootCause:      rootCause,
			FixApproach:    fixApproach,
			Commands:       commands,
			QuestionID:     questionID,
		})
		return printResult(res, asJSON)
	},
}

// --- verify ---

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Record whether an applied solution worked",
	RunE: func(cmd *cobra.Command, args []string) error {
		answerID, _ := cmd.Flags().GetString("answer-id")
		result, _ := cmd.Flags().GetString("result")
		evidenceStr, _ := cmd.Flags().GetString("evidence")
		asJSON, _ := cmd.Flags().GetBool("json")

		var evidence map[string]any
		if evidenceStr != "" {
			if err := json.Unmarshal([]byte(evidenceStr), &evidence); err != nil {
				return fmt.Errorf("parsing --evidence: %w", err)
			}
		}

		res := newTool().Execute(cmd.Context(), tool.Input{
			Operation: tool.OpVerifySolution,
			AnswerID:  answerID,
			Result:    result,
			Evidence:  evidence,
		})
		return printResult(res, asJSON)
	},
}

// --- extract ---

var extractCmd = &cobra.Command{
	Use:   "extract",
	Short: "Run the error extractor over stdin (debugging aid)",
	Long: `Reads tool output from stdin, prints the extracted error text and the
dedup key it normalizes to, or reports that no error pattern matched.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Resolve(config.Values{})

		catalog := extract.DefaultCatalog()
		if cfg.Watcher.PatternsFile != "" {
			if err := catalog.ExtendFromFile(cfg.Watcher.PatternsFile); err != nil {
				printWarning("could not extend pattern catalog: %v", err)
			}
		}

		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}

		text, ok := extract.New(catalog).Extract(string(data))
		if !ok {
			printWarning("no error pattern matched")
			return nil
		}

		fmt.Fprintln(os.Stdout, text)
		printStatus("dedup key", "%s", extract.Key(text))
		return nil
	},
}

func init() {
	searchCmd.Flags().Int("limit", 5, "maximum number of results")
	searchCmd.Flags().String("language", "", "programming language filter")
	searchCmd.Flags().String("framework", "", "framework filter")
	searchCmd.Flags().Bool("json", false, "print the raw result envelope as JSON")

	submitCmd.Flags().String("title", "", "question title (max 300 chars)")
	submitCmd.Flags().String("signature", "", "raw error text")
	submitCmd.Flags().String("category", "", "error category")
	submitCmd.Flags().String("root-cause", "", "root cause explanation (min 20 chars)")
	submitCmd.Flags().String("fix", "", "fix approach (min 20 chars)")
	submitCmd.Flags().String("commands", "", "comma-separated fix commands")
	submitCmd.Flags().String("question-id", "", "existing question to answer")
	submitCmd.Flags().Bool("json", false, "print the raw result envelope as JSON")

	verifyCmd.Flags().String("answer-id", "", "answer to verify")
	verifyCmd.Flags().String("result", "", "verification result: pass, fail, or partial")
	verifyCmd.Flags().String("evidence", "", "verification evidence as a JSON object")
	verifyCmd.Flags().Bool("json", false, "print the raw result envelope as JSON")
}

// printResult renders a tool result envelope. A structured failure becomes a
// non-zero exit without a stack of wrapped errors.
func printResult(res tool.Result, asJSON bool) error {
	if asJSON {
		b, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshalling result: %w", err)
		}
		fmt.Fprintln(os.Stdout, string(b))
		if !res.OK {
			return fmt.Errorf("operation failed")
		}
		return nil
	}

	if !res.OK {
		printError("%s", res.Error.Message)
		return fmt.Errorf("operation failed")
	}

	if msg, ok := res.Output["message"].(string); ok {
		printSuccess("%s", msg)
	}
	for _, key := range []string{"question_id", "answer_id", "link", "search_method", "suggestion"} {
		if v, ok := res.Output[key].(string); ok && v != "" {
			printStatus(key, "%s", v)
		}
	}

	results, ok := res.Output["results"].([]map[string]any)
	if !ok {
		return nil
	}
	for i, entry := range results {
		fmt.Fprintf(os.Stdout, "\n[%d] %v\n", i+1, entry["title"])
		fmt.Fprintf(os.Stdout, "    status: %v | answers: %v | verifications: %v\n",
			entry["status"], entry["answer_count"], entry["verification_count"])
		if ba, ok := entry["best_answer"].(map[string]any); ok {
			fmt.Fprintf(os.Stdout, "    root cause: %v\n", ba["root_cause"])
			fmt.Fprintf(os.Stdout, "    fix: %v\n", ba["fix_approach"])
		}
		fmt.Fprintf(os.Stdout, "    %v\n", entry["link"])
	}
	return nil
}
