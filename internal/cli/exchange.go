package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tasks as JSON (attachments are not included)",
	RunE:  runExport,
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Import tasks from a JSON export or array (- for stdin)",
	Long: `Import tasks from a JSON export or a bare array of tasks. Imported
tasks are added as active tasks without attachments; conflicting ids are
replaced. Nothing is imported if the file cannot be parsed.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

var exportOutput string

func init() {
	exportCmd.Flags().StringVarP(&exportOutput, "output", "o", "", "Output file (default: todo-export-YYYYMMDD.json, - for stdout)")
}

func runExport(cmd *cobra.Command, args []string) error {
	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	doc := a.Tasks.Export()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if exportOutput == "-" {
		fmt.Println(string(data))
		return nil
	}
	out := exportOutput
	if out == "" {
		out = fmt.Sprintf("todo-export-%s.json", a.Now().Format("20060102"))
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	fmt.Printf("✓ Exported %d task(s) to %s\n", len(doc.Tasks), out)
	return nil
}

func runImport(cmd *cobra.Command, args []string) error {
	var data []byte
	var err error
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("failed to read import: %w", err)
	}

	a, err := openApp(cmd.Context())
	if err != nil {
		return err
	}
	defer closeApp(a)

	start := time.Now()
	tasks, err := a.Tasks.Import(cmd.Context(), data)
	if err != nil {
		return err
	}
	fmt.Printf("✓ Imported %d task(s) in %s\n", len(tasks), time.Since(start).Round(time.Millisecond))
	return nil
}
