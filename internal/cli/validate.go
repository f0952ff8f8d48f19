package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/simnet/internal/contracts"
	"github.com/roach88/simnet/internal/manifest"
	"github.com/roach88/simnet/internal/simnet"
)

// ValidationIssue is one problem found in a manifest.
type ValidationIssue struct {
	File    string `json:"file"`
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	Code    string `json:"code"`
	Line    int    `json:"line,omitempty"`
}

// ManifestSummary describes a manifest that compiled and bound.
type ManifestSummary struct {
	File           string   `json:"file"`
	Name           string   `json:"name"`
	Implementation string   `json:"implementation"`
	Functions      []string `json:"functions"`
	DataVars       []string `json:"data_vars"`
	Errors         int      `json:"errors"`
}

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid     bool              `json:"valid"`
	Contracts []ManifestSummary `json:"contracts"`
	Errors    []ValidationIssue `json:"errors,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <manifest-or-dir>",
		Short: "Validate contract manifests without deploying",
		Long: `Compile CUE contract manifests and check that each one binds to a
registered native implementation. A directory validates every .cue file
in it.

Examples:
  simnet validate ./contracts
  simnet validate ./contracts/fantasy-sports.cue --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, target string, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd)

	files, err := manifestFiles(target)
	if err != nil {
		return f.Fail(ExitCommandError, "failed to find manifests", err)
	}
	if len(files) == 0 {
		return f.Fail(ExitCommandError, "no .cue manifests found in "+target, nil)
	}

	result := validateManifests(files, contracts.Default(), f)
	if len(result.Errors) > 0 {
		return outputValidationErrors(f, result)
	}

	if f.Format == "json" {
		return f.Success(result)
	}
	for _, c := range result.Contracts {
		fmt.Fprintf(f.Writer, "✓ %s (%s): %d functions, %d data vars, %d errors\n",
			c.Name, c.Implementation, len(c.Functions), len(c.DataVars), c.Errors)
	}
	fmt.Fprintln(f.Writer, "✓ All manifests valid")
	return nil
}

// manifestFiles returns target itself, or the .cue files directly inside it.
func manifestFiles(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}
	return filepath.Glob(filepath.Join(target, "*.cue"))
}

// validateManifests compiles and binds each manifest, collecting every issue.
func validateManifests(files []string, registry *simnet.Registry, f *OutputFormatter) ValidationResult {
	result := ValidationResult{Contracts: []ManifestSummary{}}

	for _, file := range files {
		f.VerboseLog("Validating manifest: %s", file)

		spec, _, err := manifest.LoadFile(file)
		if err != nil {
			result.Errors = append(result.Errors, issueFor(file, err))
			continue
		}

		factory, ok := registry.Lookup(spec.Implementation)
		if !ok {
			result.Errors = append(result.Errors, ValidationIssue{
				File:    file,
				Field:   "implementation",
				Message: fmt.Sprintf("no implementation registered for %q (known: %s)", spec.Implementation, strings.Join(registry.IDs(), ", ")),
				Code:    ErrCodeManifest,
			})
			continue
		}
		if _, err := factory(spec); err != nil {
			result.Errors = append(result.Errors, ValidationIssue{
				File:    file,
				Field:   "implementation",
				Message: err.Error(),
				Code:    ErrCodeManifest,
			})
			continue
		}

		result.Contracts = append(result.Contracts, ManifestSummary{
			File:           file,
			Name:           spec.Name,
			Implementation: spec.Implementation,
			Functions:      spec.FunctionNames(),
			DataVars:       spec.DataVarNames(),
			Errors:         len(spec.Errors),
		})
	}

	result.Valid = len(result.Errors) == 0
	return result
}

func issueFor(file string, err error) ValidationIssue {
	var ce *manifest.CompileError
	if errors.As(err, &ce) {
		issue := ValidationIssue{File: file, Field: ce.Field, Message: ce.Message, Code: ErrCodeManifest}
		if ce.Pos.IsValid() {
			issue.Line = ce.Pos.Line()
		}
		return issue
	}
	return ValidationIssue{File: file, Message: err.Error(), Code: ErrCodeGeneric}
}

// outputValidationErrors outputs every validation issue.
// Validation failures exit with code 1.
func outputValidationErrors(f *OutputFormatter, result ValidationResult) error {
	failure := NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", len(result.Errors)))

	if f.Format == "json" {
		first := result.Errors[0]
		if err := f.encode(CLIResponse{
			Status: "error",
			Data:   result,
			Error:  &CLIError{Code: first.Code, Message: first.Message},
		}); err != nil {
			return err
		}
		return failure
	}

	fmt.Fprintln(f.Writer, "✗ Validation failed")
	fmt.Fprintln(f.Writer)
	for _, issue := range result.Errors {
		if issue.Line > 0 {
			fmt.Fprintf(f.Writer, "%s:%d\n", issue.File, issue.Line)
		} else {
			fmt.Fprintln(f.Writer, issue.File)
		}
		fmt.Fprintf(f.Writer, "  %s: %s\n\n", issue.Code, issue.Message)
	}
	return failure
}
