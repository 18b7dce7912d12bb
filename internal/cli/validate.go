package cli

import (
	"errors"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/roach88/relscope/internal/namespace"
	"github.com/roach88/relscope/internal/sqlast"
)

// ValidateResult is the success payload of the validate command.
type ValidateResult struct {
	RowType string        `json:"row_type"`
	Fields  []FieldResult `json:"fields"`
}

// FieldResult describes one output column of the validated query.
type FieldResult struct {
	Name         string `json:"name"`
	Type         string `json:"type"`
	Nullable     bool   `json:"nullable"`
	Monotonicity string `json:"monotonicity,omitempty"`
}

func (r ValidateResult) String() string { return r.RowType }

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <query-file>",
		Short: "Validate a query tree against the catalog",
		Long: `Validate a YAML query tree against the catalog: resolve every table and
column reference, type-check predicates and set operations, and derive the
query's output row type.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, queryPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading catalog", err)
	}
	opts.log.WithFields(logrus.Fields{
		"catalog": opts.Catalog,
		"tables":  len(cat.TableNames()),
	}).Debug("catalog loaded")

	root, err := sqlast.LoadTreeFile(queryPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading query tree", err)
	}

	v := namespace.New(cat)
	session := v.Registry().Session()
	opts.log.WithField("session", session).Debug("validating")

	ns, err := v.ValidateQuery(root)
	if err != nil {
		var ve *namespace.ValidationError
		if errors.As(err, &ve) {
			opts.log.WithFields(logrus.Fields{
				"session": session,
				"code":    ve.Code,
			}).Debug("validation failed")
			return formatter.Error(ExitInvalid, string(ve.Code), ve.Message, ve.Context, session)
		}
		return WrapExitError(ExitCommandError, "validation", err)
	}

	rt, err := ns.RowType()
	if err != nil {
		return WrapExitError(ExitCommandError, "row type", err)
	}

	result := ValidateResult{RowType: rt.String()}
	for i := 0; i < rt.Len(); i++ {
		f := rt.Field(i)
		fr := FieldResult{Name: f.Name, Type: f.Type.String(), Nullable: f.Nullable}
		if dir, err := ns.Monotonicity(f.Name); err == nil && dir.IsMonotonic() {
			fr.Monotonicity = dir.String()
		}
		result.Fields = append(result.Fields, fr)
	}
	return formatter.Success(result, session)
}
