package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/relscope/internal/catalog"
)

// DescribeResult is the success payload of the describe command.
type DescribeResult struct {
	Table    string        `json:"table"`
	RowType  string        `json:"row_type"`
	Fields   []FieldResult `json:"fields"`
	Ordering []string      `json:"ordering,omitempty"`
}

func (r DescribeResult) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s", r.Table, r.RowType)
	if len(r.Ordering) > 0 {
		fmt.Fprintf(&b, " ORDER BY %s", strings.Join(r.Ordering, ", "))
	}
	return b.String()
}

// NewDescribeCommand creates the describe command.
func NewDescribeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "describe <table>",
		Short:         "Print a catalog table's resolved schema",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDescribe(rootOpts, args[0], cmd)
		},
	}
}

func runDescribe(opts *RootOptions, tableName string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{Format: opts.Format, Writer: cmd.OutOrStdout()}

	cat, err := loadCatalog(opts.Catalog)
	if err != nil {
		return WrapExitError(ExitCommandError, "loading catalog", err)
	}

	table, err := cat.ResolveTable(tableName)
	if err != nil {
		if errors.Is(err, catalog.ErrTableNotFound) {
			return formatter.Error(ExitInvalid, "TABLE_NOT_FOUND",
				fmt.Sprintf("table %q not found", tableName), nil, "")
		}
		return WrapExitError(ExitCommandError, "resolving table", err)
	}

	rt := table.RowType()
	result := DescribeResult{Table: table.Name, RowType: rt.String()}
	for i := 0; i < rt.Len(); i++ {
		f := rt.Field(i)
		result.Fields = append(result.Fields, FieldResult{
			Name:     f.Name,
			Type:     f.Type.String(),
			Nullable: f.Nullable,
		})
	}
	for _, ord := range table.Ordering {
		key := ord.Column
		if ord.Desc {
			key += " DESC"
		}
		result.Ordering = append(result.Ordering, key)
	}
	return formatter.Success(result, "")
}
