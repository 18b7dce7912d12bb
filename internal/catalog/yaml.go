package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/roach88/relscope/internal/rowtype"
	"github.com/roach88/relscope/internal/sqlname"
	"github.com/roach88/relscope/internal/sqltype"
)

// Catalog definition file format:
//
//	case_sensitive: false
//	tables:
//	  EMP:
//	    columns:
//	      - {name: empno, type: INT}
//	      - {name: ename, type: VARCHAR, precision: 32, nullable: true}
//	      - {name: rowid, type: BIGINT, system: true}
//	    ordering:
//	      - {column: empno}

type catalogFile struct {
	CaseSensitive bool                 `yaml:"case_sensitive"`
	Tables        map[string]tableFile `yaml:"tables"`
}

type tableFile struct {
	Columns  []columnFile `yaml:"columns"`
	Ordering []orderFile  `yaml:"ordering"`
}

type columnFile struct {
	Name      string `yaml:"name"`
	Type      string `yaml:"type"`
	Precision int    `yaml:"precision"`
	Nullable  bool   `yaml:"nullable"`
	System    bool   `yaml:"system"`
}

type orderFile struct {
	Column string `yaml:"column"`
	Desc   bool   `yaml:"desc"`
}

// LoadYAML parses a catalog definition document.
func LoadYAML(data []byte) (*Mem, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}
	if len(file.Tables) == 0 {
		return nil, fmt.Errorf("parse catalog: no tables defined")
	}

	matcher := sqlname.Matcher(sqlname.CaseInsensitive())
	if file.CaseSensitive {
		matcher = sqlname.CaseSensitive()
	}
	cat := NewMem(matcher)

	for name, tf := range file.Tables {
		table, err := buildTable(name, tf)
		if err != nil {
			return nil, err
		}
		cat.Add(table)
	}
	return cat, nil
}

// LoadYAMLFile reads and parses a catalog definition file.
func LoadYAMLFile(path string) (*Mem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return LoadYAML(data)
}

func buildTable(name string, tf tableFile) (*Table, error) {
	if len(tf.Columns) == 0 {
		return nil, fmt.Errorf("table %s: no columns defined", name)
	}

	table := &Table{Name: name}
	for i, cf := range tf.Columns {
		if cf.Name == "" {
			return nil, fmt.Errorf("table %s: column %d: name is required", name, i)
		}
		kind, ok := sqltype.ParseKind(strings.ToUpper(cf.Type))
		if !ok {
			return nil, fmt.Errorf("table %s: column %s: unknown type %q", name, cf.Name, cf.Type)
		}
		table.Columns = append(table.Columns, rowtype.Field{
			Name:     cf.Name,
			Type:     sqltype.Type{Kind: kind, Precision: cf.Precision},
			Nullable: cf.Nullable,
			System:   cf.System,
		})
	}

	for _, of := range tf.Ordering {
		found := false
		for _, col := range table.Columns {
			if col.Name == of.Column {
				found = true
				break
			}
		}
		if !found {
			return nil, fmt.Errorf("table %s: ordering references unknown column %q", name, of.Column)
		}
		table.Ordering = append(table.Ordering, ColumnOrder{Column: of.Column, Desc: of.Desc})
	}

	return table, nil
}
