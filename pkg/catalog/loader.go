package catalog

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/heap"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"strings"
)

// LoadSchemaFile reads a catalog description file and registers every table
// it lists. Each non-empty line has the form
//
//	path | name type, name type, ... | primaryKeyName?
//
// where type is "int" or "string". The table name is the path's base name
// without extension. Relative paths are resolved against the schema file's
// directory. Returns the names of the tables registered.
func LoadSchemaFile(c *Catalog, schemaPath string) ([]string, error) {
	file, err := os.Open(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open schema file: %w", err)
	}
	defer file.Close()

	baseDir := filepath.Dir(schemaPath)
	var registered []string

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		name, err := loadTableLine(c, baseDir, line)
		if err != nil {
			return registered, fmt.Errorf("schema file line %d: %w", lineNo, err)
		}
		registered = append(registered, name)
	}

	if err := scanner.Err(); err != nil {
		return registered, fmt.Errorf("failed to read schema file: %w", err)
	}

	return registered, nil
}

func loadTableLine(c *Catalog, baseDir, line string) (string, error) {
	parts := strings.Split(line, "|")
	if len(parts) < 2 || len(parts) > 3 {
		return "", fmt.Errorf("expected 'path | schema | primaryKey?', got %q", line)
	}

	path := strings.TrimSpace(parts[0])
	if path == "" {
		return "", fmt.Errorf("empty table path")
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(baseDir, path)
	}

	td, err := parseSchemaSpec(strings.TrimSpace(parts[1]))
	if err != nil {
		return "", err
	}

	primaryKey := ""
	if len(parts) == 3 {
		primaryKey = strings.TrimSpace(parts[2])
		if primaryKey != "" {
			if _, err := td.FindFieldIndex(primaryKey); err != nil {
				return "", fmt.Errorf("primary key %q is not a column", primaryKey)
			}
		}
	}

	hf, err := heap.NewHeapFile(primitives.Filepath(path), td)
	if err != nil {
		return "", fmt.Errorf("failed to open heap file %s: %w", path, err)
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if err := c.AddTable(hf, name, primaryKey); err != nil {
		hf.Close()
		return "", err
	}

	return name, nil
}

// parseSchemaSpec parses "name type, name type, ..." into a descriptor.
func parseSchemaSpec(spec string) (*tuple.TupleDescription, error) {
	columns := strings.Split(spec, ",")
	if len(columns) == 0 {
		return nil, fmt.Errorf("empty schema spec")
	}

	fieldTypes := make([]types.Type, 0, len(columns))
	fieldNames := make([]string, 0, len(columns))

	for _, col := range columns {
		fields := strings.Fields(strings.TrimSpace(col))
		if len(fields) != 2 {
			return nil, fmt.Errorf("expected 'name type', got %q", col)
		}

		fieldNames = append(fieldNames, fields[0])

		switch strings.ToLower(fields[1]) {
		case "int":
			fieldTypes = append(fieldTypes, types.IntType)
		case "string":
			fieldTypes = append(fieldTypes, types.StringType)
		default:
			return nil, fmt.Errorf("unknown column type %q", fields[1])
		}
	}

	return tuple.NewTupleDesc(fieldTypes, fieldNames)
}
