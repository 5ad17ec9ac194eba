package catalog

import (
	"os"
	"path/filepath"
	"relstore/pkg/primitives"
	"relstore/pkg/storage/heap"
	"relstore/pkg/tuple"
	"relstore/pkg/types"
	"testing"
)

func newTestHeapFile(t *testing.T, name string) *heap.HeapFile {
	t.Helper()

	td, err := tuple.NewTupleDesc([]types.Type{types.IntType, types.IntType}, []string{"id", "v"})
	if err != nil {
		t.Fatalf("NewTupleDesc failed: %v", err)
	}

	hf, err := heap.NewHeapFile(primitives.Filepath(filepath.Join(t.TempDir(), name)), td)
	if err != nil {
		t.Fatalf("NewHeapFile failed: %v", err)
	}
	return hf
}

func TestCatalog_AddAndLookup(t *testing.T) {
	c := NewCatalog()
	hf := newTestHeapFile(t, "users.dat")

	if err := c.AddTable(hf, "users", "id"); err != nil {
		t.Fatalf("AddTable failed: %v", err)
	}

	id, err := c.GetTableID("users")
	if err != nil {
		t.Fatalf("GetTableID failed: %v", err)
	}
	if id != hf.GetID() {
		t.Error("Catalog id should match the file's id")
	}

	file, err := c.GetDbFile(id)
	if err != nil {
		t.Fatalf("GetDbFile failed: %v", err)
	}
	if file != hf {
		t.Error("GetDbFile should return the registered file")
	}

	name, _ := c.GetTableName(id)
	if name != "users" {
		t.Errorf("Expected name 'users', got %q", name)
	}

	pkey, _ := c.GetPrimaryKey(id)
	if pkey != "id" {
		t.Errorf("Expected primary key 'id', got %q", pkey)
	}

	td, err := c.GetTupleDesc(id)
	if err != nil {
		t.Fatalf("GetTupleDesc failed: %v", err)
	}
	if !td.Equals(hf.GetTupleDesc()) {
		t.Error("Catalog schema should match the file's schema")
	}
}

func TestCatalog_Validation(t *testing.T) {
	c := NewCatalog()

	if err := c.AddTable(nil, "x", ""); err == nil {
		t.Error("Expected error for nil file")
	}

	hf := newTestHeapFile(t, "t.dat")
	defer hf.Close()
	if err := c.AddTable(hf, "", ""); err == nil {
		t.Error("Expected error for empty name")
	}
}

func TestCatalog_ReplaceByName(t *testing.T) {
	c := NewCatalog()

	hf1 := newTestHeapFile(t, "a.dat")
	hf2 := newTestHeapFile(t, "b.dat")
	defer hf1.Close()
	defer hf2.Close()

	c.AddTable(hf1, "t", "")
	c.AddTable(hf2, "t", "")

	id, _ := c.GetTableID("t")
	if id != hf2.GetID() {
		t.Error("Re-registering a name should replace the table")
	}
	if len(c.TableIDs()) != 1 {
		t.Errorf("Expected 1 table after replacement, got %d", len(c.TableIDs()))
	}
}

func TestCatalog_RemoveTable(t *testing.T) {
	c := NewCatalog()
	hf := newTestHeapFile(t, "gone.dat")

	c.AddTable(hf, "gone", "")
	if err := c.RemoveTable("gone"); err != nil {
		t.Fatalf("RemoveTable failed: %v", err)
	}

	if c.TableExists("gone") {
		t.Error("Removed table should not exist")
	}
	if err := c.RemoveTable("gone"); err == nil {
		t.Error("Removing a missing table should fail")
	}
}

func TestLoadSchemaFile(t *testing.T) {
	dir := t.TempDir()

	schema := `# tables for the accounts service
accounts.dat | id int, owner string, balance int | id
audit.dat | entry int, note string
`
	schemaPath := filepath.Join(dir, "schema.txt")
	if err := os.WriteFile(schemaPath, []byte(schema), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	c := NewCatalog()
	defer c.Clear()

	names, err := LoadSchemaFile(c, schemaPath)
	if err != nil {
		t.Fatalf("LoadSchemaFile failed: %v", err)
	}

	if len(names) != 2 {
		t.Fatalf("Expected 2 tables, got %d", len(names))
	}
	if names[0] != "accounts" || names[1] != "audit" {
		t.Errorf("Unexpected table names: %v", names)
	}

	id, err := c.GetTableID("accounts")
	if err != nil {
		t.Fatalf("GetTableID failed: %v", err)
	}

	td, _ := c.GetTupleDesc(id)
	if td.NumFields() != 3 {
		t.Errorf("Expected 3 columns, got %d", td.NumFields())
	}
	if td.Types[1] != types.StringType {
		t.Error("Second column should be a string")
	}

	pkey, _ := c.GetPrimaryKey(id)
	if pkey != "id" {
		t.Errorf("Expected primary key 'id', got %q", pkey)
	}
}

func TestLoadSchemaFile_Errors(t *testing.T) {
	dir := t.TempDir()
	c := NewCatalog()
	defer c.Clear()

	cases := []struct {
		name string
		line string
	}{
		{"bad type", "t.dat | id uuid"},
		{"missing schema", "t.dat"},
		{"bad primary key", "t.dat | id int | nosuch"},
		{"malformed column", "t.dat | id"},
	}

	for _, tc := range cases {
		schemaPath := filepath.Join(dir, tc.name+".txt")
		if err := os.WriteFile(schemaPath, []byte(tc.line+"\n"), 0o644); err != nil {
			t.Fatalf("WriteFile failed: %v", err)
		}

		if _, err := LoadSchemaFile(c, schemaPath); err == nil {
			t.Errorf("%s: expected error for line %q", tc.name, tc.line)
		}
	}
}
