package datatier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

// TestMemoryEndpointRoundTrip tests basic get, put, and delete
func TestMemoryEndpointRoundTrip(t *testing.T) {
	ep := NewMemoryEndpoint("primary")
	ctx := context.Background()

	if ep.ID() != "primary" {
		t.Errorf("Expected ID 'primary', got %s", ep.ID())
	}

	if err := ep.Put(ctx, "key1", []byte("value1")); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	value, err := ep.Get(ctx, "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, []byte("value1")) {
		t.Errorf("Expected 'value1', got %q", value)
	}

	if err := ep.Delete(ctx, "key1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := ep.Get(ctx, "key1"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound after delete, got %v", err)
	}
}

// TestMemoryEndpointNotFound tests the absent-key error
func TestMemoryEndpointNotFound(t *testing.T) {
	ep := NewMemoryEndpoint("primary")

	_, err := ep.Get(context.Background(), "missing")
	if !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Expected ErrKeyNotFound, got %v", err)
	}
}

// TestMemoryEndpointDeleteIdempotent tests that deleting an absent key is not an error
func TestMemoryEndpointDeleteIdempotent(t *testing.T) {
	ep := NewMemoryEndpoint("primary")

	if err := ep.Delete(context.Background(), "missing"); err != nil {
		t.Errorf("Expected no error deleting absent key, got %v", err)
	}
}

// TestMemoryEndpointCopySemantics tests isolation between stored and caller buffers
func TestMemoryEndpointCopySemantics(t *testing.T) {
	ep := NewMemoryEndpoint("primary")
	ctx := context.Background()

	input := []byte("original")
	if err := ep.Put(ctx, "key", input); err != nil {
		t.Fatalf("Put failed: %v", err)
	}

	// Mutating the input must not reach the stored value
	input[0] = 'X'
	value, err := ep.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, []byte("original")) {
		t.Errorf("Stored value aliased to input buffer: got %q", value)
	}

	// Mutating the returned value must not reach the stored value
	value[0] = 'Y'
	again, _ := ep.Get(ctx, "key")
	if !bytes.Equal(again, []byte("original")) {
		t.Errorf("Returned value aliased to stored entry: got %q", again)
	}
}

// TestMemoryEndpointOverwrite tests that Put replaces existing values
func TestMemoryEndpointOverwrite(t *testing.T) {
	ep := NewMemoryEndpoint("primary")
	ctx := context.Background()

	ep.Put(ctx, "key", []byte("v1"))
	ep.Put(ctx, "key", []byte("v2"))

	value, err := ep.Get(ctx, "key")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !bytes.Equal(value, []byte("v2")) {
		t.Errorf("Expected overwritten value 'v2', got %q", value)
	}
	if ep.Len() != 1 {
		t.Errorf("Expected 1 key after overwrite, got %d", ep.Len())
	}
}

// TestMemoryEndpointConcurrent tests concurrent readers and writers
func TestMemoryEndpointConcurrent(t *testing.T) {
	ep := NewMemoryEndpoint("primary")
	ctx := context.Background()

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("key-%d-%d", g, i)
				if err := ep.Put(ctx, key, []byte("v")); err != nil {
					t.Errorf("Put failed: %v", err)
					return
				}
				if _, err := ep.Get(ctx, key); err != nil {
					t.Errorf("Get failed: %v", err)
					return
				}
			}
		}(g)
	}
	wg.Wait()

	if ep.Len() != 400 {
		t.Errorf("Expected 400 keys, got %d", ep.Len())
	}
}

// TestNewSQLEndpointValidation tests constructor validation without a live database
func TestNewSQLEndpointValidation(t *testing.T) {
	tests := []struct {
		name    string
		id      string
		dialect Dialect
		table   string
		wantErr bool
	}{
		{"postgres ok", "primary", DialectPostgres, "ballast_data", false},
		{"mysql ok", "primary", DialectMySQL, "ballast_data", false},
		{"sqlite ok", "primary", DialectSQLite, "ballast_data", false},
		{"empty id", "", DialectPostgres, "ballast_data", true},
		{"unknown dialect", "primary", Dialect("oracle"), "ballast_data", true},
		{"empty table", "primary", DialectPostgres, "", true},
		{"table with spaces", "primary", DialectPostgres, "bad table", true},
		{"table with quote", "primary", DialectPostgres, `data"; DROP TABLE x;--`, true},
		{"table starting with digit", "primary", DialectPostgres, "1data", true},
		{"underscore table", "primary", DialectSQLite, "_data", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSQLEndpoint(tt.id, nil, tt.dialect, tt.table)
			if tt.wantErr && err == nil {
				t.Error("Expected construction to fail")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected construction to succeed, got %v", err)
			}
		})
	}
}

// TestSQLEndpointStatements tests per-dialect statement shapes
func TestSQLEndpointStatements(t *testing.T) {
	tests := []struct {
		dialect     Dialect
		placeholder string
		upsertHint  string
	}{
		{DialectPostgres, "$1", "ON CONFLICT"},
		{DialectMySQL, "?", "ON DUPLICATE KEY"},
		{DialectSQLite, "?", "ON CONFLICT"},
	}

	for _, tt := range tests {
		t.Run(string(tt.dialect), func(t *testing.T) {
			ep, err := NewSQLEndpoint("primary", nil, tt.dialect, "ballast_data")
			if err != nil {
				t.Fatalf("Construction failed: %v", err)
			}

			for name, stmt := range map[string]string{
				"select": ep.selectSQL,
				"upsert": ep.upsertSQL,
				"delete": ep.deleteSQL,
			} {
				if !strings.Contains(stmt, tt.placeholder) {
					t.Errorf("Expected %s statement to use %q placeholders: %s", name, tt.placeholder, stmt)
				}
				if !strings.Contains(stmt, "ballast_data") {
					t.Errorf("Expected %s statement to name the table: %s", name, stmt)
				}
			}
			if !strings.Contains(ep.upsertSQL, tt.upsertHint) {
				t.Errorf("Expected upsert to use %q syntax: %s", tt.upsertHint, ep.upsertSQL)
			}
			if !strings.Contains(ep.createSQL, "IF NOT EXISTS") {
				t.Errorf("Expected idempotent schema statement: %s", ep.createSQL)
			}
		})
	}
}
