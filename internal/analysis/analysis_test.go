package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voitta-ai/jetbrains-voitta/pkg/types"
)

const sampleSource = `package orders

import (
	"fmt"
	"time"
)

// Order is one customer order.
type Order struct {
	ID        int       ` + "`json:\"id\"`" + `
	CreatedAt time.Time ` + "`json:\"createdAt\"`" + `
	items     []string
}

// Total sums the order's line items.
func (o *Order) Total() (int, error) {
	return len(o.items), nil
}

// Repository stores orders.
type Repository interface {
	// Find looks up one order.
	Find(id int) (*Order, error)
	Save(o *Order) error
}

// NewOrder creates an empty order.
func NewOrder(id int) *Order {
	return &Order{ID: id}
}

func describe(o *Order) string {
	return fmt.Sprintf("order %d", o.ID)
}
`

func writeWorkspace(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "orders.go"), []byte(sampleSource), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "vendor", "dep"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "vendor", "dep", "dep.go"),
		[]byte("package dep\n\nfunc NewOrder() {}\n"), 0o644))
	return dir
}

func TestFileStructure(t *testing.T) {
	dir := writeWorkspace(t)
	a := New(dir)

	structure, err := a.FileStructure("orders.go")
	require.NoError(t, err)

	assert.Equal(t, "orders", structure.Package)
	assert.ElementsMatch(t, []string{"fmt", "time"}, structure.Imports)

	require.Len(t, structure.Types, 2)

	var order, repo *types.TypeInfo
	for i := range structure.Types {
		switch structure.Types[i].Name {
		case "Order":
			order = &structure.Types[i]
		case "Repository":
			repo = &structure.Types[i]
		}
	}
	require.NotNil(t, order)
	require.NotNil(t, repo)

	assert.Equal(t, "struct", order.Kind)
	assert.True(t, order.Exported)
	assert.Contains(t, order.Doc, "customer order")
	require.Len(t, order.Fields, 3)
	assert.Equal(t, "ID", order.Fields[0].Name)
	assert.Equal(t, "int", order.Fields[0].Type)
	assert.Equal(t, `json:"id"`, order.Fields[0].Tag)
	assert.Equal(t, "time.Time", order.Fields[1].Type)
	assert.Equal(t, "[]string", order.Fields[2].Type)

	// The method declared on *Order attaches to the type, not the file's
	// function list.
	require.Len(t, order.Methods, 1)
	assert.Equal(t, "Total", order.Methods[0].Name)
	assert.Equal(t, "Order", order.Methods[0].Receiver)
	assert.Equal(t, "func (*Order) Total() (int, error)", order.Methods[0].Signature)

	assert.Equal(t, "interface", repo.Kind)
	require.Len(t, repo.Methods, 2)
	assert.Equal(t, "Find", repo.Methods[0].Name)
	assert.Equal(t, "Find(id int) (*Order, error)", repo.Methods[0].Signature)

	require.Len(t, structure.Functions, 2)
	names := []string{structure.Functions[0].Name, structure.Functions[1].Name}
	assert.ElementsMatch(t, []string{"NewOrder", "describe"}, names)
	for _, fn := range structure.Functions {
		if fn.Name == "NewOrder" {
			assert.True(t, fn.Exported)
			assert.Equal(t, "func NewOrder(id int) *Order", fn.Signature)
		}
		if fn.Name == "describe" {
			assert.False(t, fn.Exported)
		}
	}
}

func TestFileStructureMissingFile(t *testing.T) {
	a := New(t.TempDir())

	_, err := a.FileStructure("nope.go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFileStructureRejectsEscape(t *testing.T) {
	a := New(t.TempDir())

	_, err := a.FileStructure("../outside.go")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "workspace")
}

func TestFindSymbol(t *testing.T) {
	dir := writeWorkspace(t)
	a := New(dir)

	matches, err := a.FindSymbol("order", "")
	require.NoError(t, err)

	// Case-insensitive substring match: Order, Repository is excluded,
	// NewOrder included; vendor/ is skipped.
	byName := map[string]types.SymbolMatch{}
	for _, m := range matches {
		byName[m.Name] = m
	}
	assert.Contains(t, byName, "Order")
	assert.Contains(t, byName, "NewOrder")
	assert.NotContains(t, byName, "Repository")

	assert.Equal(t, "type", byName["Order"].Kind)
	assert.Equal(t, "function", byName["NewOrder"].Kind)
	assert.Equal(t, "orders.go", byName["Order"].File)
	assert.Greater(t, byName["Order"].Line, 0)

	for _, m := range matches {
		assert.NotContains(t, m.File, "vendor")
	}
}

func TestFindSymbolKindFilter(t *testing.T) {
	dir := writeWorkspace(t)
	a := New(dir)

	matches, err := a.FindSymbol("total", "method")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "Total", matches[0].Name)
	assert.Equal(t, "method", matches[0].Kind)
	assert.Equal(t, "Order", matches[0].Container)

	matches, err = a.FindSymbol("total", "type")
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFindSymbolRequiresQuery(t *testing.T) {
	a := New(t.TempDir())

	_, err := a.FindSymbol("", "")
	require.Error(t, err)
}
