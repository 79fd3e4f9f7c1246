package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBuildLedgerEmpty(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	ledger := BuildLedger("Paróquia São João", date, nil)
	require.True(t, ledger.Empty)
	require.Empty(t, ledger.Sections)

	html, err := ledger.RenderHTML()
	require.NoError(t, err)
	require.Contains(t, html, "Nenhuma intenção aprovada")
	require.Contains(t, html, "15/03/2026")
}

func TestBuildLedgerSectionsInFixedOrder(t *testing.T) {
	t.Parallel()

	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	intentions := []Intention{
		{Intention: "Pela alma de Antônio", Category: CategoryDeceased, MassTime: "19:00"},
		{Intention: "Graças alcançadas", Category: CategoryThanksgiving, RequesterName: "Família Souza", MassTime: "08:00"},
		{Intention: "Pela alma de Helena", Category: CategoryDeceased, MassTime: "19:00"},
		{Intention: "Pela alma de Pedro", Category: CategoryDeceased},
	}

	ledger := BuildLedger("Paróquia São João", date, intentions)
	require.False(t, ledger.Empty)

	// Only the categories with entries appear, deceased first.
	require.Len(t, ledger.Sections, 2)
	require.Equal(t, CategoryDeceased, ledger.Sections[0].Category)
	require.Equal(t, CategoryThanksgiving, ledger.Sections[1].Category)
	require.Len(t, ledger.Sections[0].Entries, 3)
	require.Len(t, ledger.Sections[1].Entries, 1)

	// Submission order preserved within a section.
	require.Equal(t, "Pela alma de Antônio", ledger.Sections[0].Entries[0].Intention)
	require.Equal(t, "Pela alma de Pedro", ledger.Sections[0].Entries[2].Intention)

	// Distinct mass times, sorted.
	require.Equal(t, []string{"08:00", "19:00"}, ledger.MassTimes)
}

func TestBuildLedgerUnknownCategoryFallsThrough(t *testing.T) {
	t.Parallel()

	ledger := BuildLedger("Paróquia", time.Now(), []Intention{
		{Intention: "Intenção antiga", Category: "legacy"},
	})
	require.Len(t, ledger.Sections, 1)
	require.Equal(t, CategoryOther, ledger.Sections[0].Category)
}

func TestRenderHTMLEscapesContent(t *testing.T) {
	t.Parallel()

	ledger := BuildLedger("Paróquia", time.Now(), []Intention{
		{Intention: "<script>alert(1)</script>", Category: CategoryLiving},
	})
	html, err := ledger.RenderHTML()
	require.NoError(t, err)
	require.NotContains(t, html, "<script>alert")
	require.True(t, strings.Contains(html, "&lt;script&gt;"))
}
