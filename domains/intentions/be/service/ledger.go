package service

import (
	"html/template"
	"sort"
	"strings"
	"time"
)

// Ledger is the printable intention sheet for one mass date.
type Ledger struct {
	ParishName string
	Date       time.Time
	MassTimes  []string
	Sections   []LedgerSection
	Empty      bool
}

// LedgerSection groups the entries of one category.
type LedgerSection struct {
	Category string
	Title    string
	Entries  []LedgerEntry
}

// LedgerEntry is one printed line.
type LedgerEntry struct {
	Intention     string
	RequesterName string
	MassTime      string
}

// Section titles in print order. Categories with no approved intentions are
// omitted from the sheet.
var sectionOrder = []struct {
	category string
	title    string
}{
	{CategoryDeceased, "Falecidos"},
	{CategoryLiving, "Vivos"},
	{CategoryThanksgiving, "Ação de Graças"},
	{CategoryOther, "Outras Intenções"},
}

// BuildLedger folds approved intentions into the printable structure. Input
// order is preserved within each section; an unknown category lands in the
// last section rather than being dropped.
func BuildLedger(parishName string, date time.Time, intentions []Intention) Ledger {
	ledger := Ledger{
		ParishName: parishName,
		Date:       date,
		Empty:      len(intentions) == 0,
	}

	byCategory := map[string][]LedgerEntry{}
	timesSeen := map[string]struct{}{}

	for _, intention := range intentions {
		category := intention.Category
		if _, ok := validCategories[category]; !ok {
			category = CategoryOther
		}
		byCategory[category] = append(byCategory[category], LedgerEntry{
			Intention:     intention.Intention,
			RequesterName: intention.RequesterName,
			MassTime:      intention.MassTime,
		})
		if intention.MassTime != "" {
			timesSeen[intention.MassTime] = struct{}{}
		}
	}

	for _, section := range sectionOrder {
		entries := byCategory[section.category]
		if len(entries) == 0 {
			continue
		}
		ledger.Sections = append(ledger.Sections, LedgerSection{
			Category: section.category,
			Title:    section.title,
			Entries:  entries,
		})
	}

	for massTime := range timesSeen {
		ledger.MassTimes = append(ledger.MassTimes, massTime)
	}
	sort.Strings(ledger.MassTimes)

	return ledger
}

var ledgerTemplate = template.Must(template.New("ledger").Parse(`<!DOCTYPE html>
<html lang="pt-BR">
<head>
<meta charset="utf-8">
<title>Intenções de Missa - {{.ParishName}}</title>
<style>
body { font-family: Georgia, serif; margin: 2rem; }
h1 { font-size: 1.4rem; margin-bottom: 0; }
h2 { font-size: 1.1rem; border-bottom: 1px solid #333; padding-bottom: 2px; }
.meta { color: #444; margin-bottom: 1.5rem; }
.entry { margin: 0.3rem 0; }
.requester { color: #666; font-size: 0.9rem; }
.empty { margin-top: 2rem; font-style: italic; }
</style>
</head>
<body>
<h1>{{.ParishName}}</h1>
<p class="meta">Intenções de Missa - {{.Date.Format "02/01/2006"}}{{if .MassTimes}} · Horários: {{range $i, $t := .MassTimes}}{{if $i}}, {{end}}{{$t}}{{end}}{{end}}</p>
{{if .Empty}}
<p class="empty">Nenhuma intenção aprovada para esta data.</p>
{{else}}
{{range .Sections}}
<h2>{{.Title}}</h2>
{{range .Entries}}
<p class="entry">{{.Intention}}{{if .RequesterName}} <span class="requester">(pedido por {{.RequesterName}})</span>{{end}}{{if .MassTime}} <span class="requester">- {{.MassTime}}</span>{{end}}</p>
{{end}}
{{end}}
{{end}}
</body>
</html>
`))

// RenderHTML renders the ledger as a self-contained printable page.
func (l Ledger) RenderHTML() (string, error) {
	var sb strings.Builder
	if err := ledgerTemplate.Execute(&sb, l); err != nil {
		return "", err
	}
	return sb.String(), nil
}
