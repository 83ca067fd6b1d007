// Package export renders transaction records as flat tabular text for
// download. The dialect is fixed: N/A for an absent party, yyyy-MM-dd
// HH:mm:ss timestamps, quoting triggered by comma, double quote, or single
// quote, internal double quotes doubled, and embedded line breaks collapsed
// to a single space.
package export

import (
	"strconv"
	"strings"

	"github.com/simplebank/ledger-engine/internal/models"
)

const (
	csvHeader       = "Transaction ID,Sender,Receiver,Amount,Date,Type,Description\n"
	timestampLayout = "2006-01-02 15:04:05"
)

// TransactionsCSV serializes the records in the order given.
func TransactionsCSV(transactions []models.Transaction) string {
	var b strings.Builder
	b.WriteString(csvHeader)

	for _, t := range transactions {
		b.WriteString(strconv.FormatInt(t.ID, 10))
		b.WriteByte(',')
		b.WriteString(escapeField(partyOrNA(t.Sender)))
		b.WriteByte(',')
		b.WriteString(escapeField(partyOrNA(t.Receiver)))
		b.WriteByte(',')
		b.WriteString(t.Amount.StringFixed(2))
		b.WriteByte(',')
		b.WriteString(t.Timestamp.Format(timestampLayout))
		b.WriteByte(',')
		b.WriteString(string(t.Type))
		b.WriteByte(',')
		b.WriteString(escapeField(t.Description))
		b.WriteByte('\n')
	}
	return b.String()
}

func partyOrNA(party *string) string {
	if party == nil {
		return "N/A"
	}
	return *party
}

func escapeField(field string) string {
	field = collapseLineBreaks(field)
	if strings.ContainsAny(field, ",\"'") {
		field = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
	}
	return field
}

// collapseLineBreaks replaces each line break (\r\n, \n, or bare \r) with
// one space.
func collapseLineBreaks(field string) string {
	field = strings.ReplaceAll(field, "\r\n", " ")
	field = strings.ReplaceAll(field, "\n", " ")
	field = strings.ReplaceAll(field, "\r", " ")
	return field
}
