package export

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/simplebank/ledger-engine/internal/models"
)

func strPtr(s string) *string { return &s }

func record(id int64, sender, receiver *string, amount string, typ models.TransactionType, description string) models.Transaction {
	return models.Transaction{
		ID:          id,
		Sender:      sender,
		Receiver:    receiver,
		Amount:      decimal.RequireFromString(amount),
		Timestamp:   time.Date(2024, 3, 15, 14, 5, 9, 0, time.UTC),
		Type:        typ,
		Description: description,
	}
}

func TestEmptyExportIsHeaderOnly(t *testing.T) {
	got := TransactionsCSV(nil)
	assert.Equal(t, "Transaction ID,Sender,Receiver,Amount,Date,Type,Description\n", got)
}

func TestCreditRowRendersNAForSender(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(1, nil, strPtr("alice"), "100.00", models.TypeCredit, "Account credited"),
	})
	lines := strings.Split(strings.TrimRight(got, "\n"), "\n")
	assert.Equal(t, "1,N/A,alice,100.00,2024-03-15 14:05:09,CREDIT,Account credited", lines[1])
}

func TestDebitRowRendersNAForReceiver(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(2, strPtr("alice"), nil, "30.50", models.TypeDebit, "Account debited"),
	})
	assert.Contains(t, got, "2,alice,N/A,30.50,2024-03-15 14:05:09,DEBIT,Account debited\n")
}

func TestAmountRenderedAtFixedScale(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(10, strPtr("alice"), nil, "7.5", models.TypeDebit, ""),
	})
	assert.Contains(t, got, ",7.50,")
}

func TestTransferRow(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(3, strPtr("alice"), strPtr("bob"), "50.00", models.TypeTransfer, "Transfer from alice to bob"),
	})
	assert.Contains(t, got, "3,alice,bob,50.00,2024-03-15 14:05:09,TRANSFER,Transfer from alice to bob\n")
}

func TestFieldWithCommaIsQuoted(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(4, strPtr("alice"), nil, "1.00", models.TypeDebit, "rent, march"),
	})
	assert.Contains(t, got, `,"rent, march"`+"\n")
}

func TestInternalDoubleQuotesDoubled(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(5, strPtr("alice"), nil, "1.00", models.TypeDebit, `the "big" one`),
	})
	assert.Contains(t, got, `,"the ""big"" one"`+"\n")
}

func TestSingleQuoteTriggersQuoting(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(6, strPtr("alice"), nil, "1.00", models.TypeDebit, "bob's rent"),
	})
	assert.Contains(t, got, `,"bob's rent"`+"\n")
}

func TestLineBreaksCollapsedToSpace(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(7, strPtr("alice"), nil, "1.00", models.TypeDebit, "line one\nline two\r\nline three"),
	})
	assert.Contains(t, got, ",line one line two line three\n")
}

func TestLineBreakCollapsedBeforeQuoting(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(8, strPtr("alice"), nil, "1.00", models.TypeDebit, "first,\nsecond"),
	})
	assert.Contains(t, got, `,"first, second"`+"\n")
}

func TestQuotedSenderField(t *testing.T) {
	got := TransactionsCSV([]models.Transaction{
		record(9, strPtr(`o"hara`), strPtr("bob"), "2.00", models.TypeTransfer, ""),
	})
	assert.Contains(t, got, `9,"o""hara",bob,2.00,`)
}
