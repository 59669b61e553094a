package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"zenwallet/internal/ledger"
	"zenwallet/internal/util"
	"zenwallet/models"
)

const (
	AccountsSheet     = "Accounts"
	TransactionsSheet = "Transactions"

	ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

var (
	accountHeaders     = []any{"Name", "Type", "Currency", "Opening Balance", "Balance", "Formatted"}
	transactionHeaders = []any{"Date", "Type", "Account", "Counterparty", "Category", "Sub-category", "Note", "Amount", "Balance Before", "Balance After", "Currency"}
)

// WriteWorkbook renders the snapshot as an xlsx workbook with one sheet of
// accounts and one sheet of per-account ledger rows, newest first.
func WriteWorkbook(w io.Writer, s models.Snapshot) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", AccountsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(TransactionsSheet); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}

	if err := writeAccounts(f, s.Accounts); err != nil {
		return err
	}
	if err := writeTransactions(f, s); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeAccounts(f *excelize.File, accounts []models.Account) error {
	if err := setRow(f, AccountsSheet, 1, accountHeaders); err != nil {
		return err
	}
	for i, a := range accounts {
		row := []any{
			a.Name,
			string(a.Type),
			a.Currency,
			a.OpeningBalance.InexactFloat64(),
			a.Balance.InexactFloat64(),
			util.FormatAmount(a.Balance, a.Currency),
		}
		if err := setRow(f, AccountsSheet, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(AccountsSheet, "A", "A", 20)
	_ = f.SetColWidth(AccountsSheet, "D", "F", 16)
	return nil
}

func writeTransactions(f *excelize.File, s models.Snapshot) error {
	names := make(map[string]string, len(s.Accounts))
	for _, a := range s.Accounts {
		names[a.ID] = a.Name
	}
	name := func(id string) string {
		if n, ok := names[id]; ok {
			return n
		}
		return id
	}

	if err := setRow(f, TransactionsSheet, 1, transactionHeaders); err != nil {
		return err
	}
	for i, r := range ledger.Rows(s.Transactions, s.Accounts, nil) {
		tx := r.Transaction
		counterparty := ""
		if tx.Type == models.Transfer {
			counterparty = tx.ToAccountID
			if r.AccountID == tx.ToAccountID {
				counterparty = tx.AccountID
			}
			counterparty = name(counterparty)
		}
		row := []any{
			tx.Date.Format("2006-01-02"),
			string(tx.Type),
			name(r.AccountID),
			counterparty,
			tx.Category,
			tx.SubCategory,
			tx.Note,
			r.Delta.InexactFloat64(),
			nil,
			nil,
			tx.Currency,
		}
		if r.Known {
			row[8] = r.Before.InexactFloat64()
			row[9] = r.After.InexactFloat64()
		}
		if err := setRow(f, TransactionsSheet, i+2, row); err != nil {
			return err
		}
	}
	_ = f.SetColWidth(TransactionsSheet, "A", "A", 12)
	_ = f.SetColWidth(TransactionsSheet, "C", "E", 18)
	_ = f.SetColWidth(TransactionsSheet, "G", "G", 30)
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}
