package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/melkamu26/CodeCrafters-ExpenseSplitter/internal/ledger"
)

// amount converts internal decimals to a presentation value. Monetary figures
// are rounded to two decimal places only at this boundary, never internally.
func amount(d decimal.Decimal) float64 {
	f, _ := d.Round(2).Float64()
	return f
}

type splitResponse struct {
	Username string  `json:"username"`
	Amount   float64 `json:"amount"`
}

type expenseResponse struct {
	ID      uuid.UUID       `json:"id"`
	GroupID uuid.UUID       `json:"group_id"`
	Group   string          `json:"group,omitempty"`
	Amount  float64         `json:"amount"`
	Title   string          `json:"title"`
	Note    string          `json:"note,omitempty"`
	Date    string          `json:"date"`
	PaidBy  string          `json:"paid_by"`
	Status  ledger.Status   `json:"status"`
	Splits  []splitResponse `json:"splits,omitempty"`
}

func toExpenseResponse(e *ledger.Expense) expenseResponse {
	resp := expenseResponse{
		ID:      e.ID,
		GroupID: e.GroupID,
		Group:   e.GroupName,
		Amount:  amount(e.Amount),
		Title:   e.Category,
		Note:    e.Note,
		Date:    e.Date.Format(time.DateOnly),
		PaidBy:  e.PaidBy,
		Status:  e.Status,
	}

	for _, s := range e.Splits {
		resp.Splits = append(resp.Splits, splitResponse{Username: s.Owner, Amount: amount(s.Amount)})
	}

	return resp
}

func toExpenseResponseList(expenses []*ledger.Expense) []expenseResponse {
	resp := make([]expenseResponse, len(expenses))
	for i, e := range expenses {
		resp[i] = toExpenseResponse(e)
	}

	return resp
}

type pendingSplitResponse struct {
	ExpenseID   uuid.UUID `json:"expense_id"`
	Title       string    `json:"title"`
	Date        string    `json:"date"`
	PaidBy      string    `json:"paid_by"`
	TotalAmount float64   `json:"total_amount"`
	AmountOwed  float64   `json:"amount_owed"`
	GroupID     uuid.UUID `json:"group_id"`
	GroupName   string    `json:"group_name"`
}

type pendingResponse struct {
	Pending   []pendingSplitResponse `json:"pending"`
	TotalOwed float64                `json:"total_owed"`
}

func toPendingResponse(result *ledger.PendingResult) pendingResponse {
	resp := pendingResponse{
		Pending:   make([]pendingSplitResponse, len(result.Pending)),
		TotalOwed: amount(result.TotalOwed),
	}

	for i, p := range result.Pending {
		resp.Pending[i] = pendingSplitResponse{
			ExpenseID:   p.ExpenseID,
			Title:       p.Title,
			Date:        p.Date.Format(time.DateOnly),
			PaidBy:      p.PaidBy,
			TotalAmount: amount(p.TotalAmount),
			AmountOwed:  amount(p.AmountOwed),
			GroupID:     p.GroupID,
			GroupName:   p.GroupName,
		}
	}

	return resp
}

type paymentRecordResponse struct {
	ID           int64     `json:"id"`
	Amount       float64   `json:"amount"`
	PaidAt       time.Time `json:"paid_at"`
	Method       string    `json:"payment_method"`
	ExpenseTitle string    `json:"expense_title"`
	GroupName    string    `json:"group_name"`
}

func toPaymentRecordList(records []ledger.PaymentRecord) []paymentRecordResponse {
	resp := make([]paymentRecordResponse, len(records))
	for i, r := range records {
		resp[i] = paymentRecordResponse{
			ID:           r.ID,
			Amount:       amount(r.Amount),
			PaidAt:       r.PaidAt,
			Method:       r.Method,
			ExpenseTitle: r.ExpenseTitle,
			GroupName:    r.GroupName,
		}
	}

	return resp
}

type transferResponse struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

type settlementPlanResponse struct {
	GroupID   uuid.UUID          `json:"group_id"`
	GroupName string             `json:"group_name,omitempty"`
	Transfers []transferResponse `json:"transfers"`
}

func toSettlementPlanResponse(plan *ledger.SettlementPlan) settlementPlanResponse {
	resp := settlementPlanResponse{
		GroupID:   plan.GroupID,
		GroupName: plan.GroupName,
		Transfers: make([]transferResponse, len(plan.Transfers)),
	}

	for i, t := range plan.Transfers {
		resp.Transfers[i] = transferResponse{From: t.From, To: t.To, Amount: amount(t.Amount)}
	}

	return resp
}

type spendResponse struct {
	Name  string  `json:"name"`
	Total float64 `json:"total"`
}

type overviewResponse struct {
	TotalSpend float64         `json:"total_spend"`
	ByGroup    []spendResponse `json:"by_group"`
	ByPayer    []spendResponse `json:"by_payer"`
	Monthly    []spendResponse `json:"monthly"`
}

func toOverviewResponse(ov *ledger.Overview) overviewResponse {
	resp := overviewResponse{TotalSpend: amount(ov.TotalSpend)}

	for _, g := range ov.ByGroup {
		resp.ByGroup = append(resp.ByGroup, spendResponse{Name: g.Group, Total: amount(g.Total)})
	}

	for _, p := range ov.ByPayer {
		resp.ByPayer = append(resp.ByPayer, spendResponse{Name: p.Payer, Total: amount(p.Total)})
	}

	for _, m := range ov.Monthly {
		resp.Monthly = append(resp.Monthly, spendResponse{Name: m.Month, Total: amount(m.Total)})
	}

	return resp
}
