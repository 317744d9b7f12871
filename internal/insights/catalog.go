/*-------------------------------------------------------------------------
 *
 * BankSight Analytics Server - Analytical Query Catalog
 *
 * Copyright (c) 2026, the BankSight authors
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package insights

import (
	"context"
	"fmt"

	"banksight/internal/store"
)

// Insight is one fixed, parameterless analytical query. The SQL text is
// static; results depend only on store contents.
type Insight struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	SQL  string `json:"sql"`
}

// Catalog lists the analytical queries in presentation order
var Catalog = []Insight{
	{
		ID:   "Q1",
		Name: "Customers per city & avg balance",
		SQL: `SELECT c.city,
       COUNT(*) AS total_customers,
       ROUND(AVG(a.account_balance),2) AS avg_balance
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
GROUP BY c.city
ORDER BY avg_balance DESC;`,
	},
	{
		ID:   "Q2",
		Name: "Account type holding highest total balance",
		SQL: `SELECT c.account_type,
       SUM(a.account_balance) AS total_balance
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
GROUP BY c.account_type
ORDER BY total_balance DESC;`,
	},
	{
		ID:   "Q3",
		Name: "Top 10 customers by total balance",
		SQL: `SELECT c.customer_id, c.name, c.city, a.account_balance
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
ORDER BY a.account_balance DESC
LIMIT 10;`,
	},
	{
		ID:   "Q4",
		Name: "Customers in 2023 with balance > 100000",
		SQL: `SELECT c.customer_id, c.name, c.city, c.join_date, a.account_balance
FROM customers c
JOIN accounts a ON c.customer_id = a.customer_id
WHERE c.join_date LIKE '2023%' AND a.account_balance > 100000;`,
	},
	{
		ID:   "Q5",
		Name: "Total transaction volume by type",
		SQL: `SELECT txn_type, SUM(amount) AS total_volume
FROM transactions
GROUP BY txn_type
ORDER BY total_volume DESC;`,
	},
	{
		ID:   "Q6",
		Name: "Accounts with >3 failed txns in a month",
		SQL: `SELECT customer_id, strftime('%Y-%m', txn_time) AS month, COUNT(*) AS failed_count
FROM transactions
WHERE LOWER(status) = 'failed'
GROUP BY customer_id, month
HAVING COUNT(*) > 3;`,
	},
	{
		ID:   "Q7",
		Name: "Top 5 branches by txn volume (last 6 months)",
		SQL: `SELECT b.Branch_Name, SUM(t.amount) AS total_volume
FROM transactions t
JOIN customers c ON t.customer_id = c.customer_id
JOIN branches b ON c.city = b.City
WHERE DATE(t.txn_time) >= DATE('now','-6 months')
GROUP BY b.Branch_Name
ORDER BY total_volume DESC
LIMIT 5;`,
	},
	{
		ID:   "Q8",
		Name: "Accounts with >=5 high-value txns (>200000)",
		SQL: `SELECT customer_id, COUNT(*) AS high_value_count
FROM transactions
WHERE amount > 200000
GROUP BY customer_id
HAVING COUNT(*) >= 5;`,
	},
	{
		ID:   "Q9",
		Name: "Avg loan amount & interest by loan type",
		SQL: `SELECT Loan_Type, AVG(Loan_Amount) AS avg_amount, AVG(Interest_Rate) AS avg_rate
FROM loans
GROUP BY Loan_Type;`,
	},
	{
		ID:   "Q10",
		Name: "Customers holding >1 active/approved loan",
		SQL: `SELECT Customer_ID, COUNT(*) AS active_loans
FROM loans
WHERE Loan_Status IN ('Active', 'Approved')
GROUP BY Customer_ID
HAVING COUNT(*) > 1;`,
	},
	{
		ID:   "Q11",
		Name: "Top 5 customers with highest outstanding loan amount",
		SQL: `SELECT Customer_ID, SUM(Loan_Amount) AS total_outstanding
FROM loans
WHERE Loan_Status != 'Closed'
GROUP BY Customer_ID
ORDER BY total_outstanding DESC
LIMIT 5;`,
	},
	{
		ID:   "Q12",
		Name: "Branch with highest total account balance",
		SQL: `SELECT b.Branch_Name, SUM(a.account_balance) AS total_balance
FROM accounts a
JOIN customers c ON a.customer_id = c.customer_id
JOIN branches b ON c.city = b.City
GROUP BY b.Branch_Name
ORDER BY total_balance DESC
LIMIT 1;`,
	},
	{
		ID:   "Q13",
		Name: "Branch performance summary",
		SQL: `SELECT b.Branch_Name,
       COUNT(DISTINCT c.customer_id) AS total_customers,
       COUNT(DISTINCT l.Loan_ID) AS total_loans,
       COALESCE(SUM(t.amount),0) AS transaction_volume
FROM branches b
LEFT JOIN customers c ON c.city = b.City
LEFT JOIN loans l ON l.Branch = b.Branch_Name OR l.Branch = b.City
LEFT JOIN transactions t ON t.customer_id = c.customer_id
GROUP BY b.Branch_Name;`,
	},
	{
		ID:   "Q14",
		Name: "Issue categories with longest avg resolution time",
		SQL: `SELECT Issue_Category,
       AVG(julianday(Date_Closed) - julianday(Date_Opened)) AS avg_days
FROM support_tickets
WHERE Date_Closed IS NOT NULL
GROUP BY Issue_Category
ORDER BY avg_days DESC;`,
	},
	{
		ID:   "Q15",
		Name: "Support agents resolving most critical tickets (rating >=4)",
		SQL: `SELECT Support_Agent, COUNT(*) AS resolved_critical
FROM support_tickets
WHERE Priority = 'Critical' AND Customer_Rating >= 4
GROUP BY Support_Agent
ORDER BY resolved_critical DESC;`,
	},
}

// Find looks an insight up by its ID
func Find(id string) (Insight, bool) {
	for _, ins := range Catalog {
		if ins.ID == id {
			return ins, true
		}
	}
	return Insight{}, false
}

// Run executes an insight's query against the store. Errors from the store
// surface verbatim so a broken catalog entry is distinguishable from an
// empty result.
func Run(ctx context.Context, s *store.Store, id string) (store.Result, error) {
	ins, ok := Find(id)
	if !ok {
		return store.Result{}, fmt.Errorf("unknown insight: %s", id)
	}
	return s.RunQuery(ctx, ins.SQL)
}
