package models

// DashboardStats is the aggregate view shown on the home dashboard.
// NetProfit is always GrossProfit - TotalExpenses, exactly.
type DashboardStats struct {
	TotalStockUnits  int     `json:"totalStockUnits"`
	StockValue       float64 `json:"stockValue"`
	TotalSales       float64 `json:"totalSales"`
	GrossProfit      float64 `json:"grossProfit"`
	TotalExpenses    float64 `json:"totalExpenses"`
	NetProfit        float64 `json:"netProfit"`
	BookCount        int     `json:"bookCount"`
	LowStockCount    int     `json:"lowStockCount"`
	ProfitMargin     float64 `json:"profitMargin"`
	TransactionCount int     `json:"transactionCount"`
}

// StockValueItem annotates a book with the total cost value of its stock.
type StockValueItem struct {
	Book
	TotalValue float64 `json:"totalValue"`
}

// SalesGroup accumulates the sales of one title.
type SalesGroup struct {
	BookName     string  `json:"bookName"`
	TotalQty     int     `json:"totalQty"`
	TotalRevenue float64 `json:"totalRevenue"`
	TotalProfit  float64 `json:"totalProfit"`
	Transactions []Sale  `json:"transactions"`
}

// ExpenseGroup accumulates expenses of one category.
type ExpenseGroup struct {
	Type  string  `json:"type"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}
