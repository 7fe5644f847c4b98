package enums

// OutboxEventType identifies the domain event carried by an outbox row.
type OutboxEventType string

const (
	EventStockLow         OutboxEventType = "stock.low"
	EventOrderCreated     OutboxEventType = "order.created"
	EventDailySalesReport OutboxEventType = "report.daily_sales"
)

// OutboxAggregateType names the aggregate an outbox event belongs to.
type OutboxAggregateType string

const (
	AggregateProduct OutboxAggregateType = "product"
	AggregateOrder   OutboxAggregateType = "order"
	AggregateReport  OutboxAggregateType = "report"
)
