package alerts

// DefaultRules are the stock alerts every installation starts with.
// Deployments extend or replace them through configuration.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:       "low_stock",
			Kind:       KindStock,
			Expression: "min_stock > 0.0 && available <= min_stock",
		},
		{
			Name:       "overstock",
			Kind:       KindStock,
			Expression: "max_stock > 0.0 && available > max_stock",
		},
		{
			Name:       "expiring_soon",
			Kind:       KindBatch,
			Expression: "has_expiry && net_available > 0.0 && days_to_expiry <= 2.0",
		},
	}
}
